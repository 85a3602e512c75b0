// Package pointfile reads raw point record files and lazperf containers.
//
// Files are memory mapped where the platform supports it so that sessions
// decode straight out of the page cache.
package pointfile

import (
	"fmt"
	"os"
)

// Reader is a read-only view of a whole file.
type Reader struct {
	file   *os.File
	data   []byte
	mapped bool
}

// Open maps filename read-only.
func Open(filename string) (*Reader, error) {
	file, err := os.Open(filename) //nolint:gosec // G304: path supplied by the CLI user
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	size := stat.Size()
	if size == 0 {
		return &Reader{file: file}, nil
	}
	if int64(int(size)) != size {
		file.Close()
		return nil, fmt.Errorf("file of %d bytes cannot be mapped", size)
	}

	data, mapped, err := mapFile(file, int(size))
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to map file: %w", err)
	}

	return &Reader{
		file:   file,
		data:   data,
		mapped: mapped,
	}, nil
}

// Bytes returns the file contents. The slice is invalid after Close.
func (r *Reader) Bytes() []byte {
	return r.data
}

// Len returns the file size.
func (r *Reader) Len() int {
	return len(r.data)
}

// Records returns the number of whole records of pointSize bytes and an
// error if the file is not a whole number of records.
func (r *Reader) Records(pointSize int) (int, error) {
	if pointSize <= 0 {
		return 0, fmt.Errorf("point size must be positive, got %d", pointSize)
	}
	if len(r.data)%pointSize != 0 {
		return 0, fmt.Errorf("file of %d bytes is not a multiple of %d byte records", len(r.data), pointSize)
	}
	return len(r.data) / pointSize, nil
}

// Record returns record i of pointSize bytes.
func (r *Reader) Record(i, pointSize int) []byte {
	return r.data[i*pointSize : (i+1)*pointSize]
}

// Close unmaps the file.
func (r *Reader) Close() error {
	var err error
	if r.mapped && r.data != nil {
		err = unmapFile(r.data)
	}
	r.data = nil
	r.mapped = false
	if cerr := r.file.Close(); err == nil {
		err = cerr
	}
	return err
}
