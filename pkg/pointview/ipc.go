package pointview

import (
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Writer streams record batches as an Arrow IPC file.
type Writer struct {
	w *ipc.FileWriter
}

// NewWriter starts an Arrow IPC file on w.
func NewWriter(w io.Writer, schema *arrow.Schema, mem memory.Allocator) (*Writer, error) {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	fw, err := ipc.NewFileWriter(w, ipc.WithSchema(schema), ipc.WithAllocator(mem))
	if err != nil {
		return nil, fmt.Errorf("failed to create arrow writer: %w", err)
	}
	return &Writer{w: fw}, nil
}

// Write appends one record batch.
func (w *Writer) Write(rec arrow.Record) error {
	return w.w.Write(rec)
}

// Close writes the file footer.
func (w *Writer) Close() error {
	return w.w.Close()
}
