// Package lazperf provides streaming compression sessions for LAS point
// records.
//
// # Overview
//
// A RecordSchema describes the layout of one point record. A Compressor
// bound to a schema accepts records one at a time and exposes the bytes its
// engine emits through a borrowed view; a Decompressor reads them back.
//
// # Compression
//
// Callers drain the compressor after every call that reports available
// bytes, then finalize, drain, write the chunk table, and drain again:
//
//	schema := lazperf.NewRecordSchema().PushPoint().PushGpsTime().PushRgb()
//	c, err := lazperf.NewCompressor(schema)
//	if err != nil {
//	    return err
//	}
//	defer c.Close()
//
//	for _, p := range points {
//	    n, err := c.CompressOne(p)
//	    if err != nil {
//	        return err
//	    }
//	    if n > 0 {
//	        out = append(out, c.InternalData()...)
//	        c.ResetSize()
//	    }
//	}
//	// Done, drain, WriteChunkTable, drain
//
//	vlr, err := c.LaszipVlrData() // store in the LAS file
//
// The first 8 bytes of the drained stream hold the chunk table offset
// (ChunkTableOffset after Done). Container writers patch it; readers skip
// it before handing the stream to a Decompressor.
//
// # Decompression
//
//	points, err := lazperf.DecompressPoints(stream[8:], vlr, count, schema.SizeInBytes())
//
// # Errors
//
// Every error is a *errors.Error from pkg/errors. Use errors.IsType with
// ErrorTypePrecondition for misuse of a session, ErrorTypeEngineInit when an
// engine could not be built, and ErrorTypeDecompression for corrupt input.
//
// Sessions are not safe for concurrent use. Independent sessions may run on
// separate goroutines.
package lazperf
