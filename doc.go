// Package lazperf provides a streaming compression session layer for
// fixed-size LAS point records.
//
// A compressor accepts one point at a time, seals points into independent
// chunks, and exposes the compressed bytes incrementally so callers can
// drain output while compression is still running. A decompressor is
// configured from the LASzip VLR payload the compressor produced and
// yields points back one at a time or in bulk.
//
// # Architecture
//
// The module is organized in three layers:
//
// 1. Sessions (pkg/lazperf): the public Compressor and Decompressor with
// their state machines, record schemas, and the bulk decode helper.
//
// 2. Engine (pkg/engine): chunk sealing, per-field delta prediction, the
// chunk table, and block codecs from pkg/compression. Sessions reach the
// engine through a Factory so it can be replaced.
//
// 3. Tooling (cmd/lazperf, internal/pipeline): file level streaming,
// the lazperf container, Arrow export, and observability wiring.
//
// # Quick Start
//
// Compress three points and decode them again:
//
//	import "github.com/ajitpratap0/lazperf/pkg/lazperf"
//
//	schema := lazperf.NewRecordSchema().PushPoint().PushGpsTime().PushRgb()
//	c, _ := lazperf.NewCompressor(schema)
//	defer c.Close()
//
//	for _, p := range points {
//	    c.CompressOne(p)
//	}
//	c.Done()
//	stream := c.InternalData() // prefix, chunks, chunk table
//	vlr, _ := c.LaszipVlrData()
//
//	out, _ := lazperf.DecompressPoints(stream[8:], vlr, len(points), schema.SizeInBytes())
//
// # Key Packages
//
//	pkg/lazperf       - Compressor and Decompressor sessions
//	pkg/engine        - Chunked point codec
//	pkg/laszip        - Point items and the LASzip VLR payload
//	pkg/compression   - Block codecs (zstd, lz4, s2, snappy, gzip, deflate)
//	pkg/pointfile     - Memory mapped input files and the container format
//	pkg/pointview     - Arrow columnar views of decoded points
//	pkg/config        - YAML configuration with ${VAR} substitution
//	pkg/errors        - Typed errors
//	pkg/logger        - Structured logging
//	pkg/metrics       - Prometheus metrics
//	pkg/observability - Tracing and the metrics endpoint
//	pkg/pool          - Buffer and object pools
//
// # Configuration
//
// The CLI reads a YAML file, LAZPERF_* environment variables, and flags:
//
//	codec:
//	  algorithm: zstd     # none, zstd, lz4, s2, snappy, gzip, deflate
//	  level: default      # fastest, default, better, best
//	  chunk_size: 50000
//	logging:
//	  level: info
//	observability:
//	  enable_metrics: true
//	  metrics_addr: ":9090"
//
// # Command Line
//
//	lazperf compress points.bin points.lzp --schema point,gpstime,rgb
//	lazperf info points.lzp --json
//	lazperf decompress points.lzp points.bin
//	lazperf export points.lzp points.arrow
package lazperf
