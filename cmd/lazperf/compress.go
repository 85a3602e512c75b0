package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajitpratap0/lazperf/internal/pipeline"
	"github.com/ajitpratap0/lazperf/pkg/pointfile"
)

const defaultSchema = "point,gpstime,rgb"

func (a *app) compressCommand() *cobra.Command {
	var schemaList string

	cmd := &cobra.Command{
		Use:   "compress <points.bin> <output.lzp>",
		Short: "Compress raw point records into a lazperf container",
		Long: `Compress reads a file of fixed-size little-endian point records laid out
as --schema and writes a container holding the compressed stream, the
LASzip VLR, and the point count.`,
		Example: `  lazperf compress points.bin points.lzp --schema point,gpstime,rgb
  lazperf compress points.bin points.lzp --algorithm lz4 --chunk-size 10000`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := parseSchema(schemaList)
			if err != nil {
				return err
			}
			if size := schema.SizeInBytes(); size > pointfile.MaxPointSize {
				return fmt.Errorf("%d byte records exceed the container limit of %d bytes", size, pointfile.MaxPointSize)
			}
			opts, err := a.sessionOptions()
			if err != nil {
				return err
			}

			monitor := newResourceMonitor()

			in, err := pointfile.Open(args[0])
			if err != nil {
				return err
			}
			defer in.Close()

			if _, err := in.Records(schema.SizeInBytes()); err != nil {
				return err
			}

			out, err := os.Create(args[1]) //nolint:gosec // G304: path supplied by the CLI user
			if err != nil {
				return fmt.Errorf("failed to create output: %w", err)
			}
			defer out.Close()

			if _, err := pointfile.WriteHeader(out); err != nil {
				return fmt.Errorf("failed to write container header: %w", err)
			}
			res, err := pipeline.CompressStream(cmd.Context(), out, bytes.NewReader(in.Bytes()), schema, a.log, opts...)
			if err != nil {
				return err
			}
			if _, err := pointfile.WriteTrailer(out, res.Vlr, res.Points, res.PointSize); err != nil {
				return fmt.Errorf("failed to write container trailer: %w", err)
			}
			if err := out.Close(); err != nil {
				return fmt.Errorf("failed to close output: %w", err)
			}

			a.log.Info("container written",
				zap.String("input", args[0]),
				zap.String("output", args[1]),
				zap.Uint64("points", res.Points),
				zap.Float64("ratio", res.Ratio()))

			w := cmd.OutOrStdout()
			printSummary(w, "Compressed", [][2]string{
				{"Input", fmt.Sprintf("%s (%s)", args[0], formatBytes(uint64(res.InputBytes)))},
				{"Output", fmt.Sprintf("%s (%s)", args[1], formatBytes(uint64(res.OutputBytes)))},
				{"Points", fmt.Sprint(res.Points)},
				{"Record size", fmt.Sprintf("%d bytes", res.PointSize)},
				{"Codec", fmt.Sprintf("%s/%s, %d points per chunk", a.cfg.Codec.Algorithm, a.cfg.Codec.Level, a.cfg.Codec.ChunkSize)},
				{"Ratio", good(fmt.Sprintf("%.3f", res.Ratio()))},
				{"Duration", fmt.Sprintf("%s %s", res.Duration, faint(formatRate(res.Points, res.Duration)))},
			})
			printUsage(w, monitor.usage())
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&schemaList, "schema", defaultSchema, "Record layout: point, gpstime, rgb, extra=N in order")
	flags.String("algorithm", "", "Block codec (none, zstd, lz4, s2, snappy, gzip, deflate)")
	flags.String("level", "", "Codec level (fastest, default, better, best)")
	flags.Uint32("chunk-size", 0, "Points per chunk")
	_ = a.v.BindPFlag("codec.algorithm", flags.Lookup("algorithm"))
	_ = a.v.BindPFlag("codec.level", flags.Lookup("level"))
	_ = a.v.BindPFlag("codec.chunk_size", flags.Lookup("chunk-size"))

	return cmd
}
