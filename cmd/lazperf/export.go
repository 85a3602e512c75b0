package main

import (
	"fmt"
	"os"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajitpratap0/lazperf/pkg/engine"
	"github.com/ajitpratap0/lazperf/pkg/lazperf"
	"github.com/ajitpratap0/lazperf/pkg/pointfile"
	"github.com/ajitpratap0/lazperf/pkg/pointview"
)

func (a *app) exportCommand() *cobra.Command {
	var batchSize int

	cmd := &cobra.Command{
		Use:   "export <input.lzp> <output.arrow>",
		Short: "Decode a container into an Arrow IPC file with one column per field",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if batchSize <= 0 {
				return fmt.Errorf("batch size must be positive, got %d", batchSize)
			}

			in, err := pointfile.Open(args[0])
			if err != nil {
				return err
			}
			defer in.Close()

			c, err := pointfile.ParseContainer(in.Bytes())
			if err != nil {
				return err
			}
			if len(c.Stream) < engine.PrefixSize {
				return fmt.Errorf("stream of %d bytes has no chunk table offset prefix", len(c.Stream))
			}

			d, err := lazperf.NewDecompressor(c.Stream[engine.PrefixSize:], c.PointSize, c.Vlr, lazperf.WithLogger(a.log))
			if err != nil {
				return err
			}
			defer d.Close()

			mem := memory.NewGoAllocator()
			b, err := pointview.NewBuilder(d.Vlr().Items, mem)
			if err != nil {
				return err
			}
			defer b.Release()

			out, err := os.Create(args[1]) //nolint:gosec // G304: path supplied by the CLI user
			if err != nil {
				return fmt.Errorf("failed to create output: %w", err)
			}
			defer out.Close()

			w, err := pointview.NewWriter(out, b.Schema(), mem)
			if err != nil {
				return err
			}

			batches := 0
			flush := func() error {
				rec := b.NewRecord()
				defer rec.Release()
				batches++
				return w.Write(rec)
			}

			point := make([]byte, c.PointSize)
			for i := uint64(0); i < c.PointCount; i++ {
				if err := d.DecompressOneTo(point); err != nil {
					return err
				}
				if err := b.Append(point); err != nil {
					return err
				}
				if b.Rows() == batchSize {
					if err := flush(); err != nil {
						return fmt.Errorf("failed to write batch: %w", err)
					}
					if err := cmd.Context().Err(); err != nil {
						return err
					}
				}
			}
			if b.Rows() > 0 {
				if err := flush(); err != nil {
					return fmt.Errorf("failed to write batch: %w", err)
				}
			}
			if err := w.Close(); err != nil {
				return fmt.Errorf("failed to finish arrow file: %w", err)
			}
			if err := out.Close(); err != nil {
				return fmt.Errorf("failed to close output: %w", err)
			}

			a.log.Info("arrow export finished",
				zap.String("output", args[1]),
				zap.Uint64("points", c.PointCount),
				zap.Int("batches", batches))

			printSummary(cmd.OutOrStdout(), "Exported", [][2]string{
				{"Output", args[1]},
				{"Points", good(fmt.Sprint(c.PointCount))},
				{"Batches", fmt.Sprint(batches)},
				{"Columns", fmt.Sprint(b.Schema().NumFields())},
			})
			return nil
		},
	}
	cmd.Flags().IntVar(&batchSize, "batch-size", 65536, "Rows per Arrow record batch")
	return cmd
}
