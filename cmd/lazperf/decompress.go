package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/lazperf/internal/pipeline"
	"github.com/ajitpratap0/lazperf/pkg/lazperf"
	"github.com/ajitpratap0/lazperf/pkg/pointfile"
)

func (a *app) decompressCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "decompress <input.lzp> <points.bin>",
		Short: "Decode a lazperf container back into raw point records",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			monitor := newResourceMonitor()

			in, err := pointfile.Open(args[0])
			if err != nil {
				return err
			}
			defer in.Close()

			c, err := pointfile.ParseContainer(in.Bytes())
			if err != nil {
				return err
			}

			out, err := os.Create(args[1]) //nolint:gosec // G304: path supplied by the CLI user
			if err != nil {
				return fmt.Errorf("failed to create output: %w", err)
			}
			defer out.Close()

			written, err := pipeline.DecompressStream(cmd.Context(), out, c.Stream, c.Vlr, c.PointCount, c.PointSize,
				a.log, lazperf.WithLogger(a.log))
			if err != nil {
				return err
			}
			if err := out.Close(); err != nil {
				return fmt.Errorf("failed to close output: %w", err)
			}

			w := cmd.OutOrStdout()
			printSummary(w, "Decompressed", [][2]string{
				{"Input", fmt.Sprintf("%s (%s)", args[0], formatBytes(uint64(in.Len())))},
				{"Output", fmt.Sprintf("%s (%s)", args[1], formatBytes(uint64(written)))},
				{"Points", good(fmt.Sprint(c.PointCount))},
			})
			printUsage(w, monitor.usage())
			return nil
		},
	}
}
