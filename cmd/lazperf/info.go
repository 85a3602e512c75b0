package main

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/ajitpratap0/lazperf/pkg/compression"
	"github.com/ajitpratap0/lazperf/pkg/engine"
	"github.com/ajitpratap0/lazperf/pkg/laszip"
	"github.com/ajitpratap0/lazperf/pkg/pointfile"
)

// containerInfo describes a container for the info command.
type containerInfo struct {
	File             string       `json:"file"`
	Size             int          `json:"size"`
	Version          uint16       `json:"version"`
	Points           uint64       `json:"points"`
	PointSize        int          `json:"point_size"`
	Codec            string       `json:"codec"`
	Vlr              *laszip.Vlr  `json:"vlr"`
	ChunkTableOffset int64        `json:"chunk_table_offset"`
	Chunks           []chunkEntry `json:"chunks"`
}

type chunkEntry struct {
	Points uint32 `json:"points"`
	Bytes  uint64 `json:"bytes"`
}

func (a *app) infoCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "info <input.lzp>",
		Short: "Show the VLR and chunk table of a lazperf container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := pointfile.Open(args[0])
			if err != nil {
				return err
			}
			defer in.Close()

			info, err := inspect(args[0], in.Bytes())
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			}
			printInfo(cmd.OutOrStdout(), info)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}

// inspect parses the container, its VLR, and the chunk table the stream
// prefix points at.
func inspect(name string, data []byte) (*containerInfo, error) {
	c, err := pointfile.ParseContainer(data)
	if err != nil {
		return nil, err
	}
	vlr, err := laszip.ParseVlr(c.Vlr)
	if err != nil {
		return nil, fmt.Errorf("invalid vlr: %w", err)
	}
	info := &containerInfo{
		File:      name,
		Size:      len(data),
		Version:   c.Version,
		Points:    c.PointCount,
		PointSize: c.PointSize,
		Codec:     fmt.Sprintf("coder %d", vlr.Coder),
		Vlr:       vlr,
	}
	if alg, err := compression.AlgorithmForCoder(vlr.Coder); err == nil {
		info.Codec = string(alg)
	}

	if len(c.Stream) < engine.PrefixSize {
		return nil, fmt.Errorf("stream of %d bytes has no chunk table offset prefix", len(c.Stream))
	}
	offset := int64(binary.LittleEndian.Uint64(c.Stream))
	info.ChunkTableOffset = offset
	if offset < engine.PrefixSize || offset > int64(len(c.Stream)) {
		return nil, fmt.Errorf("chunk table offset %d outside stream of %d bytes", offset, len(c.Stream))
	}
	points, sizes, err := engine.ParseChunkTable(c.Stream[offset:])
	if err != nil {
		return nil, err
	}
	info.Chunks = make([]chunkEntry, len(points))
	for i := range points {
		info.Chunks[i] = chunkEntry{Points: points[i], Bytes: sizes[i]}
	}
	return info, nil
}

func printInfo(w io.Writer, info *containerInfo) {
	printSummary(w, "Container", [][2]string{
		{"File", info.File},
		{"Size", formatBytes(uint64(info.Size))},
		{"Version", fmt.Sprint(info.Version)},
		{"Points", fmt.Sprint(info.Points)},
		{"Record size", fmt.Sprintf("%d bytes", info.PointSize)},
	})

	items := make([][2]string, 0, len(info.Vlr.Items)+3)
	items = append(items,
		[2]string{"Codec", info.Codec},
		[2]string{"Chunk size", fmt.Sprint(info.Vlr.ChunkSize)},
		[2]string{"Version", fmt.Sprintf("%d.%d.%d", info.Vlr.VersionMajor, info.Vlr.VersionMinor, info.Vlr.VersionRevision)},
	)
	for i, it := range info.Vlr.Items {
		items = append(items, [2]string{fmt.Sprintf("Item %d", i), fmt.Sprintf("%s %d bytes v%d", it.Type, it.Size, it.Version)})
	}
	printSummary(w, "LASzip VLR", items)

	fmt.Fprintln(w, heading(fmt.Sprintf("Chunks (%d, table at %d)", len(info.Chunks), info.ChunkTableOffset)))
	for i, c := range info.Chunks {
		fmt.Fprintf(w, "  %4d  %8d points  %s\n", i, c.Points, faint(formatBytes(c.Bytes)))
	}
}
