package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/goccy/go-json"
	"github.com/spf13/afero"

	"gsdataset-go/internal/chunk"
)

type chunkSummary struct {
	File       string   `json:"file"`
	Scenes     int      `json:"scenes"`
	Frames     int      `json:"frames"`
	ImageBytes string   `json:"image_bytes"`
	Keys       []string `json:"keys"`
	Invalid    []string `json:"invalid,omitempty"`
}

type report struct {
	Chunks  int
	Scenes  int
	Invalid int
}

func main() {
	path := flag.String("path", "", "Path to a chunk file or directory")
	limit := flag.Int("limit", 5, "Max number of scene keys listed per chunk")
	flag.Parse()

	if *path == "" {
		fmt.Fprintln(os.Stderr, "missing -path")
		os.Exit(2)
	}

	rep, err := inspect(afero.NewOsFs(), *path, *limit, os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "inspect: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "summary: chunks=%d scenes=%d invalid=%d\n", rep.Chunks, rep.Scenes, rep.Invalid)
	if rep.Invalid > 0 {
		os.Exit(1)
	}
}

// inspect writes one JSON summary line per chunk to out. Undecodable chunks
// and records breaking the frame invariant count as invalid; a failed write
// to out aborts.
func inspect(fs afero.Fs, path string, limit int, out, errOut io.Writer) (report, error) {
	files, err := chunk.ListFiles(fs, path)
	if err != nil {
		return report{}, err
	}

	enc := json.NewEncoder(out)
	rep := report{Chunks: len(files)}
	for _, file := range files {
		records, err := chunk.ReadFile(fs, file)
		if err != nil {
			fmt.Fprintln(errOut, err)
			rep.Invalid++
			continue
		}
		summary := chunkSummary{File: file, Scenes: len(records)}
		var imageBytes int64
		for i, rec := range records {
			s := chunk.Summarize(rec)
			summary.Frames += s.Frames
			imageBytes += s.ImageBytes
			if i < limit {
				summary.Keys = append(summary.Keys, rec.Key)
			}
			if err := chunk.Validate(rec); err != nil {
				summary.Invalid = append(summary.Invalid, err.Error())
			}
		}
		summary.ImageBytes = humanize.Bytes(uint64(imageBytes))
		rep.Scenes += len(records)
		rep.Invalid += len(summary.Invalid)
		if err := enc.Encode(summary); err != nil {
			return rep, fmt.Errorf("write summary for %s: %w", file, err)
		}
	}
	return rep, nil
}
