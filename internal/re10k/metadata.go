package re10k

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"gsdataset-go/internal/types"
)

// ParseMetadata reads a RealEstate10K camera file: the source URL on the
// first line, then one "timestamp p0 p1 ..." line per frame. Parameters may
// be separated by spaces or commas.
func ParseMetadata(r io.Reader) (types.Metadata, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return types.Metadata{}, err
		}
		return types.Metadata{}, fmt.Errorf("%w: empty file", ErrMalformedMetadata)
	}
	md := types.Metadata{URL: strings.TrimSpace(scanner.Text())}

	lineNo := 1
	for scanner.Scan() {
		lineNo++
		fields := strings.FieldsFunc(scanner.Text(), isSeparator)
		if len(fields) == 0 {
			continue
		}
		ts, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			return types.Metadata{}, fmt.Errorf("%w: line %d: timestamp %q", ErrMalformedMetadata, lineNo, fields[0])
		}
		camera := make([]float32, len(fields)-1)
		for i, f := range fields[1:] {
			v, err := strconv.ParseFloat(f, 32)
			if err != nil {
				return types.Metadata{}, fmt.Errorf("%w: line %d: camera value %q", ErrMalformedMetadata, lineNo, f)
			}
			camera[i] = float32(v)
		}
		if len(md.Cameras) > 0 && len(camera) != len(md.Cameras[0]) {
			return types.Metadata{}, fmt.Errorf("%w: line %d: %d camera values, expected %d", ErrMalformedMetadata, lineNo, len(camera), len(md.Cameras[0]))
		}
		md.Timestamps = append(md.Timestamps, ts)
		md.Cameras = append(md.Cameras, camera)
	}
	if err := scanner.Err(); err != nil {
		return types.Metadata{}, err
	}
	if len(md.Timestamps) == 0 {
		return types.Metadata{}, fmt.Errorf("%w: no frames", ErrMalformedMetadata)
	}
	return md, nil
}

func LoadMetadata(fs afero.Fs, path string) (types.Metadata, error) {
	f, err := fs.Open(path)
	if err != nil {
		return types.Metadata{}, err
	}
	defer f.Close()

	md, err := ParseMetadata(f)
	if err != nil {
		return types.Metadata{}, fmt.Errorf("%s: %w", path, err)
	}
	return md, nil
}

func isSeparator(r rune) bool {
	return r == ' ' || r == ',' || r == '\t' || r == '\r'
}
