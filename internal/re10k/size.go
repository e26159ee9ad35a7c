package re10k

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/afero"

	"gsdataset-go/internal/execrun"
)

// Sizer measures the on-disk size of a scene folder in bytes.
type Sizer interface {
	Size(ctx context.Context, dir string) (int64, error)
}

// WalkSizer sums the apparent size of every regular file below dir.
type WalkSizer struct {
	Fs afero.Fs
}

func (s WalkSizer) Size(ctx context.Context, dir string) (int64, error) {
	var total int64
	err := afero.Walk(s.Fs, dir, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if info.Mode().IsRegular() {
			total += info.Size()
		}
		return nil
	})
	return total, err
}

// DuSizer asks `du -b` for the size, counting directory entries the way du does.
type DuSizer struct {
	Runner execrun.Runner
}

func (s DuSizer) Size(ctx context.Context, dir string) (int64, error) {
	out, err := s.Runner.Output(ctx, "du", "-b", "-s", dir)
	if err != nil {
		return 0, fmt.Errorf("du %s: %w", dir, err)
	}
	fields := bytes.Fields(out)
	if len(fields) == 0 {
		return 0, fmt.Errorf("du %s: empty output", dir)
	}
	n, err := strconv.ParseInt(string(fields[0]), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("du %s: %w", dir, err)
	}
	return n, nil
}
