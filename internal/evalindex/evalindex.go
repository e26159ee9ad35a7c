// Package evalindex builds the fixed context/target view selection used to
// evaluate novel-view synthesis on a RealEstate10K subset.
package evalindex

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"gsdataset-go/internal/types"
)

var ErrInvalidCounts = errors.New("invalid view counts")

// Index maps a scene name to its chosen views.
type Index map[string]types.EvaluationEntry

type Options struct {
	NumContext int
	NumTarget  int
	Seed       int64
}

func (o Options) Validate() error {
	if o.NumContext < 0 || o.NumTarget < 0 {
		return fmt.Errorf("%w: context=%d target=%d", ErrInvalidCounts, o.NumContext, o.NumTarget)
	}
	if o.NumContext+o.NumTarget == 0 {
		return fmt.Errorf("%w: context and target are both zero", ErrInvalidCounts)
	}
	return nil
}

// Generate visits every .txt or .json metadata file in dir in name order and
// samples views for each scene long enough to hold them. The random source is
// seeded once, so a fixed seed and directory give the same index.
func Generate(fs afero.Fs, dir string, opts Options, logger *zap.Logger) (Index, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch filepath.Ext(entry.Name()) {
		case ".txt", ".json":
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	logger.Info("found scenes", zap.Int("scenes", len(names)), zap.String("dir", dir))

	rng := rand.New(rand.NewPCG(uint64(opts.Seed), 0))
	required := opts.NumContext + opts.NumTarget
	index := make(Index, len(names))

	for _, name := range names {
		scene := strings.TrimSuffix(name, filepath.Ext(name))
		if _, dup := index[scene]; dup {
			logger.Warn("duplicate scene metadata, keeping the first", zap.String("file", name))
			continue
		}
		frames, err := countFrames(fs, filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		if frames < required {
			logger.Warn("scene too short, skipping",
				zap.String("scene", scene),
				zap.Int("frames", frames),
				zap.Int("required", required),
			)
			continue
		}
		picked := sample(rng, frames, required)
		entry := types.EvaluationEntry{
			Context: picked[:opts.NumContext:opts.NumContext],
			Target:  picked[opts.NumContext:],
		}
		index[scene] = entry
		logger.Debug("scene sampled",
			zap.String("scene", scene),
			zap.Int("frames", frames),
			zap.Ints("context", entry.Context),
			zap.Ints("target", entry.Target),
		)
	}
	logger.Info("evaluation index generated", zap.Int("scenes", len(index)))
	return index, nil
}

// sample draws k distinct values from [0, n) with a partial Fisher-Yates
// shuffle, keeping draw order.
func sample(rng *rand.Rand, n, k int) []int {
	pool := make([]int, n)
	for i := range pool {
		pool[i] = i
	}
	for i := 0; i < k; i++ {
		j := i + rng.IntN(n-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:k:k]
}

func countFrames(fs afero.Fs, path string) (int, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return 0, err
	}
	if filepath.Ext(path) == ".json" {
		var scene struct {
			Frames []json.RawMessage `json:"frames"`
		}
		if err := json.Unmarshal(data, &scene); err != nil {
			return 0, fmt.Errorf("%s: %w", path, err)
		}
		return len(scene.Frames), nil
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	frames := 0
	for line := 0; scanner.Scan(); line++ {
		if line == 0 || strings.TrimSpace(scanner.Text()) == "" {
			continue
		}
		frames++
	}
	return frames, scanner.Err()
}

// Write stores the index as indented JSON with sorted keys. The file is
// replaced atomically.
func Write(fs afero.Fs, path string, index Index) error {
	if index == nil {
		index = Index{}
	}
	data, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := afero.WriteFile(fs, tmp, data, 0o644); err != nil {
		return err
	}
	if err := fs.Rename(tmp, path); err != nil {
		_ = fs.Remove(tmp)
		return err
	}
	return nil
}
