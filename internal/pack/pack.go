// Package pack converts RealEstate10K scene folders into size-bounded CBOR
// chunk files, one output directory per stage.
package pack

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/k0kubun/go-ansi"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"gsdataset-go/internal/chunk"
	"gsdataset-go/internal/config"
	"gsdataset-go/internal/metrics"
	"gsdataset-go/internal/re10k"
	"gsdataset-go/internal/types"
)

type Packer struct {
	Fs     afero.Fs
	Config config.PackConfig
	Sizer  re10k.Sizer
	Logger *zap.Logger
	// Metrics and Events are optional. Events are dropped when the channel
	// is full.
	Metrics *metrics.Collector
	Events  chan<- types.PackEvent

	mu     sync.Mutex
	status types.PackStatus
}

type StageResult struct {
	Stage           string
	Scenes          int
	Chunks          []chunk.Info
	MissingImages   []string
	MissingMetadata []string
}

// Run packs every configured stage in order. A frame mismatch in any scene
// aborts the run.
func (p *Packer) Run(ctx context.Context) ([]StageResult, error) {
	results := make([]StageResult, 0, len(p.Config.Stages))
	for _, stage := range p.Config.Stages {
		res, err := p.packStage(ctx, stage)
		if err != nil {
			return results, fmt.Errorf("stage %s: %w", stage, err)
		}
		results = append(results, res)
	}
	p.update(func(s *types.PackStatus) { s.Done = true })
	return results, nil
}

// Status returns a snapshot of the current progress.
func (p *Packer) Status() types.PackStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

func (p *Packer) packStage(ctx context.Context, stage string) (StageResult, error) {
	logger := p.Logger.With(zap.String("component", "pack"), zap.String("stage", stage))
	started := time.Now()

	imageDir := filepath.Join(p.Config.ImageDir, stage)
	metadataDir := filepath.Join(p.Config.MetadataDir, stage)
	outDir := filepath.Join(p.Config.OutputDir, stage)

	keys, err := re10k.ExampleKeys(p.Fs, imageDir, metadataDir, logger)
	if err != nil {
		return StageResult{}, err
	}
	res := StageResult{
		Stage:           stage,
		MissingImages:   keys.MissingImages,
		MissingMetadata: keys.MissingMetadata,
	}
	if p.Metrics != nil {
		p.Metrics.RecordUnpaired(stage, "images", len(keys.MissingImages))
		p.Metrics.RecordUnpaired(stage, "metadata", len(keys.MissingMetadata))
	}
	p.update(func(s *types.PackStatus) {
		s.Stage = stage
		s.ScenesDone = 0
		s.ScenesTotal = len(keys.Keys)
	})

	writer, err := chunk.NewWriter(p.Fs, outDir)
	if err != nil {
		return res, err
	}
	acc := chunk.NewAccumulator(p.Config.TargetBytesPerChunk)
	bar := newBar(stage, len(keys.Keys), p.Config.Progress)
	defer func() { _ = bar.Finish() }()

	for _, key := range keys.Keys {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		sceneDir := filepath.Join(imageDir, key)
		rec, err := re10k.LoadScene(p.Fs, key, sceneDir, filepath.Join(metadataDir, key+re10k.MetadataExt))
		if err != nil {
			return res, err
		}
		size, err := p.Sizer.Size(ctx, sceneDir)
		if err != nil {
			return res, err
		}

		full := acc.Add(rec, size)
		res.Scenes++
		_ = bar.Add(1)
		if p.Metrics != nil {
			p.Metrics.RecordScene(stage, size)
		}
		p.update(func(s *types.PackStatus) {
			s.ScenesDone++
			s.BytesPacked += size
		})
		p.emit(types.PackEvent{Type: types.EventSceneAdded, Stage: stage, Key: key, Bytes: size})
		logger.Debug("scene added",
			zap.String("key", key),
			zap.Int("frames", len(rec.Timestamps)),
			zap.String("size", humanize.Bytes(uint64(size))),
		)

		if full {
			if err := p.flush(writer, acc, stage, logger, &res); err != nil {
				return res, err
			}
		}
	}
	if err := p.flush(writer, acc, stage, logger, &res); err != nil {
		return res, err
	}

	elapsed := time.Since(started)
	if p.Metrics != nil {
		p.Metrics.RecordStage(stage, elapsed)
	}
	p.emit(types.PackEvent{Type: types.EventStageDone, Stage: stage, Scenes: res.Scenes})
	logger.Info("stage packed",
		zap.Int("scenes", res.Scenes),
		zap.Int("chunks", len(res.Chunks)),
		zap.Duration("elapsed", elapsed),
	)
	return res, nil
}

func (p *Packer) flush(writer *chunk.Writer, acc *chunk.Accumulator, stage string, logger *zap.Logger, res *StageResult) error {
	info, ok, err := writer.Flush(acc)
	if err != nil || !ok {
		return err
	}
	res.Chunks = append(res.Chunks, info)
	if p.Metrics != nil {
		p.Metrics.RecordChunk(stage, info.Encoded)
	}
	p.update(func(s *types.PackStatus) { s.ChunksWritten++ })
	p.emit(types.PackEvent{
		Type:   types.EventChunkSaved,
		Stage:  stage,
		Chunk:  filepath.Base(info.Path),
		Scenes: info.Scenes,
		Bytes:  info.Bytes,
	})
	logger.Info("chunk saved",
		zap.String("path", info.Path),
		zap.Int("scenes", info.Scenes),
		zap.String("scene_bytes", humanize.Bytes(uint64(info.Bytes))),
		zap.String("file_bytes", humanize.Bytes(uint64(info.Encoded))),
	)
	return nil
}

func (p *Packer) update(fn func(*types.PackStatus)) {
	p.mu.Lock()
	fn(&p.status)
	p.mu.Unlock()
}

func (p *Packer) emit(event types.PackEvent) {
	if p.Events == nil {
		return
	}
	select {
	case p.Events <- event:
	default:
	}
}

func newBar(stage string, total int, visible bool) *progressbar.ProgressBar {
	return progressbar.NewOptions(
		total,
		progressbar.OptionSetWriter(ansi.NewAnsiStderr()),
		progressbar.OptionSetVisibility(visible),
		progressbar.OptionSetDescription("packing "+stage),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetPredictTime(true),
	)
}
