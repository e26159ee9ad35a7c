package gobjaverse

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"gsdataset-go/internal/config"
	"gsdataset-go/internal/execrun"
)

const DownloaderScriptURL = "https://raw.githubusercontent.com/modelscope/richdreamer/main/dataset/gobjaverse/download_gobjaverse_280k.py"

var (
	ErrUnsupportedCategory = errors.New("unsupported category")
	ErrEmptyIndex          = errors.New("index is empty")
	ErrCancelled           = errors.New("download cancelled")
	ErrDownloaderMissing   = errors.New("downloader script not found")
	ErrDownloadFailed      = errors.New("download failed")
	ErrInterrupted         = errors.New("download interrupted")
)

type DownloadError struct {
	ExitCode int
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download failed, exit code %d", e.ExitCode)
}

func (e *DownloadError) Is(target error) bool {
	return target == ErrDownloadFailed
}

// Driver fetches a category index, cuts a subset, writes the split files and
// hands the subset to the external downloader.
type Driver struct {
	Config  config.GobjaverseConfig
	Fs      afero.Fs
	Fetcher Fetcher
	Runner  execrun.Runner
	In      io.Reader
	Out     io.Writer
	Logger  *zap.Logger
}

type Result struct {
	SubsetFile string
	Splits     Splits
	SplitFiles []string
}

// EstimateGB is the expected disk usage for count objects.
func EstimateGB(count, mibPerObject int) float64 {
	return float64(count*mibPerObject) / 1024
}

func (d *Driver) Run(ctx context.Context) (Result, error) {
	cfg := d.Config
	logger := d.Logger.With(zap.String("component", "gobjaverse"))

	if err := ValidateCategory(cfg.Category); err != nil {
		return Result{}, err
	}

	url := IndexURL(cfg.IndexBaseURL, cfg.Category)
	logger.Info("fetching index", zap.String("url", url))
	indexPath, err := d.Fetcher.Fetch(ctx, url, cfg.IndexDir)
	if err != nil {
		return Result{}, err
	}

	descriptors, err := LoadIndex(d.Fs, indexPath)
	if err != nil {
		return Result{}, err
	}
	subset := Truncate(descriptors, cfg.NumObjects)
	logger.Info("index loaded", zap.Int("objects", len(descriptors)), zap.Int("subset", len(subset)))

	if !cfg.AssumeYes {
		d.printSummary(len(subset))
		ok, err := confirm(d.In, d.Out)
		if err != nil {
			return Result{}, err
		}
		if !ok {
			return Result{}, ErrCancelled
		}
	}

	result := Result{SubsetFile: filepath.Join(cfg.IndexDir, SubsetFileName(cfg.NumObjects))}
	if err := WriteSubset(d.Fs, result.SubsetFile, subset); err != nil {
		return Result{}, fmt.Errorf("write subset: %w", err)
	}

	result.Splits = Split(subset)
	result.SplitFiles, err = WriteSplits(d.Fs, cfg.SplitsDir, result.Splits)
	if err != nil {
		return Result{}, fmt.Errorf("write splits: %w", err)
	}
	logger.Info("splits written",
		zap.String("dir", cfg.SplitsDir),
		zap.Int("train", len(result.Splits.Train)),
		zap.Int("val", len(result.Splits.Val)),
		zap.Int("test", len(result.Splits.Test)),
		zap.Int("full", len(subset)),
	)

	if _, err := d.Fs.Stat(cfg.DownloadScript); err != nil {
		return result, fmt.Errorf("%w: %s (fetch it with: wget %s)", ErrDownloaderMissing, cfg.DownloadScript, DownloaderScriptURL)
	}

	if err := d.download(ctx, result.SubsetFile); err != nil {
		return result, err
	}

	d.printNextSteps()
	return result, nil
}

func (d *Driver) download(ctx context.Context, subsetFile string) error {
	cfg := d.Config
	args := []string{cfg.DownloadScript, cfg.SaveDir, subsetFile, strconv.Itoa(cfg.Threads)}
	d.Logger.Info("starting downloader",
		zap.String("command", cfg.Interpreter+" "+strings.Join(args, " ")),
		zap.String("save_dir", cfg.SaveDir),
	)

	err := d.Runner.Run(ctx, cfg.Interpreter, args...)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return fmt.Errorf("%w: %v", ErrInterrupted, ctx.Err())
	}
	if code, ok := execrun.ExitCode(err); ok {
		return &DownloadError{ExitCode: code}
	}
	return fmt.Errorf("%w: %v", ErrDownloadFailed, err)
}

func (d *Driver) printSummary(count int) {
	cfg := d.Config
	rule := strings.Repeat("=", 60)
	fmt.Fprintln(d.Out, rule)
	fmt.Fprintln(d.Out, "Please confirm:")
	fmt.Fprintf(d.Out, "  - objects:    %d\n", count)
	fmt.Fprintf(d.Out, "  - category:   %s\n", cfg.Category)
	fmt.Fprintf(d.Out, "  - save dir:   %s\n", absPath(cfg.SaveDir))
	fmt.Fprintf(d.Out, "  - disk space: ~%.1f GB\n", EstimateGB(count, cfg.MiBPerObject))
	fmt.Fprintln(d.Out, rule)
	fmt.Fprint(d.Out, "Start download? (type yes to continue, anything else cancels): ")
}

func (d *Driver) printNextSteps() {
	cfg := d.Config
	fmt.Fprintln(d.Out, "Download complete.")
	fmt.Fprintf(d.Out, "  data dir:   %s\n", cfg.SaveDir)
	fmt.Fprintf(d.Out, "  split dir:  %s\n", cfg.SplitsDir)
	fmt.Fprintln(d.Out, "Next steps:")
	fmt.Fprintln(d.Out, "1. Point the training config at the new data:")
	fmt.Fprintf(d.Out, "   local_dir: '%s'\n", absPath(cfg.SplitsDir))
	fmt.Fprintf(d.Out, "   image_dir: '%s/'\n", absPath(cfg.SaveDir))
	fmt.Fprintln(d.Out, "2. Start stage-one training.")
}

func confirm(in io.Reader, out io.Writer) (bool, error) {
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	fmt.Fprintln(out)
	return strings.ToLower(strings.TrimSpace(line)) == "yes", nil
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
