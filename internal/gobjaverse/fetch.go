package gobjaverse

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/k0kubun/go-ansi"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/afero"

	"gsdataset-go/internal/execrun"
)

// Fetcher downloads url into dir unless the file is already there, and
// returns the local path.
type Fetcher interface {
	Fetch(ctx context.Context, url, dir string) (string, error)
}

// CommandFetcher shells out to wget with no-clobber semantics.
type CommandFetcher struct {
	Runner execrun.Runner
}

func (f CommandFetcher) Fetch(ctx context.Context, url, dir string) (string, error) {
	dest := filepath.Join(dir, path.Base(url))
	if err := f.Runner.Run(ctx, "wget", "-nc", "-P", dir, url); err != nil {
		return "", fmt.Errorf("wget %s: %w", url, err)
	}
	return dest, nil
}

type HTTPFetcher struct {
	Fs       afero.Fs
	Client   *http.Client
	Progress bool
}

func NewHTTPFetcher(fs afero.Fs, progress bool) *HTTPFetcher {
	return &HTTPFetcher{
		Fs:       fs,
		Client:   &http.Client{Timeout: 10 * time.Minute},
		Progress: progress,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url, dir string) (string, error) {
	dest := filepath.Join(dir, path.Base(url))
	if info, err := f.Fs.Stat(dest); err == nil && !info.IsDir() {
		return dest, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: http_%d", url, resp.StatusCode)
	}

	if err := f.Fs.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	tmp := dest + ".part"
	out, err := f.Fs.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return "", err
	}

	bar := newBar(path.Base(url), resp.ContentLength, f.Progress)
	_, copyErr := io.Copy(io.MultiWriter(out, bar), resp.Body)
	_ = bar.Finish()
	closeErr := out.Close()
	if copyErr != nil || closeErr != nil {
		_ = f.Fs.Remove(tmp)
		if copyErr != nil {
			return "", fmt.Errorf("fetch %s: %w", url, copyErr)
		}
		return "", closeErr
	}
	if err := f.Fs.Rename(tmp, dest); err != nil {
		return "", err
	}
	return dest, nil
}

func newBar(description string, length int64, visible bool) *progressbar.ProgressBar {
	return progressbar.NewOptions64(
		length,
		progressbar.OptionSetWriter(ansi.NewAnsiStderr()),
		progressbar.OptionSetVisibility(visible),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(50),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
