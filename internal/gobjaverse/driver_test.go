package gobjaverse

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gsdataset-go/internal/config"
)

type fakeRunner struct {
	calls [][]string
	err   error
	// before runs ahead of returning err, e.g. to cancel a context.
	before func()
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) error {
	f.calls = append(f.calls, append([]string{name}, args...))
	if f.before != nil {
		f.before()
	}
	return f.err
}

func (f *fakeRunner) Output(_ context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	return nil, f.err
}

// memFetcher serves index bodies from memory into the driver's filesystem.
type memFetcher struct {
	fs     afero.Fs
	bodies map[string]string
	urls   []string
}

func (m *memFetcher) Fetch(_ context.Context, url, dir string) (string, error) {
	m.urls = append(m.urls, url)
	dest := filepath.Join(dir, filepath.Base(url))
	return dest, afero.WriteFile(m.fs, dest, []byte(m.bodies[url]), 0o644)
}

type driverFixture struct {
	fs      afero.Fs
	fetcher *memFetcher
	runner  *fakeRunner
	out     *bytes.Buffer
	driver  *Driver
}

func newDriverFixture(t *testing.T, answer string, numObjects int) *driverFixture {
	t.Helper()
	cfg := config.DefaultConfig().Gobjaverse
	cfg.IndexBaseURL = "https://idx.example"
	cfg.IndexDir = "/work"
	cfg.SplitsDir = "/work/json_files"
	cfg.SaveDir = "/data"
	cfg.DownloadScript = "/work/download_gobjaverse_280k.py"
	cfg.NumObjects = numObjects

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, cfg.DownloadScript, []byte("# downloader"), 0o644))

	var ids []string
	for i := 0; i < 20; i++ {
		ids = append(ids, `{"uid": "obj-`+string(rune('a'+i))+`"}`)
	}
	fetcher := &memFetcher{fs: fs, bodies: map[string]string{
		IndexURL(cfg.IndexBaseURL, cfg.Category): "[" + strings.Join(ids, ",") + "]",
	}}
	runner := &fakeRunner{}
	out := &bytes.Buffer{}
	return &driverFixture{
		fs:      fs,
		fetcher: fetcher,
		runner:  runner,
		out:     out,
		driver: &Driver{
			Config:  cfg,
			Fs:      fs,
			Fetcher: fetcher,
			Runner:  runner,
			In:      strings.NewReader(answer),
			Out:     out,
			Logger:  zap.NewNop(),
		},
	}
}

func TestDriverRun(t *testing.T) {
	f := newDriverFixture(t, " YES \n", 10)

	res, err := f.driver.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "/work/gobjaverse_subset_10.json", res.SubsetFile)
	assert.Len(t, res.Splits.Train, 8)
	assert.Len(t, res.Splits.Val, 1)
	assert.Len(t, res.Splits.Test, 1)
	assert.Equal(t, "obj-a", res.Splits.Train[0])

	require.Len(t, f.runner.calls, 1)
	assert.Equal(t, []string{"python", "/work/download_gobjaverse_280k.py", "/data", "/work/gobjaverse_subset_10.json", "16"}, f.runner.calls[0])

	out := f.out.String()
	assert.Contains(t, out, "objects:    10")
	assert.Contains(t, out, "~0.4 GB")
	assert.Contains(t, out, "Next steps")

	for _, name := range []string{"train.json", "val.json", "test.json", "full.json"} {
		exists, _ := afero.Exists(f.fs, "/work/json_files/"+name)
		assert.True(t, exists, name)
	}
}

func TestDriverDeclinedWritesNothing(t *testing.T) {
	f := newDriverFixture(t, "no\n", 10)

	_, err := f.driver.Run(context.Background())
	assert.True(t, errors.Is(err, ErrCancelled))
	assert.Empty(t, f.runner.calls)

	for _, path := range []string{"/work/gobjaverse_subset_10.json", "/work/json_files"} {
		exists, _ := afero.Exists(f.fs, path)
		assert.False(t, exists, path)
	}
}

func TestDriverEmptyAnswerCancels(t *testing.T) {
	f := newDriverFixture(t, "", 10)
	_, err := f.driver.Run(context.Background())
	assert.True(t, errors.Is(err, ErrCancelled))
}

func TestDriverAssumeYesSkipsPrompt(t *testing.T) {
	f := newDriverFixture(t, "", 5)
	f.driver.Config.AssumeYes = true

	_, err := f.driver.Run(context.Background())
	require.NoError(t, err)
	assert.NotContains(t, f.out.String(), "Please confirm")
}

func TestDriverUnsupportedCategoryFetchesNothing(t *testing.T) {
	f := newDriverFixture(t, "yes\n", 10)
	f.driver.Config.Category = "Dragons"

	_, err := f.driver.Run(context.Background())
	assert.True(t, errors.Is(err, ErrUnsupportedCategory))
	assert.Empty(t, f.fetcher.urls)
}

func TestDriverMissingScript(t *testing.T) {
	f := newDriverFixture(t, "yes\n", 10)
	require.NoError(t, f.fs.Remove(f.driver.Config.DownloadScript))

	res, err := f.driver.Run(context.Background())
	assert.True(t, errors.Is(err, ErrDownloaderMissing))
	assert.Contains(t, err.Error(), DownloaderScriptURL)
	assert.Empty(t, f.runner.calls)
	assert.Len(t, res.SplitFiles, 4)
}

func TestDriverPropagatesExitCode(t *testing.T) {
	exitErr := exec.Command("sh", "-c", "exit 7").Run()
	require.Error(t, exitErr)

	f := newDriverFixture(t, "yes\n", 10)
	f.runner.err = exitErr

	_, err := f.driver.Run(context.Background())
	require.True(t, errors.Is(err, ErrDownloadFailed))
	var dlErr *DownloadError
	require.True(t, errors.As(err, &dlErr))
	assert.Equal(t, 7, dlErr.ExitCode)
}

func TestDriverInterrupted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := newDriverFixture(t, "yes\n", 10)
	f.runner.err = errors.New("signal: killed")
	f.runner.before = cancel

	_, err := f.driver.Run(ctx)
	assert.True(t, errors.Is(err, ErrInterrupted))
}

func TestEstimateGB(t *testing.T) {
	assert.InDelta(t, 35.15625, EstimateGB(1000, 36), 1e-9)
	assert.Equal(t, 0.0, EstimateGB(0, 36))
}
