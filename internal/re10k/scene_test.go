package re10k

import (
	"context"
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeScene(t *testing.T, fs afero.Fs, key string, stamps []string) {
	t.Helper()
	body := "https://example.com/" + key + "\n"
	for _, ts := range stamps {
		body += ts + " 1 2 3\n"
		require.NoError(t, afero.WriteFile(fs, "/img/"+key+"/"+ts+".png", []byte("img-"+ts), 0o644))
	}
	require.NoError(t, afero.WriteFile(fs, "/md/"+key+".txt", []byte(body), 0o644))
}

func TestLoadSceneOrdersByMetadata(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeScene(t, fs, "s1", []string{"300", "100", "200"})

	rec, err := LoadScene(fs, "s1", "/img/s1", "/md/s1.txt")
	require.NoError(t, err)

	assert.Equal(t, "s1", rec.Key)
	assert.Equal(t, []int64{300, 100, 200}, rec.Timestamps)
	assert.Equal(t, [][]byte{[]byte("img-300"), []byte("img-100"), []byte("img-200")}, rec.Images)
}

func TestLoadSceneFrameMismatch(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeScene(t, fs, "s1", []string{"100", "200"})
	require.NoError(t, afero.WriteFile(fs, "/img/s1/300.png", []byte("extra"), 0o644))

	_, err := LoadScene(fs, "s1", "/img/s1", "/md/s1.txt")
	assert.True(t, errors.Is(err, ErrFrameMismatch))

	require.NoError(t, fs.Remove("/img/s1/300.png"))
	require.NoError(t, fs.Rename("/img/s1/200.png", "/img/s1/250.png"))
	_, err = LoadScene(fs, "s1", "/img/s1", "/md/s1.txt")
	assert.True(t, errors.Is(err, ErrFrameMismatch))
}

func TestLoadImagesRejectsBadNames(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/img/s1/frame.png", []byte("x"), 0o644))
	_, err := LoadImages(fs, "/img/s1")
	assert.True(t, errors.Is(err, ErrBadImageName))

	fs = afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/img/s1/100.png", []byte("x"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/img/s1/100.jpg", []byte("y"), 0o644))
	_, err = LoadImages(fs, "/img/s1")
	assert.True(t, errors.Is(err, ErrFrameMismatch))
}

func TestExampleKeys(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeScene(t, fs, "b", []string{"1"})
	writeScene(t, fs, "a", []string{"1"})
	require.NoError(t, fs.MkdirAll("/img/only-images", 0o755))
	require.NoError(t, afero.WriteFile(fs, "/md/only-metadata.txt", []byte("u\n1 1\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/md/notes.md", []byte("ignored"), 0o644))

	ks, err := ExampleKeys(fs, "/img", "/md", zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ks.Keys)
	assert.Equal(t, []string{"only-metadata"}, ks.MissingImages)
	assert.Equal(t, []string{"only-images"}, ks.MissingMetadata)
}

func TestExampleKeysMissingDir(t *testing.T) {
	_, err := ExampleKeys(afero.NewMemMapFs(), "/nope", "/md", zap.NewNop())
	assert.Error(t, err)
}

type duRunner struct {
	out  string
	args []string
}

func (d *duRunner) Run(context.Context, string, ...string) error { return nil }

func (d *duRunner) Output(_ context.Context, name string, args ...string) ([]byte, error) {
	d.args = append([]string{name}, args...)
	return []byte(d.out), nil
}

func TestSizers(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/img/s1/1.png", make([]byte, 100), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/img/s1/sub/2.png", make([]byte, 50), 0o644))

	n, err := WalkSizer{Fs: fs}.Size(context.Background(), "/img/s1")
	require.NoError(t, err)
	assert.Equal(t, int64(150), n)

	runner := &duRunner{out: "4246\t/img/s1\n"}
	n, err = DuSizer{Runner: runner}.Size(context.Background(), "/img/s1")
	require.NoError(t, err)
	assert.Equal(t, int64(4246), n)
	assert.Equal(t, []string{"du", "-b", "-s", "/img/s1"}, runner.args)

	_, err = DuSizer{Runner: &duRunner{out: ""}}.Size(context.Background(), "/img/s1")
	assert.Error(t, err)
}
