package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gsdataset-go/internal/chunk"
	"gsdataset-go/internal/types"
)

func writeChunk(t *testing.T, fs afero.Fs, records ...types.SceneRecord) {
	t.Helper()
	w, err := chunk.NewWriter(fs, "/chunks")
	require.NoError(t, err)
	acc := chunk.NewAccumulator(1)
	for _, rec := range records {
		acc.Add(rec, 1)
	}
	_, _, err = w.Flush(acc)
	require.NoError(t, err)
}

func scene(key string, frames, images int) types.SceneRecord {
	rec := types.SceneRecord{Key: key}
	for i := 0; i < frames; i++ {
		rec.Timestamps = append(rec.Timestamps, int64(i))
		rec.Cameras = append(rec.Cameras, []float32{1, 2})
	}
	for i := 0; i < images; i++ {
		rec.Images = append(rec.Images, []byte("img"))
	}
	return rec
}

func TestInspect(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeChunk(t, fs, scene("a", 2, 2), scene("b", 3, 3), scene("c", 1, 1))

	var out, errOut bytes.Buffer
	rep, err := inspect(fs, "/chunks", 2, &out, &errOut)
	require.NoError(t, err)
	assert.Equal(t, report{Chunks: 1, Scenes: 3}, rep)

	var summary chunkSummary
	require.NoError(t, json.Unmarshal(out.Bytes(), &summary))
	assert.Equal(t, []string{"a", "b"}, summary.Keys)
	assert.Equal(t, 6, summary.Frames)
	assert.Empty(t, errOut.String())
}

func TestInspectCountsInvalid(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeChunk(t, fs, scene("ok", 2, 2), scene("short", 2, 1))
	require.NoError(t, afero.WriteFile(fs, "/chunks/000001.cbor", []byte{0xff, 0x00}, 0o644))

	var out, errOut bytes.Buffer
	rep, err := inspect(fs, "/chunks", 5, &out, &errOut)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Chunks)
	assert.Equal(t, 2, rep.Invalid)
	assert.Contains(t, out.String(), "scene short")
	assert.Contains(t, errOut.String(), "000001.cbor")
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestInspectWriteFailure(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeChunk(t, fs, scene("a", 1, 1))

	_, err := inspect(fs, "/chunks", 5, failingWriter{}, &bytes.Buffer{})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "broken pipe"))
}

func TestInspectMissingPath(t *testing.T) {
	_, err := inspect(afero.NewMemMapFs(), "/nope", 5, &bytes.Buffer{}, &bytes.Buffer{})
	assert.Error(t, err)
}
