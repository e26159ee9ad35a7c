package chunk

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/fxamacker/cbor/v2"
	"github.com/spf13/afero"

	"gsdataset-go/internal/types"
)

// ListFiles returns path itself, or the sorted chunk files inside it.
func ListFiles(fs afero.Fs, path string) ([]string, error) {
	info, err := fs.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := afero.ReadDir(fs, path)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if filepath.Ext(entry.Name()) == Ext {
			files = append(files, filepath.Join(path, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func ReadFile(fs afero.Fs, path string) ([]types.SceneRecord, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}
	var records []types.SceneRecord
	if err := cbor.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return records, nil
}

// Validate checks that every record has one image and one camera per
// timestamp.
func Validate(rec types.SceneRecord) error {
	n := len(rec.Timestamps)
	if n == 0 {
		return fmt.Errorf("scene %s: no frames", rec.Key)
	}
	if len(rec.Images) != n || len(rec.Cameras) != n {
		return fmt.Errorf("scene %s: %d timestamps, %d images, %d cameras", rec.Key, n, len(rec.Images), len(rec.Cameras))
	}
	return nil
}

type Summary struct {
	Key         string
	URL         string
	Frames      int
	ImageBytes  int64
	CameraWidth int
}

func Summarize(rec types.SceneRecord) Summary {
	s := Summary{Key: rec.Key, URL: rec.URL, Frames: len(rec.Timestamps)}
	for _, img := range rec.Images {
		s.ImageBytes += int64(len(img))
	}
	if len(rec.Cameras) > 0 {
		s.CameraWidth = len(rec.Cameras[0])
	}
	return s
}
