package re10k

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"gsdataset-go/internal/types"
)

var (
	ErrMalformedMetadata = errors.New("malformed metadata")
	ErrBadImageName      = errors.New("image file name is not an integer timestamp")
	// ErrFrameMismatch means a scene's images and metadata disagree. It is
	// fatal for a pack run.
	ErrFrameMismatch = errors.New("images do not match metadata timestamps")
)

// LoadImages reads every file in dir as raw bytes, keyed by the integer
// timestamp in its file name.
func LoadImages(fs afero.Fs, dir string) (map[int64][]byte, error) {
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, err
	}
	images := make(map[int64][]byte, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		ts, err := strconv.ParseInt(stem, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrBadImageName, filepath.Join(dir, name))
		}
		if _, dup := images[ts]; dup {
			return nil, fmt.Errorf("%w: duplicate timestamp %d in %s", ErrFrameMismatch, ts, dir)
		}
		data, err := afero.ReadFile(fs, filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		images[ts] = data
	}
	return images, nil
}

// LoadScene joins a scene's image folder with its metadata file. The images
// are ordered to follow the metadata timestamps.
func LoadScene(fs afero.Fs, key, imageDir, metadataPath string) (types.SceneRecord, error) {
	images, err := LoadImages(fs, imageDir)
	if err != nil {
		return types.SceneRecord{}, err
	}
	md, err := LoadMetadata(fs, metadataPath)
	if err != nil {
		return types.SceneRecord{}, err
	}
	return Merge(key, md, images)
}

func Merge(key string, md types.Metadata, images map[int64][]byte) (types.SceneRecord, error) {
	if len(images) != len(md.Timestamps) {
		return types.SceneRecord{}, fmt.Errorf("%w: scene %s has %d images and %d timestamps", ErrFrameMismatch, key, len(images), len(md.Timestamps))
	}
	ordered := make([][]byte, len(md.Timestamps))
	for i, ts := range md.Timestamps {
		img, ok := images[ts]
		if !ok {
			return types.SceneRecord{}, fmt.Errorf("%w: scene %s has no image for timestamp %d", ErrFrameMismatch, key, ts)
		}
		ordered[i] = img
	}
	return types.SceneRecord{
		Key:        key,
		URL:        md.URL,
		Timestamps: md.Timestamps,
		Cameras:    md.Cameras,
		Images:     ordered,
	}, nil
}
