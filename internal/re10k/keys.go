package re10k

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const MetadataExt = ".txt"

type KeySet struct {
	Keys []string
	// MissingImages are scenes with metadata but no image folder.
	MissingImages []string
	// MissingMetadata are scenes with an image folder but no metadata.
	MissingMetadata []string
}

// ExampleKeys pairs scene folders under imageDir with metadata files under
// metadataDir. Unpaired scenes are reported, not fatal. All lists are sorted.
func ExampleKeys(fs afero.Fs, imageDir, metadataDir string, logger *zap.Logger) (KeySet, error) {
	imageKeys, err := listKeys(fs, imageDir, true)
	if err != nil {
		return KeySet{}, err
	}
	metadataKeys, err := listKeys(fs, metadataDir, false)
	if err != nil {
		return KeySet{}, err
	}

	var ks KeySet
	for key := range metadataKeys {
		if !imageKeys[key] {
			ks.MissingImages = append(ks.MissingImages, key)
		}
	}
	for key := range imageKeys {
		if metadataKeys[key] {
			ks.Keys = append(ks.Keys, key)
		} else {
			ks.MissingMetadata = append(ks.MissingMetadata, key)
		}
	}
	sort.Strings(ks.Keys)
	sort.Strings(ks.MissingImages)
	sort.Strings(ks.MissingMetadata)

	if len(ks.MissingImages) > 0 {
		logger.Warn("found metadata but no images", zap.Int("examples", len(ks.MissingImages)))
	}
	if len(ks.MissingMetadata) > 0 {
		logger.Warn("found images but no metadata", zap.Int("examples", len(ks.MissingMetadata)))
	}
	logger.Info("indexed keys", zap.Int("keys", len(ks.Keys)))
	return ks, nil
}

func listKeys(fs afero.Fs, dir string, dirs bool) (map[string]bool, error) {
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, err
	}
	keys := make(map[string]bool, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		switch {
		case dirs && entry.IsDir():
			keys[name] = true
		case !dirs && !entry.IsDir() && filepath.Ext(name) == MetadataExt:
			keys[strings.TrimSuffix(name, MetadataExt)] = true
		}
	}
	return keys, nil
}
