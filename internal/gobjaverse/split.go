package gobjaverse

import (
	"path/filepath"

	"github.com/goccy/go-json"
	"github.com/spf13/afero"
)

type Splits struct {
	Train []string
	Val   []string
	Test  []string
}

// Full is train, val and test concatenated in that order.
func (s Splits) Full() []string {
	full := make([]string, 0, len(s.Train)+len(s.Val)+len(s.Test))
	full = append(full, s.Train...)
	full = append(full, s.Val...)
	return append(full, s.Test...)
}

// Split partitions descriptors by position: the first 80% train, the next
// 10% val, the remainder test. Sizes are floored with integer arithmetic.
func Split(descriptors []Descriptor) Splits {
	n := len(descriptors)
	trainEnd := n * 8 / 10
	valEnd := trainEnd + n/10

	ids := make([]string, n)
	for i, d := range descriptors {
		ids[i] = d.ID(i)
	}
	return Splits{
		Train: ids[:trainEnd:trainEnd],
		Val:   ids[trainEnd:valEnd:valEnd],
		Test:  ids[valEnd:],
	}
}

// WriteSplits writes train.json, val.json, test.json and full.json into dir
// and returns the written paths in that order.
func WriteSplits(fs afero.Fs, dir string, s Splits) ([]string, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	files := []struct {
		name string
		ids  []string
	}{
		{"train.json", s.Train},
		{"val.json", s.Val},
		{"test.json", s.Test},
		{"full.json", s.Full()},
	}
	paths := make([]string, 0, len(files))
	for _, f := range files {
		ids := f.ids
		if ids == nil {
			ids = []string{}
		}
		data, err := json.Marshal(ids)
		if err != nil {
			return nil, err
		}
		path := filepath.Join(dir, f.name)
		if err := writeFile(fs, path, data); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(fs afero.Fs, path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return afero.WriteFile(fs, path, data, 0o644)
}
