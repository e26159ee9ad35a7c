package gobjaverse

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/spf13/afero"
)

// Descriptor is one entry of a G-Objaverse index. Entries are either plain
// identifier strings or objects carrying "uid" or "id"; the raw JSON is kept
// so the subset file can be written back unchanged.
type Descriptor struct {
	raw json.RawMessage
}

func NewDescriptor(raw string) Descriptor {
	return Descriptor{raw: json.RawMessage(raw)}
}

func (d Descriptor) MarshalJSON() ([]byte, error) {
	if len(d.raw) == 0 {
		return []byte("null"), nil
	}
	return d.raw, nil
}

func (d *Descriptor) UnmarshalJSON(data []byte) error {
	d.raw = append(d.raw[:0], data...)
	return nil
}

// ID resolves the identifier of the descriptor. pos is its position in the
// subset and is used when an object has neither uid nor id. Numeric
// identifiers are returned as their decimal text, so split files are always
// arrays of strings.
func (d Descriptor) ID(pos int) string {
	trimmed := bytes.TrimSpace(d.raw)
	if len(trimmed) == 0 {
		return strconv.Itoa(pos)
	}
	switch trimmed[0] {
	case '"':
		return rawText(trimmed)
	case '{':
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &fields); err != nil {
			return strconv.Itoa(pos)
		}
		if uid, ok := fields["uid"]; ok {
			return rawText(uid)
		}
		if id, ok := fields["id"]; ok {
			return rawText(id)
		}
		return strconv.Itoa(pos)
	default:
		return string(trimmed)
	}
}

func rawText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(raw))
}

func LoadIndex(fs afero.Fs, path string) ([]Descriptor, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}
	var descriptors []Descriptor
	if err := json.Unmarshal(data, &descriptors); err != nil {
		return nil, fmt.Errorf("decode index %s: %w", path, err)
	}
	if len(descriptors) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyIndex, path)
	}
	return descriptors, nil
}

func Truncate(descriptors []Descriptor, n int) []Descriptor {
	if n < len(descriptors) {
		return descriptors[:n]
	}
	return descriptors
}

func WriteSubset(fs afero.Fs, path string, descriptors []Descriptor) error {
	data, err := json.Marshal(descriptors)
	if err != nil {
		return err
	}
	return writeFile(fs, path, data)
}
