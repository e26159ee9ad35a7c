package chunk

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/spf13/afero"
)

const Ext = ".cbor"

type Info struct {
	Path   string
	Index  int
	Scenes int
	// Bytes is the on-disk size of the source scenes.
	Bytes int64
	// Encoded is the size of the chunk file.
	Encoded int
}

func FileName(index int) string {
	return fmt.Sprintf("%06d%s", index, Ext)
}

// Writer encodes accumulated scenes as CBOR chunk files in one directory.
type Writer struct {
	mu  sync.Mutex
	fs  afero.Fs
	dir string
	enc cbor.EncMode
}

func NewWriter(fs afero.Fs, dir string) (*Writer, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	enc, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return nil, err
	}
	return &Writer{fs: fs, dir: dir, enc: enc}, nil
}

// Flush writes the accumulator's records as chunk Index() and resets it.
// An empty accumulator writes nothing.
func (w *Writer) Flush(acc *Accumulator) (Info, bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if acc.Len() == 0 {
		return Info{}, false, nil
	}
	data, err := w.enc.Marshal(acc.Records())
	if err != nil {
		return Info{}, false, fmt.Errorf("encode chunk %d: %w", acc.Index(), err)
	}
	path := filepath.Join(w.dir, FileName(acc.Index()))
	tmp := path + ".tmp"
	if err := afero.WriteFile(w.fs, tmp, data, 0o644); err != nil {
		return Info{}, false, err
	}
	if err := w.fs.Rename(tmp, path); err != nil {
		_ = w.fs.Remove(tmp)
		return Info{}, false, err
	}

	info := Info{
		Path:    path,
		Index:   acc.Index(),
		Scenes:  acc.Len(),
		Bytes:   acc.Size(),
		Encoded: len(data),
	}
	acc.Reset()
	return info, true, nil
}
