package watermark

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// TempPattern prefixes every temporary file the engine creates. The cleanup
// sweep only removes files carrying it.
const TempPattern = "brand-"

// Artifact is the output of one branding operation. Callers must Close it
// once its bytes have been sent; Close removes the file when the artifact
// owns it.
type Artifact struct {
	Path      string
	MediaType string
	Ext       string

	// Branded is false when the original bytes were passed through.
	Branded bool
	// Placeholder is true for a schematic preview of a missing source.
	Placeholder bool

	owned bool
	once  sync.Once
	err   error
}

// NewArtifact creates an empty owned temp file in dir. The returned file is
// open for writing; the caller closes it before handing the artifact on.
func NewArtifact(dir, ext, mediaType string) (*Artifact, *os.File, error) {
	f, err := os.CreateTemp(dir, TempPattern+"*"+ext)
	if err != nil {
		return nil, nil, fmt.Errorf("create artifact: %w", err)
	}
	return &Artifact{
		Path:      f.Name(),
		MediaType: mediaType,
		Ext:       ext,
		owned:     true,
	}, f, nil
}

// Passthrough wraps an existing file without taking ownership of it.
func Passthrough(path, mediaType, ext string) *Artifact {
	return &Artifact{Path: path, MediaType: mediaType, Ext: ext}
}

// Open opens the artifact for reading.
func (a *Artifact) Open() (*os.File, error) {
	return os.Open(a.Path)
}

func (a *Artifact) Size() (int64, error) {
	info, err := os.Stat(a.Path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// WriteTo copies the artifact bytes to w.
func (a *Artifact) WriteTo(w io.Writer) (int64, error) {
	f, err := a.Open()
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return io.Copy(w, f)
}

// Filename builds a download name from a display name and the artifact
// extension.
func (a *Artifact) Filename(displayName string) string {
	return SanitizeName(displayName) + a.Ext
}

// Close removes an owned artifact. It is safe to call more than once.
func (a *Artifact) Close() error {
	if a == nil {
		return nil
	}
	a.once.Do(func() {
		if !a.owned {
			return
		}
		if err := os.Remove(a.Path); err != nil && !os.IsNotExist(err) {
			a.err = err
		}
	})
	return a.err
}
