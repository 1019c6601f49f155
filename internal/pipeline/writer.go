package pipeline

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/segmentio/ksuid"

	"github.com/anwilli5/coinprep/internal/imaging"
)

// WriteError reports a failure to create the destination or write an icon.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// EnsureDir creates dst and any missing parents. It succeeds if the directory
// already exists.
func EnsureDir(dst string) error {
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return &WriteError{Path: dst, Err: err}
	}
	return nil
}

// WritePNG encodes img as PNG at path, replacing any existing file.
//
// The data goes to a hidden temp file in the same directory first and is
// renamed into place, so readers never see a partial icon.
func WritePNG(path string, img image.Image) error {
	tmp := filepath.Join(filepath.Dir(path), "."+ksuid.New().String()+".tmp")

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}

	if err := imaging.EncodePNG(f, img); err != nil {
		f.Close()
		os.Remove(tmp)
		return &WriteError{Path: path, Err: fmt.Errorf("encode: %w", err)}
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return &WriteError{Path: path, Err: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return &WriteError{Path: path, Err: err}
	}
	return nil
}
