package parser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

// ErrSourceNotFound is returned when a file source does not exist.
var ErrSourceNotFound = errors.New("source not found")

// Source supplies the raw bytes of an EPUB container.
type Source interface {
	// Name identifies the source in error messages.
	Name() string
	// Bytes returns the full container.
	Bytes(ctx context.Context) ([]byte, error)
}

// FileSource reads an EPUB from a path on disk.
type FileSource string

// Name returns the path.
func (s FileSource) Name() string { return string(s) }

// Bytes reads the whole file.
func (s FileSource) Bytes(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(string(s))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, s)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s, err)
	}
	return data, nil
}

// ReaderSource reads an EPUB from an already opened stream such as an
// uploaded file.
type ReaderSource struct {
	Label  string
	Reader io.Reader
}

// Name returns the label, or "stream" when unset.
func (s ReaderSource) Name() string {
	if s.Label == "" {
		return "stream"
	}
	return s.Label
}

// Bytes drains the reader.
func (s ReaderSource) Bytes(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(s.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.Name(), err)
	}
	return data, nil
}
