package epub

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"sort"

	"golang.org/x/text/encoding/unicode"
)

// Archive provides read-only access to the entries of an in-memory EPUB
// container. Entries are keyed by normalized path and decompressed on demand.
type Archive struct {
	files map[string]*zip.File
}

// OpenArchive opens data as a ZIP container.
func OpenArchive(data []byte) (*Archive, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArchiveFormat, err)
	}

	a := &Archive{files: make(map[string]*zip.File, len(zr.File))}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		name := NormalizePath("", f.Name)
		if _, dup := a.files[name]; dup {
			// First entry wins, as with most zip readers.
			continue
		}
		a.files[name] = f
	}
	return a, nil
}

// Has reports whether the archive contains an entry at name.
func (a *Archive) Has(name string) bool {
	_, ok := a.files[NormalizePath("", name)]
	return ok
}

// Names returns all entry names in lexical order.
func (a *Archive) Names() []string {
	names := make([]string, 0, len(a.files))
	for name := range a.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ReadFile returns the decompressed contents of the entry at name.
// A missing entry yields ErrFileNotFound; a corrupt entry yields
// ErrArchiveFormat.
func (a *Archive) ReadFile(name string) ([]byte, error) {
	name = NormalizePath("", name)
	f, ok := a.files[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, name)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrArchiveFormat, name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrArchiveFormat, name, err)
	}
	return data, nil
}

// ReadText reads the entry at name as UTF-8 text. A leading byte order mark
// is dropped and invalid sequences are replaced with U+FFFD.
func (a *Archive) ReadText(name string) (string, error) {
	data, err := a.ReadFile(name)
	if err != nil {
		return "", err
	}
	text, err := unicode.UTF8BOM.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", name, err)
	}
	return string(text), nil
}
