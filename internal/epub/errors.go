package epub

import "errors"

// Errors that abort a parse. Per-chapter problems are never reported through
// these; they only cause the chapter to be skipped.
var (
	// ErrArchiveFormat indicates the input is not a readable ZIP container.
	ErrArchiveFormat = errors.New("epub: not a valid zip archive")

	// ErrMissingContainer indicates META-INF/container.xml is absent.
	ErrMissingContainer = errors.New("epub: META-INF/container.xml not found")

	// ErrMissingRootfile indicates container.xml names no package document.
	ErrMissingRootfile = errors.New("epub: rootfile full-path not found in container.xml")

	// ErrMissingPackageDocument indicates the package document named by
	// container.xml does not exist in the archive.
	ErrMissingPackageDocument = errors.New("epub: package document not found")

	// ErrFileNotFound indicates the requested entry does not exist in the archive.
	ErrFileNotFound = errors.New("epub: file not found in archive")
)
