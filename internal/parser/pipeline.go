// Package parser turns EPUB containers into ordered chapter lists.
package parser

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Mattjhagen/epub-to-audiobook/internal/epub"
)

// Options holds options for the parsing pipeline.
type Options struct {
	Logger        *slog.Logger
	Workers       int // concurrent content documents; < 1 means sequential
	MaxTextLength int // per-chapter rune cap; 0 means unlimited
}

// Book is the result of parsing one EPUB.
type Book struct {
	Title    string         `json:"title,omitempty"`
	Language string         `json:"language,omitempty"`
	Chapters []epub.Chapter `json:"chapters"`
}

// Cover is a cover image pulled out of an EPUB.
type Cover struct {
	Path      string
	MediaType string
	Data      []byte
}

// Pipeline orchestrates archive, container, package and chapter extraction.
type Pipeline struct {
	Options Options
}

// NewPipeline creates a new parsing pipeline.
func NewPipeline(opts Options) *Pipeline {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return &Pipeline{Options: opts}
}

// Parse parses an EPUB with default options and returns its chapters.
func Parse(ctx context.Context, data []byte) ([]epub.Chapter, error) {
	return NewPipeline(Options{}).Parse(ctx, data)
}

// Parse returns the chapters of the EPUB in data, in reading order. Any
// structural error in the archive, container descriptor or package document
// fails the whole call; unreadable chapters are skipped.
func (p *Pipeline) Parse(ctx context.Context, data []byte) ([]epub.Chapter, error) {
	book, err := p.ParseBook(ctx, data)
	if err != nil {
		return nil, err
	}
	return book.Chapters, nil
}

// ParseBook is like Parse but also returns book-level metadata.
func (p *Pipeline) ParseBook(ctx context.Context, data []byte) (*Book, error) {
	archive, pkg, err := p.openPackage(data)
	if err != nil {
		return nil, err
	}

	chapters, err := epub.ExtractChapters(ctx, archive, pkg, epub.ExtractOptions{
		Logger:        p.Options.Logger,
		Workers:       p.Options.Workers,
		MaxTextLength: p.Options.MaxTextLength,
	})
	if err != nil {
		return nil, err
	}

	p.Options.Logger.Debug("parsed epub",
		"package", pkg.Path,
		"spine", len(pkg.Spine),
		"chapters", len(chapters))

	return &Book{
		Title:    pkg.Title,
		Language: pkg.Language,
		Chapters: chapters,
	}, nil
}

// ParseSource reads src and parses it with ParseBook.
func (p *Pipeline) ParseSource(ctx context.Context, src Source) (*Book, error) {
	data, err := src.Bytes(ctx)
	if err != nil {
		return nil, err
	}
	book, err := p.ParseBook(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", src.Name(), err)
	}
	return book, nil
}

// ExtractCover returns the raw cover image of the EPUB in data.
// It returns nil and no error when the book has no detectable cover.
func (p *Pipeline) ExtractCover(data []byte) (*Cover, error) {
	archive, pkg, err := p.openPackage(data)
	if err != nil {
		return nil, err
	}

	info := pkg.DetectCover()
	if info == nil {
		return nil, nil
	}
	p.Options.Logger.Debug("detected cover", "path", info.Path, "method", info.DetectionMethod)

	img, err := archive.ReadFile(info.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cover: %w", err)
	}
	return &Cover{Path: info.Path, MediaType: info.MediaType, Data: img}, nil
}

// openPackage opens the archive and parses its package document.
func (p *Pipeline) openPackage(data []byte) (*epub.Archive, *epub.Package, error) {
	archive, err := epub.OpenArchive(data)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open EPUB: %w", err)
	}

	rootPath, err := epub.ResolveRootfile(archive)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to locate package document: %w", err)
	}

	pkg, err := epub.ExtractPackage(archive, rootPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read package document: %w", err)
	}

	return archive, pkg, nil
}
