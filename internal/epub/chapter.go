package epub

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/Mattjhagen/epub-to-audiobook/internal/markup"
)

// ExtractOptions controls chapter extraction.
type ExtractOptions struct {
	// Logger receives a debug record for every skipped spine item.
	// Nil discards.
	Logger *slog.Logger
	// Workers bounds how many content documents are parsed at once.
	// Values below 1 mean sequential extraction.
	Workers int
	// MaxTextLength truncates chapter text to this many runes. 0 disables.
	MaxTextLength int
}

// headingTags are the title fallbacks in priority order.
var headingTags = []string{"h1", "h2", "h3"}

// candidate is a spine position that passed the manifest and media type checks.
type candidate struct {
	position int
	id       string
	path     string
}

// loaded is the outcome of reading one candidate's content document.
type loaded struct {
	ok    bool
	title string
	text  string
}

// ExtractChapters walks the spine in order and returns one Chapter per
// readable content document. Spine items that are missing from the manifest,
// are not (X)HTML, point to a missing file, fail to parse or contain no text
// are skipped. The only error returned is a context error.
func ExtractChapters(ctx context.Context, a *Archive, pkg *Package, opts ExtractOptions) ([]Chapter, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var candidates []candidate
	for i, ref := range pkg.Spine {
		item, ok := pkg.Manifest[ref.IDRef]
		if !ok {
			logger.Debug("skipping spine item", "idref", ref.IDRef, "reason", "not in manifest")
			continue
		}
		if !IsContentDocument(item.MediaType) {
			logger.Debug("skipping spine item", "idref", ref.IDRef, "media_type", item.MediaType, "reason", "not a content document")
			continue
		}
		candidates = append(candidates, candidate{
			position: i,
			id:       ref.IDRef,
			path:     pkg.ResolveHref(item),
		})
	}

	results := make([]loaded, len(candidates))

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, c := range candidates {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = loadChapter(a, c, opts.MaxTextLength, logger)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	chapters := make([]Chapter, 0, len(candidates))
	for i, r := range results {
		if !r.ok {
			continue
		}
		title := r.title
		if title == "" {
			title = fmt.Sprintf("Chapter %d", len(chapters)+1)
		}
		chapters = append(chapters, Chapter{
			ID:    chapterID(candidates[i].id, candidates[i].position),
			Title: title,
			Text:  r.text,
		})
	}
	return chapters, nil
}

// loadChapter reads and flattens one content document. Failures are logged
// and reported as !ok.
func loadChapter(a *Archive, c candidate, maxLen int, logger *slog.Logger) loaded {
	content, err := a.ReadText(c.path)
	if err != nil {
		logger.Debug("skipping spine item", "idref", c.id, "href", c.path, "reason", err)
		return loaded{}
	}

	doc, err := markup.Parse([]byte(content), markup.ModeHTML)
	if err != nil {
		logger.Debug("skipping spine item", "idref", c.id, "href", c.path, "reason", err)
		return loaded{}
	}

	title, fromHeading := "", false
	if el := doc.FirstOf("title"); el != nil {
		title = NormalizeWhitespace(el.Text())
	} else if el := doc.FirstOf(headingTags...); el != nil {
		title, fromHeading = NormalizeWhitespace(el.Text()), true
		// The heading became the title; keep it from being read twice.
		el.Remove()
	}

	body := doc.First("body")
	if body == nil {
		body = doc.Root()
	}
	if body == nil {
		logger.Debug("skipping spine item", "idref", c.id, "href", c.path, "reason", "no document element")
		return loaded{}
	}

	text := NormalizeWhitespace(body.Text())
	if text == "" && fromHeading {
		// A document holding nothing but its heading still reads as the heading.
		text = title
	}
	text = truncateRunes(text, maxLen)
	if text == "" {
		logger.Debug("skipping spine item", "idref", c.id, "href", c.path, "reason", "no text")
		return loaded{}
	}

	return loaded{ok: true, title: title, text: text}
}

// IsContentDocument reports whether a manifest media type names an (X)HTML
// content document. The match is a case-sensitive substring test.
func IsContentDocument(mediaType string) bool {
	return strings.Contains(mediaType, "xhtml") || strings.Contains(mediaType, "html")
}

// NormalizeWhitespace collapses every run of whitespace to a single space and
// trims both ends. It is idempotent.
func NormalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// chapterID returns the manifest id, or a positional id when there is none.
func chapterID(id string, position int) string {
	if id != "" {
		return id
	}
	return fmt.Sprintf("chapter-%d", position+1)
}

func truncateRunes(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return strings.TrimSpace(s[:pos])
		}
		i++
	}
	return s
}
