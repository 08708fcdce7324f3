package epub

import (
	"strings"
)

// CoverInfo holds information about the detected cover image.
type CoverInfo struct {
	ManifestID      string
	Path            string // archive path
	MediaType       string
	DetectionMethod string // "properties", "meta", "guide", "filename"
}

// DetectCover detects the cover image from the manifest.
// Methods are tried in priority order:
//  1. properties="cover-image" (EPUB 3.0)
//  2. meta name="cover" (EPUB 2.0)
//  3. guide type="cover" pointing directly at an image item
//  4. filename pattern (basename contains "cover", case-insensitive, SVG excluded)
//
// Returns nil if no cover image is found.
func (p *Package) DetectCover() *CoverInfo {
	for _, id := range p.ManifestOrder {
		item := p.Manifest[id]
		for _, prop := range item.Properties {
			if prop == "cover-image" {
				return p.coverInfo(item, "properties")
			}
		}
	}

	if p.CoverID != "" {
		if item, ok := p.Manifest[p.CoverID]; ok && isImageMediaType(item.MediaType) {
			return p.coverInfo(item, "meta")
		}
	}

	for _, ref := range p.Guide {
		if ref.Type != "cover" {
			continue
		}
		href, _, _ := strings.Cut(ref.Href, "#")
		target := NormalizePath(p.Dir, href)
		for _, id := range p.ManifestOrder {
			item := p.Manifest[id]
			if isImageMediaType(item.MediaType) && p.ResolveHref(item) == target {
				return p.coverInfo(item, "guide")
			}
		}
		// A guide cover that is an XHTML page falls through to the filename pattern.
	}

	for _, id := range p.ManifestOrder {
		item := p.Manifest[id]
		if !isImageMediaType(item.MediaType) {
			continue
		}
		base := item.Href
		if i := strings.LastIndexByte(base, '/'); i >= 0 {
			base = base[i+1:]
		}
		if strings.Contains(strings.ToLower(base), "cover") {
			return p.coverInfo(item, "filename")
		}
	}

	return nil
}

func (p *Package) coverInfo(item ManifestItem, method string) *CoverInfo {
	return &CoverInfo{
		ManifestID:      item.ID,
		Path:            p.ResolveHref(item),
		MediaType:       item.MediaType,
		DetectionMethod: method,
	}
}

// isImageMediaType checks if a media type is a raster image (SVG excluded).
func isImageMediaType(mediaType string) bool {
	if mediaType == "image/svg+xml" {
		return false
	}
	return strings.HasPrefix(mediaType, "image/")
}
