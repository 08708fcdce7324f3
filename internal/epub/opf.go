package epub

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Mattjhagen/epub-to-audiobook/internal/markup"
)

// ExtractPackage reads and parses the package document at rootPath.
func ExtractPackage(a *Archive, rootPath string) (*Package, error) {
	content, err := a.ReadText(rootPath)
	if errors.Is(err, ErrFileNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrMissingPackageDocument, rootPath)
	}
	if err != nil {
		return nil, err
	}

	pkg, err := ParsePackage([]byte(content), rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", rootPath, err)
	}
	return pkg, nil
}

// ParsePackage parses OPF content. rootPath is the archive path of the
// document and determines the base directory for manifest hrefs.
func ParsePackage(content []byte, rootPath string) (*Package, error) {
	doc, err := markup.Parse(content, markup.ModeXML)
	if err != nil {
		return nil, err
	}

	pkg := &Package{
		Path:     rootPath,
		Dir:      Dir(rootPath),
		Manifest: make(map[string]ManifestItem),
	}

	parseMetadata(pkg, doc)

	for _, manifest := range doc.All("manifest") {
		for _, el := range manifest.Children("item") {
			id, _ := el.Attr("id")
			href, _ := el.Attr("href")
			if id == "" || href == "" {
				continue
			}
			mediaType, _ := el.Attr("media-type")

			item := ManifestItem{
				ID:        id,
				Href:      href,
				MediaType: mediaType,
			}
			if props, ok := el.Attr("properties"); ok {
				item.Properties = strings.Fields(props)
			}

			// A redeclared id replaces the earlier item but keeps its position.
			if _, seen := pkg.Manifest[id]; !seen {
				pkg.ManifestOrder = append(pkg.ManifestOrder, id)
			}
			pkg.Manifest[id] = item
		}
	}

	for _, spine := range doc.All("spine") {
		for _, el := range spine.Children("itemref") {
			idref, _ := el.Attr("idref")
			if idref == "" {
				continue
			}
			linear, _ := el.Attr("linear")
			pkg.Spine = append(pkg.Spine, SpineItem{
				IDRef:  idref,
				Linear: linear != "no",
			})
		}
	}

	for _, guide := range doc.All("guide") {
		for _, el := range guide.Children("reference") {
			href, _ := el.Attr("href")
			if href == "" {
				continue
			}
			typ, _ := el.Attr("type")
			title, _ := el.Attr("title")
			pkg.Guide = append(pkg.Guide, GuideReference{Type: typ, Title: title, Href: href})
		}
	}

	return pkg, nil
}

// parseMetadata fills the few metadata fields the reader surfaces.
func parseMetadata(pkg *Package, doc *markup.Document) {
	md := doc.First("metadata")
	if md == nil {
		return
	}
	for _, el := range md.Children("title") {
		if t := NormalizeWhitespace(el.Text()); t != "" {
			pkg.Title = t
			break
		}
	}
	for _, el := range md.Children("language") {
		if l := strings.TrimSpace(el.Text()); l != "" {
			pkg.Language = l
			break
		}
	}
	for _, el := range md.Children("meta") {
		if name, _ := el.Attr("name"); name == "cover" {
			if content, _ := el.Attr("content"); content != "" {
				pkg.CoverID = content
				break
			}
		}
	}
}
