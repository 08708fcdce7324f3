package epub

// Package is the parsed OPF package document.
type Package struct {
	Path     string // archive path of the package document
	Dir      string // base directory for manifest hrefs
	Title    string
	Language string
	CoverID  string // EPUB 2.0 cover image manifest item ID (from meta name="cover")

	Manifest      map[string]ManifestItem // id -> item
	ManifestOrder []string                // ids in declaration order
	Spine         []SpineItem
	Guide         []GuideReference // EPUB 2.0 <guide>
}

// ManifestItem represents an item in the manifest
type ManifestItem struct {
	ID         string
	Href       string // as declared, relative to Package.Dir
	MediaType  string
	Properties []string
}

// SpineItem represents an item reference in the spine
type SpineItem struct {
	IDRef  string
	Linear bool
}

// GuideReference represents a reference in the EPUB 2.0 guide
type GuideReference struct {
	Type  string
	Title string
	Href  string // as declared, may carry a fragment
}

// Chapter is one readable unit of a book, in reading order.
type Chapter struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Text  string `json:"text"`
}

// ResolveHref returns the archive path of a manifest item.
func (p *Package) ResolveHref(item ManifestItem) string {
	return NormalizePath(p.Dir, item.Href)
}
