package epub

import "strings"

// NormalizePath joins ref onto baseDir and collapses "." and ".." segments.
// Empty segments are dropped and ".." above the archive root is ignored, so
// the result is always a clean, slash-separated, archive-relative path.
//
//	NormalizePath("OEBPS", "../images/x.png") == "images/x.png"
//	NormalizePath("OEBPS/text", "../ch1.xhtml") == "OEBPS/ch1.xhtml"
func NormalizePath(baseDir, ref string) string {
	raw := ref
	if baseDir != "" {
		raw = baseDir + "/" + ref
	}

	parts := strings.Split(raw, "/")
	stack := make([]string, 0, len(parts))
	for _, part := range parts {
		switch part {
		case "", ".":
			continue
		case "..":
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		default:
			stack = append(stack, part)
		}
	}
	return strings.Join(stack, "/")
}

// Dir returns the directory part of an archive path, or "" for entries at
// the archive root.
func Dir(p string) string {
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		return p[:i]
	}
	return ""
}
