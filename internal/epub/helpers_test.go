package epub

import (
	"archive/zip"
	"bytes"
	"testing"
)

type testFile struct {
	name string
	body string
}

const testContainer = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

// buildEPUB writes files into an in-memory zip, mimetype first and stored.
func buildEPUB(t *testing.T, files ...testFile) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	mw, err := w.CreateHeader(&zip.FileHeader{
		Name:   "mimetype",
		Method: zip.Store,
	})
	if err != nil {
		t.Fatalf("failed to create mimetype: %v", err)
	}
	mw.Write([]byte("application/epub+zip"))

	for _, f := range files {
		fw, err := w.Create(f.name)
		if err != nil {
			t.Fatalf("failed to create %s: %v", f.name, err)
		}
		if _, err := fw.Write([]byte(f.body)); err != nil {
			t.Fatalf("failed to write %s: %v", f.name, err)
		}
	}

	if err := w.Close(); err != nil {
		t.Fatalf("failed to close zip: %v", err)
	}
	return buf.Bytes()
}

func openTestArchive(t *testing.T, files ...testFile) *Archive {
	t.Helper()
	a, err := OpenArchive(buildEPUB(t, files...))
	if err != nil {
		t.Fatalf("OpenArchive() failed: %v", err)
	}
	return a
}

// opf renders a package document with the given manifest and spine markup.
func opf(manifest, spine string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:title>Test Book</dc:title>
    <dc:language>en</dc:language>
  </metadata>
  <manifest>
` + manifest + `
  </manifest>
  <spine>
` + spine + `
  </spine>
</package>`
}

func xhtml(head, body string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE html>
<html xmlns="http://www.w3.org/1999/xhtml">
<head>` + head + `</head>
<body>` + body + `</body>
</html>`
}
