package epub

import (
	"errors"
	"testing"

	"github.com/Mattjhagen/epub-to-audiobook/internal/markup"
)

func TestResolveRootfile(t *testing.T) {
	a := openTestArchive(t, testFile{ContainerPath, testContainer})

	got, err := ResolveRootfile(a)
	if err != nil {
		t.Fatalf("ResolveRootfile() failed: %v", err)
	}
	if got != "OEBPS/content.opf" {
		t.Errorf("ResolveRootfile() = %q, want %q", got, "OEBPS/content.opf")
	}
}

func TestResolveRootfile_FirstRootfileWins(t *testing.T) {
	container := `<container xmlns="urn:oasis:names:tc:opendocument:xmlns:container"><rootfiles>
  <rootfile full-path="first.opf" media-type="application/oebps-package+xml"/>
  <rootfile full-path="second.opf" media-type="application/oebps-package+xml"/>
</rootfiles></container>`
	a := openTestArchive(t, testFile{ContainerPath, container})

	got, err := ResolveRootfile(a)
	if err != nil {
		t.Fatalf("ResolveRootfile() failed: %v", err)
	}
	if got != "first.opf" {
		t.Errorf("ResolveRootfile() = %q, want %q", got, "first.opf")
	}
}

func TestResolveRootfile_PathNormalization(t *testing.T) {
	container := `<container><rootfiles><rootfile full-path="./OEBPS/content.opf"/></rootfiles></container>`
	a := openTestArchive(t, testFile{ContainerPath, container})

	got, err := ResolveRootfile(a)
	if err != nil {
		t.Fatalf("ResolveRootfile() failed: %v", err)
	}
	if got != "OEBPS/content.opf" {
		t.Errorf("ResolveRootfile() = %q, want %q", got, "OEBPS/content.opf")
	}
}

func TestResolveRootfile_Errors(t *testing.T) {
	tests := []struct {
		name  string
		files []testFile
		want  error
	}{
		{
			name: "no container",
			want: ErrMissingContainer,
		},
		{
			name:  "container in wrong case",
			files: []testFile{{"meta-inf/container.xml", testContainer}},
			want:  ErrMissingContainer,
		},
		{
			name:  "empty container",
			files: []testFile{{ContainerPath, ""}},
			want:  ErrMissingContainer,
		},
		{
			name:  "blank container",
			files: []testFile{{ContainerPath, "\xef\xbb\xbf \n\t"}},
			want:  ErrMissingContainer,
		},
		{
			name:  "no rootfile",
			files: []testFile{{ContainerPath, `<container><rootfiles/></container>`}},
			want:  ErrMissingRootfile,
		},
		{
			name:  "empty full-path",
			files: []testFile{{ContainerPath, `<container><rootfiles><rootfile full-path="  "/></rootfiles></container>`}},
			want:  ErrMissingRootfile,
		},
		{
			name:  "missing full-path",
			files: []testFile{{ContainerPath, `<container><rootfiles><rootfile media-type="application/oebps-package+xml"/></rootfiles></container>`}},
			want:  ErrMissingRootfile,
		},
		{
			name:  "malformed",
			files: []testFile{{ContainerPath, `<container><rootfiles>`}},
			want:  markup.ErrMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := openTestArchive(t, tt.files...)
			_, err := ResolveRootfile(a)
			if !errors.Is(err, tt.want) {
				t.Errorf("ResolveRootfile() error = %v, want %v", err, tt.want)
			}
		})
	}
}
