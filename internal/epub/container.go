package epub

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Mattjhagen/epub-to-audiobook/internal/markup"
)

// ContainerPath is the fixed location of the OCF container descriptor.
const ContainerPath = "META-INF/container.xml"

// ResolveRootfile reads the container descriptor and returns the path of the
// package document named by its first rootfile element.
func ResolveRootfile(a *Archive) (string, error) {
	content, err := a.ReadText(ContainerPath)
	if errors.Is(err, ErrFileNotFound) {
		return "", ErrMissingContainer
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("%w: %s is empty", ErrMissingContainer, ContainerPath)
	}

	doc, err := markup.Parse([]byte(content), markup.ModeXML)
	if err != nil {
		return "", fmt.Errorf("failed to parse %s: %w", ContainerPath, err)
	}

	rf := doc.First("rootfile")
	if rf == nil {
		return "", ErrMissingRootfile
	}
	fullPath, _ := rf.Attr("full-path")
	if strings.TrimSpace(fullPath) == "" {
		return "", ErrMissingRootfile
	}

	return NormalizePath("", fullPath), nil
}
