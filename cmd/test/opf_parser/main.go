// Test program for package document parsing and chapter extraction
//
// Usage:
//
//	go run ./cmd/test/opf_parser/main.go <epub-file-path>
//
// This program:
// - Parses the package document
// - Displays metadata (title, language)
// - Lists manifest items in document order
// - Shows the spine with the resolved path of each item
// - Shows the detected cover image
// - Lists the extracted chapters with their text length
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"unicode/utf8"

	"github.com/Mattjhagen/epub-to-audiobook/internal/epub"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <epub-file-path>\n", os.Args[0])
		os.Exit(1)
	}

	epubPath := os.Args[1]

	fmt.Println("=== EPUB Package Parser Test ===")
	fmt.Printf("File: %s\n\n", epubPath)

	data, err := os.ReadFile(epubPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file: %v\n", err)
		os.Exit(1)
	}
	archive, err := epub.OpenArchive(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening EPUB: %v\n", err)
		os.Exit(1)
	}
	rootPath, err := epub.ResolveRootfile(archive)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving rootfile: %v\n", err)
		os.Exit(1)
	}
	pkg, err := epub.ExtractPackage(archive, rootPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing package: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("✓ Package parsed successfully")

	fmt.Println("--- Metadata ---")
	fmt.Printf("Title:       %s\n", pkg.Title)
	fmt.Printf("Language:    %s\n", pkg.Language)
	fmt.Printf("Package:     %s (dir %q)\n", pkg.Path, pkg.Dir)

	fmt.Printf("\n--- Manifest (%d items) ---\n", len(pkg.ManifestOrder))
	for _, id := range pkg.ManifestOrder {
		item := pkg.Manifest[id]
		fmt.Printf("  %-20s %-40s %s\n", id, item.Href, item.MediaType)
	}

	fmt.Printf("\n--- Spine (%d items) ---\n", len(pkg.Spine))
	for i, ref := range pkg.Spine {
		item, ok := pkg.Manifest[ref.IDRef]
		if !ok {
			fmt.Printf("  %3d. %-20s (not in manifest)\n", i+1, ref.IDRef)
			continue
		}
		fmt.Printf("  %3d. %-20s %s\n", i+1, ref.IDRef, pkg.ResolveHref(item))
	}

	fmt.Println("\n--- Cover ---")
	if c := pkg.DetectCover(); c != nil {
		fmt.Printf("  %s (%s, via %s)\n", c.Path, c.MediaType, c.DetectionMethod)
	} else {
		fmt.Println("  none")
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	chapters, err := epub.ExtractChapters(context.Background(), archive, pkg, epub.ExtractOptions{Logger: logger})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error extracting chapters: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\n--- Chapters (%d) ---\n", len(chapters))
	for i, ch := range chapters {
		fmt.Printf("  %3d. %-20s %-40s %d chars\n", i+1, ch.ID, ch.Title, utf8.RuneCountInString(ch.Text))
	}
}
