// Test program for the EPUB archive reader
//
// Usage:
//
//	go run ./cmd/test/epub_reader/main.go <epub-file-path> (<entry-path> ...)
//
// This program:
// - Opens the EPUB file as a ZIP archive
// - Resolves the package document from META-INF/container.xml
// - Lists every entry under its normalized path
// - Prints the decoded text of the requested entries
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/Mattjhagen/epub-to-audiobook/internal/epub"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run ./cmd/test/epub_reader/main.go <epub-file> (<entry-path> ...)")
		os.Exit(1)
	}

	epubPath := os.Args[1]
	entries := os.Args[2:]

	fmt.Printf("Opening EPUB file: %s\n", epubPath)
	data, err := os.ReadFile(epubPath)
	if err != nil {
		log.Fatalf("Failed to read file: %v", err)
	}
	archive, err := epub.OpenArchive(data)
	if err != nil {
		log.Fatalf("Failed to open EPUB: %v", err)
	}
	fmt.Printf("✓ EPUB opened successfully\n")

	rootPath, err := epub.ResolveRootfile(archive)
	if err != nil {
		log.Fatalf("Failed to resolve rootfile: %v", err)
	}
	fmt.Printf("Package document: %s\n\n", rootPath)

	names := archive.Names()
	fmt.Printf("Total files: %d\n", len(names))
	for _, name := range names {
		fmt.Printf("  - %s\n", name)
	}

	for _, entry := range entries {
		path := epub.NormalizePath("", entry)
		fmt.Printf("\n=== %s ===\n", path)
		text, err := archive.ReadText(path)
		if err != nil {
			fmt.Printf("✗ %v\n", err)
			continue
		}
		fmt.Println(text)
	}
}
