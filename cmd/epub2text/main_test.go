package main

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Mattjhagen/epub-to-audiobook/internal/epub"
	"github.com/Mattjhagen/epub-to-audiobook/internal/parser"
)

const testContainer = `<?xml version="1.0"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles><rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/></rootfiles>
</container>`

const testOPF = `<?xml version="1.0"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/"><dc:title>Sample</dc:title></metadata>
  <manifest>
    <item id="c1" href="c1.xhtml" media-type="application/xhtml+xml"/>
    <item id="c2" href="c2.xhtml" media-type="application/xhtml+xml"/>
    <item id="img" href="cover.png" media-type="image/png" properties="cover-image"/>
  </manifest>
  <spine><itemref idref="c1"/><itemref idref="c2"/></spine>
</package>`

func writeTestEPUB(t *testing.T) string {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, 800, 400))
	for y := 0; y < 400; y++ {
		for x := 0; x < 800; x++ {
			img.Set(x, y, color.NRGBA{R: 200, G: 40, B: 40, A: 255})
		}
	}
	var pngBuf bytes.Buffer
	if err := png.Encode(&pngBuf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}

	files := map[string][]byte{
		"META-INF/container.xml": []byte(testContainer),
		"OEBPS/content.opf":      []byte(testOPF),
		"OEBPS/c1.xhtml":         []byte(`<html><head><title>One</title></head><body><p>First chapter.</p></body></html>`),
		"OEBPS/c2.xhtml":         []byte(`<html><body><h2>Two</h2><p>Second   chapter.</p></body></html>`),
		"OEBPS/cover.png":        pngBuf.Bytes(),
	}

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		fw, err := w.Create(name)
		if err != nil {
			t.Fatalf("failed to create %s: %v", name, err)
		}
		fw.Write(content)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close zip: %v", err)
	}

	path := filepath.Join(t.TempDir(), "sample.epub")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("failed to write epub: %v", err)
	}
	return path
}

func readCLIOptionsForTest(t *testing.T, flagArgs ...string) (*cliOptions, error) {
	t.Helper()
	cmd := newRootCmd()
	if err := cmd.ParseFlags(flagArgs); err != nil {
		t.Fatalf("ParseFlags() error = %v", err)
	}
	return readCLIOptions(cmd, []string{"./input/book.epub"})
}

func TestReadCLIOptions_Defaults(t *testing.T) {
	opts, err := readCLIOptionsForTest(t)
	if err != nil {
		t.Fatalf("readCLIOptions() error = %v", err)
	}

	if opts.InputPath != "./input/book.epub" {
		t.Fatalf("InputPath = %q", opts.InputPath)
	}
	if opts.OutputPath != stdoutPath {
		t.Fatalf("OutputPath = %q, want stdout", opts.OutputPath)
	}
	if opts.Format != "text" {
		t.Fatalf("Format = %q, want text", opts.Format)
	}
	if opts.Workers != 1 || opts.MaxTextLength != 0 || opts.TitlesOnly {
		t.Fatalf("opts = %+v", opts)
	}
	if opts.Logger == nil {
		t.Fatal("Logger is nil, want non-nil")
	}
	if !opts.Logger.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatal("Logger should be enabled at INFO level by default")
	}
}

func TestReadCLIOptions_CustomFlags(t *testing.T) {
	opts, err := readCLIOptionsForTest(t,
		"--output", "./out/book.json",
		"--format", "JSON",
		"--workers", "4",
		"--max-text", "500",
		"--titles-only",
		"--log-level", "debug",
	)
	if err != nil {
		t.Fatalf("readCLIOptions() error = %v", err)
	}

	if opts.OutputPath != "./out/book.json" {
		t.Fatalf("OutputPath = %q", opts.OutputPath)
	}
	if opts.Format != "json" {
		t.Fatalf("Format = %q", opts.Format)
	}
	if opts.Workers != 4 || opts.MaxTextLength != 500 || !opts.TitlesOnly {
		t.Fatalf("opts = %+v", opts)
	}
	if !opts.Logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("Logger should be enabled at DEBUG level")
	}
}

func TestReadCLIOptions_Invalid(t *testing.T) {
	tests := []struct {
		args []string
		flag string
	}{
		{[]string{"--format", "pdf"}, "--format"},
		{[]string{"--workers", "0"}, "--workers"},
		{[]string{"--max-text", "-1"}, "--max-text"},
		{[]string{"--log-level", "trace"}, "--log-level"},
		{[]string{"--log-format", "yaml"}, "--log-format"},
	}

	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			_, err := readCLIOptionsForTest(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.flag) {
				t.Fatalf("expected %s validation error, got %v", tt.flag, err)
			}
		})
	}
}

func TestReadCLIOptions_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "epub2text.yaml")
	content := "output_format: json\nworkers: 3\nmax_text_length: 100\nlog_level: warn\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	opts, err := readCLIOptionsForTest(t, "--config", path, "--workers", "6")
	if err != nil {
		t.Fatalf("readCLIOptions() error = %v", err)
	}

	if opts.Format != "json" || opts.MaxTextLength != 100 {
		t.Fatalf("config values not applied: %+v", opts)
	}
	// Flags win over the file.
	if opts.Workers != 6 {
		t.Fatalf("Workers = %d, want 6", opts.Workers)
	}
	if opts.Logger.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatal("Logger should be at WARN level from config")
	}
}

func TestDefaultOutputPath(t *testing.T) {
	got := defaultOutputPath("./books/sample.epub", "jpg")
	if got != "./books/sample.jpg" {
		t.Fatalf("defaultOutputPath() = %q", got)
	}
}

func TestRenderBook(t *testing.T) {
	book := &parser.Book{
		Title: "Sample",
		Chapters: []epub.Chapter{
			{ID: "c1", Title: "One", Text: "First chapter."},
			{ID: "c2", Title: "Two", Text: "Second chapter."},
		},
	}

	tests := []struct {
		name       string
		format     string
		titlesOnly bool
		want       string
	}{
		{"text", "text", false, "# One\n\nFirst chapter.\n\n# Two\n\nSecond chapter.\n\n"},
		{"text titles", "text", true, "1. One\n2. Two\n"},
		{"json titles", "json", true, "[\n  \"One\",\n  \"Two\"\n]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := renderBook(&buf, book, tt.format, tt.titlesOnly); err != nil {
				t.Fatalf("renderBook() error = %v", err)
			}
			if buf.String() != tt.want {
				t.Errorf("renderBook() = %q, want %q", buf.String(), tt.want)
			}
		})
	}

	var buf bytes.Buffer
	if err := renderBook(&buf, book, "json", false); err != nil {
		t.Fatalf("renderBook() error = %v", err)
	}
	var decoded parser.Book
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if decoded.Title != "Sample" || len(decoded.Chapters) != 2 || decoded.Chapters[1].ID != "c2" {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestRootCmd_ExtractsChapters(t *testing.T) {
	input := writeTestEPUB(t)

	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{input})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	want := "# One\n\nFirst chapter.\n\n# Two\n\nSecond chapter.\n\n"
	if stdout.String() != want {
		t.Errorf("stdout = %q, want %q", stdout.String(), want)
	}
	if !strings.Contains(stderr.String(), "parsed book") {
		t.Errorf("stderr should carry the info log, got %q", stderr.String())
	}
}

func TestRootCmd_WritesOutputFile(t *testing.T) {
	input := writeTestEPUB(t)
	output := filepath.Join(t.TempDir(), "book.json")

	cmd := newRootCmd()
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{input, "--format", "json", "-o", output})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	var book parser.Book
	if err := json.Unmarshal(data, &book); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if book.Title != "Sample" || len(book.Chapters) != 2 {
		t.Errorf("book = %+v", book)
	}
}

func TestRootCmd_MissingInput(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{filepath.Join(t.TempDir(), "missing.epub")})

	err := cmd.Execute()
	if !errors.Is(err, parser.ErrSourceNotFound) {
		t.Fatalf("Execute() error = %v, want ErrSourceNotFound", err)
	}
}

func TestWriteOutputFile(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "book.txt")
	err := writeOutputFile(path, func(w io.Writer) error {
		_, err := io.WriteString(w, "chapter text")
		return err
	})
	if err != nil {
		t.Fatalf("writeOutputFile() error = %v", err)
	}
	if data, _ := os.ReadFile(path); string(data) != "chapter text" {
		t.Errorf("file content = %q", data)
	}

	renderErr := errors.New("render failed")
	err = writeOutputFile(filepath.Join(dir, "broken.txt"), func(io.Writer) error { return renderErr })
	if !errors.Is(err, renderErr) {
		t.Errorf("writeOutputFile() error = %v, want %v", err, renderErr)
	}

	err = writeOutputFile(filepath.Join(dir, "missing", "book.txt"), func(io.Writer) error { return nil })
	if err == nil || !strings.Contains(err.Error(), "failed to create output") {
		t.Errorf("writeOutputFile() error = %v, want create failure", err)
	}
}

func TestReadCLIOptions_ConfigLogLevelRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "epub2text.yaml")
	if err := os.WriteFile(path, []byte("log_level: trace\n"), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	_, err := readCLIOptionsForTest(t, "--config", path)
	if err == nil || !strings.Contains(err.Error(), "log_level") {
		t.Fatalf("expected log_level validation error from config, got %v", err)
	}
}

func TestCoverCmd_WritesThumbnail(t *testing.T) {
	input := writeTestEPUB(t)
	output := filepath.Join(t.TempDir(), "cover.jpg")

	cmd := newRootCmd()
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"cover", input, "-o", output, "--max-width", "200"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	f, err := os.Open(output)
	if err != nil {
		t.Fatalf("failed to open cover: %v", err)
	}
	defer f.Close()
	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		t.Fatalf("failed to decode cover: %v", err)
	}
	if format != "jpeg" || cfg.Width != 200 || cfg.Height != 100 {
		t.Errorf("cover = %s %dx%d, want jpeg 200x100", format, cfg.Width, cfg.Height)
	}
}

func TestReadCoverOptions_Invalid(t *testing.T) {
	tests := []struct {
		args []string
		flag string
	}{
		{[]string{"--quality", "0"}, "--quality"},
		{[]string{"--quality", "101"}, "--quality"},
		{[]string{"--max-width", "0"}, "--max-width"},
		{[]string{"-o", "cover.webp"}, "--output"},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			cmd := newCoverCmd()
			if err := cmd.ParseFlags(tt.args); err != nil {
				t.Fatalf("ParseFlags() error = %v", err)
			}
			_, err := readCoverOptions(cmd, []string{"book.epub"})
			if err == nil || !strings.Contains(err.Error(), tt.flag) {
				t.Fatalf("expected %s validation error, got %v", tt.flag, err)
			}
		})
	}
}
