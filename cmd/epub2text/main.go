package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"

	"github.com/Mattjhagen/epub-to-audiobook/internal/config"
	"github.com/Mattjhagen/epub-to-audiobook/internal/cover"
	"github.com/Mattjhagen/epub-to-audiobook/internal/logging"
	"github.com/Mattjhagen/epub-to-audiobook/internal/parser"
)

// stdoutPath selects standard output for -o.
const stdoutPath = "-"

type cliOptions struct {
	InputPath     string
	OutputPath    string
	Format        string
	TitlesOnly    bool
	Workers       int
	MaxTextLength int
	Logger        *slog.Logger
}

type coverOptions struct {
	InputPath   string
	OutputPath  string
	MaxWidth    int
	JPEGQuality int
	Logger      *slog.Logger
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "epub2text <file.epub>",
		Short: "Extract chapter text from EPUB files",
		Long: `epub2text reads an EPUB container and prints the text of every
chapter in reading order, ready to be handed to a speech synthesizer.

Chapters that are missing, unreadable or empty are skipped. A broken
container or package document fails the whole run.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := readCLIOptions(cmd, args)
			if err != nil {
				return err
			}
			return runExtract(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}

	flags := cmd.PersistentFlags()
	flags.String("config", "", "YAML config file")
	flags.String("log-level", "info", "Log level: debug, info, warn, error")
	flags.String("log-format", "text", "Log format: text, json")

	cmd.Flags().StringP("output", "o", stdoutPath, "Output file path (- for stdout)")
	cmd.Flags().String("format", "text", "Output format: text, json")
	cmd.Flags().Int("workers", 1, "Chapters parsed concurrently")
	cmd.Flags().Int("max-text", 0, "Truncate chapter text to this many characters (0 = unlimited)")
	cmd.Flags().Bool("titles-only", false, "Print chapter titles only")

	cmd.AddCommand(newCoverCmd())
	return cmd
}

func newCoverCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cover <file.epub>",
		Short: "Extract the cover image as a thumbnail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := readCoverOptions(cmd, args)
			if err != nil {
				return err
			}
			return runCover(opts)
		},
	}
	cmd.Flags().StringP("output", "o", "", "Output image path (default: input with .jpg extension)")
	cmd.Flags().Int("max-width", 0, "Maximum thumbnail width in pixels")
	cmd.Flags().Int("quality", 0, "JPEG quality (1-100)")
	return cmd
}

// loadConfig reads --config and applies the logging flags on top of it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel, _ = cmd.Flags().GetString("log-level")
	}
	if cmd.Flags().Changed("log-format") {
		cfg.LogFormat, _ = cmd.Flags().GetString("log-format")
	}
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)

	if !config.ValidLogLevel(cfg.LogLevel) {
		return nil, fmt.Errorf("--log-level must be one of debug, info, warn, error, got %q", cfg.LogLevel)
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("--log-format must be text or json, got %q", cfg.LogFormat)
	}
	return cfg, nil
}

func readCLIOptions(cmd *cobra.Command, args []string) (*cliOptions, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("format") {
		cfg.OutputFormat, _ = flags.GetString("format")
	}
	if flags.Changed("workers") {
		cfg.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("max-text") {
		cfg.MaxTextLength, _ = flags.GetInt("max-text")
	}
	cfg.OutputFormat = strings.ToLower(cfg.OutputFormat)

	if cfg.OutputFormat != "text" && cfg.OutputFormat != "json" {
		return nil, fmt.Errorf("--format must be text or json, got %q", cfg.OutputFormat)
	}
	if cfg.Workers < 1 {
		return nil, fmt.Errorf("--workers must be at least 1, got %d", cfg.Workers)
	}
	if cfg.MaxTextLength < 0 {
		return nil, fmt.Errorf("--max-text must not be negative, got %d", cfg.MaxTextLength)
	}

	outputPath, _ := flags.GetString("output")
	titlesOnly, _ := flags.GetBool("titles-only")

	return &cliOptions{
		InputPath:     args[0],
		OutputPath:    outputPath,
		Format:        cfg.OutputFormat,
		TitlesOnly:    titlesOnly,
		Workers:       cfg.Workers,
		MaxTextLength: cfg.MaxTextLength,
		Logger:        logging.New(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr()),
	}, nil
}

func readCoverOptions(cmd *cobra.Command, args []string) (*coverOptions, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("max-width") {
		cfg.Cover.MaxWidth, _ = flags.GetInt("max-width")
	}
	if flags.Changed("quality") {
		cfg.Cover.JPEGQuality, _ = flags.GetInt("quality")
	}
	if cfg.Cover.MaxWidth < 1 {
		return nil, fmt.Errorf("--max-width must be at least 1, got %d", cfg.Cover.MaxWidth)
	}
	if cfg.Cover.JPEGQuality < 1 || cfg.Cover.JPEGQuality > 100 {
		return nil, fmt.Errorf("--quality must be between 1 and 100, got %d", cfg.Cover.JPEGQuality)
	}

	outputPath, _ := flags.GetString("output")
	if outputPath == "" {
		outputPath = defaultOutputPath(args[0], "jpg")
	}
	if _, err := imaging.FormatFromFilename(outputPath); err != nil {
		return nil, fmt.Errorf("--output: %w", err)
	}

	return &coverOptions{
		InputPath:   args[0],
		OutputPath:  outputPath,
		MaxWidth:    cfg.Cover.MaxWidth,
		JPEGQuality: cfg.Cover.JPEGQuality,
		Logger:      logging.New(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr()),
	}, nil
}

func defaultOutputPath(inputPath, ext string) string {
	return strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + "." + ext
}

func runExtract(ctx context.Context, opts *cliOptions, stdout io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	p := parser.NewPipeline(parser.Options{
		Logger:        opts.Logger,
		Workers:       opts.Workers,
		MaxTextLength: opts.MaxTextLength,
	})

	book, err := p.ParseSource(ctx, parser.FileSource(opts.InputPath))
	if err != nil {
		return err
	}
	opts.Logger.Info("parsed book", "input", opts.InputPath, "title", book.Title, "chapters", len(book.Chapters))

	if opts.OutputPath == stdoutPath {
		if err := renderBook(stdout, book, opts.Format, opts.TitlesOnly); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}
	return writeOutputFile(opts.OutputPath, func(w io.Writer) error {
		return renderBook(w, book, opts.Format, opts.TitlesOnly)
	})
}

// writeOutputFile creates path and fills it with render. A failed close is
// reported like a failed write.
func writeOutputFile(path string, render func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	if err := render(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close output: %w", err)
	}
	return nil
}

func renderBook(w io.Writer, book *parser.Book, format string, titlesOnly bool) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if titlesOnly {
			titles := make([]string, len(book.Chapters))
			for i, ch := range book.Chapters {
				titles[i] = ch.Title
			}
			return enc.Encode(titles)
		}
		return enc.Encode(book)
	}

	for i, ch := range book.Chapters {
		var err error
		if titlesOnly {
			_, err = fmt.Fprintf(w, "%d. %s\n", i+1, ch.Title)
		} else {
			_, err = fmt.Fprintf(w, "# %s\n\n%s\n\n", ch.Title, ch.Text)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func runCover(opts *coverOptions) error {
	data, err := parser.FileSource(opts.InputPath).Bytes(context.Background())
	if err != nil {
		return err
	}

	c, err := parser.NewPipeline(parser.Options{Logger: opts.Logger}).ExtractCover(data)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", opts.InputPath, err)
	}
	if c == nil {
		return fmt.Errorf("%s has no cover image", opts.InputPath)
	}

	format, err := imaging.FormatFromFilename(opts.OutputPath)
	if err != nil {
		return err
	}
	thumb, err := cover.NewThumbnailer(opts.MaxWidth, opts.JPEGQuality).Make(c.Data, format)
	if err != nil {
		return fmt.Errorf("failed to convert cover %s: %w", c.Path, err)
	}
	if err := os.WriteFile(opts.OutputPath, thumb.Data, 0o644); err != nil {
		return fmt.Errorf("failed to write cover: %w", err)
	}

	opts.Logger.Info("wrote cover", "source", c.Path, "output", opts.OutputPath,
		"width", thumb.Width, "height", thumb.Height)
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
