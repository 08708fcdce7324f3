// Package cover turns an EPUB cover image into a display-sized thumbnail.
package cover

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

const (
	defaultMaxWidth    = 600
	defaultJPEGQuality = 90
	defaultMaxPixels   = 100 * 1000 * 1000 // 100 megapixels
)

// ErrTooLarge is returned for images whose pixel count exceeds MaxPixels.
var ErrTooLarge = errors.New("image too large to decode")

// Thumbnailer scales cover images down to a maximum width.
type Thumbnailer struct {
	MaxWidth    int
	JPEGQuality int
	MaxPixels   int // Total pixel count limit for decode (width * height)
}

// Thumbnail holds an encoded thumbnail.
type Thumbnail struct {
	Data   []byte
	Width  int
	Height int
	Format imaging.Format
}

// NewThumbnailer creates a thumbnailer, filling unset fields with defaults.
func NewThumbnailer(maxWidth, quality int) *Thumbnailer {
	if maxWidth <= 0 {
		maxWidth = defaultMaxWidth
	}
	if quality <= 0 {
		quality = defaultJPEGQuality
	}
	if quality > 100 {
		quality = 100
	}
	return &Thumbnailer{
		MaxWidth:    maxWidth,
		JPEGQuality: quality,
		MaxPixels:   defaultMaxPixels,
	}
}

// Make decodes input, shrinks it to MaxWidth keeping the aspect ratio and
// encodes it as format. Images narrower than MaxWidth are not enlarged.
// Transparent images encoded as JPEG are flattened onto white.
func (t *Thumbnailer) Make(input []byte, format imaging.Format) (*Thumbnail, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(input))
	if err != nil {
		return nil, fmt.Errorf("image decode failed: %w", err)
	}
	pixels := uint64(cfg.Width) * uint64(cfg.Height)
	if t.MaxPixels > 0 && pixels > uint64(t.MaxPixels) {
		return nil, fmt.Errorf("%w: %dx%d (%d pixels)", ErrTooLarge, cfg.Width, cfg.Height, pixels)
	}

	src, err := imaging.Decode(bytes.NewReader(input), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("image decode failed: %w", err)
	}

	var img image.Image = src
	if t.MaxWidth > 0 && src.Bounds().Dx() > t.MaxWidth {
		img = imaging.Resize(src, t.MaxWidth, 0, imaging.Lanczos)
	}

	if format == imaging.JPEG && hasAlpha(img) {
		b := img.Bounds()
		bg := imaging.New(b.Dx(), b.Dy(), color.White)
		img = imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format, imaging.JPEGQuality(t.JPEGQuality)); err != nil {
		return nil, fmt.Errorf("%s encode failed: %w", format, err)
	}

	return &Thumbnail{
		Data:   buf.Bytes(),
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
		Format: format,
	}, nil
}

func hasAlpha(img image.Image) bool {
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			_, _, _, a := img.At(x, y).RGBA()
			if a < 0xFFFF {
				return true
			}
		}
	}
	return false
}
