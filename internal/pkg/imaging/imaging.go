package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"
)

var (
	ErrUnsupportedMedia = errors.New("image format is not supported")
	ErrImageTooLarge    = errors.New("image dimensions exceed the allowed maximum")
)

const (
	MimeJPEG = "image/jpeg"
	MimePNG  = "image/png"
	MimeWebP = "image/webp"
)

// Options controls derivative dimensions and encoder quality.
type Options struct {
	PrimaryMaxWidth    int
	PrimaryJPEGQuality int
	ThumbnailSize      int
	ThumbnailQuality   int
	MaxPixels          int
}

func DefaultOptions() Options {
	return Options{
		PrimaryMaxWidth:    1024,
		PrimaryJPEGQuality: 90,
		ThumbnailSize:      256,
		ThumbnailQuality:   80,
		MaxPixels:          40_000_000,
	}
}

// Derivatives holds the encoded primary image and thumbnail for one upload.
type Derivatives struct {
	Primary         []byte
	PrimaryMimeType string
	PrimaryExt      string
	PrimaryWidth    int
	PrimaryHeight   int

	Thumbnail         []byte
	ThumbnailMimeType string
}

// Generator turns uploaded image bytes into derivatives. It keeps no state between calls.
type Generator struct {
	opts Options
}

func NewGenerator(opts Options) *Generator {
	def := DefaultOptions()
	if opts.PrimaryMaxWidth <= 0 {
		opts.PrimaryMaxWidth = def.PrimaryMaxWidth
	}
	if opts.PrimaryJPEGQuality <= 0 || opts.PrimaryJPEGQuality > 100 {
		opts.PrimaryJPEGQuality = def.PrimaryJPEGQuality
	}
	if opts.ThumbnailSize <= 0 {
		opts.ThumbnailSize = def.ThumbnailSize
	}
	if opts.ThumbnailQuality <= 0 || opts.ThumbnailQuality > 100 {
		opts.ThumbnailQuality = def.ThumbnailQuality
	}
	if opts.MaxPixels <= 0 {
		opts.MaxPixels = def.MaxPixels
	}
	return &Generator{opts: opts}
}

// Supported reports whether mimeType is one of the decodable input types.
func Supported(mimeType string) bool {
	switch mimeType {
	case MimeJPEG, MimePNG, MimeWebP:
		return true
	}
	return false
}

// Derive decodes raw and produces a width-capped primary and a fixed-width JPEG thumbnail.
// The encoder is chosen from the decoded format, not from mimeType.
func (g *Generator) Derive(raw []byte, mimeType string) (*Derivatives, error) {
	if !Supported(mimeType) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMedia, mimeType)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedMedia, err)
	}
	if !formatAllowed(format) {
		return nil, fmt.Errorf("%w: decoded as %s", ErrUnsupportedMedia, format)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: empty image", ErrUnsupportedMedia)
	}
	if cfg.Width*cfg.Height > g.opts.MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}

	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedMedia, err)
	}

	out := &Derivatives{ThumbnailMimeType: MimeJPEG}

	var eg errgroup.Group
	eg.Go(func() error {
		img := capWidth(src, g.opts.PrimaryMaxWidth)
		b := img.Bounds()
		out.PrimaryWidth, out.PrimaryHeight = b.Dx(), b.Dy()

		var buf bytes.Buffer
		switch format {
		case "jpeg":
			out.PrimaryMimeType, out.PrimaryExt = MimeJPEG, "jpg"
			if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: g.opts.PrimaryJPEGQuality}); err != nil {
				return fmt.Errorf("encode primary: %w", err)
			}
		default:
			// png, and webp which has no encoder in the standard toolchain
			out.PrimaryMimeType, out.PrimaryExt = MimePNG, "png"
			if err := png.Encode(&buf, img); err != nil {
				return fmt.Errorf("encode primary: %w", err)
			}
		}
		out.Primary = buf.Bytes()
		return nil
	})
	eg.Go(func() error {
		img := flatten(resizeToWidth(src, g.opts.ThumbnailSize))
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: g.opts.ThumbnailQuality}); err != nil {
			return fmt.Errorf("encode thumbnail: %w", err)
		}
		out.Thumbnail = buf.Bytes()
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func formatAllowed(format string) bool {
	return format == "jpeg" || format == "png" || format == "webp"
}

// capWidth scales src down to maxWidth keeping the aspect ratio. Narrower images are returned as is.
func capWidth(src image.Image, maxWidth int) image.Image {
	if src.Bounds().Dx() <= maxWidth {
		return src
	}
	return resizeToWidth(src, maxWidth)
}

func resizeToWidth(src image.Image, width int) image.Image {
	b := src.Bounds()
	height := b.Dy() * width / b.Dx()
	if height < 1 {
		height = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}

// flatten composites img over white so transparent regions do not turn black in JPEG.
func flatten(img image.Image) image.Image {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
	return dst
}
