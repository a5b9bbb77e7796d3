package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: uint8(x), B: uint8(y), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func decodeConfig(t *testing.T, b []byte) (image.Config, string) {
	t.Helper()
	cfg, format, err := image.DecodeConfig(bytes.NewReader(b))
	require.NoError(t, err)
	return cfg, format
}

func TestDerive_CapsPrimaryWidth(t *testing.T) {
	g := NewGenerator(Options{PrimaryMaxWidth: 100, ThumbnailSize: 32})

	out, err := g.Derive(encodePNG(t, 400, 200), MimePNG)
	require.NoError(t, err)

	cfg, format := decodeConfig(t, out.Primary)
	assert.Equal(t, "png", format)
	assert.Equal(t, 100, cfg.Width)
	assert.Equal(t, 50, cfg.Height)
	assert.Equal(t, MimePNG, out.PrimaryMimeType)
	assert.Equal(t, "png", out.PrimaryExt)
}

func TestDerive_NeverUpscalesPrimary(t *testing.T) {
	g := NewGenerator(Options{PrimaryMaxWidth: 1024, ThumbnailSize: 16})

	out, err := g.Derive(encodeJPEG(t, 60, 40), MimeJPEG)
	require.NoError(t, err)

	cfg, format := decodeConfig(t, out.Primary)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 60, cfg.Width)
	assert.Equal(t, 40, cfg.Height)
	assert.Equal(t, "jpg", out.PrimaryExt)
}

func TestDerive_ThumbnailIsFixedWidthJPEG(t *testing.T) {
	g := NewGenerator(Options{ThumbnailSize: 64})

	out, err := g.Derive(encodePNG(t, 320, 160), MimePNG)
	require.NoError(t, err)

	cfg, format := decodeConfig(t, out.Thumbnail)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 64, cfg.Width)
	assert.Equal(t, 32, cfg.Height)
	assert.Equal(t, MimeJPEG, out.ThumbnailMimeType)
}

func TestDerive_Deterministic(t *testing.T) {
	g := NewGenerator(DefaultOptions())
	raw := encodePNG(t, 120, 90)

	a, err := g.Derive(raw, MimePNG)
	require.NoError(t, err)
	b, err := g.Derive(raw, MimePNG)
	require.NoError(t, err)

	assert.Equal(t, a.Primary, b.Primary)
	assert.Equal(t, a.Thumbnail, b.Thumbnail)
}

func TestDerive_RejectsUndecodable(t *testing.T) {
	g := NewGenerator(DefaultOptions())

	_, err := g.Derive([]byte("definitely not an image"), MimePNG)
	assert.ErrorIs(t, err, ErrUnsupportedMedia)
}

func TestDerive_RejectsMimeOutsideAllowList(t *testing.T) {
	g := NewGenerator(DefaultOptions())

	_, err := g.Derive(encodePNG(t, 10, 10), "image/gif")
	assert.ErrorIs(t, err, ErrUnsupportedMedia)
}

func TestDerive_RejectsOversizedDimensions(t *testing.T) {
	g := NewGenerator(Options{MaxPixels: 100})

	_, err := g.Derive(encodePNG(t, 20, 20), MimePNG)
	assert.ErrorIs(t, err, ErrImageTooLarge)
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("image/jpeg"))
	assert.True(t, Supported("image/png"))
	assert.True(t, Supported("image/webp"))
	assert.False(t, Supported("text/plain"))
	assert.False(t, Supported(""))
}
