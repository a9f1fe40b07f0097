package receipt

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nomorewaste/domain"
)

func testPNG(t testing.TB, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDownscale_BoundsWidth(t *testing.T) {
	out, err := Downscale(testPNG(t, 2048, 1024), 1024, 70)
	require.NoError(t, err)

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 1024, cfg.Width)
	assert.Equal(t, 512, cfg.Height)
}

func TestDownscale_KeepsSmallImages(t *testing.T) {
	out, err := Downscale(testPNG(t, 300, 600), 1024, 70)
	require.NoError(t, err)

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 300, cfg.Width)
	assert.Equal(t, 600, cfg.Height)
}

func TestDownscale_RejectsNonImages(t *testing.T) {
	_, err := Downscale([]byte("definitely not an image"), 1024, 70)
	assert.ErrorIs(t, err, domain.ErrInvalidImage)
}
