package vision

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"

	"cyto-bot/internal/domain/port"
)

func solidPNG(t *testing.T, w, h int, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func pixelAt(t *testing.T, data []byte, x, y int) (r, g, b uint8) {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	cr, cg, cb, _ := img.At(x, y).RGBA()
	return uint8(cr >> 8), uint8(cg >> 8), uint8(cb >> 8)
}

func requireColor(t *testing.T, want [3]float64, data []byte) {
	t.Helper()
	r, g, b := pixelAt(t, data, 1, 1)
	require.InDelta(t, want[0], float64(r), 2, "red")
	require.InDelta(t, want[1], float64(g), 2, "green")
	require.InDelta(t, want[2], float64(b), 2, "blue")
}

func TestCompositor_Modes(t *testing.T) {
	base := solidPNG(t, 4, 4, color.RGBA{R: 200, A: 255})
	heat := solidPNG(t, 8, 8, color.RGBA{B: 100, A: 255})
	c := NewCompositor()

	out, err := c.Blend(base, heat, port.BlendOverlay, 50)
	require.NoError(t, err)
	requireColor(t, [3]float64{100, 0, 50}, out)

	out, err = c.Blend(base, heat, port.BlendHeatmapOnly, 50)
	require.NoError(t, err)
	requireColor(t, [3]float64{0, 0, 50}, out)

	out, err = c.Blend(base, heat, port.BlendMasked, 50)
	require.NoError(t, err)
	requireColor(t, [3]float64{50, 0, 25}, out)
}

func TestCompositor_OpacityBounds(t *testing.T) {
	base := solidPNG(t, 3, 3, color.RGBA{R: 200, G: 10, A: 255})
	heat := solidPNG(t, 3, 3, color.RGBA{B: 100, A: 255})
	c := NewCompositor()

	out, err := c.Blend(base, heat, port.BlendOverlay, 0)
	require.NoError(t, err)
	requireColor(t, [3]float64{200, 10, 0}, out)

	// Значения за пределами 0..100 обрезаются
	out, err = c.Blend(base, heat, port.BlendOverlay, 250)
	require.NoError(t, err)
	requireColor(t, [3]float64{0, 0, 100}, out)

	out, err = c.Blend(base, heat, port.BlendMasked, -10)
	require.NoError(t, err)
	requireColor(t, [3]float64{0, 0, 0}, out)
}

func TestCompositor_KeepsBaseSize(t *testing.T) {
	base := solidPNG(t, 5, 3, color.RGBA{G: 80, A: 255})
	heat := solidPNG(t, 2, 2, color.RGBA{R: 80, A: 255})

	out, err := NewCompositor().Blend(base, heat, port.BlendOverlay, 70)
	require.NoError(t, err)

	cfg, err := png.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	require.Equal(t, 5, cfg.Width)
	require.Equal(t, 3, cfg.Height)
}

func TestCompositor_Errors(t *testing.T) {
	base := solidPNG(t, 2, 2, color.RGBA{A: 255})
	c := NewCompositor()

	_, err := c.Blend(base, base, port.BlendMode("sepia"), 50)
	require.Error(t, err)

	_, err = c.Blend(nil, base, port.BlendOverlay, 50)
	require.Error(t, err)

	_, err = c.Blend(base, []byte("not an image"), port.BlendOverlay, 50)
	require.Error(t, err)
}

func TestBlendModeValid(t *testing.T) {
	for _, m := range port.BlendModes {
		require.True(t, m.Valid())
	}
	require.False(t, port.BlendMode("").Valid())
}
