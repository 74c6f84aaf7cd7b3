//go:build !gocv
// +build !gocv

package vision

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"math"

	"cyto-bot/internal/domain/port"
)

// Blend совмещает снимок и карту на чистом Go. Карта растягивается до размера снимка.
func (c *Compositor) Blend(base, heatmap []byte, mode port.BlendMode, opacity int) ([]byte, error) {
	if err := checkInputs(base, heatmap, mode); err != nil {
		return nil, err
	}
	baseImg, _, err := image.Decode(bytes.NewReader(base))
	if err != nil {
		return nil, fmt.Errorf("decode base image: %w", err)
	}
	heatImg, _, err := image.Decode(bytes.NewReader(heatmap))
	if err != nil {
		return nil, fmt.Errorf("decode heatmap: %w", err)
	}

	alpha := alphaOf(opacity)
	bb := baseImg.Bounds()
	hb := heatImg.Bounds()
	if bb.Empty() || hb.Empty() {
		return nil, errEmptyImage
	}

	out := image.NewRGBA(image.Rect(0, 0, bb.Dx(), bb.Dy()))
	for y := 0; y < bb.Dy(); y++ {
		hy := hb.Min.Y + y*hb.Dy()/bb.Dy()
		for x := 0; x < bb.Dx(); x++ {
			hx := hb.Min.X + x*hb.Dx()/bb.Dx()
			br, bg, bbl, _ := baseImg.At(bb.Min.X+x, bb.Min.Y+y).RGBA()
			hr, hg, hbl, _ := heatImg.At(hx, hy).RGBA()
			out.SetRGBA(x, y, color.RGBA{
				R: channel(br, hr, alpha, mode),
				G: channel(bg, hg, alpha, mode),
				B: channel(bbl, hbl, alpha, mode),
				A: 255,
			})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// channel переводит 16-битные каналы image/color в 8 бит и смешивает их
func channel(base, heat uint32, alpha float64, mode port.BlendMode) uint8 {
	v := mix(float64(base>>8), float64(heat>>8), alpha, mode)
	return uint8(math.Max(0, math.Min(255, math.Round(v))))
}
