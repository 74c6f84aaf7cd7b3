//go:build gocv
// +build gocv

package vision

import (
	"errors"
	"image"

	"gocv.io/x/gocv"

	"cyto-bot/internal/domain/port"
)

// Blend совмещает снимок и карту средствами OpenCV. Карта приводится к размеру снимка.
func (c *Compositor) Blend(base, heatmap []byte, mode port.BlendMode, opacity int) ([]byte, error) {
	if err := checkInputs(base, heatmap, mode); err != nil {
		return nil, err
	}

	baseMat, err := decodeToMat(base)
	if err != nil {
		return nil, err
	}
	defer baseMat.Close()

	heatMat, err := decodeToMat(heatmap)
	if err != nil {
		return nil, err
	}
	defer heatMat.Close()

	if heatMat.Cols() != baseMat.Cols() || heatMat.Rows() != baseMat.Rows() {
		resized := gocv.NewMat()
		gocv.Resize(heatMat, &resized, image.Pt(baseMat.Cols(), baseMat.Rows()), 0, 0, gocv.InterpolationLinear)
		heatMat.Close()
		heatMat = resized
	}

	alpha := alphaOf(opacity)
	out := gocv.NewMat()
	defer out.Close()

	switch mode {
	case port.BlendHeatmapOnly:
		heatMat.ConvertToWithParams(&out, heatMat.Type(), float32(alpha), 0)
	case port.BlendMasked:
		overlay := gocv.NewMat()
		defer overlay.Close()
		gocv.AddWeighted(baseMat, 1-alpha, heatMat, alpha, 0, &overlay)
		overlay.ConvertToWithParams(&out, overlay.Type(), float32(alpha), 0)
	default:
		gocv.AddWeighted(baseMat, 1-alpha, heatMat, alpha, 0, &out)
	}

	buf, err := gocv.IMEncode(gocv.PNGFileExt, out)
	if err != nil {
		return nil, err
	}
	defer buf.Close()

	data := buf.GetBytes()
	encoded := make([]byte, len(data))
	copy(encoded, data)
	return encoded, nil
}

// decodeToMat превращает байты изображения в gocv.Mat.
func decodeToMat(imageData []byte) (gocv.Mat, error) {
	mat, err := gocv.IMDecode(imageData, gocv.IMReadColor)
	if err == nil && !mat.Empty() {
		return mat, nil
	}
	if !mat.Empty() {
		mat.Close()
	}
	return gocv.NewMat(), errors.New("failed to decode image")
}
