package port

// BlendMode способ наложения тепловой карты
type BlendMode string

const (
	BlendOverlay     BlendMode = "overlay"      // карта поверх снимка
	BlendMasked      BlendMode = "masked"       // снимок виден только в активных областях
	BlendHeatmapOnly BlendMode = "heatmap_only" // только карта
)

// BlendModes допустимые режимы в порядке показа
var BlendModes = []BlendMode{BlendOverlay, BlendMasked, BlendHeatmapOnly}

// Valid сообщает, что режим известен
func (m BlendMode) Valid() bool {
	for _, known := range BlendModes {
		if m == known {
			return true
		}
	}
	return false
}

// HeatmapCompositor локально совмещает снимок и карту объяснимости.
type HeatmapCompositor interface {
	// Blend возвращает PNG; opacity в процентах 0..100
	Blend(base, heatmap []byte, mode BlendMode, opacity int) ([]byte, error)
}
