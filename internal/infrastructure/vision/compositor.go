package vision

import (
	"errors"
	"fmt"

	"cyto-bot/internal/domain/port"
)

// Слои собираются так же, как в веб-интерфейсе: снимок (кроме heatmap_only),
// сверху карта с прозрачностью opacity, для masked ещё чёрный слой с (100-opacity).

var errEmptyImage = errors.New("empty image")

// Compositor совмещает снимок и карту объяснимости без обращения к бэкенду.
type Compositor struct{}

// NewCompositor создаёт компоновщик
func NewCompositor() *Compositor {
	return &Compositor{}
}

// alphaOf переводит проценты в долю, выходящие за 0..100 значения обрезаются.
func alphaOf(opacity int) float64 {
	switch {
	case opacity < 0:
		return 0
	case opacity > 100:
		return 1
	}
	return float64(opacity) / 100
}

func checkInputs(base, heatmap []byte, mode port.BlendMode) error {
	if !mode.Valid() {
		return fmt.Errorf("unknown blend mode %q", mode)
	}
	if len(base) == 0 {
		return fmt.Errorf("base image: %w", errEmptyImage)
	}
	if len(heatmap) == 0 {
		return fmt.Errorf("heatmap: %w", errEmptyImage)
	}
	return nil
}

// mix смешивает один канал (0..255) по режиму
func mix(base, heat, alpha float64, mode port.BlendMode) float64 {
	switch mode {
	case port.BlendHeatmapOnly:
		return heat * alpha
	case port.BlendMasked:
		return (base*(1-alpha) + heat*alpha) * alpha
	default:
		return base*(1-alpha) + heat*alpha
	}
}

var _ port.HeatmapCompositor = (*Compositor)(nil)
