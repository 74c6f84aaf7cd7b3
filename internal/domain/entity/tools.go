package entity

// QualityLevel качественная оценка изображения
type QualityLevel string

const (
	QualityPoor      QualityLevel = "poor"
	QualityFair      QualityLevel = "fair"
	QualityGood      QualityLevel = "good"
	QualityExcellent QualityLevel = "excellent"
)

// QualityAssessment результат проверки качества снимка.
type QualityAssessment struct {
	QualityScore    float64      `json:"quality_score"` // 0-100
	QualityLevel    QualityLevel `json:"quality_level"`
	Issues          []string     `json:"issues"`
	Recommendations []string     `json:"recommendations"`
	NormalizedImage *string      `json:"normalized_image_base64,omitempty"`
}

// BoundingBox прямоугольник клетки в пикселях
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Area возвращает площадь прямоугольника
func (b BoundingBox) Area() float64 {
	return b.Width * b.Height
}

// DetectedCell одна найденная клетка
type DetectedCell struct {
	CellID      string      `json:"cell_id"`
	BoundingBox BoundingBox `json:"bounding_box"`
	Confidence  float64     `json:"confidence"`
	CellImage   string      `json:"cell_image_base64,omitempty"`
}

// MultiCellDetectionResult результат поиска нескольких клеток на снимке.
type MultiCellDetectionResult struct {
	TotalCells     int            `json:"total_cells"`
	Cells          []DetectedCell `json:"cells"`
	ImageWithBoxes *string        `json:"image_with_boxes_base64,omitempty"`
}

// StainNormalization результат нормализации окраски
type StainNormalization struct {
	NormalizedImage string  `json:"normalized_image_base64"`
	Method          *string `json:"stain_normalization_method,omitempty"`
	Strategy        *string `json:"normalization_strategy,omitempty"`
}
