package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// Классы цитологии SIPaKMeD, которые возвращает бэкенд
const (
	ClassDyskeratotic            = "Dyskeratotic"
	ClassKoilocytotic            = "Koilocytotic"
	ClassMetaplastic             = "Metaplastic"
	ClassParabasal               = "Parabasal"
	ClassSuperficialIntermediate = "Superficial-Intermediate"
)

// KnownClasses закрытый набор меток классификатора
var KnownClasses = []string{
	ClassDyskeratotic,
	ClassKoilocytotic,
	ClassMetaplastic,
	ClassParabasal,
	ClassSuperficialIntermediate,
}

// Методы объяснимости
const (
	MethodScoreCAM = "scorecam"
	MethodLayerCAM = "layercam"
)

// probabilitySumTolerance допустимое отклонение суммы вероятностей от 1
const probabilitySumTolerance = 0.02

// AnalysisResult нормализованный ответ одного запроса на анализ.
// Обязательны только PredictedClass и Probabilities, остальное может отсутствовать.
type AnalysisResult struct {
	PredictedClass string        `json:"predicted_class"`
	Probabilities  Probabilities `json:"probabilities"`

	OriginalImage       *string              `json:"original_image_base64,omitempty"`
	SegmentationMask    *string              `json:"segmentation_mask_base64,omitempty"`
	SegmentationOverlay *string              `json:"segmentation_overlay_base64,omitempty"`
	Metrics             *SegmentationMetrics `json:"metrics,omitempty"`
	ScoreCAM            *string              `json:"xai_scorecam_base64,omitempty"`
	LayerCAM            *string              `json:"xai_layercam_base64,omitempty"`

	Quality          *QualityAssessment        `json:"quality,omitempty"`
	Uncertainty      *UncertaintyMetrics       `json:"uncertainty,omitempty"`
	MultiCell        *MultiCellDetectionResult `json:"multi_cell,omitempty"`
	ClinicalDecision *ClinicalDecision         `json:"clinical_decision,omitempty"`
	NormalizedImage  *string                   `json:"normalized_image_base64,omitempty"`

	ProcessingTimeMs *float64 `json:"processing_time_ms,omitempty"`
	ModelVersion     *string  `json:"model_version,omitempty"`
}

// SegmentationMetrics производные метрики сегментации. Носят справочный характер.
type SegmentationMetrics struct {
	CoverageRatio  float64  `json:"coverage_ratio"`
	NumCells       float64  `json:"num_cells"`
	AvgCellSize    float64  `json:"avg_cell_size"`
	EdgeDensity    float64  `json:"edge_density"`
	AvgSolidity    float64  `json:"avg_solidity"`
	Accuracy       float64  `json:"accuracy"`
	NucleusRatio   *float64 `json:"nucleus_ratio,omitempty"`
	CytoplasmRatio *float64 `json:"cytoplasm_ratio,omitempty"`
}

// UncertaintyMetrics оценка неопределённости. Авторитетна только Confidence.
type UncertaintyMetrics struct {
	Confidence          float64 `json:"confidence"` // 0-100
	Entropy             float64 `json:"entropy"`
	UncertaintyLower    float64 `json:"uncertainty_lower"`
	UncertaintyUpper    float64 `json:"uncertainty_upper"`
	PredictionStability float64 `json:"prediction_stability"` // 0-100
}

// RiskLevel уровень клинического риска
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Candidate альтернативный класс с вероятностью
type Candidate struct {
	Class       string  `json:"class"`
	Probability float64 `json:"probability"`
}

// ClinicalDecision поддержка клинического решения от бэкенда.
type ClinicalDecision struct {
	RiskLevel           RiskLevel   `json:"risk_level"`
	RiskScore           float64     `json:"risk_score"` // 0-100
	PrimaryClass        string      `json:"primary_class"`
	SecondaryCandidates []Candidate `json:"secondary_candidates"`
	Recommendations     []string    `json:"recommendations"`
	NeedsReview         bool        `json:"needs_review"`
	ReviewReason        *string     `json:"review_reason,omitempty"`
}

// ExplainabilityMap карта значимости, привязанная к методу
type ExplainabilityMap struct {
	Method string
	Image  string
}

// ExplainabilityMaps возвращает присутствующие карты в фиксированном порядке.
func (r *AnalysisResult) ExplainabilityMaps() []ExplainabilityMap {
	if r == nil {
		return nil
	}
	var maps []ExplainabilityMap
	if r.ScoreCAM != nil && *r.ScoreCAM != "" {
		maps = append(maps, ExplainabilityMap{Method: MethodScoreCAM, Image: *r.ScoreCAM})
	}
	if r.LayerCAM != nil && *r.LayerCAM != "" {
		maps = append(maps, ExplainabilityMap{Method: MethodLayerCAM, Image: *r.LayerCAM})
	}
	return maps
}

// Confidence возвращает уверенность модели, если бэкенд её прислал.
func (r *AnalysisResult) Confidence() (float64, bool) {
	if r == nil || r.Uncertainty == nil {
		return 0, false
	}
	return r.Uncertainty.Confidence, true
}

// Validate проверяет ответ и возвращает предупреждения. Ответ при этом не отклоняется.
func (r *AnalysisResult) Validate() []string {
	if r == nil {
		return []string{"empty result"}
	}
	var warnings []string
	if r.PredictedClass == "" {
		warnings = append(warnings, "predicted_class is empty")
	}
	if len(r.Probabilities) == 0 {
		warnings = append(warnings, "probabilities are empty")
		return warnings
	}

	known := make(map[string]struct{}, len(KnownClasses))
	for _, c := range KnownClasses {
		known[c] = struct{}{}
	}

	sum := 0.0
	for _, p := range r.Probabilities {
		if p.Probability < 0 || p.Probability > 1 || math.IsNaN(p.Probability) {
			warnings = append(warnings, fmt.Sprintf("probability of %q is out of range: %v", p.Label, p.Probability))
		}
		if _, ok := known[p.Label]; !ok {
			warnings = append(warnings, fmt.Sprintf("unknown class label %q", p.Label))
		}
		sum += p.Probability
	}
	if math.Abs(sum-1) > probabilitySumTolerance {
		warnings = append(warnings, fmt.Sprintf("probabilities sum to %.4f", sum))
	}
	return warnings
}

// LabelProbability одна пара метка-вероятность
type LabelProbability struct {
	Label       string
	Probability float64
}

// Probabilities упорядоченное отображение метка → вероятность.
// Порядок ключей сохраняется таким, каким его прислал бэкенд.
type Probabilities []LabelProbability

// Get возвращает вероятность метки
func (p Probabilities) Get(label string) (float64, bool) {
	for _, lp := range p {
		if lp.Label == label {
			return lp.Probability, true
		}
	}
	return 0, false
}

// Max возвращает наибольшую вероятность или 0 для пустого набора.
func (p Probabilities) Max() float64 {
	top := 0.0
	for i, lp := range p {
		if i == 0 || lp.Probability > top {
			top = lp.Probability
		}
	}
	return top
}

// MarshalJSON пишет объект в исходном порядке ключей.
func (p Probabilities) MarshalJSON() ([]byte, error) {
	if p == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, lp := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(lp.Label)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(lp.Probability)
		if err != nil {
			return nil, fmt.Errorf("probabilities[%s]: %w", lp.Label, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON читает объект, запоминая порядок ключей.
func (p *Probabilities) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("probabilities: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("probabilities: expected object, got %v", tok)
	}

	out := make(Probabilities, 0)
	index := make(map[string]int)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("probabilities: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("probabilities: unexpected key %v", keyTok)
		}
		var value float64
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("probabilities[%s]: %w", key, err)
		}
		// Повторный ключ обновляет значение, но не позицию
		if i, dup := index[key]; dup {
			out[i].Probability = value
			continue
		}
		index[key] = len(out)
		out = append(out, LabelProbability{Label: key, Probability: value})
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("probabilities: %w", err)
	}

	*p = out
	return nil
}
