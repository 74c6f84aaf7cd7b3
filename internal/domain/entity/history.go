package entity

import (
	"encoding/json"
	"strconv"
	"strings"
)

// HistoricalPrediction сохранённая бэкендом запись прошлого анализа.
// Формат записей менялся, поэтому часть полей читается без строгой схемы.
type HistoricalPrediction struct {
	ID                 string               `json:"id"`
	PatientID          *string              `json:"patient_id,omitempty"`
	PatientName        *string              `json:"patient_name,omitempty"`
	Kind               *string              `json:"kind,omitempty"`
	Model              *string              `json:"model,omitempty"`
	XAIMethod          *string              `json:"xaiMethod,omitempty"`
	Magnification      json.RawMessage      `json:"magnification,omitempty"`
	Classification     *string              `json:"classification,omitempty"`
	Probabilities      Probabilities        `json:"probabilities,omitempty"`
	Quality            json.RawMessage      `json:"quality,omitempty"`
	Uncertainty        json.RawMessage      `json:"uncertainty,omitempty"`
	UncertaintyMetrics json.RawMessage      `json:"uncertainty_metrics,omitempty"`
	ClinicalDecision   *ClinicalDecision    `json:"clinical_decision,omitempty"`
	Metrics            *SegmentationMetrics `json:"metrics,omitempty"`
	Images             map[string]any       `json:"images,omitempty"`
	Timestamp          *string              `json:"timestamp,omitempty"`
}

// MagnificationText возвращает увеличение строкой: бэкенд присылает и строку, и число.
func (p *HistoricalPrediction) MagnificationText() (string, bool) {
	raw := strings.TrimSpace(string(p.Magnification))
	if raw == "" || raw == "null" {
		return "", false
	}
	var s string
	if err := json.Unmarshal(p.Magnification, &s); err == nil {
		return s, s != ""
	}
	var n float64
	if err := json.Unmarshal(p.Magnification, &n); err == nil {
		return strconv.FormatFloat(n, 'f', -1, 64), true
	}
	return "", false
}

// uncertaintyFields поля неопределённости, которые встречались в разных версиях записей
type uncertaintyFields struct {
	Confidence         *float64 `json:"confidence"`
	Entropy            *float64 `json:"entropy"`
	EntropyNormalized  *float64 `json:"entropy_normalized"`
	OverallUncertainty *float64 `json:"overall_uncertainty"`
}

func (p *HistoricalPrediction) uncertainty() (uncertaintyFields, bool) {
	var u uncertaintyFields
	for _, raw := range []json.RawMessage{p.Uncertainty, p.UncertaintyMetrics} {
		trimmed := strings.TrimSpace(string(raw))
		if trimmed == "" || trimmed == "null" {
			continue
		}
		if err := json.Unmarshal(raw, &u); err == nil {
			return u, true
		}
	}
	return u, false
}

// ConfidencePercent возвращает уверенность в процентах.
// Доля (≤ 1) переводится в проценты, значение больше 1 считается процентами.
func (p *HistoricalPrediction) ConfidencePercent() (float64, bool) {
	u, ok := p.uncertainty()
	if !ok || u.Confidence == nil {
		return 0, false
	}
	c := *u.Confidence
	if c > 1 {
		return c, true
	}
	return c * 100, true
}

// Entropy возвращает нормализованную энтропию, если она есть, иначе обычную.
func (p *HistoricalPrediction) Entropy() (float64, bool) {
	u, ok := p.uncertainty()
	if !ok {
		return 0, false
	}
	if u.EntropyNormalized != nil {
		return *u.EntropyNormalized, true
	}
	if u.Entropy != nil {
		return *u.Entropy, true
	}
	return 0, false
}

// OverallUncertainty общая неопределённость записи
func (p *HistoricalPrediction) OverallUncertainty() (float64, bool) {
	u, ok := p.uncertainty()
	if !ok || u.OverallUncertainty == nil {
		return 0, false
	}
	return *u.OverallUncertainty, true
}

// RiskScore балл риска из клинического решения
func (p *HistoricalPrediction) RiskScore() (float64, bool) {
	if p.ClinicalDecision == nil {
		return 0, false
	}
	return p.ClinicalDecision.RiskScore, true
}

// DisplayPatientID возвращает ID пациента или ID записи
func (p *HistoricalPrediction) DisplayPatientID() string {
	if p.PatientID != nil && *p.PatientID != "" {
		return *p.PatientID
	}
	return p.ID
}

// HasQuality сообщает, что в записи сохранена оценка качества
func (p *HistoricalPrediction) HasQuality() bool {
	trimmed := strings.TrimSpace(string(p.Quality))
	return trimmed != "" && trimmed != "null"
}
