// Package rules содержит клиентские бизнес-правила интерпретации результатов.
// Пороговые значения фиксированы и не вычисляются.
package rules

import (
	"math"
	"slices"
	"strings"

	"cyto-bot/internal/domain/entity"
)

// Уровни уверенности модели
const (
	ConfidenceVeryHigh = "Very High"
	ConfidenceHigh     = "High"
	ConfidenceModerate = "Moderate"
	ConfidenceLow      = "Low"
)

// Уровни энтропии предсказания
const (
	EntropyLow      = "Low"
	EntropyModerate = "Moderate"
	EntropyHigh     = "High"
)

// Классификация риска записи по имени класса
const (
	StatusAbnormal = "Abnormal"
	StatusNormal   = "Normal"
	StatusBenign   = "Benign"
	StatusUnknown  = "Unknown"
)

// ReviewThreshold уверенность ниже этого значения требует ручного пересмотра
const ReviewThreshold = 70.0

// DefaultReviewReason причина пересмотра, когда сервер её не указал
const DefaultReviewReason = "Low model confidence"

// ratioEpsilon защита от деления на ноль при расчёте ядерно-цитоплазматического отношения
const ratioEpsilon = 0.001

// HighRiskClasses классы, которые помечаются как высокий риск
var HighRiskClasses = []string{entity.ClassDyskeratotic, entity.ClassKoilocytotic}

// ConfidenceTier: нижняя граница каждого уровня включается в уровень.
func ConfidenceTier(confidence float64) string {
	switch {
	case confidence >= 90:
		return ConfidenceVeryHigh
	case confidence >= 70:
		return ConfidenceHigh
	case confidence >= 50:
		return ConfidenceModerate
	default:
		return ConfidenceLow
	}
}

// EntropyTier уровень энтропии: < 0.5 низкий, < 1.0 умеренный, иначе высокий.
func EntropyTier(entropy float64) string {
	switch {
	case entropy < 0.5:
		return EntropyLow
	case entropy < 1.0:
		return EntropyModerate
	default:
		return EntropyHigh
	}
}

// EntropyDescription текстовая расшифровка уровня энтропии
func EntropyDescription(entropy float64) string {
	switch EntropyTier(entropy) {
	case EntropyLow:
		return "Low entropy - Confident, focused prediction"
	case EntropyModerate:
		return "Moderate entropy - Moderate uncertainty"
	default:
		return "High entropy - Uncertain, diffuse prediction"
	}
}

// ReviewDecision итог клиентской проверки необходимости пересмотра
type ReviewDecision struct {
	NeedsReview bool
	Reason      string // пусто, если причины нет
}

// NeedsReview дополняет решение сервера: пересмотр нужен, если его запросил сервер
// или уверенность ниже порога. Без уверенности учитывается только флаг сервера.
func NeedsReview(decision *entity.ClinicalDecision, confidence *float64) ReviewDecision {
	serverFlag := decision != nil && decision.NeedsReview

	lowConfidence := false
	if confidence != nil {
		lowConfidence = ClampPercent(*confidence) < ReviewThreshold
	}

	out := ReviewDecision{NeedsReview: serverFlag || lowConfidence}
	switch {
	case decision != nil && decision.ReviewReason != nil && *decision.ReviewReason != "":
		out.Reason = *decision.ReviewReason
	case lowConfidence:
		out.Reason = DefaultReviewReason
	}
	return out
}

// ConfidenceStatement дополнительная формулировка для панели клинического решения.
func ConfidenceStatement(confidence *float64) string {
	if confidence == nil {
		return "Confidence unavailable. Interpret results with caution."
	}
	c := ClampPercent(*confidence)
	switch {
	case c >= 85:
		return "High confidence: model predictions are consistent. Proceed with routine clinical validation."
	case c >= 70:
		return "Moderate confidence: consider correlating with cytology and patient history."
	default:
		return "Low confidence: recommend manual review or repeat sampling."
	}
}

// ClassifyRisk сопоставляет имя класса со статусом по подстроке без учёта регистра.
// Порядок проверки: Abnormal, Normal, Benign, иначе Unknown.
func ClassifyRisk(className string) string {
	value := strings.ToLower(className)
	switch {
	case value == "":
		return StatusUnknown
	case strings.Contains(value, "koilocytotic") || strings.Contains(value, "dyskeratotic"):
		return StatusAbnormal
	case strings.Contains(value, "parabasal") || strings.Contains(value, "superficial") || strings.Contains(value, "intermediate"):
		return StatusNormal
	case strings.Contains(value, "metaplastic"):
		return StatusBenign
	default:
		return StatusUnknown
	}
}

// IsHighRiskClass проверяет класс по списку высокого риска (точное совпадение).
func IsHighRiskClass(className string) bool {
	return slices.Contains(HighRiskClasses, className)
}

// TopN возвращает n самых вероятных меток по убыванию.
// Сортировка стабильная: при равенстве сохраняется исходный порядок.
func TopN(p entity.Probabilities, n int) entity.Probabilities {
	sorted := slices.Clone(p)
	slices.SortStableFunc(sorted, func(a, b entity.LabelProbability) int {
		switch {
		case a.Probability > b.Probability:
			return -1
		case a.Probability < b.Probability:
			return 1
		default:
			return 0
		}
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// Top3 три самых вероятных метки
func Top3(p entity.Probabilities) entity.Probabilities {
	return TopN(p, 3)
}

// NucleusCytoplasmRatio ядерно-цитоплазматическое отношение с защитой от нуля.
func NucleusCytoplasmRatio(nucleus, cytoplasm float64) float64 {
	return nucleus / (cytoplasm + ratioEpsilon)
}

// CoverageInterpretation словесная оценка покрытия сегментации.
func CoverageInterpretation(coverage float64) string {
	switch {
	case coverage > 0.6:
		return "Good segmentation coverage with compact regions."
	case coverage > 0.3:
		return "Fair coverage. Boundaries may be diffuse."
	default:
		return "Low coverage. Consider re-scan or expert review."
	}
}

// ClampPercent ограничивает значение диапазоном 0..100
func ClampPercent(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
