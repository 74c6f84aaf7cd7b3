package presenter

import (
	"fmt"
	"strings"

	"cyto-bot/internal/domain/entity"
	"cyto-bot/internal/domain/port"
	"cyto-bot/internal/domain/rules"
)

// Значки риска классификации
const (
	BadgeHighRisk = "High Risk"
	BadgeLowRisk  = "Low Risk"
)

// Classification предсказанный класс и три самых вероятных метки
func Classification(r *entity.AnalysisResult) Panel {
	const title = "Classification"
	if r == nil || r.PredictedClass == "" {
		return unavailable(title)
	}

	p := Panel{Title: title, Available: true, Badge: BadgeLowRisk}
	if rules.IsHighRiskClass(r.PredictedClass) {
		p.Badge = BadgeHighRisk
	}
	p.add("Predicted class", r.PredictedClass)
	for i, lp := range rules.Top3(r.Probabilities) {
		p.add(fmt.Sprintf("%d. %s", i+1, lp.Label), percent(lp.Probability))
	}
	if r.ModelVersion != nil && *r.ModelVersion != "" {
		p.add("Model", *r.ModelVersion)
	}
	if r.ProcessingTimeMs != nil {
		p.addf("Processing time", "%.0f ms", *r.ProcessingTimeMs)
	}
	return p
}

// methodTitle человекочитаемое имя метода объяснимости
func methodTitle(method string) string {
	switch method {
	case entity.MethodScoreCAM:
		return "Score-CAM"
	case entity.MethodLayerCAM:
		return "Layer-CAM"
	}
	return method
}

// Explainability панель карты объяснимости. Нужны оригинал и хотя бы одна карта.
func Explainability(r *entity.AnalysisResult, method string, mode port.BlendMode, opacity int) Panel {
	const title = "Explainability"
	maps := r.ExplainabilityMaps()
	if r == nil || r.OriginalImage == nil || *r.OriginalImage == "" || len(maps) == 0 {
		return unavailable(title)
	}

	names := make([]string, 0, len(maps))
	for _, m := range maps {
		names = append(names, methodTitle(m.Method))
	}
	p := Panel{Title: title, Available: true}
	p.add("Method", methodTitle(method)+" Activation Map")
	p.add("Available", strings.Join(names, ", "))
	p.add("Mode", string(mode))
	p.addf("Opacity", "%d%%", opacity)
	return p
}

// Uncertainty уверенность, энтропия и интервал неопределённости
func Uncertainty(u *entity.UncertaintyMetrics) Panel {
	const title = "Uncertainty"
	if u == nil {
		return unavailable(title)
	}

	p := Panel{Title: title, Available: true, Badge: rules.ConfidenceTier(u.Confidence)}
	p.addf("Confidence", "%.2f%% (%s)", u.Confidence, rules.ConfidenceTier(u.Confidence))
	p.addf("Entropy", "%.3f (%s)", u.Entropy, rules.EntropyTier(u.Entropy))
	p.addf("Interval", "%.2f%% – %.2f%%", u.UncertaintyLower, u.UncertaintyUpper)
	p.addf("Prediction stability", "%.2f%%", u.PredictionStability)
	p.note(rules.EntropyDescription(u.Entropy))
	return p
}

// ClinicalDecision решение бэкенда с клиентской проверкой уверенности
func ClinicalDecision(r *entity.AnalysisResult) Panel {
	const title = "Clinical Decision Support"
	if r == nil || r.ClinicalDecision == nil {
		return unavailable(title)
	}
	d := r.ClinicalDecision

	var confidence *float64
	if c, ok := r.Confidence(); ok {
		confidence = &c
	}
	review := rules.NeedsReview(d, confidence)

	p := Panel{Title: title, Available: true, Badge: strings.ToUpper(string(d.RiskLevel))}
	p.add("Risk level", string(d.RiskLevel))
	p.addf("Risk score", "%.1f/100", d.RiskScore)
	if d.PrimaryClass != "" {
		p.add("Primary class", d.PrimaryClass)
	}
	for _, c := range d.SecondaryCandidates {
		p.add("Alternative", fmt.Sprintf("%s (%s)", c.Class, percent(c.Probability)))
	}
	p.add("Needs review", yesNo(review.NeedsReview))
	if review.NeedsReview && review.Reason != "" {
		p.add("Review reason", review.Reason)
	}
	for _, rec := range d.Recommendations {
		p.note(rec)
	}
	p.note(rules.ConfidenceStatement(confidence))
	return p
}

// SegmentationMetrics справочные метрики сегментации
func SegmentationMetrics(m *entity.SegmentationMetrics) Panel {
	const title = "Segmentation Metrics"
	if m == nil {
		return unavailable(title)
	}

	p := Panel{Title: title, Available: true}
	p.add("Coverage", percent(m.CoverageRatio))
	p.addf("Cells", "%d", int(m.NumCells))
	p.addf("Average cell size", "%d px", int(m.AvgCellSize))
	p.add("Edge density", percent(m.EdgeDensity))
	p.add("Solidity", percent(m.AvgSolidity))
	p.add("Accuracy", percent(m.Accuracy))
	if m.NucleusRatio != nil && m.CytoplasmRatio != nil {
		p.addf("N/C ratio", "%.2f", rules.NucleusCytoplasmRatio(*m.NucleusRatio, *m.CytoplasmRatio))
	}
	p.note(rules.CoverageInterpretation(m.CoverageRatio))
	return p
}

// ResultPanels все панели результата в порядке показа
func ResultPanels(r *entity.AnalysisResult, method string, mode port.BlendMode, opacity int) []Panel {
	var u *entity.UncertaintyMetrics
	var m *entity.SegmentationMetrics
	var q *entity.QualityAssessment
	var cells *entity.MultiCellDetectionResult
	if r != nil {
		u, m, q, cells = r.Uncertainty, r.Metrics, r.Quality, r.MultiCell
	}
	return []Panel{
		Classification(r),
		Uncertainty(u),
		ClinicalDecision(r),
		SegmentationMetrics(m),
		Explainability(r, method, mode, opacity),
		Quality(q),
		MultiCell(cells),
	}
}
