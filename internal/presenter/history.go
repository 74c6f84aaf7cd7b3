package presenter

import (
	"fmt"

	"cyto-bot/internal/domain/entity"
	"cyto-bot/internal/domain/rules"
)

// HistoryRecord панель одной записи истории
func HistoryRecord(r *entity.HistoricalPrediction) Panel {
	const title = "Analysis Record"
	if r == nil {
		return unavailable(title)
	}

	name := "Unknown Patient"
	if r.PatientName != nil && *r.PatientName != "" {
		name = *r.PatientName
	}
	classification := "Unclassified"
	if r.Classification != nil && *r.Classification != "" {
		classification = *r.Classification
	}
	status := rules.ClassifyRisk(classification)

	p := Panel{Title: title, Available: true, Badge: status}
	p.add("Patient", name)
	p.add("Patient ID", r.DisplayPatientID())
	if r.Timestamp != nil && *r.Timestamp != "" {
		p.add("Timestamp", *r.Timestamp)
	}
	p.add("Classification", classification)
	p.add("Risk", status)

	if c, ok := r.ConfidencePercent(); ok {
		p.addf("Confidence", "%.1f%% (%s)", c, rules.ConfidenceTier(c))
	} else {
		p.add("Confidence", NotAvailable)
	}
	if e, ok := r.Entropy(); ok {
		p.addf("Entropy", "%.3f (%s)", e, rules.EntropyTier(e))
	}
	if u, ok := r.OverallUncertainty(); ok {
		p.addf("Overall uncertainty", "%.3f", u)
	}

	if r.ClinicalDecision != nil {
		p.add("Needs review", yesNo(r.ClinicalDecision.NeedsReview))
	} else {
		p.add("Needs review", NotAvailable)
	}
	if score, ok := r.RiskScore(); ok {
		p.addf("Risk score", "%.1f", score)
	}

	if r.Model != nil && *r.Model != "" {
		p.add("Model", *r.Model)
	}
	if r.XAIMethod != nil && *r.XAIMethod != "" {
		p.add("XAI method", *r.XAIMethod)
	}
	if mag, ok := r.MagnificationText(); ok {
		p.add("Magnification", mag)
	}
	if r.HasQuality() {
		p.add("Quality", "recorded")
	}
	return p
}

// HistoryList краткий список записей
func HistoryList(records []entity.HistoricalPrediction) Panel {
	const title = "Analysis History"
	if len(records) == 0 {
		return unavailable(title)
	}

	p := Panel{Title: title, Available: true, Badge: fmt.Sprintf("%d", len(records))}
	for i := range records {
		r := &records[i]
		classification := "Unclassified"
		if r.Classification != nil && *r.Classification != "" {
			classification = *r.Classification
		}
		p.add(r.ID, fmt.Sprintf("%s, %s (%s)", r.DisplayPatientID(), classification, rules.ClassifyRisk(classification)))
	}
	return p
}
