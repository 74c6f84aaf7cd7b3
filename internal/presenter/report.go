package presenter

import (
	"fmt"
	"strings"

	"cyto-bot/internal/domain/entity"
)

// Report панель сформированного JSON-отчёта
func Report(r *entity.AnalysisReport) Panel {
	const title = "Analysis Report"
	if r == nil {
		return unavailable(title)
	}

	p := Panel{Title: title, Available: true}
	if r.PatientID != nil && *r.PatientID != "" {
		p.add("Patient ID", *r.PatientID)
	}
	p.add("Date", r.AnalysisDate)
	p.add("Image", r.ImageFilename)
	p.add("Primary diagnosis", r.PrimaryDiagnosis)
	p.add("Confidence", fmt.Sprintf("%.1f%%", r.Confidence))
	if r.RiskAssessment != nil {
		p.Badge = strings.ToUpper(string(r.RiskAssessment.RiskLevel))
		p.addf("Risk score", "%.1f", r.RiskAssessment.RiskScore)
	}
	if r.SegmentationQuality != nil {
		p.add("Coverage", percent(r.SegmentationQuality.CoverageRatio))
	}
	if r.QualityAssessment != nil {
		p.add("Image quality", string(r.QualityAssessment.QualityLevel))
	}
	for _, insight := range r.XAIInsights {
		p.note(insight)
	}
	for _, rec := range r.Recommendations {
		p.note(rec)
	}
	if r.AnalystNotes != nil && *r.AnalystNotes != "" {
		p.add("Notes", *r.AnalystNotes)
	}
	return p
}
