package entity

import (
	"strings"
	"time"
)

// DateLayout формат даты анализа в отчёте
const DateLayout = "2006-01-02"

// AnalysisReport структурированный отчёт, который формирует бэкенд.
type AnalysisReport struct {
	PatientID           *string              `json:"patient_id,omitempty"`
	AnalysisDate        string               `json:"analysis_date"`
	ImageFilename       string               `json:"image_filename"`
	PrimaryDiagnosis    string               `json:"primary_diagnosis"`
	Confidence          float64              `json:"confidence"`
	RiskAssessment      *ClinicalDecision    `json:"risk_assessment,omitempty"`
	SegmentationQuality *SegmentationMetrics `json:"segmentation_quality,omitempty"`
	QualityAssessment   *QualityAssessment   `json:"quality_assessment,omitempty"`
	XAIInsights         []string             `json:"xai_insights"`
	Recommendations     []string             `json:"recommendations"`
	AnalystNotes        *string              `json:"analyst_notes,omitempty"`
}

// ReportMetadata данные пациента, которые пользователь вводит перед генерацией отчёта.
type ReportMetadata struct {
	PatientID    string
	AnalysisDate string
	SampleID     string
	Clinician    string
	Notes        string
}

// Normalize обрезает пробелы и подставляет сегодняшнюю дату.
func (m ReportMetadata) Normalize(now time.Time) ReportMetadata {
	out := ReportMetadata{
		PatientID:    strings.TrimSpace(m.PatientID),
		AnalysisDate: strings.TrimSpace(m.AnalysisDate),
		SampleID:     strings.TrimSpace(m.SampleID),
		Clinician:    strings.TrimSpace(m.Clinician),
		Notes:        strings.TrimSpace(m.Notes),
	}
	if out.AnalysisDate == "" {
		out.AnalysisDate = now.Format(DateLayout)
	}
	return out
}

// Fields возвращает непустые поля в виде, в котором их ждёт бэкенд.
func (m ReportMetadata) Fields() map[string]string {
	fields := map[string]string{
		"patient_id":    m.PatientID,
		"analysis_date": m.AnalysisDate,
		"sample_id":     m.SampleID,
		"clinician":     m.Clinician,
		"notes":         m.Notes,
	}
	for k, v := range fields {
		if v == "" {
			delete(fields, k)
		}
	}
	return fields
}

// ReportOutcome ответ генерации отчёта: либо готовый PDF, либо JSON-отчёт.
type ReportOutcome struct {
	PDF    []byte
	Report *AnalysisReport
}

// IsPDF сообщает, что бэкенд сразу вернул PDF
func (o *ReportOutcome) IsPDF() bool {
	return o != nil && len(o.PDF) > 0
}

// ReportFileName имя PDF-файла отчёта за дату
func ReportFileName(now time.Time) string {
	return "cervical_analysis_" + now.Format(DateLayout) + ".pdf"
}

// ResultFileName имя JSON-файла с результатом анализа
func ResultFileName(now time.Time) string {
	return "analysis_" + now.Format(DateLayout) + ".json"
}

// HistoryPDFFileName имя PDF исторической записи
func HistoryPDFFileName(id string) string {
	return "herhealth_analysis_" + id + ".pdf"
}
