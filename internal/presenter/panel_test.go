package presenter

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"cyto-bot/internal/domain/entity"
	"cyto-bot/internal/domain/port"
	"cyto-bot/internal/domain/rules"
)

func ptr[T any](v T) *T { return &v }

func value(t *testing.T, p Panel, label string) string {
	t.Helper()
	for _, l := range p.Lines {
		if l.Label == label {
			return l.Value
		}
	}
	t.Fatalf("panel %q has no line %q", p.Title, label)
	return ""
}

func TestResultPanels_MinimalResult(t *testing.T) {
	var r entity.AnalysisResult
	require.NoError(t, json.Unmarshal([]byte(`{"predicted_class": "Parabasal", "probabilities": {"Parabasal": 1.0}}`), &r))

	panels := ResultPanels(&r, entity.MethodScoreCAM, port.BlendOverlay, 70)
	require.Len(t, panels, 7)
	require.True(t, panels[0].Available)
	for _, p := range panels[1:] {
		require.False(t, p.Available, p.Title)
		require.Contains(t, RenderText(p), NotAvailable)
	}
}

func TestResultPanels_NilResult(t *testing.T) {
	for _, p := range ResultPanels(nil, "", port.BlendOverlay, 0) {
		require.False(t, p.Available, p.Title)
	}
}

func TestClassification_TopThreeAndBadge(t *testing.T) {
	r := &entity.AnalysisResult{
		PredictedClass: entity.ClassKoilocytotic,
		Probabilities: entity.Probabilities{
			{Label: "Dyskeratotic", Probability: 0.1},
			{Label: "Koilocytotic", Probability: 0.6},
			{Label: "Metaplastic", Probability: 0.1},
			{Label: "Parabasal", Probability: 0.15},
			{Label: "Superficial-Intermediate", Probability: 0.05},
		},
		ProcessingTimeMs: ptr(123.4),
	}

	p := Classification(r)
	require.Equal(t, BadgeHighRisk, p.Badge)
	require.Equal(t, "60.00%", value(t, p, "1. Koilocytotic"))
	require.Equal(t, "15.00%", value(t, p, "2. Parabasal"))
	// При равенстве выигрывает более ранняя метка
	require.Equal(t, "10.00%", value(t, p, "3. Dyskeratotic"))
	require.Equal(t, "123 ms", value(t, p, "Processing time"))

	r.PredictedClass = entity.ClassParabasal
	require.Equal(t, BadgeLowRisk, Classification(r).Badge)
}

func TestExplainability(t *testing.T) {
	r := &entity.AnalysisResult{PredictedClass: "Parabasal", ScoreCAM: ptr("c2M=")}
	require.False(t, Explainability(r, entity.MethodScoreCAM, port.BlendOverlay, 70).Available)

	r.OriginalImage = ptr("b3Jp")
	p := Explainability(r, entity.MethodScoreCAM, port.BlendHeatmapOnly, 40)
	require.True(t, p.Available)
	require.Equal(t, "Score-CAM Activation Map", value(t, p, "Method"))
	require.Equal(t, "Score-CAM", value(t, p, "Available"))
	require.Equal(t, "heatmap_only", value(t, p, "Mode"))
	require.Equal(t, "40%", value(t, p, "Opacity"))

	r.ScoreCAM = nil
	require.False(t, Explainability(r, entity.MethodScoreCAM, port.BlendOverlay, 70).Available)
}

func TestUncertainty(t *testing.T) {
	p := Uncertainty(&entity.UncertaintyMetrics{Confidence: 90, Entropy: 0.5, UncertaintyLower: 85, UncertaintyUpper: 95, PredictionStability: 97})
	require.Equal(t, rules.ConfidenceVeryHigh, p.Badge)
	require.Equal(t, "90.00% (Very High)", value(t, p, "Confidence"))
	require.Equal(t, "0.500 (Moderate)", value(t, p, "Entropy"))
	require.Contains(t, RenderText(p), "Moderate entropy")
}

func TestClinicalDecision_LowConfidenceOverride(t *testing.T) {
	r := &entity.AnalysisResult{
		PredictedClass: "Metaplastic",
		Uncertainty:    &entity.UncertaintyMetrics{Confidence: 65},
		ClinicalDecision: &entity.ClinicalDecision{
			RiskLevel:       entity.RiskModerate,
			RiskScore:       42,
			Recommendations: []string{"Repeat cytology in 6 months"},
		},
	}

	p := ClinicalDecision(r)
	require.True(t, p.Available)
	require.Equal(t, "MODERATE", p.Badge)
	require.Equal(t, "Yes", value(t, p, "Needs review"))
	require.Equal(t, rules.DefaultReviewReason, value(t, p, "Review reason"))
	text := RenderText(p)
	require.Contains(t, text, "Repeat cytology in 6 months")
	require.Contains(t, text, "Low confidence")

	r.Uncertainty = nil
	p = ClinicalDecision(r)
	require.Equal(t, "No", value(t, p, "Needs review"))
	require.Contains(t, RenderText(p), "Confidence unavailable")
}

func TestSegmentationMetrics(t *testing.T) {
	m := &entity.SegmentationMetrics{
		CoverageRatio: 0.65, NumCells: 12.7, AvgCellSize: 340.9, EdgeDensity: 0.123,
		AvgSolidity: 0.9, Accuracy: 0.95,
	}
	p := SegmentationMetrics(m)
	require.Equal(t, "65.00%", value(t, p, "Coverage"))
	require.Equal(t, "12", value(t, p, "Cells"))
	require.Equal(t, "340 px", value(t, p, "Average cell size"))
	require.Contains(t, RenderText(p), "Good segmentation coverage")
	require.NotContains(t, RenderText(p), "N/C ratio")

	m.NucleusRatio, m.CytoplasmRatio = ptr(0.3), ptr(0.6)
	require.Equal(t, "0.50", value(t, SegmentationMetrics(m), "N/C ratio"))
}

func TestBatchPanel(t *testing.T) {
	j := &entity.BatchJob{
		JobID: "job-1", Status: entity.BatchProcessing, TotalFiles: 5, ProcessedFiles: 2,
		Results: []entity.AnalysisResult{{PredictedClass: "Parabasal"}, {PredictedClass: "Parabasal"}},
	}
	p := Batch(j)
	require.Equal(t, "40.0%", value(t, p, "Progress"))
	require.Equal(t, "2 / 5", value(t, p, "Files"))
	require.Equal(t, "2", value(t, p, "Parabasal"))
	require.False(t, Batch(nil).Available)
}

func TestToolPanels(t *testing.T) {
	q := Quality(&entity.QualityAssessment{QualityScore: 55, QualityLevel: entity.QualityFair, Issues: []string{"blur"}})
	require.Equal(t, "fair", q.Badge)
	require.Equal(t, "blur", value(t, q, "Issue"))

	cells := MultiCell(&entity.MultiCellDetectionResult{TotalCells: 1, Cells: []entity.DetectedCell{
		{CellID: "c1", Confidence: 0.9, BoundingBox: entity.BoundingBox{X: 1, Y: 2, Width: 30, Height: 40}},
	}})
	require.Equal(t, "90.00% at (1, 2) 30×40", value(t, cells, "c1"))

	require.False(t, Stain(&entity.StainNormalization{}).Available)
	s := Stain(&entity.StainNormalization{NormalizedImage: "eA==", Method: ptr("macenko")})
	require.Equal(t, "macenko", value(t, s, "Method"))
}

func TestHistoryRecord(t *testing.T) {
	var r entity.HistoricalPrediction
	require.NoError(t, json.Unmarshal([]byte(`{
		"id": "r1",
		"classification": "Koilocytotic",
		"uncertainty_metrics": {"confidence": 0.82, "entropy": 0.9, "entropy_normalized": 0.3},
		"magnification": 40
	}`), &r))

	p := HistoryRecord(&r)
	require.Equal(t, rules.StatusAbnormal, p.Badge)
	require.Equal(t, "Unknown Patient", value(t, p, "Patient"))
	require.Equal(t, "r1", value(t, p, "Patient ID"))
	require.Equal(t, "82.0% (High)", value(t, p, "Confidence"))
	require.Equal(t, "0.300 (Low)", value(t, p, "Entropy"))
	require.Equal(t, NotAvailable, value(t, p, "Needs review"))
	require.Equal(t, "40", value(t, p, "Magnification"))

	empty := HistoryRecord(&entity.HistoricalPrediction{ID: "r2"})
	require.Equal(t, "Unclassified", value(t, empty, "Classification"))
	require.Equal(t, rules.StatusUnknown, empty.Badge)
	require.Equal(t, NotAvailable, value(t, empty, "Confidence"))
}

func TestHistoryList(t *testing.T) {
	require.False(t, HistoryList(nil).Available)
	p := HistoryList([]entity.HistoricalPrediction{{ID: "r1", PatientID: ptr("P-9"), Classification: ptr("Metaplastic")}})
	require.Equal(t, "P-9, Metaplastic (Benign)", value(t, p, "r1"))
}

func TestRenderText(t *testing.T) {
	p := Panel{Title: "T", Available: true, Badge: "B"}
	p.add("a", "1")
	p.note("free text")
	require.Equal(t, "T [B]\na: 1\n• free text", RenderText(p))
	require.True(t, strings.HasSuffix(RenderText(unavailable("X")), NotAvailable))
}

func TestReport(t *testing.T) {
	require.False(t, Report(nil).Available)

	p := Report(&entity.AnalysisReport{
		PatientID:        ptr("P-7"),
		AnalysisDate:     "2026-10-14",
		ImageFilename:    "cell.png",
		PrimaryDiagnosis: "Koilocytotic",
		Confidence:       91.34,
		RiskAssessment:   &entity.ClinicalDecision{RiskLevel: entity.RiskHigh, RiskScore: 82},
		Recommendations:  []string{"Colposcopy referral"},
		AnalystNotes:     ptr("repeat in 6 months"),
	})
	require.True(t, p.Available)
	require.Equal(t, "HIGH", p.Badge)
	require.Equal(t, "P-7", value(t, p, "Patient ID"))
	require.Equal(t, "91.3%", value(t, p, "Confidence"))
	require.Equal(t, "82.0", value(t, p, "Risk score"))
	require.Equal(t, "repeat in 6 months", value(t, p, "Notes"))
	require.Contains(t, RenderText(p), "• Colposcopy referral")
}
