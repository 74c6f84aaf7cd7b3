package app

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"cyto-bot/internal/domain/entity"
	"cyto-bot/internal/domain/port"
)

func fixedNow() time.Time {
	return time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)
}

// withResult создаёт рабочее пространство с готовым результатом анализа
func withResult(t *testing.T, g *fakeGateway, store *WorkspaceStore) {
	t.Helper()
	prev := g.analyze
	g.analyze = func(context.Context, entity.ImageFile, port.Patient) (*entity.AnalysisResult, error) {
		return sampleResult(entity.ClassKoilocytotic), nil
	}
	svc := NewAnalysisService(g, store, nil, AnalysisOptions{})
	_, err := svc.Submit(context.Background(), 1, 10, SubmitRequest{File: sampleImage("cell.png")})
	require.NoError(t, err)
	g.analyze = prev
	g.calls.Store(0)
}

func newReportService(g *fakeGateway, store *WorkspaceStore, n *fakeNotifier) *ReportService {
	svc := NewReportService(g, store, n, nil)
	svc.now = fixedNow
	return svc
}

func TestReportService_ValidationBlocksRequest(t *testing.T) {
	g := &fakeGateway{}
	store := NewWorkspaceStore()
	svc := newReportService(g, store, &fakeNotifier{})
	ctx := context.Background()

	_, err := svc.Generate(ctx, 1, 10, entity.ReportMetadata{PatientID: "P-1"})
	require.EqualError(t, err, MessageReportNeedsImage)

	withResult(t, g, store)
	_, err = svc.Generate(ctx, 1, 10, entity.ReportMetadata{PatientID: "   "})
	require.EqualError(t, err, MessageReportNeedsPatient)
	require.True(t, entity.IsValidation(err))
	require.Equal(t, int32(0), g.calls.Load())
}

func TestReportService_GenerateMergesMetadata(t *testing.T) {
	var analysis map[string]any
	var file string
	g := &fakeGateway{report: func(_ context.Context, f entity.ImageFile, body []byte) (*entity.ReportOutcome, error) {
		file = f.Name
		require.NoError(t, json.Unmarshal(body, &analysis))
		return &entity.ReportOutcome{Report: &entity.AnalysisReport{PrimaryDiagnosis: entity.ClassKoilocytotic}}, nil
	}}
	store := NewWorkspaceStore()
	withResult(t, g, store)
	n := &fakeNotifier{}
	svc := newReportService(g, store, n)

	out, err := svc.Generate(context.Background(), 1, 10, entity.ReportMetadata{PatientID: " P-7 ", Clinician: "Dr. Who"})
	require.NoError(t, err)
	require.False(t, out.IsPDF())
	require.Equal(t, "cell.png", file)

	require.Equal(t, "P-7", analysis["patient_id"])
	require.Equal(t, "2026-10-14", analysis["analysis_date"])
	require.Equal(t, "Dr. Who", analysis["clinician"])
	require.Equal(t, entity.ClassKoilocytotic, analysis["predicted_class"])
	require.NotContains(t, analysis, "sample_id")
	require.NotContains(t, analysis, "notes")
	require.Equal(t, []string{"Report generated"}, n.ofKind(port.NotifySuccess))
}

func TestReportService_PDFFromJSONReport(t *testing.T) {
	g := &fakeGateway{
		report: func(context.Context, entity.ImageFile, []byte) (*entity.ReportOutcome, error) {
			return &entity.ReportOutcome{Report: &entity.AnalysisReport{PrimaryDiagnosis: "Parabasal"}}, nil
		},
		export: func(_ context.Context, r *entity.AnalysisReport) ([]byte, error) {
			require.Equal(t, "Parabasal", r.PrimaryDiagnosis)
			return []byte("%PDF-export"), nil
		},
	}
	store := NewWorkspaceStore()
	svc := newReportService(g, store, &fakeNotifier{})
	ctx := context.Background()

	_, err := svc.ReportPDF(ctx, 1, 10)
	require.ErrorIs(t, err, entity.ErrNoReport)

	withResult(t, g, store)
	_, err = svc.Generate(ctx, 1, 10, entity.ReportMetadata{PatientID: "P-1"})
	require.NoError(t, err)

	file, err := svc.ReportPDF(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, "cervical_analysis_2026-10-14.pdf", file.Name)
	require.Equal(t, []byte("%PDF-export"), file.Data)
}

func TestReportService_PDFReturnedDirectly(t *testing.T) {
	g := &fakeGateway{report: func(context.Context, entity.ImageFile, []byte) (*entity.ReportOutcome, error) {
		return &entity.ReportOutcome{PDF: []byte("%PDF-direct")}, nil
	}}
	store := NewWorkspaceStore()
	withResult(t, g, store)
	svc := newReportService(g, store, &fakeNotifier{})
	ctx := context.Background()

	_, err := svc.Generate(ctx, 1, 10, entity.ReportMetadata{PatientID: "P-1"})
	require.NoError(t, err)

	file, err := svc.ReportPDF(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, []byte("%PDF-direct"), file.Data)

	// Для готового PDF выгружать нечего
	_, err = svc.ExportPDF(ctx, 1, 10)
	require.ErrorIs(t, err, entity.ErrNoReport)
	require.Equal(t, int32(1), g.calls.Load())
}

func TestReportService_ExportJSON(t *testing.T) {
	g := &fakeGateway{}
	store := NewWorkspaceStore()
	svc := newReportService(g, store, nil)

	_, err := svc.ExportJSON(1)
	require.ErrorIs(t, err, entity.ErrNoResult)

	withResult(t, g, store)
	file, err := svc.ExportJSON(1)
	require.NoError(t, err)
	require.Equal(t, "analysis_2026-10-14.json", file.Name)

	var decoded entity.AnalysisResult
	require.NoError(t, json.Unmarshal(file.Data, &decoded))
	require.Equal(t, entity.ClassKoilocytotic, decoded.PredictedClass)
	require.Equal(t, "Koilocytotic", decoded.Probabilities[0].Label)
}
