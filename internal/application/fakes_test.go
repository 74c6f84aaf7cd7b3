package app

import (
	"context"
	"encoding/base64"
	"errors"
	"sync"
	"sync/atomic"

	"cyto-bot/internal/domain/entity"
	"cyto-bot/internal/domain/port"
)

var errBackend = errors.New("Segmentation failed: 500")

// fakeGateway бэкенд с настраиваемыми ответами и счётчиком запросов
type fakeGateway struct {
	calls atomic.Int32

	analyze  func(ctx context.Context, file entity.ImageFile, patient port.Patient) (*entity.AnalysisResult, error)
	classify func(ctx context.Context, file entity.ImageFile) (*entity.AnalysisResult, error)
	quality  func(ctx context.Context, file entity.ImageFile) (*entity.QualityAssessment, error)
	stain    func(ctx context.Context, file, target entity.ImageFile) (*entity.StainNormalization, error)
	cells    func(ctx context.Context, file entity.ImageFile) (*entity.MultiCellDetectionResult, error)
	batch    func(ctx context.Context, files []entity.ImageFile) (*entity.BatchJob, error)
	status   func(ctx context.Context, jobID string) (*entity.BatchJob, error)
	report   func(ctx context.Context, file entity.ImageFile, analysis []byte) (*entity.ReportOutcome, error)
	export   func(ctx context.Context, report *entity.AnalysisReport) ([]byte, error)
}

func (g *fakeGateway) Analyze(ctx context.Context, file entity.ImageFile, patient port.Patient) (*entity.AnalysisResult, error) {
	g.calls.Add(1)
	return g.analyze(ctx, file, patient)
}

func (g *fakeGateway) Classify(ctx context.Context, file entity.ImageFile) (*entity.AnalysisResult, error) {
	g.calls.Add(1)
	return g.classify(ctx, file)
}

func (g *fakeGateway) AssessQuality(ctx context.Context, file entity.ImageFile) (*entity.QualityAssessment, error) {
	g.calls.Add(1)
	return g.quality(ctx, file)
}

func (g *fakeGateway) NormalizeStain(ctx context.Context, file, target entity.ImageFile) (*entity.StainNormalization, error) {
	g.calls.Add(1)
	return g.stain(ctx, file, target)
}

func (g *fakeGateway) DetectCells(ctx context.Context, file entity.ImageFile) (*entity.MultiCellDetectionResult, error) {
	g.calls.Add(1)
	return g.cells(ctx, file)
}

func (g *fakeGateway) SubmitBatch(ctx context.Context, files []entity.ImageFile) (*entity.BatchJob, error) {
	g.calls.Add(1)
	return g.batch(ctx, files)
}

func (g *fakeGateway) BatchStatus(ctx context.Context, jobID string) (*entity.BatchJob, error) {
	g.calls.Add(1)
	return g.status(ctx, jobID)
}

func (g *fakeGateway) GenerateReport(ctx context.Context, file entity.ImageFile, analysis []byte) (*entity.ReportOutcome, error) {
	g.calls.Add(1)
	return g.report(ctx, file, analysis)
}

func (g *fakeGateway) ExportPDF(ctx context.Context, report *entity.AnalysisReport) ([]byte, error) {
	g.calls.Add(1)
	return g.export(ctx, report)
}

func (g *fakeGateway) Classes(ctx context.Context) ([]string, error) {
	g.calls.Add(1)
	return append([]string(nil), entity.KnownClasses...), nil
}

type notification struct {
	chatID  int64
	kind    port.NotificationKind
	message string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []notification
}

func (n *fakeNotifier) Notify(chatID int64, kind port.NotificationKind, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification{chatID: chatID, kind: kind, message: message})
}

func (n *fakeNotifier) ofKind(kind port.NotificationKind) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, s := range n.sent {
		if s.kind == kind {
			out = append(out, s.message)
		}
	}
	return out
}

type fakeCompositor struct {
	base, heatmap []byte
	mode          port.BlendMode
	opacity       int
}

func (c *fakeCompositor) Blend(base, heatmap []byte, mode port.BlendMode, opacity int) ([]byte, error) {
	c.base, c.heatmap, c.mode, c.opacity = base, heatmap, mode, opacity
	return []byte("blended"), nil
}

func b64(s string) *string {
	v := base64.StdEncoding.EncodeToString([]byte(s))
	return &v
}

func strPtr(s string) *string { return &s }

func sampleResult(class string) *entity.AnalysisResult {
	return &entity.AnalysisResult{
		PredictedClass: class,
		Probabilities: entity.Probabilities{
			{Label: class, Probability: 0.9},
			{Label: entity.ClassParabasal, Probability: 0.1},
		},
	}
}

func sampleImage(name string) entity.ImageFile {
	return entity.ImageFile{Name: name, ContentType: "image/png", Data: []byte("upload-" + name)}
}
