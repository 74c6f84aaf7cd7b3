package port

import (
	"context"

	"cyto-bot/internal/domain/entity"
)

// Patient необязательные данные пациента для запроса анализа
type Patient struct {
	ID   string
	Name string
}

// AnalysisGateway контракт внешнего сервиса инференса.
// Каждый вызов отправляет ровно один HTTP-запрос, без повторов и кэша.
type AnalysisGateway interface {
	// Analyze классификация и сегментация снимка
	Analyze(ctx context.Context, file entity.ImageFile, patient Patient) (*entity.AnalysisResult, error)

	// Classify только классификация
	Classify(ctx context.Context, file entity.ImageFile) (*entity.AnalysisResult, error)

	// AssessQuality оценка качества снимка
	AssessQuality(ctx context.Context, file entity.ImageFile) (*entity.QualityAssessment, error)

	// NormalizeStain нормализация окраски по эталону
	NormalizeStain(ctx context.Context, file, target entity.ImageFile) (*entity.StainNormalization, error)

	// DetectCells поиск нескольких клеток
	DetectCells(ctx context.Context, file entity.ImageFile) (*entity.MultiCellDetectionResult, error)

	// SubmitBatch отправляет все файлы одним запросом
	SubmitBatch(ctx context.Context, files []entity.ImageFile) (*entity.BatchJob, error)

	// BatchStatus текущее состояние пакетного задания
	BatchStatus(ctx context.Context, jobID string) (*entity.BatchJob, error)

	// GenerateReport формирует отчёт по результату и метаданным
	GenerateReport(ctx context.Context, file entity.ImageFile, analysis []byte) (*entity.ReportOutcome, error)

	// ExportPDF выгружает отчёт в PDF
	ExportPDF(ctx context.Context, report *entity.AnalysisReport) ([]byte, error)

	// Classes список классов классификатора
	Classes(ctx context.Context) ([]string, error)
}

// HistoryGateway контракт хранилища прошлых анализов на бэкенде.
type HistoryGateway interface {
	ListPredictions(ctx context.Context) ([]entity.HistoricalPrediction, error)
	GetPrediction(ctx context.Context, id string) (*entity.HistoricalPrediction, error)
	PredictionPDF(ctx context.Context, id string) ([]byte, error)
	PredictionReport(ctx context.Context, id string) ([]byte, error)
}
