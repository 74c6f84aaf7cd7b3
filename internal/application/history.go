package app

import (
	"context"
	"strings"

	"cyto-bot/internal/domain/entity"
	"cyto-bot/internal/domain/port"
)

// HistoryService просмотр прошлых анализов, сохранённых бэкендом
type HistoryService struct {
	gateway port.HistoryGateway
}

// NewHistoryService создаёт сервис истории
func NewHistoryService(gateway port.HistoryGateway) *HistoryService {
	return &HistoryService{gateway: gateway}
}

// List все записи истории
func (s *HistoryService) List(ctx context.Context) ([]entity.HistoricalPrediction, error) {
	return s.gateway.ListPredictions(ctx)
}

// Get одна запись
func (s *HistoryService) Get(ctx context.Context, id string) (*entity.HistoricalPrediction, error) {
	id, err := recordID(id)
	if err != nil {
		return nil, err
	}
	return s.gateway.GetPrediction(ctx, id)
}

// PDF отчёт записи в PDF
func (s *HistoryService) PDF(ctx context.Context, id string) (*ExportedFile, error) {
	id, err := recordID(id)
	if err != nil {
		return nil, err
	}
	data, err := s.gateway.PredictionPDF(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ExportedFile{Name: entity.HistoryPDFFileName(id), ContentType: "application/pdf", Data: data}, nil
}

// Report выгрузка отчёта записи в том виде, в котором её отдаёт бэкенд
func (s *HistoryService) Report(ctx context.Context, id string) ([]byte, error) {
	id, err := recordID(id)
	if err != nil {
		return nil, err
	}
	return s.gateway.PredictionReport(ctx, id)
}

func recordID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", entity.NewValidationError("Record ID is required")
	}
	return id, nil
}
