package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"cyto-bot/internal/domain/entity"
	"cyto-bot/internal/domain/port"
)

// Сообщения локальной проверки перед генерацией отчёта
const (
	MessageReportNeedsImage   = "Image file is required for report generation"
	MessageReportNeedsPatient = "Patient ID is required for report generation"
)

// ExportedFile файл, готовый к отправке пользователю
type ExportedFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// ReportService формирование и выгрузка отчёта по текущему результату
type ReportService struct {
	gateway    port.AnalysisGateway
	workspaces *WorkspaceStore
	notifier   port.Notifier
	logger     *slog.Logger
	now        func() time.Time
}

// NewReportService создаёт сервис отчётов
func NewReportService(gateway port.AnalysisGateway, workspaces *WorkspaceStore, notifier port.Notifier, logger *slog.Logger) *ReportService {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &ReportService{gateway: gateway, workspaces: workspaces, notifier: notifier, logger: logger, now: time.Now}
}

// Generate формирует отчёт. Без снимка или ID пациента запрос не отправляется.
func (s *ReportService) Generate(ctx context.Context, userID, chatID int64, meta entity.ReportMetadata) (*entity.ReportOutcome, error) {
	ws := s.workspaces.Get(userID)
	snap := ws.Snapshot()
	if snap.Result == nil || snap.Upload == nil {
		return nil, entity.NewValidationError(MessageReportNeedsImage)
	}
	meta = meta.Normalize(s.now())
	if meta.PatientID == "" {
		return nil, entity.NewValidationError(MessageReportNeedsPatient)
	}

	analysis, err := mergeAnalysis(snap.Result, meta)
	if err != nil {
		return nil, err
	}

	t, err := ws.begin(entity.ActionReport)
	if err != nil {
		return nil, err
	}
	outcome, err := s.gateway.GenerateReport(ctx, *snap.Upload, analysis)
	err = ws.finish(t, err, func(w *Workspace) { w.report = outcome })
	if err != nil {
		return nil, reportFailure(s.logger, s.notifier, chatID, "report", err)
	}

	s.logger.Info("report generated", "user_id", userID, "patient_id", meta.PatientID, "pdf", outcome.IsPDF())
	notify(s.notifier, chatID, port.NotifySuccess, "Report generated")
	return outcome, nil
}

// ReportPDF PDF отчёта: готовый, если бэкенд сразу прислал PDF, иначе через выгрузку JSON-отчёта.
func (s *ReportService) ReportPDF(ctx context.Context, userID, chatID int64) (*ExportedFile, error) {
	ws := s.workspaces.Get(userID)
	report := ws.Snapshot().Report
	if report == nil {
		return nil, entity.ErrNoReport
	}
	if report.IsPDF() {
		return &ExportedFile{Name: entity.ReportFileName(s.now()), ContentType: "application/pdf", Data: report.PDF}, nil
	}
	return s.ExportPDF(ctx, userID, chatID)
}

// ExportPDF выгружает сформированный JSON-отчёт в PDF
func (s *ReportService) ExportPDF(ctx context.Context, userID, chatID int64) (*ExportedFile, error) {
	ws := s.workspaces.Get(userID)
	report := ws.Snapshot().Report
	if report == nil || report.Report == nil {
		return nil, entity.ErrNoReport
	}

	t, err := ws.begin(entity.ActionExport)
	if err != nil {
		return nil, err
	}
	pdf, err := s.gateway.ExportPDF(ctx, report.Report)
	err = ws.finish(t, err, nil)
	if err != nil {
		return nil, reportFailure(s.logger, s.notifier, chatID, "export", err)
	}
	return &ExportedFile{Name: entity.ReportFileName(s.now()), ContentType: "application/pdf", Data: pdf}, nil
}

// ExportJSON текущий результат в виде JSON-файла
func (s *ReportService) ExportJSON(userID int64) (*ExportedFile, error) {
	result := s.workspaces.Get(userID).Snapshot().Result
	if result == nil {
		return nil, entity.ErrNoResult
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return &ExportedFile{Name: entity.ResultFileName(s.now()), ContentType: "application/json", Data: data}, nil
}

// mergeAnalysis объединяет результат анализа с непустыми полями метаданных
func mergeAnalysis(result *entity.AnalysisResult, meta entity.ReportMetadata) ([]byte, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(raw, &merged); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	for k, v := range meta.Fields() {
		encoded, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", k, err)
		}
		merged[k] = encoded
	}
	return json.Marshal(merged)
}
