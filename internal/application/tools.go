package app

import (
	"context"
	"io"
	"log/slog"

	"cyto-bot/internal/domain/entity"
	"cyto-bot/internal/domain/port"
)

// ToolService дополнительные инструменты: качество, окраска и поиск клеток.
// У каждого инструмента свой слот, они не мешают друг другу и анализу.
type ToolService struct {
	gateway    port.AnalysisGateway
	workspaces *WorkspaceStore
	notifier   port.Notifier
	logger     *slog.Logger
}

// NewToolService создаёт сервис инструментов
func NewToolService(gateway port.AnalysisGateway, workspaces *WorkspaceStore, notifier port.Notifier, logger *slog.Logger) *ToolService {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &ToolService{gateway: gateway, workspaces: workspaces, notifier: notifier, logger: logger}
}

// AssessQuality оценивает качество снимка
func (s *ToolService) AssessQuality(ctx context.Context, userID, chatID int64, file entity.ImageFile) (*entity.QualityAssessment, error) {
	if file.IsEmpty() {
		return nil, entity.NewValidationError("Image file is required for quality assessment")
	}
	ws := s.workspaces.Get(userID)
	t, err := ws.begin(entity.ActionQuality)
	if err != nil {
		return nil, err
	}

	quality, err := s.gateway.AssessQuality(ctx, file)
	err = ws.finish(t, err, func(w *Workspace) { w.quality = quality })
	if err != nil {
		return nil, reportFailure(s.logger, s.notifier, chatID, "quality", err)
	}
	s.logger.Info("quality assessed", "user_id", userID, "score", quality.QualityScore, "level", quality.QualityLevel)
	return quality, nil
}

// SelectStainSource запоминает снимок, окраску которого нужно нормализовать
func (s *ToolService) SelectStainSource(userID int64, file entity.ImageFile) error {
	if file.IsEmpty() {
		return entity.NewValidationError("Source image is required for stain normalization")
	}
	s.workspaces.Get(userID).update(func(w *Workspace) {
		source := file
		w.stainSource = &source
	})
	return nil
}

// NormalizeStain приводит окраску выбранного ранее снимка к эталону target
func (s *ToolService) NormalizeStain(ctx context.Context, userID, chatID int64, target entity.ImageFile) (*entity.StainNormalization, error) {
	ws := s.workspaces.Get(userID)
	source := ws.Snapshot().StainSource
	if source == nil {
		return nil, entity.NewValidationError("Source image is required for stain normalization")
	}
	if target.IsEmpty() {
		return nil, entity.NewValidationError("Target image is required for stain normalization")
	}

	t, err := ws.begin(entity.ActionStain)
	if err != nil {
		return nil, err
	}
	result, err := s.gateway.NormalizeStain(ctx, *source, target)
	err = ws.finish(t, err, func(w *Workspace) { w.stain = result })
	if err != nil {
		return nil, reportFailure(s.logger, s.notifier, chatID, "stain", err)
	}
	s.logger.Info("stain normalized", "user_id", userID, "source", source.Name, "target", target.Name)
	return result, nil
}

// DetectCells ищет клетки на снимке
func (s *ToolService) DetectCells(ctx context.Context, userID, chatID int64, file entity.ImageFile) (*entity.MultiCellDetectionResult, error) {
	if file.IsEmpty() {
		return nil, entity.NewValidationError("Image file is required for cell detection")
	}
	ws := s.workspaces.Get(userID)
	t, err := ws.begin(entity.ActionCells)
	if err != nil {
		return nil, err
	}

	cells, err := s.gateway.DetectCells(ctx, file)
	err = ws.finish(t, err, func(w *Workspace) { w.cells = cells })
	if err != nil {
		return nil, reportFailure(s.logger, s.notifier, chatID, "cells", err)
	}
	s.logger.Info("cells detected", "user_id", userID, "total", cells.TotalCells)
	return cells, nil
}
