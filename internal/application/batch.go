package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"cyto-bot/internal/domain/entity"
	"cyto-bot/internal/domain/port"
)

// DefaultPollInterval период опроса задания по умолчанию
const DefaultPollInterval = 2 * time.Second

// BatchService оркестратор пакетной обработки
type BatchService struct {
	gateway    port.AnalysisGateway
	workspaces *WorkspaceStore
	notifier   port.Notifier
	logger     *slog.Logger
	maxUpload  int64
}

// NewBatchService создаёт оркестратор пакетной обработки
func NewBatchService(gateway port.AnalysisGateway, workspaces *WorkspaceStore, notifier port.Notifier, logger *slog.Logger, maxUpload int64) *BatchService {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &BatchService{gateway: gateway, workspaces: workspaces, notifier: notifier, logger: logger, maxUpload: maxUpload}
}

// AddFile добавляет снимок в набор для отправки и возвращает размер набора
func (s *BatchService) AddFile(userID, chatID int64, file entity.ImageFile) (int, error) {
	if file.IsEmpty() {
		return 0, entity.NewValidationError("Image file is required for batch processing")
	}
	warnUploadSize(s.notifier, chatID, file, s.maxUpload)

	var n int
	s.workspaces.Get(userID).update(func(w *Workspace) {
		w.batchFiles = append(w.batchFiles, file)
		n = len(w.batchFiles)
	})
	return n, nil
}

// PendingFiles снимки, собранные для отправки
func (s *BatchService) PendingFiles(userID int64) []entity.ImageFile {
	return s.workspaces.Get(userID).Snapshot().BatchFiles
}

// Submit отправляет все файлы одним запросом. Пустой files означает собранный набор.
func (s *BatchService) Submit(ctx context.Context, userID, chatID int64, files []entity.ImageFile) (*entity.BatchJob, error) {
	ws := s.workspaces.Get(userID)
	collected := len(files) == 0
	if collected {
		files = ws.Snapshot().BatchFiles
	}
	if len(files) == 0 {
		return nil, entity.NewValidationError("At least one image is required for batch processing")
	}

	t, err := ws.begin(entity.ActionBatch)
	if err != nil {
		return nil, err
	}
	job, err := s.gateway.SubmitBatch(ctx, files)
	err = ws.finish(t, err, func(w *Workspace) {
		w.batch = job
		if collected {
			w.batchFiles = nil
		}
	})
	if err != nil {
		return nil, reportFailure(s.logger, s.notifier, chatID, "batch", err)
	}

	notify(s.notifier, chatID, port.NotifyInfo, fmt.Sprintf("Batch job %s started: %d files", job.JobID, len(files)))
	return job, nil
}

// Current последнее известное состояние задания
func (s *BatchService) Current(userID int64) (*entity.BatchJob, error) {
	job := s.workspaces.Get(userID).Snapshot().Batch
	if job == nil {
		return nil, entity.ErrNoBatch
	}
	return job, nil
}

// Lookup разовый запрос состояния задания по ID, без рабочего пространства.
func (s *BatchService) Lookup(ctx context.Context, chatID int64, jobID string) (*entity.BatchJob, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return nil, entity.NewValidationError("Job ID is required")
	}
	job, err := s.gateway.BatchStatus(ctx, jobID)
	if err != nil {
		return nil, reportFailure(s.logger, s.notifier, chatID, "batch status", err)
	}
	return job, nil
}

// Refresh запрашивает состояние задания. Ошибка опроса не повторяется.
func (s *BatchService) Refresh(ctx context.Context, userID, chatID int64) (*entity.BatchJob, error) {
	ws := s.workspaces.Get(userID)
	snap := ws.Snapshot()
	if snap.Batch == nil {
		return nil, entity.ErrNoBatch
	}
	jobID := snap.Batch.JobID

	job, err := s.gateway.BatchStatus(ctx, jobID)
	if err != nil {
		return nil, reportFailure(s.logger, s.notifier, chatID, "batch status", err)
	}

	stale := false
	ws.update(func(w *Workspace) {
		if w.epoch != snap.Epoch || w.batch == nil || w.batch.JobID != jobID {
			stale = true
			return
		}
		w.batch = job
	})
	if stale {
		return nil, entity.ErrResultDiscarded
	}
	return job, nil
}

// Wait опрашивает задание с периодом interval, пока оно не завершится или не истечёт ctx.
// onUpdate вызывается после каждого успешного опроса.
func (s *BatchService) Wait(ctx context.Context, userID, chatID int64, interval time.Duration, onUpdate func(*entity.BatchJob)) (*entity.BatchJob, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		job, err := s.Refresh(ctx, userID, chatID)
		if err != nil {
			return nil, err
		}
		if onUpdate != nil {
			onUpdate(job)
		}
		if job.IsTerminal() {
			kind := port.NotifySuccess
			if job.Status == entity.BatchFailed {
				kind = port.NotifyError
			}
			notify(s.notifier, chatID, kind, fmt.Sprintf("Batch job %s %s", job.JobID, job.Status))
			return job, nil
		}

		select {
		case <-ctx.Done():
			return job, ctx.Err()
		case <-ticker.C:
		}
	}
}
