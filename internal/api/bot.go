package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	app "cyto-bot/internal/application"
	"cyto-bot/internal/container"
	"cyto-bot/internal/domain/entity"
	"cyto-bot/internal/infrastructure/inference"
	"cyto-bot/internal/infrastructure/notify"
	"cyto-bot/internal/presenter"
)

// maxCaptionLength ограничение Telegram на подпись к фото
const maxCaptionLength = 1024

// botAPI методы Bot API, которыми пользуется бот
type botAPI interface {
	sender
	GetFile(config tgbotapi.FileConfig) (tgbotapi.File, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot представляет Telegram-бота
type Bot struct {
	api          botAPI
	token        string
	app          *container.Container
	toasts       *notify.Service
	logger       *slog.Logger
	pollInterval time.Duration
	http         *http.Client

	wg sync.WaitGroup
}

// NewBot создаёт бота поверх авторизованного клиента Bot API
func NewBot(api *tgbotapi.BotAPI, c *container.Container, toasts *notify.Service, logger *slog.Logger, pollInterval time.Duration) *Bot {
	logger.Info("authorized on account", "username", api.Self.UserName)
	return newBot(api, api.Token, c, toasts, logger, pollInterval)
}

func newBot(api botAPI, token string, c *container.Container, toasts *notify.Service, logger *slog.Logger, pollInterval time.Duration) *Bot {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if pollInterval <= 0 {
		pollInterval = app.DefaultPollInterval
	}
	return &Bot{
		api:          api,
		token:        token,
		app:          c,
		toasts:       toasts,
		logger:       logger,
		pollInterval: pollInterval,
		http:         &http.Client{Timeout: time.Minute},
	}
}

// Run запускает основной цикл обработки сообщений до отмены ctx.
// Сообщения обрабатываются параллельно, повторный запуск действия отсекают слоты.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil || update.Message.From == nil {
				continue
			}

			msg := update.Message
			b.wg.Add(1)
			go func() {
				defer b.wg.Done()
				b.handleMessage(ctx, msg)
			}()
		}
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	user, err := b.app.UserService.Get(ctx, msg.From.ID, msg.Chat.ID)
	if err != nil {
		b.logger.Error("get user", "user_id", msg.From.ID, "error", err)
		return
	}

	// Обработка команд
	if msg.IsCommand() {
		b.handleCommand(ctx, msg, user)
		return
	}

	// Обработка снимков
	file, ok, err := b.incomingImage(ctx, msg)
	if err != nil {
		b.handleError(msg.Chat.ID, err)
		return
	}
	if ok {
		b.handleImage(ctx, msg, user, file)
		return
	}

	// Текстовое сообщение (не команда): внутри сценария повторяем подсказку
	if prompt, ok := statePrompts[user.State]; ok && user.AwaitsPhoto() {
		b.sendMessage(msg.Chat.ID, prompt)
		return
	}
	b.sendMessage(msg.Chat.ID, msgSendPhoto)
}

// clearToasts скрывает уведомления чата досрочно
func (b *Bot) clearToasts(chatID int64) {
	if b.toasts == nil {
		return
	}
	for _, t := range b.toasts.Active(chatID) {
		b.toasts.Remove(chatID, t.ID)
	}
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message, user *entity.User) {
	chatID := msg.Chat.ID
	args := msg.CommandArguments()

	var err error
	switch msg.Command() {
	case "start":
		if _, err = b.app.UserService.SetState(ctx, user.ID, chatID, entity.StateMainMenu); err == nil {
			b.sendMessage(chatID, msgStart)
		}

	case "help":
		b.sendMessage(chatID, msgHelp)

	case "analyze", "check":
		err = b.begin(ctx, user, chatID, msgAwaitingPhoto, b.app.UserService.BeginAnalysis)

	case "classify":
		err = b.begin(ctx, user, chatID, msgAwaitingClassify, b.app.UserService.BeginClassification)

	case "quality":
		err = b.begin(ctx, user, chatID, msgAwaitingQuality, b.app.UserService.BeginQuality)

	case "cells":
		err = b.begin(ctx, user, chatID, msgAwaitingCells, b.app.UserService.BeginCells)

	case "stain":
		err = b.begin(ctx, user, chatID, msgAwaitingSource, b.app.UserService.BeginStain)

	case "batch":
		err = b.begin(ctx, user, chatID, msgCollectingBatch, b.app.UserService.BeginBatch)

	case "done":
		err = b.submitBatch(ctx, user, chatID)

	case "status":
		var job *entity.BatchJob
		if job, err = b.app.BatchService.Refresh(ctx, user.ID, chatID); err == nil {
			b.sendMessage(chatID, presenter.RenderText(presenter.Batch(job)))
		}

	case "xai":
		err = b.showHeatmap(user.ID, chatID, args)

	case "report":
		err = b.generateReport(ctx, user.ID, chatID, args)

	case "pdf":
		var file *app.ExportedFile
		if file, err = b.app.ReportService.ReportPDF(ctx, user.ID, chatID); err == nil {
			b.sendDocument(chatID, file)
		}

	case "json":
		var file *app.ExportedFile
		if file, err = b.app.ReportService.ExportJSON(user.ID); err == nil {
			b.sendDocument(chatID, file)
		}

	case "history":
		var records []entity.HistoricalPrediction
		if records, err = b.app.HistoryService.List(ctx); err == nil {
			b.sendMessage(chatID, presenter.RenderText(presenter.HistoryList(records)))
		}

	case "record":
		err = b.showRecord(ctx, chatID, args)

	case "classes":
		var classes []string
		if classes, err = b.app.AnalysisService.Classes(ctx); err == nil {
			b.sendMessage(chatID, fmt.Sprintf(msgClasses, "• "+strings.Join(classes, "\n• ")))
		}

	case "cancel":
		if _, err = b.app.UserService.Cancel(ctx, user.ID, chatID); err == nil {
			b.clearToasts(chatID)
			b.sendMessage(chatID, msgCancelled)
		}

	default:
		b.sendMessage(chatID, msgUnknownCommand)
	}

	b.handleError(chatID, err)
}

// beginFunc переход диалога в состояние ожидания снимка
type beginFunc func(ctx context.Context, userID, chatID int64) (*entity.User, error)

// begin переводит пользователя в новое состояние и присылает подсказку
func (b *Bot) begin(ctx context.Context, user *entity.User, chatID int64, prompt string, fn beginFunc) error {
	if _, err := fn(ctx, user.ID, chatID); err != nil {
		return err
	}
	b.sendMessage(chatID, prompt)
	return nil
}

// handleImage обрабатывает снимок в зависимости от состояния диалога
func (b *Bot) handleImage(ctx context.Context, msg *tgbotapi.Message, user *entity.User, file entity.ImageFile) {
	chatID := msg.Chat.ID

	var err error
	switch user.State {
	case entity.StateMainMenu, entity.StateAwaitingPhoto:
		err = b.analyze(ctx, user, chatID, app.SubmitRequest{File: file, Patient: parsePatient(msg.Caption)})

	case entity.StateAwaitingClassifyPhoto:
		err = b.analyze(ctx, user, chatID, app.SubmitRequest{File: file, ClassifyOnly: true})

	case entity.StateAwaitingQualityPhoto:
		b.sendMessage(chatID, msgProcessing)
		var q *entity.QualityAssessment
		if q, err = b.app.ToolService.AssessQuality(ctx, user.ID, chatID, file); err == nil {
			b.sendPanelWithImage(chatID, presenter.Quality(q), "quality.png", q.NormalizedImage)
			b.toMainMenu(ctx, user, chatID)
		}

	case entity.StateAwaitingCellsPhoto:
		b.sendMessage(chatID, msgProcessing)
		var cells *entity.MultiCellDetectionResult
		if cells, err = b.app.ToolService.DetectCells(ctx, user.ID, chatID, file); err == nil {
			b.sendPanelWithImage(chatID, presenter.MultiCell(cells), "cells.png", cells.ImageWithBoxes)
			b.toMainMenu(ctx, user, chatID)
		}

	case entity.StateAwaitingStainSource:
		if err = b.app.ToolService.SelectStainSource(user.ID, file); err == nil {
			_, err = b.app.UserService.SetState(ctx, user.ID, chatID, entity.StateAwaitingStainTarget)
		}
		if err == nil {
			b.sendMessage(chatID, msgAwaitingTarget)
		}

	case entity.StateAwaitingStainTarget:
		b.sendMessage(chatID, msgProcessing)
		var stain *entity.StainNormalization
		if stain, err = b.app.ToolService.NormalizeStain(ctx, user.ID, chatID, file); err == nil {
			b.sendPanelWithImage(chatID, presenter.Stain(stain), "normalized.png", &stain.NormalizedImage)
			b.toMainMenu(ctx, user, chatID)
		}

	case entity.StateCollectingBatch:
		var n int
		if n, err = b.app.BatchService.AddFile(user.ID, chatID, file); err == nil {
			b.sendMessage(chatID, fmt.Sprintf(msgBatchAdded, n))
		}

	default:
		b.sendMessage(chatID, msgSendPhoto)
	}

	b.handleError(chatID, err)
}

// analyze отправляет снимок на анализ и присылает панели результата
func (b *Bot) analyze(ctx context.Context, user *entity.User, chatID int64, req app.SubmitRequest) error {
	b.sendMessage(chatID, msgProcessing)

	out, err := b.app.AnalysisService.Submit(ctx, user.ID, chatID, req)
	if err != nil {
		return err
	}
	b.toMainMenu(ctx, user, chatID)

	r := out.Result
	if overlay, ok := entity.DecodeImage(r.SegmentationOverlay); ok {
		b.sendPhoto(chatID, "segmentation.png", overlay, "")
	}

	panels := presenter.ResultPanels(r, out.View.Method, out.View.Mode, out.View.Opacity)
	texts := make([]string, 0, len(panels))
	for _, p := range panels {
		texts = append(texts, presenter.RenderText(p))
	}
	b.sendMessage(chatID, strings.Join(texts, "\n\n"))

	if len(r.ExplainabilityMaps()) > 0 {
		blended, _, err := b.app.AnalysisService.Heatmap(user.ID)
		switch {
		case err == nil:
			b.sendPhoto(chatID, "explainability.png", blended, "")
		case !entity.IsValidation(err):
			b.logger.Warn("blend heatmap", "user_id", user.ID, "error", err)
		}
	}
	return nil
}

// showHeatmap меняет вид карты объяснимости и присылает совмещённый снимок
func (b *Bot) showHeatmap(userID, chatID int64, args string) error {
	current, err := b.app.AnalysisService.Current(userID)
	if err != nil {
		return err
	}
	view, err := parseViewArgs(args, current.View)
	if err != nil {
		return err
	}
	if _, err := b.app.AnalysisService.SetView(userID, view); err != nil {
		return err
	}

	blended, view, err := b.app.AnalysisService.Heatmap(userID)
	if err != nil {
		return err
	}
	panel := presenter.Explainability(current.Result, view.Method, view.Mode, view.Opacity)
	b.sendPhoto(chatID, "explainability.png", blended, presenter.RenderText(panel))
	return nil
}

// generateReport формирует отчёт; готовый PDF присылается сразу
func (b *Bot) generateReport(ctx context.Context, userID, chatID int64, args string) error {
	meta, err := parseReportArgs(args)
	if err != nil {
		return err
	}
	outcome, err := b.app.ReportService.Generate(ctx, userID, chatID, meta)
	if err != nil {
		return err
	}

	if outcome.IsPDF() {
		file, err := b.app.ReportService.ReportPDF(ctx, userID, chatID)
		if err != nil {
			return err
		}
		b.sendDocument(chatID, file)
		return nil
	}
	b.sendMessage(chatID, presenter.RenderText(presenter.Report(outcome.Report))+"\n\n"+msgReportReady)
	return nil
}

// submitBatch отправляет собранные снимки и обновляет одно сообщение с прогрессом
func (b *Bot) submitBatch(ctx context.Context, user *entity.User, chatID int64) error {
	if len(b.app.BatchService.PendingFiles(user.ID)) == 0 {
		b.sendMessage(chatID, msgBatchEmpty)
		return nil
	}

	job, err := b.app.BatchService.Submit(ctx, user.ID, chatID, nil)
	if err != nil {
		return err
	}
	b.toMainMenu(ctx, user, chatID)

	status, err := b.api.Send(tgbotapi.NewMessage(chatID, presenter.RenderText(presenter.Batch(job))))
	if err != nil {
		b.logger.Error("send batch status", "chat_id", chatID, "error", err)
		return nil
	}

	last := ""
	_, err = b.app.BatchService.Wait(ctx, user.ID, chatID, b.pollInterval, func(j *entity.BatchJob) {
		text := presenter.RenderText(presenter.Batch(j))
		if text == last {
			return
		}
		last = text
		if _, err := b.api.Send(tgbotapi.NewEditMessageText(chatID, status.MessageID, text)); err != nil {
			b.logger.Debug("edit batch status", "chat_id", chatID, "error", err)
		}
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// showRecord показывает одну историческую запись или присылает её PDF
func (b *Bot) showRecord(ctx context.Context, chatID int64, args string) error {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		b.sendMessage(chatID, msgRecordUsage)
		return nil
	}

	if len(fields) > 1 && strings.EqualFold(fields[1], "pdf") {
		file, err := b.app.HistoryService.PDF(ctx, fields[0])
		if err != nil {
			return err
		}
		b.sendDocument(chatID, file)
		return nil
	}

	record, err := b.app.HistoryService.Get(ctx, fields[0])
	if err != nil {
		return err
	}
	b.sendMessage(chatID, presenter.RenderText(presenter.HistoryRecord(record)))
	return nil
}

func (b *Bot) toMainMenu(ctx context.Context, user *entity.User, chatID int64) {
	if user.State == entity.StateMainMenu {
		return
	}
	if _, err := b.app.UserService.SetState(ctx, user.ID, chatID, entity.StateMainMenu); err != nil {
		b.logger.Error("reset user state", "user_id", user.ID, "error", err)
	}
}

// handleError показывает ошибку пользователю, если уведомление о ней ещё не пришло
func (b *Bot) handleError(chatID int64, err error) {
	switch {
	case err == nil, app.IsDiscarded(err):
		return
	case errors.Is(err, entity.ErrActionBusy):
		b.sendMessage(chatID, msgBusy)
	case errors.Is(err, entity.ErrNoResult):
		b.sendMessage(chatID, msgNoResult)
	case errors.Is(err, entity.ErrNoReport):
		b.sendMessage(chatID, msgNoReport)
	case errors.Is(err, entity.ErrNoBatch):
		b.sendMessage(chatID, msgNoBatch)
	case errors.Is(err, entity.ErrNotImage):
		b.sendMessage(chatID, msgNotImage)
	case errors.Is(err, errDownload):
		b.logger.Warn("download file", "chat_id", chatID, "error", err)
		b.sendMessage(chatID, msgDownloadError)
	case app.Notified(err):
		b.logger.Debug("error already shown", "chat_id", chatID, "status", inference.StatusCode(err), "error", err)
	case entity.IsValidation(err):
		b.sendMessage(chatID, "⚠️ "+app.UserMessage(err))
	default:
		b.logger.Error("handle message", "chat_id", chatID, "error", err)
		b.sendMessage(chatID, msgInternalError)
	}
}
