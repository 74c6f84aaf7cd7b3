package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"cyto-bot/internal/domain/entity"
	"cyto-bot/internal/domain/port"
)

// MessageNoExplainability карта объяснимости без оригинала или без карт
const MessageNoExplainability = "Explainability maps are not available"

// SubmitRequest запрос на анализ одного снимка
type SubmitRequest struct {
	File    entity.ImageFile
	Patient port.Patient
	// ClassifyOnly отправляет снимок только на классификацию
	ClassifyOnly bool
}

// AnalysisOutput текущий результат анализа пользователя
type AnalysisOutput struct {
	Result  *entity.AnalysisResult
	Upload  entity.ImageFile
	Preview []byte
	View    ExplainabilityView
}

// AnalysisService оркестратор анализа одного снимка.
// Один запрос на одно действие пользователя, без повторов и кэша.
type AnalysisService struct {
	gateway    port.AnalysisGateway
	workspaces *WorkspaceStore
	notifier   port.Notifier
	compositor port.HeatmapCompositor
	logger     *slog.Logger
	maxUpload  int64
}

// AnalysisOptions необязательные зависимости оркестратора
type AnalysisOptions struct {
	Compositor port.HeatmapCompositor
	Logger     *slog.Logger
	// MaxUploadBytes 0 отключает предупреждение о размере
	MaxUploadBytes int64
}

// NewAnalysisService создаёт оркестратор анализа
func NewAnalysisService(gateway port.AnalysisGateway, workspaces *WorkspaceStore, notifier port.Notifier, opts AnalysisOptions) *AnalysisService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &AnalysisService{
		gateway:    gateway,
		workspaces: workspaces,
		notifier:   notifier,
		compositor: opts.Compositor,
		logger:     logger,
		maxUpload:  opts.MaxUploadBytes,
	}
}

// Submit отправляет снимок на анализ и сохраняет ответ как текущий результат.
// При ошибке пользователь получает уведомление, прежний результат остаётся.
func (s *AnalysisService) Submit(ctx context.Context, userID, chatID int64, req SubmitRequest) (*AnalysisOutput, error) {
	if req.File.IsEmpty() {
		return nil, entity.NewValidationError("Image file is required for analysis")
	}
	warnUploadSize(s.notifier, chatID, req.File, s.maxUpload)

	ws := s.workspaces.Get(userID)
	t, err := ws.begin(entity.ActionAnalyze)
	if err != nil {
		return nil, err
	}

	op := "analyze"
	var result *entity.AnalysisResult
	if req.ClassifyOnly {
		op = "classify"
		result, err = s.gateway.Classify(ctx, req.File)
	} else {
		result, err = s.gateway.Analyze(ctx, req.File, req.Patient)
	}

	var out *AnalysisOutput
	err = ws.finish(t, err, func(w *Workspace) {
		upload := req.File
		w.result = result
		w.upload = &upload
		w.preview = previewOf(result, upload)
		w.view = resolveView(result, DefaultView())
		// Новый результат делает прежний отчёт неактуальным
		w.report = nil
		out = &AnalysisOutput{Result: result, Upload: upload, Preview: w.preview, View: w.view}
	})
	if err != nil {
		return nil, reportFailure(s.logger, s.notifier, chatID, op, err)
	}

	s.logger.Info("analysis finished",
		"user_id", userID,
		"op", op,
		"predicted_class", result.PredictedClass,
		"file", req.File.Name,
	)
	notify(s.notifier, chatID, port.NotifySuccess, "Analysis complete")
	return out, nil
}

// Current возвращает текущий результат пользователя
func (s *AnalysisService) Current(userID int64) (*AnalysisOutput, error) {
	snap := s.workspaces.Get(userID).Snapshot()
	if snap.Result == nil || snap.Upload == nil {
		return nil, entity.ErrNoResult
	}
	return &AnalysisOutput{Result: snap.Result, Upload: *snap.Upload, Preview: snap.Preview, View: snap.View}, nil
}

// SetView меняет вид карты объяснимости. Метод без карты заменяется доступным,
// прозрачность обрезается до 0..100.
func (s *AnalysisService) SetView(userID int64, view ExplainabilityView) (ExplainabilityView, error) {
	if view.Mode == "" {
		view.Mode = port.BlendOverlay
	}
	if !view.Mode.Valid() {
		return ExplainabilityView{}, entity.NewValidationError(fmt.Sprintf("Unknown display mode %q", view.Mode))
	}

	ws := s.workspaces.Get(userID)
	var resolved ExplainabilityView
	var err error
	ws.update(func(w *Workspace) {
		if w.result == nil {
			err = entity.ErrNoResult
			return
		}
		w.view = resolveView(w.result, view)
		resolved = w.view
	})
	return resolved, err
}

// Heatmap совмещает снимок с выбранной картой локально, без обращения к бэкенду.
func (s *AnalysisService) Heatmap(userID int64) ([]byte, ExplainabilityView, error) {
	current, err := s.Current(userID)
	if err != nil {
		return nil, ExplainabilityView{}, err
	}
	if s.compositor == nil {
		return nil, current.View, errors.New("heatmap compositor is not configured")
	}

	// Карта накладывается только на оригинал из ответа, как и в панели
	original, hasOriginal := entity.DecodeImage(current.Result.OriginalImage)
	heatmap, ok := selectedMap(current.Result, current.View.Method)
	if !ok || !hasOriginal {
		return nil, current.View, entity.NewValidationError(MessageNoExplainability)
	}
	blended, err := s.compositor.Blend(original, heatmap, current.View.Mode, current.View.Opacity)
	if err != nil {
		return nil, current.View, fmt.Errorf("blend heatmap: %w", err)
	}
	return blended, current.View, nil
}

// Classes список классов классификатора
func (s *AnalysisService) Classes(ctx context.Context) ([]string, error) {
	return s.gateway.Classes(ctx)
}

// previewOf выбирает снимок для показа: встроенный в ответ оригинал важнее загрузки.
func previewOf(result *entity.AnalysisResult, upload entity.ImageFile) []byte {
	if result != nil {
		if data, ok := entity.DecodeImage(result.OriginalImage); ok {
			return data
		}
	}
	return upload.Data
}

// resolveView подставляет доступный метод и обрезает прозрачность
func resolveView(result *entity.AnalysisResult, view ExplainabilityView) ExplainabilityView {
	if view.Opacity < 0 {
		view.Opacity = 0
	}
	if view.Opacity > 100 {
		view.Opacity = 100
	}
	maps := result.ExplainabilityMaps()
	if len(maps) == 0 {
		return view
	}
	for _, m := range maps {
		if m.Method == view.Method {
			return view
		}
	}
	view.Method = maps[0].Method
	return view
}

// selectedMap декодированная карта выбранного метода
func selectedMap(result *entity.AnalysisResult, method string) ([]byte, bool) {
	for _, m := range result.ExplainabilityMaps() {
		if m.Method != method {
			continue
		}
		img := m.Image
		return entity.DecodeImage(&img)
	}
	return nil, false
}

func warnUploadSize(n port.Notifier, chatID int64, file entity.ImageFile, limit int64) {
	if limit <= 0 || int64(file.Size()) <= limit {
		return
	}
	notify(n, chatID, port.NotifyInfo, fmt.Sprintf("%s is larger than %.1f MB, upload may be slow", file.Name, float64(limit)/(1<<20)))
}

func notify(n port.Notifier, chatID int64, kind port.NotificationKind, message string) {
	if n == nil || message == "" {
		return
	}
	n.Notify(chatID, kind, message)
}
