package container

import (
	"log/slog"

	app "cyto-bot/internal/application"
	"cyto-bot/internal/domain/port"
)

// Dependencies внешние зависимости сервисов приложения
type Dependencies struct {
	Gateway        port.AnalysisGateway
	History        port.HistoryGateway
	Users          port.UserRepository
	Notifier       port.Notifier
	Compositor     port.HeatmapCompositor
	Logger         *slog.Logger
	MaxUploadBytes int64
}

type Container struct {
	Workspaces      *app.WorkspaceStore
	UserService     *app.UserService
	AnalysisService *app.AnalysisService
	ToolService     *app.ToolService
	BatchService    *app.BatchService
	ReportService   *app.ReportService
	HistoryService  *app.HistoryService
}

func New(deps Dependencies) *Container {
	workspaces := app.NewWorkspaceStore()

	return &Container{
		Workspaces:  workspaces,
		UserService: app.NewUserService(deps.Users, workspaces),
		AnalysisService: app.NewAnalysisService(deps.Gateway, workspaces, deps.Notifier, app.AnalysisOptions{
			Compositor:     deps.Compositor,
			Logger:         deps.Logger,
			MaxUploadBytes: deps.MaxUploadBytes,
		}),
		ToolService:    app.NewToolService(deps.Gateway, workspaces, deps.Notifier, deps.Logger),
		BatchService:   app.NewBatchService(deps.Gateway, workspaces, deps.Notifier, deps.Logger, deps.MaxUploadBytes),
		ReportService:  app.NewReportService(deps.Gateway, workspaces, deps.Notifier, deps.Logger),
		HistoryService: app.NewHistoryService(deps.History),
	}
}
