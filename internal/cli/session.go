package cli

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/spf13/cobra"

	"cyto-bot/config"
	"cyto-bot/internal/container"
	"cyto-bot/internal/infrastructure/inference"
	"cyto-bot/internal/infrastructure/notify"
	"cyto-bot/internal/infrastructure/storage"
	"cyto-bot/internal/infrastructure/vision"
)

// У консольного клиента один пользователь и один "чат"
const (
	localUser int64 = 1
	localChat int64 = 1
)

// session сервисы приложения для одного запуска команды
type session struct {
	cfg      *config.Config
	app      *container.Container
	notifier *notify.Service
	logger   *slog.Logger
	out      io.Writer
}

// openSession читает конфигурацию и собирает сервисы. Флаги перекрывают конфиг.
func openSession(cmd *cobra.Command) (*session, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if apiURL != "" {
		cfg.APIURL = apiURL
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := config.NewLogger(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
	client, err := inference.New(inference.Config{BaseURL: cfg.APIURL, Timeout: cfg.RequestTimeout}, logger)
	if err != nil {
		return nil, err
	}

	notifier := notify.New(notify.Config{TTL: cfg.NotifyTTL, Capacity: cfg.NotifyCapacity},
		&stderrSink{w: cmd.ErrOrStderr()}, logger)

	c := container.New(container.Dependencies{
		Gateway:        client,
		History:        client,
		Users:          storage.NewMemoryUserRepository(),
		Notifier:       notifier,
		Compositor:     vision.NewCompositor(),
		Logger:         logger,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})

	return &session{cfg: cfg, app: c, notifier: notifier, logger: logger, out: cmd.OutOrStdout()}, nil
}

func (s *session) Close() {
	s.notifier.Close()
}

// stderrSink печатает уведомления в stderr; скрывать напечатанное нечего
type stderrSink struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *stderrSink) OnShow(t notify.Toast) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.w, renderToast(t.Kind, t.Message))
}

func (s *stderrSink) OnDismiss(notify.Toast) {}

var _ notify.Sink = (*stderrSink)(nil)
