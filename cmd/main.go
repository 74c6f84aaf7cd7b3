package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"cyto-bot/config"
	telegram "cyto-bot/internal/api"
	"cyto-bot/internal/container"
	"cyto-bot/internal/infrastructure/inference"
	"cyto-bot/internal/infrastructure/notify"
	"cyto-bot/internal/infrastructure/storage"
	"cyto-bot/internal/infrastructure/vision"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		config.NewLogger("info", "text", os.Stderr).Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := cfg.Logger()

	if cfg.TelegramToken == "" {
		logger.Error("TELEGRAM_TOKEN is required")
		os.Exit(1)
	}

	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		logger.Error("failed to create bot", "error", err)
		os.Exit(1)
	}

	// Клиент сервиса инференса
	client, err := inference.New(inference.Config{BaseURL: cfg.APIURL, Timeout: cfg.RequestTimeout}, logger)
	if err != nil {
		logger.Error("failed to create inference client", "error", err)
		os.Exit(1)
	}

	// Уведомления показываются сообщениями в чате
	notifier := notify.New(notify.Config{TTL: cfg.NotifyTTL, Capacity: cfg.NotifyCapacity},
		telegram.NewNotificationSink(api, logger), logger)
	defer notifier.Close()

	// Собираем сервисы приложения
	appContainer := container.New(container.Dependencies{
		Gateway:        client,
		History:        client,
		Users:          storage.NewMemoryUserRepository(),
		Notifier:       notifier,
		Compositor:     vision.NewCompositor(),
		Logger:         logger,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})

	bot := telegram.NewBot(api, appContainer, notifier, logger, cfg.PollInterval)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("bot is running", "api_url", client.BaseURL())
	if err := bot.Run(ctx); err != nil {
		logger.Error("bot error", "error", err)
		os.Exit(1)
	}
	logger.Info("bot stopped")
}
