package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath файл конфигурации, который читается, если он есть в рабочем каталоге
const DefaultPath = "cyto.yaml"

type Config struct {
	TelegramToken  string        `yaml:"telegram_token"`
	APIURL         string        `yaml:"api_url"`
	LogLevel       string        `yaml:"log_level"`
	LogFormat      string        `yaml:"log_format"`
	NotifyTTL      time.Duration `yaml:"notify_ttl"`
	NotifyCapacity int           `yaml:"notify_capacity"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
	PollInterval   time.Duration `yaml:"poll_interval"`
	// RequestTimeout 0 означает таймауты транспорта по умолчанию
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// Default значения по умолчанию
func Default() *Config {
	return &Config{
		APIURL:         "http://localhost:8000",
		LogLevel:       "info",
		LogFormat:      "text",
		NotifyTTL:      4 * time.Second,
		NotifyCapacity: 5,
		MaxUploadBytes: 10 << 20,
		PollInterval:   2 * time.Second,
	}
}

// Load собирает конфигурацию: значения по умолчанию, YAML-файл, .env, переменные окружения.
// Пустой path означает CYTO_CONFIG или ./cyto.yaml, если файл существует.
func Load(path string) (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	cfg := Default()

	explicit := path != ""
	if !explicit {
		if path = os.Getenv("CYTO_CONFIG"); path != "" {
			explicit = true
		} else {
			path = DefaultPath
		}
	}
	if err := cfg.loadFile(path, explicit); err != nil {
		return nil, err
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// loadFile накладывает YAML поверх текущих значений. Отсутствие неявного файла не ошибка.
func (c *Config) loadFile(path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setters := map[string]func(string) error{
		"TELEGRAM_TOKEN":        func(v string) error { c.TelegramToken = v; return nil },
		"CYTO_API_URL":          func(v string) error { c.APIURL = v; return nil },
		"CYTO_LOG_LEVEL":        func(v string) error { c.LogLevel = v; return nil },
		"CYTO_LOG_FORMAT":       func(v string) error { c.LogFormat = v; return nil },
		"CYTO_NOTIFY_TTL":       func(v string) error { return parseDuration(v, &c.NotifyTTL) },
		"CYTO_NOTIFY_CAPACITY":  func(v string) error { return parseInt(v, &c.NotifyCapacity) },
		"CYTO_MAX_UPLOAD_BYTES": func(v string) error { return parseInt64(v, &c.MaxUploadBytes) },
		"CYTO_POLL_INTERVAL":    func(v string) error { return parseDuration(v, &c.PollInterval) },
		"CYTO_REQUEST_TIMEOUT":  func(v string) error { return parseDuration(v, &c.RequestTimeout) },
	}
	for name, set := range setters {
		v := strings.TrimSpace(os.Getenv(name))
		if v == "" {
			continue
		}
		if err := set(v); err != nil {
			return fmt.Errorf("invalid value for %s: %w", name, err)
		}
	}
	return nil
}

// Validate проверяет адрес бэкенда и диапазоны значений
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api_url %q must be an http(s) URL", c.APIURL)
	}
	if _, ok := parseLevel(c.LogLevel); !ok {
		return fmt.Errorf("log_level %q must be one of debug, info, warn, error", c.LogLevel)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("log_format %q must be text or json", c.LogFormat)
	}
	if c.NotifyTTL <= 0 {
		return errors.New("notify_ttl must be positive")
	}
	if c.NotifyCapacity <= 0 {
		return errors.New("notify_capacity must be positive")
	}
	if c.MaxUploadBytes < 0 {
		return errors.New("max_upload_bytes must not be negative")
	}
	if c.PollInterval <= 0 {
		return errors.New("poll_interval must be positive")
	}
	if c.RequestTimeout < 0 {
		return errors.New("request_timeout must not be negative")
	}
	return nil
}

// NewLogger создаёт структурированный логгер в формате text или json
func NewLogger(level, format string, w io.Writer) *slog.Logger {
	lvl, _ := parseLevel(level)
	opts := &slog.HandlerOptions{Level: lvl}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Logger логгер по настройкам конфигурации, пишет в stderr
func (c *Config) Logger() *slog.Logger {
	return NewLogger(c.LogLevel, c.LogFormat, os.Stderr)
}

func parseLevel(level string) (slog.Level, bool) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}

func parseDuration(v string, out *time.Duration) error {
	d, err := time.ParseDuration(v)
	if err != nil {
		return err
	}
	*out = d
	return nil
}

func parseInt(v string, out *int) error {
	n, err := strconv.Atoi(v)
	if err != nil {
		return err
	}
	*out = n
	return nil
}

func parseInt64(v string, out *int64) error {
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return err
	}
	*out = n
	return nil
}
