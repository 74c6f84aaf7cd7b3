// Package notify хранит короткоживущие уведомления пользователя.
// Очередь ограничена по размеру, каждое уведомление исчезает само по истечении TTL.
package notify

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"cyto-bot/internal/domain/port"
)

const (
	// DefaultTTL время жизни уведомления
	DefaultTTL = 4 * time.Second
	// DefaultCapacity сколько уведомлений одного чата видно одновременно
	DefaultCapacity = 5
)

// Toast одно уведомление
type Toast struct {
	ID        string
	ChatID    int64
	Kind      port.NotificationKind
	Message   string
	TTL       time.Duration
	CreatedAt time.Time
}

// Sink получает события показа и скрытия уведомлений.
// Вызывается вне блокировки сервиса, из разных горутин.
type Sink interface {
	OnShow(t Toast)
	OnDismiss(t Toast)
}

// Config параметры очереди
type Config struct {
	TTL      time.Duration
	Capacity int
}

type entry struct {
	toast Toast
	timer *time.Timer
}

// Service очередь уведомлений, разбитая по чатам
type Service struct {
	ttl      time.Duration
	capacity int
	sink     Sink
	logger   *slog.Logger

	mu     sync.Mutex
	queues map[int64][]*entry
	closed bool
}

// New создаёт сервис. Нулевые значения конфигурации заменяются значениями по умолчанию.
func New(cfg Config, sink Sink, logger *slog.Logger) *Service {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultCapacity
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		ttl:      cfg.TTL,
		capacity: cfg.Capacity,
		sink:     sink,
		logger:   logger,
		queues:   make(map[int64][]*entry),
	}
}

// Push добавляет уведомление. При переполнении старейшее уведомление чата скрывается.
func (s *Service) Push(chatID int64, kind port.NotificationKind, message string) Toast {
	toast := Toast{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		Kind:      kind,
		Message:   message,
		TTL:       s.ttl,
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return toast
	}
	e := &entry{toast: toast}
	queue := append(s.queues[chatID], e)

	var evicted []Toast
	for len(queue) > s.capacity {
		oldest := queue[0]
		oldest.timer.Stop()
		evicted = append(evicted, oldest.toast)
		queue = queue[1:]
	}
	s.queues[chatID] = queue
	e.timer = time.AfterFunc(s.ttl, func() { s.expire(chatID, toast.ID) })
	s.mu.Unlock()

	s.logger.Debug("notification", "chat_id", chatID, "kind", kind, "message", message)
	for _, t := range evicted {
		s.dismissed(t)
	}
	if s.sink != nil {
		s.sink.OnShow(toast)
	}
	return toast
}

// Notify реализует port.Notifier
func (s *Service) Notify(chatID int64, kind port.NotificationKind, message string) {
	s.Push(chatID, kind, message)
}

// Remove скрывает уведомление досрочно. Возвращает false, если его уже нет.
func (s *Service) Remove(chatID int64, id string) bool {
	s.mu.Lock()
	toast, ok := s.take(chatID, id)
	s.mu.Unlock()
	if ok {
		s.dismissed(toast)
	}
	return ok
}

// Active видимые уведомления чата от старых к новым
func (s *Service) Active(chatID int64) []Toast {
	s.mu.Lock()
	defer s.mu.Unlock()

	queue := s.queues[chatID]
	out := make([]Toast, 0, len(queue))
	for _, e := range queue {
		out = append(out, e.toast)
	}
	return out
}

// Close останавливает таймеры. Уведомления после Close не принимаются.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	for chatID, queue := range s.queues {
		for _, e := range queue {
			e.timer.Stop()
		}
		delete(s.queues, chatID)
	}
}

func (s *Service) expire(chatID int64, id string) {
	s.mu.Lock()
	toast, ok := s.take(chatID, id)
	s.mu.Unlock()
	if ok {
		s.dismissed(toast)
	}
}

// take удаляет уведомление из очереди; вызывается под s.mu
func (s *Service) take(chatID int64, id string) (Toast, bool) {
	queue := s.queues[chatID]
	for i, e := range queue {
		if e.toast.ID != id {
			continue
		}
		e.timer.Stop()
		queue = append(queue[:i:i], queue[i+1:]...)
		if len(queue) == 0 {
			delete(s.queues, chatID)
		} else {
			s.queues[chatID] = queue
		}
		return e.toast, true
	}
	return Toast{}, false
}

func (s *Service) dismissed(t Toast) {
	if s.sink != nil {
		s.sink.OnDismiss(t)
	}
}

var _ port.Notifier = (*Service)(nil)
