package telegram

import (
	"io"
	"log/slog"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"cyto-bot/internal/domain/port"
	"cyto-bot/internal/infrastructure/notify"
)

// sender часть Bot API, через которую бот отправляет сообщения
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

var kindIcons = map[port.NotificationKind]string{
	port.NotifySuccess: "✅",
	port.NotifyError:   "⚠️",
	port.NotifyInfo:    "ℹ️",
}

// NotificationSink показывает уведомления сообщениями в чате
// и удаляет их, когда уведомление скрывается.
type NotificationSink struct {
	api    sender
	logger *slog.Logger

	mu       sync.Mutex
	messages map[string]*toastMessage
}

// toastMessage сообщение уведомления. Скрытие может прийти раньше, чем Send вернёт ID.
type toastMessage struct {
	messageID int
	sent      bool
	dismissed bool
}

func NewNotificationSink(api sender, logger *slog.Logger) *NotificationSink {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &NotificationSink{api: api, logger: logger, messages: make(map[string]*toastMessage)}
}

func (s *NotificationSink) OnShow(t notify.Toast) {
	s.mu.Lock()
	if m := s.messages[t.ID]; m != nil && m.dismissed {
		// Уведомление скрылось раньше, чем его показали
		delete(s.messages, t.ID)
		s.mu.Unlock()
		return
	}
	s.messages[t.ID] = &toastMessage{}
	s.mu.Unlock()

	text := t.Message
	if icon, ok := kindIcons[t.Kind]; ok {
		text = icon + " " + text
	}
	msg, err := s.api.Send(tgbotapi.NewMessage(t.ChatID, text))

	s.mu.Lock()
	m := s.messages[t.ID]
	if err != nil || m == nil || m.dismissed {
		delete(s.messages, t.ID)
		s.mu.Unlock()
		if err != nil {
			s.logger.Warn("send notification", "chat_id", t.ChatID, "error", err)
			return
		}
		s.deleteMessage(t.ChatID, msg.MessageID)
		return
	}
	m.messageID = msg.MessageID
	m.sent = true
	s.mu.Unlock()
}

func (s *NotificationSink) OnDismiss(t notify.Toast) {
	s.mu.Lock()
	m := s.messages[t.ID]
	if m == nil || !m.sent {
		// Send ещё не вернулся: сообщение удалит OnShow
		if m == nil {
			m = &toastMessage{}
			s.messages[t.ID] = m
		}
		m.dismissed = true
		s.mu.Unlock()
		return
	}
	delete(s.messages, t.ID)
	s.mu.Unlock()

	s.deleteMessage(t.ChatID, m.messageID)
}

func (s *NotificationSink) deleteMessage(chatID int64, messageID int) {
	if _, err := s.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		s.logger.Debug("delete notification", "chat_id", chatID, "error", err)
	}
}

var _ notify.Sink = (*NotificationSink)(nil)
