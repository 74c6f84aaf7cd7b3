package app

import (
	"errors"
	"log/slog"

	"cyto-bot/internal/domain/entity"
	"cyto-bot/internal/domain/port"
)

// MessageBusy текст для повторного запуска действия
const MessageBusy = "This action is already running"

// UserMessage превращает ошибку в одну строку для пользователя.
// Для отброшенного ответа возвращается пустая строка: показывать нечего.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var v *entity.ValidationError
	switch {
	case errors.As(err, &v):
		return v.Message
	case errors.Is(err, entity.ErrActionBusy):
		return MessageBusy
	case errors.Is(err, entity.ErrResultDiscarded):
		return ""
	}
	return err.Error()
}

// reportFailure пишет ошибку в лог и показывает её пользователю.
// Отброшенный ответ только логируется.
func reportFailure(logger *slog.Logger, n port.Notifier, chatID int64, op string, err error) error {
	if IsDiscarded(err) {
		logger.Info("result discarded", "op", op, "chat_id", chatID)
		return err
	}
	logger.Warn("request failed", "op", op, "chat_id", chatID, "error", err)
	if n == nil {
		return err
	}
	n.Notify(chatID, port.NotifyError, UserMessage(err))
	return &notifiedError{err: err}
}

// notifiedError ошибка, о которой пользователь уже получил уведомление
type notifiedError struct {
	err error
}

func (e *notifiedError) Error() string { return e.err.Error() }
func (e *notifiedError) Unwrap() error { return e.err }

// Notified сообщает, что ошибка уже показана пользователю уведомлением
func Notified(err error) bool {
	var n *notifiedError
	return errors.As(err, &n)
}
