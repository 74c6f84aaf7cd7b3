package telegram

import (
	"errors"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"

	"cyto-bot/internal/domain/port"
	"cyto-bot/internal/infrastructure/notify"
)

// fakeSender запоминает всё, что бот отправил
type fakeSender struct {
	mu      sync.Mutex
	sent    []tgbotapi.Chattable
	deleted []int
	nextID  int
	sendErr error
	delay   time.Duration // задержка Send, как у медленной сети
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	time.Sleep(f.delay)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return tgbotapi.Message{}, f.sendErr
	}
	f.nextID++
	f.sent = append(f.sent, c)
	return tgbotapi.Message{MessageID: f.nextID}, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if del, ok := c.(tgbotapi.DeleteMessageConfig); ok {
		f.deleted = append(f.deleted, del.MessageID)
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

// texts тексты отправленных сообщений по порядку
func (f *fakeSender) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.sent {
		switch m := c.(type) {
		case tgbotapi.MessageConfig:
			out = append(out, m.Text)
		case tgbotapi.EditMessageTextConfig:
			out = append(out, m.Text)
		}
	}
	return out
}

func TestNotificationSink_ShowAndDismiss(t *testing.T) {
	api := &fakeSender{}
	sink := NewNotificationSink(api, nil)

	toast := notify.Toast{ID: "t1", ChatID: 10, Kind: port.NotifySuccess, Message: "Analysis complete"}
	sink.OnShow(toast)
	require.Equal(t, []string{"✅ Analysis complete"}, api.texts())

	sink.OnDismiss(toast)
	require.Equal(t, []int{1}, api.deleted)

	// Повторное скрытие ничего не удаляет
	sink.OnDismiss(toast)
	require.Equal(t, []int{1}, api.deleted)
}

func TestNotificationSink_UnknownToast(t *testing.T) {
	api := &fakeSender{}
	sink := NewNotificationSink(api, nil)

	sink.OnDismiss(notify.Toast{ID: "missing", ChatID: 10})
	require.Empty(t, api.deleted)
}

func TestNotificationSink_SendFailure(t *testing.T) {
	api := &fakeSender{sendErr: errors.New("bad gateway")}
	sink := NewNotificationSink(api, nil)

	toast := notify.Toast{ID: "t1", ChatID: 10, Kind: port.NotifyError, Message: "Segmentation failed: 500"}
	sink.OnShow(toast)
	sink.OnDismiss(toast)
	require.Empty(t, api.deleted)
}

func TestNotificationSink_WithService(t *testing.T) {
	api := &fakeSender{}
	svc := notify.New(notify.Config{Capacity: 1}, NewNotificationSink(api, nil), nil)
	defer svc.Close()

	svc.Notify(10, port.NotifyInfo, "first")
	svc.Notify(10, port.NotifyInfo, "second")

	require.Equal(t, []string{"ℹ️ first", "ℹ️ second"}, api.texts())
	// Первое вытеснено вторым
	require.Equal(t, []int{1}, api.deleted)
}

func (f *fakeSender) deletedIDs() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.deleted...)
}

func TestNotificationSink_ExpiresDuringSlowSend(t *testing.T) {
	api := &fakeSender{delay: 80 * time.Millisecond}
	svc := notify.New(notify.Config{TTL: 20 * time.Millisecond}, NewNotificationSink(api, nil), nil)
	defer svc.Close()

	svc.Notify(10, port.NotifyInfo, "slow")

	// Таймер срабатывает раньше, чем Send возвращает ID сообщения
	require.Eventually(t, func() bool {
		return len(api.deletedIDs()) == 1
	}, time.Second, 5*time.Millisecond)
	require.Equal(t, []int{1}, api.deletedIDs())
	require.Empty(t, svc.Active(10))
}

func TestNotificationSink_DismissBeforeShow(t *testing.T) {
	api := &fakeSender{}
	sink := NewNotificationSink(api, nil)

	toast := notify.Toast{ID: "t1", ChatID: 10, Kind: port.NotifyInfo, Message: "late"}
	sink.OnDismiss(toast)
	sink.OnShow(toast)

	require.Empty(t, api.texts())
	require.Empty(t, api.deletedIDs())
}
