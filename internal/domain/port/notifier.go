package port

// NotificationKind тип уведомления
type NotificationKind string

const (
	NotifySuccess NotificationKind = "success"
	NotifyError   NotificationKind = "error"
	NotifyInfo    NotificationKind = "info"
)

// Notifier публикует короткоживущие уведомления для пользователя.
type Notifier interface {
	Notify(chatID int64, kind NotificationKind, message string)
}
