package entity

import "errors"

var (
	// ErrActionBusy действие уже выполняется, повторный запуск запрещён
	ErrActionBusy = errors.New("action is already in progress")
	// ErrNotImage выбранный файл не является изображением
	ErrNotImage = errors.New("file is not an image")
	// ErrResultDiscarded ответ пришёл после ухода пользователя и был отброшен
	ErrResultDiscarded = errors.New("result discarded: workspace was reset")
	// ErrNoResult нет текущего результата анализа
	ErrNoResult = errors.New("no analysis result")
	// ErrNoReport отчёт ещё не сформирован
	ErrNoReport = errors.New("no generated report")
	// ErrNoBatch пакетное задание ещё не отправлено
	ErrNoBatch = errors.New("no batch job")
)

// ValidationError ошибка локальной проверки: запрос при ней не отправляется.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError создаёт ошибку локальной проверки
func NewValidationError(msg string) *ValidationError {
	return &ValidationError{Message: msg}
}

// IsValidation сообщает, является ли ошибка результатом локальной проверки.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
