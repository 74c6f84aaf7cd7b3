package inference

import (
	"errors"
	"fmt"
)

// FailureKind происхождение ошибки запроса
type FailureKind string

const (
	// FailureTransport запрос не дошёл до ответа
	FailureTransport FailureKind = "transport"
	// FailureStatus бэкенд ответил не 2xx
	FailureStatus FailureKind = "status"
	// FailureDecode тело ответа не удалось разобрать
	FailureDecode FailureKind = "decode"
)

// OperationError ошибка одного обращения к бэкенду.
// Тело ответа с ошибкой не разбирается, в сообщение попадает только код.
type OperationError struct {
	Op         string      // человекочитаемое имя операции
	Kind       FailureKind // происхождение ошибки
	StatusCode int         // HTTP-код для FailureStatus
	Err        error       // исходная причина
}

// Error возвращает сообщение вида "<Operation> failed: <status>"
func (e *OperationError) Error() string {
	switch e.Kind {
	case FailureStatus:
		return fmt.Sprintf("%s failed: %d", e.Op, e.StatusCode)
	case FailureTransport:
		return fmt.Sprintf("%s failed: network error", e.Op)
	case FailureDecode:
		return fmt.Sprintf("%s failed: invalid response", e.Op)
	default:
		return e.Op + " failed"
	}
}

// Unwrap возвращает исходную причину
func (e *OperationError) Unwrap() error {
	return e.Err
}

func statusError(op string, code int) *OperationError {
	return &OperationError{Op: op, Kind: FailureStatus, StatusCode: code}
}

func transportError(op string, err error) *OperationError {
	return &OperationError{Op: op, Kind: FailureTransport, Err: err}
}

func decodeError(op string, err error) *OperationError {
	return &OperationError{Op: op, Kind: FailureDecode, Err: err}
}

// StatusCode возвращает HTTP-код ошибки или 0
func StatusCode(err error) int {
	var opErr *OperationError
	if errors.As(err, &opErr) && opErr.Kind == FailureStatus {
		return opErr.StatusCode
	}
	return 0
}

// IsTransport сообщает, что запрос не получил ответа
func IsTransport(err error) bool {
	var opErr *OperationError
	return errors.As(err, &opErr) && opErr.Kind == FailureTransport
}
