package receiver

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// Ошибки управления жизненным циклом приёмника
var (
	// ErrAlreadyRunning повторный Start без предшествующего Stop
	ErrAlreadyRunning = errors.New("приёмник уже запущен")

	// ErrTransportClosed операция над закрытым транспортом
	ErrTransportClosed = errors.New("транспорт не активен")

	// ErrNoRemoteAddr отправка без известного удалённого адреса
	ErrNoRemoteAddr = errors.New("удалённый адрес не установлен")
)

// NetworkErrorType определяет типы сетевых ошибок для улучшенной обработки
type NetworkErrorType int

const (
	ErrorTypeTemporary  NetworkErrorType = iota // Временная ошибка (retry возможен)
	ErrorTypePermanent                          // Постоянная ошибка (retry бессмыслен)
	ErrorTypeTimeout                            // Таймаут (нормальное поведение)
	ErrorTypeConnection                         // Проблемы соединения
	ErrorTypeUnknown                            // Неклассифицированная ошибка
)

// ClassifiedError обертка для сетевых ошибок с дополнительной информацией.
// Код ошибки ОС сохраняется в Err и доступен через errors.Unwrap/As.
type ClassifiedError struct {
	Type      NetworkErrorType
	Operation string
	Err       error
	Retryable bool
}

func (e *ClassifiedError) Error() string {
	return fmt.Sprintf("%s: %s (type: %s, retryable: %t)",
		e.Operation, e.Err.Error(), e.typeString(), e.Retryable)
}

func (e *ClassifiedError) Unwrap() error {
	return e.Err
}

// Timeout реализует net.Error, чтобы errors.As продолжал работать
// поверх классифицированной обертки
func (e *ClassifiedError) Timeout() bool {
	return e.Type == ErrorTypeTimeout
}

func (e *ClassifiedError) typeString() string {
	switch e.Type {
	case ErrorTypeTemporary:
		return "temporary"
	case ErrorTypePermanent:
		return "permanent"
	case ErrorTypeTimeout:
		return "timeout"
	case ErrorTypeConnection:
		return "connection"
	default:
		return "unknown"
	}
}

// classifyNetworkError анализирует сетевую ошибку и возвращает классифицированную версию
func classifyNetworkError(operation string, err error) error {
	if err == nil {
		return nil
	}

	classified := &ClassifiedError{
		Operation: operation,
		Err:       err,
		Type:      ErrorTypeUnknown,
		Retryable: false,
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		classified.Type = ErrorTypeTimeout
		classified.Retryable = true
		return classified
	}

	switch {
	case isConnectionError(err):
		classified.Type = ErrorTypeConnection
		classified.Retryable = true

	case isPermanentError(err):
		classified.Type = ErrorTypePermanent
		classified.Retryable = false
	}

	return classified
}

// isTimeoutError проверяет является ли ошибка истечением таймаута чтения.
// Таймаут это checkpoint отмены цикла приёма, не сбой.
func isTimeoutError(err error) bool {
	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified.Type == ErrorTypeTimeout
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// isConnectionError проверяет является ли ошибка связанной с соединением
func isConnectionError(err error) bool {
	errStr := err.Error()
	return containsAny(errStr, []string{
		"connection refused",
		"connection reset",
		"network is unreachable",
		"host is unreachable",
		"no route to host",
	})
}

// isPermanentError проверяет является ли ошибка постоянной
func isPermanentError(err error) bool {
	errStr := err.Error()
	return containsAny(errStr, []string{
		"invalid argument",
		"address family not supported",
		"permission denied",
		"operation not supported",
	})
}

func containsAny(s string, substrs []string) bool {
	for _, substr := range substrs {
		if strings.Contains(s, substr) {
			return true
		}
	}
	return false
}
