// api реализует HTTP/JSON-клиент удалённого сервиса платформы.
package api

import (
	"errors"
	"net/http"
)

var (
	// ErrUnavailable — сетевая ошибка или 5xx: сервис недоступен, запрос можно повторить.
	ErrUnavailable = errors.New("service unavailable")
	// ErrNotFound — сущность отсутствует на сервере.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized — сервер требует аутентификацию.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidArgument — сервер отклонил параметры запроса.
	ErrInvalidArgument = errors.New("invalid argument")
)

// errFromStatus — маппинг HTTP-статуса в сентинельную ошибку клиента.
// Таблица обратна маппингу шлюза (400 <- invalid_argument, 404 <- not_found,
// 401 <- unauthenticated, 5xx <- unavailable/internal).
func errFromStatus(status int) error {
	switch {
	case status == http.StatusBadRequest:
		return ErrInvalidArgument
	case status == http.StatusUnauthorized:
		return ErrUnauthorized
	case status == http.StatusNotFound:
		return ErrNotFound
	case status >= http.StatusInternalServerError:
		return ErrUnavailable
	default:
		return ErrUnavailable
	}
}
