// Package errs определяет доменную таксономию ошибок шлюза.
// Ошибки квот несут детали (оценку, лимит, остаток), остальные —
// сентинелы, проверяемые через errors.Is.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated — невалидный токен, неверные учётные данные
	// или деактивированный пользователь.
	ErrUnauthenticated = errors.New("could not validate credentials")
	// ErrTokenRevoked — токен был отозван через logout до истечения срока.
	ErrTokenRevoked = errors.New("invalid token, please generate a new token")
	// ErrForbidden — несоответствие роли или владения ресурсом.
	ErrForbidden = errors.New("you don't have permission to access this resource")
	// ErrNotFound — пользователь, сервис или запись не найдены.
	ErrNotFound = errors.New("not found")
	// ErrConflict — нарушение уникальности при создании.
	ErrConflict = errors.New("already exists")
	// ErrServiceUnavailable — сервис деактивирован администратором.
	ErrServiceUnavailable = errors.New("the service was deactivated")
	// ErrEntitlementMissing — у standard-пользователя нет строки квоты
	// для сервиса. Регистрация обязана её создавать, поэтому это
	// нарушение предусловия, а не ошибка клиента.
	ErrEntitlementMissing = errors.New("entitlement row is missing for user and service")
)

// RequestTooLargeError — оценка токенов запроса превышает глобальный
// потолок на один запрос.
type RequestTooLargeError struct {
	EstimatedTokens int64
	MaxTokens       int64
}

func (e *RequestTooLargeError) Error() string {
	return fmt.Sprintf("maximum capacity of tokens per request exceeded: estimated %d, maximum allowed %d",
		e.EstimatedTokens, e.MaxTokens)
}

// InsufficientTokensError — попытка списания превышает остаток квоты
// пользователя для сервиса. RequestedTokens — сколько пытались списать:
// на предварительной проверке это оценка запроса, после вызова
// провайдера — фактически потреблённые токены.
type InsufficientTokensError struct {
	RequestedTokens int64
	AvailableTokens int64
}

func (e *InsufficientTokensError) Error() string {
	return fmt.Sprintf("not enough tokens available: requested %d, available %d",
		e.RequestedTokens, e.AvailableTokens)
}
