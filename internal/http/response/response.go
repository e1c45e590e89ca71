// Package response содержит вспомогательные типы и функции для формирования
// унифицированных JSON‑ответов HTTP‑обработчиков. Пакет упрощает возврат
// успешных ответов, ошибок и сообщений валидации в едином формате,
// а также отображение доменных ошибок на HTTP-статусы.
package response

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/ldavidflorez/gpt-tools-api/internal/errs"
)

// Response описывает стандартную структуру JSON‑ответа сервера.
// Поле Status — статус запроса ("OK" или "Error").
// Поле Error — текст ошибки (опционально, при неуспехе).
// Поле Details — дополнительные сведения об ошибке (например, остаток квоты).
// Поле Data — данные ответа (опционально, при успехе).
type Response struct {
	Status  string         `json:"status"`
	Error   string         `json:"error,omitempty"`
	Details map[string]any `json:"details,omitempty"`
	Data    any            `json:"data,omitempty"`
}

// ErrorResponse — структура ошибки для Swagger-документации.
// Используется в аннотациях @Failure как возвращаемый тип ошибки.
type ErrorResponse struct {
	Status string `json:"status" example:"Error"`
	Error  string `json:"error" example:"invalid request body"`
}

const (
	// StatusOK — значение статуса для успешного ответа.
	StatusOK = "OK"
	// StatusError — значение статуса для ответа с ошибкой.
	StatusError = "Error"
)

// OK возвращает успешный Response без данных.
func OK() Response {
	return Response{Status: StatusOK}
}

// OKWithData возвращает успешный Response с переданными данными.
func OKWithData(data any) Response {
	return Response{
		Status: StatusOK,
		Data:   data,
	}
}

// Error возвращает Response с ошибкой и переданным сообщением.
func Error(msg string) ErrorResponse {
	return ErrorResponse{
		Status: StatusError,
		Error:  msg,
	}
}

// ErrorWithDetails возвращает Response с ошибкой и дополнительными сведениями.
func ErrorWithDetails(msg string, details map[string]any) Response {
	return Response{
		Status:  StatusError,
		Error:   msg,
		Details: details,
	}
}

// ValidationError формирует Response со статусом Error на основе ошибок валидации.
// Каждое нарушение формируется в человеко‑читаемый текст, объединённый через запятую.
func ValidationError(errs validator.ValidationErrors) Response {
	var errsMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "alphanum":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s can contain only numbers and letters", err.Field()))
		case "oneof":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be one of: %s", err.Field(), err.Param()))
		case "min":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is too short", err.Field()))
		case "max":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is too long", err.Field()))
		case "gt", "gte":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is out of range", err.Field()))
		default:
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is not a valid", err.Field()))
		}
	}
	return Response{
		Status: StatusError,
		Error:  strings.Join(errsMsgs, ", "),
	}
}

// Err отображает доменную ошибку на HTTP-статус и пишет JSON-ответ.
// Неизвестные ошибки скрываются за общим сообщением с кодом 500.
func Err(w http.ResponseWriter, r *http.Request, err error) {
	var tooLarge *errs.RequestTooLargeError
	var insufficient *errs.InsufficientTokensError

	switch {
	case errors.Is(err, errs.ErrUnauthenticated):
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, Error(errs.ErrUnauthenticated.Error()))
	case errors.Is(err, errs.ErrTokenRevoked):
		w.WriteHeader(http.StatusForbidden)
		render.JSON(w, r, Error(errs.ErrTokenRevoked.Error()))
	case errors.Is(err, errs.ErrForbidden):
		w.WriteHeader(http.StatusForbidden)
		render.JSON(w, r, Error(errs.ErrForbidden.Error()))
	case errors.Is(err, errs.ErrNotFound):
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, Error("no data found for the specified resource"))
	case errors.Is(err, errs.ErrConflict):
		w.WriteHeader(http.StatusConflict)
		render.JSON(w, r, Error("resource already exists"))
	case errors.Is(err, errs.ErrServiceUnavailable):
		w.WriteHeader(http.StatusConflict)
		render.JSON(w, r, Error(errs.ErrServiceUnavailable.Error()))
	case errors.As(err, &tooLarge):
		w.WriteHeader(http.StatusRequestEntityTooLarge)
		render.JSON(w, r, ErrorWithDetails("maximum capacity of tokens per request exceeded", map[string]any{
			"tokens_to_consume": tooLarge.EstimatedTokens,
			"maximum_allowed":   tooLarge.MaxTokens,
		}))
	case errors.As(err, &insufficient):
		w.WriteHeader(http.StatusPaymentRequired)
		render.JSON(w, r, ErrorWithDetails("you do not have enough tokens available", map[string]any{
			"tokens_to_consume": insufficient.RequestedTokens,
			"available_tokens":  insufficient.AvailableTokens,
		}))
	default:
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, Error("internal server error"))
	}
}
