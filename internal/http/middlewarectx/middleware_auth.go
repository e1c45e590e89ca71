// Package middlewarectx содержит HTTP middleware для обработки и проверки JWT токенов.
//
// JWTMiddleware извлекает токен из заголовка Authorization или cookie,
// валидирует его через сервис аутентификации с учётом списка отозванных
// токенов и добавляет утверждения пользователя в контекст запроса.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/ldavidflorez/gpt-tools-api/internal/errs"
	"github.com/ldavidflorez/gpt-tools-api/internal/http/response"
	"github.com/ldavidflorez/gpt-tools-api/internal/lib/sl"
	"github.com/ldavidflorez/gpt-tools-api/internal/models"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// IdentityKey — ключ для утверждений пользователя в контексте.
	IdentityKey Key = "identity"
	// TokenKey — ключ для исходного токена в контексте (нужен для logout).
	TokenKey Key = "token"
)

// AccessTokenCookie — имя cookie с токеном доступа.
const AccessTokenCookie = "access_token"

// Service описывает интерфейс сервиса для валидации JWT токена.
type Service interface {
	Validate(ctx context.Context, token string) (*models.Identity, error)
}

// TokenFromRequest извлекает токен из заголовка Authorization или,
// при его отсутствии, из cookie access_token. Возвращает пустую
// строку, если токен не найден.
func TokenFromRequest(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	cookie, err := r.Cookie(AccessTokenCookie)
	if err == nil && strings.HasPrefix(cookie.Value, "Bearer ") {
		return strings.TrimPrefix(cookie.Value, "Bearer ")
	}
	return ""
}

// IdentityFromContext возвращает утверждения пользователя из контекста.
func IdentityFromContext(ctx context.Context) (*models.Identity, bool) {
	identity, ok := ctx.Value(IdentityKey).(*models.Identity)
	return identity, ok
}

// JWTMiddleware возвращает HTTP middleware, который проверяет JWT запроса.
//
// Если токен валиден, добавляет утверждения пользователя и сам токен
// в контекст запроса. Отозванный токен отклоняется со статусом 403,
// остальные ошибки валидации — со статусом 401.
func JWTMiddleware(authService Service, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			tokenStr := TokenFromRequest(r)
			if tokenStr == "" {
				log.Error("missing or invalid authorization header")
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error(errs.ErrUnauthenticated.Error()))
				return
			}

			identity, err := authService.Validate(r.Context(), tokenStr)
			if err != nil {
				log.Error("invalid or expired token", sl.Err(err))
				response.Err(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), IdentityKey, identity)
			ctx = context.WithValue(ctx, TokenKey, tokenStr)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
