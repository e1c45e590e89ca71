// Package logout реализует HTTP-обработчик выхода из системы.
//
// Токен запроса помещается в список отозванных до истечения его срока,
// cookie с токеном удаляется.
package logout

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/ldavidflorez/gpt-tools-api/internal/http/middlewarectx"
	"github.com/ldavidflorez/gpt-tools-api/internal/http/response"
	"github.com/ldavidflorez/gpt-tools-api/internal/lib/sl"
)

// Handler обрабатывает HTTP-запросы выхода из системы.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики отзыва токена.
type Service interface {
	Logout(ctx context.Context, token string) error
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Выход из системы
// @Description Отзывает текущий токен и удаляет cookie с токеном доступа.
// @Tags Auth
// @Produce  json
// @Success 200 {object} map[string]any "Успешный выход"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /logout [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.logout"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	token, _ := r.Context().Value(middlewarectx.TokenKey).(string)
	if token == "" {
		log.Error("token not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	if err := h.service.Logout(r.Context(), token); err != nil {
		log.Error("logout failed", sl.Err(err))
		response.Err(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middlewarectx.AccessTokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	log.Info("logout success")
	render.JSON(w, r, map[string]any{
		"detail": "Logout successful",
	})
}
