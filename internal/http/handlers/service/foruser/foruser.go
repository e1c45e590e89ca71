// Package foruser реализует HTTP-обработчик списка квот пользователя:
// какие сервисы ему выданы и сколько токенов осталось. Пользователь
// видит только собственный список, администратор — любой.
package foruser

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/ldavidflorez/gpt-tools-api/internal/errs"
	"github.com/ldavidflorez/gpt-tools-api/internal/http/middlewarectx"
	"github.com/ldavidflorez/gpt-tools-api/internal/http/response"
	"github.com/ldavidflorez/gpt-tools-api/internal/lib/sl"
	"github.com/ldavidflorez/gpt-tools-api/internal/models"
)

// Handler управляет HTTP-запросами на получение квот пользователя.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики каталога.
type Service interface {
	ListForUser(ctx context.Context, userID int64) ([]*models.Entitlement, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Квоты пользователя
// @Description Возвращает строки квот пользователя: сервисы и остатки токенов.
// @Tags Services
// @Produce  json
// @Param user_id path int true "ID пользователя"
// @Success 200 {object} map[string]any "Список квот"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 404 {object} response.ErrorResponse "Пользователю не выдан ни один сервис"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /services/user/{user_id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.service.foruser"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID, err := strconv.ParseInt(chi.URLParam(r, "user_id"), 10, 64)
	if err != nil {
		log.Error("invalid user id", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid user id"))
		return
	}

	identity, ok := middlewarectx.IdentityFromContext(r.Context())
	if !ok || (!identity.IsAdmin() && identity.UserID != userID) {
		log.Error("access to foreign user denied")
		response.Err(w, r, errs.ErrForbidden)
		return
	}

	entitlements, err := h.service.ListForUser(r.Context(), userID)
	if err != nil {
		log.Error("failed to list entitlements for user", sl.Err(err))
		response.Err(w, r, err)
		return
	}

	render.JSON(w, r, response.OKWithData(entitlements))
}
