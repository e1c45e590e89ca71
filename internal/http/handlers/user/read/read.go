// Package read реализует HTTP-обработчик чтения пользователя по ID.
// Пользователь видит только собственную запись, администратор — любую.
package read

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

// Handler управляет HTTP-запросами на чтение пользователя.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики чтения пользователя.
type Service interface {
	Get(ctx context.Context, userID int64) (*models.PublicUser, error)
	ListEntitlements(ctx context.Context, userID int64) ([]*models.Entitlement, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Получить пользователя
// @Description Возвращает пользователя и его квоты. Пользователь видит только себя.
// @Tags Users
// @Produce  json
// @Param user_id path int true "ID пользователя"
// @Success 200 {object} map[string]any "Данные пользователя"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /users/{user_id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.read"
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

	user, err := h.service.Get(r.Context(), userID)
	if err != nil {
		log.Error("failed to get user", sl.Err(err))
		response.Err(w, r, err)
		return
	}

	entitlements, err := h.service.ListEntitlements(r.Context(), userID)
	if err != nil {
		log.Error("failed to list entitlements", sl.Err(err))
		response.Err(w, r, err)
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"user":         user,
		"entitlements": entitlements,
	}))
}
