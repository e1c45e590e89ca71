// Package list реализует HTTP-обработчик списка пользователей
// с необязательными фильтрами по роли и тарифу. Только для администраторов.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/ldavidflorez/gpt-tools-api/internal/errs"
	"github.com/ldavidflorez/gpt-tools-api/internal/http/middlewarectx"
	"github.com/ldavidflorez/gpt-tools-api/internal/http/response"
	"github.com/ldavidflorez/gpt-tools-api/internal/lib/sl"
	"github.com/ldavidflorez/gpt-tools-api/internal/models"
)

// Handler управляет HTTP-запросами на получение списка пользователей.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики списка пользователей.
type Service interface {
	List(ctx context.Context, role, subscription string) ([]*models.PublicUser, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Список пользователей
// @Description Возвращает пользователей с фильтрами role и subscription. Только для администраторов.
// @Tags Users
// @Produce  json
// @Param role query string false "Фильтр по роли (admin, user)"
// @Param subscription query string false "Фильтр по тарифу (standard, premium)"
// @Success 200 {object} map[string]any "Список пользователей"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /users [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	identity, ok := middlewarectx.IdentityFromContext(r.Context())
	if !ok || !identity.IsAdmin() {
		log.Error("admin role required")
		response.Err(w, r, errs.ErrForbidden)
		return
	}

	role := r.URL.Query().Get("role")
	subscription := r.URL.Query().Get("subscription")

	users, err := h.service.List(r.Context(), role, subscription)
	if err != nil {
		log.Error("failed to list users", sl.Err(err))
		response.Err(w, r, err)
		return
	}

	log.Info("users listed", slog.Int("count", len(users)))
	render.JSON(w, r, response.OKWithData(users))
}
