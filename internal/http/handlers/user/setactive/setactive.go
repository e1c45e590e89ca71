// Package setactive реализует HTTP-обработчик включения и отключения
// учётной записи. Отключённый пользователь не может войти в систему,
// уже выданные токены продолжают действовать до истечения срока.
package setactive

import (
	"context"
	"encoding/json"
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
)

// Request — структура входных данных для смены признака активности.
type Request struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

// Handler управляет HTTP-запросами на смену признака активности.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики активации учётной записи.
type Service interface {
	SetActive(ctx context.Context, userID int64, isActive bool) error
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Включить или отключить учётную запись
// @Description Меняет признак активности пользователя. Только для администраторов.
// @Tags Users
// @Accept  json
// @Produce  json
// @Param user_id path int true "ID пользователя"
// @Param request body Request true "Признак активности"
// @Success 200 {object} response.Response "Успешное изменение"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /users/{user_id}/active [patch]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.setactive"
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

	userID, err := strconv.ParseInt(chi.URLParam(r, "user_id"), 10, 64)
	if err != nil {
		log.Error("invalid user id", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid user id"))
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.IsActive == nil {
		log.Error("failed to decode request")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.service.SetActive(r.Context(), userID, *req.IsActive); err != nil {
		log.Error("failed to change user state", sl.Err(err))
		response.Err(w, r, err)
		return
	}

	log.Info("user state changed", slog.Int64("id", userID), slog.Bool("is_active", *req.IsActive))
	render.JSON(w, r, response.OK())
}
