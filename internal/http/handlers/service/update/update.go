// Package update реализует HTTP-обработчик обновления сервиса каталога,
// включая его деактивацию. Только для администраторов.
package update

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/ldavidflorez/gpt-tools-api/internal/errs"
	"github.com/ldavidflorez/gpt-tools-api/internal/http/middlewarectx"
	"github.com/ldavidflorez/gpt-tools-api/internal/http/response"
	"github.com/ldavidflorez/gpt-tools-api/internal/lib/sl"
	"github.com/ldavidflorez/gpt-tools-api/internal/models"
)

// Handler управляет HTTP-запросами на обновление сервиса.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики каталога.
type Service interface {
	Update(ctx context.Context, serviceID int64, req models.CreateServiceRequest) error
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Обновить сервис
// @Description Обновляет имя, семейство и признак активности сервиса. Только для администраторов.
// @Tags Services
// @Accept  json
// @Produce  json
// @Param service_id path int true "ID сервиса"
// @Param request body models.CreateServiceRequest true "Новые данные сервиса"
// @Success 200 {object} response.Response "Успешное обновление"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 404 {object} response.ErrorResponse "Сервис не найден"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /services/{service_id} [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.service.update"
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

	serviceID, err := strconv.ParseInt(chi.URLParam(r, "service_id"), 10, 64)
	if err != nil {
		log.Error("invalid service id", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid service id"))
		return
	}

	var req models.CreateServiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	if err := h.service.Update(r.Context(), serviceID, req); err != nil {
		log.Error("failed to update service", sl.Err(err))
		response.Err(w, r, err)
		return
	}

	log.Info("service updated", slog.Int64("id", serviceID))
	render.JSON(w, r, response.OK())
}
