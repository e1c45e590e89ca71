// Package create реализует HTTP-обработчик регистрации нового сервиса
// в каталоге. Только для администраторов.
package create

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/ldavidflorez/gpt-tools-api/internal/errs"
	"github.com/ldavidflorez/gpt-tools-api/internal/http/middlewarectx"
	"github.com/ldavidflorez/gpt-tools-api/internal/http/response"
	"github.com/ldavidflorez/gpt-tools-api/internal/lib/sl"
	"github.com/ldavidflorez/gpt-tools-api/internal/models"
)

// Handler управляет HTTP-запросами на регистрацию сервиса.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики каталога.
type Service interface {
	Create(ctx context.Context, req models.CreateServiceRequest) (int64, error)
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
// @Summary Зарегистрировать сервис
// @Description Добавляет новый сервис в каталог. Только для администраторов.
// @Tags Services
// @Accept  json
// @Produce  json
// @Param request body models.CreateServiceRequest true "Данные нового сервиса"
// @Success 200 {object} map[string]any "Успешное создание"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 409 {object} response.ErrorResponse "Имя сервиса занято"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /services [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.service.create"
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

	id, err := h.service.Create(r.Context(), req)
	if err != nil {
		log.Error("failed to create service", sl.Err(err))
		response.Err(w, r, err)
		return
	}

	log.Info("service created", slog.Int64("id", id))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"last_added_id": id,
	}))
}
