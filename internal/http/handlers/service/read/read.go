// Package read реализует HTTP-обработчик чтения сервиса по ID.
package read

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/ldavidflorez/gpt-tools-api/internal/http/response"
	"github.com/ldavidflorez/gpt-tools-api/internal/lib/sl"
	"github.com/ldavidflorez/gpt-tools-api/internal/models"
)

// Handler управляет HTTP-запросами на чтение сервиса.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики каталога.
type Service interface {
	Get(ctx context.Context, serviceID int64) (*models.Service, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Получить сервис
// @Description Возвращает сервис каталога по его ID.
// @Tags Services
// @Produce  json
// @Param service_id path int true "ID сервиса"
// @Success 200 {object} map[string]any "Данные сервиса"
// @Failure 404 {object} response.ErrorResponse "Сервис не найден"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /services/{service_id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.service.read"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	serviceID, err := strconv.ParseInt(chi.URLParam(r, "service_id"), 10, 64)
	if err != nil {
		log.Error("invalid service id", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid service id"))
		return
	}

	service, err := h.service.Get(r.Context(), serviceID)
	if err != nil {
		log.Error("failed to get service", sl.Err(err))
		response.Err(w, r, err)
		return
	}

	render.JSON(w, r, response.OKWithData(service))
}
