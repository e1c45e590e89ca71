// Package list реализует HTTP-обработчик списка сервисов каталога
// с необязательным фильтром по семейству.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/ldavidflorez/gpt-tools-api/internal/http/response"
	"github.com/ldavidflorez/gpt-tools-api/internal/lib/sl"
	"github.com/ldavidflorez/gpt-tools-api/internal/models"
)

// Handler управляет HTTP-запросами на получение списка сервисов.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики каталога.
type Service interface {
	List(ctx context.Context, family string) ([]*models.Service, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Список сервисов
// @Description Возвращает сервисы каталога с необязательным фильтром family.
// @Tags Services
// @Produce  json
// @Param family query string false "Фильтр по семейству"
// @Success 200 {object} map[string]any "Список сервисов"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /services [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.service.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	family := r.URL.Query().Get("family")

	services, err := h.service.List(r.Context(), family)
	if err != nil {
		log.Error("failed to list services", sl.Err(err))
		response.Err(w, r, err)
		return
	}

	log.Info("services listed", slog.Int("count", len(services)))
	render.JSON(w, r, response.OKWithData(services))
}
