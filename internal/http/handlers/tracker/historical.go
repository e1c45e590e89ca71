// Package tracker реализует HTTP-обработчики исторических отчётов
// о потреблении токенов. Сводные отчёты доступны администраторам,
// пользователь может запрашивать только собственные данные.
package tracker

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/ldavidflorez/gpt-tools-api/internal/errs"
	"github.com/ldavidflorez/gpt-tools-api/internal/http/middlewarectx"
	"github.com/ldavidflorez/gpt-tools-api/internal/http/response"
	"github.com/ldavidflorez/gpt-tools-api/internal/lib/sl"
	"github.com/ldavidflorez/gpt-tools-api/internal/models"
)

const dateLayout = "2006-01-02"

// Service описывает интерфейс бизнес-логики отчётов.
type Service interface {
	ReportAll(ctx context.Context, startDate, endDate *time.Time) (*models.Report, error)
	ReportByUser(ctx context.Context, userID int64, startDate, endDate *time.Time) (*models.Report, error)
	ReportByService(ctx context.Context, serviceID int64, startDate, endDate *time.Time) (*models.Report, error)
	ReportByUserService(ctx context.Context, userID, serviceID int64, startDate, endDate *time.Time) (*models.Report, error)
}

// Handler управляет HTTP-запросами исторических отчётов.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

func (h *Handler) logger(r *http.Request, op string) *slog.Logger {
	return h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

// dateRange извлекает необязательные параметры start_date и end_date
// в формате YYYY-MM-DD. Отсутствующий параметр возвращается как nil.
func dateRange(r *http.Request) (*time.Time, *time.Time, error) {
	var start, end *time.Time

	if raw := r.URL.Query().Get("start_date"); raw != "" {
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			return nil, nil, err
		}
		start = &t
	}
	if raw := r.URL.Query().Get("end_date"); raw != "" {
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			return nil, nil, err
		}
		end = &t
	}
	return start, end, nil
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

// All godoc
// @Summary Полный отчёт о потреблении
// @Description Возвращает все записи потребления со сводкой по пользователям. Только для администраторов.
// @Tags Tracker
// @Produce  json
// @Param start_date query string false "Начало периода (YYYY-MM-DD)"
// @Param end_date query string false "Конец периода (YYYY-MM-DD)"
// @Success 200 {object} models.Report "Отчёт"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 404 {object} response.ErrorResponse "Записи не найдены"
// @Security BearerAuth
// @Router /tracker/historical [get]
func (h *Handler) All(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.tracker.all")

	identity, ok := middlewarectx.IdentityFromContext(r.Context())
	if !ok || !identity.IsAdmin() {
		log.Error("admin role required")
		response.Err(w, r, errs.ErrForbidden)
		return
	}

	start, end, err := dateRange(r)
	if err != nil {
		log.Error("invalid date filter", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid date format, expected YYYY-MM-DD"))
		return
	}

	report, err := h.service.ReportAll(r.Context(), start, end)
	if err != nil {
		log.Error("failed to build report", sl.Err(err))
		response.Err(w, r, err)
		return
	}

	log.Info("report built", slog.Int("rows", len(report.Historical)))
	render.JSON(w, r, report)
}

// ByUser godoc
// @Summary Отчёт о потреблении пользователя
// @Description Возвращает записи потребления пользователя со сводкой. Пользователь видит только свои данные.
// @Tags Tracker
// @Produce  json
// @Param user_id path int true "ID пользователя"
// @Param start_date query string false "Начало периода (YYYY-MM-DD)"
// @Param end_date query string false "Конец периода (YYYY-MM-DD)"
// @Success 200 {object} models.Report "Отчёт"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 404 {object} response.ErrorResponse "Записи не найдены"
// @Security BearerAuth
// @Router /tracker/historical/user/{user_id} [get]
func (h *Handler) ByUser(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.tracker.byuser")

	userID, err := pathID(r, "user_id")
	if err != nil {
		log.Error("invalid user id", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid user id"))
		return
	}

	identity, ok := middlewarectx.IdentityFromContext(r.Context())
	if !ok || (!identity.IsAdmin() && identity.UserID != userID) {
		log.Error("access to foreign report denied")
		response.Err(w, r, errs.ErrForbidden)
		return
	}

	start, end, err := dateRange(r)
	if err != nil {
		log.Error("invalid date filter", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid date format, expected YYYY-MM-DD"))
		return
	}

	report, err := h.service.ReportByUser(r.Context(), userID, start, end)
	if err != nil {
		log.Error("failed to build report", sl.Err(err))
		response.Err(w, r, err)
		return
	}

	render.JSON(w, r, report)
}

// ByService godoc
// @Summary Отчёт о потреблении по сервису
// @Description Возвращает записи потребления сервиса со сводкой. Только для администраторов.
// @Tags Tracker
// @Produce  json
// @Param service_id path int true "ID сервиса"
// @Param start_date query string false "Начало периода (YYYY-MM-DD)"
// @Param end_date query string false "Конец периода (YYYY-MM-DD)"
// @Success 200 {object} models.Report "Отчёт"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 404 {object} response.ErrorResponse "Записи не найдены"
// @Security BearerAuth
// @Router /tracker/historical/service/{service_id} [get]
func (h *Handler) ByService(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.tracker.byservice")

	identity, ok := middlewarectx.IdentityFromContext(r.Context())
	if !ok || !identity.IsAdmin() {
		log.Error("admin role required")
		response.Err(w, r, errs.ErrForbidden)
		return
	}

	serviceID, err := pathID(r, "service_id")
	if err != nil {
		log.Error("invalid service id", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid service id"))
		return
	}

	start, end, err := dateRange(r)
	if err != nil {
		log.Error("invalid date filter", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid date format, expected YYYY-MM-DD"))
		return
	}

	report, err := h.service.ReportByService(r.Context(), serviceID, start, end)
	if err != nil {
		log.Error("failed to build report", sl.Err(err))
		response.Err(w, r, err)
		return
	}

	render.JSON(w, r, report)
}

// ByUserService godoc
// @Summary Отчёт о потреблении пользователя по сервису
// @Description Возвращает записи потребления пользователя по одному сервису. Пользователь видит только свои данные.
// @Tags Tracker
// @Produce  json
// @Param user_id path int true "ID пользователя"
// @Param service_id path int true "ID сервиса"
// @Param start_date query string false "Начало периода (YYYY-MM-DD)"
// @Param end_date query string false "Конец периода (YYYY-MM-DD)"
// @Success 200 {object} models.Report "Отчёт"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 404 {object} response.ErrorResponse "Записи не найдены"
// @Security BearerAuth
// @Router /tracker/historical/{user_id}/{service_id} [get]
func (h *Handler) ByUserService(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.tracker.byuserservice")

	userID, err := pathID(r, "user_id")
	if err != nil {
		log.Error("invalid user id", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid user id"))
		return
	}

	serviceID, err := pathID(r, "service_id")
	if err != nil {
		log.Error("invalid service id", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid service id"))
		return
	}

	identity, ok := middlewarectx.IdentityFromContext(r.Context())
	if !ok || (!identity.IsAdmin() && identity.UserID != userID) {
		log.Error("access to foreign report denied")
		response.Err(w, r, errs.ErrForbidden)
		return
	}

	start, end, err := dateRange(r)
	if err != nil {
		log.Error("invalid date filter", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid date format, expected YYYY-MM-DD"))
		return
	}

	report, err := h.service.ReportByUserService(r.Context(), userID, serviceID, start, end)
	if err != nil {
		log.Error("failed to build report", sl.Err(err))
		response.Err(w, r, err)
		return
	}

	render.JSON(w, r, report)
}
