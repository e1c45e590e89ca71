// Package gpt реализует HTTP-обработчики возможностей семейства GPT-3:
// определение языка, перевод, тональность, намерение, суммаризацию
// и генерацию сообщений.
//
// Каждый обработчик декодирует и валидирует запрос, собирает текст
// по фиксированному шаблону и передаёт его конвейеру завершений.
// Ответ провайдера возвращается клиенту без изменений.
package gpt

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"
	openai "github.com/sashabaranov/go-openai"

	"github.com/ldavidflorez/gpt-tools-api/internal/http/middlewarectx"
	"github.com/ldavidflorez/gpt-tools-api/internal/http/response"
	"github.com/ldavidflorez/gpt-tools-api/internal/lib/prompt"
	"github.com/ldavidflorez/gpt-tools-api/internal/lib/sl"
	"github.com/ldavidflorez/gpt-tools-api/internal/models"
)

// Service описывает конвейер выполнения запроса возможности.
type Service interface {
	Invoke(ctx context.Context, identity *models.Identity, serviceID int64, prompt string) (*openai.CompletionResponse, error)
}

// ServiceIDs — идентификаторы сервисов каталога для каждой возможности.
// Разрешаются по имени сервиса при старте приложения.
type ServiceIDs struct {
	LangDetection int64
	Translation   int64
	Sentiment     int64
	Intent        int64
	Summarize     int64
	Writer        int64
}

// Handler управляет HTTP-запросами возможностей GPT-3.
type Handler struct {
	log      *slog.Logger
	service  Service
	ids      ServiceIDs
	validate *validator.Validate
}

// New создает новый Handler с переданными логгером, сервисом
// и идентификаторами сервисов каталога.
func New(log *slog.Logger, service Service, ids ServiceIDs) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		ids:      ids,
		validate: validator.New(),
	}
}

// invoke выполняет общую часть обработчиков: извлекает утверждения
// пользователя, вызывает конвейер и пишет ответ провайдера.
func (h *Handler) invoke(w http.ResponseWriter, r *http.Request, log *slog.Logger, serviceID int64, promptText string) {
	identity, ok := middlewarectx.IdentityFromContext(r.Context())
	if !ok {
		log.Error("identity not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	resp, err := h.service.Invoke(r.Context(), identity, serviceID, promptText)
	if err != nil {
		log.Error("completion failed", sl.Err(err))
		response.Err(w, r, err)
		return
	}

	log.Info("completion succeeded",
		slog.Int64("service_id", serviceID),
		slog.Int("consumed_tokens", resp.Usage.TotalTokens))
	render.JSON(w, r, resp)
}

// decode декодирует и валидирует тело запроса.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, log *slog.Logger, req any) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return false
	}
	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return false
	}
	return true
}

func (h *Handler) logger(r *http.Request, op string) *slog.Logger {
	return h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

// LangDetection godoc
// @Summary Определить язык предложения
// @Tags GPT-3
// @Accept  json
// @Produce  json
// @Param request body models.PromptRequest true "Предложение"
// @Success 200 {object} map[string]any "Ответ провайдера"
// @Failure 402 {object} response.Response "Недостаточно токенов"
// @Failure 403 {object} response.ErrorResponse "Нет разрешения на сервис"
// @Failure 409 {object} response.ErrorResponse "Сервис деактивирован"
// @Failure 413 {object} response.Response "Превышен потолок токенов"
// @Security BearerAuth
// @Router /services/gpt-3/lang-detection [post]
func (h *Handler) LangDetection(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.gpt.langdetection")
	var req models.PromptRequest
	if !h.decode(w, r, log, &req) {
		return
	}
	h.invoke(w, r, log, h.ids.LangDetection, prompt.LangDetection(&req))
}

// Translation godoc
// @Summary Перевести предложение
// @Tags GPT-3
// @Accept  json
// @Produce  json
// @Param request body models.TranslationRequest true "Предложение и языки"
// @Success 200 {object} map[string]any "Ответ провайдера"
// @Security BearerAuth
// @Router /services/gpt-3/lang-translation [post]
func (h *Handler) Translation(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.gpt.translation")
	var req models.TranslationRequest
	if !h.decode(w, r, log, &req) {
		return
	}
	h.invoke(w, r, log, h.ids.Translation, prompt.Translation(&req))
}

// Sentiment godoc
// @Summary Определить тональность предложения
// @Tags GPT-3
// @Accept  json
// @Produce  json
// @Param request body models.PromptRequest true "Предложение"
// @Success 200 {object} map[string]any "Ответ провайдера"
// @Security BearerAuth
// @Router /services/gpt-3/sentiment-detect [post]
func (h *Handler) Sentiment(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.gpt.sentiment")
	var req models.PromptRequest
	if !h.decode(w, r, log, &req) {
		return
	}
	h.invoke(w, r, log, h.ids.Sentiment, prompt.Sentiment(&req))
}

// Intent godoc
// @Summary Классифицировать намерение текста
// @Tags GPT-3
// @Accept  json
// @Produce  json
// @Param request body models.IntentRequest true "Текст и метки"
// @Success 200 {object} map[string]any "Ответ провайдера"
// @Security BearerAuth
// @Router /services/gpt-3/intent-detection [post]
func (h *Handler) Intent(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.gpt.intent")
	var req models.IntentRequest
	if !h.decode(w, r, log, &req) {
		return
	}
	h.invoke(w, r, log, h.ids.Intent, prompt.Intent(&req))
}

// Summarize godoc
// @Summary Извлечь ключевые пункты сообщения
// @Tags GPT-3
// @Accept  json
// @Produce  json
// @Param request body models.PromptRequest true "Сообщение"
// @Success 200 {object} map[string]any "Ответ провайдера"
// @Security BearerAuth
// @Router /services/gpt-3/summarize [post]
func (h *Handler) Summarize(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.gpt.summarize")
	var req models.PromptRequest
	if !h.decode(w, r, log, &req) {
		return
	}
	h.invoke(w, r, log, h.ids.Summarize, prompt.Summarize(&req))
}

// Writer godoc
// @Summary Сгенерировать сообщение по пунктам
// @Tags GPT-3
// @Accept  json
// @Produce  json
// @Param request body models.WriterRequest true "Параметры сообщения"
// @Success 200 {object} map[string]any "Ответ провайдера"
// @Security BearerAuth
// @Router /services/gpt-3/writer [post]
func (h *Handler) Writer(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.gpt.writer")
	var req models.WriterRequest
	if !h.decode(w, r, log, &req) {
		return
	}
	h.invoke(w, r, log, h.ids.Writer, prompt.Writer(&req))
}
