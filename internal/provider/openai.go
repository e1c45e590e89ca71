// Package provider реализует клиент провайдера завершений. Запросы
// выполняются синхронно с фиксированным таймаутом HTTP-клиента.
package provider

import (
	"context"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/ldavidflorez/gpt-tools-api/internal/config"
)

// Client описывает контракт провайдера завершений.
type Client interface {
	Complete(ctx context.Context, prompt string) (*openai.CompletionResponse, error)
}

// OpenAIClient реализует Client поверх API OpenAI.
type OpenAIClient struct {
	client              *openai.Client
	model               string
	temperature         float32
	maxCompletionTokens int
}

// New создаёт клиент OpenAI с фиксированным таймаутом запросов.
func New(cfg config.OpenAI) *OpenAIClient {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &OpenAIClient{
		client:              openai.NewClientWithConfig(clientConfig),
		model:               cfg.Model,
		temperature:         cfg.Temperature,
		maxCompletionTokens: cfg.MaxCompletionTokens,
	}
}

// Complete отправляет текст запроса провайдеру и возвращает его ответ
// без изменений, включая статистику потребления токенов.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (*openai.CompletionResponse, error) {
	const op = "provider.Complete"
	resp, err := c.client.CreateCompletion(ctx, openai.CompletionRequest{
		Model:            c.model,
		Prompt:           prompt,
		Temperature:      c.temperature,
		MaxTokens:        c.maxCompletionTokens,
		TopP:             1,
		FrequencyPenalty: 0,
		PresencePenalty:  0,
		Stop:             []string{"12."},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &resp, nil
}
