// Package completion реализует конвейер обращения к провайдеру
// завершений: проверку активности сервиса, разрешений, потолка
// запроса и остатка квоты, затем вызов провайдера и фиксацию
// потребления.
package completion

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"

	"github.com/ldavidflorez/gpt-tools-api/internal/errs"
	"github.com/ldavidflorez/gpt-tools-api/internal/lib/sl"
	"github.com/ldavidflorez/gpt-tools-api/internal/lib/tokencount"
	"github.com/ldavidflorez/gpt-tools-api/internal/models"
	"github.com/ldavidflorez/gpt-tools-api/internal/provider"
)

// Repository описывает методы хранилища, используемые конвейером.
type Repository interface {
	GetService(ctx context.Context, serviceID int64) (*models.Service, error)
	GetEntitlement(ctx context.Context, userID, serviceID int64) (*models.Entitlement, error)
	// ConsumeTokens фиксирует потребление и, при decrement, списывает
	// квоту в той же транзакции.
	ConsumeTokens(ctx context.Context, userID, serviceID, tokens int64, decrement bool) (int64, error)
}

// UsagePublisher публикует события потребления для асинхронного биллинга.
type UsagePublisher interface {
	PublishUsage(event *models.UsageEvent) error
}

// Service выполняет запросы возможностей с учётом квот.
type Service struct {
	log       *slog.Logger
	repo      Repository
	provider  provider.Client
	counter   tokencount.Counter
	publisher UsagePublisher // nil, если публикация отключена
	maxTokens int64
}

// New создает новый экземпляр Service. publisher может быть nil.
func New(log *slog.Logger, repo Repository, providerClient provider.Client,
	counter tokencount.Counter, publisher UsagePublisher, maxTokens int64) *Service {
	return &Service{
		log:       log,
		repo:      repo,
		provider:  providerClient,
		counter:   counter,
		publisher: publisher,
		maxTokens: maxTokens,
	}
}

// Invoke выполняет запрос возможности для пользователя.
//
// Проверки идут в фиксированном порядке: активность сервиса,
// разрешение, потолок запроса, остаток квоты. До вызова провайдера
// никаких изменений в хранилище не происходит, поэтому отказ на любой
// проверке не оставляет следов. Для тарифа premium остаток квоты
// не проверяется и не списывается, но потребление фиксируется.
func (s *Service) Invoke(ctx context.Context, identity *models.Identity, serviceID int64, prompt string) (*openai.CompletionResponse, error) {
	const op = "completion.Invoke"

	service, err := s.repo.GetService(ctx, serviceID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !service.IsActive {
		return nil, fmt.Errorf("%s: %w", op, errs.ErrServiceUnavailable)
	}

	if !identity.CanUseService(serviceID) {
		return nil, fmt.Errorf("%s: %w", op, errs.ErrForbidden)
	}

	estimated := s.counter.Count(prompt)
	if estimated > s.maxTokens {
		return nil, fmt.Errorf("%s: %w", op, &errs.RequestTooLargeError{
			EstimatedTokens: estimated,
			MaxTokens:       s.maxTokens,
		})
	}

	standard := identity.Subscription != models.SubscriptionPremium
	if standard {
		entitlement, err := s.repo.GetEntitlement(ctx, identity.UserID, serviceID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if estimated > entitlement.AvailableTokens {
			return nil, fmt.Errorf("%s: %w", op, &errs.InsufficientTokensError{
				RequestedTokens: estimated,
				AvailableTokens: entitlement.AvailableTokens,
			})
		}
	}

	resp, err := s.provider.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// Списывается фактическое потребление из ответа провайдера,
	// а не предварительная оценка.
	consumed := int64(resp.Usage.TotalTokens)
	if _, err := s.repo.ConsumeTokens(ctx, identity.UserID, serviceID, consumed, standard); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if s.publisher != nil {
		event := &models.UsageEvent{
			ID:             uuid.New().String(),
			UserID:         identity.UserID,
			ServiceID:      serviceID,
			ConsumedTokens: consumed,
			Timestamp:      time.Now().UTC(),
		}
		if err := s.publisher.PublishUsage(event); err != nil {
			// Потребление уже зафиксировано, публикация не критична.
			s.log.Warn("failed to publish usage event", sl.Err(err),
				slog.Int64("user_id", identity.UserID),
				slog.Int64("service_id", serviceID))
		}
	}

	return resp, nil
}
