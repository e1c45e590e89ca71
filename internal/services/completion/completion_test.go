package completion_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ldavidflorez/gpt-tools-api/internal/errs"
	"github.com/ldavidflorez/gpt-tools-api/internal/models"
	"github.com/ldavidflorez/gpt-tools-api/internal/services/completion"
)

type RepoMock struct {
	mock.Mock
}

func (m *RepoMock) GetService(ctx context.Context, serviceID int64) (*models.Service, error) {
	args := m.Called(ctx, serviceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Service), args.Error(1)
}

func (m *RepoMock) GetEntitlement(ctx context.Context, userID, serviceID int64) (*models.Entitlement, error) {
	args := m.Called(ctx, userID, serviceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Entitlement), args.Error(1)
}

func (m *RepoMock) ConsumeTokens(ctx context.Context, userID, serviceID, tokens int64, decrement bool) (int64, error) {
	args := m.Called(ctx, userID, serviceID, tokens, decrement)
	return args.Get(0).(int64), args.Error(1)
}

type ProviderMock struct {
	mock.Mock
}

func (m *ProviderMock) Complete(ctx context.Context, prompt string) (*openai.CompletionResponse, error) {
	args := m.Called(ctx, prompt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*openai.CompletionResponse), args.Error(1)
}

type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) PublishUsage(event *models.UsageEvent) error {
	args := m.Called(event)
	return args.Error(0)
}

// Счётчик с фиксированной оценкой, чтобы тесты не зависели от BPE-словаря.
type fixedCounter struct {
	tokens int64
}

func (c fixedCounter) Count(_ string) int64 { return c.tokens }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func standardIdentity() *models.Identity {
	return &models.Identity{
		UserID:       1,
		Username:     "testuser",
		Role:         models.RoleUser,
		Subscription: models.SubscriptionStandard,
		Permissions:  []int64{5},
	}
}

func activeService() *models.Service {
	return &models.Service{ID: 5, Name: "summarize", Family: "gpt-3", IsActive: true}
}

func providerResponse(totalTokens int) *openai.CompletionResponse {
	return &openai.CompletionResponse{
		Choices: []openai.CompletionChoice{{Text: "result"}},
		Usage:   openai.Usage{TotalTokens: totalTokens},
	}
}

func TestInvoke_Success(t *testing.T) {
	repo := new(RepoMock)
	providerClient := new(ProviderMock)
	publisher := new(PublisherMock)

	repo.On("GetService", mock.Anything, int64(5)).Return(activeService(), nil).Once()
	repo.On("GetEntitlement", mock.Anything, int64(1), int64(5)).
		Return(&models.Entitlement{UserID: 1, ServiceID: 5, AvailableTokens: 100}, nil).Once()
	providerClient.On("Complete", mock.Anything, "some prompt").Return(providerResponse(42), nil).Once()
	repo.On("ConsumeTokens", mock.Anything, int64(1), int64(5), int64(42), true).Return(int64(10), nil).Once()
	publisher.On("PublishUsage", mock.MatchedBy(func(e *models.UsageEvent) bool {
		return e.UserID == 1 && e.ServiceID == 5 && e.ConsumedTokens == 42 && e.ID != ""
	})).Return(nil).Once()

	service := completion.New(discardLogger(), repo, providerClient, fixedCounter{tokens: 20}, publisher, 1000)
	resp, err := service.Invoke(context.Background(), standardIdentity(), 5, "some prompt")

	require.NoError(t, err)
	assert.Equal(t, 42, resp.Usage.TotalTokens)
	repo.AssertExpectations(t)
	providerClient.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestInvoke_InactiveService(t *testing.T) {
	repo := new(RepoMock)
	providerClient := new(ProviderMock)

	inactive := activeService()
	inactive.IsActive = false
	repo.On("GetService", mock.Anything, int64(5)).Return(inactive, nil).Once()

	service := completion.New(discardLogger(), repo, providerClient, fixedCounter{tokens: 20}, nil, 1000)
	_, err := service.Invoke(context.Background(), standardIdentity(), 5, "some prompt")

	assert.ErrorIs(t, err, errs.ErrServiceUnavailable)
	providerClient.AssertNotCalled(t, "Complete")
	repo.AssertNotCalled(t, "ConsumeTokens")
}

func TestInvoke_NoPermission(t *testing.T) {
	repo := new(RepoMock)
	providerClient := new(ProviderMock)

	repo.On("GetService", mock.Anything, int64(7)).
		Return(&models.Service{ID: 7, Name: "writer", IsActive: true}, nil).Once()

	service := completion.New(discardLogger(), repo, providerClient, fixedCounter{tokens: 20}, nil, 1000)
	_, err := service.Invoke(context.Background(), standardIdentity(), 7, "some prompt")

	assert.ErrorIs(t, err, errs.ErrForbidden)
	providerClient.AssertNotCalled(t, "Complete")
}

func TestInvoke_RequestTooLarge(t *testing.T) {
	repo := new(RepoMock)
	providerClient := new(ProviderMock)

	repo.On("GetService", mock.Anything, int64(5)).Return(activeService(), nil).Once()

	service := completion.New(discardLogger(), repo, providerClient, fixedCounter{tokens: 2000}, nil, 1000)
	_, err := service.Invoke(context.Background(), standardIdentity(), 5, "huge prompt")

	var tooLarge *errs.RequestTooLargeError
	require.True(t, errors.As(err, &tooLarge))
	assert.Equal(t, int64(2000), tooLarge.EstimatedTokens)
	assert.Equal(t, int64(1000), tooLarge.MaxTokens)
	providerClient.AssertNotCalled(t, "Complete")
	repo.AssertNotCalled(t, "GetEntitlement")
}

func TestInvoke_InsufficientTokens(t *testing.T) {
	repo := new(RepoMock)
	providerClient := new(ProviderMock)

	repo.On("GetService", mock.Anything, int64(5)).Return(activeService(), nil).Once()
	repo.On("GetEntitlement", mock.Anything, int64(1), int64(5)).
		Return(&models.Entitlement{UserID: 1, ServiceID: 5, AvailableTokens: 10}, nil).Once()

	service := completion.New(discardLogger(), repo, providerClient, fixedCounter{tokens: 20}, nil, 1000)
	_, err := service.Invoke(context.Background(), standardIdentity(), 5, "some prompt")

	var insufficient *errs.InsufficientTokensError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, int64(20), insufficient.RequestedTokens)
	assert.Equal(t, int64(10), insufficient.AvailableTokens)
	providerClient.AssertNotCalled(t, "Complete")
	repo.AssertNotCalled(t, "ConsumeTokens")
}

func TestInvoke_PremiumSkipsQuota(t *testing.T) {
	repo := new(RepoMock)
	providerClient := new(ProviderMock)

	premium := standardIdentity()
	premium.Subscription = models.SubscriptionPremium

	repo.On("GetService", mock.Anything, int64(5)).Return(activeService(), nil).Once()
	providerClient.On("Complete", mock.Anything, "some prompt").Return(providerResponse(500), nil).Once()
	// Потребление фиксируется без списания квоты
	repo.On("ConsumeTokens", mock.Anything, int64(1), int64(5), int64(500), false).Return(int64(11), nil).Once()

	service := completion.New(discardLogger(), repo, providerClient, fixedCounter{tokens: 20}, nil, 1000)
	resp, err := service.Invoke(context.Background(), premium, 5, "some prompt")

	require.NoError(t, err)
	assert.Equal(t, 500, resp.Usage.TotalTokens)
	repo.AssertNotCalled(t, "GetEntitlement")
	repo.AssertExpectations(t)
}

func TestInvoke_ConcurrentDecrementLoses(t *testing.T) {
	repo := new(RepoMock)
	providerClient := new(ProviderMock)

	repo.On("GetService", mock.Anything, int64(5)).Return(activeService(), nil).Once()
	repo.On("GetEntitlement", mock.Anything, int64(1), int64(5)).
		Return(&models.Entitlement{UserID: 1, ServiceID: 5, AvailableTokens: 100}, nil).Once()
	providerClient.On("Complete", mock.Anything, "some prompt").Return(providerResponse(42), nil).Once()
	// Конкурирующий запрос успел списать квоту между проверкой и фиксацией
	repo.On("ConsumeTokens", mock.Anything, int64(1), int64(5), int64(42), true).
		Return(int64(0), &errs.InsufficientTokensError{RequestedTokens: 42, AvailableTokens: 5}).Once()

	service := completion.New(discardLogger(), repo, providerClient, fixedCounter{tokens: 20}, nil, 1000)
	_, err := service.Invoke(context.Background(), standardIdentity(), 5, "some prompt")

	var insufficient *errs.InsufficientTokensError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, int64(5), insufficient.AvailableTokens)
}

func TestInvoke_PublisherFailureIsNotFatal(t *testing.T) {
	repo := new(RepoMock)
	providerClient := new(ProviderMock)
	publisher := new(PublisherMock)

	repo.On("GetService", mock.Anything, int64(5)).Return(activeService(), nil).Once()
	repo.On("GetEntitlement", mock.Anything, int64(1), int64(5)).
		Return(&models.Entitlement{UserID: 1, ServiceID: 5, AvailableTokens: 100}, nil).Once()
	providerClient.On("Complete", mock.Anything, "some prompt").Return(providerResponse(42), nil).Once()
	repo.On("ConsumeTokens", mock.Anything, int64(1), int64(5), int64(42), true).Return(int64(10), nil).Once()
	publisher.On("PublishUsage", mock.Anything).Return(errors.New("broker down")).Once()

	service := completion.New(discardLogger(), repo, providerClient, fixedCounter{tokens: 20}, publisher, 1000)
	resp, err := service.Invoke(context.Background(), standardIdentity(), 5, "some prompt")

	require.NoError(t, err)
	assert.Equal(t, 42, resp.Usage.TotalTokens)
}

func TestInvoke_ProviderError(t *testing.T) {
	repo := new(RepoMock)
	providerClient := new(ProviderMock)

	repo.On("GetService", mock.Anything, int64(5)).Return(activeService(), nil).Once()
	repo.On("GetEntitlement", mock.Anything, int64(1), int64(5)).
		Return(&models.Entitlement{UserID: 1, ServiceID: 5, AvailableTokens: 100}, nil).Once()
	providerClient.On("Complete", mock.Anything, "some prompt").
		Return(nil, errors.New("upstream timeout")).Once()

	service := completion.New(discardLogger(), repo, providerClient, fixedCounter{tokens: 20}, nil, 1000)
	_, err := service.Invoke(context.Background(), standardIdentity(), 5, "some prompt")

	assert.Error(t, err)
	// Потребление не фиксируется при ошибке провайдера
	repo.AssertNotCalled(t, "ConsumeTokens")
}
