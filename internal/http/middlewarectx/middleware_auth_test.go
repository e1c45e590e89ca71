package middlewarectx_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ldavidflorez/gpt-tools-api/internal/errs"
	"github.com/ldavidflorez/gpt-tools-api/internal/http/middlewarectx"
	"github.com/ldavidflorez/gpt-tools-api/internal/models"
)

type AuthServiceMock struct {
	mock.Mock
}

func (m *AuthServiceMock) Validate(ctx context.Context, token string) (*models.Identity, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Identity), args.Error(1)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testIdentity() *models.Identity {
	return &models.Identity{
		UserID:       1,
		Username:     "testuser",
		Role:         models.RoleUser,
		Subscription: models.SubscriptionStandard,
	}
}

func TestJWTMiddleware_HeaderToken(t *testing.T) {
	authService := new(AuthServiceMock)
	authService.On("Validate", mock.Anything, "valid-token").Return(testIdentity(), nil).Once()

	var gotIdentity *models.Identity
	var gotToken string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := middlewarectx.IdentityFromContext(r.Context())
		require.True(t, ok)
		gotIdentity = identity
		gotToken, _ = r.Context().Value(middlewarectx.TokenKey).(string)
		w.WriteHeader(http.StatusOK)
	})

	handler := middlewarectx.JWTMiddleware(authService, discardLogger())(next)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "testuser", gotIdentity.Username)
	assert.Equal(t, "valid-token", gotToken)
}

func TestJWTMiddleware_CookieToken(t *testing.T) {
	authService := new(AuthServiceMock)
	authService.On("Validate", mock.Anything, "cookie-token").Return(testIdentity(), nil).Once()

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := middlewarectx.JWTMiddleware(authService, discardLogger())(next)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: middlewarectx.AccessTokenCookie, Value: "Bearer cookie-token"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	authService.AssertExpectations(t)
}

func TestJWTMiddleware_MissingToken(t *testing.T) {
	authService := new(AuthServiceMock)
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Fatal("next handler must not be called")
	})
	handler := middlewarectx.JWTMiddleware(authService, discardLogger())(next)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	authService.AssertNotCalled(t, "Validate")
}

func TestJWTMiddleware_InvalidToken(t *testing.T) {
	authService := new(AuthServiceMock)
	authService.On("Validate", mock.Anything, "bad-token").Return(nil, errs.ErrUnauthenticated).Once()

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Fatal("next handler must not be called")
	})
	handler := middlewarectx.JWTMiddleware(authService, discardLogger())(next)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer bad-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTMiddleware_RevokedToken(t *testing.T) {
	authService := new(AuthServiceMock)
	authService.On("Validate", mock.Anything, "revoked-token").Return(nil, errs.ErrTokenRevoked).Once()

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Fatal("next handler must not be called")
	})
	handler := middlewarectx.JWTMiddleware(authService, discardLogger())(next)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer revoked-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "generate a new token")
}
