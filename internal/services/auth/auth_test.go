package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ldavidflorez/gpt-tools-api/internal/errs"
	customjwt "github.com/ldavidflorez/gpt-tools-api/internal/lib/jwt"
	"github.com/ldavidflorez/gpt-tools-api/internal/lib/password"
	"github.com/ldavidflorez/gpt-tools-api/internal/models"
	"github.com/ldavidflorez/gpt-tools-api/internal/services/auth"
)

// Мок для UserRepository
type UserRepoMock struct {
	mock.Mock
}

func (m *UserRepoMock) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) ListActivePermissionServiceIDs(ctx context.Context, userID int64) ([]int64, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

// Мок для хранилища отозванных токенов
type RevocationStoreMock struct {
	mock.Mock
}

func (m *RevocationStoreMock) Get(ctx context.Context, key string, result any) (bool, error) {
	args := m.Called(ctx, key, result)
	return args.Bool(0), args.Error(1)
}

func (m *RevocationStoreMock) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	args := m.Called(ctx, key, value, expiration)
	return args.Error(0)
}

func activeUser(t *testing.T) *models.User {
	t.Helper()
	hash, err := password.GetHash("password123")
	require.NoError(t, err)
	return &models.User{
		ID:           1,
		Username:     "testuser",
		PasswordHash: hash,
		Role:         models.RoleUser,
		Subscription: models.SubscriptionStandard,
		IsActive:     true,
	}
}

func TestLogin(t *testing.T) {
	maker := customjwt.NewJWTMaker("test-secret", time.Hour)

	tests := []struct {
		name       string
		username   string
		password   string
		setupMocks func(t *testing.T, r *UserRepoMock)
		wantErr    error
	}{
		{
			name:     "successful login",
			username: "testuser",
			password: "password123",
			setupMocks: func(t *testing.T, r *UserRepoMock) {
				r.On("GetUserByUsername", mock.Anything, "testuser").Return(activeUser(t), nil).Once()
				r.On("ListActivePermissionServiceIDs", mock.Anything, int64(1)).Return([]int64{1, 2}, nil).Once()
			},
		},
		{
			name:     "unknown user maps to unauthenticated",
			username: "ghost",
			password: "password123",
			setupMocks: func(_ *testing.T, r *UserRepoMock) {
				r.On("GetUserByUsername", mock.Anything, "ghost").Return(nil, errs.ErrNotFound).Once()
			},
			wantErr: errs.ErrUnauthenticated,
		},
		{
			name:     "wrong password",
			username: "testuser",
			password: "wrongpassword",
			setupMocks: func(t *testing.T, r *UserRepoMock) {
				r.On("GetUserByUsername", mock.Anything, "testuser").Return(activeUser(t), nil).Once()
			},
			wantErr: errs.ErrUnauthenticated,
		},
		{
			name:     "deactivated user",
			username: "testuser",
			password: "password123",
			setupMocks: func(t *testing.T, r *UserRepoMock) {
				user := activeUser(t)
				user.IsActive = false
				r.On("GetUserByUsername", mock.Anything, "testuser").Return(user, nil).Once()
			},
			wantErr: errs.ErrUnauthenticated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(UserRepoMock)
			revoked := new(RevocationStoreMock)
			tt.setupMocks(t, users)

			service := auth.New(users, maker, revoked)
			token, err := service.Login(context.Background(), tt.username, tt.password)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.NotEmpty(t, token)

				claims, err := maker.ParseToken(token)
				require.NoError(t, err)
				assert.Equal(t, "testuser", claims.Username)
				assert.Equal(t, []int64{1, 2}, claims.Permissions)
			}
			users.AssertExpectations(t)
		})
	}
}

func TestLogout_StoresTokenUntilExpiry(t *testing.T) {
	maker := customjwt.NewJWTMaker("test-secret", time.Hour)
	token, err := maker.GenerateToken(activeUser(t), nil)
	require.NoError(t, err)

	users := new(UserRepoMock)
	revoked := new(RevocationStoreMock)
	revoked.On("Set", mock.Anything, "revoked:"+token, true,
		mock.MatchedBy(func(ttl time.Duration) bool {
			return ttl > 55*time.Minute && ttl <= time.Hour
		})).Return(nil).Once()

	service := auth.New(users, maker, revoked)
	require.NoError(t, service.Logout(context.Background(), token))
	revoked.AssertExpectations(t)
}

func TestLogout_InvalidToken(t *testing.T) {
	users := new(UserRepoMock)
	revoked := new(RevocationStoreMock)
	service := auth.New(users, customjwt.NewJWTMaker("test-secret", time.Hour), revoked)

	err := service.Logout(context.Background(), "not.a.token")
	assert.ErrorIs(t, err, errs.ErrUnauthenticated)
}

func TestValidate(t *testing.T) {
	maker := customjwt.NewJWTMaker("test-secret", time.Hour)
	token, err := maker.GenerateToken(activeUser(t), []int64{3})
	require.NoError(t, err)

	t.Run("valid token", func(t *testing.T) {
		users := new(UserRepoMock)
		revoked := new(RevocationStoreMock)
		revoked.On("Get", mock.Anything, "revoked:"+token, mock.Anything).Return(false, nil).Once()

		service := auth.New(users, maker, revoked)
		identity, err := service.Validate(context.Background(), token)
		require.NoError(t, err)
		assert.Equal(t, "testuser", identity.Username)
		assert.True(t, identity.CanUseService(3))
	})

	t.Run("revoked token rejected before signature check", func(t *testing.T) {
		users := new(UserRepoMock)
		revoked := new(RevocationStoreMock)
		revoked.On("Get", mock.Anything, "revoked:"+token, mock.Anything).Return(true, nil).Once()

		service := auth.New(users, maker, revoked)
		_, err := service.Validate(context.Background(), token)
		assert.ErrorIs(t, err, errs.ErrTokenRevoked)
	})

	t.Run("expired token", func(t *testing.T) {
		expiredMaker := customjwt.NewJWTMaker("test-secret", -time.Minute)
		expiredToken, err := expiredMaker.GenerateToken(activeUser(t), nil)
		require.NoError(t, err)

		users := new(UserRepoMock)
		revoked := new(RevocationStoreMock)
		revoked.On("Get", mock.Anything, mock.Anything, mock.Anything).Return(false, nil).Once()

		service := auth.New(users, expiredMaker, revoked)
		_, err = service.Validate(context.Background(), expiredToken)
		assert.ErrorIs(t, err, errs.ErrUnauthenticated)
	})

	t.Run("revocation store error surfaces", func(t *testing.T) {
		users := new(UserRepoMock)
		revoked := new(RevocationStoreMock)
		revoked.On("Get", mock.Anything, mock.Anything, mock.Anything).
			Return(false, errors.New("redis down")).Once()

		service := auth.New(users, maker, revoked)
		_, err := service.Validate(context.Background(), token)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, errs.ErrUnauthenticated)
	})
}

// Проверяет, что claims токена остаются читаемыми стандартным парсером.
func TestTokenClaimsShape(t *testing.T) {
	maker := customjwt.NewJWTMaker("test-secret", time.Hour)
	token, err := maker.GenerateToken(activeUser(t), []int64{1})
	require.NoError(t, err)

	parsed, _, err := jwtlib.NewParser().ParseUnverified(token, jwtlib.MapClaims{})
	require.NoError(t, err)
	claims := parsed.Claims.(jwtlib.MapClaims)
	assert.Equal(t, "testuser", claims["username"])
	assert.Equal(t, "standard", claims["subscription"])
}
