// Package auth содержит логику бизнес-уровня для входа, выхода
// и валидации JWT с учётом списка отозванных токенов.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ldavidflorez/gpt-tools-api/internal/errs"
	"github.com/ldavidflorez/gpt-tools-api/internal/lib/jwt"
	"github.com/ldavidflorez/gpt-tools-api/internal/lib/password"
	"github.com/ldavidflorez/gpt-tools-api/internal/models"
)

// revokedKeyPrefix — префикс ключей отозванных токенов в Redis.
const revokedKeyPrefix = "revoked:"

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	// GetUserByUsername возвращает пользователя по имени или ошибку, если не найден.
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)

	// ListActivePermissionServiceIDs возвращает идентификаторы активных
	// сервисов, доступных пользователю.
	ListActivePermissionServiceIDs(ctx context.Context, userID int64) ([]int64, error)
}

// RevocationStore описывает хранилище отозванных токенов. Ключ живёт
// до истечения срока токена, поэтому хранилище ограничено по размеру.
type RevocationStore interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

// Service отвечает за вход, выход и валидацию JWT.
type Service struct {
	users    UserRepository
	jwtMaker jwt.Maker
	revoked  RevocationStore
}

// New создает новый экземпляр Service.
func New(users UserRepository, jwtMaker jwt.Maker, revoked RevocationStore) *Service {
	return &Service{
		users:    users,
		jwtMaker: jwtMaker,
		revoked:  revoked,
	}
}

// Login проверяет учётные данные пользователя и генерирует JWT.
//
// Список разрешений в claims снимается с базы на момент входа:
// деактивированные сервисы в него не попадают.
func (s *Service) Login(ctx context.Context, username, rawPassword string) (string, error) {
	const op = "auth.Login"

	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return "", fmt.Errorf("%s: %w", op, errs.ErrUnauthenticated)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return "", fmt.Errorf("%s: %w", op, errs.ErrUnauthenticated)
	}
	if !user.IsActive {
		return "", fmt.Errorf("%s: %w", op, errs.ErrUnauthenticated)
	}

	permissions, err := s.users.ListActivePermissionServiceIDs(ctx, user.ID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	token, err := s.jwtMaker.GenerateToken(user, permissions)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return token, nil
}

// Logout отзывает токен: ключ в хранилище живёт ровно до истечения
// срока токена, после чего валидация отклонит его и без списка.
func (s *Service) Logout(ctx context.Context, token string) error {
	const op = "auth.Logout"

	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return fmt.Errorf("%s: %w", op, errs.ErrUnauthenticated)
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}
	if err := s.revoked.Set(ctx, revokedKeyPrefix+token, true, ttl); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Validate проверяет токен и возвращает утверждения пользователя.
//
// Список отозванных токенов проверяется до подписи: отозванный токен
// отклоняется с отдельной ошибкой, чтобы клиент получил новый токен.
func (s *Service) Validate(ctx context.Context, token string) (*models.Identity, error) {
	const op = "auth.Validate"

	var isRevoked bool
	found, err := s.revoked.Get(ctx, revokedKeyPrefix+token, &isRevoked)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if found {
		return nil, fmt.Errorf("%s: %w", op, errs.ErrTokenRevoked)
	}

	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, errs.ErrUnauthenticated)
	}
	if claims.Username == "" {
		return nil, fmt.Errorf("%s: %w", op, errs.ErrUnauthenticated)
	}
	return claims.Identity(), nil
}
