// Package jwt реализует генерацию и парсинг JWT токенов с пользовательскими claim полями.
//
// CustomClaims расширяет стандартные claims JWT, добавляя идентификатор,
// роль, тариф и список разрешённых сервисов пользователя.
package jwt

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ldavidflorez/gpt-tools-api/internal/models"
)

// CustomClaims описывает пользовательские данные, хранящиеся в JWT.
type CustomClaims struct {
	Username             string  `json:"username"`     // Имя пользователя
	UserID               int64   `json:"uid"`          // Идентификатор пользователя
	Role                 string  `json:"role"`         // Роль пользователя
	Subscription         string  `json:"subscription"` // Тариф подписки
	Permissions          []int64 `json:"permissions"`  // Разрешённые сервисы
	jwt.RegisteredClaims         // Стандартные claims JWT (ExpiresAt, IssuedAt и пр.)
}

// Identity преобразует claims в доменный набор утверждений.
func (c *CustomClaims) Identity() *models.Identity {
	return &models.Identity{
		UserID:       c.UserID,
		Username:     c.Username,
		Role:         c.Role,
		Subscription: c.Subscription,
		Permissions:  c.Permissions,
	}
}

// Maker описывает интерфейс для генерации и парсинга JWT токенов.
type Maker interface {
	// GenerateToken создаёт токен для пользователя с его списком разрешений.
	GenerateToken(user *models.User, permissions []int64) (string, error)
	// ParseToken возвращает *CustomClaims, если токен корректен.
	ParseToken(tokenStr string) (*CustomClaims, error)
}

// MakerImpl реализует интерфейс Maker с использованием секретного ключа
// и времени жизни токена (TTL).
type MakerImpl struct {
	secretKey string        // Секретный ключ для подписи токенов.
	tokenTTL  time.Duration // Время жизни токена.
}

// NewJWTMaker создаёт новый экземпляр MakerImpl на основе секретного ключа и TTL.
func NewJWTMaker(secretKey string, ttl time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey: secretKey,
		tokenTTL:  ttl,
	}
}
