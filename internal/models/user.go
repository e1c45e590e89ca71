// Package models содержит доменные структуры шлюза: пользователей,
// сервисы, квоты токенов и записи потребления, а также вспомогательные
// типы для приёма данных из JSON-запросов.
package models

import "time"

// Роли пользователей системы.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Тарифы подписки. Premium не ограничен квотой токенов.
const (
	SubscriptionStandard = "standard"
	SubscriptionPremium  = "premium"
)

// User представляет зарегистрированного пользователя системы.
type User struct {
	ID           int64     // Уникальный идентификатор
	Username     string    // Имя пользователя (уникальное)
	PasswordHash string    // Bcrypt-хэш пароля
	Role         string    // Роль: admin или user
	Subscription string    // Тариф: standard или premium
	IsActive     bool      // Признак активности учётной записи
	CreatedDate  time.Time // Дата создания
}

// PublicUser — представление пользователя без хэша пароля,
// используется в ответах API.
type PublicUser struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Role         string    `json:"role"`
	Subscription string    `json:"subscription"`
	IsActive     bool      `json:"is_active"`
	CreatedDate  time.Time `json:"created_date"`
}

// Public возвращает представление пользователя без чувствительных полей.
func (u *User) Public() *PublicUser {
	return &PublicUser{
		ID:           u.ID,
		Username:     u.Username,
		Role:         u.Role,
		Subscription: u.Subscription,
		IsActive:     u.IsActive,
		CreatedDate:  u.CreatedDate,
	}
}

// CreateUserRequest используется для приёма данных регистрации нового
// пользователя администратором. Списки services и tokens_by_service
// сопоставляются по индексу, как и в форме выдачи квот.
type CreateUserRequest struct {
	Username        string  `json:"username" validate:"required,alphanum,max=16"`
	Password        string  `json:"password" validate:"required,min=8,max=64"`
	Role            string  `json:"role" validate:"required,oneof=admin user"`
	Subscription    string  `json:"subscription" validate:"required,oneof=standard premium"`
	Services        []int64 `json:"services" validate:"required,min=1"`
	TokensByService []int64 `json:"tokens_by_service" validate:"omitempty,dive,gte=0"`
}

// UpdateUserRequest — самостоятельное обновление учётной записи.
type UpdateUserRequest struct {
	Username string `json:"username" validate:"required,alphanum,max=16"`
	Password string `json:"password,omitempty" validate:"omitempty,min=8,max=64"`
}

// UpdateUserAdminRequest — обновление учётной записи администратором,
// включая роль, тариф и перераспределение квот по сервисам.
type UpdateUserAdminRequest struct {
	Username         string  `json:"username" validate:"required,alphanum,max=16"`
	Password         string  `json:"password,omitempty" validate:"omitempty,min=8,max=64"`
	Role             string  `json:"role" validate:"required,oneof=admin user"`
	Subscription     string  `json:"subscription" validate:"required,oneof=standard premium"`
	Services         []int64 `json:"services" validate:"omitempty"`
	TokensByService  []int64 `json:"tokens_by_service" validate:"omitempty,dive,gte=0"`
	ServicesToDelete []int64 `json:"services_to_delete,omitempty"`
}
