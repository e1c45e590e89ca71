// Package user содержит логику бизнес-уровня для управления
// учётными записями и их квотами.
package user

import (
	"context"
	"fmt"

	"github.com/ldavidflorez/gpt-tools-api/internal/errs"
	"github.com/ldavidflorez/gpt-tools-api/internal/lib/password"
	"github.com/ldavidflorez/gpt-tools-api/internal/models"
)

// Repository описывает контракт для работы с пользователями в базе данных.
type Repository interface {
	CreateUser(ctx context.Context, user models.User, serviceIDs []int64, tokens []int64) (int64, error)
	GetUser(ctx context.Context, userID int64) (*models.User, error)
	ListUsers(ctx context.Context, role, subscription string) ([]*models.User, error)
	UpdateUser(ctx context.Context, userID int64, username, passwordHash string) (int64, error)
	UpdateUserAdmin(ctx context.Context, userID int64, user models.User, serviceIDs, tokens, servicesToDelete []int64) (int64, error)
	SetUserActive(ctx context.Context, userID int64, isActive bool) (int64, error)
	ListEntitlements(ctx context.Context, userID int64) ([]*models.Entitlement, error)
}

// Service реализует операции над учётными записями.
type Service struct {
	users Repository
}

// New создает новый экземпляр Service.
func New(users Repository) *Service {
	return &Service{users: users}
}

// Register создаёт пользователя с хэшированием пароля и начальными
// квотами по списку сервисов. Учётная запись сразу активна.
func (s *Service) Register(ctx context.Context, req models.CreateUserRequest) (int64, error) {
	const op = "user.Register"

	hashed, err := password.GetHash(req.Password)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	user := models.User{
		Username:     req.Username,
		PasswordHash: hashed,
		Role:         req.Role,
		Subscription: req.Subscription,
		IsActive:     true,
	}
	newID, err := s.users.CreateUser(ctx, user, req.Services, req.TokensByService)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// Get возвращает пользователя без чувствительных полей.
func (s *Service) Get(ctx context.Context, userID int64) (*models.PublicUser, error) {
	const op = "user.Get"
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user.Public(), nil
}

// List возвращает пользователей с необязательными фильтрами по роли и тарифу.
func (s *Service) List(ctx context.Context, role, subscription string) ([]*models.PublicUser, error) {
	const op = "user.List"
	users, err := s.users.ListUsers(ctx, role, subscription)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	result := make([]*models.PublicUser, 0, len(users))
	for _, u := range users {
		result = append(result, u.Public())
	}
	return result, nil
}

// ListEntitlements возвращает строки квот пользователя.
func (s *Service) ListEntitlements(ctx context.Context, userID int64) ([]*models.Entitlement, error) {
	const op = "user.ListEntitlements"
	entitlements, err := s.users.ListEntitlements(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return entitlements, nil
}

// Update обновляет имя и пароль учётной записи. Не-администратор
// может менять только собственную запись.
func (s *Service) Update(ctx context.Context, identity *models.Identity, userID int64, req models.UpdateUserRequest) error {
	const op = "user.Update"

	if !identity.IsAdmin() && identity.UserID != userID {
		return fmt.Errorf("%s: %w", op, errs.ErrForbidden)
	}

	var hashed string
	if req.Password != "" {
		var err error
		hashed, err = password.GetHash(req.Password)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	rows, err := s.users.UpdateUser(ctx, userID, req.Username, hashed)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, errs.ErrNotFound)
	}
	return nil
}

// UpdateAdmin обновляет учётную запись целиком, включая роль, тариф
// и перераспределение квот по сервисам.
func (s *Service) UpdateAdmin(ctx context.Context, userID int64, req models.UpdateUserAdminRequest) error {
	const op = "user.UpdateAdmin"

	var hashed string
	if req.Password != "" {
		var err error
		hashed, err = password.GetHash(req.Password)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	user := models.User{
		Username:     req.Username,
		PasswordHash: hashed,
		Role:         req.Role,
		Subscription: req.Subscription,
	}

	rows, err := s.users.UpdateUserAdmin(ctx, userID, user, req.Services, req.TokensByService, req.ServicesToDelete)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, errs.ErrNotFound)
	}
	return nil
}

// SetActive включает или отключает учётную запись. Отключённый
// пользователь не может войти в систему.
func (s *Service) SetActive(ctx context.Context, userID int64, isActive bool) error {
	const op = "user.SetActive"
	rows, err := s.users.SetUserActive(ctx, userID, isActive)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, errs.ErrNotFound)
	}
	return nil
}
