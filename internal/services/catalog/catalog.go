// Package catalog содержит логику бизнес-уровня для управления
// каталогом сервисов шлюза.
package catalog

import (
	"context"
	"fmt"

	"github.com/ldavidflorez/gpt-tools-api/internal/errs"
	"github.com/ldavidflorez/gpt-tools-api/internal/models"
)

// Repository описывает контракт для работы с сервисами в базе данных.
type Repository interface {
	CreateService(ctx context.Context, service models.Service) (int64, error)
	GetService(ctx context.Context, serviceID int64) (*models.Service, error)
	ListServices(ctx context.Context, family string) ([]*models.Service, error)
	ListEntitlements(ctx context.Context, userID int64) ([]*models.Entitlement, error)
	UpdateService(ctx context.Context, serviceID int64, service models.Service) (int64, error)
}

// Service реализует операции над каталогом сервисов.
type Service struct {
	services Repository
}

// New создает новый экземпляр Service.
func New(services Repository) *Service {
	return &Service{services: services}
}

// Create регистрирует новый сервис в каталоге.
func (s *Service) Create(ctx context.Context, req models.CreateServiceRequest) (int64, error) {
	const op = "catalog.Create"
	newID, err := s.services.CreateService(ctx, models.Service{
		Name:     req.Name,
		Family:   req.Family,
		IsActive: req.IsActive,
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// Get возвращает сервис по его ID.
func (s *Service) Get(ctx context.Context, serviceID int64) (*models.Service, error) {
	const op = "catalog.Get"
	service, err := s.services.GetService(ctx, serviceID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return service, nil
}

// List возвращает сервисы с необязательным фильтром по семейству.
func (s *Service) List(ctx context.Context, family string) ([]*models.Service, error) {
	const op = "catalog.List"
	services, err := s.services.ListServices(ctx, family)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return services, nil
}

// ListForUser возвращает строки квот пользователя: идентификаторы
// доступных сервисов вместе с остатками токенов. Отсутствие строк
// означает, что пользователю не выдан ни один сервис.
func (s *Service) ListForUser(ctx context.Context, userID int64) ([]*models.Entitlement, error) {
	const op = "catalog.ListForUser"
	entitlements, err := s.services.ListEntitlements(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(entitlements) == 0 {
		return nil, fmt.Errorf("%s: %w", op, errs.ErrNotFound)
	}
	return entitlements, nil
}

// Update обновляет имя, семейство и признак активности сервиса.
// Деактивация вступает в силу для всех пользователей немедленно.
func (s *Service) Update(ctx context.Context, serviceID int64, req models.CreateServiceRequest) error {
	const op = "catalog.Update"
	rows, err := s.services.UpdateService(ctx, serviceID, models.Service{
		Name:     req.Name,
		Family:   req.Family,
		IsActive: req.IsActive,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, errs.ErrNotFound)
	}
	return nil
}
