package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ldavidflorez/gpt-tools-api/internal/errs"
	"github.com/ldavidflorez/gpt-tools-api/internal/models"
)

// CreateService вставляет новый сервис и возвращает его ID.
func (s *Storage) CreateService(ctx context.Context, service models.Service) (int64, error) {
	const op = "storage.CreateService"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newID int64
	query := `INSERT INTO services (name, family, is_active)
			  VALUES ($1, $2, $3)
			  RETURNING id`
	if err := s.DB.QueryRowContext(ctx, query,
		service.Name, service.Family, service.IsActive).Scan(&newID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return 0, fmt.Errorf("%s: %w", op, errs.ErrConflict)
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetService возвращает сервис по его ID.
func (s *Storage) GetService(ctx context.Context, serviceID int64) (*models.Service, error) {
	const op = "storage.GetService"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, name, family, is_active, created_date
			  FROM services
			  WHERE id = $1`
	service := &models.Service{}
	row := s.DB.QueryRowContext(ctx, query, serviceID)
	if err := row.Scan(&service.ID, &service.Name, &service.Family,
		&service.IsActive, &service.CreatedDate); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, errs.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return service, nil
}

// GetServiceByName возвращает сервис по его имени.
func (s *Storage) GetServiceByName(ctx context.Context, name string) (*models.Service, error) {
	const op = "storage.GetServiceByName"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, name, family, is_active, created_date
			  FROM services
			  WHERE name = $1`
	service := &models.Service{}
	row := s.DB.QueryRowContext(ctx, query, name)
	if err := row.Scan(&service.ID, &service.Name, &service.Family,
		&service.IsActive, &service.CreatedDate); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, errs.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return service, nil
}

// ListServices возвращает список сервисов с необязательным фильтром
// по семейству. Пустая строка означает отсутствие фильтра.
func (s *Storage) ListServices(ctx context.Context, family string) ([]*models.Service, error) {
	const op = "storage.ListServices"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, name, family, is_active, created_date
			  FROM services
			  WHERE ($1 = '' OR family = $1)
			  ORDER BY id`
	rows, err := s.DB.QueryContext(ctx, query, family)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Service
	for rows.Next() {
		var service models.Service
		if err = rows.Scan(&service.ID, &service.Name, &service.Family,
			&service.IsActive, &service.CreatedDate); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &service)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateService обновляет имя, семейство и признак активности сервиса.
// Возвращает количество изменённых строк.
func (s *Storage) UpdateService(ctx context.Context, serviceID int64, service models.Service) (int64, error) {
	const op = "storage.UpdateService"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE services
			  SET name = $1, family = $2, is_active = $3
			  WHERE id = $4`
	result, err := s.DB.ExecContext(ctx, query,
		service.Name, service.Family, service.IsActive, serviceID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return 0, fmt.Errorf("%s: %w", op, errs.ErrConflict)
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return rowsAffected, nil
}
