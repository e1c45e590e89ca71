package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ldavidflorez/gpt-tools-api/internal/errs"
	"github.com/ldavidflorez/gpt-tools-api/internal/models"
)

// GetEntitlement возвращает строку квоты пользователя для сервиса.
func (s *Storage) GetEntitlement(ctx context.Context, userID, serviceID int64) (*models.Entitlement, error) {
	const op = "storage.GetEntitlement"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_id, service_id, available_tokens
			  FROM entitlements
			  WHERE user_id = $1 AND service_id = $2`
	e := &models.Entitlement{}
	row := s.DB.QueryRowContext(ctx, query, userID, serviceID)
	if err := row.Scan(&e.ID, &e.UserID, &e.ServiceID, &e.AvailableTokens); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, errs.ErrEntitlementMissing)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return e, nil
}

// ListEntitlements возвращает все строки квот пользователя.
func (s *Storage) ListEntitlements(ctx context.Context, userID int64) ([]*models.Entitlement, error) {
	const op = "storage.ListEntitlements"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_id, service_id, available_tokens
			  FROM entitlements
			  WHERE user_id = $1
			  ORDER BY service_id`
	rows, err := s.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Entitlement
	for rows.Next() {
		var e models.Entitlement
		if err = rows.Scan(&e.ID, &e.UserID, &e.ServiceID, &e.AvailableTokens); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListActivePermissionServiceIDs возвращает идентификаторы активных
// сервисов, на которые у пользователя есть строка квоты. Список
// попадает в claims токена при входе.
func (s *Storage) ListActivePermissionServiceIDs(ctx context.Context, userID int64) ([]int64, error) {
	const op = "storage.ListActivePermissionServiceIDs"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT e.service_id
			  FROM entitlements e
			  JOIN services s ON s.id = e.service_id
			  WHERE e.user_id = $1 AND s.is_active = TRUE
			  ORDER BY e.service_id`
	rows, err := s.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []int64
	for rows.Next() {
		var serviceID int64
		if err = rows.Scan(&serviceID); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, serviceID)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpsertEntitlement создаёт или перезаписывает строку квоты пользователя
// для сервиса.
func (s *Storage) UpsertEntitlement(ctx context.Context, userID, serviceID, availableTokens int64) error {
	const op = "storage.UpsertEntitlement"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO entitlements (user_id, service_id, available_tokens)
			  VALUES ($1, $2, $3)
			  ON CONFLICT (user_id, service_id)
			  DO UPDATE SET available_tokens = EXCLUDED.available_tokens`
	if _, err := s.DB.ExecContext(ctx, query, userID, serviceID, availableTokens); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// DeleteEntitlement удаляет строку квоты пользователя для сервиса.
// Возвращает количество удалённых строк.
func (s *Storage) DeleteEntitlement(ctx context.Context, userID, serviceID int64) (int64, error) {
	const op = "storage.DeleteEntitlement"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `DELETE FROM entitlements WHERE user_id = $1 AND service_id = $2`
	result, err := s.DB.ExecContext(ctx, query, userID, serviceID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return rowsAffected, nil
}
