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

// CreateUser сохраняет нового пользователя вместе со строками квот
// в одной транзакции и возвращает его ID. Списки serviceIDs и tokens
// сопоставляются по индексу; при отсутствии tokens квота равна нулю.
// Для тарифа premium квоты всегда нулевые: остаток не участвует в
// списании, а при понижении тарифа не должен всплыть ненулевым.
func (s *Storage) CreateUser(ctx context.Context, user models.User, serviceIDs []int64, tokens []int64) (int64, error) {
	const op = "storage.CreateUser"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var newID int64
	query := `INSERT INTO users (username, password_hash, role, subscription, is_active)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING id`
	if err = tx.QueryRowContext(ctx, query,
		user.Username, user.PasswordHash, user.Role, user.Subscription,
		user.IsActive).Scan(&newID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return 0, fmt.Errorf("%s: %w", op, errs.ErrConflict)
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	entitlementQuery := `INSERT INTO entitlements (user_id, service_id, available_tokens)
						 VALUES ($1, $2, $3)`
	for i, serviceID := range serviceIDs {
		var available int64
		if i < len(tokens) && user.Subscription != models.SubscriptionPremium {
			available = tokens[i]
		}
		if _, err = tx.ExecContext(ctx, entitlementQuery, newID, serviceID, available); err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetUser возвращает пользователя по его ID.
func (s *Storage) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	const op = "storage.GetUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, username, password_hash, role, subscription, is_active, created_date
			  FROM users
			  WHERE id = $1`
	u := &models.User{}
	row := s.DB.QueryRowContext(ctx, query, userID)
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role,
		&u.Subscription, &u.IsActive, &u.CreatedDate); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, errs.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUserByUsername возвращает пользователя по его username.
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	const op = "storage.GetUserByUsername"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, username, password_hash, role, subscription, is_active, created_date
			  FROM users
			  WHERE username = $1`
	u := &models.User{}
	row := s.DB.QueryRowContext(ctx, query, username)
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role,
		&u.Subscription, &u.IsActive, &u.CreatedDate); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, errs.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// ListUsers возвращает список пользователей с необязательными фильтрами
// по роли и тарифу. Пустая строка означает отсутствие фильтра.
func (s *Storage) ListUsers(ctx context.Context, role, subscription string) ([]*models.User, error) {
	const op = "storage.ListUsers"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, username, password_hash, role, subscription, is_active, created_date
			  FROM users
			  WHERE ($1 = '' OR role = $1)
			    AND ($2 = '' OR subscription = $2)
			  ORDER BY id`
	rows, err := s.DB.QueryContext(ctx, query, role, subscription)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.User
	for rows.Next() {
		var u models.User
		if err = rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role,
			&u.Subscription, &u.IsActive, &u.CreatedDate); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateUser обновляет имя пользователя и, при непустом хэше, пароль.
// Возвращает количество изменённых строк.
func (s *Storage) UpdateUser(ctx context.Context, userID int64, username, passwordHash string) (int64, error) {
	const op = "storage.UpdateUser"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET username = $1,
			      password_hash = CASE WHEN $2 = '' THEN password_hash ELSE $2 END
			  WHERE id = $3`
	result, err := s.DB.ExecContext(ctx, query, username, passwordHash, userID)
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

// UpdateUserAdmin обновляет учётную запись целиком: имя, пароль, роль,
// тариф и перераспределение квот по сервисам. Выполняется в одной
// транзакции. Возвращает количество изменённых строк пользователя.
func (s *Storage) UpdateUserAdmin(ctx context.Context, userID int64, user models.User,
	serviceIDs, tokens, servicesToDelete []int64) (int64, error) {
	const op = "storage.UpdateUserAdmin"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `UPDATE users
			  SET username = $1,
			      password_hash = CASE WHEN $2 = '' THEN password_hash ELSE $2 END,
			      role = $3,
			      subscription = $4
			  WHERE id = $5`
	result, err := tx.ExecContext(ctx, query,
		user.Username, user.PasswordHash, user.Role, user.Subscription, userID)
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

	upsertQuery := `INSERT INTO entitlements (user_id, service_id, available_tokens)
					VALUES ($1, $2, $3)
					ON CONFLICT (user_id, service_id)
					DO UPDATE SET available_tokens = EXCLUDED.available_tokens`
	for i, serviceID := range serviceIDs {
		var available int64
		if i < len(tokens) {
			available = tokens[i]
		}
		if _, err = tx.ExecContext(ctx, upsertQuery, userID, serviceID, available); err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
	}

	deleteQuery := `DELETE FROM entitlements WHERE user_id = $1 AND service_id = $2`
	for _, serviceID := range servicesToDelete {
		if _, err = tx.ExecContext(ctx, deleteQuery, userID, serviceID); err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return rowsAffected, nil
}

// SetUserActive включает или отключает учётную запись.
// Возвращает количество изменённых строк.
func (s *Storage) SetUserActive(ctx context.Context, userID int64, isActive bool) (int64, error) {
	const op = "storage.SetUserActive"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users SET is_active = $1 WHERE id = $2`
	result, err := s.DB.ExecContext(ctx, query, isActive, userID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return rowsAffected, nil
}
