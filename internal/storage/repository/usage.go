package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ldavidflorez/gpt-tools-api/internal/errs"
	"github.com/ldavidflorez/gpt-tools-api/internal/models"
)

// ConsumeTokens фиксирует потребление токенов в одной транзакции.
//
// При decrement = true квота списывается условным UPDATE: строка
// меняется только если остатка хватает, иначе транзакция откатывается
// и возвращается InsufficientTokensError с актуальным остатком.
// Запись потребления вставляется в той же транзакции, поэтому либо
// происходят оба изменения, либо ни одного.
func (s *Storage) ConsumeTokens(ctx context.Context, userID, serviceID, tokens int64, decrement bool) (int64, error) {
	const op = "storage.ConsumeTokens"
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

	if decrement {
		updateQuery := `UPDATE entitlements
						SET available_tokens = available_tokens - $1
						WHERE user_id = $2 AND service_id = $3 AND available_tokens >= $1`
		result, err := tx.ExecContext(ctx, updateQuery, tokens, userID, serviceID)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
		if rowsAffected == 0 {
			var available int64
			balanceQuery := `SELECT available_tokens FROM entitlements
							 WHERE user_id = $1 AND service_id = $2`
			err = tx.QueryRowContext(ctx, balanceQuery, userID, serviceID).Scan(&available)
			if errors.Is(err, sql.ErrNoRows) {
				return 0, fmt.Errorf("%s: %w", op, errs.ErrEntitlementMissing)
			}
			if err != nil {
				return 0, fmt.Errorf("%s: %w", op, err)
			}
			return 0, fmt.Errorf("%s: %w", op, &errs.InsufficientTokensError{
				RequestedTokens: tokens,
				AvailableTokens: available,
			})
		}
	}

	var recordID int64
	insertQuery := `INSERT INTO usage_records (user_id, service_id, consumed_tokens)
					VALUES ($1, $2, $3)
					RETURNING id`
	if err = tx.QueryRowContext(ctx, insertQuery, userID, serviceID, tokens).Scan(&recordID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return recordID, nil
}

// ListUsage возвращает записи потребления, обогащённые именами
// пользователя и сервиса, по необязательным фильтрам. Даты
// сравниваются с точностью до дня, обе границы включительны.
func (s *Storage) ListUsage(ctx context.Context, filter models.UsageFilter) ([]*models.UsageItem, error) {
	const op = "storage.ListUsage"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT t.id, t.user_id, t.service_id, t.consumed_tokens, t.insertion_date,
			      u.username, s.name
			  FROM usage_records t
			  JOIN users u ON u.id = t.user_id
			  JOIN services s ON s.id = t.service_id
			  WHERE ($1::bigint IS NULL OR t.user_id = $1)
			    AND ($2::bigint IS NULL OR t.service_id = $2)
			    AND ($3::date IS NULL OR t.insertion_date::date >= $3)
			    AND ($4::date IS NULL OR t.insertion_date::date <= $4)
			  ORDER BY t.id`
	rows, err := s.DB.QueryContext(ctx, query,
		filter.UserID, filter.ServiceID, filter.StartDate, filter.EndDate)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.UsageItem
	for rows.Next() {
		var item models.UsageItem
		if err = rows.Scan(&item.ID, &item.UserID, &item.ServiceID, &item.ConsumedTokens,
			&item.InsertionDate, &item.Username, &item.ServiceName); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
