package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/magabrotheeeer/subscription-backend/internal/models"
)

// CreatePaidContent вставляет новую запись оплаченного контента
// и возвращает её ID.
func (s *Storage) CreatePaidContent(ctx context.Context, content models.PaidContent) (int, error) {
	const op = "storage.CreatePaidContent"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO paid_contents (customer_id, content_type, stripe_id, value,
			      start_date, expiration_date, is_exclusive)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING id`
	var newID int
	err := s.DB.QueryRowContext(ctx, query,
		content.CustomerID, content.ContentType, content.StripeID, content.Value,
		content.StartDate, content.ExpirationDate, content.IsExclusive).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ListActiveSignatures возвращает подписки клиента, действующие в
// момент now: без даты истечения или с датой истечения не раньше now.
// Порядок — от самой свежей по дате начала, разрешение неоднозначности
// при нескольких активных подписках детерминированное.
func (s *Storage) ListActiveSignatures(ctx context.Context, customerID int, now time.Time) ([]*models.PaidContent, error) {
	const op = "storage.ListActiveSignatures"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, customer_id, content_type, stripe_id, value,
			      start_date, expiration_date, is_exclusive
			  FROM paid_contents
			  WHERE customer_id = $1
			    AND content_type = $2
			    AND (expiration_date IS NULL OR expiration_date >= $3)
			  ORDER BY start_date DESC, id DESC`
	rows, err := s.DB.QueryContext(ctx, query, customerID, models.TypeSignature, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.PaidContent
	for rows.Next() {
		item, err := scanPaidContent(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListPaidContents возвращает все записи оплаченного контента клиента.
func (s *Storage) ListPaidContents(ctx context.Context, customerID int) ([]*models.PaidContent, error) {
	const op = "storage.ListPaidContents"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, customer_id, content_type, stripe_id, value,
			      start_date, expiration_date, is_exclusive
			  FROM paid_contents
			  WHERE customer_id = $1
			  ORDER BY start_date DESC, id DESC`
	rows, err := s.DB.QueryContext(ctx, query, customerID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.PaidContent
	for rows.Next() {
		item, err := scanPaidContent(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

func scanPaidContent(rows *sql.Rows) (*models.PaidContent, error) {
	var item models.PaidContent
	var expiration sql.NullTime
	if err := rows.Scan(&item.ID, &item.CustomerID, &item.ContentType, &item.StripeID,
		&item.Value, &item.StartDate, &expiration, &item.IsExclusive); err != nil {
		return nil, err
	}
	if expiration.Valid {
		item.ExpirationDate = &expiration.Time
	}
	return &item, nil
}
