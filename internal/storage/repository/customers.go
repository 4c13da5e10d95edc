package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/subscription-backend/internal/models"
)

// CreateCustomerWithProfile в одной транзакции создаёт клиента и
// профиль администратора для его владельца. Либо создаются обе записи,
// либо ни одной.
func (s *Storage) CreateCustomerWithProfile(ctx context.Context, name, ownerUID string) (*models.Customer, *models.UserProfile, error) {
	const op = "storage.CreateCustomerWithProfile"
	select {
	case <-ctx.Done():
		return nil, nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	customer := &models.Customer{Name: name, OwnerUID: ownerUID}
	query := `INSERT INTO customers (name, owner_uid)
			  VALUES ($1, $2)
			  RETURNING id, credits, created_at`
	if err := tx.QueryRowContext(ctx, query, name, ownerUID).
		Scan(&customer.ID, &customer.Credits, &customer.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return nil, nil, fmt.Errorf("%s: %w", op, ErrAlreadyExists)
		}
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	profile := &models.UserProfile{
		UserUID:        ownerUID,
		CustomerID:     &customer.ID,
		AllowedActions: models.RoleAdministrator,
	}
	query = `INSERT INTO user_profiles (user_uid, customer_id, allowed_actions, feature_list)
			 VALUES ($1, $2, $3, $4)
			 RETURNING id`
	if err := tx.QueryRowContext(ctx, query,
		profile.UserUID, customer.ID, profile.AllowedActions, profile.FeatureList).
		Scan(&profile.ID); err != nil {
		if isUniqueViolation(err) {
			return nil, nil, fmt.Errorf("%s: %w", op, ErrAlreadyExists)
		}
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	return customer, profile, nil
}

// GetCustomer возвращает клиента по его ID.
func (s *Storage) GetCustomer(ctx context.Context, id int) (*models.Customer, error) {
	const op = "storage.GetCustomer"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, name, owner_uid, credits, created_at
			  FROM customers
			  WHERE id = $1`
	c := &models.Customer{}
	if err := s.DB.QueryRowContext(ctx, query, id).
		Scan(&c.ID, &c.Name, &c.OwnerUID, &c.Credits, &c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

// GetCustomerByOwner возвращает клиента по UID его владельца.
func (s *Storage) GetCustomerByOwner(ctx context.Context, ownerUID string) (*models.Customer, error) {
	const op = "storage.GetCustomerByOwner"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, name, owner_uid, credits, created_at
			  FROM customers
			  WHERE owner_uid = $1`
	c := &models.Customer{}
	if err := s.DB.QueryRowContext(ctx, query, ownerUID).
		Scan(&c.ID, &c.Name, &c.OwnerUID, &c.Credits, &c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

// UpdateCustomer обновляет данные клиента и возвращает количество
// изменённых строк.
func (s *Storage) UpdateCustomer(ctx context.Context, id int, name string) (int, error) {
	const op = "storage.UpdateCustomer"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE customers
			  SET name = $1
			  WHERE id = $2`
	result, err := s.DB.ExecContext(ctx, query, name, id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// ListCustomers возвращает список клиентов с пагинацией.
func (s *Storage) ListCustomers(ctx context.Context, limit, offset int) ([]*models.Customer, error) {
	const op = "storage.ListCustomers"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, name, owner_uid, credits, created_at
			  FROM customers
			  ORDER BY id
			  LIMIT $1 OFFSET $2`
	rows, err := s.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Customer
	for rows.Next() {
		var c models.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.OwnerUID, &c.Credits, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// SpendCustomerCredits атомарно списывает кредиты клиента. Возвращает
// false, если кредитов недостаточно.
func (s *Storage) SpendCustomerCredits(ctx context.Context, customerID, amount int) (bool, error) {
	const op = "storage.SpendCustomerCredits"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE customers
			  SET credits = credits - $1
			  WHERE id = $2 AND credits >= $1`
	result, err := s.DB.ExecContext(ctx, query, amount, customerID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return rowsAffected > 0, nil
}

// AddCustomerCredits пополняет кредиты клиента.
func (s *Storage) AddCustomerCredits(ctx context.Context, customerID, amount int) error {
	const op = "storage.AddCustomerCredits"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE customers
			  SET credits = credits + $1
			  WHERE id = $2`
	_, err := s.DB.ExecContext(ctx, query, amount, customerID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
