package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/subscription-backend/internal/models"
)

// CreateProfile сохраняет новый профиль и возвращает его ID.
func (s *Storage) CreateProfile(ctx context.Context, profile models.UserProfile) (int, error) {
	const op = "storage.CreateProfile"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO user_profiles (user_uid, customer_id, allowed_actions, feature_list)
			  VALUES ($1, $2, $3, $4)
			  RETURNING id`
	var newID int
	if err := s.DB.QueryRowContext(ctx, query,
		profile.UserUID, profile.CustomerID, profile.AllowedActions, profile.FeatureList).
		Scan(&newID); err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%s: %w", op, ErrAlreadyExists)
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetProfile возвращает профиль по его ID.
func (s *Storage) GetProfile(ctx context.Context, id int) (*models.UserProfile, error) {
	const op = "storage.GetProfile"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, customer_id, allowed_actions, feature_list
			  FROM user_profiles
			  WHERE id = $1`
	return s.scanProfile(s.DB.QueryRowContext(ctx, query, id), op)
}

// GetProfileByUser возвращает профиль пользователя. У пользователя
// не больше одного профиля на клиента, для разрешения прав берётся
// профиль с привязкой к клиенту, если он есть.
func (s *Storage) GetProfileByUser(ctx context.Context, userUID string) (*models.UserProfile, error) {
	const op = "storage.GetProfileByUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, customer_id, allowed_actions, feature_list
			  FROM user_profiles
			  WHERE user_uid = $1
			  ORDER BY customer_id NULLS LAST
			  LIMIT 1`
	return s.scanProfile(s.DB.QueryRowContext(ctx, query, userUID), op)
}

func (s *Storage) scanProfile(row *sql.Row, op string) (*models.UserProfile, error) {
	p := &models.UserProfile{}
	var customerID sql.NullInt64
	if err := row.Scan(&p.ID, &p.UserUID, &customerID, &p.AllowedActions, &p.FeatureList); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if customerID.Valid {
		id := int(customerID.Int64)
		p.CustomerID = &id
	}
	return p, nil
}

// ListProfilesByUser возвращает все профили пользователя.
func (s *Storage) ListProfilesByUser(ctx context.Context, userUID string) ([]*models.UserProfile, error) {
	const op = "storage.ListProfilesByUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, customer_id, allowed_actions, feature_list
			  FROM user_profiles
			  WHERE user_uid = $1
			  ORDER BY id`
	return s.listProfiles(ctx, query, op, userUID)
}

// ListProfilesByCustomer возвращает профили клиента с пагинацией.
func (s *Storage) ListProfilesByCustomer(ctx context.Context, customerID, limit, offset int) ([]*models.UserProfile, error) {
	const op = "storage.ListProfilesByCustomer"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, customer_id, allowed_actions, feature_list
			  FROM user_profiles
			  WHERE customer_id = $1
			  ORDER BY id
			  LIMIT $2 OFFSET $3`
	return s.listProfiles(ctx, query, op, customerID, limit, offset)
}

func (s *Storage) listProfiles(ctx context.Context, query, op string, args ...any) ([]*models.UserProfile, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.UserProfile
	for rows.Next() {
		var p models.UserProfile
		var customerID sql.NullInt64
		if err := rows.Scan(&p.ID, &p.UserUID, &customerID, &p.AllowedActions, &p.FeatureList); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if customerID.Valid {
			id := int(customerID.Int64)
			p.CustomerID = &id
		}
		result = append(result, &p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateProfile обновляет роль и список фич профиля, возвращает
// количество изменённых строк.
func (s *Storage) UpdateProfile(ctx context.Context, id int, allowedActions, featureList string) (int, error) {
	const op = "storage.UpdateProfile"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE user_profiles
			  SET allowed_actions = $1, feature_list = $2
			  WHERE id = $3`
	result, err := s.DB.ExecContext(ctx, query, allowedActions, featureList, id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// RemoveProfile удаляет профиль по ID и возвращает количество
// удалённых строк.
func (s *Storage) RemoveProfile(ctx context.Context, id int) (int, error) {
	const op = "storage.RemoveProfile"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `DELETE FROM user_profiles WHERE id = $1`
	result, err := s.DB.ExecContext(ctx, query, id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}
