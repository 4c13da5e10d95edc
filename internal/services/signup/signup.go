// Package services завершает онбординг: создаёт клиента и
// административный профиль владельца в одной транзакции.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/subscription-backend/internal/models"
	"github.com/magabrotheeeer/subscription-backend/internal/storage/repository"
)

// ErrSignupCompleted возвращается при повторной попытке завершить
// онбординг: у пользователя уже есть клиент.
var ErrSignupCompleted = errors.New("signup already completed")

// Repository определяет методы хранилища для онбординга.
type Repository interface {
	CreateCustomerWithProfile(ctx context.Context, name, ownerUID string) (*models.Customer, *models.UserProfile, error)
}

// SignupService реализует завершение онбординга.
type SignupService struct {
	repo Repository
	log  *slog.Logger
}

// NewSignupService создает новый экземпляр SignupService.
func NewSignupService(repo Repository, log *slog.Logger) *SignupService {
	return &SignupService{repo: repo, log: log}
}

// CompleteSignup создаёт клиента с указанным именем и профиль
// администратора для владельца. Обе записи создаются атомарно,
// повторный вызов для того же пользователя завершится ошибкой.
// Возвращает ID клиента и ID профиля.
func (s *SignupService) CompleteSignup(ctx context.Context, ownerUID, customerName string) (*models.Customer, *models.UserProfile, error) {
	const op = "signup.CompleteSignup"

	customer, profile, err := s.repo.CreateCustomerWithProfile(ctx, customerName, ownerUID)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, nil, fmt.Errorf("%s: %w", op, ErrSignupCompleted)
		}
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("completed signup",
		slog.Int("customer_id", customer.ID),
		slog.Int("profile_id", profile.ID))
	return customer, profile, nil
}
