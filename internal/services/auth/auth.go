// Package services реализует регистрацию, вход и управление паролями
// пользователей. Токены выпускаются парой access/refresh.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/subscription-backend/internal/lib/jwt"
	"github.com/magabrotheeeer/subscription-backend/internal/lib/password"
	"github.com/magabrotheeeer/subscription-backend/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-backend/internal/models"
	"github.com/magabrotheeeer/subscription-backend/internal/storage/repository"
)

// ErrEmailTaken возвращается при регистрации на уже занятый email.
var ErrEmailTaken = errors.New("email already taken")

// ErrInvalidCredentials возвращается при неверном email или пароле.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrInvalidToken возвращается при недействительном refresh-токене.
var ErrInvalidToken = errors.New("invalid token")

// ErrWeakPassword возвращается, если пароль не прошёл проверку
// сложности. Список нарушений приходит отдельно.
var ErrWeakPassword = errors.New("password is too weak")

// Repository определяет методы хранилища для пользователей.
type Repository interface {
	RegisterUser(ctx context.Context, user models.User) (string, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUserPassword(ctx context.Context, uid, passwordHash string) error
}

// Notifier публикует уведомления о регистрации.
type Notifier interface {
	PublishWelcome(email, firstName string) error
}

// TokenPair содержит пару access/refresh токенов.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AuthService реализует бизнес-логику аутентификации.
type AuthService struct {
	repo     Repository
	maker    jwt.Maker
	notifier Notifier
	log      *slog.Logger
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(repo Repository, maker jwt.Maker, notifier Notifier, log *slog.Logger) *AuthService {
	return &AuthService{
		repo:     repo,
		maker:    maker,
		notifier: notifier,
		log:      log,
	}
}

// ValidateRegistration проверяет, свободен ли email и достаточно ли
// сложен пароль, не создавая пользователя. Возвращает список нарушений
// требований к паролю.
func (s *AuthService) ValidateRegistration(ctx context.Context, email, rawPassword string) ([]string, error) {
	const op = "auth.ValidateRegistration"

	_, err := s.repo.GetUserByEmail(ctx, email)
	if err == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrEmailTaken)
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	violations := password.Validate(rawPassword)
	if len(violations) > 0 {
		return violations, fmt.Errorf("%s: %w", op, ErrWeakPassword)
	}
	return nil, nil
}

// Register создаёт активного пользователя с захешированным паролем
// и публикует приветственное уведомление.
func (s *AuthService) Register(ctx context.Context, email, rawPassword, firstName, lastName string) (string, []string, error) {
	const op = "auth.Register"

	violations := password.Validate(rawPassword)
	if len(violations) > 0 {
		return "", violations, fmt.Errorf("%s: %w", op, ErrWeakPassword)
	}

	hash, err := password.GetHash(rawPassword)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}

	uid, err := s.repo.RegisterUser(ctx, models.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    firstName,
		LastName:     lastName,
		IsActive:     true,
	})
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return "", nil, fmt.Errorf("%s: %w", op, ErrEmailTaken)
		}
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.notifier.PublishWelcome(email, firstName); err != nil {
		s.log.Error("failed to publish welcome notification", sl.Err(err))
	}

	s.log.Info("registered user", slog.String("uid", uid))
	return uid, nil, nil
}

// Login проверяет email и пароль и выпускает пару токенов.
// Пользователь без пригодного пароля или деактивированный войти
// не может.
func (s *AuthService) Login(ctx context.Context, email, rawPassword string) (*TokenPair, error) {
	const op = "auth.Login"

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !user.IsActive || !user.HasUsablePassword() {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}
	if err := password.CompareHash(rawPassword, user.PasswordHash); err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	return s.issueTokens(user.Email, user.UID, op)
}

// Refresh проверяет refresh-токен и выпускает новую пару токенов.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	const op = "auth.Refresh"

	claims, err := s.maker.ParseToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}
	if claims.TokenType != jwt.TokenTypeRefresh {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	user, err := s.repo.GetUserByEmail(ctx, claims.Email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}
	if !user.IsActive {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	return s.issueTokens(user.Email, user.UID, op)
}

// ChangePassword проверяет старый пароль и устанавливает новый.
func (s *AuthService) ChangePassword(ctx context.Context, uid, email, oldPassword, newPassword string) ([]string, error) {
	const op = "auth.ChangePassword"

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(oldPassword, user.PasswordHash); err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	violations := password.Validate(newPassword)
	if len(violations) > 0 {
		return violations, fmt.Errorf("%s: %w", op, ErrWeakPassword)
	}

	hash, err := password.GetHash(newPassword)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.repo.UpdateUserPassword(ctx, uid, hash); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("changed password", slog.String("uid", uid))
	return nil, nil
}

func (s *AuthService) issueTokens(email, uid, op string) (*TokenPair, error) {
	access, err := s.maker.GenerateToken(email, uid)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	refresh, err := s.maker.GenerateRefreshToken(email, uid)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
