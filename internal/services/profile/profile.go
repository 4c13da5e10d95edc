// Package services содержит бизнес-логику работы с профилями:
// разрешение прав на действия и фичи, кредиты клиента и приглашение
// новых пользователей. Результат пересечения фич профиля и плана
// кешируется.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/subscription-backend/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-backend/internal/models"
	"github.com/magabrotheeeer/subscription-backend/internal/storage/repository"
)

// ErrNoCustomer возвращается для операций, требующих привязки
// профиля к клиенту.
var ErrNoCustomer = errors.New("profile has no customer")

// ErrInsufficientCredits возвращается при попытке списать больше
// кредитов, чем есть у клиента.
var ErrInsufficientCredits = errors.New("insufficient credits")

// Repository определяет методы хранилища для профилей, пользователей
// и кредитов клиентов.
type Repository interface {
	CreateProfile(ctx context.Context, profile models.UserProfile) (int, error)
	GetProfile(ctx context.Context, id int) (*models.UserProfile, error)
	GetProfileByUser(ctx context.Context, userUID string) (*models.UserProfile, error)
	ListProfilesByUser(ctx context.Context, userUID string) ([]*models.UserProfile, error)
	ListProfilesByCustomer(ctx context.Context, customerID, limit, offset int) ([]*models.UserProfile, error)
	UpdateProfile(ctx context.Context, id int, allowedActions, featureList string) (int, error)
	RemoveProfile(ctx context.Context, id int) (int, error)

	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	RegisterUser(ctx context.Context, user models.User) (string, error)

	GetCustomer(ctx context.Context, id int) (*models.Customer, error)
	SpendCustomerCredits(ctx context.Context, customerID, amount int) (bool, error)
}

// Entitlements описывает разрешение фич клиента по его активной подписке.
type Entitlements interface {
	AvailableFeatures(ctx context.Context, customerID int) ([]string, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// Notifier публикует уведомления. Ошибка публикации логируется
// и не прерывает основную операцию.
type Notifier interface {
	PublishInvite(email, firstName string) error
}

// ProfileService реализует бизнес-логику профилей.
type ProfileService struct {
	repo         Repository
	entitlements Entitlements
	cache        Cache
	notifier     Notifier
	log          *slog.Logger
}

// NewProfileService создает новый экземпляр ProfileService.
func NewProfileService(repo Repository, entitlements Entitlements, cache Cache, notifier Notifier, log *slog.Logger) *ProfileService {
	return &ProfileService{
		repo:         repo,
		entitlements: entitlements,
		cache:        cache,
		notifier:     notifier,
		log:          log,
	}
}

// GetByUser возвращает профиль пользователя для разрешения прав.
func (s *ProfileService) GetByUser(ctx context.Context, userUID string) (*models.UserProfile, error) {
	return s.repo.GetProfileByUser(ctx, userUID)
}

// ListByUser возвращает все профили пользователя.
func (s *ProfileService) ListByUser(ctx context.Context, userUID string) ([]*models.UserProfile, error) {
	return s.repo.ListProfilesByUser(ctx, userUID)
}

// ListByCustomer возвращает профили клиента с пагинацией.
func (s *ProfileService) ListByCustomer(ctx context.Context, customerID, limit, offset int) ([]*models.UserProfile, error) {
	return s.repo.ListProfilesByCustomer(ctx, customerID, limit, offset)
}

// Read возвращает профиль по ID.
func (s *ProfileService) Read(ctx context.Context, id int) (*models.UserProfile, error) {
	return s.repo.GetProfile(ctx, id)
}

// GetAvailableFeatures возвращает пересечение фич, явно выданных
// профилю, и фич активного плана его клиента. Профиль без клиента
// или без выданных фич не имеет доступных фич. Пересечение
// кешируется на час.
func (s *ProfileService) GetAvailableFeatures(ctx context.Context, profile *models.UserProfile) ([]string, error) {
	const op = "profile.GetAvailableFeatures"

	if profile.CustomerID == nil {
		return nil, nil
	}
	granted := profile.GrantedFeatures()
	if len(granted) == 0 {
		return nil, nil
	}

	cacheKey := fmt.Sprintf("profile:features:%d", profile.ID)
	var cached []string
	found, err := s.cache.Get(cacheKey, &cached)
	if err != nil {
		s.log.Warn("failed to read features from cache", slog.String("key", cacheKey), sl.Err(err))
	}
	if found {
		return cached, nil
	}

	planFeatures, err := s.entitlements.AvailableFeatures(ctx, *profile.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	inPlan := make(map[string]bool, len(planFeatures))
	for _, code := range planFeatures {
		inPlan[code] = true
	}
	var result []string
	for _, code := range granted {
		if inPlan[code] {
			result = append(result, code)
		}
	}

	if err := s.cache.Set(cacheKey, result, time.Hour); err != nil {
		s.log.Warn("failed to cache features", slog.String("key", cacheKey), sl.Err(err))
	}
	return result, nil
}

// CanAccessFeature проверяет, доступна ли профилю фича с данным кодом.
func (s *ProfileService) CanAccessFeature(ctx context.Context, profile *models.UserProfile, featureCode string) (bool, error) {
	features, err := s.GetAvailableFeatures(ctx, profile)
	if err != nil {
		return false, err
	}
	for _, code := range features {
		if code == featureCode {
			return true, nil
		}
	}
	return false, nil
}

// HasCredits проверяет, достаточно ли кредитов у клиента профиля.
// Профиль без клиента кредитов не имеет.
func (s *ProfileService) HasCredits(ctx context.Context, profile *models.UserProfile, amount int) (bool, error) {
	const op = "profile.HasCredits"
	if profile.CustomerID == nil {
		return false, nil
	}
	customer, err := s.repo.GetCustomer(ctx, *profile.CustomerID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return customer.Credits >= amount, nil
}

// SpendCredits списывает кредиты клиента профиля. Профиль без клиента
// списывать не может.
func (s *ProfileService) SpendCredits(ctx context.Context, profile *models.UserProfile, amount int) error {
	const op = "profile.SpendCredits"
	if profile.CustomerID == nil {
		return fmt.Errorf("%s: %w", op, ErrNoCustomer)
	}
	ok, err := s.repo.SpendCustomerCredits(ctx, *profile.CustomerID, amount)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return fmt.Errorf("%s: %w", op, ErrInsufficientCredits)
	}
	return nil
}

// Create создаёт профиль в клиенте по email пользователя. Если
// пользователя с таким email ещё нет, создаётся неактивная учётная
// запись без пригодного пароля и публикуется приглашение. Возвращает
// ID профиля и признак того, что пользователь был приглашён.
func (s *ProfileService) Create(ctx context.Context, customerID int, req models.DummyProfile) (int, bool, error) {
	const op = "profile.Create"

	invited := false
	user, err := s.repo.GetUserByEmail(ctx, req.UserEmail)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return 0, false, fmt.Errorf("%s: %w", op, err)
		}
		// Приглашённый пользователь создаётся без пригодного пароля,
		// войти он сможет только после установки пароля.
		uid, err := s.repo.RegisterUser(ctx, models.User{
			Email:     req.UserEmail,
			FirstName: req.UserName,
			IsActive:  false,
		})
		if err != nil {
			return 0, false, fmt.Errorf("%s: %w", op, err)
		}
		user = &models.User{UID: uid, Email: req.UserEmail, FirstName: req.UserName}
		invited = true

		if err := s.notifier.PublishInvite(user.Email, user.FirstName); err != nil {
			s.log.Error("failed to publish invite notification", sl.Err(err))
		}
	}

	id, err := s.repo.CreateProfile(ctx, models.UserProfile{
		UserUID:        user.UID,
		CustomerID:     &customerID,
		AllowedActions: req.AllowedActions,
		FeatureList:    req.FeatureList,
	})
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("created profile", slog.Int("id", id), slog.Int("customer_id", customerID))
	return id, invited, nil
}

// Update обновляет роль и список фич профиля и инвалидирует кеш.
func (s *ProfileService) Update(ctx context.Context, id int, req models.DummyProfileUpdate) (int, error) {
	const op = "profile.Update"

	count, err := s.repo.UpdateProfile(ctx, id, req.AllowedActions, req.FeatureList)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	cacheKey := fmt.Sprintf("profile:features:%d", id)
	if err := s.cache.Invalidate(cacheKey); err != nil {
		s.log.Warn("failed to invalidate features cache", slog.String("key", cacheKey), sl.Err(err))
	}
	return count, nil
}

// Remove удаляет профиль и инвалидирует кеш.
func (s *ProfileService) Remove(ctx context.Context, id int) (int, error) {
	const op = "profile.Remove"

	cacheKey := fmt.Sprintf("profile:features:%d", id)
	if err := s.cache.Invalidate(cacheKey); err != nil {
		s.log.Warn("failed to invalidate features cache", slog.String("key", cacheKey), sl.Err(err))
	}

	count, err := s.repo.RemoveProfile(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}
