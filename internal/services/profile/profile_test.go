package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/subscription-backend/internal/models"
	"github.com/magabrotheeeer/subscription-backend/internal/storage/repository"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) CreateProfile(ctx context.Context, profile models.UserProfile) (int, error) {
	args := m.Called(ctx, profile)
	return args.Int(0), args.Error(1)
}
func (m *RepoMock) GetProfile(ctx context.Context, id int) (*models.UserProfile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserProfile), args.Error(1)
}
func (m *RepoMock) GetProfileByUser(ctx context.Context, userUID string) (*models.UserProfile, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserProfile), args.Error(1)
}
func (m *RepoMock) ListProfilesByUser(ctx context.Context, userUID string) ([]*models.UserProfile, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.UserProfile), args.Error(1)
}
func (m *RepoMock) ListProfilesByCustomer(ctx context.Context, customerID, limit, offset int) ([]*models.UserProfile, error) {
	args := m.Called(ctx, customerID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.UserProfile), args.Error(1)
}
func (m *RepoMock) UpdateProfile(ctx context.Context, id int, allowedActions, featureList string) (int, error) {
	args := m.Called(ctx, id, allowedActions, featureList)
	return args.Int(0), args.Error(1)
}
func (m *RepoMock) RemoveProfile(ctx context.Context, id int) (int, error) {
	args := m.Called(ctx, id)
	return args.Int(0), args.Error(1)
}
func (m *RepoMock) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *RepoMock) RegisterUser(ctx context.Context, user models.User) (string, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.Error(1)
}
func (m *RepoMock) GetCustomer(ctx context.Context, id int) (*models.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Customer), args.Error(1)
}
func (m *RepoMock) SpendCustomerCredits(ctx context.Context, customerID, amount int) (bool, error) {
	args := m.Called(ctx, customerID, amount)
	return args.Bool(0), args.Error(1)
}

type EntitlementsMock struct{ mock.Mock }

func (m *EntitlementsMock) AvailableFeatures(ctx context.Context, customerID int) ([]string, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Get(key string, result any) (bool, error) {
	args := m.Called(key, result)
	return args.Bool(0), args.Error(1)
}
func (m *CacheMock) Set(key string, value any, expiration time.Duration) error {
	return m.Called(key, value, expiration).Error(0)
}
func (m *CacheMock) Invalidate(key string) error {
	return m.Called(key).Error(0)
}

type NotifierMock struct{ mock.Mock }

func (m *NotifierMock) PublishInvite(email, firstName string) error {
	return m.Called(email, firstName).Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func newService(r *RepoMock, e *EntitlementsMock, c *CacheMock, n *NotifierMock) *ProfileService {
	return NewProfileService(r, e, c, n, newNoopLogger())
}

func intPtr(v int) *int { return &v }

func TestProfileService_GetAvailableFeatures(t *testing.T) {
	tests := []struct {
		name       string
		profile    *models.UserProfile
		setupMocks func(e *EntitlementsMock, c *CacheMock)
		want       []string
		wantErr    bool
	}{
		{
			name: "пересечение фич профиля и плана",
			profile: &models.UserProfile{
				ID:          5,
				CustomerID:  intPtr(7),
				FeatureList: "basic_export,import",
			},
			setupMocks: func(e *EntitlementsMock, c *CacheMock) {
				c.On("Get", "profile:features:5", mock.Anything).Return(false, nil).Once()
				e.On("AvailableFeatures", mock.Anything, 7).
					Return([]string{"auth", "basic_export"}, nil).Once()
				c.On("Set", "profile:features:5", []string{"basic_export"}, time.Hour).Return(nil).Once()
			},
			want: []string{"basic_export"},
		},
		{
			name:    "профиль без клиента не имеет фич",
			profile: &models.UserProfile{ID: 6, FeatureList: "basic_export"},
			setupMocks: func(_ *EntitlementsMock, _ *CacheMock) {
			},
			want: nil,
		},
		{
			name:    "профиль без выданных фич",
			profile: &models.UserProfile{ID: 8, CustomerID: intPtr(7), FeatureList: ""},
			setupMocks: func(_ *EntitlementsMock, _ *CacheMock) {
			},
			want: nil,
		},
		{
			name: "ответ из кеша без похода в план",
			profile: &models.UserProfile{
				ID:          9,
				CustomerID:  intPtr(7),
				FeatureList: "auth",
			},
			setupMocks: func(e *EntitlementsMock, c *CacheMock) {
				c.On("Get", "profile:features:9", mock.Anything).
					Run(func(args mock.Arguments) {
						out := args.Get(1).(*[]string)
						*out = []string{"auth"}
					}).Return(true, nil).Once()
			},
			want: []string{"auth"},
		},
		{
			name: "ошибка разрешения плана",
			profile: &models.UserProfile{
				ID:          10,
				CustomerID:  intPtr(7),
				FeatureList: "auth",
			},
			setupMocks: func(e *EntitlementsMock, c *CacheMock) {
				c.On("Get", "profile:features:10", mock.Anything).Return(false, nil).Once()
				e.On("AvailableFeatures", mock.Anything, 7).
					Return(nil, errors.New("db down")).Once()
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, ent, cache, notifier := new(RepoMock), new(EntitlementsMock), new(CacheMock), new(NotifierMock)
			tt.setupMocks(ent, cache)
			svc := newService(repo, ent, cache, notifier)

			got, err := svc.GetAvailableFeatures(context.Background(), tt.profile)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			ent.AssertExpectations(t)
			cache.AssertExpectations(t)
		})
	}
}

func TestProfileService_CanAccessFeature(t *testing.T) {
	profile := &models.UserProfile{
		ID:          5,
		CustomerID:  intPtr(7),
		FeatureList: "basic_export,import",
	}

	repo, ent, cache, notifier := new(RepoMock), new(EntitlementsMock), new(CacheMock), new(NotifierMock)
	cache.On("Get", "profile:features:5", mock.Anything).Return(false, nil).Twice()
	ent.On("AvailableFeatures", mock.Anything, 7).
		Return([]string{"auth", "basic_export"}, nil).Twice()
	cache.On("Set", "profile:features:5", []string{"basic_export"}, time.Hour).Return(nil).Twice()

	svc := newService(repo, ent, cache, notifier)

	ok, err := svc.CanAccessFeature(context.Background(), profile, "basic_export")
	assert.NoError(t, err)
	assert.True(t, ok)

	// import выдан профилю, но не входит в план
	ok, err = svc.CanAccessFeature(context.Background(), profile, "import")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestProfileService_Credits(t *testing.T) {
	profile := &models.UserProfile{ID: 5, CustomerID: intPtr(7)}

	t.Run("кредитов достаточно", func(t *testing.T) {
		repo, ent, cache, notifier := new(RepoMock), new(EntitlementsMock), new(CacheMock), new(NotifierMock)
		repo.On("GetCustomer", mock.Anything, 7).
			Return(&models.Customer{ID: 7, Credits: 50}, nil).Once()
		svc := newService(repo, ent, cache, notifier)

		ok, err := svc.HasCredits(context.Background(), profile, 30)
		assert.NoError(t, err)
		assert.True(t, ok)
		repo.AssertExpectations(t)
	})

	t.Run("профиль без клиента не имеет кредитов", func(t *testing.T) {
		repo, ent, cache, notifier := new(RepoMock), new(EntitlementsMock), new(CacheMock), new(NotifierMock)
		svc := newService(repo, ent, cache, notifier)

		ok, err := svc.HasCredits(context.Background(), &models.UserProfile{ID: 6}, 1)
		assert.NoError(t, err)
		assert.False(t, ok)

		err = svc.SpendCredits(context.Background(), &models.UserProfile{ID: 6}, 1)
		assert.ErrorIs(t, err, ErrNoCustomer)
	})

	t.Run("успешное списание", func(t *testing.T) {
		repo, ent, cache, notifier := new(RepoMock), new(EntitlementsMock), new(CacheMock), new(NotifierMock)
		repo.On("SpendCustomerCredits", mock.Anything, 7, 30).Return(true, nil).Once()
		svc := newService(repo, ent, cache, notifier)

		err := svc.SpendCredits(context.Background(), profile, 30)
		assert.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("недостаточно кредитов", func(t *testing.T) {
		repo, ent, cache, notifier := new(RepoMock), new(EntitlementsMock), new(CacheMock), new(NotifierMock)
		repo.On("SpendCustomerCredits", mock.Anything, 7, 100).Return(false, nil).Once()
		svc := newService(repo, ent, cache, notifier)

		err := svc.SpendCredits(context.Background(), profile, 100)
		assert.ErrorIs(t, err, ErrInsufficientCredits)
		repo.AssertExpectations(t)
	})
}

func TestProfileService_Create(t *testing.T) {
	req := models.DummyProfile{
		UserEmail:      "new@example.com",
		UserName:       "Анна",
		AllowedActions: models.RoleViewer,
		FeatureList:    "basic_export",
	}

	t.Run("существующий пользователь добавляется без приглашения", func(t *testing.T) {
		repo, ent, cache, notifier := new(RepoMock), new(EntitlementsMock), new(CacheMock), new(NotifierMock)
		repo.On("GetUserByEmail", mock.Anything, req.UserEmail).
			Return(&models.User{UID: "uid-1", Email: req.UserEmail, IsActive: true}, nil).Once()
		repo.On("CreateProfile", mock.Anything, mock.MatchedBy(func(p models.UserProfile) bool {
			return p.UserUID == "uid-1" && *p.CustomerID == 7 &&
				p.AllowedActions == models.RoleViewer && p.FeatureList == "basic_export"
		})).Return(55, nil).Once()
		svc := newService(repo, ent, cache, notifier)

		id, invited, err := svc.Create(context.Background(), 7, req)
		assert.NoError(t, err)
		assert.Equal(t, 55, id)
		assert.False(t, invited)
		repo.AssertExpectations(t)
		notifier.AssertNotCalled(t, "PublishInvite", mock.Anything, mock.Anything)
	})

	t.Run("новый пользователь приглашается", func(t *testing.T) {
		repo, ent, cache, notifier := new(RepoMock), new(EntitlementsMock), new(CacheMock), new(NotifierMock)
		repo.On("GetUserByEmail", mock.Anything, req.UserEmail).
			Return(nil, repository.ErrNotFound).Once()
		repo.On("RegisterUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
			return u.Email == req.UserEmail && u.PasswordHash == "" && !u.IsActive
		})).Return("uid-2", nil).Once()
		notifier.On("PublishInvite", req.UserEmail, req.UserName).Return(nil).Once()
		repo.On("CreateProfile", mock.Anything, mock.Anything).Return(56, nil).Once()
		svc := newService(repo, ent, cache, notifier)

		id, invited, err := svc.Create(context.Background(), 7, req)
		assert.NoError(t, err)
		assert.Equal(t, 56, id)
		assert.True(t, invited)
		repo.AssertExpectations(t)
		notifier.AssertExpectations(t)
	})

	t.Run("ошибка публикации приглашения не прерывает создание", func(t *testing.T) {
		repo, ent, cache, notifier := new(RepoMock), new(EntitlementsMock), new(CacheMock), new(NotifierMock)
		repo.On("GetUserByEmail", mock.Anything, req.UserEmail).
			Return(nil, repository.ErrNotFound).Once()
		repo.On("RegisterUser", mock.Anything, mock.Anything).Return("uid-3", nil).Once()
		notifier.On("PublishInvite", req.UserEmail, req.UserName).
			Return(errors.New("broker down")).Once()
		repo.On("CreateProfile", mock.Anything, mock.Anything).Return(57, nil).Once()
		svc := newService(repo, ent, cache, notifier)

		id, invited, err := svc.Create(context.Background(), 7, req)
		assert.NoError(t, err)
		assert.Equal(t, 57, id)
		assert.True(t, invited)
	})

	t.Run("повторный профиль в том же клиенте", func(t *testing.T) {
		repo, ent, cache, notifier := new(RepoMock), new(EntitlementsMock), new(CacheMock), new(NotifierMock)
		repo.On("GetUserByEmail", mock.Anything, req.UserEmail).
			Return(&models.User{UID: "uid-1"}, nil).Once()
		repo.On("CreateProfile", mock.Anything, mock.Anything).
			Return(0, repository.ErrAlreadyExists).Once()
		svc := newService(repo, ent, cache, notifier)

		_, _, err := svc.Create(context.Background(), 7, req)
		assert.ErrorIs(t, err, repository.ErrAlreadyExists)
	})
}

func TestProfileService_UpdateRemove(t *testing.T) {
	t.Run("обновление инвалидирует кеш", func(t *testing.T) {
		repo, ent, cache, notifier := new(RepoMock), new(EntitlementsMock), new(CacheMock), new(NotifierMock)
		repo.On("UpdateProfile", mock.Anything, 5, models.RoleEditor, "auth").Return(1, nil).Once()
		cache.On("Invalidate", "profile:features:5").Return(nil).Once()
		svc := newService(repo, ent, cache, notifier)

		count, err := svc.Update(context.Background(), 5, models.DummyProfileUpdate{
			AllowedActions: models.RoleEditor,
			FeatureList:    "auth",
		})
		assert.NoError(t, err)
		assert.Equal(t, 1, count)
		cache.AssertExpectations(t)
	})

	t.Run("удаление инвалидирует кеш", func(t *testing.T) {
		repo, ent, cache, notifier := new(RepoMock), new(EntitlementsMock), new(CacheMock), new(NotifierMock)
		cache.On("Invalidate", "profile:features:5").Return(nil).Once()
		repo.On("RemoveProfile", mock.Anything, 5).Return(1, nil).Once()
		svc := newService(repo, ent, cache, notifier)

		count, err := svc.Remove(context.Background(), 5)
		assert.NoError(t, err)
		assert.Equal(t, 1, count)
		cache.AssertExpectations(t)
	})
}
