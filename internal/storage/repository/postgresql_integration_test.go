package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/subscription-backend/internal/models"
)

func TestStorage_RegisterUser(t *testing.T) {
	tests := []struct {
		name    string
		user    models.User
		setup   func(t *testing.T, factory *TestDataFactory)
		wantErr error
	}{
		{
			name: "successful register active user",
			user: models.User{
				Email:        "owner@example.com",
				PasswordHash: "hashedpassword",
				FirstName:    "Анна",
				IsActive:     true,
			},
			setup: func(_ *testing.T, _ *TestDataFactory) {},
		},
		{
			name: "successful register invited user without password",
			user: models.User{
				Email:     "invited@example.com",
				FirstName: "Борис",
				IsActive:  false,
			},
			setup: func(_ *testing.T, _ *TestDataFactory) {},
		},
		{
			name: "duplicate email returns already exists",
			user: models.User{
				Email:        "taken@example.com",
				PasswordHash: "hashedpassword",
				IsActive:     true,
			},
			setup: func(t *testing.T, factory *TestDataFactory) {
				factory.CreateUser(t, "taken@example.com", "hashedpassword", "testuser", true)
			},
			wantErr: ErrAlreadyExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage, cleanup := setupTestDatabase(t)
			defer cleanup()

			factory := NewTestDataFactory(storage)
			tt.setup(t, factory)

			uid, err := storage.RegisterUser(context.Background(), tt.user)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr))
				return
			}
			require.NoError(t, err)
			require.NotEmpty(t, uid)

			verification := NewTestVerification(storage)
			verification.VerifyUserExists(t, uid)

			got, err := storage.GetUser(context.Background(), uid)
			require.NoError(t, err)
			assert.Equal(t, tt.user.Email, got.Email)
			assert.Equal(t, tt.user.IsActive, got.IsActive)
			assert.Equal(t, tt.user.PasswordHash, got.PasswordHash)
		})
	}
}

func TestStorage_CreateCustomerWithProfile(t *testing.T) {
	t.Run("successful create customer with admin profile", func(t *testing.T) {
		storage, cleanup := setupTestDatabase(t)
		defer cleanup()

		factory := NewTestDataFactory(storage)
		ownerUID := factory.CreateUser(t, "owner@example.com", "hashedpassword", "testuser", true)

		customer, profile, err := storage.CreateCustomerWithProfile(context.Background(), "ООО Ромашка", ownerUID)
		require.NoError(t, err)
		require.NotNil(t, customer)
		require.NotNil(t, profile)

		assert.Equal(t, "ООО Ромашка", customer.Name)
		assert.Equal(t, ownerUID, customer.OwnerUID)
		assert.Equal(t, 0, customer.Credits)

		assert.Equal(t, ownerUID, profile.UserUID)
		require.NotNil(t, profile.CustomerID)
		assert.Equal(t, customer.ID, *profile.CustomerID)
		assert.Equal(t, models.RoleAdministrator, profile.AllowedActions)
	})

	t.Run("second signup for same owner fails and leaves no partial rows", func(t *testing.T) {
		storage, cleanup := setupTestDatabase(t)
		defer cleanup()

		factory := NewTestDataFactory(storage)
		ownerUID := factory.CreateUser(t, "owner@example.com", "hashedpassword", "testuser", true)

		_, _, err := storage.CreateCustomerWithProfile(context.Background(), "Первый", ownerUID)
		require.NoError(t, err)

		_, _, err = storage.CreateCustomerWithProfile(context.Background(), "Второй", ownerUID)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrAlreadyExists))

		verification := NewTestVerification(storage)
		verification.VerifyCustomerCount(t, ownerUID, 1)
	})
}

func TestStorage_Profiles(t *testing.T) {
	t.Run("duplicate profile for same user and customer rejected", func(t *testing.T) {
		storage, cleanup := setupTestDatabase(t)
		defer cleanup()

		factory := NewTestDataFactory(storage)
		ownerUID := factory.CreateUser(t, "owner@example.com", "hashedpassword", "testuser", true)
		memberUID := factory.CreateUser(t, "member@example.com", "hashedpassword", "member", true)
		customerID := factory.CreateCustomer(t, "ООО Ромашка", ownerUID, 0)

		_, err := storage.CreateProfile(context.Background(), models.UserProfile{
			UserUID:        memberUID,
			CustomerID:     &customerID,
			AllowedActions: models.RoleEditor,
		})
		require.NoError(t, err)

		_, err = storage.CreateProfile(context.Background(), models.UserProfile{
			UserUID:        memberUID,
			CustomerID:     &customerID,
			AllowedActions: models.RoleViewer,
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrAlreadyExists))
	})

	t.Run("update and remove report affected rows", func(t *testing.T) {
		storage, cleanup := setupTestDatabase(t)
		defer cleanup()

		factory := NewTestDataFactory(storage)
		ownerUID := factory.CreateUser(t, "owner@example.com", "hashedpassword", "testuser", true)
		customerID := factory.CreateCustomer(t, "ООО Ромашка", ownerUID, 0)
		profileID := factory.CreateProfile(t, ownerUID, customerID, models.RoleAdministrator, "")

		count, err := storage.UpdateProfile(context.Background(), profileID, models.RoleEditor, "basic_export")
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		got, err := storage.GetProfile(context.Background(), profileID)
		require.NoError(t, err)
		assert.Equal(t, models.RoleEditor, got.AllowedActions)
		assert.Equal(t, "basic_export", got.FeatureList)

		count, err = storage.RemoveProfile(context.Background(), profileID)
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		verification := NewTestVerification(storage)
		verification.VerifyProfileDeleted(t, profileID)

		count, err = storage.RemoveProfile(context.Background(), profileID)
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})

	t.Run("list by customer paginates in id order", func(t *testing.T) {
		storage, cleanup := setupTestDatabase(t)
		defer cleanup()

		factory := NewTestDataFactory(storage)
		ownerUID := factory.CreateUser(t, "owner@example.com", "hashedpassword", "testuser", true)
		customerID := factory.CreateCustomer(t, "ООО Ромашка", ownerUID, 0)

		firstID := factory.CreateProfile(t, ownerUID, customerID, models.RoleAdministrator, "")
		memberUID := factory.CreateUser(t, "member@example.com", "hashedpassword", "member", true)
		secondID := factory.CreateProfile(t, memberUID, customerID, models.RoleViewer, "")

		profiles, err := storage.ListProfilesByCustomer(context.Background(), customerID, 10, 0)
		require.NoError(t, err)
		require.Len(t, profiles, 2)
		assert.Equal(t, firstID, profiles[0].ID)
		assert.Equal(t, secondID, profiles[1].ID)

		profiles, err = storage.ListProfilesByCustomer(context.Background(), customerID, 1, 1)
		require.NoError(t, err)
		require.Len(t, profiles, 1)
		assert.Equal(t, secondID, profiles[0].ID)
	})
}

func TestStorage_ListActiveSignatures(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	t.Run("perpetual and future signatures are active, expired are not", func(t *testing.T) {
		storage, cleanup := setupTestDatabase(t)
		defer cleanup()

		factory := NewTestDataFactory(storage)
		ownerUID := factory.CreateUser(t, "owner@example.com", "hashedpassword", "testuser", true)
		customerID := factory.CreateCustomer(t, "ООО Ромашка", ownerUID, 0)

		expired := now.AddDate(0, -1, 0)
		future := now.AddDate(0, 1, 0)
		factory.CreateSignature(t, customerID, "old_plan", now.AddDate(0, -3, 0), &expired, true)
		perpetualID := factory.CreateSignature(t, customerID, "free", now.AddDate(0, -2, 0), nil, true)
		futureID := factory.CreateSignature(t, customerID, "basic_monthly", now.AddDate(0, -1, 0), &future, true)
		// разовая покупка не является подпиской
		factory.CreatePaidContent(t, customerID, models.TypeOneTimeOnly, "extra_credits", 0, now, nil, false)

		signatures, err := storage.ListActiveSignatures(context.Background(), customerID, now)
		require.NoError(t, err)
		require.Len(t, signatures, 2)
		// свежая по дате начала идет первой
		assert.Equal(t, futureID, signatures[0].ID)
		assert.Equal(t, perpetualID, signatures[1].ID)
	})

	t.Run("equal start dates resolved by id descending", func(t *testing.T) {
		storage, cleanup := setupTestDatabase(t)
		defer cleanup()

		factory := NewTestDataFactory(storage)
		ownerUID := factory.CreateUser(t, "owner@example.com", "hashedpassword", "testuser", true)
		customerID := factory.CreateCustomer(t, "ООО Ромашка", ownerUID, 0)

		start := now.AddDate(0, -1, 0)
		factory.CreateSignature(t, customerID, "free", start, nil, true)
		laterID := factory.CreateSignature(t, customerID, "basic_monthly", start, nil, true)

		signatures, err := storage.ListActiveSignatures(context.Background(), customerID, now)
		require.NoError(t, err)
		require.Len(t, signatures, 2)
		assert.Equal(t, laterID, signatures[0].ID)
	})

	t.Run("no signatures for customer returns empty", func(t *testing.T) {
		storage, cleanup := setupTestDatabase(t)
		defer cleanup()

		factory := NewTestDataFactory(storage)
		ownerUID := factory.CreateUser(t, "owner@example.com", "hashedpassword", "testuser", true)
		customerID := factory.CreateCustomer(t, "ООО Ромашка", ownerUID, 0)

		signatures, err := storage.ListActiveSignatures(context.Background(), customerID, now)
		require.NoError(t, err)
		assert.Empty(t, signatures)
	})
}

func TestStorage_CustomerCredits(t *testing.T) {
	tests := []struct {
		name        string
		credits     int
		spend       int
		wantOK      bool
		wantBalance int
	}{
		{
			name:        "successful spend leaves remainder",
			credits:     100,
			spend:       30,
			wantOK:      true,
			wantBalance: 70,
		},
		{
			name:        "spend exact balance",
			credits:     50,
			spend:       50,
			wantOK:      true,
			wantBalance: 0,
		},
		{
			name:        "insufficient credits leave balance untouched",
			credits:     10,
			spend:       30,
			wantOK:      false,
			wantBalance: 10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage, cleanup := setupTestDatabase(t)
			defer cleanup()

			factory := NewTestDataFactory(storage)
			ownerUID := factory.CreateUser(t, "owner@example.com", "hashedpassword", "testuser", true)
			customerID := factory.CreateCustomer(t, "ООО Ромашка", ownerUID, tt.credits)

			ok, err := storage.SpendCustomerCredits(context.Background(), customerID, tt.spend)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)

			verification := NewTestVerification(storage)
			verification.VerifyCustomerCredits(t, customerID, tt.wantBalance)
		})
	}

	t.Run("add credits tops up balance", func(t *testing.T) {
		storage, cleanup := setupTestDatabase(t)
		defer cleanup()

		factory := NewTestDataFactory(storage)
		ownerUID := factory.CreateUser(t, "owner@example.com", "hashedpassword", "testuser", true)
		customerID := factory.CreateCustomer(t, "ООО Ромашка", ownerUID, 20)

		err := storage.AddCustomerCredits(context.Background(), customerID, 100)
		require.NoError(t, err)

		verification := NewTestVerification(storage)
		verification.VerifyCustomerCredits(t, customerID, 120)
	})
}

func TestStorage_ListUsersByCustomer(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	ownerUID := factory.CreateUser(t, "b-owner@example.com", "hashedpassword", "testuser", true)
	customerID := factory.CreateCustomer(t, "ООО Ромашка", ownerUID, 0)
	factory.CreateProfile(t, ownerUID, customerID, models.RoleAdministrator, "")

	invitedUID := factory.CreateUser(t, "a-invited@example.com", "", "invited", false)
	factory.CreateProfile(t, invitedUID, customerID, models.RoleViewer, "")

	// пользователь без профиля в этом клиенте не попадает в список
	strangerUID := factory.CreateUser(t, "stranger@example.com", "hashedpassword", "stranger", true)
	otherCustomerID := factory.CreateCustomer(t, "Чужой клиент", strangerUID, 0)
	factory.CreateProfile(t, strangerUID, otherCustomerID, models.RoleAdministrator, "")

	users, err := storage.ListUsersByCustomer(context.Background(), customerID, 10, 0)
	require.NoError(t, err)
	require.Len(t, users, 2)
	// сортировка по email
	assert.Equal(t, "a-invited@example.com", users[0].Email)
	assert.False(t, users[0].IsActive)
	assert.Equal(t, "b-owner@example.com", users[1].Email)
}

func TestStorage_GetCustomerByOwner(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	ownerUID := factory.CreateUser(t, "owner@example.com", "hashedpassword", "testuser", true)
	customerID := factory.CreateCustomer(t, "ООО Ромашка", ownerUID, 15)

	customer, err := storage.GetCustomerByOwner(context.Background(), ownerUID)
	require.NoError(t, err)
	assert.Equal(t, customerID, customer.ID)
	assert.Equal(t, 15, customer.Credits)

	strangerUID := factory.CreateUser(t, "stranger@example.com", "hashedpassword", "stranger", true)
	_, err = storage.GetCustomerByOwner(context.Background(), strangerUID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}
