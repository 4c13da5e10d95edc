package middlewarectx_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/subscription-backend/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-backend/internal/http/response"
	"github.com/magabrotheeeer/subscription-backend/internal/models"
)

type FeatureGateMock struct{ mock.Mock }

func (m *FeatureGateMock) CanAccessFeature(ctx context.Context, profile *models.UserProfile, featureCode string) (bool, error) {
	args := m.Called(ctx, profile, featureCode)
	return args.Bool(0), args.Error(1)
}

func withProfile(req *http.Request, profile *models.UserProfile) *http.Request {
	ctx := context.WithValue(req.Context(), middlewarectx.Profile, profile)
	return req.WithContext(ctx)
}

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestFeatureGateMiddleware(t *testing.T) {
	logger := newNoopLogger()
	customerID := 7
	profile := &models.UserProfile{ID: 5, CustomerID: &customerID, AllowedActions: models.RoleViewer}

	t.Run("фича доступна: запрос проходит", func(t *testing.T) {
		gate := new(FeatureGateMock)
		gate.On("CanAccessFeature", mock.Anything, profile, "basic_export").Return(true, nil).Once()

		var called bool
		mw := middlewarectx.FeatureGateMiddleware(logger, gate, "basic_export")(okHandler(&called))

		req := withProfile(httptest.NewRequest(http.MethodGet, "/", nil), profile)
		w := httptest.NewRecorder()
		mw.ServeHTTP(w, req)

		assert.True(t, called)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("фича заблокирована: код 407", func(t *testing.T) {
		gate := new(FeatureGateMock)
		gate.On("CanAccessFeature", mock.Anything, profile, "analytics").Return(false, nil).Once()

		var called bool
		mw := middlewarectx.FeatureGateMiddleware(logger, gate, "analytics")(okHandler(&called))

		req := withProfile(httptest.NewRequest(http.MethodGet, "/", nil), profile)
		w := httptest.NewRecorder()
		mw.ServeHTTP(w, req)

		assert.False(t, called)
		assert.Equal(t, response.HTTPStatusFeatureBlocked, w.Code)
	})

	t.Run("без профиля в контексте: 403", func(t *testing.T) {
		gate := new(FeatureGateMock)

		var called bool
		mw := middlewarectx.FeatureGateMiddleware(logger, gate, "basic_export")(okHandler(&called))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		w := httptest.NewRecorder()
		mw.ServeHTTP(w, req)

		assert.False(t, called)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestActionGateMiddleware(t *testing.T) {
	logger := newNoopLogger()
	customerID := 7

	// Проверка фичи идёт раньше проверки действия, поэтому шлюз
	// действий получает запросы уже после фичевого шлюза.
	tests := []struct {
		name           string
		role           string
		method         string
		expectedStatus int
	}{
		{"администратор удаляет", models.RoleAdministrator, http.MethodDelete, http.StatusOK},
		{"редактор создаёт", models.RoleEditor, http.MethodPost, http.StatusOK},
		{"редактор не удаляет", models.RoleEditor, http.MethodDelete, response.HTTPStatusActionBlocked},
		{"наблюдатель читает", models.RoleViewer, http.MethodGet, http.StatusOK},
		{"наблюдатель не создаёт", models.RoleViewer, http.MethodPost, response.HTTPStatusActionBlocked},
		{"наблюдатель не изменяет", models.RoleViewer, http.MethodPut, response.HTTPStatusActionBlocked},
		{"наблюдатель не удаляет", models.RoleViewer, http.MethodDelete, response.HTTPStatusActionBlocked},
		{"неизвестная роль не читает", "XX", http.MethodGet, response.HTTPStatusActionBlocked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := &models.UserProfile{ID: 5, CustomerID: &customerID, AllowedActions: tt.role}

			var called bool
			mw := middlewarectx.ActionGateMiddleware(logger)(okHandler(&called))

			req := withProfile(httptest.NewRequest(tt.method, "/", nil), profile)
			w := httptest.NewRecorder()
			mw.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedStatus == http.StatusOK, called)
		})
	}

	t.Run("без профиля в контексте: 403", func(t *testing.T) {
		var called bool
		mw := middlewarectx.ActionGateMiddleware(logger)(okHandler(&called))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		w := httptest.NewRecorder()
		mw.ServeHTTP(w, req)

		assert.False(t, called)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestGateOrder_FeatureBeforeAction(t *testing.T) {
	logger := newNoopLogger()
	customerID := 7
	// Наблюдателю запрещено и действие (POST), и фича: при цепочке
	// фичевый шлюз → шлюз действий клиент получает 407, а не 408.
	profile := &models.UserProfile{ID: 5, CustomerID: &customerID, AllowedActions: models.RoleViewer}

	gate := new(FeatureGateMock)
	gate.On("CanAccessFeature", mock.Anything, profile, "analytics").Return(false, nil).Once()

	var called bool
	chain := middlewarectx.FeatureGateMiddleware(logger, gate, "analytics")(
		middlewarectx.ActionGateMiddleware(logger)(okHandler(&called)))

	req := withProfile(httptest.NewRequest(http.MethodPost, "/", nil), profile)
	w := httptest.NewRecorder()
	chain.ServeHTTP(w, req)

	assert.False(t, called)
	assert.Equal(t, response.HTTPStatusFeatureBlocked, w.Code)
}
