package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/subscription-backend/internal/models"
	"github.com/magabrotheeeer/subscription-backend/internal/plans"
)

// MockService реализует интерфейс webhook.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) RegisterPurchase(ctx context.Context, planKey string, customerID int) (*models.PaidContent, error) {
	args := m.Called(ctx, planKey, customerID)
	if res := args.Get(0); res != nil {
		return res.(*models.PaidContent), args.Error(1)
	}
	return nil, args.Error(1)
}

const testSecret = "test-secret"

func sign(body string) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(body))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func payload(id string) string {
	return fmt.Sprintf(`{"event":"payment.succeeded","object":{"id":"%s","status":"succeeded"}}`, id)
}

func TestParsePurchaseID(t *testing.T) {
	tests := []struct {
		name         string
		id           string
		wantCustomer int
		wantPlan     string
		wantErr      bool
	}{
		{
			name:         "обычный идентификатор",
			id:           "42-basic_monthly",
			wantCustomer: 42,
			wantPlan:     "basic_monthly",
		},
		{
			name:         "ключ плана с дефисами делится по первому дефису",
			id:           "7-pro-yearly-discount",
			wantCustomer: 7,
			wantPlan:     "pro-yearly-discount",
		},
		{
			name:    "без дефиса",
			id:      "42basic",
			wantErr: true,
		},
		{
			name:    "нечисловой клиент",
			id:      "abc-basic_monthly",
			wantErr: true,
		},
		{
			name:    "пустой ключ плана",
			id:      "42-",
			wantErr: true,
		},
		{
			name:    "пустая строка",
			id:      "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			customerID, planKey, err := parsePurchaseID(tt.id)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.wantCustomer, customerID)
			assert.Equal(t, tt.wantPlan, planKey)
		})
	}
}

func TestWebhookHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tests := []struct {
		name           string
		body           string
		signature      string
		setupMock      func(*MockService)
		expectedStatus int
	}{
		{
			name:      "успешная регистрация покупки",
			body:      payload("42-basic_monthly"),
			signature: sign(payload("42-basic_monthly")),
			setupMock: func(m *MockService) {
				m.On("RegisterPurchase", mock.Anything, "basic_monthly", 42).
					Return(&models.PaidContent{ID: 10}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "неверная подпись",
			body:           payload("42-basic_monthly"),
			signature:      "bogus",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "отсутствующая подпись",
			body:           payload("42-basic_monthly"),
			signature:      "",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "чужое событие игнорируется",
			body:           `{"event":"payment.canceled","object":{"id":"42-basic_monthly"}}`,
			signature:      sign(`{"event":"payment.canceled","object":{"id":"42-basic_monthly"}}`),
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "некорректный идентификатор покупки",
			body:           payload("nodash"),
			signature:      sign(payload("nodash")),
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:      "неизвестный ключ плана",
			body:      payload("42-no_such_plan"),
			signature: sign(payload("42-no_such_plan")),
			setupMock: func(m *MockService) {
				m.On("RegisterPurchase", mock.Anything, "no_such_plan", 42).
					Return(nil, fmt.Errorf("lookup: %w", plans.ErrPlanNotFound))
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:      "ошибка сервиса",
			body:      payload("42-basic_monthly"),
			signature: sign(payload("42-basic_monthly")),
			setupMock: func(m *MockService) {
				m.On("RegisterPurchase", mock.Anything, "basic_monthly", 42).
					Return(nil, errors.New("db error"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService, testSecret)

			req := httptest.NewRequest(http.MethodPost, "/webhooks/purchase", strings.NewReader(tt.body))
			if tt.signature != "" {
				req.Header.Set("X-Api-Signature", tt.signature)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			mockService.AssertExpectations(t)
		})
	}
}
