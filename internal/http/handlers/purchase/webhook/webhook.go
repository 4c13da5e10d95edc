// Package webhook реализует HTTP-обработчик платёжного webhook.
//
// Идентификатор покупки приходит в формате "{customer_id}-{plan_key}",
// разделитель — первый дефис: ключ плана может содержать дефисы.
// Подлинность запроса проверяется подписью HMAC-SHA256 в заголовке
// X-Api-Signature.
package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-backend/internal/http/response"
	"github.com/magabrotheeeer/subscription-backend/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-backend/internal/models"
	"github.com/magabrotheeeer/subscription-backend/internal/plans"
)

// Service описывает интерфейс регистрации покупки.
type Service interface {
	RegisterPurchase(ctx context.Context, planKey string, customerID int) (*models.PaidContent, error)
}

// Payload описывает тело платёжного события.
type Payload struct {
	Event  string `json:"event"`
	Object struct {
		// ID покупки в формате "{customer_id}-{plan_key}".
		ID     string `json:"id"`
		Status string `json:"status"`
	} `json:"object"`
}

// Handler обрабатывает платёжные webhook-события.
type Handler struct {
	log           *slog.Logger
	service       Service
	webhookSecret string
}

// New создает новый Handler с переданными логгером, сервисом и секретом.
func New(log *slog.Logger, service Service, secret string) *Handler {
	return &Handler{
		log:           log,
		service:       service,
		webhookSecret: secret,
	}
}

// Проверка подписи webhook (X-Api-Signature).
func (h *Handler) verifySignature(body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(h.webhookSecret))
	mac.Write(body)
	expectedSig := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expectedSig), []byte(signature))
}

// parsePurchaseID разбирает идентификатор "{customer_id}-{plan_key}"
// по первому дефису.
func parsePurchaseID(id string) (int, string, error) {
	parts := strings.SplitN(id, "-", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return 0, "", errors.New("malformed purchase id")
	}
	customerID, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, "", errors.New("malformed purchase id")
	}
	return customerID, parts[1], nil
}

// ServeHTTP godoc
// @Summary Платёжный webhook
// @Description Регистрирует покупку плана по событию платёжного провайдера. Запрос подписывается HMAC-SHA256.
// @Tags Purchases
// @Accept  json
// @Produce  json
// @Param X-Api-Signature header string true "Подпись тела запроса"
// @Param request body Payload true "Платёжное событие"
// @Success 200 {object} map[string]any "Покупка зарегистрирована"
// @Failure 400 {object} response.ErrorResponse "Некорректное тело или идентификатор"
// @Failure 401 {object} response.ErrorResponse "Неверная подпись"
// @Failure 404 {object} response.ErrorResponse "Неизвестный ключ плана"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /webhooks/purchase [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.purchase.webhook"
	log := h.log.With(slog.String("op", op))

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Error("failed to read webhook body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	signature := r.Header.Get("X-Api-Signature")
	if signature == "" || !h.verifySignature(body, signature) {
		log.Error("invalid or missing webhook signature")
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var payload Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Error("failed to unmarshal webhook payload", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	const paymentSucceeded = "payment.succeeded"
	if !strings.EqualFold(payload.Event, paymentSucceeded) {
		log.Info("ignored webhook event", slog.String("event", payload.Event))
		w.WriteHeader(http.StatusOK)
		return
	}

	customerID, planKey, err := parsePurchaseID(payload.Object.ID)
	if err != nil {
		log.Error("failed to parse purchase id", slog.String("id", payload.Object.ID), sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("malformed purchase id"))
		return
	}

	content, err := h.service.RegisterPurchase(r.Context(), planKey, customerID)
	if err != nil {
		if errors.Is(err, plans.ErrPlanNotFound) {
			log.Error("unknown plan key", slog.String("plan_key", planKey))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("unknown plan key"))
			return
		}
		log.Error("failed to register purchase", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not register purchase"))
		return
	}

	log.Info("webhook processed successfully",
		slog.String("plan_key", planKey),
		slog.Int("customer_id", customerID),
		slog.Int("content_id", content.ID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"content_id": content.ID,
	}))
}
