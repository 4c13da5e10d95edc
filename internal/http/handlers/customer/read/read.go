// Package read реализует HTTP-обработчик получения клиента текущего
// пользователя вместе с его активной подпиской.
package read

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-backend/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-backend/internal/http/response"
	"github.com/magabrotheeeer/subscription-backend/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-backend/internal/models"
	services "github.com/magabrotheeeer/subscription-backend/internal/services/entitlement"
)

// Service описывает интерфейс бизнес-логики чтения клиента.
type Service interface {
	GetCustomer(ctx context.Context, id int) (*models.Customer, error)
}

// Entitlements описывает разрешение активной подписки клиента.
type Entitlements interface {
	GetActiveSignature(ctx context.Context, customerID int) (*models.PaidContent, error)
}

// Handler обрабатывает запросы на получение клиента.
type Handler struct {
	log          *slog.Logger
	service      Service
	entitlements Entitlements
}

// New создает новый Handler с переданными логгером и сервисами.
func New(log *slog.Logger, service Service, entitlements Entitlements) *Handler {
	return &Handler{
		log:          log,
		service:      service,
		entitlements: entitlements,
	}
}

// ServeHTTP godoc
// @Summary Получить своего клиента
// @Description Возвращает клиента текущего пользователя, его кредиты и активную подписку.
// @Tags Customers
// @Security BearerAuth
// @Produce  json
// @Success 200 {object} map[string]any "Данные клиента и активная подписка"
// @Failure 403 {object} response.ErrorResponse "Профиль не найден или нет клиента"
// @Failure 409 {object} response.ErrorResponse "Несколько эксклюзивных подписок"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /customer [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.customer.read"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	profile, ok := middlewarectx.ProfileFromContext(r.Context())
	if !ok || profile.CustomerID == nil {
		log.Error("profile has no customer")
		w.WriteHeader(http.StatusForbidden)
		render.JSON(w, r, response.Error("profile has no customer"))
		return
	}

	customer, err := h.service.GetCustomer(r.Context(), *profile.CustomerID)
	if err != nil {
		log.Error("failed to read customer", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not read customer"))
		return
	}

	signature, err := h.entitlements.GetActiveSignature(r.Context(), customer.ID)
	if err != nil {
		if errors.Is(err, services.ErrExclusiveConflict) {
			log.Error("exclusive signature conflict", slog.Int("customer_id", customer.ID))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("customer has conflicting exclusive signatures"))
			return
		}
		log.Error("failed to resolve active signature", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal service error"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"customer":         customer,
		"active_signature": signature,
	}))
}
