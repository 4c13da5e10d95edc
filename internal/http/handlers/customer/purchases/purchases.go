// Package purchases реализует HTTP-обработчик получения истории
// покупок клиента текущего пользователя.
package purchases

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-backend/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-backend/internal/http/response"
	"github.com/magabrotheeeer/subscription-backend/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-backend/internal/models"
)

// Service описывает интерфейс бизнес-логики истории покупок.
type Service interface {
	ListPaidContents(ctx context.Context, customerID int) ([]*models.PaidContent, error)
}

// Handler обрабатывает запросы на получение истории покупок.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary История покупок клиента
// @Description Возвращает все записи оплаченного контента клиента текущего пользователя, включая истекшие.
// @Tags Customers
// @Security BearerAuth
// @Produce  json
// @Success 200 {object} map[string]any "Список покупок"
// @Failure 403 {object} response.ErrorResponse "Профиль не найден или нет клиента"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /customer/purchases [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.customer.purchases"
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

	res, err := h.service.ListPaidContents(r.Context(), *profile.CustomerID)
	if err != nil {
		log.Error("failed to list purchases", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to list purchases"))
		return
	}

	log.Info("listed purchases", slog.Int("count", len(res)))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"list_count": len(res),
		"purchases":  res,
	}))
}
