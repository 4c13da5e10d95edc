// Package update реализует HTTP-обработчик изменения клиента текущего
// пользователя.
package update

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/subscription-backend/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-backend/internal/http/response"
	"github.com/magabrotheeeer/subscription-backend/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-backend/internal/models"
)

// Service описывает интерфейс бизнес-логики обновления клиента.
type Service interface {
	UpdateCustomer(ctx context.Context, id int, name string) (int, error)
}

// Handler обрабатывает запросы на обновление клиента.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Обновить своего клиента
// @Description Изменяет название клиента текущего пользователя.
// @Tags Customers
// @Security BearerAuth
// @Accept  json
// @Produce  json
// @Param request body models.DummyCustomer true "Новое название"
// @Success 200 {object} map[string]any "Число обновленных записей"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 403 {object} response.ErrorResponse "Профиль не найден или нет клиента"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /customer [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.customer.update"
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

	var req models.DummyCustomer
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	count, err := h.service.UpdateCustomer(r.Context(), *profile.CustomerID, req.Name)
	if err != nil {
		log.Error("failed to update customer", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not update customer"))
		return
	}

	log.Info("customer updated", slog.Int("id", *profile.CustomerID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"updated_count": count,
	}))
}
