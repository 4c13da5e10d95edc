// Package completesignup реализует HTTP-обработчик завершения
// онбординга: создание клиента и административного профиля владельца.
package completesignup

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/subscription-backend/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-backend/internal/http/response"
	"github.com/magabrotheeeer/subscription-backend/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-backend/internal/models"
	services "github.com/magabrotheeeer/subscription-backend/internal/services/signup"
)

// Service описывает интерфейс завершения онбординга.
type Service interface {
	CompleteSignup(ctx context.Context, ownerUID, customerName string) (*models.Customer, *models.UserProfile, error)
}

// Handler управляет HTTP-запросами на завершение онбординга.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Завершить онбординг
// @Description Создает клиента и профиль администратора для текущего пользователя в одной транзакции.
// @Tags Auth
// @Security BearerAuth
// @Accept  json
// @Produce  json
// @Param request body models.DummyCustomer true "Имя клиента"
// @Success 200 {object} map[string]any "Клиент и профиль созданы"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 409 {object} response.ErrorResponse "Онбординг уже завершен"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /auth/complete-signup [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.completesignup"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

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

	uid, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || uid == "" {
		log.Error("user identification missing")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	customer, profile, err := h.service.CompleteSignup(r.Context(), uid, req.Name)
	if err != nil {
		if errors.Is(err, services.ErrSignupCompleted) {
			log.Error("signup already completed", slog.String("uid", uid))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("signup already completed"))
			return
		}
		log.Error("failed to complete signup", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal service error"))
		return
	}

	log.Info("signup completed", slog.Int("customer_id", customer.ID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"customer_id": customer.ID,
		"profile_id":  profile.ID,
	}))
}
