// Package registervalidate реализует HTTP-обработчик предварительной
// проверки регистрационных данных: занятость email и сложность пароля
// проверяются без создания пользователя.
package registervalidate

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/subscription-backend/internal/http/response"
	"github.com/magabrotheeeer/subscription-backend/internal/lib/sl"
	services "github.com/magabrotheeeer/subscription-backend/internal/services/auth"
)

// Request — входные данные для проверки.
type Request struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Service описывает интерфейс проверки регистрационных данных.
type Service interface {
	ValidateRegistration(ctx context.Context, email, rawPassword string) ([]string, error)
}

// Handler управляет HTTP-запросами на проверку регистрации.
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
// @Summary Проверить данные регистрации
// @Description Проверяет занятость email и сложность пароля, не создавая пользователя.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Данные для проверки"
// @Success 200 {object} map[string]any "Данные пригодны для регистрации"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 409 {object} response.ErrorResponse "Email уже занят"
// @Failure 422 {object} response.ErrorResponse "Слабый пароль"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /auth/register/validate [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.registervalidate"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
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

	violations, err := h.service.ValidateRegistration(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmailTaken):
			log.Error("email already taken", slog.String("email", req.Email))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("email already taken"))
		case errors.Is(err, services.ErrWeakPassword):
			log.Error("weak password", slog.Any("violations", violations))
			w.WriteHeader(http.StatusUnprocessableEntity)
			render.JSON(w, r, response.Response{
				Status: response.StatusError,
				Error:  "password is too weak",
				Data:   map[string]any{"violations": violations},
			})
		default:
			log.Error("failed to validate registration", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("internal service error"))
		}
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"message": "registration data is valid",
	}))
}
