// Package create реализует HTTP-обработчик добавления профиля
// в клиента текущего пользователя.
//
// Если пользователя с указанным email ещё нет, создаётся приглашённая
// учётная запись и отправляется уведомление.
package create

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
	"github.com/magabrotheeeer/subscription-backend/internal/storage/repository"
)

// Service описывает интерфейс создания профиля.
type Service interface {
	Create(ctx context.Context, customerID int, req models.DummyProfile) (int, bool, error)
}

// Handler управляет HTTP-запросами на создание профилей.
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
// @Summary Добавить профиль в клиента
// @Description Создает профиль для пользователя с указанным email в клиенте текущего пользователя. Несуществующий пользователь приглашается.
// @Tags Profiles
// @Security BearerAuth
// @Accept  json
// @Produce  json
// @Param request body models.DummyProfile true "Данные нового профиля"
// @Success 200 {object} map[string]any "Профиль создан"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 403 {object} response.ErrorResponse "Профиль не найден или нет клиента"
// @Failure 409 {object} response.ErrorResponse "Профиль уже существует"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /profiles [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.profile.create"
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

	var req models.DummyProfile
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	log.Info("request body decoded", slog.String("email", req.UserEmail))

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	id, invited, err := h.service.Create(r.Context(), *profile.CustomerID, req)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			log.Error("profile already exists", slog.String("email", req.UserEmail))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("profile already exists"))
			return
		}
		log.Error("failed to create profile", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not create profile"))
		return
	}

	log.Info("profile created", slog.Int("id", id), slog.Bool("invited", invited))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"id":      id,
		"invited": invited,
	}))
}
