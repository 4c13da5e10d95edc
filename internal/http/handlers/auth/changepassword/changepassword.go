// Package changepassword реализует HTTP-обработчик смены пароля
// аутентифицированного пользователя.
package changepassword

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
	services "github.com/magabrotheeeer/subscription-backend/internal/services/auth"
)

// Request — входные данные для смены пароля.
type Request struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required"`
}

// Service описывает интерфейс смены пароля.
type Service interface {
	ChangePassword(ctx context.Context, uid, email, oldPassword, newPassword string) ([]string, error)
}

// Handler управляет HTTP-запросами на смену пароля.
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
// @Summary Сменить пароль
// @Description Проверяет старый пароль текущего пользователя и устанавливает новый.
// @Tags Auth
// @Security BearerAuth
// @Accept  json
// @Produce  json
// @Param request body Request true "Старый и новый пароли"
// @Success 200 {object} map[string]any "Пароль изменен"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Неверный старый пароль"
// @Failure 422 {object} response.ErrorResponse "Слабый новый пароль"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /auth/change-password [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.changepassword"
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

	uid, _ := r.Context().Value(middlewarectx.UserUID).(string)
	email, _ := r.Context().Value(middlewarectx.Email).(string)
	if uid == "" || email == "" {
		log.Error("user identification missing")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	violations, err := h.service.ChangePassword(r.Context(), uid, email, req.OldPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			log.Error("invalid old password", slog.String("uid", uid))
			w.WriteHeader(http.StatusUnauthorized)
			render.JSON(w, r, response.Error("invalid old password"))
		case errors.Is(err, services.ErrWeakPassword):
			log.Error("weak new password", slog.Any("violations", violations))
			w.WriteHeader(http.StatusUnprocessableEntity)
			render.JSON(w, r, response.Response{
				Status: response.StatusError,
				Error:  "password is too weak",
				Data:   map[string]any{"violations": violations},
			})
		default:
			log.Error("failed to change password", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("internal service error"))
		}
		return
	}

	log.Info("password changed", slog.String("uid", uid))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"message": "password changed successfully",
	}))
}
