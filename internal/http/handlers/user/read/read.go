// Package read реализует HTTP-обработчик получения пользователя по UID.
//
// Handler возвращает пользователя, только если у того есть профиль
// в клиенте текущего пользователя.
package read

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-backend/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-backend/internal/http/response"
	"github.com/magabrotheeeer/subscription-backend/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-backend/internal/models"
	"github.com/magabrotheeeer/subscription-backend/internal/storage/repository"
)

// Service описывает интерфейс бизнес-логики чтения пользователя.
type Service interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	ListProfilesByUser(ctx context.Context, userUID string) ([]*models.UserProfile, error)
}

// Handler обрабатывает запросы на получение пользователя по UID.
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
// @Summary Получить пользователя по UID
// @Description Возвращает пользователя, имеющего профиль в клиенте текущего пользователя.
// @Tags Users
// @Security BearerAuth
// @Produce  json
// @Param uid path string true "UID пользователя"
// @Success 200 {object} map[string]any "Данные пользователя"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /users/{uid} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.read"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	uid := chi.URLParam(r, "uid")

	user, err := h.service.GetUser(r.Context(), uid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Error("user not found", slog.String("uid", uid))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("user not found"))
			return
		}
		log.Error("failed to read user", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not read user"))
		return
	}

	own, ok := middlewarectx.ProfileFromContext(r.Context())
	if !ok || own.CustomerID == nil {
		log.Error("profile has no customer")
		w.WriteHeader(http.StatusForbidden)
		render.JSON(w, r, response.Error("profile has no customer"))
		return
	}

	profiles, err := h.service.ListProfilesByUser(r.Context(), uid)
	if err != nil {
		log.Error("failed to list user profiles", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal service error"))
		return
	}
	member := false
	for _, p := range profiles {
		if p.CustomerID != nil && *p.CustomerID == *own.CustomerID {
			member = true
			break
		}
	}
	if !member {
		log.Error("user is not a member of the customer", slog.String("uid", uid))
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("user not found"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"user": user,
	}))
}
