// Package own реализует HTTP-обработчик получения собственного профиля
// текущего пользователя вместе со списком доступных ему фич.
package own

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

// Service описывает интерфейс разрешения фич профиля.
type Service interface {
	GetAvailableFeatures(ctx context.Context, profile *models.UserProfile) ([]string, error)
}

// Handler управляет HTTP-запросами на получение собственного профиля.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Получить собственный профиль
// @Description Возвращает профиль текущего пользователя и список фич, доступных ему с учётом активного плана клиента.
// @Tags Profiles
// @Security BearerAuth
// @Produce  json
// @Success 200 {object} map[string]any "Профиль и доступные фичи"
// @Failure 403 {object} response.ErrorResponse "Профиль не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /profile [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.profile.own"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	profile, ok := middlewarectx.ProfileFromContext(r.Context())
	if !ok {
		log.Error("profile missing in context")
		w.WriteHeader(http.StatusForbidden)
		render.JSON(w, r, response.Error("profile not found"))
		return
	}

	features, err := h.service.GetAvailableFeatures(r.Context(), profile)
	if err != nil {
		log.Error("failed to resolve available features", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal service error"))
		return
	}
	if features == nil {
		features = []string{}
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"profile":            profile,
		"available_features": features,
	}))
}
