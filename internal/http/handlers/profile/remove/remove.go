// Package remove реализует HTTP-обработчик удаления профиля по ID.
package remove

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-backend/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-backend/internal/http/response"
	"github.com/magabrotheeeer/subscription-backend/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-backend/internal/models"
	"github.com/magabrotheeeer/subscription-backend/internal/storage/repository"
)

// Service описывает интерфейс бизнес-логики удаления профиля.
type Service interface {
	Read(ctx context.Context, id int) (*models.UserProfile, error)
	Remove(ctx context.Context, id int) (int, error)
}

// Handler обрабатывает запросы на удаление профиля.
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
// @Summary Удалить профиль
// @Description Удаляет профиль по идентификатору. Возвращает число удаленных записей.
// @Tags Profiles
// @Security BearerAuth
// @Produce  json
// @Param id path int true "ID профиля"
// @Success 200 {object} map[string]any "Число удаленных записей"
// @Failure 400 {object} response.ErrorResponse "Некорректный ID"
// @Failure 404 {object} response.ErrorResponse "Профиль не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /profiles/{id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.profile.remove"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		log.Error("failed to decode id from url", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to decode id from url"))
		return
	}

	target, err := h.service.Read(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Error("profile not found", slog.Int("id", id))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("profile not found"))
			return
		}
		log.Error("failed to read profile", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not remove profile"))
		return
	}

	// Профиль чужого клиента недоступен.
	own, ok := middlewarectx.ProfileFromContext(r.Context())
	if !ok || own.CustomerID == nil || target.CustomerID == nil || *own.CustomerID != *target.CustomerID {
		log.Error("profile belongs to another customer", slog.Int("id", id))
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("profile not found"))
		return
	}

	count, err := h.service.Remove(r.Context(), id)
	if err != nil {
		log.Error("failed to remove profile", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not remove profile"))
		return
	}

	log.Info("profile removed", slog.Int("id", id))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"removed_count": count,
	}))
}
