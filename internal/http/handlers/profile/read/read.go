// Package read реализует HTTP-обработчик получения профиля по ID.
//
// Handler извлекает ID из URL-параметров, проверяет принадлежность
// профиля клиенту текущего пользователя и возвращает данные профиля
// в JSON-формате.
package read

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

// Service описывает интерфейс бизнес-логики чтения профиля.
type Service interface {
	Read(ctx context.Context, id int) (*models.UserProfile, error)
}

// Handler обрабатывает запросы на получение профиля по идентификатору.
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
// @Summary Получить профиль по ID
// @Description Возвращает профиль клиента текущего пользователя по идентификатору.
// @Tags Profiles
// @Security BearerAuth
// @Produce  json
// @Param id path int true "ID профиля"
// @Success 200 {object} map[string]any "Данные профиля"
// @Failure 400 {object} response.ErrorResponse "Некорректный ID"
// @Failure 404 {object} response.ErrorResponse "Профиль не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /profiles/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.profile.read"
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

	res, err := h.service.Read(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Error("profile not found", slog.Int("id", id))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("profile not found"))
			return
		}
		log.Error("failed to read profile", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not read profile"))
		return
	}

	// Профиль чужого клиента недоступен.
	own, ok := middlewarectx.ProfileFromContext(r.Context())
	if !ok || own.CustomerID == nil || res.CustomerID == nil || *own.CustomerID != *res.CustomerID {
		log.Error("profile belongs to another customer", slog.Int("id", id))
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("profile not found"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"profile": res,
	}))
}
