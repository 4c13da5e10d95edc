// Package list реализует HTTP-обработчик получения списка профилей
// клиента текущего пользователя с пагинацией.
package list

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-backend/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-backend/internal/http/response"
	"github.com/magabrotheeeer/subscription-backend/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-backend/internal/models"
)

// Service описывает интерфейс бизнес-логики списка профилей.
type Service interface {
	ListByCustomer(ctx context.Context, customerID, limit, offset int) ([]*models.UserProfile, error)
}

// Handler обрабатывает запросы на получение списка профилей.
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
// @Summary Список профилей клиента
// @Description Возвращает профили клиента текущего пользователя с пагинацией.
// @Tags Profiles
// @Security BearerAuth
// @Produce  json
// @Param limit query int false "Максимум записей" default(10)
// @Param offset query int false "Смещение" default(0)
// @Success 200 {object} map[string]any "Список профилей"
// @Failure 403 {object} response.ErrorResponse "Профиль не найден или нет клиента"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /profiles [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.profile.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 10
	}
	offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}

	profile, ok := middlewarectx.ProfileFromContext(r.Context())
	if !ok || profile.CustomerID == nil {
		log.Error("profile has no customer")
		w.WriteHeader(http.StatusForbidden)
		render.JSON(w, r, response.Error("profile has no customer"))
		return
	}

	res, err := h.service.ListByCustomer(r.Context(), *profile.CustomerID, limit, offset)
	if err != nil {
		log.Error("failed to list profiles", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to list profiles"))
		return
	}

	log.Info("listed profiles", slog.Int("count", len(res)))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"list_count": len(res),
		"profiles":   res,
	}))
}
