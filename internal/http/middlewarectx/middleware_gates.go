package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-backend/internal/http/response"
	"github.com/magabrotheeeer/subscription-backend/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-backend/internal/models"
)

// FeatureGateInterface определяет проверку доступности фичи для профиля.
type FeatureGateInterface interface {
	CanAccessFeature(ctx context.Context, profile *models.UserProfile, featureCode string) (bool, error)
}

// FeatureGateMiddleware создает middleware, пропускающий запрос только
// если фича доступна профилю. Проверка по коду фичи идёт до проверки
// действия: при отказе возвращается код 407, независимо от роли.
func FeatureGateMiddleware(log *slog.Logger, gate FeatureGateInterface, featureCode string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			profile, ok := ProfileFromContext(r.Context())
			if !ok {
				log.Error("profile missing in context")
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error("profile not found"))
				return
			}

			allowed, err := gate.CanAccessFeature(r.Context(), profile, featureCode)
			if err != nil {
				log.Error("failed to check feature access", sl.Err(err))
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error("internal service error"))
				return
			}
			if !allowed {
				log.Info("feature blocked",
					slog.String("feature", featureCode),
					slog.Int("profile_id", profile.ID))
				render.Status(r, response.HTTPStatusFeatureBlocked)
				render.JSON(w, r, response.FeatureBlocked(featureCode))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ActionGateMiddleware создает middleware, сверяющий HTTP-метод запроса
// с ролью профиля: POST требует право создания, GET — чтения,
// PUT и PATCH — изменения, DELETE — удаления. При отказе возвращается
// код 408.
func ActionGateMiddleware(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			profile, ok := ProfileFromContext(r.Context())
			if !ok {
				log.Error("profile missing in context")
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error("profile not found"))
				return
			}

			var allowed bool
			var action string
			switch r.Method {
			case http.MethodPost:
				action, allowed = "create", profile.CanCreate()
			case http.MethodGet, http.MethodHead:
				action, allowed = "read", profile.CanRead()
			case http.MethodPut, http.MethodPatch:
				action, allowed = "update", profile.CanUpdate()
			case http.MethodDelete:
				action, allowed = "delete", profile.CanDelete()
			default:
				action, allowed = r.Method, false
			}

			if !allowed {
				log.Info("action blocked",
					slog.String("action", action),
					slog.String("role", profile.AllowedActions),
					slog.Int("profile_id", profile.ID))
				render.Status(r, response.HTTPStatusActionBlocked)
				render.JSON(w, r, response.ActionBlocked(action))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
