package middlewarectx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-backend/internal/http/response"
	"github.com/magabrotheeeer/subscription-backend/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-backend/internal/models"
	"github.com/magabrotheeeer/subscription-backend/internal/storage/repository"
)

// ProfileServiceInterface определяет разрешение профиля текущего пользователя.
type ProfileServiceInterface interface {
	GetByUser(ctx context.Context, userUID string) (*models.UserProfile, error)
}

// ProfileMiddleware создает middleware, который находит профиль
// аутентифицированного пользователя и кладет его в контекст.
// Запрос без профиля отклоняется с HTTP 403.
func ProfileMiddleware(log *slog.Logger, profiles ProfileServiceInterface) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userUID, ok := r.Context().Value(UserUID).(string)
			if !ok || userUID == "" {
				log.Error("user identification missing")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("user identification missing"))
				return
			}

			profile, err := profiles.GetByUser(r.Context(), userUID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					log.Error("profile not found", slog.String("user_uid", userUID))
					render.Status(r, http.StatusForbidden)
					render.JSON(w, r, response.Error("profile not found"))
					return
				}
				log.Error("failed to resolve profile", sl.Err(err))
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error("internal service error"))
				return
			}

			ctx := context.WithValue(r.Context(), Profile, profile)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ProfileFromContext возвращает профиль из контекста запроса.
func ProfileFromContext(ctx context.Context) (*models.UserProfile, bool) {
	profile, ok := ctx.Value(Profile).(*models.UserProfile)
	return profile, ok
}
