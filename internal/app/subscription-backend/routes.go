// Package subscriptionbackend предоставляет маршруты основного приложения.
package subscriptionbackend

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/subscription-backend/internal/http/handlers/auth/changepassword"
	"github.com/magabrotheeeer/subscription-backend/internal/http/handlers/auth/completesignup"
	"github.com/magabrotheeeer/subscription-backend/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/subscription-backend/internal/http/handlers/auth/refresh"
	"github.com/magabrotheeeer/subscription-backend/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/subscription-backend/internal/http/handlers/auth/registervalidate"
	customerpurchases "github.com/magabrotheeeer/subscription-backend/internal/http/handlers/customer/purchases"
	customerread "github.com/magabrotheeeer/subscription-backend/internal/http/handlers/customer/read"
	customerupdate "github.com/magabrotheeeer/subscription-backend/internal/http/handlers/customer/update"
	"github.com/magabrotheeeer/subscription-backend/internal/http/handlers/health"
	profilecreate "github.com/magabrotheeeer/subscription-backend/internal/http/handlers/profile/create"
	profilelist "github.com/magabrotheeeer/subscription-backend/internal/http/handlers/profile/list"
	profileown "github.com/magabrotheeeer/subscription-backend/internal/http/handlers/profile/own"
	profileread "github.com/magabrotheeeer/subscription-backend/internal/http/handlers/profile/read"
	profileremove "github.com/magabrotheeeer/subscription-backend/internal/http/handlers/profile/remove"
	profileupdate "github.com/magabrotheeeer/subscription-backend/internal/http/handlers/profile/update"
	"github.com/magabrotheeeer/subscription-backend/internal/http/handlers/purchase/webhook"
	userlist "github.com/magabrotheeeer/subscription-backend/internal/http/handlers/user/list"
	userread "github.com/magabrotheeeer/subscription-backend/internal/http/handlers/user/read"
	"github.com/magabrotheeeer/subscription-backend/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-backend/internal/lib/jwt"
	authservice "github.com/magabrotheeeer/subscription-backend/internal/services/auth"
	entitlementservice "github.com/magabrotheeeer/subscription-backend/internal/services/entitlement"
	profileservice "github.com/magabrotheeeer/subscription-backend/internal/services/profile"
	signupservice "github.com/magabrotheeeer/subscription-backend/internal/services/signup"
	"github.com/magabrotheeeer/subscription-backend/internal/storage/repository"
)

// Services объединяет зависимости маршрутов приложения.
type Services struct {
	Auth        *authservice.AuthService
	Signup      *signupservice.SignupService
	Profile     *profileservice.ProfileService
	Entitlement *entitlementservice.EntitlementService
	Storage     *repository.Storage
	Maker       jwt.Maker
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, s *Services, webhookSecret string) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/auth/register", register.New(logger, s.Auth).ServeHTTP)
		r.Post("/auth/register/validate", registervalidate.New(logger, s.Auth).ServeHTTP)
		r.Post("/auth/login", login.New(logger, s.Auth).ServeHTTP)
		r.Post("/auth/refresh", refresh.New(logger, s.Auth).ServeHTTP)

		// Группа с JWT аутентификацией, без профиля: онбординг и пароль
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(s.Maker, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))
			r.Post("/auth/change-password", changepassword.New(logger, s.Auth).ServeHTTP)
			r.Post("/auth/complete-signup", completesignup.New(logger, s.Signup).ServeHTTP)
		})

		// Группа с JWT, профилем и проверкой действий по роли
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(s.Maker, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))
			r.Use(middlewarectx.ProfileMiddleware(logger, s.Profile))
			r.Get("/profile", profileown.New(logger, s.Profile).ServeHTTP)

			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.ActionGateMiddleware(logger))
				r.Post("/profiles", profilecreate.New(logger, s.Profile).ServeHTTP)
				r.Get("/profiles", profilelist.New(logger, s.Profile).ServeHTTP)
				r.Get("/profiles/{id}", profileread.New(logger, s.Profile).ServeHTTP)
				r.Put("/profiles/{id}", profileupdate.New(logger, s.Profile).ServeHTTP)
				r.Delete("/profiles/{id}", profileremove.New(logger, s.Profile).ServeHTTP)

				r.Get("/users", userlist.New(logger, s.Storage).ServeHTTP)
				r.Get("/users/{uid}", userread.New(logger, s.Storage).ServeHTTP)

				r.Get("/customer", customerread.New(logger, s.Storage, s.Entitlement).ServeHTTP)
				r.Put("/customer", customerupdate.New(logger, s.Storage).ServeHTTP)
			})

			// История покупок доступна только с фичей basic_export.
			// Проверка фичи идет до проверки действия по роли.
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.FeatureGateMiddleware(logger, s.Profile, "basic_export"))
				r.Use(middlewarectx.ActionGateMiddleware(logger))
				r.Get("/customer/purchases", customerpurchases.New(logger, s.Storage).ServeHTTP)
			})
		})

		// Webhook endpoint (без аутентификации, подпись HMAC)
		r.Post("/webhooks/purchase", webhook.New(logger, s.Entitlement, webhookSecret).ServeHTTP)
	})

	r.Get("/health", health.New(logger, s.Storage).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
