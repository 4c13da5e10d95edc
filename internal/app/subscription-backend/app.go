// Package subscriptionbackend собирает основное приложение: подключение
// к базе данных, кеш, брокер сообщений, сервисы и HTTP-сервер.
package subscriptionbackend

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/magabrotheeeer/subscription-backend/internal/cache"
	"github.com/magabrotheeeer/subscription-backend/internal/config"
	"github.com/magabrotheeeer/subscription-backend/internal/lib/jwt"
	"github.com/magabrotheeeer/subscription-backend/internal/migrations"
	"github.com/magabrotheeeer/subscription-backend/internal/plans"
	"github.com/magabrotheeeer/subscription-backend/internal/rabbitmq"
	authservice "github.com/magabrotheeeer/subscription-backend/internal/services/auth"
	entitlementservice "github.com/magabrotheeeer/subscription-backend/internal/services/entitlement"
	notifyservice "github.com/magabrotheeeer/subscription-backend/internal/services/notify"
	profileservice "github.com/magabrotheeeer/subscription-backend/internal/services/profile"
	signupservice "github.com/magabrotheeeer/subscription-backend/internal/services/signup"
	"github.com/magabrotheeeer/subscription-backend/internal/storage/repository"
)

// App инкапсулирует HTTP-сервер и ресурсы основного приложения.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
}

// New создает приложение: подключается к хранилищу, применяет миграции,
// загружает каталог планов и регистрирует маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, "./migrations"); err != nil {
		return nil, err
	}

	catalog, err := plans.Load(cfg.PlansPath)
	if err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	rabbitConn, err := rabbitmq.Connect(cfg.RabbitConnection, 5, 3*time.Second)
	if err != nil {
		return nil, err
	}
	rabbitCh, err := rabbitmq.SetupChannel(rabbitConn, rabbitmq.GetNotificationQueues())
	if err != nil {
		return nil, err
	}

	maker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL, cfg.RefreshTTL)

	notifyService := notifyservice.NewNotifyService(rabbitCh)
	entitlementService := entitlementservice.NewEntitlementService(db, catalog, logger)
	profileService := profileservice.NewProfileService(db, entitlementService, cacheRedis, notifyService, logger)
	authService := authservice.NewAuthService(db, maker, notifyService, logger)
	signupService := signupservice.NewSignupService(db, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, &Services{
		Auth:        authService,
		Signup:      signupService,
		Profile:     profileService,
		Entitlement: entitlementService,
		Storage:     db,
		Maker:       maker,
	}, cfg.WebhookSecret)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
	}, nil
}

// Run запускает HTTP-сервер и останавливает его при отмене контекста.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.db.DB.Close()
		return err
	}
}
