package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/mewayz/entitystore/internal/api"
	v1 "github.com/mewayz/entitystore/internal/api/v1"
	"github.com/mewayz/entitystore/internal/cache"
	"github.com/mewayz/entitystore/internal/config"
	"github.com/mewayz/entitystore/internal/logger"
	"github.com/mewayz/entitystore/internal/postgres"
	"github.com/mewayz/entitystore/internal/repository"
	"github.com/mewayz/entitystore/internal/schema"
	"github.com/mewayz/entitystore/internal/service"
	"github.com/mewayz/entitystore/internal/validator"
)

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	app := fx.New(
		fx.Provide(
			// Validator
			validator.NewValidator,

			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// Cache
			cache.NewInMemoryCache,

			// Postgres
			postgres.NewDB,

			// Kind registry
			provideRegistry,

			// Repositories
			repository.NewEntityRepository,

			// Services
			service.NewServiceParams,
			service.NewEntityService,

			// API
			provideHandlers,
			provideRouter,
		),
		fx.Invoke(startServer),
	)

	app.Run()
}

// provideRegistry registers every kind declared in configuration. Adding a
// kind is a configuration change, never a new file.
func provideRegistry(cfg *config.Configuration, log *logger.Logger) (*schema.Registry, error) {
	registry := schema.NewRegistry()

	for kind, kindSchema := range cfg.Kinds {
		if err := registry.Register(kind, kindSchema); err != nil {
			return nil, err
		}
		log.Infow("registered entity kind", "kind", kind, "fields", len(kindSchema))
	}

	return registry, nil
}

func provideHandlers(
	entityService service.EntityService,
	registry *schema.Registry,
	log *logger.Logger,
) api.Handlers {
	return api.Handlers{
		Entity: v1.NewEntityHandler(entityService, registry, log),
		Health: v1.NewHealthHandler(log),
	}
}

func provideRouter(handlers api.Handlers) *gin.Engine {
	return api.NewRouter(handlers)
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	db *postgres.DB,
	r *gin.Engine,
	log *logger.Logger,
) {
	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := db.Migrate(ctx); err != nil {
				return err
			}

			log.Infow("starting API server", "address", cfg.Server.Address)
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatalf("failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("shutting down server")
			if err := srv.Shutdown(ctx); err != nil {
				return err
			}
			db.Close()
			return nil
		},
	})
}
