package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/delarosa-dev/shopdeck-backend/api/routes"
	"github.com/delarosa-dev/shopdeck-backend/internal/auth"
	"github.com/delarosa-dev/shopdeck-backend/internal/media"
	"github.com/delarosa-dev/shopdeck-backend/internal/navigation"
	"github.com/delarosa-dev/shopdeck-backend/internal/pages"
	"github.com/delarosa-dev/shopdeck-backend/internal/products"
	"github.com/delarosa-dev/shopdeck-backend/pkg/auth/session"
	"github.com/delarosa-dev/shopdeck-backend/pkg/config"
	"github.com/delarosa-dev/shopdeck-backend/pkg/db"
	"github.com/delarosa-dev/shopdeck-backend/pkg/events"
	"github.com/delarosa-dev/shopdeck-backend/pkg/logger"
	"github.com/delarosa-dev/shopdeck-backend/pkg/metrics"
	"github.com/delarosa-dev/shopdeck-backend/pkg/migrate"
	"github.com/delarosa-dev/shopdeck-backend/pkg/redis"
	"github.com/delarosa-dev/shopdeck-backend/pkg/storage/local"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	storageClient, err := local.New(cfg.Storage)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap media storage", err)
		os.Exit(1)
	}

	bus := events.NewBus(logg)
	subscribeContentLog(bus, logg)

	registry := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(registry)

	mediaRepo := media.NewRepository(dbClient.DB())
	mediaService, err := media.NewService(mediaRepo, storageClient, bus, cfg.Media, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create media service", err)
		os.Exit(1)
	}

	searchStrategy, err := products.NewStrategy(cfg.Search)
	if err != nil {
		logg.Error(context.Background(), "failed to create search strategy", err)
		os.Exit(1)
	}

	productService, err := products.NewService(
		products.NewRepository(dbClient.DB()),
		dbClient,
		mediaService,
		mediaRepo,
		searchStrategy,
		bus,
		cfg.Media,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create product service", err)
		os.Exit(1)
	}

	pageService, err := pages.NewService(pages.NewRepository(dbClient.DB()), bus)
	if err != nil {
		logg.Error(context.Background(), "failed to create page service", err)
		os.Exit(1)
	}

	navService, err := navigation.NewService(navigation.NewRepository(dbClient.DB()), dbClient, bus)
	if err != nil {
		logg.Error(context.Background(), "failed to create navigation service", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		DB:             dbClient,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			storageClient,
			registry,
			httpMetrics,
			sessionManager,
			authService,
			mediaService,
			productService,
			pageService,
			navService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

// subscribeContentLog emits one structured log line per content change so
// operators can trail catalog activity without a separate audit store.
func subscribeContentLog(bus *events.Bus, logg *logger.Logger) {
	kinds := []events.Kind{
		events.KindMediaCreated,
		events.KindMediaDeleted,
		events.KindProductCreated,
		events.KindProductUpdated,
		events.KindProductDeleted,
		events.KindPageCreated,
		events.KindPageUpdated,
		events.KindPageDeleted,
		events.KindNavChanged,
	}
	for _, kind := range kinds {
		bus.Subscribe(kind, func(ctx context.Context, evt events.Event) {
			logg.Info(logg.WithField(ctx, "event_kind", string(evt.Kind)), "content changed")
		})
	}
}
