package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/delarosa-dev/shopdeck-backend/api/controllers"
	"github.com/delarosa-dev/shopdeck-backend/api/middleware"
	"github.com/delarosa-dev/shopdeck-backend/internal/auth"
	"github.com/delarosa-dev/shopdeck-backend/internal/media"
	"github.com/delarosa-dev/shopdeck-backend/internal/navigation"
	"github.com/delarosa-dev/shopdeck-backend/internal/pages"
	"github.com/delarosa-dev/shopdeck-backend/internal/products"
	"github.com/delarosa-dev/shopdeck-backend/pkg/auth/session"
	"github.com/delarosa-dev/shopdeck-backend/pkg/config"
	"github.com/delarosa-dev/shopdeck-backend/pkg/db"
	"github.com/delarosa-dev/shopdeck-backend/pkg/logger"
	"github.com/delarosa-dev/shopdeck-backend/pkg/metrics"
	"github.com/delarosa-dev/shopdeck-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	storageClient db.Pinger,
	registry *prometheus.Registry,
	httpMetrics *metrics.HTTPMetrics,
	sessionManager session.AccessSessionChecker,
	authService auth.Service,
	mediaService media.Service,
	productService products.Service,
	pageService pages.Service,
	navService navigation.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
	)
	if httpMetrics != nil {
		r.Use(middleware.Metrics(httpMetrics))
	}

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient, storageClient))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).
			Post("/auth/register", controllers.AuthRegister(authService, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).
			Post("/auth/login", controllers.AuthLogin(authService, logg))
		r.Post("/auth/refresh", controllers.AuthRefresh(authService, logg))

		// Public storefront reads.
		r.Get("/products", controllers.ListProducts(productService, logg))
		r.Get("/products/search", controllers.SearchProducts(productService, logg))
		r.Get("/products/{productId}", controllers.GetProduct(productService, logg))
		r.Get("/pages", controllers.ListPages(pageService, true, logg))
		r.Get("/pages/{slug}", controllers.GetPageBySlug(pageService, logg))
		r.Get("/navigation", controllers.NavigationTree(navService, logg))
		r.Get("/media/{mediaId}/file", controllers.MediaServe(mediaService, logg))

		// Management surface.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, sessionManager, logg))

			r.Post("/auth/logout", controllers.AuthLogout(authService, logg))

			r.Post("/products", controllers.CreateProduct(productService, cfg.Media, logg))
			r.Patch("/products/{productId}", controllers.UpdateProduct(productService, cfg.Media, logg))
			r.Delete("/products/{productId}", controllers.DeleteProduct(productService, logg))
			r.Post("/products/{productId}/media", controllers.AddProductMedia(productService, cfg.Media, logg))
			r.Patch("/products/{productId}/media/{mediaId}", controllers.UpdateProductMedia(productService, logg))
			r.Delete("/products/{productId}/media/{mediaId}", controllers.RemoveProductMedia(productService, logg))

			r.Post("/media", controllers.MediaUpload(mediaService, cfg.Media, logg))
			r.Get("/media", controllers.MediaList(mediaService, logg))
			r.Get("/media/{mediaId}", controllers.MediaGet(mediaService, logg))
			r.Patch("/media/{mediaId}", controllers.MediaUpdateTitle(mediaService, logg))
			r.Delete("/media/{mediaId}", controllers.MediaDelete(mediaService, logg))

			r.Post("/pages", controllers.CreatePage(pageService, logg))
			r.Get("/pages/all", controllers.ListPages(pageService, false, logg))
			r.Patch("/pages/{pageId}", controllers.UpdatePage(pageService, logg))
			r.Delete("/pages/{pageId}", controllers.DeletePage(pageService, logg))

			r.Post("/navigation", controllers.NavigationCreate(navService, logg))
			r.Patch("/navigation/{itemId}", controllers.NavigationUpdate(navService, logg))
			r.Post("/navigation/{itemId}/move", controllers.NavigationMove(navService, logg))
			r.Delete("/navigation/{itemId}", controllers.NavigationDelete(navService, logg))
		})
	})

	return r
}
