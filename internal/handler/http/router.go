package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bmanav26/E-Commerce/internal/auth"
	"github.com/bmanav26/E-Commerce/internal/domain"
	"github.com/bmanav26/E-Commerce/internal/service"
	"github.com/bmanav26/E-Commerce/pkg/health"
	"github.com/bmanav26/E-Commerce/pkg/middleware"
)

// RouterConfig carries the router's environment-dependent settings.
type RouterConfig struct {
	Environment       string
	CORSConfig        middleware.CORSConfig
	PprofAllowedCIDRs []string
}

// NewRouter creates a chi router with all API routes registered.
func NewRouter(
	userService *service.UserService,
	productService *service.ProductService,
	reviewService *service.ReviewService,
	jwtManager *auth.JWTManager,
	revoker auth.Revoker,
	healthHandler *health.Handler,
	logger *slog.Logger,
	cfg RouterConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(cfg.CORSConfig))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Tracing("shop-api"))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("shop"))

	// Operational endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})
	middleware.RegisterPprof(r, cfg.PprofAllowedCIDRs, logger)

	secureCookies := cfg.Environment != "development"
	authHandler := NewAuthHandler(userService, logger, secureCookies)
	userHandler := NewUserHandler(userService, logger)
	productHandler := NewProductHandler(productService, logger)
	reviewHandler := NewReviewHandler(reviewService, logger)

	authenticate := Authenticate(jwtManager, revoker)

	r.Route("/api/v1", func(r chi.Router) {
		// Public catalog endpoints
		r.Group(func(r chi.Router) {
			r.Use(middleware.CacheControl(30))

			r.Get("/products", productHandler.List)
			r.Get("/product/{id}", productHandler.Get)
			r.Get("/product/{id}/reviews", reviewHandler.ListForProduct)
		})

		// Public auth endpoints
		r.Group(func(r chi.Router) {
			r.Use(ContentTypeJSON)

			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/password/forgot", authHandler.ForgotPassword)
			r.Put("/password/reset/{token}", authHandler.ResetPassword)
		})
		r.Get("/logout", authHandler.Logout)

		// Authenticated endpoints
		r.Group(func(r chi.Router) {
			r.Use(ContentTypeJSON)
			r.Use(authenticate)

			r.Get("/me", userHandler.GetMe)
			r.Put("/me/update", userHandler.UpdateMe)
			r.Put("/password/update", authHandler.UpdatePassword)
			r.Put("/reviews", reviewHandler.Submit)
		})

		// Admin endpoints
		r.Group(func(r chi.Router) {
			r.Use(ContentTypeJSON)
			r.Use(authenticate)
			r.Use(RequireRole(domain.RoleAdmin))

			r.Post("/admin/product/new", productHandler.Create)
			r.Put("/admin/product/{id}", productHandler.Update)
			r.Delete("/admin/product/{id}", productHandler.Delete)

			r.Get("/admin/users", userHandler.ListUsers)
			r.Get("/admin/user/{id}", userHandler.GetUser)
			r.Put("/admin/user/{id}", userHandler.UpdateUser)
			r.Delete("/admin/user/{id}", userHandler.DeleteUser)
		})
	})

	return r
}
