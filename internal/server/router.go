package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/ERPlora/module-returns/internal/config"
	"github.com/ERPlora/module-returns/internal/domain"
	"github.com/ERPlora/module-returns/internal/handler"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires HTTP routes and middleware.
func NewRouter(cfg config.Config,
	logger *slog.Logger,
	health handler.HealthHandler,
	auth handler.AuthHandler,
	returns handler.ReturnHandler,
	reasons handler.ReasonHandler,
	credits handler.CreditHandler,
	returnsSettings handler.ReturnsSettingsHandler,
	areas handler.AreaHandler,
	tables handler.TableHandler,
	tablesSettings handler.TablesSettingsHandler,
	assistant handler.AssistantHandler,
	activity handler.ActivityLogHandler,
	dashboard handler.DashboardHandler,
	docs handler.DocsHandler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(NewLoggerMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(httprate.LimitByIP(200, 1*time.Minute))

	health.RegisterRoutes(r)
	auth.RegisterRoutes(r)
	docs.RegisterRoutes(r)
	r.Method("GET", "/metrics", promhttp.Handler())

	r.Group(func(pr chi.Router) {
		pr.Use(AuthMiddleware(cfg.JWTSecret))
		auth.RegisterProtectedRoutes(pr)
		// staff-level (staff/manager/admin)
		pr.Group(func(sr chi.Router) {
			sr.Use(RequireRole(domain.RoleAdmin, domain.RoleManager, domain.RoleStaff))
			returns.RegisterRoutes(sr)
			reasons.RegisterRoutes(sr)
			credits.RegisterRoutes(sr)
			areas.RegisterRoutes(sr)
			tables.RegisterRoutes(sr)
			assistant.RegisterRoutes(sr)
		})
		// manager-level (manager/admin)
		pr.Group(func(mr chi.Router) {
			mr.Use(RequireRole(domain.RoleAdmin, domain.RoleManager))
			dashboard.RegisterRoutes(mr)
			reasons.RegisterAdminRoutes(mr)
			credits.RegisterAdminRoutes(mr)
			returnsSettings.RegisterRoutes(mr)
			tablesSettings.RegisterRoutes(mr)
			activity.RegisterRoutes(mr)
		})
	})

	return r
}
