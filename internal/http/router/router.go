package router

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lawdir/directory-api/internal/auth"
	"github.com/lawdir/directory-api/internal/cache"
	"github.com/lawdir/directory-api/internal/config"
	"github.com/lawdir/directory-api/internal/database"
	"github.com/lawdir/directory-api/internal/domain"
	"github.com/lawdir/directory-api/internal/http/handler"
	"github.com/lawdir/directory-api/internal/http/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/lawdir/directory-api/docs" // Import generated swagger docs
)

// Handlers groups the HTTP handlers mounted by the router
type Handlers struct {
	Directory    *handler.DirectoryHandler
	Firm         *handler.FirmHandler
	Office       *handler.OfficeHandler
	Lawyer       *handler.LawyerHandler
	PracticeArea *handler.PracticeAreaHandler
	Location     *handler.LocationHandler
	Nomination   *handler.NominationHandler
	Import       *handler.ImportHandler
	Content      *handler.ContentHandler
	Dashboard    *handler.DashboardHandler
	Auth         *handler.AuthHandler
	Audit        *handler.AuditHandler
	Media        *handler.MediaHandler
}

type Router struct {
	cfg             *config.Config
	logger          *zap.Logger
	db              *gorm.DB
	cache           cache.Cache
	authMiddleware  *auth.Middleware
	rateLimiter     *middleware.RateLimiter
	auditMiddleware *middleware.AuditMiddleware
	handlers        Handlers
	web             http.Handler
}

// NewRouter builds the router. web is the server-rendered site and may be nil.
func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	c cache.Cache,
	authMiddleware *auth.Middleware,
	rateLimiter *middleware.RateLimiter,
	auditMiddleware *middleware.AuditMiddleware,
	handlers Handlers,
	web http.Handler,
) *Router {
	return &Router{
		cfg:             cfg,
		logger:          logger,
		db:              db,
		cache:           c,
		authMiddleware:  authMiddleware,
		rateLimiter:     rateLimiter,
		auditMiddleware: auditMiddleware,
		handlers:        handlers,
		web:             web,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()
	h := rt.handlers

	// Global middleware
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Get("/health/db", rt.databaseHealth)
	r.Get("/health/ready", rt.readiness)

	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	r.With(rt.rateLimiter.LimitByIP).Get(mediaRoute, h.Media.Serve)

	r.Route("/api/v1", func(r chi.Router) {
		// Public directory, content and nomination endpoints
		r.Group(func(r chi.Router) {
			r.Use(rt.rateLimiter.LimitByIP)

			r.Route("/directory", func(r chi.Router) {
				r.Get("/home", h.Directory.Home)
				r.Get("/states", h.Directory.States)
				r.Get("/states/{state}", h.Directory.State)
				r.Get("/states/{state}/metros/{metro}", h.Directory.Metro)
				r.Get("/states/{state}/cities/{city}", h.Directory.City)
				r.Get("/practice-areas", h.Directory.PracticeAreas)
				r.Get("/practice-areas/{slug}", h.Directory.PracticeArea)
				r.Get("/firms/{slug}", h.Directory.Firm)
				r.Get("/search", h.Directory.Search)
			})

			r.Get("/pages", h.Content.NavPages)
			r.Get("/pages/{slug}", h.Content.PublishedPage)
			r.Get("/blog", h.Content.PublishedPosts)
			r.Get("/blog/{slug}", h.Content.PublishedPost)

			r.With(rt.rateLimiter.LimitNominations).Post("/nominations", h.Nomination.Submit)
			r.With(rt.rateLimiter.LimitLogin).Post("/auth/login", h.Auth.Login)
		})

		// Admin API
		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware.Authenticate)
			r.Use(rt.rateLimiter.Limit)

			r.Get("/auth/me", h.Auth.Me)
			r.Put("/auth/password", h.Auth.ChangePassword)

			r.Group(func(r chi.Router) {
				r.Use(rt.authMiddleware.RequireRole(domain.AdminRoleAdmin, domain.AdminRoleEditor))
				r.Use(rt.auditMiddleware.Audit)

				r.Get("/dashboard/metrics", h.Dashboard.GetMetrics)

				r.Route("/firms", func(r chi.Router) {
					r.Get("/", h.Firm.List)
					r.Post("/", h.Firm.Create)
					r.Get("/{id}", h.Firm.GetByID)
					r.Put("/{id}", h.Firm.Update)
					r.Delete("/{id}", h.Firm.Delete)
					r.Put("/{id}/listing", h.Firm.UpdateListing)
					r.Put("/{id}/practice-areas", h.Firm.SetPracticeAreas)
					r.Post("/{id}/logo", h.Firm.UploadLogo)

					r.Route("/{firmId}/offices", func(r chi.Router) {
						r.Get("/", h.Office.List)
						r.Post("/", h.Office.Create)
						r.Get("/{id}", h.Office.GetByID)
						r.Put("/{id}", h.Office.Update)
						r.Delete("/{id}", h.Office.Delete)
						r.Post("/{id}/headquarters", h.Office.SetHeadquarters)
					})

					r.Route("/{firmId}/lawyers", func(r chi.Router) {
						r.Get("/", h.Lawyer.ListByFirm)
						r.Post("/", h.Lawyer.Create)
						r.Get("/{id}", h.Lawyer.GetByID)
						r.Put("/{id}", h.Lawyer.Update)
						r.Delete("/{id}", h.Lawyer.Delete)
						r.Post("/{id}/photo", h.Lawyer.UploadPhoto)
					})
				})

				r.Get("/lawyers", h.Lawyer.List)

				r.Route("/practice-areas", func(r chi.Router) {
					r.Get("/", h.PracticeArea.List)
					r.Post("/", h.PracticeArea.Create)
					r.Get("/{id}", h.PracticeArea.GetByID)
					r.Put("/{id}", h.PracticeArea.Update)
					r.Delete("/{id}", h.PracticeArea.Delete)
				})

				r.Route("/states", func(r chi.Router) {
					r.Get("/", h.Location.ListStates)
					r.Post("/", h.Location.CreateState)
					r.Get("/{id}", h.Location.GetState)
					r.Put("/{id}", h.Location.UpdateState)
					r.Delete("/{id}", h.Location.DeleteState)
				})

				r.Route("/metros", func(r chi.Router) {
					r.Get("/", h.Location.ListMetros)
					r.Post("/", h.Location.CreateMetro)
					r.Get("/{id}", h.Location.GetMetro)
					r.Put("/{id}", h.Location.UpdateMetro)
					r.Delete("/{id}", h.Location.DeleteMetro)
				})

				r.Route("/cities", func(r chi.Router) {
					r.Get("/", h.Location.ListCities)
					r.Post("/", h.Location.CreateCity)
					r.Get("/{id}", h.Location.GetCity)
					r.Put("/{id}", h.Location.UpdateCity)
					r.Delete("/{id}", h.Location.DeleteCity)
				})

				r.Route("/imports", func(r chi.Router) {
					r.Get("/", h.Import.List)
					r.Post("/", h.Import.Upload)
					r.Get("/{id}", h.Import.GetByID)
					r.Get("/{id}/file", h.Import.Download)
				})

				r.Route("/admin", func(r chi.Router) {
					r.Route("/nominations", func(r chi.Router) {
						r.Get("/", h.Nomination.List)
						r.Get("/{id}", h.Nomination.GetByID)
						r.Post("/{id}/approve", h.Nomination.Approve)
						r.Post("/{id}/reject", h.Nomination.Reject)
					})

					r.Route("/pages", func(r chi.Router) {
						r.Get("/", h.Content.ListPages)
						r.Post("/", h.Content.CreatePage)
						r.Get("/{id}", h.Content.GetPage)
						r.Put("/{id}", h.Content.UpdatePage)
						r.Delete("/{id}", h.Content.DeletePage)
					})

					r.Route("/posts", func(r chi.Router) {
						r.Get("/", h.Content.ListPosts)
						r.Post("/", h.Content.CreatePost)
						r.Get("/{id}", h.Content.GetPost)
						r.Put("/{id}", h.Content.UpdatePost)
						r.Delete("/{id}", h.Content.DeletePost)
						r.Post("/{id}/publish", h.Content.Publish)
						r.Post("/{id}/unpublish", h.Content.Unpublish)
						r.Post("/{id}/cover", h.Content.UploadCover)
					})
				})
			})

			// Admin only
			r.Group(func(r chi.Router) {
				r.Use(rt.authMiddleware.RequireAdmin)
				r.Use(rt.auditMiddleware.Audit)

				r.Route("/users", func(r chi.Router) {
					r.Get("/", h.Auth.ListUsers)
					r.Post("/", h.Auth.CreateUser)
					r.Post("/{id}/activate", h.Auth.Activate)
					r.Post("/{id}/deactivate", h.Auth.Deactivate)
				})

				r.Route("/audit", func(r chi.Router) {
					r.Get("/", h.Audit.List)
					r.Get("/entity/{entityType}/{entityId}", h.Audit.GetByEntity)
					r.Get("/{id}", h.Audit.GetByID)
				})
			})
		})
	})

	if rt.cfg.Server.EnableWeb && rt.web != nil {
		r.With(rt.rateLimiter.LimitByIP).Mount("/", rt.web)
	}

	return r
}

const mediaRoute = "/media/*"

func (rt *Router) databaseHealth(w http.ResponseWriter, r *http.Request) {
	stats, err := database.HealthCheckWithStats(rt.db)
	if err != nil {
		rt.logger.Error("Database health check failed", zap.Error(err))
		writeHealth(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":  "unhealthy",
			"error":   err.Error(),
			"service": "database",
		})
		return
	}

	writeHealth(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"service": "database",
		"stats": map[string]interface{}{
			"max_open_connections": stats.MaxOpenConnections,
			"open_connections":     stats.OpenConnections,
			"in_use":               stats.InUse,
			"idle":                 stats.Idle,
			"wait_count":           stats.WaitCount,
			"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
		},
	})
}

type pinger interface {
	Ping(ctx context.Context) error
}

// readiness checks the database and, when redis backs the cache, redis
func (rt *Router) readiness(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]interface{})
	allHealthy := true

	if err := database.HealthCheck(rt.db); err != nil {
		rt.logger.Error("Database health check failed", zap.Error(err))
		checks["database"] = map[string]interface{}{"status": "unhealthy", "error": err.Error()}
		allHealthy = false
	} else {
		checks["database"] = map[string]interface{}{"status": "healthy"}
	}

	if p, ok := rt.cache.(pinger); ok {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			rt.logger.Error("Cache health check failed", zap.Error(err))
			checks["cache"] = map[string]interface{}{"status": "unhealthy", "error": err.Error()}
			allHealthy = false
		} else {
			checks["cache"] = map[string]interface{}{"status": "healthy"}
		}
	}

	status, label := http.StatusOK, "healthy"
	if !allHealthy {
		status, label = http.StatusServiceUnavailable, "unhealthy"
	}
	writeHealth(w, status, map[string]interface{}{
		"status": label,
		"checks": checks,
	})
}

func writeHealth(w http.ResponseWriter, status int, body map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
