package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lawdir/directory-api/docs"
	"github.com/lawdir/directory-api/internal/auth"
	"github.com/lawdir/directory-api/internal/cache"
	"github.com/lawdir/directory-api/internal/config"
	"github.com/lawdir/directory-api/internal/content"
	"github.com/lawdir/directory-api/internal/database"
	"github.com/lawdir/directory-api/internal/email"
	"github.com/lawdir/directory-api/internal/http/handler"
	"github.com/lawdir/directory-api/internal/http/middleware"
	"github.com/lawdir/directory-api/internal/http/router"
	"github.com/lawdir/directory-api/internal/importer"
	"github.com/lawdir/directory-api/internal/jobs"
	"github.com/lawdir/directory-api/internal/logger"
	"github.com/lawdir/directory-api/internal/repository"
	"github.com/lawdir/directory-api/internal/service"
	"github.com/lawdir/directory-api/internal/storage"
	"github.com/lawdir/directory-api/internal/web"
	"go.uber.org/zap"
)

// @title Law Firm Directory API
// @version 1.0
// @description Public directory of law firms by state, metro, city and practice area, with nominations and an admin API
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@lawdir.example

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token issued by /auth/login

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name x-api-key
// @description API Key for system operations
// @Security BearerAuth
// @Security ApiKeyAuth

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Load basic configuration first (for logging setup)
	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
		zap.Int("port", basicCfg.App.Port),
	)

	docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", basicCfg.App.Port)

	// In development secrets come from the environment, elsewhere from Key Vault
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	db, err := database.NewDatabase(&cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	fileStorage, err := storage.NewStorage(&cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	log.Info("Storage initialized", zap.String("mode", cfg.Storage.Mode))

	navCache, err := cache.New(&cfg.Cache, log)
	if err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}

	mailer, err := email.NewSender(&cfg.Email, log)
	if err != nil {
		return fmt.Errorf("failed to initialize email: %w", err)
	}

	// Repositories
	stateRepo := repository.NewStateRepository(db)
	metroRepo := repository.NewMetroRepository(db)
	cityRepo := repository.NewCityRepository(db)
	practiceAreaRepo := repository.NewPracticeAreaRepository(db)
	firmRepo := repository.NewFirmRepository(db)
	officeRepo := repository.NewOfficeRepository(db)
	lawyerRepo := repository.NewLawyerRepository(db)
	nominationRepo := repository.NewNominationRepository(db)
	pageRepo := repository.NewPageRepository(db)
	blogRepo := repository.NewBlogPostRepository(db)
	adminRepo := repository.NewAdminUserRepository(db)
	importRepo := repository.NewImportRunRepository(db)
	auditLogRepo := repository.NewAuditLogRepository(db)

	// Services, in dependency order
	tokens := auth.NewTokenManager(&cfg.Auth)
	locationService := service.NewLocationService(stateRepo, metroRepo, cityRepo, firmRepo, navCache, log)
	practiceAreaService := service.NewPracticeAreaService(practiceAreaRepo, firmRepo, navCache, log)
	firmService := service.NewFirmService(db, firmRepo, practiceAreaService, fileStorage, navCache, log)
	officeService := service.NewOfficeService(db, officeRepo, firmRepo, cityRepo, navCache, log)
	lawyerService := service.NewLawyerService(db, lawyerRepo, firmRepo, officeRepo, practiceAreaService, fileStorage, navCache, log)
	directoryService := service.NewDirectoryService(stateRepo, metroRepo, cityRepo, practiceAreaRepo, firmRepo, blogRepo, navCache, log)
	notificationService := service.NewNotificationService(mailer, adminRepo, cfg.Email.AdminRecipients, cfg.App.BaseURL, log)
	nominationService := service.NewNominationService(db, nominationRepo, firmRepo, officeRepo, locationService, practiceAreaService, officeService, notificationService, navCache, log)
	importService := service.NewImportService(db, importRepo, firmRepo, officeRepo, locationService, practiceAreaService, officeService, importer.NewParser(cfg.Import.MaxRows), fileStorage, navCache, log)
	contentService := service.NewContentService(pageRepo, blogRepo, practiceAreaRepo, content.NewRenderer(), fileStorage, navCache, log)
	authService := service.NewAuthService(adminRepo, tokens, log)
	dashboardService := service.NewDashboardService(firmRepo, officeRepo, lawyerRepo, nominationRepo, blogRepo, importRepo, log)
	auditLogService := service.NewAuditLogService(auditLogRepo, log)

	// Middleware
	authMiddleware := auth.NewMiddleware(cfg, tokens, adminRepo, log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)
	auditMiddleware := middleware.NewAuditMiddleware(auditLogService, nil, log)

	handlers := router.Handlers{
		Directory:    handler.NewDirectoryHandler(directoryService, log),
		Firm:         handler.NewFirmHandler(firmService, cfg.Storage.MaxUploadSizeMB, log),
		Office:       handler.NewOfficeHandler(officeService, log),
		Lawyer:       handler.NewLawyerHandler(lawyerService, cfg.Storage.MaxUploadSizeMB, log),
		PracticeArea: handler.NewPracticeAreaHandler(practiceAreaService, log),
		Location:     handler.NewLocationHandler(locationService, log),
		Nomination:   handler.NewNominationHandler(nominationService, log),
		Import:       handler.NewImportHandler(importService, cfg.Import.MaxFileSizeMB, log),
		Content:      handler.NewContentHandler(contentService, cfg.Storage.MaxUploadSizeMB, log),
		Dashboard:    handler.NewDashboardHandler(dashboardService, log),
		Auth:         handler.NewAuthHandler(authService, log),
		Audit:        handler.NewAuditHandler(auditLogService, log),
		Media:        handler.NewMediaHandler(fileStorage, log),
	}

	var site http.Handler
	if cfg.Server.EnableWeb {
		webHandler, err := web.NewHandler(cfg.App.Name, directoryService, contentService, nominationService, log)
		if err != nil {
			return fmt.Errorf("failed to load site templates: %w", err)
		}
		site = webHandler.Routes()
		log.Info("Public site enabled")
	}

	rt := router.NewRouter(cfg, log, db, navCache, authMiddleware, rateLimiter, auditMiddleware, handlers, site)

	var scheduler *jobs.Scheduler
	if cfg.Jobs.Enabled {
		scheduler = jobs.NewScheduler(log)
		deps := jobs.Dependencies{
			Firms:       firmService,
			Nominations: nominationService,
			Audit:       auditLogService,
		}
		if err := jobs.RegisterDirectoryJobs(scheduler, &cfg.Jobs, deps, log); err != nil {
			return fmt.Errorf("failed to register jobs: %w", err)
		}
		scheduler.Start()
		log.Info("Scheduler started", zap.Strings("jobs", scheduler.GetJobNames()))
	} else {
		log.Info("Scheduled jobs disabled")
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           rt.Setup(),
		ReadTimeout:       cfg.Server.ReadTimeoutDuration(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeoutDuration(),
		IdleTimeout:       120 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		if scheduler != nil {
			<-scheduler.Stop().Done()
			log.Info("Scheduler stopped")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		// audit rows are written after the response; let the last ones land
		auditMiddleware.Wait()

		if closer, ok := navCache.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				log.Warn("Error closing cache", zap.Error(err))
			}
		}
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}
