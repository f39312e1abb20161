// Command lawdirctl runs directory maintenance tasks against the configured
// database: loading reference data, CSV imports, admin accounts and the
// nomination queue.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/lawdir/directory-api/internal/auth"
	"github.com/lawdir/directory-api/internal/cache"
	"github.com/lawdir/directory-api/internal/config"
	"github.com/lawdir/directory-api/internal/database"
	"github.com/lawdir/directory-api/internal/email"
	"github.com/lawdir/directory-api/internal/importer"
	"github.com/lawdir/directory-api/internal/logger"
	"github.com/lawdir/directory-api/internal/repository"
	"github.com/lawdir/directory-api/internal/service"
	"github.com/lawdir/directory-api/internal/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	verbose bool
	timeout time.Duration

	// current is built by the root command's PersistentPreRunE
	current *app
)

// app is the slice of the service layer the commands need
type app struct {
	locations     *service.LocationService
	practiceAreas *service.PracticeAreaService
	imports       *service.ImportService
	auth          *service.AuthService
	nominations   *service.NominationService
	logger        *zap.Logger
	close         func()
}

var rootCmd = &cobra.Command{
	Use:   "lawdirctl",
	Short: "Maintenance commands for the law firm directory",
	Long: `lawdirctl works directly against the directory database using the same
configuration as the API (config.json, .env and environment variables).

Available commands:
  seed         - Load reference states and practice areas
  import       - Import firms and offices from a CSV file
  admin        - Manage admin dashboard users
  nominations  - Inspect the nomination queue`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if current != nil {
			return nil
		}
		a, err := openApp()
		if err != nil {
			return err
		}
		current = a
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if current != nil && current.close != nil {
			current.close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Minute, "Operation timeout")

	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(adminCmd)
	rootCmd.AddCommand(nominationsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func openApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	log, err := logger.NewLogger(&cfg.Logging, &cfg.App)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	db, err := database.NewDatabase(&cfg.Database, log)
	if err != nil {
		return nil, err
	}
	store, err := storage.NewStorage(&cfg.Storage, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	// the API's cache must see changes made here, so use the shared backend
	navCache, err := cache.New(&cfg.Cache, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}
	mailer, err := email.NewSender(&cfg.Email, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize email: %w", err)
	}

	a := newApp(db, store, navCache, mailer, cfg, log)
	a.close = func() {
		if closer, ok := navCache.(interface{ Close() error }); ok {
			_ = closer.Close()
		}
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
		_ = log.Sync()
	}
	return a, nil
}

func newApp(db *gorm.DB, store storage.Storage, navCache cache.Cache, mailer email.Sender, cfg *config.Config, log *zap.Logger) *app {
	stateRepo := repository.NewStateRepository(db)
	metroRepo := repository.NewMetroRepository(db)
	cityRepo := repository.NewCityRepository(db)
	paRepo := repository.NewPracticeAreaRepository(db)
	firmRepo := repository.NewFirmRepository(db)
	officeRepo := repository.NewOfficeRepository(db)
	nominationRepo := repository.NewNominationRepository(db)
	adminRepo := repository.NewAdminUserRepository(db)
	importRepo := repository.NewImportRunRepository(db)

	locations := service.NewLocationService(stateRepo, metroRepo, cityRepo, firmRepo, navCache, log)
	practiceAreas := service.NewPracticeAreaService(paRepo, firmRepo, navCache, log)
	offices := service.NewOfficeService(db, officeRepo, firmRepo, cityRepo, navCache, log)
	notifier := service.NewNotificationService(mailer, adminRepo, cfg.Email.AdminRecipients, cfg.App.BaseURL, log)

	return &app{
		locations:     locations,
		practiceAreas: practiceAreas,
		imports:       service.NewImportService(db, importRepo, firmRepo, officeRepo, locations, practiceAreas, offices, importer.NewParser(cfg.Import.MaxRows), store, navCache, log),
		auth:          service.NewAuthService(adminRepo, auth.NewTokenManager(&cfg.Auth), log),
		nominations:   service.NewNominationService(db, nominationRepo, firmRepo, officeRepo, locations, practiceAreas, offices, notifier, navCache, log),
		logger:        log,
	}
}

// commandContext bounds a command by --timeout and runs it as the CLI system user
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, timeout)
	return auth.SystemContext(ctx, "lawdirctl"), cancel
}
