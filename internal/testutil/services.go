package testutil

import (
	"testing"

	"github.com/lawdir/directory-api/internal/auth"
	"github.com/lawdir/directory-api/internal/cache"
	"github.com/lawdir/directory-api/internal/config"
	"github.com/lawdir/directory-api/internal/content"
	"github.com/lawdir/directory-api/internal/importer"
	"github.com/lawdir/directory-api/internal/repository"
	"github.com/lawdir/directory-api/internal/service"
	"github.com/lawdir/directory-api/internal/storage"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TestJWTSecret signs tokens issued by Services.Tokens
const TestJWTSecret = "lawdir-test-secret"

// Services is every service wired against one private sqlite database
type Services struct {
	DB     *gorm.DB
	Cache  *cache.Memory
	Store  *storage.LocalStorage
	Mail   *MailRecorder
	Tokens *auth.TokenManager

	Locations     *service.LocationService
	PracticeAreas *service.PracticeAreaService
	Firms         *service.FirmService
	Offices       *service.OfficeService
	Lawyers       *service.LawyerService
	Directory     *service.DirectoryService
	Nominations   *service.NominationService
	Imports       *service.ImportService
	Content       *service.ContentService
	Auth          *service.AuthService
	Dashboard     *service.DashboardService
	AuditLogs     *service.AuditLogService
}

// NewServices wires the service layer the same way cmd/api does
func NewServices(t *testing.T) *Services {
	t.Helper()

	db := SetupTestDB(t)
	logger := zap.NewNop()
	memCache := cache.NewMemory(0)
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	mail := &MailRecorder{}

	stateRepo := repository.NewStateRepository(db)
	metroRepo := repository.NewMetroRepository(db)
	cityRepo := repository.NewCityRepository(db)
	paRepo := repository.NewPracticeAreaRepository(db)
	firmRepo := repository.NewFirmRepository(db)
	officeRepo := repository.NewOfficeRepository(db)
	lawyerRepo := repository.NewLawyerRepository(db)
	nominationRepo := repository.NewNominationRepository(db)
	pageRepo := repository.NewPageRepository(db)
	blogRepo := repository.NewBlogPostRepository(db)
	adminRepo := repository.NewAdminUserRepository(db)
	importRepo := repository.NewImportRunRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	tokens := auth.NewTokenManager(&config.AuthConfig{JWTSecret: TestJWTSecret, Issuer: "lawdir-test", TokenTTL: 60})

	s := &Services{DB: db, Cache: memCache, Store: store, Mail: mail, Tokens: tokens}
	s.Locations = service.NewLocationService(stateRepo, metroRepo, cityRepo, firmRepo, memCache, logger)
	s.PracticeAreas = service.NewPracticeAreaService(paRepo, firmRepo, memCache, logger)
	s.Firms = service.NewFirmService(db, firmRepo, s.PracticeAreas, store, memCache, logger)
	s.Offices = service.NewOfficeService(db, officeRepo, firmRepo, cityRepo, memCache, logger)
	s.Lawyers = service.NewLawyerService(db, lawyerRepo, firmRepo, officeRepo, s.PracticeAreas, store, memCache, logger)
	s.Directory = service.NewDirectoryService(stateRepo, metroRepo, cityRepo, paRepo, firmRepo, blogRepo, memCache, logger)

	notifier := service.NewNotificationService(mail, adminRepo, []string{"editors@lawdir.test"}, "https://lawdir.test", logger)
	s.Nominations = service.NewNominationService(db, nominationRepo, firmRepo, officeRepo, s.Locations, s.PracticeAreas, s.Offices, notifier, memCache, logger)
	s.Imports = service.NewImportService(db, importRepo, firmRepo, officeRepo, s.Locations, s.PracticeAreas, s.Offices, importer.NewParser(100), store, memCache, logger)
	s.Content = service.NewContentService(pageRepo, blogRepo, paRepo, content.NewRenderer(), store, memCache, logger)
	s.Auth = service.NewAuthService(adminRepo, tokens, logger)
	s.Dashboard = service.NewDashboardService(firmRepo, officeRepo, lawyerRepo, nominationRepo, blogRepo, importRepo, logger)
	s.AuditLogs = service.NewAuditLogService(auditRepo, logger)
	return s
}
