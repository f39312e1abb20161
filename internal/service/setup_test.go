package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/lawdir/directory-api/internal/auth"
	"github.com/lawdir/directory-api/internal/cache"
	"github.com/lawdir/directory-api/internal/domain"
	"github.com/lawdir/directory-api/internal/service"
	"github.com/lawdir/directory-api/internal/storage"
	"github.com/lawdir/directory-api/internal/testutil"
	"gorm.io/gorm"
)

// testEnv wires every service against a private sqlite database
type testEnv struct {
	db     *gorm.DB
	cache  *cache.Memory
	store  *storage.LocalStorage
	mail   *testutil.MailRecorder
	tokens *auth.TokenManager

	locations     *service.LocationService
	practiceAreas *service.PracticeAreaService
	firms         *service.FirmService
	offices       *service.OfficeService
	lawyers       *service.LawyerService
	directory     *service.DirectoryService
	nominations   *service.NominationService
	imports       *service.ImportService
	content       *service.ContentService
	authService   *service.AuthService
	dashboard     *service.DashboardService
	auditLogs     *service.AuditLogService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	s := testutil.NewServices(t)
	return &testEnv{
		db:            s.DB,
		cache:         s.Cache,
		store:         s.Store,
		mail:          s.Mail,
		tokens:        s.Tokens,
		locations:     s.Locations,
		practiceAreas: s.PracticeAreas,
		firms:         s.Firms,
		offices:       s.Offices,
		lawyers:       s.Lawyers,
		directory:     s.Directory,
		nominations:   s.Nominations,
		imports:       s.Imports,
		content:       s.Content,
		authService:   s.Auth,
		dashboard:     s.Dashboard,
		auditLogs:     s.AuditLogs,
	}
}

// adminContext returns a context for a named admin reviewer
func adminContext() context.Context {
	return auth.WithUserContext(context.Background(), &auth.UserContext{
		UserID:      uuid.New(),
		DisplayName: "Riley Reviewer",
		Email:       "riley@lawdir.test",
		Role:        domain.AdminRoleAdmin,
		Method:      auth.MethodJWT,
	})
}
