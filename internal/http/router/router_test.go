package router_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lawdir/directory-api/internal/auth"
	"github.com/lawdir/directory-api/internal/config"
	"github.com/lawdir/directory-api/internal/domain"
	"github.com/lawdir/directory-api/internal/http/handler"
	"github.com/lawdir/directory-api/internal/http/middleware"
	"github.com/lawdir/directory-api/internal/http/router"
	"github.com/lawdir/directory-api/internal/repository"
	"github.com/lawdir/directory-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testAPIKey = "router-test-api-key"

type testAPI struct {
	handler  http.Handler
	services *testutil.Services
	audit    *middleware.AuditMiddleware
	admin    *domain.AdminUser
	editor   *domain.AdminUser
	texas    *domain.State
}

func testConfig() *config.Config {
	return &config.Config{
		App:    config.AppConfig{Name: "lawdir", Environment: "development"},
		ApiKey: config.ApiKeyConfig{Value: testAPIKey},
		Server: config.ServerConfig{EnableWeb: false},
		CORS: config.CORSConfig{
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Authorization", "Content-Type", "X-API-Key"},
		},
		Security: config.SecurityConfig{ContentTypeNosniff: true, FrameOptions: "DENY"},
		RateLimit: config.RateLimitConfig{
			Enabled:               true,
			RequestsPerMinute:     1000,
			RequestsPerMinuteAuth: 1000,
			NominationsPerHour:    100,
			LoginsPerMinute:       3,
		},
		Storage: config.StorageConfig{MaxUploadSizeMB: 1},
		Import:  config.ImportConfig{MaxRows: 100, MaxFileSizeMB: 1},
	}
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	cfg := testConfig()
	logger := zap.NewNop()
	s := testutil.NewServices(t)

	hash, err := auth.HashPassword("correct horse battery")
	require.NoError(t, err)
	admin := testutil.CreateAdminUser(t, s.DB, "admin@lawdir.test", hash, domain.AdminRoleAdmin)
	editor := testutil.CreateAdminUser(t, s.DB, "editor@lawdir.test", hash, domain.AdminRoleEditor)
	texas := testutil.CreateState(t, s.DB, "Texas", "TX")

	audit := middleware.NewAuditMiddleware(s.AuditLogs, nil, logger)
	rt := router.NewRouter(
		cfg,
		logger,
		s.DB,
		s.Cache,
		auth.NewMiddleware(cfg, s.Tokens, repository.NewAdminUserRepository(s.DB), logger),
		middleware.NewRateLimiter(&cfg.RateLimit, logger),
		audit,
		router.Handlers{
			Directory:    handler.NewDirectoryHandler(s.Directory, logger),
			Firm:         handler.NewFirmHandler(s.Firms, cfg.Storage.MaxUploadSizeMB, logger),
			Office:       handler.NewOfficeHandler(s.Offices, logger),
			Lawyer:       handler.NewLawyerHandler(s.Lawyers, cfg.Storage.MaxUploadSizeMB, logger),
			PracticeArea: handler.NewPracticeAreaHandler(s.PracticeAreas, logger),
			Location:     handler.NewLocationHandler(s.Locations, logger),
			Nomination:   handler.NewNominationHandler(s.Nominations, logger),
			Import:       handler.NewImportHandler(s.Imports, cfg.Import.MaxFileSizeMB, logger),
			Content:      handler.NewContentHandler(s.Content, cfg.Storage.MaxUploadSizeMB, logger),
			Dashboard:    handler.NewDashboardHandler(s.Dashboard, logger),
			Auth:         handler.NewAuthHandler(s.Auth, logger),
			Audit:        handler.NewAuditHandler(s.AuditLogs, logger),
			Media:        handler.NewMediaHandler(s.Store, logger),
		},
		nil,
	)

	return &testAPI{
		handler:  rt.Setup(),
		services: s,
		audit:    audit,
		admin:    admin,
		editor:   editor,
		texas:    texas,
	}
}

func (a *testAPI) token(t *testing.T, user *domain.AdminUser) string {
	t.Helper()
	token, err := a.services.Tokens.Issue(user)
	require.NoError(t, err)
	return token
}

type requestOption func(*http.Request)

func withBearer(token string) requestOption {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func withAPIKey() requestOption {
	return func(r *http.Request) { r.Header.Set("X-API-Key", testAPIKey) }
}

func (a *testAPI) do(t *testing.T, method, path string, body interface{}, opts ...requestOption) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.RemoteAddr = "203.0.113.10:4321"
	for _, opt := range opts {
		opt(req)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) upload(t *testing.T, path, filename string, content []byte, opts ...requestOption) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	for _, opt := range opts {
		opt(req)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))

	rec = api.do(t, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"database"`)
}

func TestAdminRoutesRequireAuthentication(t *testing.T) {
	api := newTestAPI(t)

	for _, path := range []string{"/api/v1/firms", "/api/v1/admin/nominations", "/api/v1/users", "/api/v1/dashboard/metrics"} {
		rec := api.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestRoleEnforcement(t *testing.T) {
	api := newTestAPI(t)
	editor := withBearer(api.token(t, api.editor))
	admin := withBearer(api.token(t, api.admin))

	assert.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/api/v1/firms", nil, editor).Code)
	assert.Equal(t, http.StatusForbidden, api.do(t, http.MethodGet, "/api/v1/users", nil, editor).Code)
	assert.Equal(t, http.StatusForbidden, api.do(t, http.MethodGet, "/api/v1/audit", nil, editor).Code)

	assert.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/api/v1/users", nil, admin).Code)
	assert.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/api/v1/users", nil, withAPIKey()).Code)
}

func TestDeactivatedUserTokenIsRejected(t *testing.T) {
	api := newTestAPI(t)
	editor := withBearer(api.token(t, api.editor))
	admin := withBearer(api.token(t, api.admin))

	require.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/api/v1/firms", nil, editor).Code)

	rec := api.do(t, http.MethodPost, "/api/v1/users/"+api.editor.ID.String()+"/deactivate", nil, admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	api.audit.Wait()

	assert.Equal(t, http.StatusUnauthorized, api.do(t, http.MethodGet, "/api/v1/firms", nil, editor).Code)
	assert.Equal(t, http.StatusUnauthorized, api.do(t, http.MethodPost, "/api/v1/practice-areas", map[string]string{"name": "Maritime Law"}, editor).Code)
}

func TestPromotedUserGainsAdminRoutes(t *testing.T) {
	api := newTestAPI(t)
	editor := withBearer(api.token(t, api.editor))
	require.Equal(t, http.StatusForbidden, api.do(t, http.MethodGet, "/api/v1/users", nil, editor).Code)

	require.NoError(t, api.services.DB.Model(&domain.AdminUser{}).
		Where("id = ?", api.editor.ID).
		Update("role", domain.AdminRoleAdmin).Error)

	assert.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/api/v1/users", nil, editor).Code)
}

func TestLoginAndMe(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    "editor@lawdir.test",
		"password": "correct horse battery",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	login := decode[domain.LoginResponse](t, rec)
	assert.Equal(t, "Bearer", login.TokenType)

	rec = api.do(t, http.MethodGet, "/api/v1/auth/me", nil, withBearer(login.AccessToken))
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[domain.AuthUserDTO](t, rec)
	assert.Equal(t, "editor@lawdir.test", me.Email)
}

func TestLoginIsRateLimited(t *testing.T) {
	api := newTestAPI(t)
	body := map[string]string{"email": "admin@lawdir.test", "password": "wrong password"}

	for i := 0; i < 3; i++ {
		rec := api.do(t, http.MethodPost, "/api/v1/auth/login", body)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}
	rec := api.do(t, http.MethodPost, "/api/v1/auth/login", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "rate_limited")
}

func TestValidationErrorsUseFieldNames(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/v1/firms", map[string]interface{}{
		"website": "not a url",
	}, withAPIKey())
	require.Equal(t, http.StatusBadRequest, rec.Code)

	apiErr := decode[domain.APIError](t, rec)
	assert.Equal(t, domain.ErrorTypeValidation, apiErr.Type)
	assert.Contains(t, apiErr.Errors, "name")
	assert.Contains(t, apiErr.Errors, "website")
}

func TestFirmLifecycleIsAudited(t *testing.T) {
	api := newTestAPI(t)
	editor := withBearer(api.token(t, api.editor))

	rec := api.do(t, http.MethodPost, "/api/v1/firms", map[string]interface{}{
		"name": "Brazos Legal Group",
		"tier": 2,
	}, editor)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	firm := decode[domain.FirmDTO](t, rec)
	assert.Equal(t, "brazos-legal-group", firm.Slug)

	rec = api.do(t, http.MethodPut, "/api/v1/firms/"+firm.ID.String()+"/listing", map[string]interface{}{
		"tier":      3,
		"isPremium": true,
	}, editor)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decode[domain.FirmDTO](t, rec).PremiumActive)

	api.audit.Wait()

	rec = api.do(t, http.MethodGet, "/api/v1/audit/entity/Firm/"+firm.ID.String(), nil, withAPIKey())
	require.Equal(t, http.StatusOK, rec.Code)
	entries := decode[[]domain.AuditLogDTO](t, rec)
	require.Len(t, entries, 1, "create has no ID in the route, so only the update is tied to the firm")
	assert.Equal(t, domain.AuditActionUpdate, entries[0].Action)
	assert.Equal(t, "editor@lawdir.test", entries[0].UserEmail)

	rec = api.do(t, http.MethodDelete, "/api/v1/firms/"+firm.ID.String(), nil, editor)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = api.do(t, http.MethodGet, "/api/v1/firms/"+firm.ID.String(), nil, editor)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNominationApprovalPublishesFirm(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/v1/nominations", map[string]interface{}{
		"firmName":       "Pecan Street Law",
		"city":           "Austin",
		"state":          "TX",
		"practiceAreas":  "Family Law",
		"nominatorName":  "Sam Client",
		"nominatorEmail": "sam@example.com",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	nomination := decode[domain.NominationDTO](t, rec)

	rec = api.do(t, http.MethodPost, "/api/v1/nominations", map[string]interface{}{
		"firmName":       "Bot Firm",
		"city":           "Austin",
		"state":          "TX",
		"nominatorName":  "Bot",
		"nominatorEmail": "bot@example.com",
		"website2":       "http://spam.example",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/v1/admin/nominations/"+nomination.ID.String()+"/approve", nil, withAPIKey())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	approved := decode[domain.NominationDTO](t, rec)
	assert.Equal(t, domain.NominationStatusApproved, approved.Status)
	require.NotNil(t, approved.FirmID)

	rec = api.do(t, http.MethodGet, "/api/v1/directory/firms/pecan-street-law", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	firm := decode[domain.FirmDetailDTO](t, rec)
	require.Len(t, firm.Offices, 1)
	assert.Equal(t, "Austin", firm.Offices[0].CityName)
	assert.True(t, firm.Offices[0].IsHeadquarters)

	rec = api.do(t, http.MethodPost, "/api/v1/admin/nominations/"+nomination.ID.String()+"/reject", map[string]string{"notes": "too late"}, withAPIKey())
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestImportUpload(t *testing.T) {
	api := newTestAPI(t)
	csv := "firm_name,city,state,practice_areas\n" +
		"Guadalupe Law,San Antonio,TX,Immigration\n" +
		",Dallas,TX,\n"

	rec := api.upload(t, "/api/v1/imports?dryRun=true", "firms.csv", []byte(csv), withAPIKey())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	dry := decode[domain.ImportRunDTO](t, rec)
	assert.True(t, dry.DryRun)
	assert.Equal(t, 1, dry.CreatedCount)
	assert.Equal(t, 1, dry.FailedCount)

	rec = api.do(t, http.MethodGet, "/api/v1/directory/firms/guadalupe-law", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "dry run must not commit")

	rec = api.upload(t, "/api/v1/imports", "firms.csv", []byte(csv), withAPIKey())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	run := decode[domain.ImportRunDTO](t, rec)
	require.Len(t, run.Errors, 1)
	assert.Equal(t, 3, run.Errors[0].Line)

	rec = api.do(t, http.MethodGet, "/api/v1/imports/"+run.ID.String()+"/file", nil, withAPIKey())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, csv, rec.Body.String())

	rec = api.upload(t, "/api/v1/imports", "firms.xlsx", []byte("PK"), withAPIKey())
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestLogoUploadIsServedFromMedia(t *testing.T) {
	api := newTestAPI(t)
	firm := testutil.CreateFirm(t, api.services.DB, "Rio Grande Partners")
	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 32)...)

	rec := api.upload(t, "/api/v1/firms/"+firm.ID.String()+"/logo", "logo.png", png, withAPIKey())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	dto := decode[domain.FirmDTO](t, rec)
	require.True(t, strings.HasPrefix(dto.LogoURL, "/media/"), dto.LogoURL)

	rec = api.do(t, http.MethodGet, dto.LogoURL, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, png, rec.Body.Bytes())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))

	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodGet, "/media/logos/missing.png", nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodGet, "/media/../config.json", nil).Code)

	rec = api.upload(t, "/api/v1/firms/"+firm.ID.String()+"/logo", "logo.txt", []byte("plain text"), withAPIKey())
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestPublicDirectory(t *testing.T) {
	api := newTestAPI(t)
	city := testutil.CreateCity(t, api.services.DB, api.texas, nil, "Waco")
	firm := testutil.CreateFirm(t, api.services.DB, "Waco Counsel", testutil.WithTier(1))
	testutil.CreateOffice(t, api.services.DB, firm, city, true)

	rec := api.do(t, http.MethodGet, "/api/v1/directory/states", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	states := decode[[]domain.StateDTO](t, rec)
	require.Len(t, states, 1)
	assert.Equal(t, int64(1), states[0].FirmCount)

	rec = api.do(t, http.MethodGet, "/api/v1/directory/states/tx/cities/waco", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/v1/directory/search?minTier=9", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
