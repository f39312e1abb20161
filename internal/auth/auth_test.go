package auth_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/lawdir/directory-api/internal/auth"
	"github.com/lawdir/directory-api/internal/config"
	"github.com/lawdir/directory-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "test-secret-that-is-long-enough-for-hs256"

func newTokenManager(ttlMinutes int) *auth.TokenManager {
	return auth.NewTokenManager(&config.AuthConfig{
		JWTSecret: testSecret,
		Issuer:    "lawdir-test",
		TokenTTL:  ttlMinutes,
	})
}

func testAdmin(role domain.AdminRole) *domain.AdminUser {
	u := &domain.AdminUser{
		Email:       "editor@example.com",
		DisplayName: "Erin Editor",
		Role:        role,
		IsActive:    true,
	}
	u.ID = uuid.New()
	return u
}

type memoryUsers map[uuid.UUID]*domain.AdminUser

func (m memoryUsers) GetByID(_ context.Context, id uuid.UUID) (*domain.AdminUser, error) {
	user, ok := m[id]
	if !ok {
		return nil, errors.New("record not found")
	}
	return user, nil
}

func createTestMiddleware(apiKey string, users ...*domain.AdminUser) (*auth.Middleware, *auth.TokenManager) {
	tokens := newTokenManager(60)
	cfg := &config.Config{ApiKey: config.ApiKeyConfig{Value: apiKey}}
	store := memoryUsers{}
	for _, u := range users {
		store[u.ID] = u
	}
	return auth.NewMiddleware(cfg, tokens, store, zap.NewNop()), tokens
}

func TestTokenManager_IssueAndValidate(t *testing.T) {
	tokens := newTokenManager(30)
	user := testAdmin(domain.AdminRoleEditor)

	token, err := tokens.Issue(user)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, tokens.TTL())

	userCtx, err := tokens.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userCtx.UserID)
	assert.Equal(t, "editor@example.com", userCtx.Email)
	assert.Equal(t, "Erin Editor", userCtx.DisplayName)
	assert.Equal(t, domain.AdminRoleEditor, userCtx.Role)
	assert.Equal(t, auth.MethodJWT, userCtx.Method)
}

func TestTokenManager_RejectsForeignSecret(t *testing.T) {
	other := auth.NewTokenManager(&config.AuthConfig{JWTSecret: "another-secret", Issuer: "lawdir-test", TokenTTL: 5})
	token, err := other.Issue(testAdmin(domain.AdminRoleAdmin))
	require.NoError(t, err)

	_, err = newTokenManager(5).ValidateToken(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestTokenManager_RejectsExpiredToken(t *testing.T) {
	user := testAdmin(domain.AdminRoleAdmin)
	claims := &auth.Claims{
		Email: user.Email,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			Issuer:    "lawdir-test",
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = newTokenManager(5).ValidateToken(token)
	assert.ErrorIs(t, err, auth.ErrExpiredToken)
}

func TestTokenManager_RejectsServiceRoleInToken(t *testing.T) {
	token, err := newTokenManager(5).Issue(testAdmin(domain.AdminRoleService))
	require.NoError(t, err)

	_, err = newTokenManager(5).ValidateToken(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestTokenManager_RejectsNoneAlgorithm(t *testing.T) {
	claims := jwt.RegisteredClaims{Subject: uuid.NewString(), ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = newTokenManager(5).ValidateToken(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestPassword_HashAndCheck(t *testing.T) {
	hash, err := auth.HashPassword("correct horse battery")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery", hash)

	assert.True(t, auth.CheckPassword(hash, "correct horse battery"))
	assert.False(t, auth.CheckPassword(hash, "wrong password"))
	assert.False(t, auth.CheckPassword("not-a-hash", "correct horse battery"))
}

func TestUserContext_Roles(t *testing.T) {
	tests := []struct {
		name    string
		role    domain.AdminRole
		isAdmin bool
	}{
		{name: "admin", role: domain.AdminRoleAdmin, isAdmin: true},
		{name: "editor", role: domain.AdminRoleEditor, isAdmin: false},
		{name: "api key", role: domain.AdminRoleService, isAdmin: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userCtx := &auth.UserContext{Role: tt.role}
			assert.Equal(t, tt.isAdmin, userCtx.IsAdmin())
			assert.True(t, userCtx.HasRole(tt.role))
		})
	}
}

func TestActor(t *testing.T) {
	id, name := auth.Actor(context.Background())
	assert.Equal(t, auth.SystemUserID.String(), id)
	assert.Equal(t, "system", name)

	userID := uuid.New()
	ctx := auth.WithUserContext(context.Background(), &auth.UserContext{UserID: userID, DisplayName: "Ada"})
	id, name = auth.Actor(ctx)
	assert.Equal(t, userID.String(), id)
	assert.Equal(t, "Ada", name)

	sysCtx := auth.SystemContext(context.Background(), "premium-expiry")
	u, ok := auth.FromContext(sysCtx)
	require.True(t, ok)
	assert.True(t, u.IsSystem())
	assert.Equal(t, "premium-expiry", u.DisplayName)
}

func TestMiddleware_Authenticate(t *testing.T) {
	editor := testAdmin(domain.AdminRoleEditor)
	middleware, tokens := createTestMiddleware("test-api-key-12345", editor)
	validToken, err := tokens.Issue(editor)
	require.NoError(t, err)
	unknownToken, err := tokens.Issue(testAdmin(domain.AdminRoleAdmin))
	require.NoError(t, err)

	tests := []struct {
		name       string
		headers    map[string]string
		wantStatus int
		wantRole   domain.AdminRole
	}{
		{
			name:       "valid api key",
			headers:    map[string]string{"X-API-Key": "test-api-key-12345"},
			wantStatus: http.StatusOK,
			wantRole:   domain.AdminRoleService,
		},
		{
			name:       "invalid api key",
			headers:    map[string]string{"X-API-Key": "wrong"},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "valid bearer token",
			headers:    map[string]string{"Authorization": "Bearer " + validToken},
			wantStatus: http.StatusOK,
			wantRole:   domain.AdminRoleEditor,
		},
		{
			name:       "lowercase bearer scheme",
			headers:    map[string]string{"Authorization": "bearer " + validToken},
			wantStatus: http.StatusOK,
			wantRole:   domain.AdminRoleEditor,
		},
		{
			name:       "garbage token",
			headers:    map[string]string{"Authorization": "Bearer not.a.token"},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "basic auth scheme",
			headers:    map[string]string{"Authorization": "Basic dXNlcjpwYXNz"},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "token for unknown user",
			headers:    map[string]string{"Authorization": "Bearer " + unknownToken},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "no credentials",
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var captured *auth.UserContext
			handler := middleware.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				captured, _ = auth.FromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/firms", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				require.NotNil(t, captured)
				assert.Equal(t, tt.wantRole, captured.Role)
			} else {
				assert.Nil(t, captured)
				assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
			}
		})
	}
}

func TestMiddleware_UsesCurrentUserRow(t *testing.T) {
	user := testAdmin(domain.AdminRoleEditor)
	middleware, tokens := createTestMiddleware("", user)
	token, err := tokens.Issue(user)
	require.NoError(t, err)

	var captured *auth.UserContext
	handler := middleware.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = auth.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	serve := func() int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/firms", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	user.Role = domain.AdminRoleAdmin
	require.Equal(t, http.StatusOK, serve())
	assert.Equal(t, domain.AdminRoleAdmin, captured.Role)

	user.IsActive = false
	captured = nil
	assert.Equal(t, http.StatusUnauthorized, serve())
	assert.Nil(t, captured)
}

func TestMiddleware_RequireAdmin(t *testing.T) {
	middleware, _ := createTestMiddleware("key")

	tests := []struct {
		name       string
		user       *auth.UserContext
		wantStatus int
	}{
		{name: "no user", user: nil, wantStatus: http.StatusUnauthorized},
		{name: "editor", user: &auth.UserContext{Role: domain.AdminRoleEditor}, wantStatus: http.StatusForbidden},
		{name: "admin", user: &auth.UserContext{Role: domain.AdminRoleAdmin}, wantStatus: http.StatusOK},
		{name: "api key", user: &auth.UserContext{Role: domain.AdminRoleService}, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := middleware.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/admin-users", nil)
			if tt.user != nil {
				req = req.WithContext(auth.WithUserContext(req.Context(), tt.user))
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}
