package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/lawdir/directory-api/internal/auth"
	"github.com/lawdir/directory-api/internal/config"
	"github.com/lawdir/directory-api/internal/domain"
	"github.com/lawdir/directory-api/internal/http/middleware"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func send(handler http.Handler, method, path, remoteAddr string, setup ...func(*http.Request)) int {
	req := httptest.NewRequest(method, path, nil)
	req.RemoteAddr = remoteAddr
	for _, fn := range setup {
		fn(req)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimiter_Disabled(t *testing.T) {
	rl := middleware.NewRateLimiter(&config.RateLimitConfig{Enabled: false, RequestsPerMinute: 1, LoginsPerMinute: 1}, zap.NewNop())
	handler := rl.LimitByIP(rl.LimitLogin(okHandler()))

	for i := 0; i < 20; i++ {
		assert.Equal(t, http.StatusOK, send(handler, http.MethodGet, "/", "192.0.2.1:1000"))
	}
}

func TestRateLimiter_LimitByIP(t *testing.T) {
	rl := middleware.NewRateLimiter(&config.RateLimitConfig{Enabled: true, RequestsPerMinute: 2}, zap.NewNop())
	handler := rl.LimitByIP(okHandler())

	assert.Equal(t, http.StatusOK, send(handler, http.MethodGet, "/", "192.0.2.1:1000"))
	assert.Equal(t, http.StatusOK, send(handler, http.MethodGet, "/", "192.0.2.1:1001"))
	assert.Equal(t, http.StatusTooManyRequests, send(handler, http.MethodGet, "/", "192.0.2.1:1002"))

	// another client has its own budget
	assert.Equal(t, http.StatusOK, send(handler, http.MethodGet, "/", "192.0.2.2:1000"))
}

func TestRateLimiter_ForwardedForIsTheClient(t *testing.T) {
	rl := middleware.NewRateLimiter(&config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1}, zap.NewNop())
	handler := rl.LimitByIP(okHandler())
	from := func(ip string) func(*http.Request) {
		return func(r *http.Request) { r.Header.Set("X-Forwarded-For", ip+", 10.0.0.1") }
	}

	assert.Equal(t, http.StatusOK, send(handler, http.MethodGet, "/", "10.0.0.1:80", from("198.51.100.7")))
	assert.Equal(t, http.StatusOK, send(handler, http.MethodGet, "/", "10.0.0.1:80", from("198.51.100.8")))
	assert.Equal(t, http.StatusTooManyRequests, send(handler, http.MethodGet, "/", "10.0.0.1:80", from("198.51.100.7")))
}

func TestRateLimiter_Whitelists(t *testing.T) {
	rl := middleware.NewRateLimiter(&config.RateLimitConfig{
		Enabled:           true,
		RequestsPerMinute: 1,
		WhitelistIPs:      []string{"127.0.0.1"},
		WhitelistPaths:    []string{"/health", "/media/*"},
	}, zap.NewNop())
	handler := rl.LimitByIP(okHandler())

	for i := 0; i < 10; i++ {
		assert.Equal(t, http.StatusOK, send(handler, http.MethodGet, "/api/v1/directory/states", "127.0.0.1:5000"))
		assert.Equal(t, http.StatusOK, send(handler, http.MethodGet, "/health", "192.0.2.9:5000"))
		assert.Equal(t, http.StatusOK, send(handler, http.MethodGet, "/media/logos/a.png", "192.0.2.9:5000"))
	}
}

func TestRateLimiter_NominationsHaveTheirOwnBucket(t *testing.T) {
	rl := middleware.NewRateLimiter(&config.RateLimitConfig{
		Enabled:            true,
		RequestsPerMinute:  100,
		NominationsPerHour: 2,
	}, zap.NewNop())
	browse := rl.LimitByIP(okHandler())
	nominate := rl.LimitByIP(rl.LimitNominations(okHandler()))

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, send(browse, http.MethodGet, "/api/v1/directory/states", "192.0.2.3:1"))
	}
	assert.Equal(t, http.StatusOK, send(nominate, http.MethodPost, "/api/v1/nominations", "192.0.2.3:1"))
	assert.Equal(t, http.StatusOK, send(nominate, http.MethodPost, "/api/v1/nominations", "192.0.2.3:1"))
	assert.Equal(t, http.StatusTooManyRequests, send(nominate, http.MethodPost, "/api/v1/nominations", "192.0.2.3:1"))
	assert.Equal(t, http.StatusOK, send(browse, http.MethodGet, "/api/v1/directory/states", "192.0.2.3:1"))
}

func TestRateLimiter_AuthenticatedUsersAreKeyedByUser(t *testing.T) {
	rl := middleware.NewRateLimiter(&config.RateLimitConfig{
		Enabled:               true,
		RequestsPerMinute:     1,
		RequestsPerMinuteAuth: 3,
	}, zap.NewNop())
	handler := rl.Limit(okHandler())

	asUser := func(id uuid.UUID) func(*http.Request) {
		return func(r *http.Request) {
			*r = *r.WithContext(auth.WithUserContext(r.Context(), &auth.UserContext{UserID: id, Role: domain.AdminRoleEditor}))
		}
	}
	alice, bob := uuid.New(), uuid.New()

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, send(handler, http.MethodGet, "/api/v1/firms", "192.0.2.4:1", asUser(alice)))
	}
	assert.Equal(t, http.StatusTooManyRequests, send(handler, http.MethodGet, "/api/v1/firms", "192.0.2.4:1", asUser(alice)))
	assert.Equal(t, http.StatusOK, send(handler, http.MethodGet, "/api/v1/firms", "192.0.2.4:1", asUser(bob)))
}
