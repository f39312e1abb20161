package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lawdir/directory-api/internal/config"
	"github.com/lawdir/directory-api/internal/http/middleware"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func preflight(t *testing.T, cfg *config.CORSConfig, environment, origin string) *httptest.ResponseRecorder {
	t.Helper()
	handler := middleware.CORS(cfg, environment, zap.NewNop())(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/firms", nil)
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func corsConfig(origins ...string) *config.CORSConfig {
	return &config.CORSConfig{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-API-Key"},
		ExposedHeaders: []string{"Location", "X-Request-ID"},
		MaxAge:         300,
	}
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name        string
		origins     []string
		environment string
		origin      string
		allowed     bool
	}{
		{"development allows any origin", nil, "development", "http://localhost:3000", true},
		{"explicit origin allowed", []string{"https://admin.lawdir.example"}, "production", "https://admin.lawdir.example", true},
		{"explicit list rejects others", []string{"https://admin.lawdir.example"}, "production", "https://evil.example", false},
		{"production without origins denies", nil, "production", "https://admin.lawdir.example", false},
		{"wildcard allows any origin", []string{"*"}, "production", "https://anywhere.example", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := preflight(t, corsConfig(tt.origins...), tt.environment, tt.origin)
			if tt.allowed {
				assert.Equal(t, tt.origin, w.Header().Get("Access-Control-Allow-Origin"))
			} else {
				assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
			}
		})
	}
}
