package auth

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lawdir/directory-api/internal/config"
	"github.com/lawdir/directory-api/internal/domain"
	"go.uber.org/zap"
)

// APIKeyHeader carries the service API key
const APIKeyHeader = "X-API-Key"

// UserStore loads the admin user a token was issued to
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.AdminUser, error)
}

// Middleware handles authentication for HTTP requests
type Middleware struct {
	tokens *TokenManager
	users  UserStore
	apiKey string
	logger *zap.Logger
}

// NewMiddleware creates a new authentication middleware. Every bearer token is
// checked against the user row, so deactivation and role changes apply to
// tokens that were issued earlier.
func NewMiddleware(cfg *config.Config, tokens *TokenManager, users UserStore, logger *zap.Logger) *Middleware {
	return &Middleware{
		tokens: tokens,
		users:  users,
		apiKey: cfg.ApiKey.Value,
		logger: logger,
	}
}

// Authenticate is the main authentication middleware
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Try API key first
		if apiKey := r.Header.Get(APIKeyHeader); apiKey != "" {
			if !m.validateAPIKey(apiKey) {
				m.logger.Warn("invalid API key attempt",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeError(w, http.StatusUnauthorized, "invalid API key")
				return
			}

			userCtx := apiKeyUser()
			m.logger.Info("request authenticated",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("auth_type", MethodAPIKey),
				zap.Duration("auth_duration", time.Since(start)),
			)
			next.ServeHTTP(w, r.WithContext(WithUserContext(r.Context(), userCtx)))
			return
		}

		token, ok := bearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing or malformed authorization header")
			return
		}

		userCtx, err := m.tokens.ValidateToken(token)
		if err != nil {
			m.logger.Warn("token validation failed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
				zap.Error(err),
			)
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}

		user, err := m.users.GetByID(r.Context(), userCtx.UserID)
		if err != nil || user == nil || !user.IsActive {
			m.logger.Warn("token rejected for missing or inactive user",
				zap.String("path", r.URL.Path),
				zap.String("user_id", userCtx.UserID.String()),
				zap.Error(err),
			)
			writeError(w, http.StatusUnauthorized, "user account is inactive")
			return
		}
		userCtx.Role = user.Role
		userCtx.Email = user.Email
		userCtx.DisplayName = user.DisplayName

		m.logger.Debug("request authenticated",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("auth_type", MethodJWT),
			zap.String("user_id", userCtx.UserID.String()),
			zap.String("user_email", userCtx.Email),
			zap.String("role", string(userCtx.Role)),
			zap.Duration("auth_duration", time.Since(start)),
		)

		next.ServeHTTP(w, r.WithContext(WithUserContext(r.Context(), userCtx)))
	})
}

// RequireRole middleware ensures user has one of the roles. API key callers always pass.
func (m *Middleware) RequireRole(roles ...domain.AdminRole) func(http.Handler) http.Handler {
	allowed := make([]domain.AdminRole, 0, len(roles)+1)
	allowed = append(allowed, roles...)
	allowed = append(allowed, domain.AdminRoleService)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userCtx, ok := FromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			if !userCtx.HasRole(allowed...) {
				writeError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin middleware ensures user has admin role or valid API key
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return m.RequireRole(domain.AdminRoleAdmin)(next)
}

func (m *Middleware) validateAPIKey(key string) bool {
	if m.apiKey == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(key), []byte(m.apiKey)) == 1
}

func apiKeyUser() *UserContext {
	return &UserContext{
		UserID:      SystemUserID,
		DisplayName: "API key",
		Email:       "",
		Role:        domain.AdminRoleService,
		Method:      MethodAPIKey,
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

func writeError(w http.ResponseWriter, status int, detail string) {
	errType := domain.ErrorTypeUnauthorized
	title := "Unauthorized"
	if status == http.StatusForbidden {
		errType = domain.ErrorTypeForbidden
		title = "Forbidden"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(domain.APIError{
		Type:   errType,
		Title:  title,
		Status: status,
		Detail: detail,
	})
}
