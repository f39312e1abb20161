package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/lawdir/directory-api/internal/domain"
	"github.com/lawdir/directory-api/internal/service"
	"go.uber.org/zap"
)

// maxAuditBody caps how much of a JSON request body is copied into the audit row
const maxAuditBody = 64 << 10

// AuditConfig holds configuration for audit middleware
type AuditConfig struct {
	// SkipPaths contains path prefixes that should not be audited
	SkipPaths []string
	// SkipMethods contains HTTP methods that should not be audited
	SkipMethods []string
	// AuditReads enables auditing of GET requests
	AuditReads bool
}

// DefaultAuditConfig returns default audit configuration
func DefaultAuditConfig() *AuditConfig {
	return &AuditConfig{
		SkipPaths: []string{
			"/health",
			"/swagger",
			"/media",
			"/api/v1/auth",
		},
		SkipMethods: []string{
			http.MethodOptions,
			http.MethodHead,
		},
	}
}

// sensitiveFields never reach the audit table
var sensitiveFields = []string{
	"password", "currentPassword", "newPassword",
	"secret", "token", "apiKey", "website2",
}

// entityTypes maps route segments to audited entity names
var entityTypes = map[string]string{
	"firms":          "Firm",
	"offices":        "Office",
	"lawyers":        "Lawyer",
	"practice-areas": "PracticeArea",
	"states":         "State",
	"metros":         "Metro",
	"cities":         "City",
	"nominations":    "Nomination",
	"imports":        "ImportRun",
	"pages":          "Page",
	"posts":          "BlogPost",
	"users":          "AdminUser",
}

// AuditMiddleware records successful admin writes in the audit log
type AuditMiddleware struct {
	auditService *service.AuditLogService
	config       *AuditConfig
	logger       *zap.Logger
	pending      sync.WaitGroup
}

// NewAuditMiddleware creates a new audit middleware
func NewAuditMiddleware(auditService *service.AuditLogService, config *AuditConfig, logger *zap.Logger) *AuditMiddleware {
	if config == nil {
		config = DefaultAuditConfig()
	}
	return &AuditMiddleware{
		auditService: auditService,
		config:       config,
		logger:       logger,
	}
}

// Audit returns middleware that logs modifications to the audit log
func (m *AuditMiddleware) Audit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.shouldAudit(r) {
			next.ServeHTTP(w, r)
			return
		}

		// Multipart uploads are not copied; the handler streams them
		var requestBody []byte
		if r.Body != nil && isJSON(r) {
			requestBody, _ = io.ReadAll(io.LimitReader(r.Body, maxAuditBody+1))
			rest := r.Body
			r.Body = struct {
				io.Reader
				io.Closer
			}{io.MultiReader(bytes.NewReader(requestBody), rest), rest}
			if len(requestBody) > maxAuditBody {
				requestBody = nil
			}
		}

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		if rw.statusCode < 200 || rw.statusCode >= 300 {
			return
		}

		// The route pattern and params are only complete after routing
		entityType, entityID := m.extractEntityInfo(r)
		entry := service.LogEntry{
			Action:     methodToAction(r.Method),
			EntityType: entityType,
			EntityID:   entityID,
			Values:     scrubValues(requestBody),
		}
		req := r.Clone(context.WithoutCancel(r.Context()))

		m.pending.Add(1)
		go func() {
			defer m.pending.Done()
			m.logAudit(req.Context(), req, entry)
		}()
	})
}

// Wait blocks until queued audit writes have finished
func (m *AuditMiddleware) Wait() {
	m.pending.Wait()
}

func (m *AuditMiddleware) shouldAudit(r *http.Request) bool {
	if m.auditService == nil {
		return false
	}
	for _, method := range m.config.SkipMethods {
		if r.Method == method {
			return false
		}
	}
	if r.Method == http.MethodGet && !m.config.AuditReads {
		return false
	}
	for _, skipPath := range m.config.SkipPaths {
		if strings.HasPrefix(r.URL.Path, skipPath) {
			return false
		}
	}
	return methodToAction(r.Method) != ""
}

func (m *AuditMiddleware) logAudit(ctx context.Context, r *http.Request, entry service.LogEntry) {
	if err := m.auditService.Log(ctx, r, entry); err != nil {
		m.logger.Warn("failed to create audit log entry",
			zap.String("path", r.URL.Path),
			zap.String("method", r.Method),
			zap.Error(err))
	}
}

func methodToAction(method string) domain.AuditAction {
	switch method {
	case http.MethodPost:
		return domain.AuditActionCreate
	case http.MethodPut, http.MethodPatch:
		return domain.AuditActionUpdate
	case http.MethodDelete:
		return domain.AuditActionDelete
	default:
		return ""
	}
}

func (m *AuditMiddleware) extractEntityInfo(r *http.Request) (string, *uuid.UUID) {
	routeCtx := chi.RouteContext(r.Context())
	if routeCtx == nil {
		return entityFromPath(r.URL.Path), nil
	}

	// Creates under a parent route carry only the parent ID and stay unlinked
	var entityID *uuid.UUID
	if id, err := uuid.Parse(routeCtx.URLParam("id")); err == nil {
		entityID = &id
	}

	pattern := routeCtx.RoutePattern()
	if pattern == "" {
		pattern = r.URL.Path
	}
	entityType := entityFromPath(pattern)
	return entityType, entityID
}

// entityFromPath names the collection that owns {id}, falling back to the last
// known collection so /firms/{firmId}/offices is recorded as an Office
func entityFromPath(path string) string {
	entityType := "Unknown"
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i, part := range parts {
		if part == "{id}" && i > 0 {
			if t, ok := entityTypes[parts[i-1]]; ok {
				return t
			}
		}
		if t, ok := entityTypes[part]; ok {
			entityType = t
		}
	}
	return entityType
}

func isJSON(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}

func scrubValues(body []byte) interface{} {
	if len(body) == 0 {
		return nil
	}
	var parsed map[string]interface{}
	if json.Unmarshal(body, &parsed) != nil {
		return nil
	}
	for _, field := range sensitiveFields {
		delete(parsed, field)
	}
	return parsed
}
