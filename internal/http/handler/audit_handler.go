package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/lawdir/directory-api/internal/domain"
	"github.com/lawdir/directory-api/internal/service"
	"go.uber.org/zap"
)

// AuditHandler handles audit log related HTTP requests
type AuditHandler struct {
	auditService *service.AuditLogService
	logger       *zap.Logger
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(auditService *service.AuditLogService, logger *zap.Logger) *AuditHandler {
	return &AuditHandler{
		auditService: auditService,
		logger:       logger,
	}
}

// List godoc
// @Summary List audit logs
// @Description Returns a paginated list of audit log entries with optional filters
// @Tags Audit
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param userId query string false "Filter by user ID"
// @Param action query string false "Filter by action type" Enums(create, update, delete)
// @Param entityType query string false "Filter by entity type"
// @Param entityId query string false "Filter by entity ID"
// @Param startTime query string false "Filter by start time (RFC3339)"
// @Param endTime query string false "Filter by end time (RFC3339)"
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.AuditLogDTO}
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /audit [get]
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, pageSize := pagination(r)
	params := service.AuditLogQueryParams{
		UserID:     q.Get("userId"),
		EntityType: q.Get("entityType"),
		Page:       page,
		PageSize:   pageSize,
	}

	if actionStr := q.Get("action"); actionStr != "" {
		action := domain.AuditAction(actionStr)
		params.Action = &action
	}

	entityID, err := optionalUUIDQuery(r, "entityId")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	params.EntityID = entityID

	if params.StartTime, err = optionalTimeQuery(r, "startTime"); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid startTime format")
		return
	}
	if params.EndTime, err = optionalTimeQuery(r, "endTime"); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid endTime format")
		return
	}

	result, err := h.auditService.List(r.Context(), params)
	if err != nil {
		respondServiceError(w, h.logger, err, "list audit logs")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// GetByID godoc
// @Summary Get audit log by ID
// @Description Returns a specific audit log entry
// @Tags Audit
// @Produce json
// @Param id path string true "Audit log ID"
// @Success 200 {object} domain.AuditLogDTO
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /audit/{id} [get]
func (h *AuditHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	entry, err := h.auditService.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "get audit log")
		return
	}
	respondJSON(w, http.StatusOK, entry)
}

// GetByEntity godoc
// @Summary Get audit logs for an entity
// @Description Returns the change history of one record, newest first
// @Tags Audit
// @Produce json
// @Param entityType path string true "Entity type (e.g., Firm, Nomination)"
// @Param entityId path string true "Entity ID"
// @Param limit query int false "Maximum number of entries" default(50)
// @Success 200 {array} domain.AuditLogDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /audit/entity/{entityType}/{entityId} [get]
func (h *AuditHandler) GetByEntity(w http.ResponseWriter, r *http.Request) {
	entityType := chi.URLParam(r, "entityType")
	entityID, err := uuid.Parse(chi.URLParam(r, "entityId"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid entity ID")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	logs, err := h.auditService.GetByEntity(r.Context(), entityType, entityID, limit)
	if err != nil {
		respondServiceError(w, h.logger, err, "get entity audit logs")
		return
	}
	respondJSON(w, http.StatusOK, logs)
}

func optionalTimeQuery(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
