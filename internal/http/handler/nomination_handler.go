package handler

import (
	"net/http"

	"github.com/lawdir/directory-api/internal/domain"
	"github.com/lawdir/directory-api/internal/service"
	"go.uber.org/zap"
)

type NominationHandler struct {
	nominationService *service.NominationService
	logger            *zap.Logger
}

func NewNominationHandler(nominationService *service.NominationService, logger *zap.Logger) *NominationHandler {
	return &NominationHandler{
		nominationService: nominationService,
		logger:            logger,
	}
}

// Submit godoc
// @Summary Nominate a firm
// @Description Public nomination form. The website2 field must be left empty.
// @Tags Nominations
// @Accept json
// @Produce json
// @Param nomination body domain.SubmitNominationRequest true "Nomination"
// @Success 201 {object} domain.NominationDTO
// @Failure 400 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Failure 429 {object} domain.APIError
// @Router /nominations [post]
func (h *NominationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req domain.SubmitNominationRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	nomination, err := h.nominationService.Submit(r.Context(), &req, service.ClientIP(r))
	if err != nil {
		respondServiceError(w, h.logger, err, "submit nomination")
		return
	}
	respondJSON(w, http.StatusCreated, nomination)
}

// List godoc
// @Summary List nominations
// @Tags Nominations
// @Produce json
// @Param status query string false "Filter by status" Enums(pending, approved, rejected)
// @Param search query string false "Search firm or nominator"
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.NominationDTO}
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /admin/nominations [get]
func (h *NominationHandler) List(w http.ResponseWriter, r *http.Request) {
	var status *domain.NominationStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := domain.NominationStatus(raw)
		status = &s
	}
	page, pageSize := pagination(r)
	result, err := h.nominationService.List(r.Context(), status, r.URL.Query().Get("search"), page, pageSize)
	if err != nil {
		respondServiceError(w, h.logger, err, "list nominations")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// GetByID godoc
// @Summary Get nomination
// @Tags Nominations
// @Produce json
// @Param id path string true "Nomination ID"
// @Success 200 {object} domain.NominationDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /admin/nominations/{id} [get]
func (h *NominationHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	nomination, err := h.nominationService.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "get nomination")
		return
	}
	respondJSON(w, http.StatusOK, nomination)
}

// Approve godoc
// @Summary Approve nomination
// @Description Creates the firm with its state, city, headquarters office and practice areas, or links an existing firm
// @Tags Nominations
// @Accept json
// @Produce json
// @Param id path string true "Nomination ID"
// @Param approval body domain.ApproveNominationRequest true "Approval options"
// @Success 200 {object} domain.NominationDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /admin/nominations/{id}/approve [post]
func (h *NominationHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req domain.ApproveNominationRequest
	if r.ContentLength != 0 {
		if !decodeAndValidate(w, r, &req) {
			return
		}
	}
	nomination, err := h.nominationService.Approve(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "approve nomination")
		return
	}
	respondJSON(w, http.StatusOK, nomination)
}

// Reject godoc
// @Summary Reject nomination
// @Tags Nominations
// @Accept json
// @Produce json
// @Param id path string true "Nomination ID"
// @Param rejection body domain.RejectNominationRequest true "Review notes"
// @Success 200 {object} domain.NominationDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /admin/nominations/{id}/reject [post]
func (h *NominationHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req domain.RejectNominationRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	nomination, err := h.nominationService.Reject(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "reject nomination")
		return
	}
	respondJSON(w, http.StatusOK, nomination)
}
