package handler

import (
	"net/http"

	"github.com/lawdir/directory-api/internal/domain"
	"github.com/lawdir/directory-api/internal/service"
	"go.uber.org/zap"
)

type LawyerHandler struct {
	lawyerService   *service.LawyerService
	maxUploadSizeMB int64
	logger          *zap.Logger
}

func NewLawyerHandler(lawyerService *service.LawyerService, maxUploadSizeMB int64, logger *zap.Logger) *LawyerHandler {
	return &LawyerHandler{
		lawyerService:   lawyerService,
		maxUploadSizeMB: maxUploadSizeMB,
		logger:          logger,
	}
}

// List godoc
// @Summary List lawyers
// @Description Paginated lawyer list across all firms
// @Tags Lawyers
// @Produce json
// @Param firmId query string false "Filter by firm"
// @Param search query string false "Search by name"
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param sortBy query string false "Sort field" Enums(lastName, firstName, createdAt, updatedAt)
// @Param sortOrder query string false "Sort order" Enums(asc, desc)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.LawyerDTO}
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /lawyers [get]
func (h *LawyerHandler) List(w http.ResponseWriter, r *http.Request) {
	firmID, err := optionalUUIDQuery(r, "firmId")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	page, pageSize := pagination(r)
	result, err := h.lawyerService.List(r.Context(), service.LawyerListParams{
		FirmID:   firmID,
		Search:   r.URL.Query().Get("search"),
		Sort:     sortParams(r),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		respondServiceError(w, h.logger, err, "list lawyers")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// ListByFirm godoc
// @Summary List firm lawyers
// @Tags Lawyers
// @Produce json
// @Param firmId path string true "Firm ID"
// @Success 200 {array} domain.LawyerDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /firms/{firmId}/lawyers [get]
func (h *LawyerHandler) ListByFirm(w http.ResponseWriter, r *http.Request) {
	firmID, ok := uuidParam(w, r, "firmId")
	if !ok {
		return
	}
	lawyers, err := h.lawyerService.ListByFirm(r.Context(), firmID)
	if err != nil {
		respondServiceError(w, h.logger, err, "list lawyers")
		return
	}
	respondJSON(w, http.StatusOK, lawyers)
}

// GetByID godoc
// @Summary Get lawyer
// @Tags Lawyers
// @Produce json
// @Param firmId path string true "Firm ID"
// @Param id path string true "Lawyer ID"
// @Success 200 {object} domain.LawyerDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /firms/{firmId}/lawyers/{id} [get]
func (h *LawyerHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	firmID, ok := uuidParam(w, r, "firmId")
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	lawyer, err := h.lawyerService.GetByID(r.Context(), firmID, id)
	if err != nil {
		respondServiceError(w, h.logger, err, "get lawyer")
		return
	}
	respondJSON(w, http.StatusOK, lawyer)
}

// Create godoc
// @Summary Create lawyer
// @Tags Lawyers
// @Accept json
// @Produce json
// @Param firmId path string true "Firm ID"
// @Param lawyer body domain.CreateLawyerRequest true "Lawyer data"
// @Success 201 {object} domain.LawyerDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /firms/{firmId}/lawyers [post]
func (h *LawyerHandler) Create(w http.ResponseWriter, r *http.Request) {
	firmID, ok := uuidParam(w, r, "firmId")
	if !ok {
		return
	}
	var req domain.CreateLawyerRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	lawyer, err := h.lawyerService.Create(r.Context(), firmID, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "create lawyer")
		return
	}
	respondJSON(w, http.StatusCreated, lawyer)
}

// Update godoc
// @Summary Update lawyer
// @Tags Lawyers
// @Accept json
// @Produce json
// @Param firmId path string true "Firm ID"
// @Param id path string true "Lawyer ID"
// @Param lawyer body domain.UpdateLawyerRequest true "Lawyer data"
// @Success 200 {object} domain.LawyerDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /firms/{firmId}/lawyers/{id} [put]
func (h *LawyerHandler) Update(w http.ResponseWriter, r *http.Request) {
	firmID, ok := uuidParam(w, r, "firmId")
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req domain.UpdateLawyerRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	lawyer, err := h.lawyerService.Update(r.Context(), firmID, id, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "update lawyer")
		return
	}
	respondJSON(w, http.StatusOK, lawyer)
}

// UploadPhoto godoc
// @Summary Upload lawyer photo
// @Tags Lawyers
// @Accept multipart/form-data
// @Produce json
// @Param firmId path string true "Firm ID"
// @Param id path string true "Lawyer ID"
// @Param file formData file true "Photo"
// @Success 200 {object} domain.LawyerDTO
// @Failure 400 {object} domain.APIError
// @Failure 413 {object} domain.APIError
// @Failure 415 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /firms/{firmId}/lawyers/{id}/photo [post]
func (h *LawyerHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	firmID, ok := uuidParam(w, r, "firmId")
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	upload, ok := readUpload(w, r, "file", h.maxUploadSizeMB)
	if !ok {
		return
	}
	defer upload.Close()

	lawyer, err := h.lawyerService.UploadPhoto(r.Context(), firmID, id, upload.filename, upload.contentType, upload)
	if err != nil {
		respondServiceError(w, h.logger, err, "upload lawyer photo")
		return
	}
	respondJSON(w, http.StatusOK, lawyer)
}

// Delete godoc
// @Summary Delete lawyer
// @Tags Lawyers
// @Param firmId path string true "Firm ID"
// @Param id path string true "Lawyer ID"
// @Success 204
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /firms/{firmId}/lawyers/{id} [delete]
func (h *LawyerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	firmID, ok := uuidParam(w, r, "firmId")
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.lawyerService.Delete(r.Context(), firmID, id); err != nil {
		respondServiceError(w, h.logger, err, "delete lawyer")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
