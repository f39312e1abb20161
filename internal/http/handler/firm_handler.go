package handler

import (
	"net/http"
	"strconv"

	"github.com/lawdir/directory-api/internal/domain"
	"github.com/lawdir/directory-api/internal/service"
	"go.uber.org/zap"
)

type FirmHandler struct {
	firmService     *service.FirmService
	maxUploadSizeMB int64
	logger          *zap.Logger
}

func NewFirmHandler(firmService *service.FirmService, maxUploadSizeMB int64, logger *zap.Logger) *FirmHandler {
	return &FirmHandler{
		firmService:     firmService,
		maxUploadSizeMB: maxUploadSizeMB,
		logger:          logger,
	}
}

// List godoc
// @Summary List firms
// @Description Paginated firm list for the admin dashboard, including inactive firms
// @Tags Firms
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param q query string false "Search by name or description"
// @Param state query string false "State slug or code"
// @Param city query string false "City slug"
// @Param practiceArea query string false "Practice area slug"
// @Param status query string false "Filter by status" Enums(active, inactive)
// @Param minTier query int false "Minimum tier"
// @Param premiumOnly query bool false "Only premium listings"
// @Param sortBy query string false "Sort field; omit for listing order" Enums(name, tier, createdAt, updatedAt)
// @Param sortOrder query string false "Sort order" Enums(asc, desc)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.FirmDTO}
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /firms [get]
func (h *FirmHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, pageSize := pagination(r)
	params := service.FirmListParams{
		Query:        q.Get("q"),
		State:        q.Get("state"),
		City:         q.Get("city"),
		PracticeArea: q.Get("practiceArea"),
		PremiumOnly:  queryBool(r, "premiumOnly"),
		Page:         page,
		PageSize:     pageSize,
	}

	if status := q.Get("status"); status != "" {
		s := domain.FirmStatus(status)
		if !s.IsValid() {
			respondWithError(w, http.StatusBadRequest, "Invalid status")
			return
		}
		params.Status = &s
	}
	if raw := q.Get("minTier"); raw != "" {
		tier, err := strconv.Atoi(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid minTier")
			return
		}
		params.MinTier = tier
	}
	// without sortBy the admin list mirrors the public listing order
	if q.Get("sortBy") != "" {
		sort := sortParams(r)
		params.Sort = &sort
	}

	result, err := h.firmService.List(r.Context(), params)
	if err != nil {
		respondServiceError(w, h.logger, err, "list firms")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// GetByID godoc
// @Summary Get firm
// @Tags Firms
// @Produce json
// @Param id path string true "Firm ID"
// @Success 200 {object} domain.FirmDetailDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /firms/{id} [get]
func (h *FirmHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	firm, err := h.firmService.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "get firm")
		return
	}
	respondJSON(w, http.StatusOK, firm)
}

// Create godoc
// @Summary Create firm
// @Description The slug is derived from the name and made unique
// @Tags Firms
// @Accept json
// @Produce json
// @Param firm body domain.CreateFirmRequest true "Firm data"
// @Success 201 {object} domain.FirmDTO
// @Failure 400 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /firms [post]
func (h *FirmHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateFirmRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	firm, err := h.firmService.Create(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "create firm")
		return
	}
	w.Header().Set("Location", "/api/v1/firms/"+firm.ID.String())
	respondJSON(w, http.StatusCreated, firm)
}

// Update godoc
// @Summary Update firm
// @Description Omitting practiceAreaIds keeps the current practice areas
// @Tags Firms
// @Accept json
// @Produce json
// @Param id path string true "Firm ID"
// @Param firm body domain.UpdateFirmRequest true "Firm data"
// @Success 200 {object} domain.FirmDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /firms/{id} [put]
func (h *FirmHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req domain.UpdateFirmRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	firm, err := h.firmService.Update(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "update firm")
		return
	}
	respondJSON(w, http.StatusOK, firm)
}

// UpdateListing godoc
// @Summary Update firm listing placement
// @Description Sets the tier and premium placement used for listing order
// @Tags Firms
// @Accept json
// @Produce json
// @Param id path string true "Firm ID"
// @Param listing body domain.UpdateFirmListingRequest true "Listing placement"
// @Success 200 {object} domain.FirmDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /firms/{id}/listing [put]
func (h *FirmHandler) UpdateListing(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req domain.UpdateFirmListingRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	firm, err := h.firmService.UpdateListing(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "update firm listing")
		return
	}
	respondJSON(w, http.StatusOK, firm)
}

// SetPracticeAreas godoc
// @Summary Replace firm practice areas
// @Tags Firms
// @Accept json
// @Produce json
// @Param id path string true "Firm ID"
// @Param practiceAreas body domain.SetPracticeAreasRequest true "Practice area IDs"
// @Success 200 {object} domain.FirmDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /firms/{id}/practice-areas [put]
func (h *FirmHandler) SetPracticeAreas(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req domain.SetPracticeAreasRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	firm, err := h.firmService.SetPracticeAreas(r.Context(), id, req.PracticeAreaIDs)
	if err != nil {
		respondServiceError(w, h.logger, err, "set firm practice areas")
		return
	}
	respondJSON(w, http.StatusOK, firm)
}

// UploadLogo godoc
// @Summary Upload firm logo
// @Description Accepts png, jpeg, webp or gif. Replaces any previous logo.
// @Tags Firms
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Firm ID"
// @Param file formData file true "Logo image"
// @Success 200 {object} domain.FirmDTO
// @Failure 400 {object} domain.APIError
// @Failure 413 {object} domain.APIError
// @Failure 415 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /firms/{id}/logo [post]
func (h *FirmHandler) UploadLogo(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	upload, ok := readUpload(w, r, "file", h.maxUploadSizeMB)
	if !ok {
		return
	}
	defer upload.Close()

	firm, err := h.firmService.UploadLogo(r.Context(), id, upload.filename, upload.contentType, upload)
	if err != nil {
		respondServiceError(w, h.logger, err, "upload firm logo")
		return
	}
	respondJSON(w, http.StatusOK, firm)
}

// Delete godoc
// @Summary Delete firm
// @Description Removes the firm with its offices, lawyers and practice area links
// @Tags Firms
// @Param id path string true "Firm ID"
// @Success 204
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /firms/{id} [delete]
func (h *FirmHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.firmService.Delete(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err, "delete firm")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
