package handler

import (
	"net/http"

	"github.com/lawdir/directory-api/internal/domain"
	"github.com/lawdir/directory-api/internal/service"
	"go.uber.org/zap"
)

// OfficeHandler manages offices nested under a firm
type OfficeHandler struct {
	officeService *service.OfficeService
	logger        *zap.Logger
}

func NewOfficeHandler(officeService *service.OfficeService, logger *zap.Logger) *OfficeHandler {
	return &OfficeHandler{
		officeService: officeService,
		logger:        logger,
	}
}

// List godoc
// @Summary List firm offices
// @Tags Offices
// @Produce json
// @Param firmId path string true "Firm ID"
// @Success 200 {array} domain.OfficeDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /firms/{firmId}/offices [get]
func (h *OfficeHandler) List(w http.ResponseWriter, r *http.Request) {
	firmID, ok := uuidParam(w, r, "firmId")
	if !ok {
		return
	}
	offices, err := h.officeService.ListByFirm(r.Context(), firmID)
	if err != nil {
		respondServiceError(w, h.logger, err, "list offices")
		return
	}
	respondJSON(w, http.StatusOK, offices)
}

// GetByID godoc
// @Summary Get office
// @Tags Offices
// @Produce json
// @Param firmId path string true "Firm ID"
// @Param id path string true "Office ID"
// @Success 200 {object} domain.OfficeDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /firms/{firmId}/offices/{id} [get]
func (h *OfficeHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	firmID, ok := uuidParam(w, r, "firmId")
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	office, err := h.officeService.GetByID(r.Context(), firmID, id)
	if err != nil {
		respondServiceError(w, h.logger, err, "get office")
		return
	}
	respondJSON(w, http.StatusOK, office)
}

// Create godoc
// @Summary Create office
// @Description The first office of a firm becomes its headquarters
// @Tags Offices
// @Accept json
// @Produce json
// @Param firmId path string true "Firm ID"
// @Param office body domain.CreateOfficeRequest true "Office data"
// @Success 201 {object} domain.OfficeDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /firms/{firmId}/offices [post]
func (h *OfficeHandler) Create(w http.ResponseWriter, r *http.Request) {
	firmID, ok := uuidParam(w, r, "firmId")
	if !ok {
		return
	}
	var req domain.CreateOfficeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	office, err := h.officeService.Create(r.Context(), firmID, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "create office")
		return
	}
	respondJSON(w, http.StatusCreated, office)
}

// Update godoc
// @Summary Update office
// @Tags Offices
// @Accept json
// @Produce json
// @Param firmId path string true "Firm ID"
// @Param id path string true "Office ID"
// @Param office body domain.UpdateOfficeRequest true "Office data"
// @Success 200 {object} domain.OfficeDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /firms/{firmId}/offices/{id} [put]
func (h *OfficeHandler) Update(w http.ResponseWriter, r *http.Request) {
	firmID, ok := uuidParam(w, r, "firmId")
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req domain.UpdateOfficeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	office, err := h.officeService.Update(r.Context(), firmID, id, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "update office")
		return
	}
	respondJSON(w, http.StatusOK, office)
}

// SetHeadquarters godoc
// @Summary Make office the headquarters
// @Description Clears the flag on every other office of the firm
// @Tags Offices
// @Produce json
// @Param firmId path string true "Firm ID"
// @Param id path string true "Office ID"
// @Success 200 {object} domain.OfficeDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /firms/{firmId}/offices/{id}/headquarters [post]
func (h *OfficeHandler) SetHeadquarters(w http.ResponseWriter, r *http.Request) {
	firmID, ok := uuidParam(w, r, "firmId")
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	office, err := h.officeService.SetHeadquarters(r.Context(), firmID, id)
	if err != nil {
		respondServiceError(w, h.logger, err, "set headquarters")
		return
	}
	respondJSON(w, http.StatusOK, office)
}

// Delete godoc
// @Summary Delete office
// @Tags Offices
// @Param firmId path string true "Firm ID"
// @Param id path string true "Office ID"
// @Success 204
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /firms/{firmId}/offices/{id} [delete]
func (h *OfficeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	firmID, ok := uuidParam(w, r, "firmId")
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.officeService.Delete(r.Context(), firmID, id); err != nil {
		respondServiceError(w, h.logger, err, "delete office")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
