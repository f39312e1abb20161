package handler

import (
	"net/http"

	"github.com/lawdir/directory-api/internal/domain"
	"github.com/lawdir/directory-api/internal/service"
	"go.uber.org/zap"
)

type PracticeAreaHandler struct {
	practiceAreaService *service.PracticeAreaService
	logger              *zap.Logger
}

func NewPracticeAreaHandler(practiceAreaService *service.PracticeAreaService, logger *zap.Logger) *PracticeAreaHandler {
	return &PracticeAreaHandler{
		practiceAreaService: practiceAreaService,
		logger:              logger,
	}
}

// List godoc
// @Summary List practice areas
// @Tags Practice Areas
// @Produce json
// @Param search query string false "Filter by name"
// @Success 200 {array} domain.PracticeAreaDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /practice-areas [get]
func (h *PracticeAreaHandler) List(w http.ResponseWriter, r *http.Request) {
	areas, err := h.practiceAreaService.List(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		respondServiceError(w, h.logger, err, "list practice areas")
		return
	}
	respondJSON(w, http.StatusOK, areas)
}

// GetByID godoc
// @Summary Get practice area
// @Tags Practice Areas
// @Produce json
// @Param id path string true "Practice area ID"
// @Success 200 {object} domain.PracticeAreaDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /practice-areas/{id} [get]
func (h *PracticeAreaHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	area, err := h.practiceAreaService.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "get practice area")
		return
	}
	respondJSON(w, http.StatusOK, area)
}

// Create godoc
// @Summary Create practice area
// @Tags Practice Areas
// @Accept json
// @Produce json
// @Param practiceArea body domain.CreatePracticeAreaRequest true "Practice area"
// @Success 201 {object} domain.PracticeAreaDTO
// @Failure 400 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /practice-areas [post]
func (h *PracticeAreaHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreatePracticeAreaRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	area, err := h.practiceAreaService.Create(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "create practice area")
		return
	}
	respondJSON(w, http.StatusCreated, area)
}

// Update godoc
// @Summary Update practice area
// @Tags Practice Areas
// @Accept json
// @Produce json
// @Param id path string true "Practice area ID"
// @Param practiceArea body domain.UpdatePracticeAreaRequest true "Practice area"
// @Success 200 {object} domain.PracticeAreaDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /practice-areas/{id} [put]
func (h *PracticeAreaHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req domain.UpdatePracticeAreaRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	area, err := h.practiceAreaService.Update(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "update practice area")
		return
	}
	respondJSON(w, http.StatusOK, area)
}

// Delete godoc
// @Summary Delete practice area
// @Description Unlinks the area from firms, lawyers and posts
// @Tags Practice Areas
// @Param id path string true "Practice area ID"
// @Success 204
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /practice-areas/{id} [delete]
func (h *PracticeAreaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.practiceAreaService.Delete(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err, "delete practice area")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
