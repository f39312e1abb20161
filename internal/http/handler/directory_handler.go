package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/lawdir/directory-api/internal/domain"
	"github.com/lawdir/directory-api/internal/service"
	"go.uber.org/zap"
)

// DirectoryHandler serves the public, read-only directory API
type DirectoryHandler struct {
	directoryService *service.DirectoryService
	logger           *zap.Logger
}

func NewDirectoryHandler(directoryService *service.DirectoryService, logger *zap.Logger) *DirectoryHandler {
	return &DirectoryHandler{
		directoryService: directoryService,
		logger:           logger,
	}
}

// Home godoc
// @Summary Directory home
// @Description States with firm counts, featured practice areas, premium firms and recent posts
// @Tags Directory
// @Produce json
// @Success 200 {object} domain.DirectoryHomeDTO
// @Failure 500 {object} domain.APIError
// @Router /directory/home [get]
func (h *DirectoryHandler) Home(w http.ResponseWriter, r *http.Request) {
	home, err := h.directoryService.Home(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "load directory home")
		return
	}
	respondJSON(w, http.StatusOK, home)
}

// States godoc
// @Summary List states
// @Description All states with the number of active firms that have an office there
// @Tags Directory
// @Produce json
// @Success 200 {array} domain.StateDTO
// @Failure 500 {object} domain.APIError
// @Router /directory/states [get]
func (h *DirectoryHandler) States(w http.ResponseWriter, r *http.Request) {
	states, err := h.directoryService.States(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "list states")
		return
	}
	respondJSON(w, http.StatusOK, states)
}

// PracticeAreas godoc
// @Summary List practice areas
// @Tags Directory
// @Produce json
// @Success 200 {array} domain.PracticeAreaDTO
// @Failure 500 {object} domain.APIError
// @Router /directory/practice-areas [get]
func (h *DirectoryHandler) PracticeAreas(w http.ResponseWriter, r *http.Request) {
	areas, err := h.directoryService.PracticeAreas(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "list practice areas")
		return
	}
	respondJSON(w, http.StatusOK, areas)
}

// State godoc
// @Summary State landing page
// @Description Metros, cities and a page of firms in a state
// @Tags Directory
// @Produce json
// @Param state path string true "State slug or two-letter code"
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Success 200 {object} domain.StateLandingDTO
// @Failure 404 {object} domain.APIError
// @Router /directory/states/{state} [get]
func (h *DirectoryHandler) State(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pagination(r)
	landing, err := h.directoryService.StateLanding(r.Context(), chi.URLParam(r, "state"), page, pageSize)
	if err != nil {
		respondServiceError(w, h.logger, err, "load state")
		return
	}
	respondJSON(w, http.StatusOK, landing)
}

// Metro godoc
// @Summary Metro landing page
// @Tags Directory
// @Produce json
// @Param state path string true "State slug or two-letter code"
// @Param metro path string true "Metro slug"
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Success 200 {object} domain.MetroLandingDTO
// @Failure 404 {object} domain.APIError
// @Router /directory/states/{state}/metros/{metro} [get]
func (h *DirectoryHandler) Metro(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pagination(r)
	landing, err := h.directoryService.MetroLanding(r.Context(), chi.URLParam(r, "state"), chi.URLParam(r, "metro"), page, pageSize)
	if err != nil {
		respondServiceError(w, h.logger, err, "load metro")
		return
	}
	respondJSON(w, http.StatusOK, landing)
}

// City godoc
// @Summary City landing page
// @Tags Directory
// @Produce json
// @Param state path string true "State slug or two-letter code"
// @Param city path string true "City slug"
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Success 200 {object} domain.CityLandingDTO
// @Failure 404 {object} domain.APIError
// @Router /directory/states/{state}/cities/{city} [get]
func (h *DirectoryHandler) City(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pagination(r)
	landing, err := h.directoryService.CityLanding(r.Context(), chi.URLParam(r, "state"), chi.URLParam(r, "city"), page, pageSize)
	if err != nil {
		respondServiceError(w, h.logger, err, "load city")
		return
	}
	respondJSON(w, http.StatusOK, landing)
}

// PracticeArea godoc
// @Summary Practice area landing page
// @Tags Directory
// @Produce json
// @Param slug path string true "Practice area slug"
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Success 200 {object} domain.PracticeAreaLandingDTO
// @Failure 404 {object} domain.APIError
// @Router /directory/practice-areas/{slug} [get]
func (h *DirectoryHandler) PracticeArea(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pagination(r)
	landing, err := h.directoryService.PracticeAreaLanding(r.Context(), chi.URLParam(r, "slug"), page, pageSize)
	if err != nil {
		respondServiceError(w, h.logger, err, "load practice area")
		return
	}
	respondJSON(w, http.StatusOK, landing)
}

// Firm godoc
// @Summary Firm profile
// @Description Public profile of an active firm with offices and lawyers
// @Tags Directory
// @Produce json
// @Param slug path string true "Firm slug"
// @Success 200 {object} domain.FirmDetailDTO
// @Failure 404 {object} domain.APIError
// @Router /directory/firms/{slug} [get]
func (h *DirectoryHandler) Firm(w http.ResponseWriter, r *http.Request) {
	firm, err := h.directoryService.FirmProfile(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		respondServiceError(w, h.logger, err, "load firm")
		return
	}
	respondJSON(w, http.StatusOK, firm)
}

// Search godoc
// @Summary Search firms
// @Description Filter active firms by text, location and practice area in listing order
// @Tags Directory
// @Produce json
// @Param q query string false "Free text matched against name and description"
// @Param state query string false "State slug or code"
// @Param metro query string false "Metro slug"
// @Param city query string false "City slug"
// @Param practiceArea query string false "Practice area slug"
// @Param minTier query int false "Minimum tier" minimum(0) maximum(3)
// @Param premiumOnly query bool false "Only premium listings"
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.FirmDTO}
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Router /directory/search [get]
func (h *DirectoryHandler) Search(w http.ResponseWriter, r *http.Request) {
	params, ok := searchParams(w, r)
	if !ok {
		return
	}
	result, err := h.directoryService.Search(r.Context(), params)
	if err != nil {
		respondServiceError(w, h.logger, err, "search firms")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// searchParams reads the public search filters from the query string
func searchParams(w http.ResponseWriter, r *http.Request) (domain.FirmSearchParams, bool) {
	q := r.URL.Query()
	page, pageSize := pagination(r)
	params := domain.FirmSearchParams{
		Query:        q.Get("q"),
		State:        q.Get("state"),
		Metro:        q.Get("metro"),
		City:         q.Get("city"),
		PracticeArea: q.Get("practiceArea"),
		PremiumOnly:  queryBool(r, "premiumOnly"),
		Page:         page,
		PageSize:     pageSize,
	}
	if raw := q.Get("minTier"); raw != "" {
		tier, err := strconv.Atoi(raw)
		if err != nil || tier < 0 || tier > 3 {
			respondWithError(w, http.StatusBadRequest, "minTier must be between 0 and 3")
			return params, false
		}
		params.MinTier = tier
	}
	return params, true
}
