package handler

import (
	"net/http"

	"github.com/lawdir/directory-api/internal/domain"
	"github.com/lawdir/directory-api/internal/service"
	"go.uber.org/zap"
)

// LocationHandler manages states, metros and cities
type LocationHandler struct {
	locationService *service.LocationService
	logger          *zap.Logger
}

func NewLocationHandler(locationService *service.LocationService, logger *zap.Logger) *LocationHandler {
	return &LocationHandler{
		locationService: locationService,
		logger:          logger,
	}
}

// ListStates godoc
// @Summary List states
// @Tags Locations
// @Produce json
// @Success 200 {array} domain.StateDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /states [get]
func (h *LocationHandler) ListStates(w http.ResponseWriter, r *http.Request) {
	states, err := h.locationService.ListStates(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "list states")
		return
	}
	respondJSON(w, http.StatusOK, states)
}

// GetState godoc
// @Summary Get state
// @Tags Locations
// @Produce json
// @Param id path string true "State ID"
// @Success 200 {object} domain.StateDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /states/{id} [get]
func (h *LocationHandler) GetState(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	state, err := h.locationService.GetState(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "get state")
		return
	}
	respondJSON(w, http.StatusOK, state)
}

// CreateState godoc
// @Summary Create state
// @Tags Locations
// @Accept json
// @Produce json
// @Param state body domain.CreateStateRequest true "State"
// @Success 201 {object} domain.StateDTO
// @Failure 400 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /states [post]
func (h *LocationHandler) CreateState(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateStateRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	state, err := h.locationService.CreateState(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "create state")
		return
	}
	respondJSON(w, http.StatusCreated, state)
}

// UpdateState godoc
// @Summary Update state
// @Tags Locations
// @Accept json
// @Produce json
// @Param id path string true "State ID"
// @Param state body domain.UpdateStateRequest true "State"
// @Success 200 {object} domain.StateDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /states/{id} [put]
func (h *LocationHandler) UpdateState(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req domain.UpdateStateRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	state, err := h.locationService.UpdateState(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "update state")
		return
	}
	respondJSON(w, http.StatusOK, state)
}

// DeleteState godoc
// @Summary Delete state
// @Description Fails with 409 while cities reference the state
// @Tags Locations
// @Param id path string true "State ID"
// @Success 204
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /states/{id} [delete]
func (h *LocationHandler) DeleteState(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.locationService.DeleteState(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err, "delete state")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListMetros godoc
// @Summary List metros
// @Tags Locations
// @Produce json
// @Param stateId query string false "Filter by state"
// @Success 200 {array} domain.MetroDTO
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /metros [get]
func (h *LocationHandler) ListMetros(w http.ResponseWriter, r *http.Request) {
	stateID, err := optionalUUIDQuery(r, "stateId")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	metros, err := h.locationService.ListMetros(r.Context(), stateID)
	if err != nil {
		respondServiceError(w, h.logger, err, "list metros")
		return
	}
	respondJSON(w, http.StatusOK, metros)
}

// GetMetro godoc
// @Summary Get metro
// @Tags Locations
// @Produce json
// @Param id path string true "Metro ID"
// @Success 200 {object} domain.MetroDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /metros/{id} [get]
func (h *LocationHandler) GetMetro(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	metro, err := h.locationService.GetMetro(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "get metro")
		return
	}
	respondJSON(w, http.StatusOK, metro)
}

// CreateMetro godoc
// @Summary Create metro
// @Tags Locations
// @Accept json
// @Produce json
// @Param metro body domain.CreateMetroRequest true "Metro"
// @Success 201 {object} domain.MetroDTO
// @Failure 400 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /metros [post]
func (h *LocationHandler) CreateMetro(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateMetroRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	metro, err := h.locationService.CreateMetro(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "create metro")
		return
	}
	respondJSON(w, http.StatusCreated, metro)
}

// UpdateMetro godoc
// @Summary Update metro
// @Tags Locations
// @Accept json
// @Produce json
// @Param id path string true "Metro ID"
// @Param metro body domain.UpdateMetroRequest true "Metro"
// @Success 200 {object} domain.MetroDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /metros/{id} [put]
func (h *LocationHandler) UpdateMetro(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req domain.UpdateMetroRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	metro, err := h.locationService.UpdateMetro(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "update metro")
		return
	}
	respondJSON(w, http.StatusOK, metro)
}

// DeleteMetro godoc
// @Summary Delete metro
// @Tags Locations
// @Param id path string true "Metro ID"
// @Success 204
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /metros/{id} [delete]
func (h *LocationHandler) DeleteMetro(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.locationService.DeleteMetro(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err, "delete metro")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListCities godoc
// @Summary List cities
// @Tags Locations
// @Produce json
// @Param stateId query string false "Filter by state"
// @Param search query string false "Filter by name"
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.CityDTO}
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /cities [get]
func (h *LocationHandler) ListCities(w http.ResponseWriter, r *http.Request) {
	stateID, err := optionalUUIDQuery(r, "stateId")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	page, pageSize := pagination(r)
	result, err := h.locationService.ListCities(r.Context(), stateID, r.URL.Query().Get("search"), page, pageSize)
	if err != nil {
		respondServiceError(w, h.logger, err, "list cities")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// GetCity godoc
// @Summary Get city
// @Tags Locations
// @Produce json
// @Param id path string true "City ID"
// @Success 200 {object} domain.CityDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /cities/{id} [get]
func (h *LocationHandler) GetCity(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	city, err := h.locationService.GetCity(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "get city")
		return
	}
	respondJSON(w, http.StatusOK, city)
}

// CreateCity godoc
// @Summary Create city
// @Tags Locations
// @Accept json
// @Produce json
// @Param city body domain.CreateCityRequest true "City"
// @Success 201 {object} domain.CityDTO
// @Failure 400 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /cities [post]
func (h *LocationHandler) CreateCity(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateCityRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	city, err := h.locationService.CreateCity(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "create city")
		return
	}
	respondJSON(w, http.StatusCreated, city)
}

// UpdateCity godoc
// @Summary Update city
// @Description Moving a city to another metro moves its offices too
// @Tags Locations
// @Accept json
// @Produce json
// @Param id path string true "City ID"
// @Param city body domain.UpdateCityRequest true "City"
// @Success 200 {object} domain.CityDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /cities/{id} [put]
func (h *LocationHandler) UpdateCity(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req domain.UpdateCityRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	city, err := h.locationService.UpdateCity(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "update city")
		return
	}
	respondJSON(w, http.StatusOK, city)
}

// DeleteCity godoc
// @Summary Delete city
// @Description Fails with 409 while offices are in the city
// @Tags Locations
// @Param id path string true "City ID"
// @Success 204
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /cities/{id} [delete]
func (h *LocationHandler) DeleteCity(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.locationService.DeleteCity(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err, "delete city")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
