package handler

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/lawdir/directory-api/internal/service"
	"go.uber.org/zap"
)

// ImportHandler accepts CSV bulk uploads of firms and offices
type ImportHandler struct {
	importService *service.ImportService
	maxFileSizeMB int64
	logger        *zap.Logger
}

func NewImportHandler(importService *service.ImportService, maxFileSizeMB int64, logger *zap.Logger) *ImportHandler {
	return &ImportHandler{
		importService: importService,
		maxFileSizeMB: maxFileSizeMB,
		logger:        logger,
	}
}

// Upload godoc
// @Summary Import firms from CSV
// @Description Each row is applied in its own transaction. Row errors are reported with their line number and do not stop the import. With dryRun=true nothing is committed.
// @Tags Imports
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV file"
// @Param dryRun query bool false "Validate and resolve without committing"
// @Success 201 {object} domain.ImportRunDTO
// @Success 200 {object} domain.ImportRunDTO "Dry run result"
// @Failure 400 {object} domain.APIError
// @Failure 413 {object} domain.APIError
// @Failure 415 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /imports [post]
func (h *ImportHandler) Upload(w http.ResponseWriter, r *http.Request) {
	upload, ok := readUpload(w, r, "file", h.maxFileSizeMB)
	if !ok {
		return
	}
	defer upload.Close()

	if ext := strings.ToLower(filepath.Ext(upload.filename)); ext != ".csv" && ext != ".txt" {
		respondWithError(w, http.StatusUnsupportedMediaType, "Only .csv files can be imported")
		return
	}

	dryRun := queryBool(r, "dryRun") || strings.EqualFold(r.FormValue("dryRun"), "true")
	run, err := h.importService.Import(r.Context(), upload, service.ImportOptions{
		Filename: upload.filename,
		DryRun:   dryRun,
	})
	if err != nil {
		respondServiceError(w, h.logger, err, "import file")
		return
	}

	status := http.StatusCreated
	if dryRun {
		status = http.StatusOK
	}
	respondJSON(w, status, run)
}

// List godoc
// @Summary Import history
// @Tags Imports
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.ImportRunDTO}
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /imports [get]
func (h *ImportHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pagination(r)
	result, err := h.importService.List(r.Context(), page, pageSize)
	if err != nil {
		respondServiceError(w, h.logger, err, "list imports")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// GetByID godoc
// @Summary Get import run
// @Tags Imports
// @Produce json
// @Param id path string true "Import run ID"
// @Success 200 {object} domain.ImportRunDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /imports/{id} [get]
func (h *ImportHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	run, err := h.importService.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "get import")
		return
	}
	respondJSON(w, http.StatusOK, run)
}

// Download godoc
// @Summary Download imported CSV
// @Description Returns the archived upload of a committed import
// @Tags Imports
// @Produce text/csv
// @Param id path string true "Import run ID"
// @Success 200 {file} file
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /imports/{id}/file [get]
func (h *ImportHandler) Download(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	rc, filename, err := h.importService.Download(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "download import")
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("failed to stream import file", zap.String("import_id", id.String()), zap.Error(err))
	}
}
