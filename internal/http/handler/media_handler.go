package handler

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/lawdir/directory-api/internal/storage"
	"go.uber.org/zap"
)

// MediaHandler serves uploaded logos, photos and cover images
type MediaHandler struct {
	store  storage.Storage
	logger *zap.Logger
}

func NewMediaHandler(store storage.Storage, logger *zap.Logger) *MediaHandler {
	return &MediaHandler{
		store:  store,
		logger: logger,
	}
}

// Serve godoc
// @Summary Serve stored media
// @Tags Media
// @Produce octet-stream
// @Param path path string true "Storage path"
// @Success 200 {file} file
// @Failure 404 {object} domain.APIError
// @Router /media/{path} [get]
func (h *MediaHandler) Serve(w http.ResponseWriter, r *http.Request) {
	storagePath := chi.URLParam(r, "*")
	if storagePath == "" {
		respondWithError(w, http.StatusNotFound, "File not found")
		return
	}

	rc, err := h.store.Download(r.Context(), storagePath)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidPath) {
			respondWithError(w, http.StatusNotFound, "File not found")
			return
		}
		h.logger.Error("failed to read media", zap.String("path", storagePath), zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to read file")
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(strings.ToLower(path.Ext(storagePath)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("failed to stream media", zap.String("path", storagePath), zap.Error(err))
	}
}
