package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/lawdir/directory-api/internal/domain"
	"github.com/lawdir/directory-api/internal/service"
	"go.uber.org/zap"
)

// ContentHandler serves static pages and blog posts, both the public
// published views and the admin editing endpoints.
type ContentHandler struct {
	contentService  *service.ContentService
	maxUploadSizeMB int64
	logger          *zap.Logger
}

func NewContentHandler(contentService *service.ContentService, maxUploadSizeMB int64, logger *zap.Logger) *ContentHandler {
	return &ContentHandler{
		contentService:  contentService,
		maxUploadSizeMB: maxUploadSizeMB,
		logger:          logger,
	}
}

// PublishedPage godoc
// @Summary Get published page
// @Tags Content
// @Produce json
// @Param slug path string true "Page slug"
// @Success 200 {object} domain.PageDTO
// @Failure 404 {object} domain.APIError
// @Router /pages/{slug} [get]
func (h *ContentHandler) PublishedPage(w http.ResponseWriter, r *http.Request) {
	page, err := h.contentService.GetPublishedPage(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		respondServiceError(w, h.logger, err, "get page")
		return
	}
	respondJSON(w, http.StatusOK, page)
}

// NavPages godoc
// @Summary Navigation pages
// @Description Published pages flagged for the site navigation, without bodies
// @Tags Content
// @Produce json
// @Success 200 {array} domain.PageDTO
// @Router /pages [get]
func (h *ContentHandler) NavPages(w http.ResponseWriter, r *http.Request) {
	pages, err := h.contentService.NavPages(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "list navigation pages")
		return
	}
	respondJSON(w, http.StatusOK, pages)
}

// PublishedPosts godoc
// @Summary List published blog posts
// @Tags Content
// @Produce json
// @Param practiceArea query string false "Practice area slug"
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.BlogPostDTO}
// @Failure 404 {object} domain.APIError
// @Router /blog [get]
func (h *ContentHandler) PublishedPosts(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pagination(r)
	result, err := h.contentService.ListPublishedPosts(r.Context(), r.URL.Query().Get("practiceArea"), page, pageSize)
	if err != nil {
		respondServiceError(w, h.logger, err, "list blog posts")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// PublishedPost godoc
// @Summary Get published blog post
// @Tags Content
// @Produce json
// @Param slug path string true "Post slug"
// @Success 200 {object} domain.BlogPostDTO
// @Failure 404 {object} domain.APIError
// @Router /blog/{slug} [get]
func (h *ContentHandler) PublishedPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.contentService.GetPublishedPost(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		respondServiceError(w, h.logger, err, "get blog post")
		return
	}
	respondJSON(w, http.StatusOK, post)
}

// ListPages godoc
// @Summary List pages
// @Tags Content
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.PageDTO}
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /admin/pages [get]
func (h *ContentHandler) ListPages(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pagination(r)
	result, err := h.contentService.ListPages(r.Context(), page, pageSize)
	if err != nil {
		respondServiceError(w, h.logger, err, "list pages")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// GetPage godoc
// @Summary Get page
// @Tags Content
// @Produce json
// @Param id path string true "Page ID"
// @Success 200 {object} domain.PageDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /admin/pages/{id} [get]
func (h *ContentHandler) GetPage(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	page, err := h.contentService.GetPage(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "get page")
		return
	}
	respondJSON(w, http.StatusOK, page)
}

// CreatePage godoc
// @Summary Create page
// @Description The body is markdown; it is rendered and sanitized on save
// @Tags Content
// @Accept json
// @Produce json
// @Param page body domain.CreatePageRequest true "Page"
// @Success 201 {object} domain.PageDTO
// @Failure 400 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /admin/pages [post]
func (h *ContentHandler) CreatePage(w http.ResponseWriter, r *http.Request) {
	var req domain.CreatePageRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	page, err := h.contentService.CreatePage(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "create page")
		return
	}
	respondJSON(w, http.StatusCreated, page)
}

// UpdatePage godoc
// @Summary Update page
// @Description The slug only changes when one is given explicitly
// @Tags Content
// @Accept json
// @Produce json
// @Param id path string true "Page ID"
// @Param page body domain.UpdatePageRequest true "Page"
// @Success 200 {object} domain.PageDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /admin/pages/{id} [put]
func (h *ContentHandler) UpdatePage(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req domain.UpdatePageRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	page, err := h.contentService.UpdatePage(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "update page")
		return
	}
	respondJSON(w, http.StatusOK, page)
}

// DeletePage godoc
// @Summary Delete page
// @Tags Content
// @Param id path string true "Page ID"
// @Success 204
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /admin/pages/{id} [delete]
func (h *ContentHandler) DeletePage(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.contentService.DeletePage(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err, "delete page")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListPosts godoc
// @Summary List blog posts
// @Tags Content
// @Produce json
// @Param status query string false "Filter by status" Enums(draft, published)
// @Param search query string false "Search title"
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param sortBy query string false "Sort field" Enums(title, publishedAt, createdAt, updatedAt)
// @Param sortOrder query string false "Sort order" Enums(asc, desc)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.BlogPostDTO}
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /admin/posts [get]
func (h *ContentHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pagination(r)
	params := service.BlogListParams{
		Search:   r.URL.Query().Get("search"),
		Sort:     sortParams(r),
		Page:     page,
		PageSize: pageSize,
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := domain.BlogPostStatus(raw)
		if status != domain.BlogPostStatusDraft && status != domain.BlogPostStatusPublished {
			respondWithError(w, http.StatusBadRequest, "Invalid status")
			return
		}
		params.Status = &status
	}
	result, err := h.contentService.ListPosts(r.Context(), params)
	if err != nil {
		respondServiceError(w, h.logger, err, "list blog posts")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// GetPost godoc
// @Summary Get blog post
// @Tags Content
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} domain.BlogPostDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /admin/posts/{id} [get]
func (h *ContentHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	post, err := h.contentService.GetPost(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "get blog post")
		return
	}
	respondJSON(w, http.StatusOK, post)
}

// CreatePost godoc
// @Summary Create blog post
// @Description New posts are drafts unless status is published
// @Tags Content
// @Accept json
// @Produce json
// @Param post body domain.CreateBlogPostRequest true "Post"
// @Success 201 {object} domain.BlogPostDTO
// @Failure 400 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /admin/posts [post]
func (h *ContentHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateBlogPostRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	post, err := h.contentService.CreatePost(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "create blog post")
		return
	}
	respondJSON(w, http.StatusCreated, post)
}

// UpdatePost godoc
// @Summary Update blog post
// @Tags Content
// @Accept json
// @Produce json
// @Param id path string true "Post ID"
// @Param post body domain.UpdateBlogPostRequest true "Post"
// @Success 200 {object} domain.BlogPostDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /admin/posts/{id} [put]
func (h *ContentHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req domain.UpdateBlogPostRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	post, err := h.contentService.UpdatePost(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "update blog post")
		return
	}
	respondJSON(w, http.StatusOK, post)
}

// Publish godoc
// @Summary Publish blog post
// @Description Keeps the original publication date when republishing
// @Tags Content
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} domain.BlogPostDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /admin/posts/{id}/publish [post]
func (h *ContentHandler) Publish(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	post, err := h.contentService.Publish(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "publish blog post")
		return
	}
	respondJSON(w, http.StatusOK, post)
}

// Unpublish godoc
// @Summary Unpublish blog post
// @Tags Content
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} domain.BlogPostDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /admin/posts/{id}/unpublish [post]
func (h *ContentHandler) Unpublish(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	post, err := h.contentService.Unpublish(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "unpublish blog post")
		return
	}
	respondJSON(w, http.StatusOK, post)
}

// UploadCover godoc
// @Summary Upload blog post cover image
// @Tags Content
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Post ID"
// @Param file formData file true "Cover image"
// @Success 200 {object} domain.BlogPostDTO
// @Failure 400 {object} domain.APIError
// @Failure 413 {object} domain.APIError
// @Failure 415 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /admin/posts/{id}/cover [post]
func (h *ContentHandler) UploadCover(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	upload, ok := readUpload(w, r, "file", h.maxUploadSizeMB)
	if !ok {
		return
	}
	defer upload.Close()

	post, err := h.contentService.UploadCover(r.Context(), id, upload.filename, upload.contentType, upload)
	if err != nil {
		respondServiceError(w, h.logger, err, "upload cover image")
		return
	}
	respondJSON(w, http.StatusOK, post)
}

// DeletePost godoc
// @Summary Delete blog post
// @Tags Content
// @Param id path string true "Post ID"
// @Success 204
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /admin/posts/{id} [delete]
func (h *ContentHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.contentService.DeletePost(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err, "delete blog post")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
