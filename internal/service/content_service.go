package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lawdir/directory-api/internal/cache"
	"github.com/lawdir/directory-api/internal/content"
	"github.com/lawdir/directory-api/internal/domain"
	"github.com/lawdir/directory-api/internal/mapper"
	"github.com/lawdir/directory-api/internal/repository"
	"github.com/lawdir/directory-api/internal/slug"
	"github.com/lawdir/directory-api/internal/storage"
	"go.uber.org/zap"
)

const (
	// excerptLength bounds generated blog excerpts
	excerptLength = 280
	// metaDescriptionLength bounds generated page meta descriptions
	metaDescriptionLength = 160
)

// BlogListParams are the admin blog list filters
type BlogListParams struct {
	Status   *domain.BlogPostStatus
	Search   string
	Sort     repository.SortConfig
	Page     int
	PageSize int
}

// ContentService manages static pages and blog posts
type ContentService struct {
	pageRepo *repository.PageRepository
	blogRepo *repository.BlogPostRepository
	paRepo   *repository.PracticeAreaRepository
	renderer *content.Renderer
	storage  storage.Storage
	cache    cache.Cache
	logger   *zap.Logger
	now      func() time.Time
}

// NewContentService creates a new content service
func NewContentService(
	pageRepo *repository.PageRepository,
	blogRepo *repository.BlogPostRepository,
	paRepo *repository.PracticeAreaRepository,
	renderer *content.Renderer,
	store storage.Storage,
	c cache.Cache,
	logger *zap.Logger,
) *ContentService {
	if c == nil {
		c = cache.Noop{}
	}
	return &ContentService{
		pageRepo: pageRepo,
		blogRepo: blogRepo,
		paRepo:   paRepo,
		renderer: renderer,
		storage:  store,
		cache:    c,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// contentSlug uses the requested slug when given, otherwise the title
func contentSlug(requested, title string) (string, error) {
	base := slug.Make(requested)
	if base == "" {
		base = slug.Make(title)
	}
	if base == "" {
		return "", fmt.Errorf("%w: title must contain letters or digits", ErrInvalidInput)
	}
	return base, nil
}

// Pages

func (s *ContentService) ListPages(ctx context.Context, page, pageSize int) (*domain.PaginatedResponse, error) {
	page, pageSize = repository.NormalizePagination(page, pageSize)
	pages, total, err := s.pageRepo.List(ctx, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}

	dtos := make([]domain.PageDTO, len(pages))
	for i := range pages {
		dtos[i] = mapper.ToPageDTO(&pages[i])
	}
	return &domain.PaginatedResponse{
		Data:       dtos,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	}, nil
}

func (s *ContentService) GetPage(ctx context.Context, id uuid.UUID) (*domain.PageDTO, error) {
	p, err := s.pageRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "page")
	}
	dto := mapper.ToPageDTO(p)
	return &dto, nil
}

func (s *ContentService) CreatePage(ctx context.Context, req *domain.CreatePageRequest) (*domain.PageDTO, error) {
	base, err := contentSlug(req.Slug, req.Title)
	if err != nil {
		return nil, err
	}
	pageSlug, err := slug.Unique(base, func(candidate string) (bool, error) {
		return s.pageRepo.SlugExists(ctx, candidate, nil)
	})
	if err != nil {
		return nil, err
	}

	p := &domain.Page{
		Title:           strings.TrimSpace(req.Title),
		Slug:            pageSlug,
		Body:            req.Body,
		MetaDescription: strings.TrimSpace(req.MetaDescription),
		IsPublished:     req.IsPublished,
		ShowInNav:       req.ShowInNav,
		SortOrder:       req.SortOrder,
	}
	if err := s.renderPage(p); err != nil {
		return nil, err
	}

	if err := s.pageRepo.Create(ctx, p); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: page slug %s already exists", ErrConflict, p.Slug)
		}
		return nil, mapper.FormatError("page", "create", err)
	}

	invalidateContent(ctx, s.cache, s.logger)
	s.logger.Info("page created", zap.String("page_id", p.ID.String()), zap.String("slug", p.Slug))
	dto := mapper.ToPageDTO(p)
	return &dto, nil
}

// UpdatePage replaces the page. A slug is only changed when one is requested
// explicitly, so published URLs stay stable across title edits.
func (s *ContentService) UpdatePage(ctx context.Context, id uuid.UUID, req *domain.UpdatePageRequest) (*domain.PageDTO, error) {
	p, err := s.pageRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "page")
	}

	if requested := slug.Make(req.Slug); requested != "" && requested != p.Slug {
		taken, err := s.pageRepo.SlugExists(ctx, requested, &p.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check page slug: %w", err)
		}
		if taken {
			return nil, fmt.Errorf("%w: page slug %s already exists", ErrConflict, requested)
		}
		p.Slug = requested
	}

	p.Title = strings.TrimSpace(req.Title)
	p.Body = req.Body
	p.MetaDescription = strings.TrimSpace(req.MetaDescription)
	p.IsPublished = req.IsPublished
	p.ShowInNav = req.ShowInNav
	p.SortOrder = req.SortOrder
	if err := s.renderPage(p); err != nil {
		return nil, err
	}

	if err := s.pageRepo.Update(ctx, p); err != nil {
		return nil, mapper.FormatError("page", "update", err)
	}

	invalidateContent(ctx, s.cache, s.logger)
	dto := mapper.ToPageDTO(p)
	return &dto, nil
}

func (s *ContentService) DeletePage(ctx context.Context, id uuid.UUID) error {
	if _, err := s.pageRepo.GetByID(ctx, id); err != nil {
		return notFoundOr(err, "page")
	}
	if err := s.pageRepo.Delete(ctx, id); err != nil {
		return mapper.FormatError("page", "delete", err)
	}
	invalidateContent(ctx, s.cache, s.logger)
	s.logger.Info("page deleted", zap.String("page_id", id.String()))
	return nil
}

// renderPage fills BodyHTML and a default meta description from the markdown body
func (s *ContentService) renderPage(p *domain.Page) error {
	html, err := s.renderer.Render(p.Body)
	if err != nil {
		return err
	}
	p.BodyHTML = html
	if p.MetaDescription == "" {
		if p.MetaDescription, err = s.renderer.PlainText(p.Body, metaDescriptionLength); err != nil {
			return err
		}
	}
	return nil
}

// GetPublishedPage returns a published page by slug
func (s *ContentService) GetPublishedPage(ctx context.Context, pageSlug string) (*domain.PageDTO, error) {
	key := cachePrefixContent + "page:" + strings.ToLower(pageSlug)
	dto, err := readThrough(ctx, s.cache, s.logger, key, func() (domain.PageDTO, error) {
		p, err := s.pageRepo.GetPublishedBySlug(ctx, strings.ToLower(pageSlug))
		if err != nil {
			return domain.PageDTO{}, notFoundOr(err, "page")
		}
		return mapper.ToPageDTO(p), nil
	})
	if err != nil {
		return nil, err
	}
	return &dto, nil
}

// NavPages returns the published pages shown in the site navigation
func (s *ContentService) NavPages(ctx context.Context) ([]domain.PageDTO, error) {
	return readThrough(ctx, s.cache, s.logger, cachePrefixContent+"nav", func() ([]domain.PageDTO, error) {
		pages, err := s.pageRepo.ListNav(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list navigation pages: %w", err)
		}
		dtos := make([]domain.PageDTO, len(pages))
		for i := range pages {
			dtos[i] = mapper.ToPageDTO(&pages[i])
			// navigation only needs titles and slugs
			dtos[i].Body = ""
			dtos[i].BodyHTML = ""
		}
		return dtos, nil
	})
}

// Blog posts

func (s *ContentService) ListPosts(ctx context.Context, params BlogListParams) (*domain.PaginatedResponse, error) {
	page, pageSize := repository.NormalizePagination(params.Page, params.PageSize)
	posts, total, err := s.blogRepo.List(ctx, params.Status, strings.TrimSpace(params.Search), params.Sort, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list blog posts: %w", err)
	}

	dtos := make([]domain.BlogPostDTO, len(posts))
	for i := range posts {
		dtos[i] = mapper.ToBlogPostDTO(&posts[i], false)
	}
	return &domain.PaginatedResponse{
		Data:       dtos,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	}, nil
}

func (s *ContentService) GetPost(ctx context.Context, id uuid.UUID) (*domain.BlogPostDTO, error) {
	post, err := s.blogRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "blog post")
	}
	dto := mapper.ToBlogPostDTO(post, true)
	return &dto, nil
}

func (s *ContentService) CreatePost(ctx context.Context, req *domain.CreateBlogPostRequest) (*domain.BlogPostDTO, error) {
	base, err := contentSlug(req.Slug, req.Title)
	if err != nil {
		return nil, err
	}
	postSlug, err := slug.Unique(base, func(candidate string) (bool, error) {
		return s.blogRepo.SlugExists(ctx, candidate, nil)
	})
	if err != nil {
		return nil, err
	}

	area, err := s.resolvePracticeArea(ctx, req.PracticeAreaID)
	if err != nil {
		return nil, err
	}

	post := &domain.BlogPost{
		Title:        strings.TrimSpace(req.Title),
		Slug:         postSlug,
		Excerpt:      strings.TrimSpace(req.Excerpt),
		Body:         req.Body,
		AuthorName:   strings.TrimSpace(req.AuthorName),
		Status:       domain.BlogPostStatusDraft,
		PracticeArea: area,
	}
	if area != nil {
		post.PracticeAreaID = &area.ID
	}
	s.applyStatus(post, req.Status)
	if err := s.renderPost(post); err != nil {
		return nil, err
	}

	if err := s.blogRepo.Create(ctx, post); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: blog post slug %s already exists", ErrConflict, post.Slug)
		}
		return nil, mapper.FormatError("blog post", "create", err)
	}

	invalidateContent(ctx, s.cache, s.logger)
	s.logger.Info("blog post created",
		zap.String("post_id", post.ID.String()),
		zap.String("slug", post.Slug),
		zap.String("status", string(post.Status)))
	dto := mapper.ToBlogPostDTO(post, true)
	return &dto, nil
}

func (s *ContentService) UpdatePost(ctx context.Context, id uuid.UUID, req *domain.UpdateBlogPostRequest) (*domain.BlogPostDTO, error) {
	post, err := s.blogRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "blog post")
	}

	if requested := slug.Make(req.Slug); requested != "" && requested != post.Slug {
		taken, err := s.blogRepo.SlugExists(ctx, requested, &post.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check blog post slug: %w", err)
		}
		if taken {
			return nil, fmt.Errorf("%w: blog post slug %s already exists", ErrConflict, requested)
		}
		post.Slug = requested
	}

	area, err := s.resolvePracticeArea(ctx, req.PracticeAreaID)
	if err != nil {
		return nil, err
	}

	post.Title = strings.TrimSpace(req.Title)
	post.Excerpt = strings.TrimSpace(req.Excerpt)
	post.Body = req.Body
	post.AuthorName = strings.TrimSpace(req.AuthorName)
	post.PracticeArea = area
	post.PracticeAreaID = nil
	if area != nil {
		post.PracticeAreaID = &area.ID
	}
	s.applyStatus(post, req.Status)
	if err := s.renderPost(post); err != nil {
		return nil, err
	}

	if err := s.blogRepo.Update(ctx, post); err != nil {
		return nil, mapper.FormatError("blog post", "update", err)
	}

	invalidateContent(ctx, s.cache, s.logger)
	dto := mapper.ToBlogPostDTO(post, true)
	return &dto, nil
}

// Publish makes a post visible. The first publication date is kept when a
// post is unpublished and published again.
func (s *ContentService) Publish(ctx context.Context, id uuid.UUID) (*domain.BlogPostDTO, error) {
	return s.setStatus(ctx, id, domain.BlogPostStatusPublished)
}

// Unpublish hides a post from the public site
func (s *ContentService) Unpublish(ctx context.Context, id uuid.UUID) (*domain.BlogPostDTO, error) {
	return s.setStatus(ctx, id, domain.BlogPostStatusDraft)
}

func (s *ContentService) setStatus(ctx context.Context, id uuid.UUID, status domain.BlogPostStatus) (*domain.BlogPostDTO, error) {
	post, err := s.blogRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "blog post")
	}
	s.applyStatus(post, status)
	if err := s.blogRepo.Update(ctx, post); err != nil {
		return nil, mapper.FormatError("blog post", "update", err)
	}

	invalidateContent(ctx, s.cache, s.logger)
	s.logger.Info("blog post status changed",
		zap.String("post_id", post.ID.String()),
		zap.String("status", string(post.Status)))
	dto := mapper.ToBlogPostDTO(post, true)
	return &dto, nil
}

// applyStatus sets the status and stamps PublishedAt on first publication.
// An empty status leaves the post unchanged.
func (s *ContentService) applyStatus(post *domain.BlogPost, status domain.BlogPostStatus) {
	if status == "" {
		return
	}
	post.Status = status
	if status == domain.BlogPostStatusPublished && post.PublishedAt == nil {
		now := s.now()
		post.PublishedAt = &now
	}
}

// renderPost fills BodyHTML and, when missing, the excerpt
func (s *ContentService) renderPost(post *domain.BlogPost) error {
	html, err := s.renderer.Render(post.Body)
	if err != nil {
		return err
	}
	post.BodyHTML = html
	if post.Excerpt == "" {
		if post.Excerpt, err = s.renderer.PlainText(post.Body, excerptLength); err != nil {
			return err
		}
	}
	return nil
}

func (s *ContentService) resolvePracticeArea(ctx context.Context, id *uuid.UUID) (*domain.PracticeArea, error) {
	if id == nil || *id == uuid.Nil {
		return nil, nil
	}
	area, err := s.paRepo.GetByID(ctx, *id)
	if err != nil {
		return nil, notFoundOr(err, "practice area")
	}
	return area, nil
}

// UploadCover stores a cover image and removes the previous one
func (s *ContentService) UploadCover(ctx context.Context, id uuid.UUID, filename, contentType string, data io.Reader) (*domain.BlogPostDTO, error) {
	ct, err := checkImageType(contentType)
	if err != nil {
		return nil, err
	}
	post, err := s.blogRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "blog post")
	}

	path, _, err := s.storage.Upload(ctx, storage.FolderCovers, filename, ct, data)
	if err != nil {
		return nil, fmt.Errorf("failed to store cover image: %w", err)
	}

	previous := post.CoverImagePath
	post.CoverImagePath = path
	if err := s.blogRepo.Update(ctx, post); err != nil {
		s.removeFile(ctx, path)
		return nil, mapper.FormatError("blog post", "update", err)
	}
	s.removeFile(ctx, previous)

	invalidateContent(ctx, s.cache, s.logger)
	dto := mapper.ToBlogPostDTO(post, true)
	return &dto, nil
}

func (s *ContentService) DeletePost(ctx context.Context, id uuid.UUID) error {
	post, err := s.blogRepo.GetByID(ctx, id)
	if err != nil {
		return notFoundOr(err, "blog post")
	}
	if err := s.blogRepo.Delete(ctx, id); err != nil {
		return mapper.FormatError("blog post", "delete", err)
	}
	s.removeFile(ctx, post.CoverImagePath)

	invalidateContent(ctx, s.cache, s.logger)
	s.logger.Info("blog post deleted", zap.String("post_id", id.String()))
	return nil
}

func (s *ContentService) removeFile(ctx context.Context, path string) {
	if path == "" || s.storage == nil {
		return
	}
	if err := s.storage.Delete(ctx, path); err != nil {
		s.logger.Warn("failed to delete stored file", zap.String("path", path), zap.Error(err))
	}
}

// ListPublishedPosts returns visible posts newest first. practiceAreaSlug
// limits the list to one practice area when set.
func (s *ContentService) ListPublishedPosts(ctx context.Context, practiceAreaSlug string, page, pageSize int) (*domain.PaginatedResponse, error) {
	page, pageSize = repository.NormalizePagination(page, pageSize)

	var areaID *uuid.UUID
	if practiceAreaSlug != "" {
		area, err := s.paRepo.GetBySlug(ctx, strings.ToLower(practiceAreaSlug))
		if err != nil {
			return nil, notFoundOr(err, "practice area")
		}
		areaID = &area.ID
	}

	posts, total, err := s.blogRepo.ListPublished(ctx, areaID, s.now(), page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list blog posts: %w", err)
	}

	dtos := make([]domain.BlogPostDTO, len(posts))
	for i := range posts {
		dtos[i] = mapper.ToBlogPostDTO(&posts[i], false)
	}
	return &domain.PaginatedResponse{
		Data:       dtos,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	}, nil
}

// GetPublishedPost returns a visible post by slug
func (s *ContentService) GetPublishedPost(ctx context.Context, postSlug string) (*domain.BlogPostDTO, error) {
	key := cachePrefixContent + "post:" + strings.ToLower(postSlug)
	dto, err := readThrough(ctx, s.cache, s.logger, key, func() (domain.BlogPostDTO, error) {
		post, err := s.blogRepo.GetPublishedBySlug(ctx, strings.ToLower(postSlug), s.now())
		if err != nil {
			return domain.BlogPostDTO{}, notFoundOr(err, "blog post")
		}
		return mapper.ToBlogPostDTO(post, true), nil
	})
	if err != nil {
		return nil, err
	}
	return &dto, nil
}
