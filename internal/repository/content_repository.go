package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lawdir/directory-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PageRepository struct {
	db *gorm.DB
}

func NewPageRepository(db *gorm.DB) *PageRepository {
	return &PageRepository{db: db}
}

func (r *PageRepository) Create(ctx context.Context, page *domain.Page) error {
	return r.db.WithContext(ctx).Create(page).Error
}

func (r *PageRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Page, error) {
	var page domain.Page
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&page).Error; err != nil {
		return nil, err
	}
	return &page, nil
}

// GetPublishedBySlug only returns pages visible to the public
func (r *PageRepository) GetPublishedBySlug(ctx context.Context, slug string) (*domain.Page, error) {
	var page domain.Page
	err := r.db.WithContext(ctx).
		Where("slug = ? AND is_published = ?", slug, true).
		First(&page).Error
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// SlugExists reports whether a slug is used by a page other than excludeID
func (r *PageRepository) SlugExists(ctx context.Context, slug string, excludeID *uuid.UUID) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&domain.Page{}).Where("slug = ?", slug)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

func (r *PageRepository) Update(ctx context.Context, page *domain.Page) error {
	return r.db.WithContext(ctx).Save(page).Error
}

func (r *PageRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Page{}, "id = ?", id).Error
}

// List returns every page for the admin dashboard
func (r *PageRepository) List(ctx context.Context, page, pageSize int) ([]domain.Page, int64, error) {
	var pages []domain.Page
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Page{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, pageSize = NormalizePagination(page, pageSize)
	err := paginate(query, page, pageSize).Order("sort_order ASC").Order("title ASC").Find(&pages).Error
	return pages, total, err
}

// ListNav returns published pages flagged for the site navigation
func (r *PageRepository) ListNav(ctx context.Context) ([]domain.Page, error) {
	var pages []domain.Page
	err := r.db.WithContext(ctx).
		Where("is_published = ? AND show_in_nav = ?", true, true).
		Order("sort_order ASC").Order("title ASC").
		Find(&pages).Error
	return pages, err
}

var blogSortFields = map[string]string{
	"title":       "LOWER(title)",
	"publishedAt": "published_at",
	"createdAt":   "created_at",
	"updatedAt":   "updated_at",
}

type BlogPostRepository struct {
	db *gorm.DB
}

func NewBlogPostRepository(db *gorm.DB) *BlogPostRepository {
	return &BlogPostRepository{db: db}
}

func (r *BlogPostRepository) Create(ctx context.Context, post *domain.BlogPost) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error
}

func (r *BlogPostRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.BlogPost, error) {
	var post domain.BlogPost
	if err := r.db.WithContext(ctx).Preload("PracticeArea").Where("id = ?", id).First(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// GetPublishedBySlug only returns posts that are published and not scheduled in the future
func (r *BlogPostRepository) GetPublishedBySlug(ctx context.Context, slug string, now time.Time) (*domain.BlogPost, error) {
	var post domain.BlogPost
	err := r.db.WithContext(ctx).Preload("PracticeArea").
		Where("slug = ? AND status = ? AND published_at <= ?", slug, domain.BlogPostStatusPublished, now).
		First(&post).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// SlugExists reports whether a slug is used by a post other than excludeID
func (r *BlogPostRepository) SlugExists(ctx context.Context, slug string, excludeID *uuid.UUID) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&domain.BlogPost{}).Where("slug = ?", slug)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

func (r *BlogPostRepository) Update(ctx context.Context, post *domain.BlogPost) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(post).Error
}

func (r *BlogPostRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.BlogPost{}, "id = ?", id).Error
}

// List returns posts for the admin dashboard, optionally filtered by status
func (r *BlogPostRepository) List(ctx context.Context, status *domain.BlogPostStatus, search string, sort SortConfig, page, pageSize int) ([]domain.BlogPost, int64, error) {
	var posts []domain.BlogPost
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.BlogPost{})
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	if search != "" {
		query = query.Where("LOWER(title) LIKE ? ESCAPE '\\'", likePattern(search))
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, pageSize = NormalizePagination(page, pageSize)
	err := paginate(query, page, pageSize).
		Preload("PracticeArea").
		Order(BuildOrderClause(sort, blogSortFields, "updated_at")).
		Find(&posts).Error
	return posts, total, err
}

// ListPublished returns visible posts newest first, optionally for one practice area
func (r *BlogPostRepository) ListPublished(ctx context.Context, practiceAreaID *uuid.UUID, now time.Time, page, pageSize int) ([]domain.BlogPost, int64, error) {
	var posts []domain.BlogPost
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.BlogPost{}).
		Where("status = ? AND published_at <= ?", domain.BlogPostStatusPublished, now)
	if practiceAreaID != nil {
		query = query.Where("practice_area_id = ?", *practiceAreaID)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, pageSize = NormalizePagination(page, pageSize)
	err := paginate(query, page, pageSize).
		Preload("PracticeArea").
		Order("published_at DESC").
		Find(&posts).Error
	return posts, total, err
}

func (r *BlogPostRepository) CountPublished(ctx context.Context, now time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.BlogPost{}).
		Where("status = ? AND published_at <= ?", domain.BlogPostStatusPublished, now).
		Count(&count).Error
	return count, err
}
