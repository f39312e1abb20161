package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/lawdir/directory-api/internal/domain"
	"gorm.io/gorm"
)

type PracticeAreaRepository struct {
	db *gorm.DB
}

func NewPracticeAreaRepository(db *gorm.DB) *PracticeAreaRepository {
	return &PracticeAreaRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *PracticeAreaRepository) WithTx(tx *gorm.DB) *PracticeAreaRepository {
	return &PracticeAreaRepository{db: tx}
}

func (r *PracticeAreaRepository) Create(ctx context.Context, pa *domain.PracticeArea) error {
	return r.db.WithContext(ctx).Create(pa).Error
}

func (r *PracticeAreaRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.PracticeArea, error) {
	var pa domain.PracticeArea
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&pa).Error; err != nil {
		return nil, err
	}
	return &pa, nil
}

func (r *PracticeAreaRepository) GetBySlug(ctx context.Context, slug string) (*domain.PracticeArea, error) {
	var pa domain.PracticeArea
	if err := r.db.WithContext(ctx).Where("slug = ?", strings.ToLower(slug)).First(&pa).Error; err != nil {
		return nil, err
	}
	return &pa, nil
}

// FindByNameOrSlug matches a case-insensitive name or an exact slug
func (r *PracticeAreaRepository) FindByNameOrSlug(ctx context.Context, name, slug string) (*domain.PracticeArea, error) {
	var pa domain.PracticeArea
	err := r.db.WithContext(ctx).
		Where("LOWER(name) = ? OR slug = ?", strings.ToLower(strings.TrimSpace(name)), slug).
		First(&pa).Error
	if err != nil {
		return nil, err
	}
	return &pa, nil
}

// GetByIDs loads the practice areas with the given IDs; unknown IDs are skipped
func (r *PracticeAreaRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.PracticeArea, error) {
	if len(ids) == 0 {
		return []domain.PracticeArea{}, nil
	}
	var areas []domain.PracticeArea
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("name ASC").Find(&areas).Error
	return areas, err
}

func (r *PracticeAreaRepository) Update(ctx context.Context, pa *domain.PracticeArea) error {
	return r.db.WithContext(ctx).Save(pa).Error
}

// Delete removes a practice area along with its firm and lawyer links
func (r *PracticeAreaRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM firm_practice_areas WHERE practice_area_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM lawyer_practice_areas WHERE practice_area_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Model(&domain.BlogPost{}).Where("practice_area_id = ?", id).Update("practice_area_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.PracticeArea{}, "id = ?", id).Error
	})
}

// List returns all practice areas in display order, optionally filtered by name
func (r *PracticeAreaRepository) List(ctx context.Context, search string) ([]domain.PracticeArea, error) {
	var areas []domain.PracticeArea
	query := r.db.WithContext(ctx)
	if search != "" {
		query = query.Where("LOWER(name) LIKE ? ESCAPE '\\'", likePattern(search))
	}
	err := query.Order("sort_order ASC").Order("name ASC").Find(&areas).Error
	return areas, err
}

// ListFeatured returns the practice areas flagged for the home page
func (r *PracticeAreaRepository) ListFeatured(ctx context.Context, limit int) ([]domain.PracticeArea, error) {
	var areas []domain.PracticeArea
	err := r.db.WithContext(ctx).
		Where("is_featured = ?", true).
		Order("sort_order ASC").Order("name ASC").
		Limit(limit).
		Find(&areas).Error
	return areas, err
}

func (r *PracticeAreaRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.PracticeArea{}).Count(&count).Error
	return count, err
}
