package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/lawdir/directory-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var lawyerSortFields = map[string]string{
	"lastName":  "LOWER(last_name)",
	"firstName": "LOWER(first_name)",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

type LawyerRepository struct {
	db *gorm.DB
}

func NewLawyerRepository(db *gorm.DB) *LawyerRepository {
	return &LawyerRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *LawyerRepository) WithTx(tx *gorm.DB) *LawyerRepository {
	return &LawyerRepository{db: tx}
}

// Create inserts a lawyer and links any practice areas set on the struct
func (r *LawyerRepository) Create(ctx context.Context, lawyer *domain.Lawyer) error {
	return r.db.WithContext(ctx).Omit("Firm", "Office", "PracticeAreas.*").Create(lawyer).Error
}

func (r *LawyerRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Lawyer, error) {
	var lawyer domain.Lawyer
	err := r.db.WithContext(ctx).
		Preload("Firm").
		Preload("PracticeAreas", orderByName).
		Where("id = ?", id).
		First(&lawyer).Error
	if err != nil {
		return nil, err
	}
	return &lawyer, nil
}

func (r *LawyerRepository) GetBySlug(ctx context.Context, slug string) (*domain.Lawyer, error) {
	var lawyer domain.Lawyer
	err := r.db.WithContext(ctx).
		Preload("Firm").
		Preload("PracticeAreas", orderByName).
		Where("slug = ?", slug).
		First(&lawyer).Error
	if err != nil {
		return nil, err
	}
	return &lawyer, nil
}

// SlugExists reports whether a slug is used by a lawyer other than excludeID
func (r *LawyerRepository) SlugExists(ctx context.Context, slug string, excludeID *uuid.UUID) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&domain.Lawyer{}).Where("slug = ?", slug)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

func (r *LawyerRepository) Update(ctx context.Context, lawyer *domain.Lawyer) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(lawyer).Error
}

func (r *LawyerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM lawyer_practice_areas WHERE lawyer_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.Lawyer{}, "id = ?", id).Error
	})
}

// ReplacePracticeAreas sets the lawyer's practice areas to exactly the given list
func (r *LawyerRepository) ReplacePracticeAreas(ctx context.Context, lawyer *domain.Lawyer, areas []domain.PracticeArea) error {
	return r.db.WithContext(ctx).Model(lawyer).Association("PracticeAreas").Replace(areas)
}

// ListByFirm returns a firm's lawyers ordered by surname
func (r *LawyerRepository) ListByFirm(ctx context.Context, firmID uuid.UUID) ([]domain.Lawyer, error) {
	var lawyers []domain.Lawyer
	err := r.db.WithContext(ctx).
		Preload("PracticeAreas", orderByName).
		Where("firm_id = ?", firmID).
		Order("last_name ASC").Order("first_name ASC").
		Find(&lawyers).Error
	return lawyers, err
}

// List returns lawyers across firms with optional name search and firm filter
func (r *LawyerRepository) List(ctx context.Context, firmID *uuid.UUID, search string, sort SortConfig, page, pageSize int) ([]domain.Lawyer, int64, error) {
	var lawyers []domain.Lawyer
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Lawyer{})
	if firmID != nil {
		query = query.Where("firm_id = ?", *firmID)
	}
	if search != "" {
		pattern := likePattern(search)
		query = query.Where("(LOWER(first_name) LIKE ? ESCAPE '\\' OR LOWER(last_name) LIKE ? ESCAPE '\\')", pattern, pattern)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, pageSize = NormalizePagination(page, pageSize)
	err := paginate(query, page, pageSize).
		Preload("Firm").
		Preload("PracticeAreas", orderByName).
		Order(BuildOrderClause(sort, lawyerSortFields, "updated_at")).
		Find(&lawyers).Error
	return lawyers, total, err
}

func (r *LawyerRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Lawyer{}).Count(&count).Error
	return count, err
}
