package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/lawdir/directory-api/internal/domain"
	"gorm.io/gorm"
)

type ImportRunRepository struct {
	db *gorm.DB
}

func NewImportRunRepository(db *gorm.DB) *ImportRunRepository {
	return &ImportRunRepository{db: db}
}

func (r *ImportRunRepository) Create(ctx context.Context, run *domain.ImportRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *ImportRunRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ImportRun, error) {
	var run domain.ImportRun
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&run).Error; err != nil {
		return nil, err
	}
	return &run, nil
}

// List returns import history newest first
func (r *ImportRunRepository) List(ctx context.Context, page, pageSize int) ([]domain.ImportRun, int64, error) {
	var runs []domain.ImportRun
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.ImportRun{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, pageSize = NormalizePagination(page, pageSize)
	err := paginate(query, page, pageSize).Order("created_at DESC").Find(&runs).Error
	return runs, total, err
}

// Recent returns the latest import runs
func (r *ImportRunRepository) Recent(ctx context.Context, limit int) ([]domain.ImportRun, error) {
	var runs []domain.ImportRun
	err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&runs).Error
	return runs, err
}
