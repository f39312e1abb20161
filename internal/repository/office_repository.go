package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/lawdir/directory-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OfficeRepository struct {
	db *gorm.DB
}

func NewOfficeRepository(db *gorm.DB) *OfficeRepository {
	return &OfficeRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *OfficeRepository) WithTx(tx *gorm.DB) *OfficeRepository {
	return &OfficeRepository{db: tx}
}

func (r *OfficeRepository) Create(ctx context.Context, office *domain.Office) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(office).Error
}

func (r *OfficeRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Office, error) {
	var office domain.Office
	err := r.db.WithContext(ctx).
		Preload("State").Preload("Metro").Preload("City").
		Where("id = ?", id).
		First(&office).Error
	if err != nil {
		return nil, err
	}
	return &office, nil
}

func (r *OfficeRepository) Update(ctx context.Context, office *domain.Office) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(office).Error
}

// Delete removes an office and detaches lawyers assigned to it
func (r *OfficeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&domain.Lawyer{}).Where("office_id = ?", id).Update("office_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.Office{}, "id = ?", id).Error
	})
}

// ListByFirm returns a firm's offices, headquarters first
func (r *OfficeRepository) ListByFirm(ctx context.Context, firmID uuid.UUID) ([]domain.Office, error) {
	var offices []domain.Office
	err := r.db.WithContext(ctx).
		Preload("State").Preload("Metro").Preload("City").
		Where("firm_id = ?", firmID).
		Order("is_headquarters DESC").Order("name ASC").
		Find(&offices).Error
	return offices, err
}

// ClearHeadquarters unsets the headquarters flag on every office of the firm except keepID
func (r *OfficeRepository) ClearHeadquarters(ctx context.Context, firmID uuid.UUID, keepID *uuid.UUID) error {
	query := r.db.WithContext(ctx).Model(&domain.Office{}).
		Where("firm_id = ? AND is_headquarters = ?", firmID, true)
	if keepID != nil {
		query = query.Where("id <> ?", *keepID)
	}
	return query.Update("is_headquarters", false).Error
}

// HasHeadquarters reports whether the firm already has a headquarters office
func (r *OfficeRepository) HasHeadquarters(ctx context.Context, firmID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Office{}).
		Where("firm_id = ? AND is_headquarters = ?", firmID, true).
		Count(&count).Error
	return count > 0, err
}

// FindByFirmCityAddress matches an existing office by firm, city and a
// case-insensitive address; an empty address matches an office without one.
func (r *OfficeRepository) FindByFirmCityAddress(ctx context.Context, firmID, cityID uuid.UUID, address string) (*domain.Office, error) {
	var office domain.Office
	err := r.db.WithContext(ctx).
		Where("firm_id = ? AND city_id = ? AND LOWER(address) = ?", firmID, cityID, strings.ToLower(strings.TrimSpace(address))).
		First(&office).Error
	if err != nil {
		return nil, err
	}
	return &office, nil
}

func (r *OfficeRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Office{}).Count(&count).Error
	return count, err
}
