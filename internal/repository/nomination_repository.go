package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/lawdir/directory-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type NominationRepository struct {
	db *gorm.DB
}

func NewNominationRepository(db *gorm.DB) *NominationRepository {
	return &NominationRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *NominationRepository) WithTx(tx *gorm.DB) *NominationRepository {
	return &NominationRepository{db: tx}
}

func (r *NominationRepository) Create(ctx context.Context, n *domain.Nomination) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(n).Error
}

func (r *NominationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Nomination, error) {
	var n domain.Nomination
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&n).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

// GetByIDForUpdate locks the row inside a transaction on databases that support it
func (r *NominationRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Nomination, error) {
	var n domain.Nomination
	query := r.db.WithContext(ctx)
	if query.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := query.Where("id = ?", id).First(&n).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

// MarkReviewed writes the review outcome only while the row is still pending.
// It returns false when another reviewer got there first.
func (r *NominationRepository) MarkReviewed(ctx context.Context, n *domain.Nomination) (bool, error) {
	result := r.db.WithContext(ctx).Model(&domain.Nomination{}).
		Where("id = ? AND status = ?", n.ID, domain.NominationStatusPending).
		Updates(map[string]interface{}{
			"status":           n.Status,
			"reviewed_by_id":   n.ReviewedByID,
			"reviewed_by_name": n.ReviewedByName,
			"reviewed_at":      n.ReviewedAt,
			"review_notes":     n.ReviewNotes,
			"firm_id":          n.FirmID,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ExistsPending reports whether the same nominator already has a pending
// nomination for a firm with the same name
func (r *NominationRepository) ExistsPending(ctx context.Context, firmName, nominatorEmail string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Nomination{}).
		Where("status = ?", domain.NominationStatusPending).
		Where("LOWER(firm_name) = ?", strings.ToLower(strings.TrimSpace(firmName))).
		Where("LOWER(nominator_email) = ?", strings.ToLower(strings.TrimSpace(nominatorEmail))).
		Count(&count).Error
	return count > 0, err
}

// List returns nominations newest first, optionally filtered by status and firm name
func (r *NominationRepository) List(ctx context.Context, status *domain.NominationStatus, search string, page, pageSize int) ([]domain.Nomination, int64, error) {
	var nominations []domain.Nomination
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Nomination{})
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	if search != "" {
		pattern := likePattern(search)
		query = query.Where("(LOWER(firm_name) LIKE ? ESCAPE '\\' OR LOWER(nominator_email) LIKE ? ESCAPE '\\')", pattern, pattern)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, pageSize = NormalizePagination(page, pageSize)
	err := paginate(query, page, pageSize).Order("created_at DESC").Find(&nominations).Error
	return nominations, total, err
}

// ListPending returns the oldest pending nominations first
func (r *NominationRepository) ListPending(ctx context.Context, limit int) ([]domain.Nomination, error) {
	var nominations []domain.Nomination
	err := r.db.WithContext(ctx).
		Where("status = ?", domain.NominationStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&nominations).Error
	return nominations, err
}

// Recent returns the most recently submitted nominations
func (r *NominationRepository) Recent(ctx context.Context, limit int) ([]domain.Nomination, error) {
	var nominations []domain.Nomination
	err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&nominations).Error
	return nominations, err
}

func (r *NominationRepository) CountByStatus(ctx context.Context, status domain.NominationStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Nomination{}).Where("status = ?", status).Count(&count).Error
	return count, err
}
