package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lawdir/directory-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FirmFilters are the dynamic predicates of a firm search. Location and
// practice area filters are slugs; State also matches a two-letter code.
type FirmFilters struct {
	Query        string
	State        string
	Metro        string
	City         string
	PracticeArea string
	MinTier      int
	PremiumOnly  bool
	// Status limits results to one status; nil returns every firm
	Status *domain.FirmStatus
	// Now is the reference time for premium expiry; zero means time.Now
	Now time.Time
}

// firmSortFields whitelists admin sort keys
var firmSortFields = map[string]string{
	"name":      "LOWER(firms.name)",
	"tier":      "firms.tier",
	"createdAt": "firms.created_at",
	"updatedAt": "firms.updated_at",
	"status":    "firms.status",
}

// FirmCount pairs an entity ID with the number of active firms attached to it
type FirmCount struct {
	ID        uuid.UUID
	FirmCount int64
}

type FirmRepository struct {
	db *gorm.DB
}

func NewFirmRepository(db *gorm.DB) *FirmRepository {
	return &FirmRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *FirmRepository) WithTx(tx *gorm.DB) *FirmRepository {
	return &FirmRepository{db: tx}
}

// Create inserts a firm. Practice areas on the struct are linked, not created.
func (r *FirmRepository) Create(ctx context.Context, firm *domain.Firm) error {
	return r.db.WithContext(ctx).Omit("Offices", "Lawyers", "PracticeAreas.*").Create(firm).Error
}

func (r *FirmRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Firm, error) {
	var firm domain.Firm
	err := r.db.WithContext(ctx).
		Preload("PracticeAreas", orderByName).
		Where("id = ?", id).
		First(&firm).Error
	if err != nil {
		return nil, err
	}
	return &firm, nil
}

func (r *FirmRepository) GetBySlug(ctx context.Context, slug string) (*domain.Firm, error) {
	var firm domain.Firm
	err := r.db.WithContext(ctx).
		Preload("PracticeAreas", orderByName).
		Where("slug = ?", strings.ToLower(slug)).
		First(&firm).Error
	if err != nil {
		return nil, err
	}
	return &firm, nil
}

// GetDetail loads a firm with offices, lawyers and practice areas
func (r *FirmRepository) GetDetail(ctx context.Context, query string, args ...interface{}) (*domain.Firm, error) {
	var firm domain.Firm
	err := r.db.WithContext(ctx).
		Preload("PracticeAreas", orderByName).
		Preload("Offices", func(db *gorm.DB) *gorm.DB {
			return db.Order("is_headquarters DESC").Order("name ASC")
		}).
		Preload("Offices.State").
		Preload("Offices.Metro").
		Preload("Offices.City").
		Preload("Lawyers", func(db *gorm.DB) *gorm.DB {
			return db.Order("last_name ASC").Order("first_name ASC")
		}).
		Preload("Lawyers.PracticeAreas", orderByName).
		Where(query, args...).
		First(&firm).Error
	if err != nil {
		return nil, err
	}
	return &firm, nil
}

// SlugExists reports whether a slug is used by a firm other than excludeID
func (r *FirmRepository) SlugExists(ctx context.Context, slug string, excludeID *uuid.UUID) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&domain.Firm{}).Where("slug = ?", slug)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

// Update saves scalar columns only; associations are managed separately
func (r *FirmRepository) Update(ctx context.Context, firm *domain.Firm) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(firm).Error
}

// Delete removes a firm together with its offices, lawyers and practice-area links
func (r *FirmRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM lawyer_practice_areas WHERE lawyer_id IN (SELECT id FROM lawyers WHERE firm_id = ?)", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&domain.Lawyer{}, "firm_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&domain.Office{}, "firm_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM firm_practice_areas WHERE firm_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Model(&domain.Nomination{}).Where("firm_id = ?", id).Update("firm_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.Firm{}, "id = ?", id).Error
	})
}

// ReplacePracticeAreas sets the firm's practice areas to exactly the given list
func (r *FirmRepository) ReplacePracticeAreas(ctx context.Context, firm *domain.Firm, areas []domain.PracticeArea) error {
	return r.db.WithContext(ctx).Model(firm).Association("PracticeAreas").Replace(areas)
}

// AppendPracticeAreas links additional practice areas, ignoring existing links
func (r *FirmRepository) AppendPracticeAreas(ctx context.Context, firm *domain.Firm, areas []domain.PracticeArea) error {
	if len(areas) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(firm).Association("PracticeAreas").Append(areas)
}

// Search runs the dynamic directory query. With a nil sort the public listing
// order applies: active premium first, then higher tier, then name.
func (r *FirmRepository) Search(ctx context.Context, filters FirmFilters, sort *SortConfig, page, pageSize int) ([]domain.Firm, int64, error) {
	var firms []domain.Firm
	var total int64

	now := filters.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	query := r.applyFilters(r.db.WithContext(ctx).Model(&domain.Firm{}), filters, now)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if sort != nil {
		query = query.Order(BuildOrderClause(*sort, firmSortFields, "firms.updated_at"))
	} else {
		query = ListingOrder(query, now)
	}

	page, pageSize = NormalizePagination(page, pageSize)
	err := paginate(query, page, pageSize).
		Preload("PracticeAreas", orderByName).
		Preload("Offices", "is_headquarters = ?", true).
		Preload("Offices.State").
		Preload("Offices.City").
		Find(&firms).Error
	return firms, total, err
}

// ListingOrder applies the directory ranking to a firms query
func ListingOrder(query *gorm.DB, now time.Time) *gorm.DB {
	return query.
		Order(clause.OrderBy{Expression: clause.Expr{
			SQL:                "CASE WHEN firms.is_premium = ? AND (firms.premium_until IS NULL OR firms.premium_until > ?) THEN 0 ELSE 1 END",
			Vars:               []interface{}{true, now},
			WithoutParentheses: true,
		}}).
		Order("firms.tier DESC").
		Order("LOWER(firms.name) ASC")
}

func (r *FirmRepository) applyFilters(query *gorm.DB, f FirmFilters, now time.Time) *gorm.DB {
	if f.Status != nil {
		query = query.Where("firms.status = ?", *f.Status)
	}

	if q := strings.TrimSpace(f.Query); q != "" {
		pattern := likePattern(q)
		query = query.Where("(LOWER(firms.name) LIKE ? ESCAPE '\\' OR LOWER(firms.description) LIKE ? ESCAPE '\\')", pattern, pattern)
	}

	if f.MinTier > 0 {
		query = query.Where("firms.tier >= ?", f.MinTier)
	}

	if f.PremiumOnly {
		query = query.Where("firms.is_premium = ? AND (firms.premium_until IS NULL OR firms.premium_until > ?)", true, now)
	}

	// All location predicates must hold for the same office
	if f.State != "" || f.Metro != "" || f.City != "" {
		offices := r.db.Table("offices").Select("offices.firm_id")
		if f.State != "" {
			offices = offices.
				Joins("JOIN states ON states.id = offices.state_id").
				Where("(states.slug = ? OR states.code = ?)", strings.ToLower(f.State), strings.ToUpper(f.State))
		}
		if f.Metro != "" {
			offices = offices.
				Joins("JOIN metros ON metros.id = offices.metro_id").
				Where("metros.slug = ?", strings.ToLower(f.Metro))
		}
		if f.City != "" {
			offices = offices.
				Joins("JOIN cities ON cities.id = offices.city_id").
				Where("cities.slug = ?", strings.ToLower(f.City))
		}
		query = query.Where("firms.id IN (?)", offices)
	}

	if f.PracticeArea != "" {
		areas := r.db.Table("firm_practice_areas").
			Select("firm_practice_areas.firm_id").
			Joins("JOIN practice_areas ON practice_areas.id = firm_practice_areas.practice_area_id").
			Where("practice_areas.slug = ?", strings.ToLower(f.PracticeArea))
		query = query.Where("firms.id IN (?)", areas)
	}

	return query
}

// CountByStatus counts firms, optionally restricted to one status
func (r *FirmRepository) CountByStatus(ctx context.Context, status *domain.FirmStatus) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&domain.Firm{})
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	err := query.Count(&count).Error
	return count, err
}

// CountPremium counts firms whose premium placement is currently in effect
func (r *FirmRepository) CountPremium(ctx context.Context, now time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Firm{}).
		Where("is_premium = ? AND (premium_until IS NULL OR premium_until > ?)", true, now).
		Count(&count).Error
	return count, err
}

// ExpirePremium clears the premium flag of firms whose premium_until has passed
// and returns the affected firms.
func (r *FirmRepository) ExpirePremium(ctx context.Context, now time.Time) ([]domain.Firm, error) {
	var expired []domain.Firm
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("is_premium = ? AND premium_until IS NOT NULL AND premium_until <= ?", true, now).
			Find(&expired).Error; err != nil {
			return err
		}
		if len(expired) == 0 {
			return nil
		}
		ids := make([]uuid.UUID, 0, len(expired))
		for _, f := range expired {
			ids = append(ids, f.ID)
		}
		return tx.Model(&domain.Firm{}).
			Where("id IN ?", ids).
			Updates(map[string]interface{}{"is_premium": false, "updated_at": now}).Error
	})
	return expired, err
}

// CountsByState counts active firms with at least one office in each state
func (r *FirmRepository) CountsByState(ctx context.Context) (map[uuid.UUID]int64, error) {
	return r.countsThroughOffices(ctx, "offices.state_id", nil)
}

// CountsByMetro counts active firms per metro within a state
func (r *FirmRepository) CountsByMetro(ctx context.Context, stateID uuid.UUID) (map[uuid.UUID]int64, error) {
	return r.countsThroughOffices(ctx, "offices.metro_id", &stateID)
}

// CountsByCity counts active firms per city within a state
func (r *FirmRepository) CountsByCity(ctx context.Context, stateID uuid.UUID) (map[uuid.UUID]int64, error) {
	return r.countsThroughOffices(ctx, "offices.city_id", &stateID)
}

func (r *FirmRepository) countsThroughOffices(ctx context.Context, column string, stateID *uuid.UUID) (map[uuid.UUID]int64, error) {
	var rows []FirmCount
	query := r.db.WithContext(ctx).Table("offices").
		Select(column+" AS id, COUNT(DISTINCT offices.firm_id) AS firm_count").
		Joins("JOIN firms ON firms.id = offices.firm_id").
		Where("firms.status = ?", domain.FirmStatusActive).
		Where(column + " IS NOT NULL")
	if stateID != nil {
		query = query.Where("offices.state_id = ?", *stateID)
	}
	if err := query.Group(column).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return toCountMap(rows), nil
}

// CountsByPracticeArea counts active firms per practice area, optionally within a state
func (r *FirmRepository) CountsByPracticeArea(ctx context.Context, stateID *uuid.UUID) (map[uuid.UUID]int64, error) {
	var rows []FirmCount
	query := r.db.WithContext(ctx).Table("firm_practice_areas").
		Select("firm_practice_areas.practice_area_id AS id, COUNT(DISTINCT firm_practice_areas.firm_id) AS firm_count").
		Joins("JOIN firms ON firms.id = firm_practice_areas.firm_id").
		Where("firms.status = ?", domain.FirmStatusActive)
	if stateID != nil {
		sub := r.db.Table("offices").Select("offices.firm_id").Where("offices.state_id = ?", *stateID)
		query = query.Where("firm_practice_areas.firm_id IN (?)", sub)
	}
	if err := query.Group("firm_practice_areas.practice_area_id").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return toCountMap(rows), nil
}

// StateCountsForPracticeArea counts active firms offering a practice area in each state
func (r *FirmRepository) StateCountsForPracticeArea(ctx context.Context, practiceAreaID uuid.UUID) (map[uuid.UUID]int64, error) {
	var rows []FirmCount
	err := r.db.WithContext(ctx).Table("offices").
		Select("offices.state_id AS id, COUNT(DISTINCT offices.firm_id) AS firm_count").
		Joins("JOIN firms ON firms.id = offices.firm_id").
		Joins("JOIN firm_practice_areas ON firm_practice_areas.firm_id = offices.firm_id").
		Where("firms.status = ?", domain.FirmStatusActive).
		Where("firm_practice_areas.practice_area_id = ?", practiceAreaID).
		Group("offices.state_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return toCountMap(rows), nil
}

func toCountMap(rows []FirmCount) map[uuid.UUID]int64 {
	counts := make(map[uuid.UUID]int64, len(rows))
	for _, row := range rows {
		counts[row.ID] = row.FirmCount
	}
	return counts
}

func orderByName(db *gorm.DB) *gorm.DB {
	return db.Order("name ASC")
}
