package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/lawdir/directory-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StateRepository struct {
	db *gorm.DB
}

func NewStateRepository(db *gorm.DB) *StateRepository {
	return &StateRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *StateRepository) WithTx(tx *gorm.DB) *StateRepository {
	return &StateRepository{db: tx}
}

func (r *StateRepository) Create(ctx context.Context, state *domain.State) error {
	return r.db.WithContext(ctx).Create(state).Error
}

func (r *StateRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.State, error) {
	var state domain.State
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&state).Error; err != nil {
		return nil, err
	}
	return &state, nil
}

func (r *StateRepository) GetBySlug(ctx context.Context, slug string) (*domain.State, error) {
	var state domain.State
	if err := r.db.WithContext(ctx).Where("slug = ?", strings.ToLower(slug)).First(&state).Error; err != nil {
		return nil, err
	}
	return &state, nil
}

// GetBySlugOrCode accepts either "new-york" or "NY"
func (r *StateRepository) GetBySlugOrCode(ctx context.Context, value string) (*domain.State, error) {
	var state domain.State
	err := r.db.WithContext(ctx).
		Where("slug = ? OR code = ?", strings.ToLower(value), strings.ToUpper(value)).
		First(&state).Error
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// FindByNameOrCode matches a case-insensitive full name or a two-letter code
func (r *StateRepository) FindByNameOrCode(ctx context.Context, value string) (*domain.State, error) {
	value = strings.TrimSpace(value)
	var state domain.State
	err := r.db.WithContext(ctx).
		Where("LOWER(name) = ? OR code = ?", strings.ToLower(value), strings.ToUpper(value)).
		First(&state).Error
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (r *StateRepository) Update(ctx context.Context, state *domain.State) error {
	return r.db.WithContext(ctx).Save(state).Error
}

func (r *StateRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.State{}, "id = ?", id).Error
}

// List returns all states ordered by name
func (r *StateRepository) List(ctx context.Context) ([]domain.State, error) {
	var states []domain.State
	err := r.db.WithContext(ctx).Order("name ASC").Find(&states).Error
	return states, err
}

// CountCities reports how many cities reference the state
func (r *StateRepository) CountCities(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.City{}).Where("state_id = ?", id).Count(&count).Error
	return count, err
}

// CountMetros reports how many metros belong to the state
func (r *StateRepository) CountMetros(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Metro{}).Where("state_id = ?", id).Count(&count).Error
	return count, err
}

type MetroRepository struct {
	db *gorm.DB
}

func NewMetroRepository(db *gorm.DB) *MetroRepository {
	return &MetroRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *MetroRepository) WithTx(tx *gorm.DB) *MetroRepository {
	return &MetroRepository{db: tx}
}

func (r *MetroRepository) Create(ctx context.Context, metro *domain.Metro) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(metro).Error
}

func (r *MetroRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Metro, error) {
	var metro domain.Metro
	if err := r.db.WithContext(ctx).Preload("State").Where("id = ?", id).First(&metro).Error; err != nil {
		return nil, err
	}
	return &metro, nil
}

func (r *MetroRepository) GetBySlug(ctx context.Context, stateID uuid.UUID, slug string) (*domain.Metro, error) {
	var metro domain.Metro
	err := r.db.WithContext(ctx).Preload("State").
		Where("state_id = ? AND slug = ?", stateID, strings.ToLower(slug)).
		First(&metro).Error
	if err != nil {
		return nil, err
	}
	return &metro, nil
}

func (r *MetroRepository) Update(ctx context.Context, metro *domain.Metro) error {
	return r.db.WithContext(ctx).Omit("State").Save(metro).Error
}

// Delete removes a metro and detaches the cities and offices that referenced it
func (r *MetroRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&domain.City{}).Where("metro_id = ?", id).Update("metro_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&domain.Office{}).Where("metro_id = ?", id).Update("metro_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.Metro{}, "id = ?", id).Error
	})
}

// ListByState returns the metros of a state ordered by name
func (r *MetroRepository) ListByState(ctx context.Context, stateID uuid.UUID) ([]domain.Metro, error) {
	var metros []domain.Metro
	err := r.db.WithContext(ctx).Preload("State").
		Where("state_id = ?", stateID).
		Order("name ASC").
		Find(&metros).Error
	return metros, err
}

// List returns every metro, optionally limited to one state
func (r *MetroRepository) List(ctx context.Context, stateID *uuid.UUID) ([]domain.Metro, error) {
	var metros []domain.Metro
	query := r.db.WithContext(ctx).Preload("State")
	if stateID != nil {
		query = query.Where("state_id = ?", *stateID)
	}
	err := query.Order("name ASC").Find(&metros).Error
	return metros, err
}

type CityRepository struct {
	db *gorm.DB
}

func NewCityRepository(db *gorm.DB) *CityRepository {
	return &CityRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *CityRepository) WithTx(tx *gorm.DB) *CityRepository {
	return &CityRepository{db: tx}
}

func (r *CityRepository) Create(ctx context.Context, city *domain.City) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(city).Error
}

func (r *CityRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.City, error) {
	var city domain.City
	if err := r.db.WithContext(ctx).Preload("State").Preload("Metro").Where("id = ?", id).First(&city).Error; err != nil {
		return nil, err
	}
	return &city, nil
}

func (r *CityRepository) GetBySlug(ctx context.Context, stateID uuid.UUID, slug string) (*domain.City, error) {
	var city domain.City
	err := r.db.WithContext(ctx).Preload("State").Preload("Metro").
		Where("state_id = ? AND slug = ?", stateID, strings.ToLower(slug)).
		First(&city).Error
	if err != nil {
		return nil, err
	}
	return &city, nil
}

func (r *CityRepository) Update(ctx context.Context, city *domain.City) error {
	return r.db.WithContext(ctx).Omit("State", "Metro").Save(city).Error
}

func (r *CityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.City{}, "id = ?", id).Error
}

// ListByState returns the cities of a state ordered by name
func (r *CityRepository) ListByState(ctx context.Context, stateID uuid.UUID) ([]domain.City, error) {
	var cities []domain.City
	err := r.db.WithContext(ctx).Preload("State").Preload("Metro").
		Where("state_id = ?", stateID).
		Order("name ASC").
		Find(&cities).Error
	return cities, err
}

// ListByMetro returns the cities grouped under a metro
func (r *CityRepository) ListByMetro(ctx context.Context, metroID uuid.UUID) ([]domain.City, error) {
	var cities []domain.City
	err := r.db.WithContext(ctx).Preload("State").Preload("Metro").
		Where("metro_id = ?", metroID).
		Order("name ASC").
		Find(&cities).Error
	return cities, err
}

// List returns cities with pagination, optionally filtered by state and name
func (r *CityRepository) List(ctx context.Context, stateID *uuid.UUID, search string, page, pageSize int) ([]domain.City, int64, error) {
	var cities []domain.City
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.City{})
	if stateID != nil {
		query = query.Where("state_id = ?", *stateID)
	}
	if search != "" {
		query = query.Where("LOWER(name) LIKE ? ESCAPE '\\'", likePattern(search))
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, pageSize = NormalizePagination(page, pageSize)
	err := paginate(query, page, pageSize).
		Preload("State").Preload("Metro").
		Order("name ASC").
		Find(&cities).Error
	return cities, total, err
}

// SyncOfficeMetro moves every office in the city to the city's metro
func (r *CityRepository) SyncOfficeMetro(ctx context.Context, cityID uuid.UUID, metroID *uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&domain.Office{}).
		Where("city_id = ?", cityID).
		Update("metro_id", metroID).Error
}

// CountOffices reports how many offices are located in the city
func (r *CityRepository) CountOffices(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Office{}).Where("city_id = ?", id).Count(&count).Error
	return count, err
}
