package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lawdir/directory-api/internal/cache"
	"github.com/lawdir/directory-api/internal/domain"
	"github.com/lawdir/directory-api/internal/mapper"
	"github.com/lawdir/directory-api/internal/repository"
	"github.com/lawdir/directory-api/internal/seed"
	"github.com/lawdir/directory-api/internal/slug"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// LocationService manages states, metros and cities
type LocationService struct {
	stateRepo *repository.StateRepository
	metroRepo *repository.MetroRepository
	cityRepo  *repository.CityRepository
	firmRepo  *repository.FirmRepository
	cache     cache.Cache
	logger    *zap.Logger
}

// NewLocationService creates a new location service
func NewLocationService(
	stateRepo *repository.StateRepository,
	metroRepo *repository.MetroRepository,
	cityRepo *repository.CityRepository,
	firmRepo *repository.FirmRepository,
	c cache.Cache,
	logger *zap.Logger,
) *LocationService {
	return &LocationService{
		stateRepo: stateRepo,
		metroRepo: metroRepo,
		cityRepo:  cityRepo,
		firmRepo:  firmRepo,
		cache:     c,
		logger:    logger,
	}
}

// WithTx returns a copy whose repositories run inside tx
func (s *LocationService) WithTx(tx *gorm.DB) *LocationService {
	return &LocationService{
		stateRepo: s.stateRepo.WithTx(tx),
		metroRepo: s.metroRepo.WithTx(tx),
		cityRepo:  s.cityRepo.WithTx(tx),
		firmRepo:  s.firmRepo.WithTx(tx),
		cache:     s.cache,
		logger:    s.logger,
	}
}

// States

// ListStates returns every state with its active firm count
func (s *LocationService) ListStates(ctx context.Context) ([]domain.StateDTO, error) {
	states, err := s.stateRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list states: %w", err)
	}
	counts, err := s.firmRepo.CountsByState(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count firms by state: %w", err)
	}

	dtos := make([]domain.StateDTO, 0, len(states))
	for i := range states {
		dtos = append(dtos, mapper.ToStateDTO(&states[i], counts[states[i].ID]))
	}
	return dtos, nil
}

func (s *LocationService) GetState(ctx context.Context, id uuid.UUID) (*domain.StateDTO, error) {
	state, err := s.stateRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "state")
	}
	dto := mapper.ToStateDTO(state, 0)
	return &dto, nil
}

func (s *LocationService) CreateState(ctx context.Context, req *domain.CreateStateRequest) (*domain.StateDTO, error) {
	state := &domain.State{
		Name: strings.TrimSpace(req.Name),
		Code: strings.ToUpper(strings.TrimSpace(req.Code)),
		Slug: slug.Make(req.Name),
	}
	if state.Slug == "" {
		return nil, fmt.Errorf("%w: name must contain letters or digits", ErrInvalidInput)
	}

	if err := s.stateRepo.Create(ctx, state); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: state %s already exists", ErrConflict, state.Code)
		}
		return nil, fmt.Errorf("failed to create state: %w", err)
	}

	invalidateDirectory(ctx, s.cache, s.logger)
	s.logger.Info("state created", zap.String("state_id", state.ID.String()), zap.String("code", state.Code))

	dto := mapper.ToStateDTO(state, 0)
	return &dto, nil
}

func (s *LocationService) UpdateState(ctx context.Context, id uuid.UUID, req *domain.UpdateStateRequest) (*domain.StateDTO, error) {
	state, err := s.stateRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "state")
	}

	state.Name = strings.TrimSpace(req.Name)
	state.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	state.Slug = slug.Make(req.Name)

	if err := s.stateRepo.Update(ctx, state); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: state %s already exists", ErrConflict, state.Code)
		}
		return nil, fmt.Errorf("failed to update state: %w", err)
	}

	invalidateDirectory(ctx, s.cache, s.logger)
	dto := mapper.ToStateDTO(state, 0)
	return &dto, nil
}

// DeleteState removes a state that no city or metro references
func (s *LocationService) DeleteState(ctx context.Context, id uuid.UUID) error {
	if _, err := s.stateRepo.GetByID(ctx, id); err != nil {
		return notFoundOr(err, "state")
	}
	cities, err := s.stateRepo.CountCities(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count cities: %w", err)
	}
	if cities > 0 {
		return fmt.Errorf("%w: state has %d cities", ErrInUse, cities)
	}
	metros, err := s.stateRepo.CountMetros(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count metros: %w", err)
	}
	if metros > 0 {
		return fmt.Errorf("%w: state has %d metros", ErrInUse, metros)
	}
	if err := s.stateRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete state: %w", err)
	}
	invalidateDirectory(ctx, s.cache, s.logger)
	return nil
}

// FindOrCreateState resolves free-text state input ("ny", "New York") through
// the reference table and creates the state row on first use. Input that is
// not a known state is rejected.
func (s *LocationService) FindOrCreateState(ctx context.Context, input string) (*domain.State, bool, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, false, fmt.Errorf("%w: state is required", ErrInvalidInput)
	}

	ref, ok := seed.LookupState(input)
	if !ok {
		// fall back to states added by hand that are not in the reference table
		existing, err := s.stateRepo.FindByNameOrCode(ctx, input)
		if err == nil {
			return existing, false, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, fmt.Errorf("failed to look up state: %w", err)
		}
		return nil, false, fmt.Errorf("%w: unknown state %q", ErrInvalidInput, input)
	}

	existing, err := s.stateRepo.FindByNameOrCode(ctx, ref.Code)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("failed to look up state: %w", err)
	}

	state := &domain.State{Name: ref.Name, Code: ref.Code, Slug: slug.Make(ref.Name)}
	if err := s.stateRepo.Create(ctx, state); err != nil {
		return nil, false, fmt.Errorf("failed to create state %s: %w", ref.Code, err)
	}
	return state, true, nil
}

// IsKnownState reports whether input names a reference state or a state row
func (s *LocationService) IsKnownState(ctx context.Context, input string) (bool, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return false, nil
	}
	if _, ok := seed.LookupState(input); ok {
		return true, nil
	}
	_, err := s.stateRepo.FindByNameOrCode(ctx, input)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("failed to look up state: %w", err)
}

// Metros

func (s *LocationService) ListMetros(ctx context.Context, stateID *uuid.UUID) ([]domain.MetroDTO, error) {
	metros, err := s.metroRepo.List(ctx, stateID)
	if err != nil {
		return nil, fmt.Errorf("failed to list metros: %w", err)
	}
	dtos := make([]domain.MetroDTO, 0, len(metros))
	for i := range metros {
		dtos = append(dtos, mapper.ToMetroDTO(&metros[i], 0))
	}
	return dtos, nil
}

func (s *LocationService) GetMetro(ctx context.Context, id uuid.UUID) (*domain.MetroDTO, error) {
	metro, err := s.metroRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "metro")
	}
	dto := mapper.ToMetroDTO(metro, 0)
	return &dto, nil
}

func (s *LocationService) CreateMetro(ctx context.Context, req *domain.CreateMetroRequest) (*domain.MetroDTO, error) {
	state, err := s.stateRepo.GetByID(ctx, req.StateID)
	if err != nil {
		return nil, notFoundOr(err, "state")
	}

	metro := &domain.Metro{Name: strings.TrimSpace(req.Name), Slug: slug.Make(req.Name), StateID: state.ID}
	if metro.Slug == "" {
		return nil, fmt.Errorf("%w: name must contain letters or digits", ErrInvalidInput)
	}
	if err := s.metroRepo.Create(ctx, metro); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: metro %q already exists in %s", ErrConflict, metro.Name, state.Code)
		}
		return nil, fmt.Errorf("failed to create metro: %w", err)
	}
	metro.State = state

	invalidateDirectory(ctx, s.cache, s.logger)
	dto := mapper.ToMetroDTO(metro, 0)
	return &dto, nil
}

func (s *LocationService) UpdateMetro(ctx context.Context, id uuid.UUID, req *domain.UpdateMetroRequest) (*domain.MetroDTO, error) {
	metro, err := s.metroRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "metro")
	}

	metro.Name = strings.TrimSpace(req.Name)
	metro.Slug = slug.Make(req.Name)
	if err := s.metroRepo.Update(ctx, metro); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: metro %q already exists", ErrConflict, metro.Name)
		}
		return nil, fmt.Errorf("failed to update metro: %w", err)
	}

	invalidateDirectory(ctx, s.cache, s.logger)
	dto := mapper.ToMetroDTO(metro, 0)
	return &dto, nil
}

// DeleteMetro removes a metro; its cities and offices stay and lose the metro link
func (s *LocationService) DeleteMetro(ctx context.Context, id uuid.UUID) error {
	if _, err := s.metroRepo.GetByID(ctx, id); err != nil {
		return notFoundOr(err, "metro")
	}
	if err := s.metroRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete metro: %w", err)
	}
	invalidateDirectory(ctx, s.cache, s.logger)
	return nil
}

// FindOrCreateMetro returns the metro named name in state, creating it if needed
func (s *LocationService) FindOrCreateMetro(ctx context.Context, state *domain.State, name string) (*domain.Metro, bool, error) {
	name = strings.TrimSpace(name)
	metroSlug := slug.Make(name)
	if metroSlug == "" {
		return nil, false, fmt.Errorf("%w: metro name is empty", ErrInvalidInput)
	}

	metro, err := s.metroRepo.GetBySlug(ctx, state.ID, metroSlug)
	if err == nil {
		return metro, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("failed to look up metro: %w", err)
	}

	metro = &domain.Metro{Name: name, Slug: metroSlug, StateID: state.ID, State: state}
	if err := s.metroRepo.Create(ctx, metro); err != nil {
		return nil, false, fmt.Errorf("failed to create metro %q: %w", name, err)
	}
	return metro, true, nil
}

// Cities

// ListCities returns a page of cities, optionally limited to a state and a name search
func (s *LocationService) ListCities(ctx context.Context, stateID *uuid.UUID, search string, page, pageSize int) (*domain.PaginatedResponse, error) {
	page, pageSize = repository.NormalizePagination(page, pageSize)
	cities, total, err := s.cityRepo.List(ctx, stateID, search, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list cities: %w", err)
	}

	dtos := make([]domain.CityDTO, 0, len(cities))
	for i := range cities {
		dtos = append(dtos, mapper.ToCityDTO(&cities[i], 0))
	}
	return &domain.PaginatedResponse{
		Data:       dtos,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	}, nil
}

func (s *LocationService) GetCity(ctx context.Context, id uuid.UUID) (*domain.CityDTO, error) {
	city, err := s.cityRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "city")
	}
	dto := mapper.ToCityDTO(city, 0)
	return &dto, nil
}

func (s *LocationService) CreateCity(ctx context.Context, req *domain.CreateCityRequest) (*domain.CityDTO, error) {
	state, err := s.stateRepo.GetByID(ctx, req.StateID)
	if err != nil {
		return nil, notFoundOr(err, "state")
	}
	metro, err := s.resolveMetro(ctx, state.ID, req.MetroID)
	if err != nil {
		return nil, err
	}

	city := &domain.City{Name: strings.TrimSpace(req.Name), Slug: slug.Make(req.Name), StateID: state.ID}
	if city.Slug == "" {
		return nil, fmt.Errorf("%w: name must contain letters or digits", ErrInvalidInput)
	}
	if metro != nil {
		city.MetroID = &metro.ID
	}

	if err := s.cityRepo.Create(ctx, city); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: city %q already exists in %s", ErrConflict, city.Name, state.Code)
		}
		return nil, fmt.Errorf("failed to create city: %w", err)
	}
	city.State = state
	city.Metro = metro

	invalidateDirectory(ctx, s.cache, s.logger)
	dto := mapper.ToCityDTO(city, 0)
	return &dto, nil
}

// UpdateCity renames a city or moves it between metros of the same state.
// Offices in the city follow the new metro.
func (s *LocationService) UpdateCity(ctx context.Context, id uuid.UUID, req *domain.UpdateCityRequest) (*domain.CityDTO, error) {
	city, err := s.cityRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "city")
	}
	metro, err := s.resolveMetro(ctx, city.StateID, req.MetroID)
	if err != nil {
		return nil, err
	}

	city.Name = strings.TrimSpace(req.Name)
	city.Slug = slug.Make(req.Name)
	city.MetroID = nil
	city.Metro = metro
	if metro != nil {
		city.MetroID = &metro.ID
	}

	if err := s.cityRepo.Update(ctx, city); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: city %q already exists", ErrConflict, city.Name)
		}
		return nil, fmt.Errorf("failed to update city: %w", err)
	}
	if err := s.cityRepo.SyncOfficeMetro(ctx, city.ID, city.MetroID); err != nil {
		return nil, fmt.Errorf("failed to update office metros: %w", err)
	}

	invalidateDirectory(ctx, s.cache, s.logger)
	dto := mapper.ToCityDTO(city, 0)
	return &dto, nil
}

// DeleteCity removes a city no office is located in
func (s *LocationService) DeleteCity(ctx context.Context, id uuid.UUID) error {
	if _, err := s.cityRepo.GetByID(ctx, id); err != nil {
		return notFoundOr(err, "city")
	}
	offices, err := s.cityRepo.CountOffices(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count offices: %w", err)
	}
	if offices > 0 {
		return fmt.Errorf("%w: city has %d offices", ErrInUse, offices)
	}
	if err := s.cityRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete city: %w", err)
	}
	invalidateDirectory(ctx, s.cache, s.logger)
	return nil
}

// FindOrCreateCity returns the city named name in state, creating it if
// needed. A metro is attached to a new city, or to an existing city that has none.
func (s *LocationService) FindOrCreateCity(ctx context.Context, state *domain.State, metro *domain.Metro, name string) (*domain.City, bool, error) {
	name = strings.TrimSpace(name)
	citySlug := slug.Make(name)
	if citySlug == "" {
		return nil, false, fmt.Errorf("%w: city is required", ErrInvalidInput)
	}

	city, err := s.cityRepo.GetBySlug(ctx, state.ID, citySlug)
	if err == nil {
		if metro != nil && city.MetroID == nil {
			city.MetroID = &metro.ID
			city.Metro = metro
			if err := s.cityRepo.Update(ctx, city); err != nil {
				return nil, false, fmt.Errorf("failed to attach metro to city: %w", err)
			}
			if err := s.cityRepo.SyncOfficeMetro(ctx, city.ID, city.MetroID); err != nil {
				return nil, false, fmt.Errorf("failed to update office metros: %w", err)
			}
		}
		return city, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("failed to look up city: %w", err)
	}

	city = &domain.City{Name: name, Slug: citySlug, StateID: state.ID, State: state, Metro: metro}
	if metro != nil {
		city.MetroID = &metro.ID
	}
	if err := s.cityRepo.Create(ctx, city); err != nil {
		return nil, false, fmt.Errorf("failed to create city %q: %w", name, err)
	}
	return city, true, nil
}

// resolveMetro loads an optional metro and checks it belongs to the state
func (s *LocationService) resolveMetro(ctx context.Context, stateID uuid.UUID, metroID *uuid.UUID) (*domain.Metro, error) {
	if metroID == nil || *metroID == uuid.Nil {
		return nil, nil
	}
	metro, err := s.metroRepo.GetByID(ctx, *metroID)
	if err != nil {
		return nil, notFoundOr(err, "metro")
	}
	if metro.StateID != stateID {
		return nil, fmt.Errorf("%w: metro belongs to another state", ErrInvalidInput)
	}
	return metro, nil
}
