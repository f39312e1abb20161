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
	"github.com/lawdir/directory-api/internal/slug"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PracticeAreaService manages the practice area taxonomy
type PracticeAreaService struct {
	paRepo   *repository.PracticeAreaRepository
	firmRepo *repository.FirmRepository
	cache    cache.Cache
	logger   *zap.Logger
}

// NewPracticeAreaService creates a new practice area service
func NewPracticeAreaService(
	paRepo *repository.PracticeAreaRepository,
	firmRepo *repository.FirmRepository,
	c cache.Cache,
	logger *zap.Logger,
) *PracticeAreaService {
	return &PracticeAreaService{
		paRepo:   paRepo,
		firmRepo: firmRepo,
		cache:    c,
		logger:   logger,
	}
}

// WithTx returns a copy whose repositories run inside tx
func (s *PracticeAreaService) WithTx(tx *gorm.DB) *PracticeAreaService {
	return &PracticeAreaService{
		paRepo:   s.paRepo.WithTx(tx),
		firmRepo: s.firmRepo.WithTx(tx),
		cache:    s.cache,
		logger:   s.logger,
	}
}

// List returns practice areas in display order with their active firm counts
func (s *PracticeAreaService) List(ctx context.Context, search string) ([]domain.PracticeAreaDTO, error) {
	areas, err := s.paRepo.List(ctx, search)
	if err != nil {
		return nil, fmt.Errorf("failed to list practice areas: %w", err)
	}
	counts, err := s.firmRepo.CountsByPracticeArea(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to count firms by practice area: %w", err)
	}

	dtos := make([]domain.PracticeAreaDTO, 0, len(areas))
	for i := range areas {
		dtos = append(dtos, mapper.ToPracticeAreaDTO(&areas[i], counts[areas[i].ID]))
	}
	return dtos, nil
}

func (s *PracticeAreaService) GetByID(ctx context.Context, id uuid.UUID) (*domain.PracticeAreaDTO, error) {
	pa, err := s.paRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "practice area")
	}
	dto := mapper.ToPracticeAreaDTO(pa, 0)
	return &dto, nil
}

func (s *PracticeAreaService) Create(ctx context.Context, req *domain.CreatePracticeAreaRequest) (*domain.PracticeAreaDTO, error) {
	pa := &domain.PracticeArea{
		Name:        strings.TrimSpace(req.Name),
		Slug:        slug.Make(req.Name),
		Description: strings.TrimSpace(req.Description),
		IsFeatured:  req.IsFeatured,
		SortOrder:   req.SortOrder,
	}
	if pa.Slug == "" {
		return nil, fmt.Errorf("%w: name must contain letters or digits", ErrInvalidInput)
	}

	if err := s.paRepo.Create(ctx, pa); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: practice area %q already exists", ErrConflict, pa.Name)
		}
		return nil, fmt.Errorf("failed to create practice area: %w", err)
	}

	invalidateDirectory(ctx, s.cache, s.logger)
	s.logger.Info("practice area created", zap.String("practice_area_id", pa.ID.String()), zap.String("slug", pa.Slug))

	dto := mapper.ToPracticeAreaDTO(pa, 0)
	return &dto, nil
}

func (s *PracticeAreaService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdatePracticeAreaRequest) (*domain.PracticeAreaDTO, error) {
	pa, err := s.paRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "practice area")
	}

	pa.Name = strings.TrimSpace(req.Name)
	pa.Slug = slug.Make(req.Name)
	pa.Description = strings.TrimSpace(req.Description)
	pa.IsFeatured = req.IsFeatured
	pa.SortOrder = req.SortOrder
	if pa.Slug == "" {
		return nil, fmt.Errorf("%w: name must contain letters or digits", ErrInvalidInput)
	}

	if err := s.paRepo.Update(ctx, pa); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: practice area %q already exists", ErrConflict, pa.Name)
		}
		return nil, fmt.Errorf("failed to update practice area: %w", err)
	}

	invalidateDirectory(ctx, s.cache, s.logger)
	dto := mapper.ToPracticeAreaDTO(pa, 0)
	return &dto, nil
}

// Delete removes a practice area and unlinks it from firms, lawyers and posts
func (s *PracticeAreaService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.paRepo.GetByID(ctx, id); err != nil {
		return notFoundOr(err, "practice area")
	}
	if err := s.paRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete practice area: %w", err)
	}
	invalidateDirectory(ctx, s.cache, s.logger)
	invalidateContent(ctx, s.cache, s.logger)
	return nil
}

// FindOrCreateByName matches a practice area by case-insensitive name or slug
// and creates it when missing.
func (s *PracticeAreaService) FindOrCreateByName(ctx context.Context, name string) (*domain.PracticeArea, bool, error) {
	name = strings.TrimSpace(name)
	paSlug := slug.Make(name)
	if paSlug == "" {
		return nil, false, fmt.Errorf("%w: practice area name is empty", ErrInvalidInput)
	}

	pa, err := s.paRepo.FindByNameOrSlug(ctx, name, paSlug)
	if err == nil {
		return pa, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("failed to look up practice area: %w", err)
	}

	pa = &domain.PracticeArea{Name: name, Slug: paSlug}
	if err := s.paRepo.Create(ctx, pa); err != nil {
		return nil, false, fmt.Errorf("failed to create practice area %q: %w", name, err)
	}
	return pa, true, nil
}

// FindOrCreateAll resolves a list of names, skipping duplicates
func (s *PracticeAreaService) FindOrCreateAll(ctx context.Context, names []string) ([]domain.PracticeArea, int, error) {
	areas := make([]domain.PracticeArea, 0, len(names))
	seen := make(map[uuid.UUID]bool, len(names))
	created := 0
	for _, name := range names {
		pa, isNew, err := s.FindOrCreateByName(ctx, name)
		if err != nil {
			return nil, created, err
		}
		if isNew {
			created++
		}
		if seen[pa.ID] {
			continue
		}
		seen[pa.ID] = true
		areas = append(areas, *pa)
	}
	return areas, created, nil
}

// Resolve loads practice areas by ID and fails when any ID is unknown
func (s *PracticeAreaService) Resolve(ctx context.Context, ids []uuid.UUID) ([]domain.PracticeArea, error) {
	unique := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}

	areas, err := s.paRepo.GetByIDs(ctx, unique)
	if err != nil {
		return nil, fmt.Errorf("failed to load practice areas: %w", err)
	}
	if len(areas) != len(unique) {
		return nil, fmt.Errorf("%w: unknown practice area id", ErrInvalidInput)
	}
	return areas, nil
}
