package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lawdir/directory-api/internal/cache"
	"github.com/lawdir/directory-api/internal/domain"
	"github.com/lawdir/directory-api/internal/mapper"
	"github.com/lawdir/directory-api/internal/repository"
	"github.com/lawdir/directory-api/internal/slug"
	"github.com/lawdir/directory-api/internal/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// allowedImageTypes are the content types accepted for logos, photos and covers
var allowedImageTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/webp": true,
	"image/gif":  true,
}

// checkImageType normalises a content type and rejects anything but raster images
func checkImageType(contentType string) (string, error) {
	ct := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if !allowedImageTypes[ct] {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFileType, contentType)
	}
	return ct, nil
}

// FirmListParams are the admin firm list filters
type FirmListParams struct {
	Query        string
	State        string
	City         string
	PracticeArea string
	Status       *domain.FirmStatus
	MinTier      int
	PremiumOnly  bool
	// Sort nil applies the public listing order
	Sort     *repository.SortConfig
	Page     int
	PageSize int
}

// FirmService manages firms, their listing placement and logos
type FirmService struct {
	db        *gorm.DB
	firmRepo  *repository.FirmRepository
	paService *PracticeAreaService
	storage   storage.Storage
	cache     cache.Cache
	logger    *zap.Logger
	now       func() time.Time
}

// NewFirmService creates a new firm service
func NewFirmService(
	db *gorm.DB,
	firmRepo *repository.FirmRepository,
	paService *PracticeAreaService,
	store storage.Storage,
	c cache.Cache,
	logger *zap.Logger,
) *FirmService {
	return &FirmService{
		db:        db,
		firmRepo:  firmRepo,
		paService: paService,
		storage:   store,
		cache:     c,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// List returns a page of firms for the admin dashboard
func (s *FirmService) List(ctx context.Context, params FirmListParams) (*domain.PaginatedResponse, error) {
	now := s.now()
	filters := repository.FirmFilters{
		Query:        params.Query,
		State:        params.State,
		City:         params.City,
		PracticeArea: params.PracticeArea,
		MinTier:      params.MinTier,
		PremiumOnly:  params.PremiumOnly,
		Status:       params.Status,
		Now:          now,
	}

	page, pageSize := repository.NormalizePagination(params.Page, params.PageSize)
	firms, total, err := s.firmRepo.Search(ctx, filters, params.Sort, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list firms: %w", err)
	}

	dtos := make([]domain.FirmDTO, 0, len(firms))
	for i := range firms {
		dtos = append(dtos, mapper.ToFirmDTO(&firms[i], now))
	}
	return &domain.PaginatedResponse{
		Data:       dtos,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	}, nil
}

// GetByID returns the full firm record including offices and lawyers
func (s *FirmService) GetByID(ctx context.Context, id uuid.UUID) (*domain.FirmDetailDTO, error) {
	firm, err := s.firmRepo.GetDetail(ctx, "id = ?", id)
	if err != nil {
		return nil, notFoundOr(err, "firm")
	}
	dto := mapper.ToFirmDetailDTO(firm, s.now())
	return &dto, nil
}

// UniqueSlug derives a firm slug from name that no other firm uses
func (s *FirmService) UniqueSlug(ctx context.Context, name string, excludeID *uuid.UUID) (string, error) {
	return uniqueFirmSlug(ctx, s.firmRepo, name, excludeID)
}

// uniqueFirmSlug takes the repository explicitly so transactions can pass a tx-bound one
func uniqueFirmSlug(ctx context.Context, repo *repository.FirmRepository, name string, excludeID *uuid.UUID) (string, error) {
	base := slug.Make(name)
	if base == "" {
		return "", fmt.Errorf("%w: name must contain letters or digits", ErrInvalidInput)
	}
	return slug.Unique(base, func(candidate string) (bool, error) {
		return repo.SlugExists(ctx, candidate, excludeID)
	})
}

func (s *FirmService) Create(ctx context.Context, req *domain.CreateFirmRequest) (*domain.FirmDTO, error) {
	firmSlug, err := s.UniqueSlug(ctx, req.Name, nil)
	if err != nil {
		return nil, err
	}
	areas, err := s.paService.Resolve(ctx, req.PracticeAreaIDs)
	if err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = domain.FirmStatusActive
	}

	firm := &domain.Firm{
		Name:          strings.TrimSpace(req.Name),
		Slug:          firmSlug,
		Description:   strings.TrimSpace(req.Description),
		Website:       strings.TrimSpace(req.Website),
		Email:         strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:         strings.TrimSpace(req.Phone),
		FoundedYear:   req.FoundedYear,
		Status:        status,
		Tier:          req.Tier,
		IsPremium:     req.IsPremium,
		PremiumUntil:  utcPtr(req.PremiumUntil),
		Source:        domain.FirmSourceAdmin,
		PracticeAreas: areas,
	}

	if err := s.firmRepo.Create(ctx, firm); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: firm slug %s already exists", ErrConflict, firm.Slug)
		}
		return nil, fmt.Errorf("failed to create firm: %w", err)
	}

	invalidateDirectory(ctx, s.cache, s.logger)
	s.logger.Info("firm created",
		zap.String("firm_id", firm.ID.String()),
		zap.String("slug", firm.Slug))

	dto := mapper.ToFirmDTO(firm, s.now())
	return &dto, nil
}

// Update changes the firm profile. Renaming a firm regenerates its slug.
func (s *FirmService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateFirmRequest) (*domain.FirmDTO, error) {
	firm, err := s.firmRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "firm")
	}

	name := strings.TrimSpace(req.Name)
	if name != firm.Name {
		firmSlug, err := s.UniqueSlug(ctx, name, &firm.ID)
		if err != nil {
			return nil, err
		}
		firm.Slug = firmSlug
	}

	firm.Name = name
	firm.Description = strings.TrimSpace(req.Description)
	firm.Website = strings.TrimSpace(req.Website)
	firm.Email = strings.ToLower(strings.TrimSpace(req.Email))
	firm.Phone = strings.TrimSpace(req.Phone)
	firm.FoundedYear = req.FoundedYear
	if req.Status != "" {
		firm.Status = req.Status
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.firmRepo.WithTx(tx).Update(ctx, firm); err != nil {
			return err
		}
		if req.PracticeAreaIDs == nil {
			return nil
		}
		areas, err := s.paService.WithTx(tx).Resolve(ctx, req.PracticeAreaIDs)
		if err != nil {
			return err
		}
		if err := s.firmRepo.WithTx(tx).ReplacePracticeAreas(ctx, firm, areas); err != nil {
			return err
		}
		firm.PracticeAreas = areas
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: firm slug %s already exists", ErrConflict, firm.Slug)
		}
		return nil, mapper.FormatError("firm", "update", err)
	}

	invalidateDirectory(ctx, s.cache, s.logger)
	dto := mapper.ToFirmDTO(firm, s.now())
	return &dto, nil
}

// UpdateListing changes the tier and premium placement of a firm
func (s *FirmService) UpdateListing(ctx context.Context, id uuid.UUID, req *domain.UpdateFirmListingRequest) (*domain.FirmDTO, error) {
	if req.Tier < 0 || req.Tier > domain.MaxFirmTier {
		return nil, fmt.Errorf("%w: tier must be between 0 and %d", ErrInvalidInput, domain.MaxFirmTier)
	}
	firm, err := s.firmRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "firm")
	}

	firm.Tier = req.Tier
	firm.IsPremium = req.IsPremium
	firm.PremiumUntil = nil
	if req.IsPremium {
		firm.PremiumUntil = utcPtr(req.PremiumUntil)
	}

	if err := s.firmRepo.Update(ctx, firm); err != nil {
		return nil, mapper.FormatError("firm", "update", err)
	}

	invalidateDirectory(ctx, s.cache, s.logger)
	s.logger.Info("firm listing updated",
		zap.String("firm_id", firm.ID.String()),
		zap.Int("tier", firm.Tier),
		zap.Bool("premium", firm.IsPremium))

	dto := mapper.ToFirmDTO(firm, s.now())
	return &dto, nil
}

// SetPracticeAreas replaces the firm's practice areas
func (s *FirmService) SetPracticeAreas(ctx context.Context, id uuid.UUID, ids []uuid.UUID) (*domain.FirmDTO, error) {
	firm, err := s.firmRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "firm")
	}
	areas, err := s.paService.Resolve(ctx, ids)
	if err != nil {
		return nil, err
	}
	if err := s.firmRepo.ReplacePracticeAreas(ctx, firm, areas); err != nil {
		return nil, fmt.Errorf("failed to set practice areas: %w", err)
	}
	firm.PracticeAreas = areas

	invalidateDirectory(ctx, s.cache, s.logger)
	dto := mapper.ToFirmDTO(firm, s.now())
	return &dto, nil
}

// UploadLogo stores a new logo and removes the previous one
func (s *FirmService) UploadLogo(ctx context.Context, id uuid.UUID, filename, contentType string, data io.Reader) (*domain.FirmDTO, error) {
	ct, err := checkImageType(contentType)
	if err != nil {
		return nil, err
	}
	firm, err := s.firmRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "firm")
	}

	path, size, err := s.storage.Upload(ctx, storage.FolderLogos, filename, ct, data)
	if err != nil {
		return nil, fmt.Errorf("failed to store logo: %w", err)
	}

	previous := firm.LogoPath
	firm.LogoPath = path
	if err := s.firmRepo.Update(ctx, firm); err != nil {
		s.removeFile(ctx, path)
		return nil, mapper.FormatError("firm", "update", err)
	}
	s.removeFile(ctx, previous)

	invalidateDirectory(ctx, s.cache, s.logger)
	s.logger.Info("firm logo uploaded",
		zap.String("firm_id", firm.ID.String()),
		zap.String("path", path),
		zap.Int64("size", size))

	dto := mapper.ToFirmDTO(firm, s.now())
	return &dto, nil
}

// Delete removes a firm with its offices, lawyers and stored images
func (s *FirmService) Delete(ctx context.Context, id uuid.UUID) error {
	firm, err := s.firmRepo.GetDetail(ctx, "id = ?", id)
	if err != nil {
		return notFoundOr(err, "firm")
	}
	if err := s.firmRepo.Delete(ctx, id); err != nil {
		return mapper.FormatError("firm", "delete", err)
	}

	s.removeFile(ctx, firm.LogoPath)
	for _, l := range firm.Lawyers {
		s.removeFile(ctx, l.PhotoPath)
	}

	invalidateDirectory(ctx, s.cache, s.logger)
	s.logger.Info("firm deleted", zap.String("firm_id", id.String()), zap.String("slug", firm.Slug))
	return nil
}

// ExpirePremium switches off premium placement for firms whose paid period has
// ended and returns how many firms changed.
func (s *FirmService) ExpirePremium(ctx context.Context) (int, error) {
	expired, err := s.firmRepo.ExpirePremium(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to expire premium listings: %w", err)
	}
	if len(expired) == 0 {
		return 0, nil
	}

	invalidateDirectory(ctx, s.cache, s.logger)
	for _, f := range expired {
		s.logger.Info("premium listing expired",
			zap.String("firm_id", f.ID.String()),
			zap.String("slug", f.Slug))
	}
	return len(expired), nil
}

// removeFile deletes a stored object; failures only leave an orphan behind
func (s *FirmService) removeFile(ctx context.Context, path string) {
	if path == "" || s.storage == nil {
		return
	}
	if err := s.storage.Delete(ctx, path); err != nil {
		s.logger.Warn("failed to delete stored file", zap.String("path", path), zap.Error(err))
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
