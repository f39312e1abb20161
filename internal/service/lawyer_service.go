package service

import (
	"context"
	"fmt"
	"io"
	"strings"

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

// LawyerService manages the attorneys listed under a firm
type LawyerService struct {
	db         *gorm.DB
	lawyerRepo *repository.LawyerRepository
	firmRepo   *repository.FirmRepository
	officeRepo *repository.OfficeRepository
	paService  *PracticeAreaService
	storage    storage.Storage
	cache      cache.Cache
	logger     *zap.Logger
}

// NewLawyerService creates a new lawyer service
func NewLawyerService(
	db *gorm.DB,
	lawyerRepo *repository.LawyerRepository,
	firmRepo *repository.FirmRepository,
	officeRepo *repository.OfficeRepository,
	paService *PracticeAreaService,
	store storage.Storage,
	c cache.Cache,
	logger *zap.Logger,
) *LawyerService {
	return &LawyerService{
		db:         db,
		lawyerRepo: lawyerRepo,
		firmRepo:   firmRepo,
		officeRepo: officeRepo,
		paService:  paService,
		storage:    store,
		cache:      c,
		logger:     logger,
	}
}

// LawyerListParams are the admin lawyer list filters
type LawyerListParams struct {
	FirmID   *uuid.UUID
	Search   string
	Sort     repository.SortConfig
	Page     int
	PageSize int
}

func (s *LawyerService) List(ctx context.Context, params LawyerListParams) (*domain.PaginatedResponse, error) {
	page, pageSize := repository.NormalizePagination(params.Page, params.PageSize)
	lawyers, total, err := s.lawyerRepo.List(ctx, params.FirmID, params.Search, params.Sort, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list lawyers: %w", err)
	}

	dtos := make([]domain.LawyerDTO, 0, len(lawyers))
	for i := range lawyers {
		dtos = append(dtos, mapper.ToLawyerDTO(&lawyers[i]))
	}
	return &domain.PaginatedResponse{
		Data:       dtos,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	}, nil
}

// ListByFirm returns every lawyer of a firm ordered by surname
func (s *LawyerService) ListByFirm(ctx context.Context, firmID uuid.UUID) ([]domain.LawyerDTO, error) {
	if _, err := s.firmRepo.GetByID(ctx, firmID); err != nil {
		return nil, notFoundOr(err, "firm")
	}
	lawyers, err := s.lawyerRepo.ListByFirm(ctx, firmID)
	if err != nil {
		return nil, fmt.Errorf("failed to list lawyers: %w", err)
	}
	dtos := make([]domain.LawyerDTO, 0, len(lawyers))
	for i := range lawyers {
		dtos = append(dtos, mapper.ToLawyerDTO(&lawyers[i]))
	}
	return dtos, nil
}

func (s *LawyerService) GetByID(ctx context.Context, firmID, id uuid.UUID) (*domain.LawyerDTO, error) {
	lawyer, err := s.getForFirm(ctx, firmID, id)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToLawyerDTO(lawyer)
	return &dto, nil
}

func (s *LawyerService) Create(ctx context.Context, firmID uuid.UUID, req *domain.CreateLawyerRequest) (*domain.LawyerDTO, error) {
	if _, err := s.firmRepo.GetByID(ctx, firmID); err != nil {
		return nil, notFoundOr(err, "firm")
	}
	if err := s.checkOffice(ctx, firmID, req.OfficeID); err != nil {
		return nil, err
	}
	areas, err := s.paService.Resolve(ctx, req.PracticeAreaIDs)
	if err != nil {
		return nil, err
	}
	lawyerSlug, err := s.uniqueSlug(ctx, req.FirstName, req.LastName, nil)
	if err != nil {
		return nil, err
	}

	lawyer := &domain.Lawyer{
		FirmID:        firmID,
		OfficeID:      nilIfZero(req.OfficeID),
		FirstName:     strings.TrimSpace(req.FirstName),
		LastName:      strings.TrimSpace(req.LastName),
		Slug:          lawyerSlug,
		Title:         strings.TrimSpace(req.Title),
		Email:         strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:         strings.TrimSpace(req.Phone),
		Bio:           strings.TrimSpace(req.Bio),
		BarAdmissions: strings.TrimSpace(req.BarAdmissions),
		PracticeAreas: areas,
	}

	if err := s.lawyerRepo.Create(ctx, lawyer); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: lawyer slug %s already exists", ErrConflict, lawyer.Slug)
		}
		return nil, mapper.FormatError("lawyer", "create", err)
	}

	invalidateDirectory(ctx, s.cache, s.logger)
	s.logger.Info("lawyer created",
		zap.String("lawyer_id", lawyer.ID.String()),
		zap.String("firm_id", firmID.String()))

	return s.reload(ctx, lawyer.ID)
}

func (s *LawyerService) Update(ctx context.Context, firmID, id uuid.UUID, req *domain.UpdateLawyerRequest) (*domain.LawyerDTO, error) {
	lawyer, err := s.getForFirm(ctx, firmID, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkOffice(ctx, firmID, req.OfficeID); err != nil {
		return nil, err
	}

	first, last := strings.TrimSpace(req.FirstName), strings.TrimSpace(req.LastName)
	if first != lawyer.FirstName || last != lawyer.LastName {
		lawyerSlug, err := s.uniqueSlug(ctx, first, last, &lawyer.ID)
		if err != nil {
			return nil, err
		}
		lawyer.Slug = lawyerSlug
	}

	lawyer.OfficeID = nilIfZero(req.OfficeID)
	lawyer.FirstName = first
	lawyer.LastName = last
	lawyer.Title = strings.TrimSpace(req.Title)
	lawyer.Email = strings.ToLower(strings.TrimSpace(req.Email))
	lawyer.Phone = strings.TrimSpace(req.Phone)
	lawyer.Bio = strings.TrimSpace(req.Bio)
	lawyer.BarAdmissions = strings.TrimSpace(req.BarAdmissions)
	lawyer.Firm, lawyer.Office = nil, nil

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.lawyerRepo.WithTx(tx)
		if err := repo.Update(ctx, lawyer); err != nil {
			return err
		}
		if req.PracticeAreaIDs == nil {
			return nil
		}
		areas, err := s.paService.WithTx(tx).Resolve(ctx, req.PracticeAreaIDs)
		if err != nil {
			return err
		}
		return repo.ReplacePracticeAreas(ctx, lawyer, areas)
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: lawyer slug %s already exists", ErrConflict, lawyer.Slug)
		}
		return nil, mapper.FormatError("lawyer", "update", err)
	}

	invalidateDirectory(ctx, s.cache, s.logger)
	return s.reload(ctx, lawyer.ID)
}

// UploadPhoto stores a new headshot and removes the previous one
func (s *LawyerService) UploadPhoto(ctx context.Context, firmID, id uuid.UUID, filename, contentType string, data io.Reader) (*domain.LawyerDTO, error) {
	ct, err := checkImageType(contentType)
	if err != nil {
		return nil, err
	}
	lawyer, err := s.getForFirm(ctx, firmID, id)
	if err != nil {
		return nil, err
	}

	path, _, err := s.storage.Upload(ctx, storage.FolderPhotos, filename, ct, data)
	if err != nil {
		return nil, fmt.Errorf("failed to store photo: %w", err)
	}

	previous := lawyer.PhotoPath
	lawyer.PhotoPath = path
	lawyer.Firm, lawyer.Office = nil, nil
	if err := s.lawyerRepo.Update(ctx, lawyer); err != nil {
		s.removeFile(ctx, path)
		return nil, mapper.FormatError("lawyer", "update", err)
	}
	s.removeFile(ctx, previous)

	invalidateDirectory(ctx, s.cache, s.logger)
	return s.reload(ctx, lawyer.ID)
}

func (s *LawyerService) Delete(ctx context.Context, firmID, id uuid.UUID) error {
	lawyer, err := s.getForFirm(ctx, firmID, id)
	if err != nil {
		return err
	}
	if err := s.lawyerRepo.Delete(ctx, id); err != nil {
		return mapper.FormatError("lawyer", "delete", err)
	}
	s.removeFile(ctx, lawyer.PhotoPath)
	invalidateDirectory(ctx, s.cache, s.logger)
	return nil
}

func (s *LawyerService) uniqueSlug(ctx context.Context, first, last string, excludeID *uuid.UUID) (string, error) {
	base := slug.Make(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
	if base == "" {
		return "", fmt.Errorf("%w: name must contain letters or digits", ErrInvalidInput)
	}
	return slug.Unique(base, func(candidate string) (bool, error) {
		return s.lawyerRepo.SlugExists(ctx, candidate, excludeID)
	})
}

// checkOffice verifies an optional office belongs to the firm
func (s *LawyerService) checkOffice(ctx context.Context, firmID uuid.UUID, officeID *uuid.UUID) error {
	if officeID == nil || *officeID == uuid.Nil {
		return nil
	}
	office, err := s.officeRepo.GetByID(ctx, *officeID)
	if err != nil {
		return notFoundOr(err, "office")
	}
	if office.FirmID != firmID {
		return fmt.Errorf("%w: office belongs to another firm", ErrInvalidInput)
	}
	return nil
}

func (s *LawyerService) getForFirm(ctx context.Context, firmID, id uuid.UUID) (*domain.Lawyer, error) {
	lawyer, err := s.lawyerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "lawyer")
	}
	if lawyer.FirmID != firmID {
		return nil, fmt.Errorf("%w: lawyer", ErrNotFound)
	}
	return lawyer, nil
}

func (s *LawyerService) reload(ctx context.Context, id uuid.UUID) (*domain.LawyerDTO, error) {
	lawyer, err := s.lawyerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "lawyer")
	}
	dto := mapper.ToLawyerDTO(lawyer)
	return &dto, nil
}

func (s *LawyerService) removeFile(ctx context.Context, path string) {
	if path == "" || s.storage == nil {
		return
	}
	if err := s.storage.Delete(ctx, path); err != nil {
		s.logger.Warn("failed to delete stored file", zap.String("path", path), zap.Error(err))
	}
}

func nilIfZero(id *uuid.UUID) *uuid.UUID {
	if id == nil || *id == uuid.Nil {
		return nil
	}
	v := *id
	return &v
}
