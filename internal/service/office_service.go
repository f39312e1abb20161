package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lawdir/directory-api/internal/cache"
	"github.com/lawdir/directory-api/internal/domain"
	"github.com/lawdir/directory-api/internal/mapper"
	"github.com/lawdir/directory-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OfficeService manages firm offices. A firm has at most one headquarters:
// its first office becomes headquarters, and flagging another office moves
// the flag.
type OfficeService struct {
	db         *gorm.DB
	officeRepo *repository.OfficeRepository
	firmRepo   *repository.FirmRepository
	cityRepo   *repository.CityRepository
	cache      cache.Cache
	logger     *zap.Logger
}

// NewOfficeService creates a new office service
func NewOfficeService(
	db *gorm.DB,
	officeRepo *repository.OfficeRepository,
	firmRepo *repository.FirmRepository,
	cityRepo *repository.CityRepository,
	c cache.Cache,
	logger *zap.Logger,
) *OfficeService {
	return &OfficeService{
		db:         db,
		officeRepo: officeRepo,
		firmRepo:   firmRepo,
		cityRepo:   cityRepo,
		cache:      c,
		logger:     logger,
	}
}

// ListByFirm returns a firm's offices, headquarters first
func (s *OfficeService) ListByFirm(ctx context.Context, firmID uuid.UUID) ([]domain.OfficeDTO, error) {
	if _, err := s.firmRepo.GetByID(ctx, firmID); err != nil {
		return nil, notFoundOr(err, "firm")
	}
	offices, err := s.officeRepo.ListByFirm(ctx, firmID)
	if err != nil {
		return nil, fmt.Errorf("failed to list offices: %w", err)
	}
	dtos := make([]domain.OfficeDTO, 0, len(offices))
	for i := range offices {
		dtos = append(dtos, mapper.ToOfficeDTO(&offices[i]))
	}
	return dtos, nil
}

// GetByID returns an office, checking it belongs to the firm
func (s *OfficeService) GetByID(ctx context.Context, firmID, id uuid.UUID) (*domain.OfficeDTO, error) {
	office, err := s.getForFirm(ctx, firmID, id)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToOfficeDTO(office)
	return &dto, nil
}

func (s *OfficeService) Create(ctx context.Context, firmID uuid.UUID, req *domain.CreateOfficeRequest) (*domain.OfficeDTO, error) {
	if _, err := s.firmRepo.GetByID(ctx, firmID); err != nil {
		return nil, notFoundOr(err, "firm")
	}
	city, err := s.cityRepo.GetByID(ctx, req.CityID)
	if err != nil {
		return nil, notFoundOr(err, "city")
	}

	office := &domain.Office{
		FirmID:         firmID,
		Name:           strings.TrimSpace(req.Name),
		Address:        strings.TrimSpace(req.Address),
		PostalCode:     strings.TrimSpace(req.PostalCode),
		Phone:          strings.TrimSpace(req.Phone),
		IsHeadquarters: req.IsHeadquarters,
	}
	placeInCity(office, city)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.createOffice(ctx, s.officeRepo.WithTx(tx), office)
	})
	if err != nil {
		return nil, mapper.FormatError("office", "create", err)
	}

	invalidateDirectory(ctx, s.cache, s.logger)
	return s.reload(ctx, office.ID)
}

// CreateInTx inserts an office using repositories bound to tx
func (s *OfficeService) CreateInTx(ctx context.Context, tx *gorm.DB, office *domain.Office) error {
	return s.createOffice(ctx, s.officeRepo.WithTx(tx), office)
}

// createOffice applies the headquarters rules and inserts the office
func (s *OfficeService) createOffice(ctx context.Context, repo *repository.OfficeRepository, office *domain.Office) error {
	hasHQ, err := repo.HasHeadquarters(ctx, office.FirmID)
	if err != nil {
		return err
	}
	if !hasHQ {
		office.IsHeadquarters = true
	}
	if err := repo.Create(ctx, office); err != nil {
		return err
	}
	if office.IsHeadquarters && hasHQ {
		return repo.ClearHeadquarters(ctx, office.FirmID, &office.ID)
	}
	return nil
}

func (s *OfficeService) Update(ctx context.Context, firmID, id uuid.UUID, req *domain.UpdateOfficeRequest) (*domain.OfficeDTO, error) {
	office, err := s.getForFirm(ctx, firmID, id)
	if err != nil {
		return nil, err
	}
	city, err := s.cityRepo.GetByID(ctx, req.CityID)
	if err != nil {
		return nil, notFoundOr(err, "city")
	}

	office.Name = strings.TrimSpace(req.Name)
	office.Address = strings.TrimSpace(req.Address)
	office.PostalCode = strings.TrimSpace(req.PostalCode)
	office.Phone = strings.TrimSpace(req.Phone)
	placeInCity(office, city)

	wasHQ := office.IsHeadquarters
	// unflagging the only headquarters is ignored; another office must take it over
	office.IsHeadquarters = req.IsHeadquarters || wasHQ

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.officeRepo.WithTx(tx)
		if err := repo.Update(ctx, office); err != nil {
			return err
		}
		if office.IsHeadquarters && !wasHQ {
			return repo.ClearHeadquarters(ctx, firmID, &office.ID)
		}
		return nil
	})
	if err != nil {
		return nil, mapper.FormatError("office", "update", err)
	}

	invalidateDirectory(ctx, s.cache, s.logger)
	return s.reload(ctx, office.ID)
}

// SetHeadquarters moves the headquarters flag to the given office
func (s *OfficeService) SetHeadquarters(ctx context.Context, firmID, id uuid.UUID) (*domain.OfficeDTO, error) {
	office, err := s.getForFirm(ctx, firmID, id)
	if err != nil {
		return nil, err
	}
	if !office.IsHeadquarters {
		office.IsHeadquarters = true
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			repo := s.officeRepo.WithTx(tx)
			if err := repo.Update(ctx, office); err != nil {
				return err
			}
			return repo.ClearHeadquarters(ctx, firmID, &office.ID)
		})
		if err != nil {
			return nil, mapper.FormatError("office", "update", err)
		}
		invalidateDirectory(ctx, s.cache, s.logger)
	}
	return s.reload(ctx, office.ID)
}

// Delete removes an office; lawyers assigned to it keep their firm
func (s *OfficeService) Delete(ctx context.Context, firmID, id uuid.UUID) error {
	if _, err := s.getForFirm(ctx, firmID, id); err != nil {
		return err
	}
	if err := s.officeRepo.Delete(ctx, id); err != nil {
		return mapper.FormatError("office", "delete", err)
	}
	invalidateDirectory(ctx, s.cache, s.logger)
	return nil
}

func (s *OfficeService) getForFirm(ctx context.Context, firmID, id uuid.UUID) (*domain.Office, error) {
	office, err := s.officeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "office")
	}
	if office.FirmID != firmID {
		return nil, fmt.Errorf("%w: office", ErrNotFound)
	}
	return office, nil
}

func (s *OfficeService) reload(ctx context.Context, id uuid.UUID) (*domain.OfficeDTO, error) {
	office, err := s.officeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "office")
	}
	dto := mapper.ToOfficeDTO(office)
	return &dto, nil
}

// placeInCity copies the city's state and metro onto the office
func placeInCity(office *domain.Office, city *domain.City) {
	office.CityID = city.ID
	office.StateID = city.StateID
	office.MetroID = city.MetroID
	office.City, office.State, office.Metro = nil, nil, nil
}
