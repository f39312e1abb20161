package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lawdir/directory-api/internal/auth"
	"github.com/lawdir/directory-api/internal/cache"
	"github.com/lawdir/directory-api/internal/domain"
	"github.com/lawdir/directory-api/internal/mapper"
	"github.com/lawdir/directory-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// digestListLimit caps how many pending nominations are listed in the digest email
const digestListLimit = 25

// NominationService handles public nominations and their review
type NominationService struct {
	db             *gorm.DB
	nominationRepo *repository.NominationRepository
	firmRepo       *repository.FirmRepository
	officeRepo     *repository.OfficeRepository
	locations      *LocationService
	practiceAreas  *PracticeAreaService
	offices        *OfficeService
	notifier       *NotificationService
	cache          cache.Cache
	logger         *zap.Logger
	now            func() time.Time
}

// NewNominationService creates a new nomination service
func NewNominationService(
	db *gorm.DB,
	nominationRepo *repository.NominationRepository,
	firmRepo *repository.FirmRepository,
	officeRepo *repository.OfficeRepository,
	locations *LocationService,
	practiceAreas *PracticeAreaService,
	offices *OfficeService,
	notifier *NotificationService,
	c cache.Cache,
	logger *zap.Logger,
) *NominationService {
	return &NominationService{
		db:             db,
		nominationRepo: nominationRepo,
		firmRepo:       firmRepo,
		officeRepo:     officeRepo,
		locations:      locations,
		practiceAreas:  practiceAreas,
		offices:        offices,
		notifier:       notifier,
		cache:          c,
		logger:         logger,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// Submit stores a public nomination. Filled honeypots and repeated pending
// nominations of the same firm by the same person are rejected.
func (s *NominationService) Submit(ctx context.Context, req *domain.SubmitNominationRequest, ipAddress string) (*domain.NominationDTO, error) {
	if strings.TrimSpace(req.Website2) != "" {
		s.logger.Warn("nomination honeypot triggered", zap.String("ip", ipAddress))
		return nil, ErrSpamDetected
	}

	n := &domain.Nomination{
		FirmName:              strings.TrimSpace(req.FirmName),
		FirmWebsite:           strings.TrimSpace(req.FirmWebsite),
		FirmEmail:             strings.ToLower(strings.TrimSpace(req.FirmEmail)),
		FirmPhone:             strings.TrimSpace(req.FirmPhone),
		Address:               strings.TrimSpace(req.Address),
		CityName:              strings.TrimSpace(req.City),
		StateName:             strings.TrimSpace(req.State),
		PracticeAreas:         strings.Join(mapper.SplitPracticeAreas(req.PracticeAreas), "; "),
		NominatorName:         strings.TrimSpace(req.NominatorName),
		NominatorEmail:        strings.ToLower(strings.TrimSpace(req.NominatorEmail)),
		NominatorRelationship: strings.TrimSpace(req.NominatorRelationship),
		Reason:                strings.TrimSpace(req.Reason),
		Status:                domain.NominationStatusPending,
		IPAddress:             ipAddress,
	}

	known, err := s.locations.IsKnownState(ctx, n.StateName)
	if err != nil {
		return nil, err
	}
	if !known {
		return nil, fmt.Errorf("%w: unknown state %q", ErrInvalidInput, n.StateName)
	}

	exists, err := s.nominationRepo.ExistsPending(ctx, n.FirmName, n.NominatorEmail)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing nominations: %w", err)
	}
	if exists {
		return nil, ErrDuplicateNomination
	}

	if err := s.nominationRepo.Create(ctx, n); err != nil {
		return nil, mapper.FormatError("nomination", "create", err)
	}

	s.logger.Info("nomination submitted",
		zap.String("nomination_id", n.ID.String()),
		zap.String("firm_name", n.FirmName))

	if s.notifier != nil {
		if err := s.notifier.NominationReceived(ctx, n); err != nil {
			s.logger.Warn("failed to send nomination emails", zap.String("nomination_id", n.ID.String()), zap.Error(err))
		}
	}

	dto := mapper.ToNominationDTO(n)
	return &dto, nil
}

// List returns a page of nominations, optionally filtered by status and search text
func (s *NominationService) List(ctx context.Context, status *domain.NominationStatus, search string, page, pageSize int) (*domain.PaginatedResponse, error) {
	if status != nil && !status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, *status)
	}
	page, pageSize = repository.NormalizePagination(page, pageSize)
	nominations, total, err := s.nominationRepo.List(ctx, status, search, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list nominations: %w", err)
	}

	dtos := make([]domain.NominationDTO, 0, len(nominations))
	for i := range nominations {
		dtos = append(dtos, mapper.ToNominationDTO(&nominations[i]))
	}
	return &domain.PaginatedResponse{
		Data:       dtos,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	}, nil
}

func (s *NominationService) GetByID(ctx context.Context, id uuid.UUID) (*domain.NominationDTO, error) {
	n, err := s.nominationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "nomination")
	}
	dto := mapper.ToNominationDTO(n)
	return &dto, nil
}

// Approve turns a pending nomination into a listing in one transaction:
// the state, city and practice areas are found or created, the firm is
// created (or an existing firm is linked), an office is added in the
// nominated city and the nomination is marked approved. The nominator is
// emailed after commit.
func (s *NominationService) Approve(ctx context.Context, id uuid.UUID, req *domain.ApproveNominationRequest) (*domain.NominationDTO, error) {
	if req.Tier < 0 || req.Tier > domain.MaxFirmTier {
		return nil, fmt.Errorf("%w: tier must be between 0 and %d", ErrInvalidInput, domain.MaxFirmTier)
	}
	reviewerID, reviewerName := auth.Actor(ctx)

	var n *domain.Nomination
	var firm *domain.Firm
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		nominations := s.nominationRepo.WithTx(tx)
		firms := s.firmRepo.WithTx(tx)
		locations := s.locations.WithTx(tx)

		var err error
		n, err = nominations.GetByIDForUpdate(ctx, id)
		if err != nil {
			return notFoundOr(err, "nomination")
		}
		if n.Status != domain.NominationStatusPending {
			return ErrNominationNotPending
		}

		state, _, err := locations.FindOrCreateState(ctx, n.StateName)
		if err != nil {
			return err
		}
		city, _, err := locations.FindOrCreateCity(ctx, state, nil, n.CityName)
		if err != nil {
			return err
		}
		areas, _, err := s.practiceAreas.WithTx(tx).FindOrCreateAll(ctx, mapper.SplitPracticeAreas(n.PracticeAreas))
		if err != nil {
			return err
		}

		if req.ExistingFirmID != nil && *req.ExistingFirmID != uuid.Nil {
			firm, err = firms.GetByID(ctx, *req.ExistingFirmID)
			if err != nil {
				return notFoundOr(err, "firm")
			}
			if err := firms.AppendPracticeAreas(ctx, firm, areas); err != nil {
				return fmt.Errorf("failed to link practice areas: %w", err)
			}
		} else {
			firmSlug, err := uniqueFirmSlug(ctx, firms, n.FirmName, nil)
			if err != nil {
				return err
			}
			firm = &domain.Firm{
				Name:          n.FirmName,
				Slug:          firmSlug,
				Website:       n.FirmWebsite,
				Email:         n.FirmEmail,
				Phone:         n.FirmPhone,
				Status:        domain.FirmStatusActive,
				Tier:          req.Tier,
				Source:        domain.FirmSourceNomination,
				PracticeAreas: areas,
			}
			if err := firms.Create(ctx, firm); err != nil {
				return fmt.Errorf("failed to create firm: %w", err)
			}
		}

		if _, err := s.officeRepo.WithTx(tx).FindByFirmCityAddress(ctx, firm.ID, city.ID, n.Address); err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("failed to look up office: %w", err)
			}
			office := &domain.Office{
				FirmID:  firm.ID,
				Address: n.Address,
				Phone:   n.FirmPhone,
			}
			placeInCity(office, city)
			if err := s.offices.CreateInTx(ctx, tx, office); err != nil {
				return fmt.Errorf("failed to create office: %w", err)
			}
		}

		reviewedAt := s.now()
		n.Status = domain.NominationStatusApproved
		n.ReviewedByID = reviewerID
		n.ReviewedByName = reviewerName
		n.ReviewedAt = &reviewedAt
		n.ReviewNotes = strings.TrimSpace(req.Notes)
		n.FirmID = &firm.ID
		updated, err := nominations.MarkReviewed(ctx, n)
		if err != nil {
			return fmt.Errorf("failed to update nomination: %w", err)
		}
		if !updated {
			return ErrNominationNotPending
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	invalidateDirectory(ctx, s.cache, s.logger)
	s.logger.Info("nomination approved",
		zap.String("nomination_id", n.ID.String()),
		zap.String("firm_id", firm.ID.String()),
		zap.String("reviewer", reviewerName))

	if s.notifier != nil {
		if err := s.notifier.NominationApproved(ctx, n, firm); err != nil {
			s.logger.Warn("failed to send approval email", zap.String("nomination_id", n.ID.String()), zap.Error(err))
		}
	}

	dto := mapper.ToNominationDTO(n)
	return &dto, nil
}

// Reject closes a pending nomination. Review notes are required.
func (s *NominationService) Reject(ctx context.Context, id uuid.UUID, req *domain.RejectNominationRequest) (*domain.NominationDTO, error) {
	notes := strings.TrimSpace(req.Notes)
	if notes == "" {
		return nil, fmt.Errorf("%w: notes are required when rejecting", ErrInvalidInput)
	}
	reviewerID, reviewerName := auth.Actor(ctx)

	var n *domain.Nomination
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		nominations := s.nominationRepo.WithTx(tx)

		var err error
		n, err = nominations.GetByIDForUpdate(ctx, id)
		if err != nil {
			return notFoundOr(err, "nomination")
		}
		if n.Status != domain.NominationStatusPending {
			return ErrNominationNotPending
		}

		reviewedAt := s.now()
		n.Status = domain.NominationStatusRejected
		n.ReviewedByID = reviewerID
		n.ReviewedByName = reviewerName
		n.ReviewedAt = &reviewedAt
		n.ReviewNotes = notes
		updated, err := nominations.MarkReviewed(ctx, n)
		if err != nil {
			return mapper.FormatError("nomination", "update", err)
		}
		if !updated {
			return ErrNominationNotPending
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("nomination rejected",
		zap.String("nomination_id", n.ID.String()),
		zap.String("reviewer", reviewerName))

	if s.notifier != nil {
		if err := s.notifier.NominationRejected(ctx, n); err != nil {
			s.logger.Warn("failed to send rejection email", zap.String("nomination_id", n.ID.String()), zap.Error(err))
		}
	}

	dto := mapper.ToNominationDTO(n)
	return &dto, nil
}

// Pending returns the oldest pending nominations and the pending total
func (s *NominationService) Pending(ctx context.Context, limit int) ([]domain.NominationDTO, int64, error) {
	pending, err := s.nominationRepo.ListPending(ctx, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list pending nominations: %w", err)
	}
	total, err := s.nominationRepo.CountByStatus(ctx, domain.NominationStatusPending)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count pending nominations: %w", err)
	}
	dtos := make([]domain.NominationDTO, 0, len(pending))
	for i := range pending {
		dtos = append(dtos, mapper.ToNominationDTO(&pending[i]))
	}
	return dtos, total, nil
}

// SendPendingDigest emails reviewers the pending queue and reports whether mail was sent
func (s *NominationService) SendPendingDigest(ctx context.Context) (bool, error) {
	if s.notifier == nil {
		return false, nil
	}
	pending, err := s.nominationRepo.ListPending(ctx, digestListLimit)
	if err != nil {
		return false, fmt.Errorf("failed to list pending nominations: %w", err)
	}
	total, err := s.nominationRepo.CountByStatus(ctx, domain.NominationStatusPending)
	if err != nil {
		return false, fmt.Errorf("failed to count pending nominations: %w", err)
	}
	return s.notifier.PendingDigest(ctx, pending, total)
}
