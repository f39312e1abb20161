package service

import (
	"context"
	"fmt"
	"time"

	"github.com/lawdir/directory-api/internal/domain"
	"github.com/lawdir/directory-api/internal/mapper"
	"github.com/lawdir/directory-api/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// dashboardRecentLimit is how many recent nominations and imports are shown
const dashboardRecentLimit = 5

type DashboardService struct {
	firmRepo       *repository.FirmRepository
	officeRepo     *repository.OfficeRepository
	lawyerRepo     *repository.LawyerRepository
	nominationRepo *repository.NominationRepository
	blogRepo       *repository.BlogPostRepository
	importRepo     *repository.ImportRunRepository
	logger         *zap.Logger
	now            func() time.Time
}

func NewDashboardService(
	firmRepo *repository.FirmRepository,
	officeRepo *repository.OfficeRepository,
	lawyerRepo *repository.LawyerRepository,
	nominationRepo *repository.NominationRepository,
	blogRepo *repository.BlogPostRepository,
	importRepo *repository.ImportRunRepository,
	logger *zap.Logger,
) *DashboardService {
	return &DashboardService{
		firmRepo:       firmRepo,
		officeRepo:     officeRepo,
		lawyerRepo:     lawyerRepo,
		nominationRepo: nominationRepo,
		blogRepo:       blogRepo,
		importRepo:     importRepo,
		logger:         logger,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// GetMetrics gathers the admin dashboard counters and recent activity.
// The queries are independent and run concurrently.
func (s *DashboardService) GetMetrics(ctx context.Context) (*domain.DashboardMetricsDTO, error) {
	metrics := &domain.DashboardMetricsDTO{}
	now := s.now()
	active := domain.FirmStatusActive

	var nominations []domain.Nomination
	var imports []domain.ImportRun

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		metrics.TotalFirms, err = s.firmRepo.CountByStatus(gctx, nil)
		return wrapMetric("total firms", err)
	})
	g.Go(func() (err error) {
		metrics.ActiveFirms, err = s.firmRepo.CountByStatus(gctx, &active)
		return wrapMetric("active firms", err)
	})
	g.Go(func() (err error) {
		metrics.PremiumFirms, err = s.firmRepo.CountPremium(gctx, now)
		return wrapMetric("premium firms", err)
	})
	g.Go(func() (err error) {
		metrics.TotalOffices, err = s.officeRepo.Count(gctx)
		return wrapMetric("offices", err)
	})
	g.Go(func() (err error) {
		metrics.TotalLawyers, err = s.lawyerRepo.Count(gctx)
		return wrapMetric("lawyers", err)
	})
	g.Go(func() (err error) {
		metrics.PendingNominations, err = s.nominationRepo.CountByStatus(gctx, domain.NominationStatusPending)
		return wrapMetric("pending nominations", err)
	})
	g.Go(func() (err error) {
		metrics.PublishedPosts, err = s.blogRepo.CountPublished(gctx, now)
		return wrapMetric("published posts", err)
	})
	g.Go(func() (err error) {
		nominations, err = s.nominationRepo.Recent(gctx, dashboardRecentLimit)
		return wrapMetric("recent nominations", err)
	})
	g.Go(func() (err error) {
		imports, err = s.importRepo.Recent(gctx, dashboardRecentLimit)
		return wrapMetric("recent imports", err)
	})

	if err := g.Wait(); err != nil {
		s.logger.Error("failed to load dashboard metrics", zap.Error(err))
		return nil, err
	}

	metrics.RecentNominations = make([]domain.NominationDTO, len(nominations))
	for i := range nominations {
		metrics.RecentNominations[i] = mapper.ToNominationDTO(&nominations[i])
	}
	metrics.RecentImports = make([]domain.ImportRunDTO, len(imports))
	for i := range imports {
		metrics.RecentImports[i] = mapper.ToImportRunDTO(&imports[i])
	}
	return metrics, nil
}

func wrapMetric(name string, err error) error {
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", name, err)
	}
	return nil
}
