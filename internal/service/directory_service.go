package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lawdir/directory-api/internal/cache"
	"github.com/lawdir/directory-api/internal/domain"
	"github.com/lawdir/directory-api/internal/mapper"
	"github.com/lawdir/directory-api/internal/repository"
	"go.uber.org/zap"
)

const (
	homeFeaturedPracticeAreas = 8
	homePremiumFirms          = 6
	homeRecentPosts           = 3
)

// DirectoryService serves the public, read-only side of the directory.
// Only active firms are visible. Navigation data is cached under the
// "directory:" prefix and dropped on every directory write; firm pages are
// always queried live.
type DirectoryService struct {
	stateRepo *repository.StateRepository
	metroRepo *repository.MetroRepository
	cityRepo  *repository.CityRepository
	paRepo    *repository.PracticeAreaRepository
	firmRepo  *repository.FirmRepository
	blogRepo  *repository.BlogPostRepository
	cache     cache.Cache
	logger    *zap.Logger
	now       func() time.Time
}

// NewDirectoryService creates a new directory service
func NewDirectoryService(
	stateRepo *repository.StateRepository,
	metroRepo *repository.MetroRepository,
	cityRepo *repository.CityRepository,
	paRepo *repository.PracticeAreaRepository,
	firmRepo *repository.FirmRepository,
	blogRepo *repository.BlogPostRepository,
	c cache.Cache,
	logger *zap.Logger,
) *DirectoryService {
	if c == nil {
		c = cache.Noop{}
	}
	return &DirectoryService{
		stateRepo: stateRepo,
		metroRepo: metroRepo,
		cityRepo:  cityRepo,
		paRepo:    paRepo,
		firmRepo:  firmRepo,
		blogRepo:  blogRepo,
		cache:     c,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// cached reads through the directory cache
func cached[T any](ctx context.Context, s *DirectoryService, key string, load func() (T, error)) (T, error) {
	return readThrough(ctx, s.cache, s.logger, cachePrefixDirectory+key, load)
}

// Home returns the landing page data
func (s *DirectoryService) Home(ctx context.Context) (*domain.DirectoryHomeDTO, error) {
	home, err := cached(ctx, s, "home", func() (domain.DirectoryHomeDTO, error) {
		var home domain.DirectoryHomeDTO
		var err error

		if home.States, err = s.loadStates(ctx); err != nil {
			return home, err
		}

		featured, err := s.paRepo.ListFeatured(ctx, homeFeaturedPracticeAreas)
		if err != nil {
			return home, fmt.Errorf("failed to list featured practice areas: %w", err)
		}
		counts, err := s.firmRepo.CountsByPracticeArea(ctx, nil)
		if err != nil {
			return home, fmt.Errorf("failed to count firms by practice area: %w", err)
		}
		home.FeaturedPracticeAreas = make([]domain.PracticeAreaDTO, 0, len(featured))
		for i := range featured {
			home.FeaturedPracticeAreas = append(home.FeaturedPracticeAreas, mapper.ToPracticeAreaDTO(&featured[i], counts[featured[i].ID]))
		}

		now := s.now()
		active := domain.FirmStatusActive
		premium, _, err := s.firmRepo.Search(ctx, repository.FirmFilters{PremiumOnly: true, Status: &active, Now: now}, nil, 1, homePremiumFirms)
		if err != nil {
			return home, fmt.Errorf("failed to list premium firms: %w", err)
		}
		home.PremiumFirms = make([]domain.FirmDTO, 0, len(premium))
		for i := range premium {
			home.PremiumFirms = append(home.PremiumFirms, mapper.ToFirmDTO(&premium[i], now))
		}

		posts, _, err := s.blogRepo.ListPublished(ctx, nil, now, 1, homeRecentPosts)
		if err != nil {
			return home, fmt.Errorf("failed to list recent posts: %w", err)
		}
		home.RecentPosts = make([]domain.BlogPostDTO, 0, len(posts))
		for i := range posts {
			home.RecentPosts = append(home.RecentPosts, mapper.ToBlogPostDTO(&posts[i], false))
		}
		return home, nil
	})
	if err != nil {
		return nil, err
	}
	return &home, nil
}

// States returns every state with its active firm count
func (s *DirectoryService) States(ctx context.Context) ([]domain.StateDTO, error) {
	return cached(ctx, s, "states", func() ([]domain.StateDTO, error) {
		return s.loadStates(ctx)
	})
}

func (s *DirectoryService) loadStates(ctx context.Context) ([]domain.StateDTO, error) {
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

// PracticeAreas returns every practice area with its active firm count
func (s *DirectoryService) PracticeAreas(ctx context.Context) ([]domain.PracticeAreaDTO, error) {
	return cached(ctx, s, "practice-areas", func() ([]domain.PracticeAreaDTO, error) {
		areas, err := s.paRepo.List(ctx, "")
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
	})
}

// stateNav is the cached navigation part of a state landing page
type stateNav struct {
	State         domain.StateDTO          `json:"state"`
	Metros        []domain.MetroDTO        `json:"metros"`
	Cities        []domain.CityDTO         `json:"cities"`
	PracticeAreas []domain.PracticeAreaDTO `json:"practiceAreas"`
}

// StateLanding returns a state page: metros, cities and practice areas that
// have active firms, and a page of the state's firms. stateKey is a slug or
// two-letter code.
func (s *DirectoryService) StateLanding(ctx context.Context, stateKey string, page, pageSize int) (*domain.StateLandingDTO, error) {
	stateKey = strings.ToLower(strings.TrimSpace(stateKey))
	nav, err := cached(ctx, s, "state:"+stateKey, func() (stateNav, error) {
		var nav stateNav
		state, err := s.stateRepo.GetBySlugOrCode(ctx, stateKey)
		if err != nil {
			return nav, notFoundOr(err, "state")
		}

		stateCounts, err := s.firmRepo.CountsByState(ctx)
		if err != nil {
			return nav, fmt.Errorf("failed to count firms by state: %w", err)
		}
		nav.State = mapper.ToStateDTO(state, stateCounts[state.ID])

		metros, err := s.metroRepo.ListByState(ctx, state.ID)
		if err != nil {
			return nav, fmt.Errorf("failed to list metros: %w", err)
		}
		metroCounts, err := s.firmRepo.CountsByMetro(ctx, state.ID)
		if err != nil {
			return nav, fmt.Errorf("failed to count firms by metro: %w", err)
		}
		nav.Metros = []domain.MetroDTO{}
		for i := range metros {
			if n := metroCounts[metros[i].ID]; n > 0 {
				metros[i].State = state
				nav.Metros = append(nav.Metros, mapper.ToMetroDTO(&metros[i], n))
			}
		}

		cities, err := s.cityRepo.ListByState(ctx, state.ID)
		if err != nil {
			return nav, fmt.Errorf("failed to list cities: %w", err)
		}
		cityCounts, err := s.firmRepo.CountsByCity(ctx, state.ID)
		if err != nil {
			return nav, fmt.Errorf("failed to count firms by city: %w", err)
		}
		nav.Cities = citiesWithFirms(cities, cityCounts)

		areas, err := s.paRepo.List(ctx, "")
		if err != nil {
			return nav, fmt.Errorf("failed to list practice areas: %w", err)
		}
		areaCounts, err := s.firmRepo.CountsByPracticeArea(ctx, &state.ID)
		if err != nil {
			return nav, fmt.Errorf("failed to count firms by practice area: %w", err)
		}
		nav.PracticeAreas = []domain.PracticeAreaDTO{}
		for i := range areas {
			if n := areaCounts[areas[i].ID]; n > 0 {
				nav.PracticeAreas = append(nav.PracticeAreas, mapper.ToPracticeAreaDTO(&areas[i], n))
			}
		}
		return nav, nil
	})
	if err != nil {
		return nil, err
	}

	firms, err := s.searchActive(ctx, repository.FirmFilters{State: nav.State.Slug}, page, pageSize)
	if err != nil {
		return nil, err
	}

	return &domain.StateLandingDTO{
		State:         nav.State,
		Metros:        nav.Metros,
		Cities:        nav.Cities,
		PracticeAreas: nav.PracticeAreas,
		Firms:         *firms,
	}, nil
}

type metroNav struct {
	State  domain.StateDTO  `json:"state"`
	Metro  domain.MetroDTO  `json:"metro"`
	Cities []domain.CityDTO `json:"cities"`
}

// MetroLanding returns a metro page with its cities and firms
func (s *DirectoryService) MetroLanding(ctx context.Context, stateKey, metroSlug string, page, pageSize int) (*domain.MetroLandingDTO, error) {
	stateKey = strings.ToLower(strings.TrimSpace(stateKey))
	metroSlug = strings.ToLower(strings.TrimSpace(metroSlug))

	nav, err := cached(ctx, s, "metro:"+stateKey+":"+metroSlug, func() (metroNav, error) {
		var nav metroNav
		state, err := s.stateRepo.GetBySlugOrCode(ctx, stateKey)
		if err != nil {
			return nav, notFoundOr(err, "state")
		}
		metro, err := s.metroRepo.GetBySlug(ctx, state.ID, metroSlug)
		if err != nil {
			return nav, notFoundOr(err, "metro")
		}
		metro.State = state

		metroCounts, err := s.firmRepo.CountsByMetro(ctx, state.ID)
		if err != nil {
			return nav, fmt.Errorf("failed to count firms by metro: %w", err)
		}
		cities, err := s.cityRepo.ListByMetro(ctx, metro.ID)
		if err != nil {
			return nav, fmt.Errorf("failed to list cities: %w", err)
		}
		cityCounts, err := s.firmRepo.CountsByCity(ctx, state.ID)
		if err != nil {
			return nav, fmt.Errorf("failed to count firms by city: %w", err)
		}

		nav.State = mapper.ToStateDTO(state, 0)
		nav.Metro = mapper.ToMetroDTO(metro, metroCounts[metro.ID])
		nav.Cities = citiesWithFirms(cities, cityCounts)
		return nav, nil
	})
	if err != nil {
		return nil, err
	}

	firms, err := s.searchActive(ctx, repository.FirmFilters{State: nav.State.Slug, Metro: nav.Metro.Slug}, page, pageSize)
	if err != nil {
		return nil, err
	}
	return &domain.MetroLandingDTO{State: nav.State, Metro: nav.Metro, Cities: nav.Cities, Firms: *firms}, nil
}

type cityNav struct {
	State domain.StateDTO  `json:"state"`
	Metro *domain.MetroDTO `json:"metro,omitempty"`
	City  domain.CityDTO   `json:"city"`
}

// CityLanding returns a city page with its firms
func (s *DirectoryService) CityLanding(ctx context.Context, stateKey, citySlug string, page, pageSize int) (*domain.CityLandingDTO, error) {
	stateKey = strings.ToLower(strings.TrimSpace(stateKey))
	citySlug = strings.ToLower(strings.TrimSpace(citySlug))

	nav, err := cached(ctx, s, "city:"+stateKey+":"+citySlug, func() (cityNav, error) {
		var nav cityNav
		state, err := s.stateRepo.GetBySlugOrCode(ctx, stateKey)
		if err != nil {
			return nav, notFoundOr(err, "state")
		}
		city, err := s.cityRepo.GetBySlug(ctx, state.ID, citySlug)
		if err != nil {
			return nav, notFoundOr(err, "city")
		}
		cityCounts, err := s.firmRepo.CountsByCity(ctx, state.ID)
		if err != nil {
			return nav, fmt.Errorf("failed to count firms by city: %w", err)
		}

		nav.State = mapper.ToStateDTO(state, 0)
		nav.City = mapper.ToCityDTO(city, cityCounts[city.ID])
		if city.Metro != nil {
			city.Metro.State = state
			metro := mapper.ToMetroDTO(city.Metro, 0)
			nav.Metro = &metro
		}
		return nav, nil
	})
	if err != nil {
		return nil, err
	}

	firms, err := s.searchActive(ctx, repository.FirmFilters{State: nav.State.Slug, City: nav.City.Slug}, page, pageSize)
	if err != nil {
		return nil, err
	}
	return &domain.CityLandingDTO{State: nav.State, Metro: nav.Metro, City: nav.City, Firms: *firms}, nil
}

type practiceAreaNav struct {
	PracticeArea domain.PracticeAreaDTO `json:"practiceArea"`
	States       []domain.StateDTO      `json:"states"`
}

// PracticeAreaLanding returns a practice area page with the states it is offered in
func (s *DirectoryService) PracticeAreaLanding(ctx context.Context, paSlug string, page, pageSize int) (*domain.PracticeAreaLandingDTO, error) {
	paSlug = strings.ToLower(strings.TrimSpace(paSlug))

	nav, err := cached(ctx, s, "practice-area:"+paSlug, func() (practiceAreaNav, error) {
		var nav practiceAreaNav
		pa, err := s.paRepo.GetBySlug(ctx, paSlug)
		if err != nil {
			return nav, notFoundOr(err, "practice area")
		}
		areaCounts, err := s.firmRepo.CountsByPracticeArea(ctx, nil)
		if err != nil {
			return nav, fmt.Errorf("failed to count firms by practice area: %w", err)
		}
		stateCounts, err := s.firmRepo.StateCountsForPracticeArea(ctx, pa.ID)
		if err != nil {
			return nav, fmt.Errorf("failed to count firms by state: %w", err)
		}
		states, err := s.stateRepo.List(ctx)
		if err != nil {
			return nav, fmt.Errorf("failed to list states: %w", err)
		}

		nav.PracticeArea = mapper.ToPracticeAreaDTO(pa, areaCounts[pa.ID])
		nav.States = []domain.StateDTO{}
		for i := range states {
			if n := stateCounts[states[i].ID]; n > 0 {
				nav.States = append(nav.States, mapper.ToStateDTO(&states[i], n))
			}
		}
		return nav, nil
	})
	if err != nil {
		return nil, err
	}

	firms, err := s.searchActive(ctx, repository.FirmFilters{PracticeArea: nav.PracticeArea.Slug}, page, pageSize)
	if err != nil {
		return nil, err
	}
	return &domain.PracticeAreaLandingDTO{PracticeArea: nav.PracticeArea, States: nav.States, Firms: *firms}, nil
}

// FirmProfile returns an active firm with its offices and lawyers
func (s *DirectoryService) FirmProfile(ctx context.Context, firmSlug string) (*domain.FirmDetailDTO, error) {
	firm, err := s.firmRepo.GetDetail(ctx, "slug = ? AND status = ?", strings.ToLower(strings.TrimSpace(firmSlug)), domain.FirmStatusActive)
	if err != nil {
		return nil, notFoundOr(err, "firm")
	}
	dto := mapper.ToFirmDetailDTO(firm, s.now())
	return &dto, nil
}

// Search runs the public firm search
func (s *DirectoryService) Search(ctx context.Context, params domain.FirmSearchParams) (*domain.PaginatedResponse, error) {
	minTier := params.MinTier
	if minTier < 0 {
		minTier = 0
	}
	if minTier > domain.MaxFirmTier {
		minTier = domain.MaxFirmTier
	}
	return s.searchActive(ctx, repository.FirmFilters{
		Query:        strings.TrimSpace(params.Query),
		State:        strings.TrimSpace(params.State),
		Metro:        strings.TrimSpace(params.Metro),
		City:         strings.TrimSpace(params.City),
		PracticeArea: strings.TrimSpace(params.PracticeArea),
		MinTier:      minTier,
		PremiumOnly:  params.PremiumOnly,
	}, params.Page, params.PageSize)
}

func (s *DirectoryService) searchActive(ctx context.Context, filters repository.FirmFilters, page, pageSize int) (*domain.PaginatedResponse, error) {
	active := domain.FirmStatusActive
	filters.Status = &active
	filters.Now = s.now()

	page, pageSize = repository.NormalizePagination(page, pageSize)
	firms, total, err := s.firmRepo.Search(ctx, filters, nil, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to search firms: %w", err)
	}

	dtos := make([]domain.FirmDTO, 0, len(firms))
	for i := range firms {
		dtos = append(dtos, mapper.ToFirmDTO(&firms[i], filters.Now))
	}
	return &domain.PaginatedResponse{
		Data:       dtos,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	}, nil
}

func citiesWithFirms(cities []domain.City, counts map[uuid.UUID]int64) []domain.CityDTO {
	out := []domain.CityDTO{}
	for i := range cities {
		if n := counts[cities[i].ID]; n > 0 {
			out = append(out, mapper.ToCityDTO(&cities[i], n))
		}
	}
	return out
}
