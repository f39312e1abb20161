package repository_test

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/lawdir/directory-api/internal/domain"
	"github.com/lawdir/directory-api/internal/repository"
	"github.com/lawdir/directory-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type directoryFixture struct {
	ny, ca             *domain.State
	nycMetro           *domain.Metro
	manhattan, albany  *domain.City
	losAngeles         *domain.City
	family, criminal   *domain.PracticeArea
	alpha, bravo       *domain.Firm
	charlie, delta     *domain.Firm
	echo, inactiveFirm *domain.Firm
}

func seedDirectory(t *testing.T, db *gorm.DB, now time.Time) *directoryFixture {
	f := &directoryFixture{}
	f.ny = testutil.CreateState(t, db, "New York", "NY")
	f.ca = testutil.CreateState(t, db, "California", "CA")
	f.nycMetro = testutil.CreateMetro(t, db, f.ny, "New York City")
	f.manhattan = testutil.CreateCity(t, db, f.ny, f.nycMetro, "Manhattan")
	f.albany = testutil.CreateCity(t, db, f.ny, nil, "Albany")
	f.losAngeles = testutil.CreateCity(t, db, f.ca, nil, "Los Angeles")
	f.family = testutil.CreatePracticeArea(t, db, "Family Law")
	f.criminal = testutil.CreatePracticeArea(t, db, "Criminal Defense")

	future := now.Add(30 * 24 * time.Hour)
	past := now.Add(-24 * time.Hour)

	// Ranking: premium (open-ended or unexpired) first, then tier, then name
	f.alpha = testutil.CreateFirm(t, db, "Alpha Legal", testutil.WithTier(3), testutil.WithPracticeAreas(f.family))
	f.bravo = testutil.CreateFirm(t, db, "Bravo Partners", testutil.WithTier(1), testutil.WithPremium(&future), testutil.WithPracticeAreas(f.criminal))
	f.charlie = testutil.CreateFirm(t, db, "Charlie & Co", testutil.WithTier(1), testutil.WithPremium(&past), testutil.WithPracticeAreas(f.family, f.criminal))
	f.delta = testutil.CreateFirm(t, db, "Delta Law", testutil.WithTier(0), testutil.WithPremium(nil))
	f.echo = testutil.CreateFirm(t, db, "Echo Attorneys", testutil.WithTier(1))
	f.inactiveFirm = testutil.CreateFirm(t, db, "Foxtrot Inactive", testutil.WithStatus(domain.FirmStatusInactive), testutil.WithPracticeAreas(f.family))

	testutil.CreateOffice(t, db, f.alpha, f.manhattan, true)
	testutil.CreateOffice(t, db, f.alpha, f.albany, false)
	testutil.CreateOffice(t, db, f.bravo, f.manhattan, true)
	testutil.CreateOffice(t, db, f.charlie, f.losAngeles, true)
	testutil.CreateOffice(t, db, f.delta, f.albany, true)
	testutil.CreateOffice(t, db, f.echo, f.losAngeles, true)
	testutil.CreateOffice(t, db, f.inactiveFirm, f.manhattan, true)
	return f
}

func names(firms []domain.Firm) []string {
	out := make([]string, 0, len(firms))
	for _, f := range firms {
		out = append(out, f.Name)
	}
	return out
}

func activeOnly() *domain.FirmStatus {
	s := domain.FirmStatusActive
	return &s
}

func TestFirmRepository_SearchListingOrder(t *testing.T) {
	db := testutil.SetupTestDB(t)
	now := time.Now().UTC()
	seedDirectory(t, db, now)
	repo := repository.NewFirmRepository(db)

	firms, total, err := repo.Search(context.Background(), repository.FirmFilters{Status: activeOnly(), Now: now}, nil, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Equal(t, []string{
		"Bravo Partners", // premium, tier 1
		"Delta Law",      // premium without end date, tier 0
		"Alpha Legal",    // tier 3
		"Charlie & Co",   // expired premium, tier 1
		"Echo Attorneys", // tier 1
	}, names(firms))
}

func TestFirmRepository_SearchFilters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	now := time.Now().UTC()
	seedDirectory(t, db, now)
	repo := repository.NewFirmRepository(db)
	ctx := context.Background()

	tests := []struct {
		name     string
		filters  repository.FirmFilters
		expected []string
	}{
		{"state slug", repository.FirmFilters{State: "new-york"}, []string{"Bravo Partners", "Delta Law", "Alpha Legal"}},
		{"state code", repository.FirmFilters{State: "ca"}, []string{"Charlie & Co", "Echo Attorneys"}},
		{"metro", repository.FirmFilters{State: "new-york", Metro: "new-york-city"}, []string{"Bravo Partners", "Alpha Legal"}},
		{"city", repository.FirmFilters{State: "NY", City: "albany"}, []string{"Delta Law", "Alpha Legal"}},
		{"practice area", repository.FirmFilters{PracticeArea: "family-law"}, []string{"Alpha Legal", "Charlie & Co"}},
		{"practice area and state", repository.FirmFilters{PracticeArea: "criminal-defense", State: "ca"}, []string{"Charlie & Co"}},
		{"text query", repository.FirmFilters{Query: "part"}, []string{"Bravo Partners"}},
		{"wildcard is literal", repository.FirmFilters{Query: "%"}, []string{}},
		{"min tier", repository.FirmFilters{MinTier: 2}, []string{"Alpha Legal"}},
		{"premium only", repository.FirmFilters{PremiumOnly: true}, []string{"Bravo Partners", "Delta Law"}},
		{"no match", repository.FirmFilters{City: "nowhere"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.filters.Status = activeOnly()
			tt.filters.Now = now
			firms, total, err := repo.Search(ctx, tt.filters, nil, 1, 50)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, names(firms))
			assert.Equal(t, int64(len(tt.expected)), total)
		})
	}
}

func TestFirmRepository_SearchIncludesInactiveWithoutStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	now := time.Now().UTC()
	seedDirectory(t, db, now)
	repo := repository.NewFirmRepository(db)

	sort := repository.SortConfig{Field: "name", Order: repository.SortOrderAsc}
	firms, total, err := repo.Search(context.Background(), repository.FirmFilters{State: "new-york"}, &sort, 1, 50)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	assert.Equal(t, []string{"Alpha Legal", "Bravo Partners", "Delta Law", "Foxtrot Inactive"}, names(firms))
}

func TestFirmRepository_SearchPreloadsHeadquarters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	now := time.Now().UTC()
	seedDirectory(t, db, now)
	repo := repository.NewFirmRepository(db)

	firms, _, err := repo.Search(context.Background(), repository.FirmFilters{Query: "alpha"}, nil, 1, 10)
	require.NoError(t, err)
	require.Len(t, firms, 1)
	require.Len(t, firms[0].Offices, 1)
	assert.True(t, firms[0].Offices[0].IsHeadquarters)
	require.NotNil(t, firms[0].Offices[0].City)
	assert.Equal(t, "Manhattan", firms[0].Offices[0].City.Name)
	require.Len(t, firms[0].PracticeAreas, 1)
	assert.Equal(t, "family-law", firms[0].PracticeAreas[0].Slug)
}

func TestFirmRepository_Pagination(t *testing.T) {
	db := testutil.SetupTestDB(t)
	now := time.Now().UTC()
	seedDirectory(t, db, now)
	repo := repository.NewFirmRepository(db)

	firms, total, err := repo.Search(context.Background(), repository.FirmFilters{Status: activeOnly(), Now: now}, nil, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Equal(t, []string{"Alpha Legal", "Charlie & Co"}, names(firms))
}

func TestFirmRepository_Counts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	now := time.Now().UTC()
	f := seedDirectory(t, db, now)
	repo := repository.NewFirmRepository(db)
	ctx := context.Background()

	byState, err := repo.CountsByState(ctx)
	require.NoError(t, err)
	// Alpha has two NY offices but counts once; the inactive firm is excluded
	assert.Equal(t, int64(3), byState[f.ny.ID])
	assert.Equal(t, int64(2), byState[f.ca.ID])

	byCity, err := repo.CountsByCity(ctx, f.ny.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), byCity[f.manhattan.ID])
	assert.Equal(t, int64(2), byCity[f.albany.ID])
	assert.Zero(t, byCity[f.losAngeles.ID])

	byMetro, err := repo.CountsByMetro(ctx, f.ny.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), byMetro[f.nycMetro.ID])

	byArea, err := repo.CountsByPracticeArea(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), byArea[f.family.ID])
	assert.Equal(t, int64(2), byArea[f.criminal.ID])

	byAreaInCA, err := repo.CountsByPracticeArea(ctx, &f.ca.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), byAreaInCA[f.family.ID])

	statesForFamily, err := repo.StateCountsForPracticeArea(ctx, f.family.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), statesForFamily[f.ny.ID])
	assert.Equal(t, int64(1), statesForFamily[f.ca.ID])
}

func TestFirmRepository_DeleteCascades(t *testing.T) {
	db := testutil.SetupTestDB(t)
	now := time.Now().UTC()
	f := seedDirectory(t, db, now)
	testutil.CreateLawyer(t, db, f.alpha, "Ada", "Lovelace")
	repo := repository.NewFirmRepository(db)

	require.NoError(t, repo.Delete(context.Background(), f.alpha.ID))

	var offices, lawyers, links int64
	require.NoError(t, db.Model(&domain.Office{}).Where("firm_id = ?", f.alpha.ID).Count(&offices).Error)
	require.NoError(t, db.Model(&domain.Lawyer{}).Where("firm_id = ?", f.alpha.ID).Count(&lawyers).Error)
	require.NoError(t, db.Table("firm_practice_areas").Where("firm_id = ?", f.alpha.ID).Count(&links).Error)
	assert.Zero(t, offices)
	assert.Zero(t, lawyers)
	assert.Zero(t, links)

	_, err := repo.GetByID(context.Background(), f.alpha.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// Practice areas themselves survive
	var areas int64
	require.NoError(t, db.Model(&domain.PracticeArea{}).Count(&areas).Error)
	assert.Equal(t, int64(2), areas)
}

func TestFirmRepository_ExpirePremium(t *testing.T) {
	db := testutil.SetupTestDB(t)
	now := time.Now().UTC()
	f := seedDirectory(t, db, now)
	repo := repository.NewFirmRepository(db)

	expired, err := repo.ExpirePremium(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, f.charlie.ID, expired[0].ID)

	charlie, err := repo.GetByID(context.Background(), f.charlie.ID)
	require.NoError(t, err)
	assert.False(t, charlie.IsPremium)

	// Open-ended and future premiums are untouched
	delta, err := repo.GetByID(context.Background(), f.delta.ID)
	require.NoError(t, err)
	assert.True(t, delta.IsPremium)
	bravo, err := repo.GetByID(context.Background(), f.bravo.ID)
	require.NoError(t, err)
	assert.True(t, bravo.IsPremium)

	count, err := repo.CountPremium(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestNormalizePagination(t *testing.T) {
	page, size := repository.NormalizePagination(0, 0)
	assert.Equal(t, 1, page)
	assert.Equal(t, repository.DefaultPageSize, size)

	page, size = repository.NormalizePagination(3, 1000)
	assert.Equal(t, 3, page)
	assert.Equal(t, repository.MaxPageSize, size)
}

func TestBuildOrderClause(t *testing.T) {
	fields := map[string]string{"name": "LOWER(name)"}
	assert.Equal(t, "LOWER(name) ASC", repository.BuildOrderClause(repository.SortConfig{Field: "name", Order: repository.SortOrderAsc}, fields, "updated_at"))
	assert.Equal(t, "updated_at DESC", repository.BuildOrderClause(repository.SortConfig{Field: "password", Order: repository.ParseSortOrder("sideways")}, fields, "updated_at"))
}

func TestFirmRepository_SearchHugePageIsEmpty(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewFirmRepository(db)
	testutil.CreateFirm(t, db, "Alpha Legal")

	firms, total, err := repo.Search(context.Background(), repository.FirmFilters{}, nil, math.MaxInt, repository.MaxPageSize)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Empty(t, firms)
}

func TestNormalizePaginationOverflow(t *testing.T) {
	page, size := repository.NormalizePagination(math.MaxInt, math.MaxInt)
	assert.Equal(t, repository.MaxPage, page)
	assert.Equal(t, repository.MaxPageSize, size)
	assert.Positive(t, (page-1)*size)
}
