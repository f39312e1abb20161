package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/lawdir/directory-api/internal/domain"
	"github.com/lawdir/directory-api/internal/service"
	"github.com/lawdir/directory-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type directoryFixture struct {
	env    *testEnv
	texas  *domain.State
	oregon *domain.State
	austin *domain.City
	family *domain.PracticeArea
}

func newDirectoryFixture(t *testing.T) *directoryFixture {
	t.Helper()
	env := newTestEnv(t)
	texas := testutil.CreateState(t, env.db, "Texas", "TX")
	oregon := testutil.CreateState(t, env.db, "Oregon", "OR")
	metro := testutil.CreateMetro(t, env.db, texas, "Greater Austin")
	austin := testutil.CreateCity(t, env.db, texas, metro, "Austin")
	testutil.CreateCity(t, env.db, texas, nil, "Amarillo")
	family := testutil.CreatePracticeArea(t, env.db, "Family Law")
	testutil.CreatePracticeArea(t, env.db, "Maritime Law")

	past := time.Now().UTC().Add(-time.Hour)
	future := time.Now().UTC().Add(24 * time.Hour)
	firms := []*domain.Firm{
		testutil.CreateFirm(t, env.db, "Zeta Law", testutil.WithTier(1), testutil.WithPremium(&future), testutil.WithPracticeAreas(family)),
		testutil.CreateFirm(t, env.db, "Alpha Law", testutil.WithTier(3), testutil.WithPracticeAreas(family)),
		testutil.CreateFirm(t, env.db, "Beta Law", testutil.WithTier(3)),
		testutil.CreateFirm(t, env.db, "Expired Law", testutil.WithTier(0), testutil.WithPremium(&past)),
		testutil.CreateFirm(t, env.db, "Hidden Law", testutil.WithStatus(domain.FirmStatusInactive)),
	}
	for _, f := range firms {
		testutil.CreateOffice(t, env.db, f, austin, true)
	}
	return &directoryFixture{env: env, texas: texas, oregon: oregon, austin: austin, family: family}
}

func firmNames(t *testing.T, resp *domain.PaginatedResponse) []string {
	t.Helper()
	firms, ok := resp.Data.([]domain.FirmDTO)
	require.True(t, ok)
	names := make([]string, len(firms))
	for i, f := range firms {
		names[i] = f.Name
	}
	return names
}

func TestDirectoryService_SearchOrdersPremiumThenTier(t *testing.T) {
	f := newDirectoryFixture(t)

	resp, err := f.env.directory.Search(context.Background(), domain.FirmSearchParams{State: "tx"})
	require.NoError(t, err)
	assert.Equal(t, int64(4), resp.Total)
	assert.Equal(t, []string{"Zeta Law", "Alpha Law", "Beta Law", "Expired Law"}, firmNames(t, resp))
}

func TestDirectoryService_SearchFilters(t *testing.T) {
	f := newDirectoryFixture(t)
	ctx := context.Background()

	resp, err := f.env.directory.Search(ctx, domain.FirmSearchParams{PracticeArea: "family-law"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Zeta Law", "Alpha Law"}, firmNames(t, resp))

	resp, err = f.env.directory.Search(ctx, domain.FirmSearchParams{MinTier: 3})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Alpha Law", "Beta Law"}, firmNames(t, resp))

	resp, err = f.env.directory.Search(ctx, domain.FirmSearchParams{PremiumOnly: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"Zeta Law"}, firmNames(t, resp))

	resp, err = f.env.directory.Search(ctx, domain.FirmSearchParams{Query: "beta"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Beta Law"}, firmNames(t, resp))

	resp, err = f.env.directory.Search(ctx, domain.FirmSearchParams{State: "oregon"})
	require.NoError(t, err)
	assert.Zero(t, resp.Total)
}

func TestDirectoryService_StateLanding(t *testing.T) {
	f := newDirectoryFixture(t)

	landing, err := f.env.directory.StateLanding(context.Background(), "TX", 1, 2)
	require.NoError(t, err)

	assert.Equal(t, "Texas", landing.State.Name)
	assert.Equal(t, int64(4), landing.State.FirmCount)
	// only places with active firms are listed
	require.Len(t, landing.Cities, 1)
	assert.Equal(t, "Austin", landing.Cities[0].Name)
	require.Len(t, landing.Metros, 1)
	assert.Equal(t, "greater-austin", landing.Metros[0].Slug)
	require.Len(t, landing.PracticeAreas, 1)
	assert.Equal(t, int64(2), landing.PracticeAreas[0].FirmCount)

	assert.Equal(t, int64(4), landing.Firms.Total)
	assert.Equal(t, 2, landing.Firms.TotalPages)

	_, err = f.env.directory.StateLanding(context.Background(), "atlantis", 1, 20)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestDirectoryService_MetroAndCityLanding(t *testing.T) {
	f := newDirectoryFixture(t)
	ctx := context.Background()

	metro, err := f.env.directory.MetroLanding(ctx, "texas", "greater-austin", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(4), metro.Metro.FirmCount)
	require.Len(t, metro.Cities, 1)
	assert.Equal(t, int64(4), metro.Firms.Total)

	city, err := f.env.directory.CityLanding(ctx, "tx", "austin", 1, 20)
	require.NoError(t, err)
	require.NotNil(t, city.Metro)
	assert.Equal(t, "Greater Austin", city.Metro.Name)
	assert.Equal(t, int64(4), city.Firms.Total)

	_, err = f.env.directory.CityLanding(ctx, "tx", "el-paso", 1, 20)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestDirectoryService_PracticeAreaLanding(t *testing.T) {
	f := newDirectoryFixture(t)

	landing, err := f.env.directory.PracticeAreaLanding(context.Background(), "family-law", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), landing.PracticeArea.FirmCount)
	require.Len(t, landing.States, 1)
	assert.Equal(t, "TX", landing.States[0].Code)
	assert.Equal(t, int64(2), landing.Firms.Total)
}

func TestDirectoryService_FirmProfileHidesInactive(t *testing.T) {
	f := newDirectoryFixture(t)
	ctx := context.Background()

	profile, err := f.env.directory.FirmProfile(ctx, "alpha-law")
	require.NoError(t, err)
	require.Len(t, profile.Offices, 1)
	require.NotNil(t, profile.Headquarters)
	assert.Equal(t, "Austin", profile.Headquarters.CityName)

	_, err = f.env.directory.FirmProfile(ctx, "hidden-law")
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestDirectoryService_StatesCacheInvalidatedOnWrite(t *testing.T) {
	f := newDirectoryFixture(t)
	ctx := adminContext()

	states, err := f.env.directory.States(ctx)
	require.NoError(t, err)
	counts := map[string]int64{}
	for _, s := range states {
		counts[s.Code] = s.FirmCount
	}
	assert.Equal(t, int64(0), counts["OR"])

	portland := testutil.CreateCity(t, f.env.db, f.oregon, nil, "Portland")
	firm, err := f.env.firms.Create(ctx, &domain.CreateFirmRequest{Name: "Rose City Law"})
	require.NoError(t, err)
	_, err = f.env.offices.Create(ctx, firm.ID, &domain.CreateOfficeRequest{CityID: portland.ID})
	require.NoError(t, err)

	states, err = f.env.directory.States(ctx)
	require.NoError(t, err)
	for _, s := range states {
		counts[s.Code] = s.FirmCount
	}
	assert.Equal(t, int64(1), counts["OR"])
}

func TestDirectoryService_Home(t *testing.T) {
	f := newDirectoryFixture(t)
	ctx := adminContext()
	require.NoError(t, f.env.db.Model(f.family).Update("is_featured", true).Error)

	_, err := f.env.content.CreatePost(ctx, &domain.CreateBlogPostRequest{Title: "Custody basics", Body: "Read this.", Status: domain.BlogPostStatusPublished})
	require.NoError(t, err)
	_, err = f.env.content.CreatePost(ctx, &domain.CreateBlogPostRequest{Title: "Unfinished", Body: "Draft."})
	require.NoError(t, err)

	home, err := f.env.directory.Home(ctx)
	require.NoError(t, err)
	assert.Len(t, home.States, 2)
	require.Len(t, home.FeaturedPracticeAreas, 1)
	assert.Equal(t, "Family Law", home.FeaturedPracticeAreas[0].Name)
	require.Len(t, home.PremiumFirms, 1)
	assert.Equal(t, "Zeta Law", home.PremiumFirms[0].Name)
	require.Len(t, home.RecentPosts, 1)
	assert.Equal(t, "custody-basics", home.RecentPosts[0].Slug)
}
