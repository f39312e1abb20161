package service_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/lawdir/directory-api/internal/domain"
	"github.com/lawdir/directory-api/internal/service"
	"github.com/lawdir/directory-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const importCSV = `firm_name,address,city,state,zip,metro,practice_areas,tier,premium,website
Lone Star Counsel,100 Congress Ave,Austin,TX,78701,Greater Austin,Business Law; Tax Law,2,yes,lonestar.example
Lone Star Counsel,5 Elm St,Dallas,Texas,75201,,Business Law,,,
Gulf Coast Injury,9 Bay Rd,Houston,TX,,,Personal Injury,,,
Broken Row,1 Nowhere,Springfield,Atlantis,,,,,,
,1 Missing,Austin,TX,,,,,,
`

func TestImportService_Import(t *testing.T) {
	env := newTestEnv(t)
	ctx := adminContext()

	run, err := env.imports.Import(ctx, strings.NewReader(importCSV), service.ImportOptions{Filename: "../uploads/firms.csv"})
	require.NoError(t, err)

	assert.Equal(t, "firms.csv", run.Filename)
	assert.False(t, run.DryRun)
	assert.Equal(t, 5, run.TotalRows)
	assert.Equal(t, 2, run.CreatedCount)
	assert.Equal(t, 1, run.UpdatedCount)
	assert.Equal(t, 2, run.FailedCount)
	assert.Equal(t, "Riley Reviewer", run.PerformedBy)

	lines := map[int]string{}
	for _, e := range run.Errors {
		lines[e.Line] = e.Message
	}
	assert.Contains(t, lines[5], "unknown state")
	assert.Contains(t, lines, 6)

	lookup, err := env.firms.List(ctx, service.FirmListParams{Query: "Lone Star"})
	require.NoError(t, err)
	firms := lookup.Data.([]domain.FirmDTO)
	require.Len(t, firms, 1)

	detail, err := env.firms.GetByID(ctx, firms[0].ID)
	require.NoError(t, err)
	assert.Equal(t, domain.FirmSourceImport, detail.Source)
	assert.Equal(t, 2, detail.Tier)
	assert.True(t, detail.IsPremium)
	assert.Equal(t, "https://lonestar.example", detail.Website)
	assert.Len(t, detail.PracticeAreas, 2)
	require.Len(t, detail.Offices, 2)
	assert.True(t, detail.Offices[0].IsHeadquarters)
	assert.Equal(t, "Austin", detail.Offices[0].CityName)
	assert.Equal(t, "Greater Austin", detail.Offices[0].MetroName)
	assert.Equal(t, "Dallas", detail.Offices[1].CityName)

	// the upload is archived for later download
	rc, filename, err := env.imports.Download(ctx, run.ID)
	require.NoError(t, err)
	defer rc.Close()
	archived, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, importCSV, string(archived))
	assert.Equal(t, "firms.csv", filename)
}

func TestImportService_ReimportUpdatesInPlace(t *testing.T) {
	env := newTestEnv(t)
	ctx := adminContext()

	first := "firm_name,address,city,state,phone\nOak Law,1 Main St,Boise,ID,\n"
	_, err := env.imports.Import(ctx, strings.NewReader(first), service.ImportOptions{Filename: "a.csv"})
	require.NoError(t, err)

	second := "firm_name,address,city,state,phone,office_name\nOak Law,1 MAIN ST,Boise,ID,208-555-0100,Downtown\n"
	run, err := env.imports.Import(ctx, strings.NewReader(second), service.ImportOptions{Filename: "b.csv"})
	require.NoError(t, err)
	assert.Equal(t, 0, run.CreatedCount)
	assert.Equal(t, 1, run.UpdatedCount)

	var offices []domain.Office
	require.NoError(t, env.db.Find(&offices).Error)
	require.Len(t, offices, 1)
	assert.Equal(t, "Downtown", offices[0].Name)
	assert.Equal(t, "208-555-0100", offices[0].Phone)

	var firm domain.Firm
	require.NoError(t, env.db.First(&firm).Error)
	assert.Equal(t, "208-555-0100", firm.Phone)
}

func TestImportService_DryRunCommitsNothing(t *testing.T) {
	env := newTestEnv(t)
	ctx := adminContext()

	run, err := env.imports.Import(ctx, strings.NewReader(importCSV), service.ImportOptions{Filename: "firms.csv", DryRun: true})
	require.NoError(t, err)
	assert.True(t, run.DryRun)
	assert.Equal(t, 5, run.TotalRows)
	assert.Equal(t, 2, run.FailedCount)
	// counts match what the committed import reports
	assert.Equal(t, 2, run.CreatedCount)
	assert.Equal(t, 1, run.UpdatedCount)

	var firms, states int64
	require.NoError(t, env.db.Model(&domain.Firm{}).Count(&firms).Error)
	require.NoError(t, env.db.Model(&domain.State{}).Count(&states).Error)
	assert.Zero(t, firms)
	assert.Zero(t, states)

	_, _, err = env.imports.Download(ctx, run.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)

	history, err := env.imports.List(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), history.Total)
}

func TestImportService_CancelledImportIsRecorded(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(adminContext())
	cancel()

	csv := "firm_name,city,state\nPine Law,Boise,ID\nCedar Law,Nampa,ID\n"
	_, err := env.imports.Import(ctx, strings.NewReader(csv), service.ImportOptions{Filename: "late.csv"})
	require.ErrorIs(t, err, context.Canceled)

	history, err := env.imports.List(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Equal(t, int64(1), history.Total)
	runs := history.Data.([]domain.ImportRunDTO)
	require.Len(t, runs, 1)
	assert.Equal(t, 2, runs[0].FailedCount)
	assert.Zero(t, runs[0].CreatedCount)
	assert.Equal(t, "Riley Reviewer", runs[0].PerformedBy)

	got, err := env.imports.GetByID(context.Background(), runs[0].ID)
	require.NoError(t, err)
	require.Len(t, got.Errors, 2)
	for _, e := range got.Errors {
		assert.Equal(t, "import cancelled", e.Message)
	}

	// the file is archived because earlier rows may already be committed
	rc, _, err := env.imports.Download(context.Background(), runs[0].ID)
	require.NoError(t, err)
	_ = rc.Close()
}

func TestImportService_InvalidFile(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.imports.Import(context.Background(), strings.NewReader("name,zip\nAcme,12345\n"), service.ImportOptions{Filename: "bad.csv"})
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	var runs int64
	require.NoError(t, env.db.Model(&domain.ImportRun{}).Count(&runs).Error)
	assert.Zero(t, runs)
}

func TestImportService_GetByID(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.CreateState(t, env.db, "Idaho", "ID")

	run, err := env.imports.Import(ctx, strings.NewReader("firm_name,city,state\nPine Law,Boise,Idaho\n"), service.ImportOptions{Filename: "one.csv"})
	require.NoError(t, err)
	assert.Equal(t, "system", run.PerformedBy)

	got, err := env.imports.GetByID(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.CreatedCount)
	assert.Empty(t, got.Errors)
}
