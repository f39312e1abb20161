package service_test

import (
	"context"
	"testing"

	"github.com/lawdir/directory-api/internal/domain"
	"github.com/lawdir/directory-api/internal/service"
	"github.com/lawdir/directory-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocationService_StateCRUD(t *testing.T) {
	env := newTestEnv(t)
	ctx := adminContext()

	created, err := env.locations.CreateState(ctx, &domain.CreateStateRequest{Name: " Ohio ", Code: "oh"})
	require.NoError(t, err)
	assert.Equal(t, "Ohio", created.Name)
	assert.Equal(t, "OH", created.Code)
	assert.Equal(t, "ohio", created.Slug)

	_, err = env.locations.CreateState(ctx, &domain.CreateStateRequest{Name: "Ohio", Code: "OH"})
	assert.ErrorIs(t, err, service.ErrConflict)

	updated, err := env.locations.UpdateState(ctx, created.ID, &domain.UpdateStateRequest{Name: "State of Ohio", Code: "OH"})
	require.NoError(t, err)
	assert.Equal(t, "state-of-ohio", updated.Slug)

	require.NoError(t, env.locations.DeleteState(ctx, created.ID))
	_, err = env.locations.GetState(ctx, created.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestLocationService_DeleteStateInUse(t *testing.T) {
	env := newTestEnv(t)
	ctx := adminContext()

	t.Run("with a metro only", func(t *testing.T) {
		ohio := testutil.CreateState(t, env.db, "Ohio", "OH")
		testutil.CreateMetro(t, env.db, ohio, "Greater Columbus")

		err := env.locations.DeleteState(ctx, ohio.ID)
		assert.ErrorIs(t, err, service.ErrInUse)
	})

	t.Run("with a city", func(t *testing.T) {
		maine := testutil.CreateState(t, env.db, "Maine", "ME")
		testutil.CreateCity(t, env.db, maine, nil, "Portland")

		err := env.locations.DeleteState(ctx, maine.ID)
		assert.ErrorIs(t, err, service.ErrInUse)
	})
}

func TestLocationService_DeleteCityInUse(t *testing.T) {
	env := newTestEnv(t)
	ctx := adminContext()

	texas := testutil.CreateState(t, env.db, "Texas", "TX")
	austin := testutil.CreateCity(t, env.db, texas, nil, "Austin")
	waco := testutil.CreateCity(t, env.db, texas, nil, "Waco")
	firm := testutil.CreateFirm(t, env.db, "Lone Star Legal")
	testutil.CreateOffice(t, env.db, firm, austin, true)

	assert.ErrorIs(t, env.locations.DeleteCity(ctx, austin.ID), service.ErrInUse)
	require.NoError(t, env.locations.DeleteCity(ctx, waco.ID))
	assert.ErrorIs(t, env.locations.DeleteCity(ctx, waco.ID), service.ErrNotFound)
}

func TestLocationService_DeleteMetroDetachesCitiesAndOffices(t *testing.T) {
	env := newTestEnv(t)
	ctx := adminContext()

	texas := testutil.CreateState(t, env.db, "Texas", "TX")
	metro := testutil.CreateMetro(t, env.db, texas, "Greater Austin")
	austin := testutil.CreateCity(t, env.db, texas, metro, "Austin")
	office := testutil.CreateOffice(t, env.db, testutil.CreateFirm(t, env.db, "Lone Star Legal"), austin, true)

	require.NoError(t, env.locations.DeleteMetro(ctx, metro.ID))

	city, err := env.locations.GetCity(ctx, austin.ID)
	require.NoError(t, err)
	assert.Nil(t, city.MetroID)

	var stored domain.Office
	require.NoError(t, env.db.First(&stored, "id = ?", office.ID).Error)
	assert.Nil(t, stored.MetroID)
}

func TestLocationService_UpdateCityMovesOfficesToNewMetro(t *testing.T) {
	env := newTestEnv(t)
	ctx := adminContext()

	texas := testutil.CreateState(t, env.db, "Texas", "TX")
	oldMetro := testutil.CreateMetro(t, env.db, texas, "Central Texas")
	newMetro := testutil.CreateMetro(t, env.db, texas, "Greater Austin")
	roundRock := testutil.CreateCity(t, env.db, texas, oldMetro, "Round Rock")
	office := testutil.CreateOffice(t, env.db, testutil.CreateFirm(t, env.db, "Rock Solid Law"), roundRock, true)

	updated, err := env.locations.UpdateCity(ctx, roundRock.ID, &domain.UpdateCityRequest{Name: "Round Rock", MetroID: &newMetro.ID})
	require.NoError(t, err)
	require.NotNil(t, updated.MetroID)
	assert.Equal(t, newMetro.ID, *updated.MetroID)

	var stored domain.Office
	require.NoError(t, env.db.First(&stored, "id = ?", office.ID).Error)
	require.NotNil(t, stored.MetroID)
	assert.Equal(t, newMetro.ID, *stored.MetroID)

	t.Run("metro from another state is rejected", func(t *testing.T) {
		ohio := testutil.CreateState(t, env.db, "Ohio", "OH")
		columbus := testutil.CreateMetro(t, env.db, ohio, "Greater Columbus")
		_, err := env.locations.UpdateCity(ctx, roundRock.ID, &domain.UpdateCityRequest{Name: "Round Rock", MetroID: &columbus.ID})
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})
}

func TestLocationService_FindOrCreateCityAttachesMetro(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	texas := testutil.CreateState(t, env.db, "Texas", "TX")
	austin := testutil.CreateCity(t, env.db, texas, nil, "Austin")
	office := testutil.CreateOffice(t, env.db, testutil.CreateFirm(t, env.db, "Lone Star Legal"), austin, true)
	metro := testutil.CreateMetro(t, env.db, texas, "Greater Austin")

	city, created, err := env.locations.FindOrCreateCity(ctx, texas, metro, " austin ")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, austin.ID, city.ID)
	require.NotNil(t, city.MetroID)
	assert.Equal(t, metro.ID, *city.MetroID)

	var stored domain.Office
	require.NoError(t, env.db.First(&stored, "id = ?", office.ID).Error)
	require.NotNil(t, stored.MetroID)
	assert.Equal(t, metro.ID, *stored.MetroID)

	// an existing metro link is kept
	other := testutil.CreateMetro(t, env.db, texas, "Hill Country")
	city, _, err = env.locations.FindOrCreateCity(ctx, texas, other, "Austin")
	require.NoError(t, err)
	assert.Equal(t, metro.ID, *city.MetroID)

	city, created, err = env.locations.FindOrCreateCity(ctx, texas, nil, "Dripping Springs")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "dripping-springs", city.Slug)
	assert.Nil(t, city.MetroID)

	_, _, err = env.locations.FindOrCreateCity(ctx, texas, nil, "  ")
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestLocationService_FindOrCreateState(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	state, created, err := env.locations.FindOrCreateState(ctx, "ny")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "New York", state.Name)
	assert.Equal(t, "NY", state.Code)

	again, created, err := env.locations.FindOrCreateState(ctx, "New York")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, state.ID, again.ID)

	_, _, err = env.locations.FindOrCreateState(ctx, "Atlantis")
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestLocationService_IsKnownState(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	known, err := env.locations.IsKnownState(ctx, "California")
	require.NoError(t, err)
	assert.True(t, known)

	known, err = env.locations.IsKnownState(ctx, "Guam")
	require.NoError(t, err)
	assert.False(t, known)

	// states added by hand are accepted by name or code
	testutil.CreateState(t, env.db, "Guam", "GU")
	for _, input := range []string{"Guam", "gu"} {
		known, err = env.locations.IsKnownState(ctx, input)
		require.NoError(t, err)
		assert.True(t, known, input)
	}

	known, err = env.locations.IsKnownState(ctx, "")
	require.NoError(t, err)
	assert.False(t, known)
}
