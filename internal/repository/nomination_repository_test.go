package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/lawdir/directory-api/internal/domain"
	"github.com/lawdir/directory-api/internal/repository"
	"github.com/lawdir/directory-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNominationRepository_MarkReviewedOnlyOnce(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewNominationRepository(db)
	ctx := context.Background()

	n := testutil.CreateNomination(t, db, "Harbor Legal Group", "Santa Monica", "CA")
	firm := testutil.CreateFirm(t, db, "Harbor Legal Group")

	// both reviewers loaded the nomination while it was pending
	approval, err := repo.GetByID(ctx, n.ID)
	require.NoError(t, err)
	rejection, err := repo.GetByID(ctx, n.ID)
	require.NoError(t, err)

	now := time.Now().UTC()
	approval.Status = domain.NominationStatusApproved
	approval.ReviewedByName = "Avery"
	approval.ReviewedAt = &now
	approval.FirmID = &firm.ID
	updated, err := repo.MarkReviewed(ctx, approval)
	require.NoError(t, err)
	require.True(t, updated)

	rejection.Status = domain.NominationStatusRejected
	rejection.ReviewedByName = "Blake"
	rejection.ReviewedAt = &now
	rejection.ReviewNotes = "duplicate"
	updated, err = repo.MarkReviewed(ctx, rejection)
	require.NoError(t, err)
	assert.False(t, updated)

	stored, err := repo.GetByID(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.NominationStatusApproved, stored.Status)
	assert.Equal(t, "Avery", stored.ReviewedByName)
	require.NotNil(t, stored.FirmID)
	assert.Equal(t, firm.ID, *stored.FirmID)
}
