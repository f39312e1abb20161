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

func validNomination() *domain.SubmitNominationRequest {
	return &domain.SubmitNominationRequest{
		FirmName:       "  Harbor Legal Group ",
		FirmWebsite:    "https://harborlegal.example",
		FirmPhone:      "555-0100",
		Address:        "200 Pier Ave",
		City:           "Santa Monica",
		State:          "ca",
		PracticeAreas:  "Personal Injury; Employment Law, personal injury",
		NominatorName:  "Sam Client",
		NominatorEmail: "Sam@Example.com",
		Reason:         "They won my case",
	}
}

func TestNominationService_Submit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	dto, err := env.nominations.Submit(ctx, validNomination(), "203.0.113.9")
	require.NoError(t, err)

	assert.Equal(t, "Harbor Legal Group", dto.FirmName)
	assert.Equal(t, "sam@example.com", dto.NominatorEmail)
	assert.Equal(t, domain.NominationStatusPending, dto.Status)
	assert.Equal(t, []string{"Personal Injury", "Employment Law"}, dto.PracticeAreas)

	// receipt to the nominator plus an alert to the configured reviewers
	receipts := env.mail.BySubjectPrefix("We received your nomination")
	require.Len(t, receipts, 1)
	assert.Equal(t, []string{"sam@example.com"}, receipts[0].To)

	alerts := env.mail.BySubjectPrefix("New nomination:")
	require.Len(t, alerts, 1)
	assert.Contains(t, alerts[0].To, "editors@lawdir.test")
	assert.Equal(t, "sam@example.com", alerts[0].ReplyTo)
	assert.Contains(t, alerts[0].Text, "Harbor Legal Group")
}

func TestNominationService_Submit_Rejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	t.Run("honeypot", func(t *testing.T) {
		req := validNomination()
		req.Website2 = "http://spam.example"
		_, err := env.nominations.Submit(ctx, req, "")
		assert.ErrorIs(t, err, service.ErrSpamDetected)
	})

	t.Run("unknown state", func(t *testing.T) {
		req := validNomination()
		req.State = "Atlantis"
		_, err := env.nominations.Submit(ctx, req, "")
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})

	t.Run("duplicate pending", func(t *testing.T) {
		_, err := env.nominations.Submit(ctx, validNomination(), "")
		require.NoError(t, err)

		dup := validNomination()
		dup.FirmName = "harbor legal group"
		dup.NominatorEmail = "SAM@example.com"
		_, err = env.nominations.Submit(ctx, dup, "")
		assert.ErrorIs(t, err, service.ErrDuplicateNomination)
	})
}

func TestNominationService_Submit_EmailFailureDoesNotFail(t *testing.T) {
	env := newTestEnv(t)
	env.mail.Err = assert.AnError

	dto, err := env.nominations.Submit(context.Background(), validNomination(), "")
	require.NoError(t, err)
	assert.Equal(t, domain.NominationStatusPending, dto.Status)
}

func TestNominationService_Approve_CreatesListing(t *testing.T) {
	env := newTestEnv(t)
	ctx := adminContext()

	submitted, err := env.nominations.Submit(context.Background(), validNomination(), "")
	require.NoError(t, err)

	approved, err := env.nominations.Approve(ctx, submitted.ID, &domain.ApproveNominationRequest{Tier: 2, Notes: "verified"})
	require.NoError(t, err)

	assert.Equal(t, domain.NominationStatusApproved, approved.Status)
	assert.Equal(t, "Riley Reviewer", approved.ReviewedByName)
	assert.NotNil(t, approved.ReviewedAt)
	assert.Equal(t, "verified", approved.ReviewNotes)
	require.NotNil(t, approved.FirmID)

	firm, err := env.firms.GetByID(ctx, *approved.FirmID)
	require.NoError(t, err)
	assert.Equal(t, "Harbor Legal Group", firm.Name)
	assert.Equal(t, "harbor-legal-group", firm.Slug)
	assert.Equal(t, domain.FirmSourceNomination, firm.Source)
	assert.Equal(t, domain.FirmStatusActive, firm.Status)
	assert.Equal(t, 2, firm.Tier)

	areaNames := []string{}
	for _, pa := range firm.PracticeAreas {
		areaNames = append(areaNames, pa.Name)
	}
	assert.ElementsMatch(t, []string{"Personal Injury", "Employment Law"}, areaNames)

	require.Len(t, firm.Offices, 1)
	office := firm.Offices[0]
	assert.True(t, office.IsHeadquarters)
	assert.Equal(t, "200 Pier Ave", office.Address)
	assert.Equal(t, "Santa Monica", office.CityName)
	assert.Equal(t, "CA", office.StateCode)

	approvals := env.mail.BySubjectPrefix("Harbor Legal Group is now listed")
	require.Len(t, approvals, 1)
	assert.Contains(t, approvals[0].HTML, "https://lawdir.test/firms/harbor-legal-group")

	_, err = env.nominations.Approve(ctx, submitted.ID, &domain.ApproveNominationRequest{})
	assert.ErrorIs(t, err, service.ErrNominationNotPending)

	_, err = env.nominations.Reject(ctx, submitted.ID, &domain.RejectNominationRequest{Notes: "late"})
	assert.ErrorIs(t, err, service.ErrNominationNotPending)
	stored, err := env.nominations.GetByID(ctx, submitted.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.NominationStatusApproved, stored.Status)
	require.NotNil(t, stored.FirmID)
	assert.Equal(t, *approved.FirmID, *stored.FirmID)
}

func TestNominationService_Approve_LinksExistingFirm(t *testing.T) {
	env := newTestEnv(t)
	ctx := adminContext()

	ca := testutil.CreateState(t, env.db, "California", "CA")
	la := testutil.CreateCity(t, env.db, ca, nil, "Los Angeles")
	injury := testutil.CreatePracticeArea(t, env.db, "Personal Injury")
	existing := testutil.CreateFirm(t, env.db, "Harbor Legal", testutil.WithPracticeAreas(injury))
	testutil.CreateOffice(t, env.db, existing, la, true)

	submitted, err := env.nominations.Submit(context.Background(), validNomination(), "")
	require.NoError(t, err)

	approved, err := env.nominations.Approve(ctx, submitted.ID, &domain.ApproveNominationRequest{ExistingFirmID: &existing.ID})
	require.NoError(t, err)
	require.NotNil(t, approved.FirmID)
	assert.Equal(t, existing.ID, *approved.FirmID)

	firm, err := env.firms.GetByID(ctx, existing.ID)
	require.NoError(t, err)
	assert.Len(t, firm.PracticeAreas, 2)
	require.Len(t, firm.Offices, 2)
	// the existing headquarters is kept
	assert.True(t, firm.Offices[0].IsHeadquarters)
	assert.Equal(t, "Los Angeles", firm.Offices[0].CityName)
	assert.False(t, firm.Offices[1].IsHeadquarters)

	var firmCount int64
	require.NoError(t, env.db.Model(&domain.Firm{}).Count(&firmCount).Error)
	assert.Equal(t, int64(1), firmCount)
}

func TestNominationService_Approve_RollsBackOnUnknownFirm(t *testing.T) {
	env := newTestEnv(t)
	ctx := adminContext()

	n := testutil.CreateNomination(t, env.db, "Ghost Firm", "Austin", "TX")
	missing := testutil.CreateFirm(t, env.db, "Temporary").ID
	require.NoError(t, env.db.Delete(&domain.Firm{}, "id = ?", missing).Error)

	_, err := env.nominations.Approve(ctx, n.ID, &domain.ApproveNominationRequest{ExistingFirmID: &missing})
	assert.ErrorIs(t, err, service.ErrNotFound)

	got, err := env.nominations.GetByID(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.NominationStatusPending, got.Status)

	// state, city and practice areas created inside the transaction are rolled back
	var states, areas int64
	require.NoError(t, env.db.Model(&domain.State{}).Count(&states).Error)
	require.NoError(t, env.db.Model(&domain.PracticeArea{}).Count(&areas).Error)
	assert.Zero(t, states)
	assert.Zero(t, areas)
}

func TestNominationService_Reject(t *testing.T) {
	env := newTestEnv(t)
	ctx := adminContext()
	n := testutil.CreateNomination(t, env.db, "Nope LLP", "Austin", "TX")

	_, err := env.nominations.Reject(ctx, n.ID, &domain.RejectNominationRequest{Notes: "  "})
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	rejected, err := env.nominations.Reject(ctx, n.ID, &domain.RejectNominationRequest{Notes: "Not a law firm"})
	require.NoError(t, err)
	assert.Equal(t, domain.NominationStatusRejected, rejected.Status)
	assert.Nil(t, rejected.FirmID)
	assert.Len(t, env.mail.BySubjectPrefix("Your nomination of Nope LLP"), 1)

	_, err = env.nominations.Reject(ctx, n.ID, &domain.RejectNominationRequest{Notes: "again"})
	assert.ErrorIs(t, err, service.ErrNominationNotPending)
}

func TestNominationService_List(t *testing.T) {
	env := newTestEnv(t)
	ctx := adminContext()
	testutil.CreateNomination(t, env.db, "Alpha Law", "Austin", "TX")
	second := testutil.CreateNomination(t, env.db, "Beta Law", "Dallas", "TX")
	_, err := env.nominations.Reject(ctx, second.ID, &domain.RejectNominationRequest{Notes: "dup"})
	require.NoError(t, err)

	pending := domain.NominationStatusPending
	resp, err := env.nominations.List(ctx, &pending, "", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.Total)

	resp, err = env.nominations.List(ctx, nil, "beta", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.Total)

	bogus := domain.NominationStatus("archived")
	_, err = env.nominations.List(ctx, &bogus, "", 1, 20)
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestNominationService_SendPendingDigest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	sent, err := env.nominations.SendPendingDigest(ctx)
	require.NoError(t, err)
	assert.False(t, sent)

	testutil.CreateNomination(t, env.db, "Alpha Law", "Austin", "TX")
	testutil.CreateNomination(t, env.db, "Beta Law", "Dallas", "TX")
	testutil.CreateAdminUser(t, env.db, "admin@lawdir.test", "x", domain.AdminRoleAdmin)
	testutil.CreateAdminUser(t, env.db, "editor@lawdir.test", "x", domain.AdminRoleEditor)

	sent, err = env.nominations.SendPendingDigest(ctx)
	require.NoError(t, err)
	assert.True(t, sent)

	digests := env.mail.BySubjectPrefix("2 nominations waiting")
	require.Len(t, digests, 1)
	assert.ElementsMatch(t, []string{"editors@lawdir.test", "admin@lawdir.test"}, digests[0].To)
	assert.Contains(t, digests[0].Text, "Alpha Law")
	assert.Contains(t, digests[0].Text, "Beta Law")
}
