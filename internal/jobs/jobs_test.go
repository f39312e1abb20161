package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lawdir/directory-api/internal/auth"
	"github.com/lawdir/directory-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeFirms struct {
	mu      sync.Mutex
	calls   int
	actor   string
	expired int
	err     error
}

func (f *fakeFirms) ExpirePremium(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	_, f.actor = auth.Actor(ctx)
	return f.expired, f.err
}

type fakeDigest struct {
	calls int
}

func (f *fakeDigest) SendPendingDigest(ctx context.Context) (bool, error) {
	f.calls++
	if _, ok := ctx.Deadline(); !ok {
		return false, errors.New("missing deadline")
	}
	return true, nil
}

type fakeAudit struct {
	days int
}

func (f *fakeAudit) CleanupOldLogs(_ context.Context, retentionDays int) (int64, error) {
	f.days = retentionDays
	return 3, nil
}

func TestPremiumExpiryJob_RunsAsSystem(t *testing.T) {
	firms := &fakeFirms{expired: 2}
	NewPremiumExpiryJob(firms, zap.NewNop(), time.Second).Run()

	assert.Equal(t, 1, firms.calls)
	assert.Equal(t, "scheduler:"+PremiumExpiryJobName, firms.actor)
}

func TestNominationDigestJob_HasDeadline(t *testing.T) {
	digest := &fakeDigest{}
	NewNominationDigestJob(digest, zap.NewNop(), time.Second).Run()
	assert.Equal(t, 1, digest.calls)
}

func TestAuditRetentionJob_PassesRetention(t *testing.T) {
	audit := &fakeAudit{}
	NewAuditRetentionJob(audit, 90, zap.NewNop(), time.Second).Run()
	assert.Equal(t, 90, audit.days)
}

func TestRunTask_LogsErrorsAndRecoversPanics(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	logger := zap.New(core)

	err := runTask(logger, "failing", time.Second, func(context.Context, *zap.Logger) error {
		return errors.New("boom")
	})
	require.EqualError(t, err, "boom")

	err = runTask(logger, "panicking", time.Second, func(context.Context, *zap.Logger) error {
		panic("unexpected")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "scheduled job failed", logs.All()[0].Message)
	assert.Equal(t, "scheduled job panicked", logs.All()[1].Message)

	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "failing", fields["job"])
	assert.NotEmpty(t, fields["run_id"])
	assert.NotEqual(t, fields["run_id"], logs.All()[1].ContextMap()["run_id"])
}

func TestRegisterDirectoryJobs(t *testing.T) {
	scheduler := NewScheduler(zap.NewNop())
	cfg := &config.JobsConfig{
		PremiumExpirySchedule:    "0 15 * * * *",
		NominationDigestSchedule: "0 0 8 * * 1-5",
		AuditRetentionSchedule:   "0 30 3 * * *",
		AuditRetentionDays:       0,
		JobTimeout:               30,
	}

	err := RegisterDirectoryJobs(scheduler, cfg, Dependencies{
		Firms:       &fakeFirms{},
		Nominations: &fakeDigest{},
		Audit:       &fakeAudit{},
	}, zap.NewNop())
	require.NoError(t, err)

	// retention 0 keeps audit logs forever
	assert.Equal(t, []string{NominationDigestJobName, PremiumExpiryJobName}, scheduler.GetJobNames())

	err = scheduler.AddJob(PremiumExpiryJobName, "@hourly", func() {})
	assert.Error(t, err)

	require.NoError(t, scheduler.RemoveJob(NominationDigestJobName))
	assert.Error(t, scheduler.RemoveJob(NominationDigestJobName))
}

func TestRegisterDirectoryJobs_InvalidSchedule(t *testing.T) {
	scheduler := NewScheduler(zap.NewNop())
	cfg := &config.JobsConfig{PremiumExpirySchedule: "not a schedule"}

	err := RegisterDirectoryJobs(scheduler, cfg, Dependencies{Firms: &fakeFirms{}}, zap.NewNop())
	assert.Error(t, err)
}

func TestScheduler_RunsAndStopsCleanly(t *testing.T) {
	defer goleak.VerifyNone(t)

	scheduler := NewScheduler(zap.NewNop())
	firms := &fakeFirms{}
	job := NewPremiumExpiryJob(firms, zap.NewNop(), time.Second)
	require.NoError(t, scheduler.AddJob(PremiumExpiryJobName, "@every 1s", job.Run))

	scheduler.Start()
	next, ok := scheduler.NextRun(PremiumExpiryJobName)
	require.True(t, ok)
	assert.WithinDuration(t, time.Now(), next, 2*time.Second)

	require.Eventually(t, func() bool {
		firms.mu.Lock()
		defer firms.mu.Unlock()
		return firms.calls > 0
	}, 3*time.Second, 50*time.Millisecond)

	<-scheduler.Stop().Done()
}
