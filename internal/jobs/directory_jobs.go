package jobs

import (
	"context"
	"time"

	"github.com/lawdir/directory-api/internal/config"
	"go.uber.org/zap"
)

// Job names as registered with the scheduler
const (
	PremiumExpiryJobName    = "premium_expiry"
	NominationDigestJobName = "nomination_digest"
	AuditRetentionJobName   = "audit_retention"
)

// PremiumExpirer switches off premium placements whose paid period ended.
// Implemented by service.FirmService; the interface keeps this package free of service imports.
type PremiumExpirer interface {
	ExpirePremium(ctx context.Context) (int, error)
}

// DigestSender emails reviewers the pending nomination queue
type DigestSender interface {
	SendPendingDigest(ctx context.Context) (bool, error)
}

// AuditPruner deletes audit log entries past the retention period
type AuditPruner interface {
	CleanupOldLogs(ctx context.Context, retentionDays int) (int64, error)
}

// PremiumExpiryJob clears expired premium flags so listings fall back to tier order
type PremiumExpiryJob struct {
	firms   PremiumExpirer
	logger  *zap.Logger
	timeout time.Duration
}

func NewPremiumExpiryJob(firms PremiumExpirer, logger *zap.Logger, timeout time.Duration) *PremiumExpiryJob {
	return &PremiumExpiryJob{firms: firms, logger: logger, timeout: timeout}
}

// Run is called by the scheduler
func (j *PremiumExpiryJob) Run() {
	_ = runTask(j.logger, PremiumExpiryJobName, j.timeout, func(ctx context.Context, log *zap.Logger) error {
		expired, err := j.firms.ExpirePremium(ctx)
		if err != nil {
			return err
		}
		if expired > 0 {
			log.Info("premium expiry job completed", zap.Int("expired", expired))
		}
		return nil
	})
}

// NominationDigestJob reminds reviewers of nominations waiting for a decision
type NominationDigestJob struct {
	nominations DigestSender
	logger      *zap.Logger
	timeout     time.Duration
}

func NewNominationDigestJob(nominations DigestSender, logger *zap.Logger, timeout time.Duration) *NominationDigestJob {
	return &NominationDigestJob{nominations: nominations, logger: logger, timeout: timeout}
}

func (j *NominationDigestJob) Run() {
	_ = runTask(j.logger, NominationDigestJobName, j.timeout, func(ctx context.Context, log *zap.Logger) error {
		sent, err := j.nominations.SendPendingDigest(ctx)
		if err != nil {
			return err
		}
		log.Info("nomination digest job completed", zap.Bool("sent", sent))
		return nil
	})
}

// AuditRetentionJob prunes old audit log entries
type AuditRetentionJob struct {
	audit         AuditPruner
	retentionDays int
	logger        *zap.Logger
	timeout       time.Duration
}

func NewAuditRetentionJob(audit AuditPruner, retentionDays int, logger *zap.Logger, timeout time.Duration) *AuditRetentionJob {
	return &AuditRetentionJob{audit: audit, retentionDays: retentionDays, logger: logger, timeout: timeout}
}

func (j *AuditRetentionJob) Run() {
	_ = runTask(j.logger, AuditRetentionJobName, j.timeout, func(ctx context.Context, log *zap.Logger) error {
		removed, err := j.audit.CleanupOldLogs(ctx, j.retentionDays)
		if err != nil {
			return err
		}
		if removed > 0 {
			log.Info("audit retention job completed", zap.Int64("removed", removed))
		}
		return nil
	})
}

// Dependencies are the services the scheduled jobs act on
type Dependencies struct {
	Firms       PremiumExpirer
	Nominations DigestSender
	Audit       AuditPruner
}

// RegisterDirectoryJobs adds every configured job to the scheduler. A job
// with an empty schedule is skipped, and audit retention is skipped when
// retention is disabled.
func RegisterDirectoryJobs(scheduler *Scheduler, cfg *config.JobsConfig, deps Dependencies, logger *zap.Logger) error {
	timeout := cfg.JobTimeoutDuration()

	if cfg.PremiumExpirySchedule != "" && deps.Firms != nil {
		job := NewPremiumExpiryJob(deps.Firms, logger, timeout)
		if err := scheduler.AddJob(PremiumExpiryJobName, cfg.PremiumExpirySchedule, job.Run); err != nil {
			return err
		}
	}

	if cfg.NominationDigestSchedule != "" && deps.Nominations != nil {
		job := NewNominationDigestJob(deps.Nominations, logger, timeout)
		if err := scheduler.AddJob(NominationDigestJobName, cfg.NominationDigestSchedule, job.Run); err != nil {
			return err
		}
	}

	if cfg.AuditRetentionSchedule != "" && cfg.AuditRetentionDays > 0 && deps.Audit != nil {
		job := NewAuditRetentionJob(deps.Audit, cfg.AuditRetentionDays, logger, timeout)
		if err := scheduler.AddJob(AuditRetentionJobName, cfg.AuditRetentionSchedule, job.Run); err != nil {
			return err
		}
	}

	return nil
}
