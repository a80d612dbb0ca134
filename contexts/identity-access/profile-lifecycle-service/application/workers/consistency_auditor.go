package workers

import (
	"context"
	"log/slog"
	"time"

	"paideia/contexts/identity-access/profile-lifecycle-service/application"
	"paideia/contexts/identity-access/profile-lifecycle-service/domain/entities"
	"paideia/contexts/identity-access/profile-lifecycle-service/ports"
)

// AuditReport summarizes one auditor pass.
type AuditReport struct {
	MissingFound int
	Repaired     int
	Stale        int
	Failed       int
	StartedAt    time.Time
	FinishedAt   time.Time
}

// ConsistencyAuditor is the out-of-band scan-and-repair job for user/profile
// drift. It runs against live traffic without any explicit locking: repairs
// are insert-if-absent under the satellite's user_id uniqueness constraint,
// so a concurrent normal create or a concurrent second auditor cannot
// produce duplicates, and a second run in direct succession is a no-op.
type ConsistencyAuditor struct {
	Audit       ports.AuditRepository
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

// RunOnce scans both orphan classes and repairs missing satellites.
// Per-user repair failures are logged and skipped; the batch never aborts.
func (a ConsistencyAuditor) RunOnce(ctx context.Context) (AuditReport, error) {
	logger := application.ResolveLogger(a.Logger)
	report := AuditReport{StartedAt: a.now()}

	missing, err := a.Audit.ListUsersMissingProfile(ctx)
	if err != nil {
		logger.Error("auditor scan failed",
			"event", "auditor_scan_failed",
			"module", "identity-access/profile-lifecycle-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return report, err
	}
	report.MissingFound = len(missing)

	for _, orphan := range missing {
		profileID, err := a.IDGenerator.NewID(ctx)
		if err != nil {
			report.Failed++
			continue
		}
		seed := entities.NewProfileSeed(profileID, orphan.UserID, orphan.Role, orphan.CreatedAt)
		inserted, err := a.Audit.RepairProfile(ctx, seed)
		if err != nil {
			report.Failed++
			logger.Warn("auditor repair failed, skipping user",
				"event", "auditor_repair_failed",
				"module", "identity-access/profile-lifecycle-service",
				"layer", "worker",
				"user_id", orphan.UserID,
				"role", string(orphan.Role),
				"error", err.Error(),
			)
			continue
		}
		if inserted {
			report.Repaired++
			logger.Info("auditor repaired missing profile",
				"event", "auditor_profile_repaired",
				"module", "identity-access/profile-lifecycle-service",
				"layer", "worker",
				"user_id", orphan.UserID,
				"role", string(orphan.Role),
			)
		}
	}

	stale, err := a.Audit.ListStaleProfiles(ctx)
	if err != nil {
		logger.Error("auditor stale scan failed",
			"event", "auditor_stale_scan_failed",
			"module", "identity-access/profile-lifecycle-service",
			"layer", "worker",
			"error", err.Error(),
		)
		report.FinishedAt = a.now()
		return report, err
	}
	report.Stale = len(stale)
	for _, profile := range stale {
		logger.Warn("stale profile detected",
			"event", "auditor_stale_profile",
			"module", "identity-access/profile-lifecycle-service",
			"layer", "worker",
			"profile_table", profile.ProfileTable,
			"profile_id", profile.ProfileID,
			"user_id", profile.UserID,
			"reason", profile.Reason,
		)
	}

	report.FinishedAt = a.now()
	logger.Info("auditor pass finished",
		"event", "auditor_pass_finished",
		"module", "identity-access/profile-lifecycle-service",
		"layer", "worker",
		"missing_found", report.MissingFound,
		"repaired", report.Repaired,
		"stale", report.Stale,
		"failed", report.Failed,
	)
	return report, nil
}

func (a ConsistencyAuditor) now() time.Time {
	if a.Clock == nil {
		return time.Now().UTC()
	}
	return a.Clock.Now().UTC()
}
