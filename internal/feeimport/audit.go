package feeimport

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ActionBulkImport is the audit action recorded for every completed commit.
const ActionBulkImport = "bulk_import"

// AuditStore persists audit entries. Entries are append-only.
type AuditStore interface {
	InsertAudit(ctx context.Context, entry AuditLogEntry) error
}

// AuditLogger writes the summary entry for a commit.
type AuditLogger struct {
	store AuditStore
	log   *zap.Logger
}

func NewAuditLogger(store AuditStore, log *zap.Logger) *AuditLogger {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuditLogger{store: store, log: log}
}

// Record writes one entry with counts only. A write failure is logged and
// returned; callers treat it as non-fatal.
func (a *AuditLogger) Record(ctx context.Context, actor ActorContext, t ImportType, batchID string, records int, outcome ImportOutcome, at time.Time) error {
	entry := AuditLogEntry{
		UserID:    actor.UserID,
		Action:    ActionBulkImport,
		TableName: t.Table(),
		Summary: AuditSummary{
			BatchID:    batchID,
			ImportType: t,
			Records:    records,
			Inserted:   outcome.Inserted,
			Duplicate:  outcome.Duplicate,
			Failed:     outcome.Failed,
		},
		CreatedAt: at,
	}
	fields := []zap.Field{
		zap.String("user_id", actor.UserID),
		zap.String("batch_id", batchID),
		zap.String("table", entry.TableName),
		zap.Int("inserted", outcome.Inserted),
		zap.Int("duplicate", outcome.Duplicate),
		zap.Int("failed", outcome.Failed),
	}
	if a.store == nil {
		a.log.Warn("audit store not configured, entry dropped", fields...)
		return nil
	}
	if err := a.store.InsertAudit(ctx, entry); err != nil {
		a.log.Error("audit entry not written", append(fields, zap.Error(err))...)
		return err
	}
	a.log.Info("audit entry written", fields...)
	return nil
}
