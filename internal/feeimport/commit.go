package feeimport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrKeyConflict is returned by a FeeStore when an insert hits the natural-key
// unique constraint, i.e. another commit inserted the same key after the
// duplicate check.
var ErrKeyConflict = errors.New("fee structure already exists")

// FeeStore is the persistence the commit stage needs.
type FeeStore interface {
	// Exists reports whether a fee structure with rec's natural key is stored.
	Exists(ctx context.Context, rec Record) (bool, error)
	// Insert stores rec stamped with the acting user and time.
	Insert(ctx context.Context, rec Record, userID string, at time.Time) error
}

// Notifier queues a short message for a user's next page view.
type Notifier interface {
	Push(userID, message string)
}

// Committer applies a confirmed preview to the store.
type Committer struct {
	store  FeeStore
	audit  *AuditLogger
	notify Notifier
	log    *zap.Logger

	now     func() time.Time
	batchID func() string
}

func NewCommitter(store FeeStore, audit *AuditLogger, notify Notifier, log *zap.Logger) *Committer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Committer{
		store:   store,
		audit:   audit,
		notify:  notify,
		log:     log,
		now:     time.Now,
		batchID: func() string { return uuid.New().String() },
	}
}

// Commit decodes payload and inserts every record whose natural key is not
// stored yet. Existing keys count as duplicates and are left untouched. A
// failing record is counted and reported without stopping the batch.
func (c *Committer) Commit(ctx context.Context, actor ActorContext, t ImportType, payload string) (ImportOutcome, error) {
	if !actor.Can(PermissionImport) {
		c.log.Warn("import commit refused", zap.String("user_id", actor.UserID), zap.String("import_type", string(t)))
		return ImportOutcome{}, newError(KindForbidden, fmt.Sprintf("permission %q is required to import fee structures", PermissionImport), nil)
	}
	records, err := DecodePreview(payload, t)
	if err != nil {
		c.log.Warn("import payload rejected", zap.String("user_id", actor.UserID), zap.Error(err))
		return ImportOutcome{}, err
	}

	batch := c.batchID()
	log := c.log.With(zap.String("batch_id", batch), zap.String("user_id", actor.UserID), zap.String("import_type", string(t)))

	outcome := ImportOutcome{Errors: []string{}}
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			outcome.Failed++
			outcome.Errors = append(outcome.Errors, fmt.Sprintf("%s: %v", rec.Label(), err))
			continue
		}

		exists, err := c.store.Exists(ctx, rec)
		if err != nil {
			outcome.Failed++
			outcome.Errors = append(outcome.Errors, fmt.Sprintf("%s: lookup failed: %v", rec.Label(), err))
			log.Error("duplicate lookup failed", zap.Int("line", rec.SourceLine()), zap.Error(err))
			continue
		}
		if exists {
			outcome.Duplicate++
			continue
		}

		if err := c.store.Insert(ctx, rec, actor.UserID, c.now()); err != nil {
			outcome.Failed++
			if errors.Is(err, ErrKeyConflict) {
				outcome.Errors = append(outcome.Errors, fmt.Sprintf("%s: already exists (added by another import while this one was running): %v", rec.Label(), err))
			} else {
				outcome.Errors = append(outcome.Errors, fmt.Sprintf("%s: %v", rec.Label(), err))
			}
			log.Error("insert failed", zap.Int("line", rec.SourceLine()), zap.String("key", rec.Label()), zap.Error(err))
			continue
		}
		outcome.Inserted++
	}

	log.Info("import committed",
		zap.Int("records", len(records)),
		zap.Int("inserted", outcome.Inserted),
		zap.Int("duplicate", outcome.Duplicate),
		zap.Int("failed", outcome.Failed),
	)

	if c.audit != nil {
		// Written even when the request context is already cancelled.
		_ = c.audit.Record(context.WithoutCancel(ctx), actor, t, batch, len(records), outcome, c.now())
	}
	if c.notify != nil {
		c.notify.Push(actor.UserID, fmt.Sprintf("Import of %s fees complete: %d inserted, %d duplicate, %d failed.",
			t, outcome.Inserted, outcome.Duplicate, outcome.Failed))
	}
	return outcome, nil
}
