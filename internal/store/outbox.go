package store

import (
	"context"
	"time"

	"balepos/internal/models"

	"go.uber.org/zap"
)

// maxMirrorAttempts matches the dashboard's historical retry budget for
// remote calls: three tries, then stop and leave the row for inspection.
const maxMirrorAttempts = 3

// Syncer is what the outbox needs from the mirror client.
type Syncer interface {
	Enabled() bool
	Upsert(ctx context.Context, table string, payload []byte) error
	Delete(ctx context.Context, table, recordID string) error
}

// Flusher drains the outbox to the remote mirror in the background. Rows
// are flushed oldest first; a failed row waits a full interval before its
// next attempt, which gives the linear backoff the old dashboard used for
// its registration call.
type Flusher struct {
	store    *Store
	mirror   Syncer
	log      *zap.Logger
	interval time.Duration
	batch    int
}

func NewFlusher(store *Store, mirror Syncer, log *zap.Logger, interval time.Duration) *Flusher {
	return &Flusher{store: store, mirror: mirror, log: log, interval: interval, batch: 50}
}

// Run blocks until ctx is cancelled.
func (f *Flusher) Run(ctx context.Context) {
	if !f.mirror.Enabled() {
		f.log.Info("mirror not configured, outbox flusher idle")
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.FlushOnce(ctx)
		}
	}
}

// FlushOnce pushes one batch of pending rows. Local state is authoritative:
// a row that exhausts its attempts is logged and left behind, never blocks
// the ones after it, and never rolls anything back locally.
func (f *Flusher) FlushOnce(ctx context.Context) {
	var pending []models.OutboxEntry
	err := f.store.db.WithContext(ctx).
		Where("sent_at IS NULL AND attempts < ?", maxMirrorAttempts).
		Order("id").
		Limit(f.batch).
		Find(&pending).Error
	if err != nil {
		f.log.Warn("outbox read failed", zap.Error(err))
		return
	}

	for _, entry := range pending {
		if err := f.push(ctx, entry); err != nil {
			entry.Attempts++
			if uerr := f.store.db.Model(&entry).Update("attempts", entry.Attempts).Error; uerr != nil {
				f.log.Warn("outbox attempts update failed",
					zap.Uint("outbox_id", entry.ID),
					zap.Error(uerr),
				)
			}
			if entry.Attempts >= maxMirrorAttempts {
				f.log.Error("outbox row gave up",
					zap.Uint("outbox_id", entry.ID),
					zap.String("collection", entry.Collection),
					zap.String("record_id", entry.RecordID),
					zap.Error(err),
				)
			} else {
				f.log.Warn("mirror push failed, will retry",
					zap.Uint("outbox_id", entry.ID),
					zap.Int("attempts", entry.Attempts),
					zap.Error(err),
				)
			}
			continue
		}
		now := time.Now()
		// An unstamped row gets re-pushed next tick; the mirror's
		// merge-duplicates upsert makes that harmless, but it is worth a log.
		if uerr := f.store.db.Model(&entry).Update("sent_at", &now).Error; uerr != nil {
			f.log.Warn("outbox sent stamp failed",
				zap.Uint("outbox_id", entry.ID),
				zap.Error(uerr),
			)
		}
	}
}

func (f *Flusher) push(ctx context.Context, entry models.OutboxEntry) error {
	if entry.Op == "delete" {
		return f.mirror.Delete(ctx, entry.Collection, entry.RecordID)
	}
	return f.mirror.Upsert(ctx, entry.Collection, []byte(entry.Payload))
}

// PendingOutbox counts rows still waiting to reach the mirror, for the
// settings screen's sync indicator.
func (s *Store) PendingOutbox(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.OutboxEntry{}).
		Where("sent_at IS NULL").
		Count(&n).Error
	return n, err
}
