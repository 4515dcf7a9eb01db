// Package store is the single source of truth for every collection the
// dashboard shows. All mutators run inside database transactions, write an
// outbox row for the remote mirror in the same transaction, and announce
// the change to listeners (the websocket hub) after commit. Reads always
// see the last committed state.
package store

import (
	"encoding/json"
	"fmt"
	"time"

	"balepos/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Change is a post-commit hint for cache refresh: which collection, what
// happened, which record. It is informational only, never a consistency
// protocol.
type Change struct {
	Collection string `json:"collection"`
	Op         string `json:"op"` // upsert, delete
	RecordID   string `json:"record_id"`
}

// Notifier receives change hints after a transaction commits.
type Notifier interface {
	Notify(Change)
}

type Store struct {
	db       *gorm.DB
	log      *zap.Logger
	notifier Notifier
}

func New(db *gorm.DB, log *zap.Logger, notifier Notifier) *Store {
	return &Store{db: db, log: log, notifier: notifier}
}

// DB exposes the underlying handle for report queries that live outside
// this package.
func (s *Store) DB() *gorm.DB { return s.db }

// tx runs fn in one transaction and publishes the accumulated change hints
// only after the commit lands.
func (s *Store) tx(fn func(tx *gorm.DB, changes *[]Change) error) error {
	var changes []Change
	err := s.db.Transaction(func(tx *gorm.DB) error {
		return fn(tx, &changes)
	})
	if err != nil {
		return err
	}
	if s.notifier != nil {
		for _, c := range changes {
			s.notifier.Notify(c)
		}
	}
	return nil
}

// stage records an outbox row inside the transaction and remembers the
// change hint for after commit.
func (s *Store) stage(tx *gorm.DB, changes *[]Change, collection, op string, recordID uint, record any) error {
	id := fmt.Sprintf("%d", recordID)

	payload := "{}"
	if record != nil {
		b, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("store: marshal %s outbox payload: %w", collection, err)
		}
		payload = string(b)
	}

	entry := models.OutboxEntry{
		Collection: collection,
		Op:         op,
		RecordID:   id,
		Payload:    payload,
		CreatedAt:  time.Now(),
	}
	if err := tx.Create(&entry).Error; err != nil {
		return err
	}

	*changes = append(*changes, Change{Collection: collection, Op: op, RecordID: id})
	return nil
}

// lockForUpdate is the row-lock clause used on every stock and ticket path.
func lockForUpdate() clause.Locking {
	return clause.Locking{Strength: "UPDATE"}
}
