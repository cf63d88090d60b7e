// Package models provides data model definitions for the ringline offline core.
package models

import (
	"encoding/json"
	"time"
)

// Collection names a syncable record collection.
type Collection string

const (
	CollectionContacts          Collection = "contacts"
	CollectionCallLogs          Collection = "call_logs"
	CollectionEvents            Collection = "events"
	CollectionEventParticipants Collection = "event_participants"
)

// Valid reports whether the collection is one of the known names.
func (c Collection) Valid() bool {
	switch c {
	case CollectionContacts, CollectionCallLogs, CollectionEvents, CollectionEventParticipants:
		return true
	}
	return false
}

// MutationKind classifies a queued write.
type MutationKind string

const (
	MutationCreate MutationKind = "create"
	MutationUpdate MutationKind = "update"
	MutationDelete MutationKind = "delete"
)

// Valid reports whether the kind is one of the known values.
func (k MutationKind) Valid() bool {
	switch k {
	case MutationCreate, MutationUpdate, MutationDelete:
		return true
	}
	return false
}

// Mutation is one not-yet-synced local write waiting in the queue.
// The locally generated ID doubles as the idempotency key the remote
// backend upserts on, so replaying a create is safe.
type Mutation struct {
	ID         UUID            `db:"id" json:"id"`
	Kind       MutationKind    `db:"kind" json:"kind"`
	Collection Collection      `db:"collection" json:"collection"`
	TargetID   UUID            `db:"target_id" json:"target_id,omitempty"`
	Payload    json.RawMessage `db:"payload" json:"payload"`
	RetryCount int             `db:"retry_count" json:"retry_count"`
	CreatedAt  int64           `db:"created_at" json:"created_at"`
}

// TableName returns the table name for Mutation.
func (Mutation) TableName() string {
	return "sync_queue"
}

// Time returns the CreatedAt as time.Time.
func (m *Mutation) Time() time.Time {
	return time.Unix(m.CreatedAt, 0)
}

// MetadataEntry is a singleton key/value row. The sync checkpoint per
// organization lives here.
type MetadataEntry struct {
	Key       string `db:"key" json:"key"`
	Value     string `db:"value" json:"value"`
	UpdatedAt int64  `db:"updated_at" json:"updated_at"`
}

// TableName returns the table name for MetadataEntry.
func (MetadataEntry) TableName() string {
	return "metadata"
}
