// Package store provides interfaces over the local store for its consumers.
package store

import (
	"encoding/json"

	"github.com/ringline-app/backend/internal/models"
)

// MutationQueue defines the durable outbound queue operations.
type MutationQueue interface {
	// EnqueueMutation persists a mutation at the tail of the queue.
	EnqueueMutation(m *models.Mutation) error

	// EnqueueAndApply persists a mutation and applies it to the local
	// collection in one transaction.
	EnqueueAndApply(m *models.Mutation) error

	// DrainableMutations returns all queued mutations oldest-first.
	DrainableMutations() ([]*models.Mutation, error)

	// RemoveMutation deletes a mutation from the queue.
	RemoveMutation(id string) error

	// BumpMutationRetry increments a mutation's retry count.
	BumpMutationRetry(id string) (int, error)

	// PendingMutationCount returns the queue depth.
	PendingMutationCount() (int, error)
}

// MetadataStore defines the key/value metadata operations.
type MetadataStore interface {
	SetMetadata(key, value string) error
	GetMetadata(key string) (*models.MetadataEntry, error)
}

// RecordSink accepts record state confirmed by the remote backend.
type RecordSink interface {
	ApplyRemote(collection models.Collection, payload json.RawMessage) error
	ApplyRemoteDelete(collection models.Collection, id string) error
}

// SyncStore groups the local-store capabilities the sync engine needs.
type SyncStore interface {
	MutationQueue
	MetadataStore
	RecordSink
	SizeReport() (map[string]int, error)
}

// Ensure *Store implements the interfaces at compile time.
var (
	_ MutationQueue = (*Store)(nil)
	_ MetadataStore = (*Store)(nil)
	_ RecordSink    = (*Store)(nil)
	_ SyncStore     = (*Store)(nil)
)
