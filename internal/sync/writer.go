// Package sync provides the single write path for record changes.
// Callers never talk to the store or the backend directly for writes;
// Perform decides between an immediate remote write and a queued
// offline one.
package sync

import (
	"context"
	"encoding/json"

	"github.com/ringline-app/backend/internal/connectivity"
	"github.com/ringline-app/backend/internal/errors"
	"github.com/ringline-app/backend/internal/logging"
	"github.com/ringline-app/backend/internal/models"
	"github.com/ringline-app/backend/internal/remote"
	"github.com/ringline-app/backend/internal/retry"
	"github.com/ringline-app/backend/internal/store"
	"github.com/ringline-app/backend/internal/uuid"
)

// Writer is the write-path entry point shared by every caller that
// creates, updates or deletes records.
type Writer struct {
	store   store.SyncStore
	backend remote.Backend
	monitor connectivity.Monitor
	log     *logging.Logger
	retry   retry.Options
}

// NewWriter creates a Writer from the same configuration an Engine
// takes; the two are expected to share a store and backend.
func NewWriter(cfg Config) *Writer {
	log := cfg.Logger
	if log == nil {
		log = logging.Get()
	}
	return &Writer{
		store:   cfg.Store,
		backend: cfg.Backend,
		monitor: cfg.Monitor,
		log:     log,
		retry:   cfg.Retry,
	}
}

// Perform applies one record change. Online, the change goes straight
// to the backend and the confirmed state is mirrored locally. Offline,
// it is queued and optimistically applied to the local collection in
// one transaction. Create payloads without an id get a client-generated
// one, which doubles as the idempotency key for the eventual upload.
// The record id is returned either way.
func (w *Writer) Perform(ctx context.Context, collection models.Collection, kind models.MutationKind, payload json.RawMessage) (string, error) {
	if !kind.Valid() {
		return "", errors.New(errors.ErrValidation, "invalid mutation kind "+string(kind))
	}
	if !collection.Valid() {
		return "", errors.New(errors.ErrUnknownCollection, string(collection))
	}

	id, payload, err := ensureID(kind, payload)
	if err != nil {
		return "", err
	}

	if !w.monitor.Online() {
		return id, w.enqueue(collection, kind, id, payload)
	}

	writeErr := retry.Do(ctx, func() error {
		return applyToBackend(ctx, w.backend, collection, kind, models.UUID(id), payload)
	}, w.retry)
	if writeErr != nil {
		if errors.IsTerminal(writeErr) {
			return id, writeErr
		}
		// The backend is unreachable despite the monitor saying online;
		// fall back to the offline path so the write is not lost.
		w.log.Warn("direct write failed, queueing for sync", map[string]interface{}{
			"collection": string(collection),
			"target_id":  id,
			"error":      writeErr.Error(),
		})
		return id, w.enqueue(collection, kind, id, payload)
	}

	if kind == models.MutationDelete {
		return id, w.store.ApplyRemoteDelete(collection, id)
	}
	return id, w.store.ApplyRemote(collection, payload)
}

func (w *Writer) enqueue(collection models.Collection, kind models.MutationKind, id string, payload json.RawMessage) error {
	return w.store.EnqueueAndApply(&models.Mutation{
		Kind:       kind,
		Collection: collection,
		TargetID:   models.UUID(id),
		Payload:    payload,
	})
}

// ensureID extracts the record id from the payload, generating one for
// creates that lack it. Updates and deletes must name their target.
func ensureID(kind models.MutationKind, payload json.RawMessage) (string, json.RawMessage, error) {
	var doc map[string]interface{}
	if err := json.Unmarshal(payload, &doc); err != nil {
		return "", nil, errors.Wrap(errors.ErrValidation, "decode mutation payload", err)
	}

	id, _ := doc["id"].(string)
	if id == "" {
		if kind != models.MutationCreate {
			return "", nil, errors.New(errors.ErrValidation, "payload missing record id")
		}
		id = uuid.New()
		doc["id"] = id
		rewritten, err := json.Marshal(doc)
		if err != nil {
			return "", nil, errors.Wrap(errors.ErrValidation, "encode mutation payload", err)
		}
		return id, rewritten, nil
	}

	if !uuid.IsValid(id) {
		return "", nil, errors.New(errors.ErrValidation, "record id is not a valid uuid")
	}
	return id, payload, nil
}
