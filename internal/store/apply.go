// Package store provides payload application for sync and offline writes.
package store

import (
	"encoding/json"
	"fmt"

	"github.com/ringline-app/backend/internal/models"
)

// ApplyRemote upserts a record pulled from the remote backend into the
// named collection, clearing any pending marker: the remote copy is the
// source of truth and overwrites local state last-write-wins.
func (s *Store) ApplyRemote(collection models.Collection, payload json.RawMessage) error {
	return applyUpsert(s.db, collection, payload, false)
}

// ApplyRemoteDelete removes a record the remote backend confirmed deleted.
func (s *Store) ApplyRemoteDelete(collection models.Collection, id string) error {
	return applyDelete(s.db, collection, id)
}

// applyMutation applies a queued mutation's effect to the local
// collection. Used inside the enqueue transaction for offline writes.
func applyMutation(ex execer, collection models.Collection, kind models.MutationKind, targetID models.UUID, payload json.RawMessage, pending bool) error {
	if kind == models.MutationDelete {
		return applyDelete(ex, collection, string(targetID))
	}
	return applyUpsert(ex, collection, payload, pending)
}

func applyUpsert(ex execer, collection models.Collection, payload json.RawMessage, pending bool) error {
	switch collection {
	case models.CollectionContacts:
		var c models.Contact
		if err := json.Unmarshal(payload, &c); err != nil {
			return fmt.Errorf("decode contact payload: %w", err)
		}
		c.Pending = pending
		return putContact(ex, &c)
	case models.CollectionCallLogs:
		var l models.CallLog
		if err := json.Unmarshal(payload, &l); err != nil {
			return fmt.Errorf("decode call log payload: %w", err)
		}
		l.Pending = pending
		return putCallLog(ex, &l)
	case models.CollectionEvents:
		var e models.Event
		if err := json.Unmarshal(payload, &e); err != nil {
			return fmt.Errorf("decode event payload: %w", err)
		}
		e.Pending = pending
		return putEvent(ex, &e)
	case models.CollectionEventParticipants:
		var p models.EventParticipant
		if err := json.Unmarshal(payload, &p); err != nil {
			return fmt.Errorf("decode participant payload: %w", err)
		}
		p.Pending = pending
		return putEventParticipant(ex, &p)
	}
	return fmt.Errorf("unknown collection %q", collection)
}

func applyDelete(ex execer, collection models.Collection, id string) error {
	if !collection.Valid() {
		return fmt.Errorf("unknown collection %q", collection)
	}
	// Collection is validated against the closed enum above, so the
	// table name interpolation is safe.
	_, err := ex.Exec("DELETE FROM "+string(collection)+" WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, err)
	}
	return nil
}
