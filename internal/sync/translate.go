// Package sync provides mutation-to-backend translation.
package sync

import (
	"context"
	"encoding/json"

	"github.com/ringline-app/backend/internal/errors"
	"github.com/ringline-app/backend/internal/models"
	"github.com/ringline-app/backend/internal/remote"
)

// applyToBackend performs the remote write a mutation describes.
// Creates and updates both become upserts keyed on the client id, so a
// replay after a partial failure cannot produce a duplicate.
func applyToBackend(ctx context.Context, b remote.Backend, collection models.Collection, kind models.MutationKind, targetID models.UUID, payload json.RawMessage) error {
	if kind == models.MutationDelete {
		id := string(targetID)
		switch collection {
		case models.CollectionContacts:
			return b.DeleteContact(ctx, id)
		case models.CollectionCallLogs:
			return b.DeleteCallLog(ctx, id)
		case models.CollectionEvents:
			return b.DeleteEvent(ctx, id)
		case models.CollectionEventParticipants:
			return b.DeleteEventParticipant(ctx, id)
		}
		return errors.New(errors.ErrUnknownCollection, string(collection))
	}

	switch collection {
	case models.CollectionContacts:
		var c models.Contact
		if err := json.Unmarshal(payload, &c); err != nil {
			return errors.Wrap(errors.ErrValidation, "decode contact payload", err)
		}
		if err := c.CustomFields.Validate(); err != nil {
			return errors.Wrap(errors.ErrValidation, "contact custom fields", err)
		}
		return b.UpsertContact(ctx, &c)
	case models.CollectionCallLogs:
		var l models.CallLog
		if err := json.Unmarshal(payload, &l); err != nil {
			return errors.Wrap(errors.ErrValidation, "decode call log payload", err)
		}
		return b.UpsertCallLog(ctx, &l)
	case models.CollectionEvents:
		var e models.Event
		if err := json.Unmarshal(payload, &e); err != nil {
			return errors.Wrap(errors.ErrValidation, "decode event payload", err)
		}
		return b.UpsertEvent(ctx, &e)
	case models.CollectionEventParticipants:
		var p models.EventParticipant
		if err := json.Unmarshal(payload, &p); err != nil {
			return errors.Wrap(errors.ErrValidation, "decode participant payload", err)
		}
		return b.UpsertEventParticipant(ctx, &p)
	}
	return errors.New(errors.ErrUnknownCollection, string(collection))
}
