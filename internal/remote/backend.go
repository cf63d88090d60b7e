// Package remote defines the narrow interface to the hosted backend,
// the authoritative system of record. The sync engine is written
// against this interface; production wiring uses the Postgres
// implementation, tests use a recording fake.
package remote

import (
	"context"

	"github.com/ringline-app/backend/internal/models"
)

// Backend is the remote collaborator the offline core syncs against.
// Upserts key on the client-generated record id, so replaying a create
// after a partial failure is safe. The backend maintains updated_at on
// every row; incremental pulls depend on it increasing monotonically.
type Backend interface {
	// CurrentOrganization resolves the organization of the
	// authenticated caller. Required before any read or write.
	CurrentOrganization(ctx context.Context) (string, error)

	UpsertContact(ctx context.Context, c *models.Contact) error
	DeleteContact(ctx context.Context, id string) error

	UpsertCallLog(ctx context.Context, l *models.CallLog) error
	DeleteCallLog(ctx context.Context, id string) error

	UpsertEvent(ctx context.Context, e *models.Event) error
	DeleteEvent(ctx context.Context, id string) error

	UpsertEventParticipant(ctx context.Context, p *models.EventParticipant) error
	DeleteEventParticipant(ctx context.Context, id string) error

	// ListContactsUpdatedSince returns contacts of the organization
	// whose updated_at is at or after the checkpoint.
	ListContactsUpdatedSince(ctx context.Context, orgID string, since int64) ([]*models.Contact, error)

	// ListEventsUpdatedSince returns events of the organization whose
	// updated_at is at or after the checkpoint.
	ListEventsUpdatedSince(ctx context.Context, orgID string, since int64) ([]*models.Event, error)
}
