// Package remote provides the Postgres implementation of Backend.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ringline-app/backend/internal/errors"
	"github.com/ringline-app/backend/internal/models"
)

// Pool tuning for a single-device client.
const (
	maxConns        = 4
	minConns        = 1
	maxConnLifetime = 10 * time.Minute
	maxConnIdleTime = 5 * time.Minute
)

// NewPostgresPool opens a pgx connection pool against the hosted backend.
func NewPostgresPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	config.MaxConns = maxConns
	config.MinConns = minConns
	config.MaxConnLifetime = maxConnLifetime
	config.MaxConnIdleTime = maxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return pool, nil
}

// PostgresBackend implements Backend over a hosted Postgres database.
// Every write stamps updated_at server-side so incremental pulls see a
// single clock.
type PostgresBackend struct {
	pool     *pgxpool.Pool
	ringerID string
}

// NewPostgresBackend creates a backend client acting as the given ringer.
func NewPostgresBackend(pool *pgxpool.Pool, ringerID string) *PostgresBackend {
	return &PostgresBackend{pool: pool, ringerID: ringerID}
}

var _ Backend = (*PostgresBackend)(nil)

// CurrentOrganization resolves the calling ringer's organization.
func (b *PostgresBackend) CurrentOrganization(ctx context.Context) (string, error) {
	var orgID string
	err := b.pool.QueryRow(ctx,
		"SELECT organization_id FROM ringers WHERE id = $1", b.ringerID).Scan(&orgID)
	if err == pgx.ErrNoRows {
		return "", errors.New(errors.ErrAuth, "ringer has no organization")
	}
	if err != nil {
		return "", mapError("resolve organization", err)
	}
	return orgID, nil
}

// UpsertContact inserts or overwrites a contact keyed on its client id.
func (b *PostgresBackend) UpsertContact(ctx context.Context, c *models.Contact) error {
	tags, err := json.Marshal([]string(c.Tags))
	if err != nil {
		return errors.Wrap(errors.ErrValidation, "encode contact tags", err)
	}
	fields, err := json.Marshal(map[string]string(c.CustomFields))
	if err != nil {
		return errors.Wrap(errors.ErrValidation, "encode contact custom fields", err)
	}

	query := `
	INSERT INTO contacts (id, organization_id, full_name, phone, email, address, tags,
		custom_fields, last_contact_date, total_events_attended, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, EXTRACT(EPOCH FROM now())::bigint)
	ON CONFLICT (id) DO UPDATE SET
		organization_id = EXCLUDED.organization_id,
		full_name = EXCLUDED.full_name,
		phone = EXCLUDED.phone,
		email = EXCLUDED.email,
		address = EXCLUDED.address,
		tags = EXCLUDED.tags,
		custom_fields = EXCLUDED.custom_fields,
		last_contact_date = EXCLUDED.last_contact_date,
		total_events_attended = EXCLUDED.total_events_attended,
		updated_at = EXTRACT(EPOCH FROM now())::bigint
	`
	_, err = b.pool.Exec(ctx, query, c.ID, c.OrganizationID, c.FullName, c.Phone,
		c.Email, c.Address, string(tags), string(fields), c.LastContactDate,
		c.TotalEventsAttended)
	return mapError("upsert contact", err)
}

// DeleteContact removes a contact by id.
func (b *PostgresBackend) DeleteContact(ctx context.Context, id string) error {
	_, err := b.pool.Exec(ctx, "DELETE FROM contacts WHERE id = $1", id)
	return mapError("delete contact", err)
}

// UpsertCallLog inserts or overwrites a call log keyed on its client id.
func (b *PostgresBackend) UpsertCallLog(ctx context.Context, l *models.CallLog) error {
	query := `
	INSERT INTO call_logs (id, contact_id, ringer_id, organization_id, outcome, notes,
		duration_seconds, called_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, EXTRACT(EPOCH FROM now())::bigint)
	ON CONFLICT (id) DO UPDATE SET
		outcome = EXCLUDED.outcome,
		notes = EXCLUDED.notes,
		duration_seconds = EXCLUDED.duration_seconds,
		called_at = EXCLUDED.called_at,
		updated_at = EXTRACT(EPOCH FROM now())::bigint
	`
	_, err := b.pool.Exec(ctx, query, l.ID, l.ContactID, l.RingerID,
		l.OrganizationID, l.Outcome, l.Notes, l.DurationSeconds, l.CalledAt)
	return mapError("upsert call log", err)
}

// DeleteCallLog removes a call log by id.
func (b *PostgresBackend) DeleteCallLog(ctx context.Context, id string) error {
	_, err := b.pool.Exec(ctx, "DELETE FROM call_logs WHERE id = $1", id)
	return mapError("delete call log", err)
}

// UpsertEvent inserts or overwrites an event keyed on its client id.
func (b *PostgresBackend) UpsertEvent(ctx context.Context, e *models.Event) error {
	query := `
	INSERT INTO events (id, organization_id, name, start_time, end_time, location,
		capacity, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, EXTRACT(EPOCH FROM now())::bigint)
	ON CONFLICT (id) DO UPDATE SET
		name = EXCLUDED.name,
		start_time = EXCLUDED.start_time,
		end_time = EXCLUDED.end_time,
		location = EXCLUDED.location,
		capacity = EXCLUDED.capacity,
		updated_at = EXTRACT(EPOCH FROM now())::bigint
	`
	_, err := b.pool.Exec(ctx, query, e.ID, e.OrganizationID, e.Name,
		e.StartTime, e.EndTime, e.Location, e.Capacity)
	return mapError("upsert event", err)
}

// DeleteEvent removes an event by id.
func (b *PostgresBackend) DeleteEvent(ctx context.Context, id string) error {
	_, err := b.pool.Exec(ctx, "DELETE FROM events WHERE id = $1", id)
	return mapError("delete event", err)
}

// UpsertEventParticipant inserts or overwrites a participant keyed on
// its client id.
func (b *PostgresBackend) UpsertEventParticipant(ctx context.Context, p *models.EventParticipant) error {
	query := `
	INSERT INTO event_participants (id, event_id, contact_id, status, updated_at)
	VALUES ($1, $2, $3, $4, EXTRACT(EPOCH FROM now())::bigint)
	ON CONFLICT (id) DO UPDATE SET
		status = EXCLUDED.status,
		updated_at = EXTRACT(EPOCH FROM now())::bigint
	`
	_, err := b.pool.Exec(ctx, query, p.ID, p.EventID, p.ContactID, p.Status)
	return mapError("upsert participant", err)
}

// DeleteEventParticipant removes a participant by id.
func (b *PostgresBackend) DeleteEventParticipant(ctx context.Context, id string) error {
	_, err := b.pool.Exec(ctx, "DELETE FROM event_participants WHERE id = $1", id)
	return mapError("delete participant", err)
}

// ListContactsUpdatedSince returns the organization's contacts changed
// at or after the checkpoint, oldest change first.
func (b *PostgresBackend) ListContactsUpdatedSince(ctx context.Context, orgID string, since int64) ([]*models.Contact, error) {
	query := `
	SELECT id, organization_id, full_name, phone, email, address, tags,
		   custom_fields, last_contact_date, total_events_attended, updated_at
	FROM contacts
	WHERE organization_id = $1 AND updated_at >= $2
	ORDER BY updated_at ASC
	`
	rows, err := b.pool.Query(ctx, query, orgID, since)
	if err != nil {
		return nil, mapError("list contacts", err)
	}
	defer rows.Close()

	var contacts []*models.Contact
	for rows.Next() {
		var c models.Contact
		var tags, fields []byte
		err := rows.Scan(&c.ID, &c.OrganizationID, &c.FullName, &c.Phone, &c.Email,
			&c.Address, &tags, &fields, &c.LastContactDate,
			&c.TotalEventsAttended, &c.UpdatedAt)
		if err != nil {
			return nil, mapError("scan contact", err)
		}
		if len(tags) > 0 {
			if err := json.Unmarshal(tags, (*[]string)(&c.Tags)); err != nil {
				return nil, errors.Wrap(errors.ErrValidation, "decode contact tags", err)
			}
		}
		if len(fields) > 0 {
			if err := json.Unmarshal(fields, (*map[string]string)(&c.CustomFields)); err != nil {
				return nil, errors.Wrap(errors.ErrValidation, "decode contact custom fields", err)
			}
		}
		contacts = append(contacts, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("iterate contacts", err)
	}
	return contacts, nil
}

// ListEventsUpdatedSince returns the organization's events changed at
// or after the checkpoint, oldest change first.
func (b *PostgresBackend) ListEventsUpdatedSince(ctx context.Context, orgID string, since int64) ([]*models.Event, error) {
	query := `
	SELECT id, organization_id, name, start_time, end_time, location, capacity, updated_at
	FROM events
	WHERE organization_id = $1 AND updated_at >= $2
	ORDER BY updated_at ASC
	`
	rows, err := b.pool.Query(ctx, query, orgID, since)
	if err != nil {
		return nil, mapError("list events", err)
	}
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		var e models.Event
		err := rows.Scan(&e.ID, &e.OrganizationID, &e.Name, &e.StartTime,
			&e.EndTime, &e.Location, &e.Capacity, &e.UpdatedAt)
		if err != nil {
			return nil, mapError("scan event", err)
		}
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("iterate events", err)
	}
	return events, nil
}
