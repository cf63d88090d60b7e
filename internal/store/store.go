// Package store provides CRUD operations over the local record collections.
package store

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/ringline-app/backend/internal/models"
)

// Store provides CRUD operations for all local collections.
// Reads go through a prepared statement cache; statements are prepared
// on first use and reused for the lifetime of the Store.
type Store struct {
	db *sql.DB

	stmtCache sync.Map // map[string]*sql.Stmt

	// now is the clock used for locally assigned timestamps.
	now func() time.Time
}

// NewStore creates a new Store over an opened local database.
func NewStore(db *DB) *Store {
	return &Store{
		db:  db.DB,
		now: time.Now,
	}
}

// execer is satisfied by both *sql.DB and *sql.Tx so single writes and
// transactional writes share the same code paths.
type execer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
}

// PrepareStmt gets or creates a prepared statement from the cache.
func (s *Store) PrepareStmt(query string) (*sql.Stmt, error) {
	if stmt, ok := s.stmtCache.Load(query); ok {
		return stmt.(*sql.Stmt), nil
	}

	stmt, err := s.db.Prepare(query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare statement: %w", err)
	}

	actual, loaded := s.stmtCache.LoadOrStore(query, stmt)
	if loaded {
		// Another goroutine already prepared this, close our duplicate.
		stmt.Close()
		return actual.(*sql.Stmt), nil
	}

	return stmt, nil
}

// Close closes all cached prepared statements.
func (s *Store) Close() error {
	var firstErr error
	s.stmtCache.Range(func(key, value interface{}) bool {
		stmt := value.(*sql.Stmt)
		if err := stmt.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		return true
	})
	return firstErr
}

// =====================================================
// Contact Operations
// =====================================================

const contactColumns = `id, organization_id, full_name, phone, email, address, tags,
	custom_fields, last_contact_date, total_events_attended, updated_at, pending`

// PutContact upserts a contact by primary key. Last write wins; there
// are no merge semantics between the local and remote copies.
func (s *Store) PutContact(c *models.Contact) error {
	return putContact(s.db, c)
}

func putContact(ex execer, c *models.Contact) error {
	if err := c.CustomFields.Validate(); err != nil {
		return fmt.Errorf("put contact %s: %w", c.ID, err)
	}
	query := `
	INSERT INTO contacts (` + contactColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		organization_id = excluded.organization_id,
		full_name = excluded.full_name,
		phone = excluded.phone,
		email = excluded.email,
		address = excluded.address,
		tags = excluded.tags,
		custom_fields = excluded.custom_fields,
		last_contact_date = excluded.last_contact_date,
		total_events_attended = excluded.total_events_attended,
		updated_at = excluded.updated_at,
		pending = excluded.pending
	`
	_, err := ex.Exec(query, c.ID, c.OrganizationID, c.FullName, c.Phone, c.Email,
		c.Address, c.Tags, c.CustomFields, c.LastContactDate,
		c.TotalEventsAttended, c.UpdatedAt, c.Pending)
	if err != nil {
		return fmt.Errorf("failed to put contact %s: %w", c.ID, err)
	}
	return nil
}

// PutContacts upserts a batch of contacts in one transaction.
func (s *Store) PutContacts(contacts []*models.Contact) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, c := range contacts {
		if err := putContact(tx, c); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func scanContact(row interface{ Scan(...interface{}) error }) (*models.Contact, error) {
	var c models.Contact
	err := row.Scan(&c.ID, &c.OrganizationID, &c.FullName, &c.Phone, &c.Email,
		&c.Address, &c.Tags, &c.CustomFields, &c.LastContactDate,
		&c.TotalEventsAttended, &c.UpdatedAt, &c.Pending)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetContact retrieves a contact by ID. Absence is not an error: a
// missing record returns (nil, nil).
func (s *Store) GetContact(id string) (*models.Contact, error) {
	stmt, err := s.PrepareStmt(`SELECT ` + contactColumns + ` FROM contacts WHERE id = ?`)
	if err != nil {
		return nil, err
	}
	c, err := scanContact(stmt.QueryRow(id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contact %s: %w", id, err)
	}
	return c, nil
}

// GetContactByPhone retrieves a contact by phone number.
func (s *Store) GetContactByPhone(phone string) (*models.Contact, error) {
	stmt, err := s.PrepareStmt(`SELECT ` + contactColumns + ` FROM contacts WHERE phone = ? LIMIT 1`)
	if err != nil {
		return nil, err
	}
	c, err := scanContact(stmt.QueryRow(phone))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contact by phone: %w", err)
	}
	return c, nil
}

// GetContactByEmail retrieves a contact by email address.
func (s *Store) GetContactByEmail(email string) (*models.Contact, error) {
	stmt, err := s.PrepareStmt(`SELECT ` + contactColumns + ` FROM contacts WHERE email = ? LIMIT 1`)
	if err != nil {
		return nil, err
	}
	c, err := scanContact(stmt.QueryRow(email))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contact by email: %w", err)
	}
	return c, nil
}

func (s *Store) queryContacts(query string, args ...interface{}) ([]*models.Contact, error) {
	stmt, err := s.PrepareStmt(query)
	if err != nil {
		return nil, err
	}
	rows, err := stmt.Query(args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query contacts: %w", err)
	}
	defer rows.Close()

	var contacts []*models.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

// ListContactsByOrganization returns all contacts for an organization,
// most recently updated first.
func (s *Store) ListContactsByOrganization(orgID string) ([]*models.Contact, error) {
	return s.queryContacts(`SELECT `+contactColumns+` FROM contacts
		WHERE organization_id = ? ORDER BY updated_at DESC`, orgID)
}

// ListContactsUpdatedSince returns contacts for an organization whose
// updated_at is at or after the given unix timestamp.
func (s *Store) ListContactsUpdatedSince(orgID string, since int64) ([]*models.Contact, error) {
	return s.queryContacts(`SELECT `+contactColumns+` FROM contacts
		WHERE organization_id = ? AND updated_at >= ? ORDER BY updated_at ASC`, orgID, since)
}

// DeleteContact removes a contact from the local store.
func (s *Store) DeleteContact(id string) error {
	if _, err := s.db.Exec("DELETE FROM contacts WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete contact %s: %w", id, err)
	}
	return nil
}

// =====================================================
// CallLog Operations
// =====================================================

const callLogColumns = `id, contact_id, ringer_id, organization_id, outcome, notes,
	duration_seconds, called_at, pending`

// PutCallLog upserts a call log by primary key.
func (s *Store) PutCallLog(l *models.CallLog) error {
	return putCallLog(s.db, l)
}

func putCallLog(ex execer, l *models.CallLog) error {
	if !l.Outcome.Valid() {
		return fmt.Errorf("put call log %s: invalid outcome %q", l.ID, l.Outcome)
	}
	query := `
	INSERT INTO call_logs (` + callLogColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		contact_id = excluded.contact_id,
		ringer_id = excluded.ringer_id,
		organization_id = excluded.organization_id,
		outcome = excluded.outcome,
		notes = excluded.notes,
		duration_seconds = excluded.duration_seconds,
		called_at = excluded.called_at,
		pending = excluded.pending
	`
	_, err := ex.Exec(query, l.ID, l.ContactID, l.RingerID, l.OrganizationID,
		l.Outcome, l.Notes, l.DurationSeconds, l.CalledAt, l.Pending)
	if err != nil {
		return fmt.Errorf("failed to put call log %s: %w", l.ID, err)
	}
	return nil
}

func scanCallLog(row interface{ Scan(...interface{}) error }) (*models.CallLog, error) {
	var l models.CallLog
	err := row.Scan(&l.ID, &l.ContactID, &l.RingerID, &l.OrganizationID,
		&l.Outcome, &l.Notes, &l.DurationSeconds, &l.CalledAt, &l.Pending)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// GetCallLog retrieves a call log by ID, (nil, nil) when absent.
func (s *Store) GetCallLog(id string) (*models.CallLog, error) {
	stmt, err := s.PrepareStmt(`SELECT ` + callLogColumns + ` FROM call_logs WHERE id = ?`)
	if err != nil {
		return nil, err
	}
	l, err := scanCallLog(stmt.QueryRow(id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get call log %s: %w", id, err)
	}
	return l, nil
}

func (s *Store) queryCallLogs(query string, args ...interface{}) ([]*models.CallLog, error) {
	stmt, err := s.PrepareStmt(query)
	if err != nil {
		return nil, err
	}
	rows, err := stmt.Query(args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query call logs: %w", err)
	}
	defer rows.Close()

	var logs []*models.CallLog
	for rows.Next() {
		l, err := scanCallLog(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan call log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// ListCallLogsByContact returns call logs for a contact, newest first.
func (s *Store) ListCallLogsByContact(contactID string) ([]*models.CallLog, error) {
	return s.queryCallLogs(`SELECT `+callLogColumns+` FROM call_logs
		WHERE contact_id = ? ORDER BY called_at DESC`, contactID)
}

// ListCallLogsByRinger returns call logs placed by a ringer, newest first.
func (s *Store) ListCallLogsByRinger(ringerID string) ([]*models.CallLog, error) {
	return s.queryCallLogs(`SELECT `+callLogColumns+` FROM call_logs
		WHERE ringer_id = ? ORDER BY called_at DESC`, ringerID)
}

// ListCallLogsByOrganization returns call logs for an organization, newest first.
func (s *Store) ListCallLogsByOrganization(orgID string) ([]*models.CallLog, error) {
	return s.queryCallLogs(`SELECT `+callLogColumns+` FROM call_logs
		WHERE organization_id = ? ORDER BY called_at DESC`, orgID)
}

// DeleteCallLog removes a call log from the local store.
func (s *Store) DeleteCallLog(id string) error {
	if _, err := s.db.Exec("DELETE FROM call_logs WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete call log %s: %w", id, err)
	}
	return nil
}

// =====================================================
// Event Operations
// =====================================================

const eventColumns = `id, organization_id, name, start_time, end_time, location,
	capacity, updated_at, pending`

// PutEvent upserts an event by primary key.
func (s *Store) PutEvent(e *models.Event) error {
	return putEvent(s.db, e)
}

func putEvent(ex execer, e *models.Event) error {
	query := `
	INSERT INTO events (` + eventColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		organization_id = excluded.organization_id,
		name = excluded.name,
		start_time = excluded.start_time,
		end_time = excluded.end_time,
		location = excluded.location,
		capacity = excluded.capacity,
		updated_at = excluded.updated_at,
		pending = excluded.pending
	`
	_, err := ex.Exec(query, e.ID, e.OrganizationID, e.Name, e.StartTime,
		e.EndTime, e.Location, e.Capacity, e.UpdatedAt, e.Pending)
	if err != nil {
		return fmt.Errorf("failed to put event %s: %w", e.ID, err)
	}
	return nil
}

// PutEvents upserts a batch of events in one transaction.
func (s *Store) PutEvents(events []*models.Event) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, e := range events {
		if err := putEvent(tx, e); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func scanEvent(row interface{ Scan(...interface{}) error }) (*models.Event, error) {
	var e models.Event
	err := row.Scan(&e.ID, &e.OrganizationID, &e.Name, &e.StartTime,
		&e.EndTime, &e.Location, &e.Capacity, &e.UpdatedAt, &e.Pending)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// GetEvent retrieves an event by ID, (nil, nil) when absent.
func (s *Store) GetEvent(id string) (*models.Event, error) {
	stmt, err := s.PrepareStmt(`SELECT ` + eventColumns + ` FROM events WHERE id = ?`)
	if err != nil {
		return nil, err
	}
	e, err := scanEvent(stmt.QueryRow(id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event %s: %w", id, err)
	}
	return e, nil
}

func (s *Store) queryEvents(query string, args ...interface{}) ([]*models.Event, error) {
	stmt, err := s.PrepareStmt(query)
	if err != nil {
		return nil, err
	}
	rows, err := stmt.Query(args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// ListEventsByOrganization returns events for an organization ordered by start time.
func (s *Store) ListEventsByOrganization(orgID string) ([]*models.Event, error) {
	return s.queryEvents(`SELECT `+eventColumns+` FROM events
		WHERE organization_id = ? ORDER BY start_time ASC`, orgID)
}

// ListEventsStartingAfter returns events starting at or after the given
// unix timestamp, soonest first.
func (s *Store) ListEventsStartingAfter(orgID string, from int64) ([]*models.Event, error) {
	return s.queryEvents(`SELECT `+eventColumns+` FROM events
		WHERE organization_id = ? AND start_time >= ? ORDER BY start_time ASC`, orgID, from)
}

// DeleteEvent removes an event from the local store.
func (s *Store) DeleteEvent(id string) error {
	if _, err := s.db.Exec("DELETE FROM events WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete event %s: %w", id, err)
	}
	return nil
}

// =====================================================
// EventParticipant Operations
// =====================================================

const participantColumns = `id, event_id, contact_id, status, pending`

// PutEventParticipant upserts an event participant by primary key.
func (s *Store) PutEventParticipant(p *models.EventParticipant) error {
	return putEventParticipant(s.db, p)
}

func putEventParticipant(ex execer, p *models.EventParticipant) error {
	if !p.Status.Valid() {
		return fmt.Errorf("put participant %s: invalid status %q", p.ID, p.Status)
	}
	query := `
	INSERT INTO event_participants (` + participantColumns + `)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		event_id = excluded.event_id,
		contact_id = excluded.contact_id,
		status = excluded.status,
		pending = excluded.pending
	`
	_, err := ex.Exec(query, p.ID, p.EventID, p.ContactID, p.Status, p.Pending)
	if err != nil {
		return fmt.Errorf("failed to put participant %s: %w", p.ID, err)
	}
	return nil
}

func scanParticipant(row interface{ Scan(...interface{}) error }) (*models.EventParticipant, error) {
	var p models.EventParticipant
	err := row.Scan(&p.ID, &p.EventID, &p.ContactID, &p.Status, &p.Pending)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetEventParticipant retrieves a participant by ID, (nil, nil) when absent.
func (s *Store) GetEventParticipant(id string) (*models.EventParticipant, error) {
	stmt, err := s.PrepareStmt(`SELECT ` + participantColumns + ` FROM event_participants WHERE id = ?`)
	if err != nil {
		return nil, err
	}
	p, err := scanParticipant(stmt.QueryRow(id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get participant %s: %w", id, err)
	}
	return p, nil
}

func (s *Store) queryParticipants(query string, args ...interface{}) ([]*models.EventParticipant, error) {
	stmt, err := s.PrepareStmt(query)
	if err != nil {
		return nil, err
	}
	rows, err := stmt.Query(args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query participants: %w", err)
	}
	defer rows.Close()

	var participants []*models.EventParticipant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

// ListParticipantsByEvent returns all participants of an event.
func (s *Store) ListParticipantsByEvent(eventID string) ([]*models.EventParticipant, error) {
	return s.queryParticipants(`SELECT `+participantColumns+` FROM event_participants
		WHERE event_id = ?`, eventID)
}

// ListParticipantsByContact returns all event registrations of a contact.
func (s *Store) ListParticipantsByContact(contactID string) ([]*models.EventParticipant, error) {
	return s.queryParticipants(`SELECT `+participantColumns+` FROM event_participants
		WHERE contact_id = ?`, contactID)
}

// DeleteEventParticipant removes a participant from the local store.
func (s *Store) DeleteEventParticipant(id string) error {
	if _, err := s.db.Exec("DELETE FROM event_participants WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete participant %s: %w", id, err)
	}
	return nil
}

// =====================================================
// Diagnostics
// =====================================================

// SizeReport returns the number of records in each collection plus the
// mutation queue depth, for status displays and diagnostics.
func (s *Store) SizeReport() (map[string]int, error) {
	report := make(map[string]int)
	for _, table := range []string{"contacts", "call_logs", "events", "event_participants", "sync_queue"} {
		var count int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		report[table] = count
	}
	return report, nil
}
