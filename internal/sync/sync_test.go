// Package sync test fixtures: a real sqlite store and a recording fake
// backend.
package sync

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ringline-app/backend/internal/connectivity"
	"github.com/ringline-app/backend/internal/models"
	"github.com/ringline-app/backend/internal/retry"
	"github.com/ringline-app/backend/internal/store"
)

const testOrgID = "11111111-2222-4333-8444-555555555555"

// fakeBackend records every call in order and can be told to fail
// specific operations. It stands in for the hosted Postgres backend.
type fakeBackend struct {
	mu    sync.Mutex
	calls []string

	// failures maps an operation name ("upsert_contact",
	// "list_events", ...) to the error it should return.
	failures map[string]error

	// blockOrg, when non-nil, makes CurrentOrganization wait until the
	// channel is closed. Used to hold a sync pass open.
	blockOrg chan struct{}

	pullContacts []*models.Contact
	pullEvents   []*models.Event
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{failures: make(map[string]error)}
}

func (f *fakeBackend) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeBackend) fail(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failures[op]
}

func (f *fakeBackend) setFailure(op string, err error) {
	f.mu.Lock()
	f.failures[op] = err
	f.mu.Unlock()
}

func (f *fakeBackend) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *fakeBackend) callCount(prefix string) int {
	n := 0
	for _, c := range f.recorded() {
		if len(c) >= len(prefix) && c[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}

func (f *fakeBackend) CurrentOrganization(ctx context.Context) (string, error) {
	f.mu.Lock()
	block := f.blockOrg
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	f.record("current_org")
	if err := f.fail("current_org"); err != nil {
		return "", err
	}
	return testOrgID, nil
}

func (f *fakeBackend) UpsertContact(ctx context.Context, c *models.Contact) error {
	f.record("upsert_contact:" + string(c.ID))
	return f.fail("upsert_contact")
}

func (f *fakeBackend) DeleteContact(ctx context.Context, id string) error {
	f.record("delete_contact:" + id)
	return f.fail("delete_contact")
}

func (f *fakeBackend) UpsertCallLog(ctx context.Context, l *models.CallLog) error {
	f.record("upsert_call_log:" + string(l.ID))
	return f.fail("upsert_call_log")
}

func (f *fakeBackend) DeleteCallLog(ctx context.Context, id string) error {
	f.record("delete_call_log:" + id)
	return f.fail("delete_call_log")
}

func (f *fakeBackend) UpsertEvent(ctx context.Context, e *models.Event) error {
	f.record("upsert_event:" + string(e.ID))
	return f.fail("upsert_event")
}

func (f *fakeBackend) DeleteEvent(ctx context.Context, id string) error {
	f.record("delete_event:" + id)
	return f.fail("delete_event")
}

func (f *fakeBackend) UpsertEventParticipant(ctx context.Context, p *models.EventParticipant) error {
	f.record("upsert_participant:" + string(p.ID))
	return f.fail("upsert_participant")
}

func (f *fakeBackend) DeleteEventParticipant(ctx context.Context, id string) error {
	f.record("delete_participant:" + id)
	return f.fail("delete_participant")
}

func (f *fakeBackend) ListContactsUpdatedSince(ctx context.Context, orgID string, since int64) ([]*models.Contact, error) {
	f.record(fmt.Sprintf("list_contacts:%d", since))
	if err := f.fail("list_contacts"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pullContacts, nil
}

func (f *fakeBackend) ListEventsUpdatedSince(ctx context.Context, orgID string, since int64) ([]*models.Event, error) {
	f.record(fmt.Sprintf("list_events:%d", since))
	if err := f.fail("list_events"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pullEvents, nil
}

// newSyncStore opens a fresh migrated store in a temp directory.
func newSyncStore(t *testing.T) *store.Store {
	t.Helper()

	db, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := store.NewMigrator(db.DB).Up(); err != nil {
		t.Fatalf("Up() = %v", err)
	}

	s := store.NewStore(db)
	t.Cleanup(func() { s.Close() })
	return s
}

// fixture wires an engine and writer over a real store, a fake backend
// and a manual connectivity monitor with a controllable clock.
type fixture struct {
	engine  *Engine
	writer  *Writer
	store   *store.Store
	backend *fakeBackend
	monitor *connectivity.ManualMonitor

	mu  sync.Mutex
	now time.Time
}

func newFixture(t *testing.T, online bool) *fixture {
	t.Helper()

	f := &fixture{
		store:   newSyncStore(t),
		backend: newFakeBackend(),
		monitor: connectivity.NewManualMonitor(online),
		now:     time.Unix(1700000000, 0),
	}

	cfg := Config{
		Store:   f.store,
		Backend: f.backend,
		Monitor: f.monitor,
		Retry: retry.Options{
			MaxAttempts: 1,
			BaseDelay:   time.Millisecond,
			Sleep:       func(time.Duration) {},
		},
		Now: f.clock,
	}
	f.engine = NewEngine(cfg)
	f.writer = NewWriter(cfg)
	return f
}

func (f *fixture) clock() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fixture) advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func contactPayload(t *testing.T, id string) []byte {
	t.Helper()
	if id == "" {
		return []byte(`{"full_name":"Ada Vega","phone":"+15550001111","organization_id":"` + testOrgID + `"}`)
	}
	return []byte(`{"id":"` + id + `","full_name":"Ada Vega","phone":"+15550001111","organization_id":"` + testOrgID + `"}`)
}
