// Package sync tests for auto-sync supervision.
package sync

import (
	"testing"
	"time"
)

// waitForCalls polls until the backend has seen at least n calls with
// the prefix, or fails the test after two seconds.
func waitForCalls(t *testing.T, f *fixture, prefix string, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if f.backend.callCount(prefix) >= n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("backend never saw %d %q calls, got %v", n, prefix, f.backend.recorded())
}

func TestAutoSync_OnlineTransitionTriggersPass(t *testing.T) {
	f := newFixture(t, false)

	f.engine.StartAutoSync(time.Hour)
	defer f.engine.StopAutoSync()

	f.monitor.SetOnline(true)
	waitForCalls(t, f, "current_org", 1)
}

func TestAutoSync_TimerSkipsWhileOffline(t *testing.T) {
	f := newFixture(t, false)

	f.engine.StartAutoSync(10 * time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	f.engine.StopAutoSync()

	if calls := f.backend.recorded(); len(calls) != 0 {
		t.Errorf("offline ticks reached the backend: %v", calls)
	}
}

func TestAutoSync_TimerTriggersWhileOnline(t *testing.T) {
	f := newFixture(t, true)

	f.engine.StartAutoSync(10 * time.Millisecond)
	defer f.engine.StopAutoSync()

	waitForCalls(t, f, "current_org", 2)
}

func TestAutoSync_StopRemovesTriggers(t *testing.T) {
	f := newFixture(t, false)

	f.engine.StartAutoSync(time.Hour)
	f.engine.StopAutoSync()

	f.monitor.SetOnline(true)
	time.Sleep(50 * time.Millisecond)
	if calls := f.backend.recorded(); len(calls) != 0 {
		t.Errorf("transition after stop triggered a pass: %v", calls)
	}
}

func TestAutoSync_StartStopIdempotent(t *testing.T) {
	f := newFixture(t, false)

	// Stop before start is a no-op.
	f.engine.StopAutoSync()

	f.engine.StartAutoSync(time.Hour)
	f.engine.StartAutoSync(time.Hour)
	f.engine.StopAutoSync()
	f.engine.StopAutoSync()
}
