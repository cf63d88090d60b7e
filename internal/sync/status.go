// Package sync provides status reporting for the sync subsystem.
package sync

import "time"

// Status is a snapshot of the sync subsystem for status displays. The
// UI polls this; the core never pushes failure notifications itself.
type Status struct {
	Online           bool           `json:"online"`
	Syncing          bool           `json:"syncing"`
	PendingMutations int            `json:"pending_mutations"`
	RecordCounts     map[string]int `json:"record_counts"`
	LastSync         *time.Time     `json:"last_sync,omitempty"`
}

// Status reports the engine's current state, the queue depth and the
// local record counts.
func (e *Engine) Status() (Status, error) {
	e.mu.Lock()
	syncing := e.syncing
	lastSync := e.lastSync
	e.mu.Unlock()

	status := Status{
		Online:  e.monitor.Online(),
		Syncing: syncing,
	}
	if !lastSync.IsZero() {
		status.LastSync = &lastSync
	}

	pending, err := e.store.PendingMutationCount()
	if err != nil {
		return status, err
	}
	status.PendingMutations = pending

	counts, err := e.store.SizeReport()
	if err != nil {
		return status, err
	}
	status.RecordCounts = counts

	return status, nil
}
