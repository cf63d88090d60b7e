// Package sync reconciles the local store with the remote backend:
// it drains the outbound mutation queue, then pulls remote changes
// newer than the last checkpoint.
package sync

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/ringline-app/backend/internal/connectivity"
	"github.com/ringline-app/backend/internal/errors"
	"github.com/ringline-app/backend/internal/logging"
	"github.com/ringline-app/backend/internal/models"
	"github.com/ringline-app/backend/internal/remote"
	"github.com/ringline-app/backend/internal/retry"
	"github.com/ringline-app/backend/internal/store"
)

// maxMutationRetries is the cross-pass retry ceiling. A mutation that
// fails this many sync passes is dropped; the loss is logged but not
// surfaced further.
const maxMutationRetries = 3

// checkpointKeyPrefix namespaces the per-organization checkpoint in the
// metadata table.
const checkpointKeyPrefix = "last_sync:"

// Config holds the engine's injected dependencies.
type Config struct {
	Store   store.SyncStore
	Backend remote.Backend
	Monitor connectivity.Monitor

	// Logger defaults to the global logger.
	Logger *logging.Logger

	// Retry configures the wrapper around every remote call.
	Retry retry.Options

	// Now defaults to time.Now. Tests inject a fake clock.
	Now func() time.Time
}

// Engine orchestrates sync passes. At most one pass runs at a time;
// a trigger while a pass is in flight is dropped, not queued.
type Engine struct {
	store   store.SyncStore
	backend remote.Backend
	monitor connectivity.Monitor
	log     *logging.Logger
	retry   retry.Options
	now     func() time.Time

	mu       sync.Mutex
	syncing  bool
	lastSync time.Time

	// auto-sync supervisor state
	autoRunning bool
	stopCh      chan struct{}
	unsubscribe func()
	wg          sync.WaitGroup
}

// NewEngine creates an Engine from the given configuration.
func NewEngine(cfg Config) *Engine {
	log := cfg.Logger
	if log == nil {
		log = logging.Get()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		store:   cfg.Store,
		backend: cfg.Backend,
		monitor: cfg.Monitor,
		log:     log,
		retry:   cfg.Retry,
		now:     now,
	}
}

// Result reports the outcome of one sync pass.
type Result struct {
	Success    bool
	Uploaded   int
	Downloaded int
	Dropped    int
	Err        error
}

// Sync performs one pass: upload then download. The upload phase must
// complete before the download phase so locally-originated writes are
// not clobbered by a pull that has not seen them remotely yet.
func (e *Engine) Sync(ctx context.Context) Result {
	e.mu.Lock()
	if e.syncing {
		e.mu.Unlock()
		return Result{Success: false, Err: errors.New(errors.ErrSyncInProgress, "sync already in progress")}
	}
	e.syncing = true
	e.mu.Unlock()

	// The guard is always released, even if a phase panics.
	defer func() {
		e.mu.Lock()
		e.syncing = false
		e.mu.Unlock()
	}()

	if !e.monitor.Online() {
		return Result{Success: false, Err: errors.New(errors.ErrSyncOffline, "device is offline")}
	}

	var result Result

	uploaded, dropped, err := e.uploadQueue(ctx)
	result.Uploaded = uploaded
	result.Dropped = dropped
	if err != nil {
		result.Err = errors.Wrap(errors.ErrSyncFailed, "upload phase", err)
		return result
	}

	downloaded, err := e.downloadChanges(ctx)
	result.Downloaded = downloaded
	if err != nil {
		result.Err = errors.Wrap(errors.ErrSyncFailed, "download phase", err)
		return result
	}

	e.mu.Lock()
	e.lastSync = e.now()
	e.mu.Unlock()

	result.Success = true
	e.log.Debug("sync pass completed", map[string]interface{}{
		"uploaded":   result.Uploaded,
		"downloaded": result.Downloaded,
		"dropped":    result.Dropped,
	})
	return result
}

// uploadQueue drains the mutation queue oldest-first. A failed mutation
// never aborts the rest of the queue: it is kept for the next pass, or
// dropped once it exhausts the retry ceiling.
func (e *Engine) uploadQueue(ctx context.Context) (uploaded, dropped int, err error) {
	mutations, err := e.store.DrainableMutations()
	if err != nil {
		return 0, 0, err
	}

	for _, m := range mutations {
		if err := ctx.Err(); err != nil {
			return uploaded, dropped, err
		}

		applyErr := retry.Do(ctx, func() error {
			return applyToBackend(ctx, e.backend, m.Collection, m.Kind, m.TargetID, m.Payload)
		}, e.retry)

		if applyErr == nil {
			if err := e.store.RemoveMutation(string(m.ID)); err != nil {
				return uploaded, dropped, err
			}
			uploaded++
			continue
		}

		count, err := e.store.BumpMutationRetry(string(m.ID))
		if err != nil {
			return uploaded, dropped, err
		}
		if count >= maxMutationRetries {
			if err := e.store.RemoveMutation(string(m.ID)); err != nil {
				return uploaded, dropped, err
			}
			dropped++
			e.log.Error("mutation dropped after exhausting retries", applyErr, map[string]interface{}{
				"mutation_id": string(m.ID),
				"kind":        string(m.Kind),
				"collection":  string(m.Collection),
				"target_id":   string(m.TargetID),
				"retries":     count,
			})
			continue
		}

		e.log.Warn("mutation failed, will retry next pass", map[string]interface{}{
			"mutation_id": string(m.ID),
			"collection":  string(m.Collection),
			"retries":     count,
			"error":       applyErr.Error(),
		})
	}

	return uploaded, dropped, nil
}

// downloadChanges pulls every contact and event changed at or after the
// checkpoint and overwrites the local copies. The checkpoint advances
// only after both pulls succeed, so a failed pass retries the same
// window.
func (e *Engine) downloadChanges(ctx context.Context) (int, error) {
	orgID, err := retry.DoValue(ctx, func() (string, error) {
		return e.backend.CurrentOrganization(ctx)
	}, e.retry)
	if err != nil {
		return 0, err
	}

	checkpoint, err := e.checkpoint(orgID)
	if err != nil {
		return 0, err
	}
	pullStart := e.now().Unix()

	contacts, err := retry.DoValue(ctx, func() ([]*models.Contact, error) {
		return e.backend.ListContactsUpdatedSince(ctx, orgID, checkpoint)
	}, e.retry)
	if err != nil {
		return 0, err
	}

	events, err := retry.DoValue(ctx, func() ([]*models.Event, error) {
		return e.backend.ListEventsUpdatedSince(ctx, orgID, checkpoint)
	}, e.retry)
	if err != nil {
		return 0, err
	}

	downloaded := 0
	for _, c := range contacts {
		payload, err := json.Marshal(c)
		if err != nil {
			return downloaded, err
		}
		if err := e.store.ApplyRemote(models.CollectionContacts, payload); err != nil {
			return downloaded, err
		}
		downloaded++
	}
	for _, ev := range events {
		payload, err := json.Marshal(ev)
		if err != nil {
			return downloaded, err
		}
		if err := e.store.ApplyRemote(models.CollectionEvents, payload); err != nil {
			return downloaded, err
		}
		downloaded++
	}

	if err := e.store.SetMetadata(checkpointKeyPrefix+orgID, strconv.FormatInt(pullStart, 10)); err != nil {
		return downloaded, err
	}

	return downloaded, nil
}

// checkpoint reads the organization's last-sync timestamp, defaulting
// to epoch zero when no pass has completed yet.
func (e *Engine) checkpoint(orgID string) (int64, error) {
	entry, err := e.store.GetMetadata(checkpointKeyPrefix + orgID)
	if err != nil {
		return 0, err
	}
	if entry == nil {
		return 0, nil
	}
	value, err := strconv.ParseInt(entry.Value, 10, 64)
	if err != nil {
		return 0, errors.Wrap(errors.ErrInternal, "corrupt sync checkpoint", err)
	}
	return value, nil
}
