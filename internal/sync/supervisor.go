// Package sync provides automatic sync triggering: connectivity
// transitions and a periodic timer start passes without UI involvement.
package sync

import (
	"context"
	"time"
)

// DefaultSyncInterval is the periodic trigger interval when the caller
// passes zero.
const DefaultSyncInterval = 30 * time.Second

// StartAutoSync registers an online-transition listener and a repeating
// timer. The timer only triggers while online; an offline tick is
// skipped silently. Calling StartAutoSync while running is a no-op.
func (e *Engine) StartAutoSync(interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSyncInterval
	}

	e.mu.Lock()
	if e.autoRunning {
		e.mu.Unlock()
		return
	}
	e.autoRunning = true
	stopCh := make(chan struct{})
	e.stopCh = stopCh
	e.mu.Unlock()

	// Sync immediately when connectivity comes back.
	unsubscribe := e.monitor.Subscribe(func(online bool) {
		if !online {
			return
		}
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			e.Sync(context.Background())
		}()
	})

	e.mu.Lock()
	e.unsubscribe = unsubscribe
	e.mu.Unlock()

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-stopCh:
				return
			case <-ticker.C:
				if !e.monitor.Online() {
					continue
				}
				e.Sync(context.Background())
			}
		}
	}()

	e.log.Info("auto-sync started", map[string]interface{}{
		"interval_seconds": interval.Seconds(),
	})
}

// StopAutoSync removes the transition listener and stops the timer,
// then waits for triggered passes to finish. It does not cancel a pass
// already in flight; it only removes future triggers. Safe to call when
// not running.
func (e *Engine) StopAutoSync() {
	e.mu.Lock()
	if !e.autoRunning {
		e.mu.Unlock()
		return
	}
	e.autoRunning = false
	stopCh := e.stopCh
	unsubscribe := e.unsubscribe
	e.stopCh = nil
	e.unsubscribe = nil
	e.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	close(stopCh)
	e.wg.Wait()

	e.log.Info("auto-sync stopped", nil)
}
