// Package connectivity tracks whether the device can reach the remote
// backend and notifies subscribers on online/offline transitions.
package connectivity

import (
	"net"
	"sync"
	"time"
)

// Monitor reports connectivity and publishes transitions. Subscribers
// are invoked once per transition, not per check.
type Monitor interface {
	// Online reports the current connectivity state.
	Online() bool

	// Subscribe registers a transition callback and returns a cancel
	// function that removes it. Every subscription must be cancelable
	// individually so teardown leaks nothing.
	Subscribe(fn func(online bool)) (cancel func())
}

// ManualMonitor is a Monitor whose state is set externally: by tests,
// or by a host shell that owns the platform's reachability events.
type ManualMonitor struct {
	mu     sync.Mutex
	online bool
	nextID int
	subs   map[int]func(online bool)
}

// NewManualMonitor creates a ManualMonitor with the given initial state.
func NewManualMonitor(online bool) *ManualMonitor {
	return &ManualMonitor{
		online: online,
		subs:   make(map[int]func(online bool)),
	}
}

// Online reports the current connectivity state.
func (m *ManualMonitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// SetOnline updates the state and notifies subscribers if it changed.
func (m *ManualMonitor) SetOnline(online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online

	fns := make([]func(bool), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	// Callbacks run outside the lock so they may call back into the monitor.
	for _, fn := range fns {
		fn(online)
	}
}

// Subscribe registers a transition callback.
func (m *ManualMonitor) Subscribe(fn func(online bool)) (cancel func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	m.subs[id] = fn

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

// ProbeMonitor derives connectivity from a periodic reachability probe
// against the backend host.
type ProbeMonitor struct {
	ManualMonitor

	probe    func() bool
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewProbeMonitor creates a ProbeMonitor dialing addr (host:port) every
// interval. The monitor starts offline until the first probe succeeds.
func NewProbeMonitor(addr string, interval time.Duration) *ProbeMonitor {
	return NewProbeMonitorFunc(func() bool {
		conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
		if err != nil {
			return false
		}
		conn.Close()
		return true
	}, interval)
}

// NewProbeMonitorFunc creates a ProbeMonitor with a custom probe.
func NewProbeMonitorFunc(probe func() bool, interval time.Duration) *ProbeMonitor {
	return &ProbeMonitor{
		ManualMonitor: ManualMonitor{subs: make(map[int]func(online bool))},
		probe:         probe,
		interval:      interval,
		stopCh:        make(chan struct{}),
	}
}

// Start begins probing in the background.
func (m *ProbeMonitor) Start() {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		m.SetOnline(m.probe())

		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-m.stopCh:
				return
			case <-ticker.C:
				m.SetOnline(m.probe())
			}
		}
	}()
}

// Stop halts probing and waits for the probe goroutine to exit.
func (m *ProbeMonitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
	m.wg.Wait()
}

var (
	_ Monitor = (*ManualMonitor)(nil)
	_ Monitor = (*ProbeMonitor)(nil)
)
