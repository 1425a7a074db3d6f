package recon

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// ForceTimeoutFunc applies a synthesized Failed outcome for a call that
// never produced a callback.
type ForceTimeoutFunc func(ctx context.Context, contactID, providerCallID string)

// Monitor arms one single-shot stale-call check per placed call. If no
// terminal callback lands within the window, the check force-fails the
// contact; if one does, the check observes terminal state downstream and
// no-ops. Disarm is an optimization only — correctness comes from the
// persister's conditional write, not from cancellation.
type Monitor struct {
	mu     sync.Mutex
	timers map[string]*time.Timer

	window time.Duration
	force  ForceTimeoutFunc
	log    *slog.Logger
}

func NewMonitor(window time.Duration, force ForceTimeoutFunc, log *slog.Logger) *Monitor {
	if window <= 0 {
		window = 2 * time.Minute
	}
	if log == nil {
		log = slog.Default()
	}
	return &Monitor{
		timers: map[string]*time.Timer{},
		window: window,
		force:  force,
		log:    log,
	}
}

// Arm schedules the deferred check for a freshly placed call. Re-arming the
// same call id resets the window.
func (m *Monitor) Arm(contactID, providerCallID string) {
	if contactID == "" || providerCallID == "" {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if prev, ok := m.timers[providerCallID]; ok {
		prev.Stop()
	}
	m.timers[providerCallID] = time.AfterFunc(m.window, func() {
		m.mu.Lock()
		delete(m.timers, providerCallID)
		m.mu.Unlock()

		m.log.Debug("stale-call check firing",
			"contact_id", contactID, "provider_call_id", providerCallID)
		m.force(context.Background(), contactID, providerCallID)
	})
}

// Disarm drops a pending check after a terminal callback won the race.
func (m *Monitor) Disarm(providerCallID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.timers[providerCallID]; ok {
		t.Stop()
		delete(m.timers, providerCallID)
	}
}

// Armed reports whether a check is pending for the call id.
func (m *Monitor) Armed(providerCallID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.timers[providerCallID]
	return ok
}

// Stop cancels all pending checks.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, t := range m.timers {
		t.Stop()
		delete(m.timers, id)
	}
}
