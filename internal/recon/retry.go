package recon

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// defaultBackoffs spaces the duration-resolution retries after the callback
// that could not resolve synchronously.
var defaultBackoffs = []time.Duration{30 * time.Second, 60 * time.Second, 120 * time.Second}

// RetryTask identifies one pending duration-resolution chain. At most one
// task is active per provider call id.
type RetryTask struct {
	ProviderCallID string
	ContactID      string
	AttemptID      string
	UserID         string
}

// RetryLookup re-runs the provider-API step of the duration chain.
type RetryLookup func(ctx context.Context, task RetryTask) (int, error)

// RetryApply records a late-resolved duration; applied=false means newer
// state won and the chain should stop quietly.
type RetryApply func(ctx context.Context, task RetryTask, seconds int) (bool, error)

type retryState struct {
	task   RetryTask
	cancel chan struct{}
	once   sync.Once
}

func (st *retryState) stop() {
	st.once.Do(func() { close(st.cancel) })
}

// Scheduler owns the process-wide registry of duration-resolution retries.
// Tasks are created on schedule and removed on success, exhaustion or
// supersession; nothing is fire-and-forget.
type Scheduler struct {
	mu    sync.Mutex
	tasks map[string]*retryState

	backoffs []time.Duration
	lookup   RetryLookup
	apply    RetryApply
	log      *slog.Logger

	wg sync.WaitGroup
}

func NewScheduler(lookup RetryLookup, apply RetryApply, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{
		tasks:    map[string]*retryState{},
		backoffs: defaultBackoffs,
		lookup:   lookup,
		apply:    apply,
		log:      log,
	}
}

// SetBackoffs overrides the retry spacing; intended for tests.
func (s *Scheduler) SetBackoffs(backoffs []time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.backoffs = backoffs
}

// Schedule arms a retry chain for the task's call id, superseding any chain
// already pending for the same id.
func (s *Scheduler) Schedule(task RetryTask) {
	if task.ProviderCallID == "" {
		return
	}

	st := &retryState{task: task, cancel: make(chan struct{})}

	s.mu.Lock()
	if prev, ok := s.tasks[task.ProviderCallID]; ok {
		prev.stop()
	}
	s.tasks[task.ProviderCallID] = st
	backoffs := s.backoffs
	s.mu.Unlock()

	s.wg.Add(1)
	go s.run(st, backoffs)
}

// Cancel removes any pending chain for the call id. Used when a newer
// terminal callback supersedes the one that scheduled it.
func (s *Scheduler) Cancel(providerCallID string) {
	s.mu.Lock()
	st, ok := s.tasks[providerCallID]
	if ok {
		delete(s.tasks, providerCallID)
	}
	s.mu.Unlock()
	if ok {
		st.stop()
	}
}

// Active reports whether a chain is pending for the call id.
func (s *Scheduler) Active(providerCallID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tasks[providerCallID]
	return ok
}

// Stop cancels all pending chains and waits for their goroutines.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	for id, st := range s.tasks {
		st.stop()
		delete(s.tasks, id)
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Scheduler) run(st *retryState, backoffs []time.Duration) {
	defer s.wg.Done()
	task := st.task

	for i, d := range backoffs {
		select {
		case <-time.After(d):
		case <-st.cancel:
			return
		}

		secs, err := s.lookup(context.Background(), task)
		if err != nil || secs <= 0 {
			if err != nil && !errors.Is(err, ErrDurationUnavailable) {
				s.log.Warn("duration retry lookup failed",
					"provider_call_id", task.ProviderCallID, "try", i+1, "err", err)
			}
			continue
		}

		applied, err := s.apply(context.Background(), task, secs)
		if err != nil {
			s.log.Error("duration retry apply failed",
				"provider_call_id", task.ProviderCallID, "seconds", secs, "err", err)
		} else if applied {
			s.log.Info("duration resolved on retry",
				"provider_call_id", task.ProviderCallID, "seconds", secs, "try", i+1)
		}
		s.remove(task.ProviderCallID, st)
		return
	}

	// Exhaustion is a reported, non-fatal condition: the duration stays
	// unset for manual or async correction rather than a misleading zero.
	s.log.Warn("duration retries exhausted",
		"provider_call_id", task.ProviderCallID, "tries", len(backoffs))
	s.remove(task.ProviderCallID, st)
}

func (s *Scheduler) remove(providerCallID string, st *retryState) {
	s.mu.Lock()
	if cur, ok := s.tasks[providerCallID]; ok && cur == st {
		delete(s.tasks, providerCallID)
	}
	s.mu.Unlock()
}
