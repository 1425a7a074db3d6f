package recon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"dialtrack/internal/config"
	"dialtrack/internal/contacts"
	"dialtrack/pkg/utils"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// callLockTTL bounds how long a crashed handler can hold a per-call lock.
const callLockTTL = 30 * time.Second

// Service is the reconciliation pipeline: ingest → map → resolve duration →
// persist → (conditionally) retry. It also owns the stale-call monitor and
// the retry scheduler, both of which write back through the same persister.
type Service struct {
	store    Store
	resolver *DurationResolver
	retries  *Scheduler
	monitor  *Monitor
	rdb      *redis.Client
	log      *slog.Logger

	staleAfter time.Duration

	// clock is injectable for deterministic tests.
	clock func() time.Time
}

func NewService(store Store, resolver *DurationResolver, cfg config.ReconConfig, rdb *redis.Client, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	s := &Service{
		store:      store,
		resolver:   resolver,
		rdb:        rdb,
		log:        log,
		staleAfter: cfg.StaleAfter,
		clock:      time.Now,
	}
	if s.staleAfter <= 0 {
		s.staleAfter = 2 * time.Minute
	}
	s.retries = NewScheduler(s.retryLookup, s.retryApply, log)
	s.monitor = NewMonitor(s.staleAfter, func(ctx context.Context, contactID, providerCallID string) {
		if _, err := s.ForceTimeout(ctx, contactID, providerCallID); err != nil {
			log.Error("stale-call timeout failed",
				"contact_id", contactID, "provider_call_id", providerCallID, "err", err)
		}
	}, log)
	return s
}

// Retries exposes the scheduler for wiring and tests.
func (s *Service) Retries() *Scheduler { return s.retries }

// ArmStaleCheck is called by the call-placement component right after the
// provider accepts a dial and assigns a call id.
func (s *Service) ArmStaleCheck(contactID, providerCallID string) {
	s.monitor.Arm(contactID, providerCallID)
}

// Stop cancels background timers; pending state in the database is
// unaffected (the sweep converges it).
func (s *Service) Stop() {
	s.monitor.Stop()
	s.retries.Stop()
}

// Reconcile applies one provider callback. Failures are isolated per
// callback: validation and lookup errors surface to the caller, duration
// trouble degrades to the retry path, only persistence failures are 500s.
func (s *Service) Reconcile(ctx context.Context, p CallbackPayload) (Snapshot, error) {
	if err := p.Validate(); err != nil {
		return Snapshot{}, err
	}
	now := s.clock().UTC()
	log := s.log.With("provider_call_id", p.CallID)

	// Best-effort serialization of duplicate deliveries for one call id.
	// Correctness does not depend on it; the keyed idempotent write does.
	if s.rdb != nil {
		holder := uuid.NewString()
		key := "recon:call:" + p.CallID
		if ok, err := utils.AcquireCallLock(ctx, s.rdb, key, holder, callLockTTL); err != nil {
			log.Debug("call lock unavailable", "err", err)
		} else if ok {
			defer func() {
				if err := utils.ReleaseCallLock(context.Background(), s.rdb, key, holder); err != nil {
					log.Debug("call lock release failed", "err", err)
				}
			}()
		}
	}

	contact, err := s.resolveContact(ctx, p)
	if err != nil {
		return Snapshot{}, err
	}

	outcome := MapOutcome(p)
	ev := Event{
		ProviderCallID: p.CallID,
		Outcome:        outcome,
		OccurredAt:     now,
	}
	if p.RecordingURL != "" {
		url := p.RecordingURL
		ev.RecordingURL = &url
	}
	if p.UserID != "" {
		uid := p.UserID
		ev.UserID = &uid
	}

	scheduleRetry := false
	if outcome.IsTerminal() {
		// This callback supersedes any pending retry chain and stale check
		// for the same call id.
		s.retries.Cancel(p.CallID)
		s.monitor.Disarm(p.CallID)

		secs, src, derr := s.resolver.Resolve(ctx, p)
		switch {
		case derr == nil:
			ev.Duration = &secs
			ev.DurationSource = src
			if src == SourceDetailGross {
				log.Warn("gross call duration applied; includes ring time", "seconds", secs)
			}
		case outcome == contacts.StatusCompleted:
			// A completed call with no known talk time must never be
			// persisted as zero; leave unset and correct asynchronously.
			scheduleRetry = true
			log.Info("duration unresolved at callback time", "reason", derr)
		default:
			// Busy/no-answer/failed calls genuinely have no talk time.
			zero := 0
			ev.Duration = &zero
		}
	}

	snap, err := s.store.ApplyEvent(ctx, contact.ID, ev)
	if err != nil {
		if errors.Is(err, contacts.ErrNotFound) {
			return Snapshot{}, err
		}
		log.Error("reconcile persist failed", "contact_id", contact.ID, "err", err)
		return Snapshot{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if scheduleRetry {
		s.retries.Schedule(RetryTask{
			ProviderCallID: p.CallID,
			ContactID:      contact.ID,
			AttemptID:      snap.Attempt.ID,
			UserID:         p.UserID,
		})
	}

	log.Info("callback reconciled",
		"contact_id", contact.ID,
		"outcome", string(snap.Contact.Status),
		"duration_source", string(ev.DurationSource),
		"attempts", snap.Contact.Attempts,
	)
	return snap, nil
}

// ForceTimeout applies a synthesized Failed outcome (duration 0) when no
// callback arrived within the stale window. Returns applied=false when a
// terminal outcome already landed; that is the expected race loss.
func (s *Service) ForceTimeout(ctx context.Context, contactID, providerCallID string) (bool, error) {
	snap, applied, err := s.store.ApplyTimeout(ctx, contactID, providerCallID, s.clock().UTC())
	if err != nil {
		if errors.Is(err, contacts.ErrNotFound) {
			return false, err
		}
		return false, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if !applied {
		s.log.Debug("stale-call check observed terminal state; no-op",
			"contact_id", contactID, "provider_call_id", providerCallID)
		return false, nil
	}

	s.retries.Cancel(providerCallID)
	s.log.Info("stale call force-failed",
		"contact_id", contactID,
		"provider_call_id", providerCallID,
		"attempts", snap.Contact.Attempts,
	)
	return true, nil
}

// SweepStale force-fails every contact stuck non-terminal past the stale
// window. It backstops in-process timers lost to restarts.
func (s *Service) SweepStale(ctx context.Context) (int, error) {
	cutoff := s.clock().UTC().Add(-s.staleAfter)
	stale, err := s.store.StaleContacts(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	swept := 0
	for _, c := range stale {
		if c.ProviderCallID == nil {
			continue
		}
		applied, err := s.ForceTimeout(ctx, c.ID, *c.ProviderCallID)
		if err != nil {
			s.log.Error("sweep force-timeout failed", "contact_id", c.ID, "err", err)
			continue
		}
		if applied {
			swept++
		}
	}
	return swept, nil
}

func (s *Service) resolveContact(ctx context.Context, p CallbackPayload) (contacts.Contact, error) {
	c, err := s.store.ContactByProviderCallID(ctx, p.CallID)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, contacts.ErrNotFound) {
		return contacts.Contact{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	// The call id may not be stored yet (callback raced placement's own
	// write); fall back to the correlation token from the original request.
	if p.CorrelationToken != "" {
		c, err = s.store.ContactByID(ctx, p.CorrelationToken)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, contacts.ErrNotFound) {
			return contacts.Contact{}, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
	}
	return contacts.Contact{}, contacts.ErrNotFound
}

func (s *Service) retryLookup(ctx context.Context, task RetryTask) (int, error) {
	secs, src, err := s.resolver.ResolveRemote(ctx, task.UserID, task.ProviderCallID)
	if err != nil {
		return 0, err
	}
	if src == SourceDetailGross {
		s.log.Warn("gross call duration applied on retry; includes ring time",
			"provider_call_id", task.ProviderCallID, "seconds", secs)
	}
	return secs, nil
}

func (s *Service) retryApply(ctx context.Context, task RetryTask, seconds int) (bool, error) {
	return s.store.ApplyDuration(ctx, task.ContactID, task.ProviderCallID, seconds, s.clock().UTC())
}
