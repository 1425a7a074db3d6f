package recon

import (
	"context"
	"sync"
	"time"

	"dialtrack/internal/contacts"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store for tests and early development. It
// mirrors the SQL store's semantics, including the conditional attempts
// increment and the skip rules for late writers.
type MemoryStore struct {
	mu sync.Mutex

	Contacts map[string]*contacts.Contact
	Attempts map[string]*contacts.CallAttempt // keyed by attempt id
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		Contacts: map[string]*contacts.Contact{},
		Attempts: map[string]*contacts.CallAttempt{},
	}
}

// Seed adds a contact, defaulting its status when empty.
func (m *MemoryStore) Seed(c contacts.Contact) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.Status == "" {
		c.Status = contacts.StatusNotCalled
	}
	cp := c
	m.Contacts[c.ID] = &cp
}

func (m *MemoryStore) ContactByID(ctx context.Context, id string) (contacts.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.Contacts[id]
	if !ok {
		return contacts.Contact{}, contacts.ErrNotFound
	}
	return *c, nil
}

func (m *MemoryStore) ContactByProviderCallID(ctx context.Context, providerCallID string) (contacts.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.Contacts {
		if c.ProviderCallID != nil && *c.ProviderCallID == providerCallID {
			return *c, nil
		}
	}
	return contacts.Contact{}, contacts.ErrNotFound
}

func (m *MemoryStore) ApplyEvent(ctx context.Context, contactID string, ev Event) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.Contacts[contactID]
	if !ok {
		return Snapshot{}, contacts.ErrNotFound
	}

	attempt, found := m.findAttempt(contactID, ev.ProviderCallID)
	if !found {
		attempt = m.insertAttempt(contactID, ev)
	}
	wasTerminal := found && attempt.Status.IsTerminal()

	m.applyToAttempt(attempt, ev)
	m.applyToContact(c, ev, ev.Outcome.IsTerminal() && !wasTerminal)

	return Snapshot{Contact: *c, Attempt: *attempt}, nil
}

func (m *MemoryStore) ApplyTimeout(ctx context.Context, contactID, providerCallID string, now time.Time) (Snapshot, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.Contacts[contactID]
	if !ok {
		return Snapshot{}, false, contacts.ErrNotFound
	}
	if c.Status.IsTerminal() {
		return Snapshot{}, false, nil
	}
	if c.ProviderCallID == nil || *c.ProviderCallID != providerCallID {
		return Snapshot{}, false, nil
	}

	zero := 0
	ev := Event{
		ProviderCallID: providerCallID,
		Outcome:        contacts.StatusFailed,
		Duration:       &zero,
		OccurredAt:     now,
	}

	attempt, found := m.findAttempt(contactID, providerCallID)
	if !found {
		attempt = m.insertAttempt(contactID, ev)
	}
	if found && attempt.Status.IsTerminal() {
		return Snapshot{}, false, nil
	}

	m.applyToAttempt(attempt, ev)
	m.applyToContact(c, ev, true)
	return Snapshot{Contact: *c, Attempt: *attempt}, true, nil
}

func (m *MemoryStore) ApplyDuration(ctx context.Context, contactID, providerCallID string, seconds int, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	attempt, found := m.findAttempt(contactID, providerCallID)
	if !found {
		return false, nil
	}
	if attempt.Duration != nil && *attempt.Duration > 0 {
		return false, nil
	}

	secs := seconds
	attempt.Duration = &secs
	attempt.UpdatedAt = now

	if c, ok := m.Contacts[contactID]; ok {
		if c.ProviderCallID != nil && *c.ProviderCallID == providerCallID {
			c.Duration = &secs
			c.UpdatedAt = now
		}
	}
	return true, nil
}

func (m *MemoryStore) StaleContacts(ctx context.Context, cutoff time.Time) ([]contacts.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]contacts.Contact, 0)
	for _, c := range m.Contacts {
		if c.Status != contacts.StatusInitiated && c.Status != contacts.StatusInProgress {
			continue
		}
		if c.ProviderCallID == nil || c.LastAttempt == nil {
			continue
		}
		if c.LastAttempt.Before(cutoff) {
			out = append(out, *c)
		}
	}
	return out, nil
}

// AttemptCount reports how many attempt rows exist for a contact+call pair;
// test helper for duplicate-delivery assertions.
func (m *MemoryStore) AttemptCount(contactID, providerCallID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, a := range m.Attempts {
		if a.ContactID == contactID && a.ProviderCallID != nil && *a.ProviderCallID == providerCallID {
			n++
		}
	}
	return n
}

func (m *MemoryStore) findAttempt(contactID, providerCallID string) (*contacts.CallAttempt, bool) {
	for _, a := range m.Attempts {
		if a.ContactID == contactID && a.ProviderCallID != nil && *a.ProviderCallID == providerCallID {
			return a, true
		}
	}
	return nil, false
}

func (m *MemoryStore) insertAttempt(contactID string, ev Event) *contacts.CallAttempt {
	next := 0
	for _, a := range m.Attempts {
		if a.ContactID == contactID && a.AttemptNo > next {
			next = a.AttemptNo
		}
	}
	callID := ev.ProviderCallID
	a := &contacts.CallAttempt{
		ID:             uuid.NewString(),
		ContactID:      contactID,
		ProviderCallID: &callID,
		AttemptNo:      next + 1,
		Status:         contacts.StatusInitiated,
		UserID:         ev.UserID,
		CreatedAt:      ev.OccurredAt,
		UpdatedAt:      ev.OccurredAt,
	}
	m.Attempts[a.ID] = a
	return a
}

func (m *MemoryStore) applyToAttempt(a *contacts.CallAttempt, ev Event) {
	a.Status = ev.Outcome
	if ev.Duration != nil {
		d := *ev.Duration
		a.Duration = &d
	}
	if ev.RecordingURL != nil {
		u := *ev.RecordingURL
		a.RecordingURL = &u
	}
	a.UpdatedAt = ev.OccurredAt
}

func (m *MemoryStore) applyToContact(c *contacts.Contact, ev Event, increment bool) {
	callID := ev.ProviderCallID
	c.Status = ev.Outcome
	c.ProviderCallID = &callID
	if ev.Duration != nil {
		d := *ev.Duration
		c.Duration = &d
	}
	if ev.RecordingURL != nil {
		u := *ev.RecordingURL
		c.RecordingURL = &u
	}
	if increment {
		c.Attempts++
	}
	t := ev.OccurredAt
	c.LastAttempt = &t
	c.UpdatedAt = ev.OccurredAt
}
