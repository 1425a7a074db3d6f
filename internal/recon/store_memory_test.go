package recon

import (
	"context"
	"testing"
	"time"

	"dialtrack/internal/contacts"
)

func TestApplyDuration_SkipsWhenAlreadyResolved(t *testing.T) {
	store := NewMemoryStore()
	seedContact(store, "ct-1", "call-1")
	now := time.Now().UTC()

	d := 60
	if _, err := store.ApplyEvent(context.Background(), "ct-1", Event{
		ProviderCallID: "call-1",
		Outcome:        contacts.StatusCompleted,
		Duration:       &d,
		OccurredAt:     now,
	}); err != nil {
		t.Fatalf("ApplyEvent: %v", err)
	}

	applied, err := store.ApplyDuration(context.Background(), "ct-1", "call-1", 999, now)
	if err != nil {
		t.Fatalf("ApplyDuration: %v", err)
	}
	if applied {
		t.Fatalf("late write must skip a resolved duration")
	}

	c, _ := store.ContactByID(context.Background(), "ct-1")
	if c.Duration == nil || *c.Duration != 60 {
		t.Fatalf("duration = %v, want 60", c.Duration)
	}
}

func TestApplyDuration_UnknownAttemptIsNoOp(t *testing.T) {
	store := NewMemoryStore()
	seedContact(store, "ct-1", "call-1")

	applied, err := store.ApplyDuration(context.Background(), "ct-1", "ghost", 30, time.Now().UTC())
	if err != nil {
		t.Fatalf("ApplyDuration: %v", err)
	}
	if applied {
		t.Fatalf("no attempt row, nothing to apply")
	}
}

func TestApplyTimeout_IgnoresMismatchedCallID(t *testing.T) {
	store := NewMemoryStore()
	seedContact(store, "ct-1", "call-2") // contact already moved on to a newer call

	_, applied, err := store.ApplyTimeout(context.Background(), "ct-1", "call-1", time.Now().UTC())
	if err != nil {
		t.Fatalf("ApplyTimeout: %v", err)
	}
	if applied {
		t.Fatalf("timeout for a superseded call id must no-op")
	}

	c, _ := store.ContactByID(context.Background(), "ct-1")
	if c.Status != contacts.StatusInitiated {
		t.Fatalf("status = %q, want initiated", c.Status)
	}
}

func TestApplyEvent_SecondCallIDOpensNewAttempt(t *testing.T) {
	store := NewMemoryStore()
	seedContact(store, "ct-1", "call-1")
	now := time.Now().UTC()

	zero := 0
	if _, err := store.ApplyEvent(context.Background(), "ct-1", Event{
		ProviderCallID: "call-1", Outcome: contacts.StatusNoAnswer, Duration: &zero, OccurredAt: now,
	}); err != nil {
		t.Fatalf("ApplyEvent: %v", err)
	}

	d := 75
	snap, err := store.ApplyEvent(context.Background(), "ct-1", Event{
		ProviderCallID: "call-2", Outcome: contacts.StatusCompleted, Duration: &d, OccurredAt: now.Add(time.Minute),
	})
	if err != nil {
		t.Fatalf("ApplyEvent: %v", err)
	}

	if snap.Attempt.AttemptNo != 2 {
		t.Fatalf("attempt_no = %d, want 2", snap.Attempt.AttemptNo)
	}
	if snap.Contact.Attempts != 2 {
		t.Fatalf("attempts = %d, want 2", snap.Contact.Attempts)
	}
	if snap.Contact.ProviderCallID == nil || *snap.Contact.ProviderCallID != "call-2" {
		t.Fatalf("contact call id = %v", snap.Contact.ProviderCallID)
	}
}
