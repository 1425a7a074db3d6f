package recon

import (
	"context"
	"time"

	"dialtrack/internal/contacts"
)

// Store is the state persister's storage boundary.
//
// All writes are idempotent and keyed on (contact_id, provider_call_id):
// re-applying the same event must not re-increment attempts or create a
// duplicate call-attempt row, and late writers (retries, the stale monitor)
// must be able to observe newer state and skip.
type Store interface {
	ContactByID(ctx context.Context, id string) (contacts.Contact, error)
	ContactByProviderCallID(ctx context.Context, providerCallID string) (contacts.Contact, error)

	// ApplyEvent applies a normalized callback to the contact and its
	// matching call-attempt row as one logically atomic unit, creating the
	// attempt row (with the next attempt_no) when none matches. attempts is
	// incremented only on a transition into a terminal outcome.
	ApplyEvent(ctx context.Context, contactID string, ev Event) (Snapshot, error)

	// ApplyTimeout force-fails a contact still in a non-terminal state for
	// the given call id. Returns applied=false (and no error) when a
	// terminal outcome won the race first.
	ApplyTimeout(ctx context.Context, contactID, providerCallID string, now time.Time) (Snapshot, bool, error)

	// ApplyDuration records an asynchronously resolved duration. Returns
	// applied=false when the attempt is gone or a duration is already
	// recorded (newer data must not be clobbered).
	ApplyDuration(ctx context.Context, contactID, providerCallID string, seconds int, now time.Time) (bool, error)

	// StaleContacts lists contacts still non-terminal whose last placement
	// precedes cutoff; input to the sweep.
	StaleContacts(ctx context.Context, cutoff time.Time) ([]contacts.Contact, error)
}
