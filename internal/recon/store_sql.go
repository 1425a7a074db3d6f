package recon

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"dialtrack/internal/contacts"
	"dialtrack/pkg/utils"

	"github.com/google/uuid"
)

// SQLStore persists reconciliation state in Postgres.
//
// NOTE: assumes the contacts and call_attempts tables with
// UNIQUE (contact_id, provider_call_id) on call_attempts. Everything is
// parameterized; idempotency hangs on that key, so no query below may be
// built from interpolated input.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) ContactByID(ctx context.Context, id string) (contacts.Contact, error) {
	return contacts.GetContact(ctx, s.db, id)
}

func (s *SQLStore) ContactByProviderCallID(ctx context.Context, providerCallID string) (contacts.Contact, error) {
	return contacts.GetContactByProviderCallID(ctx, s.db, providerCallID)
}

func (s *SQLStore) ApplyEvent(ctx context.Context, contactID string, ev Event) (Snapshot, error) {
	var snap Snapshot
	err := utils.WithTx(ctx, s.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		// Lock the contact row to serialize concurrent writes per contact.
		if _, err := lockContact(ctx, tx, contactID); err != nil {
			return err
		}

		attempt, found, err := attemptForUpdate(ctx, tx, contactID, ev.ProviderCallID)
		if err != nil {
			return err
		}
		if !found {
			attempt, err = insertAttempt(ctx, tx, contactID, ev)
			if err != nil {
				return err
			}
		}
		wasTerminal := found && attempt.Status.IsTerminal()

		updated, err := updateAttempt(ctx, tx, attempt.ID, ev)
		if err != nil {
			return err
		}
		snap.Attempt = updated

		increment := ev.Outcome.IsTerminal() && !wasTerminal
		c, err := updateContact(ctx, tx, contactID, ev, increment)
		if err != nil {
			return err
		}
		snap.Contact = c
		return nil
	})
	return snap, err
}

func (s *SQLStore) ApplyTimeout(ctx context.Context, contactID, providerCallID string, now time.Time) (Snapshot, bool, error) {
	var snap Snapshot
	applied := false
	err := utils.WithTx(ctx, s.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		c, err := lockContact(ctx, tx, contactID)
		if err != nil {
			return err
		}
		// A terminal callback won the race: no-op, never un-terminate.
		if c.Status.IsTerminal() {
			return nil
		}
		if c.ProviderCallID == nil || *c.ProviderCallID != providerCallID {
			return nil
		}

		zero := 0
		ev := Event{
			ProviderCallID: providerCallID,
			Outcome:        contacts.StatusFailed,
			Duration:       &zero,
			OccurredAt:     now,
		}

		attempt, found, err := attemptForUpdate(ctx, tx, contactID, providerCallID)
		if err != nil {
			return err
		}
		if !found {
			attempt, err = insertAttempt(ctx, tx, contactID, ev)
			if err != nil {
				return err
			}
		}
		wasTerminal := found && attempt.Status.IsTerminal()
		if wasTerminal {
			return nil
		}

		updated, err := updateAttempt(ctx, tx, attempt.ID, ev)
		if err != nil {
			return err
		}
		out, err := updateContact(ctx, tx, contactID, ev, true)
		if err != nil {
			return err
		}
		snap = Snapshot{Contact: out, Attempt: updated}
		applied = true
		return nil
	})
	return snap, applied, err
}

func (s *SQLStore) ApplyDuration(ctx context.Context, contactID, providerCallID string, seconds int, now time.Time) (bool, error) {
	applied := false
	err := utils.WithTx(ctx, s.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		attempt, found, err := attemptForUpdate(ctx, tx, contactID, providerCallID)
		if err != nil {
			return err
		}
		if !found {
			return nil
		}
		// A newer write already recorded a duration: skip, don't clobber.
		if attempt.Duration != nil && *attempt.Duration > 0 {
			return nil
		}

		const qa = `UPDATE call_attempts SET duration = $2, updated_at = $3 WHERE id = $1`
		if _, err := tx.ExecContext(ctx, qa, attempt.ID, seconds, now); err != nil {
			return err
		}

		// Keep the contact mirror consistent when it still points at this call.
		const qc = `
UPDATE contacts SET duration = $3, updated_at = $4
WHERE id = $1 AND provider_call_id = $2`
		if _, err := tx.ExecContext(ctx, qc, contactID, providerCallID, seconds, now); err != nil {
			return err
		}
		applied = true
		return nil
	})
	return applied, err
}

func (s *SQLStore) StaleContacts(ctx context.Context, cutoff time.Time) ([]contacts.Contact, error) {
	const q = `
SELECT id, phone, status, status_override, provider_call_id, attempts,
       duration, recording_url, last_attempt, created_at, updated_at
FROM contacts
WHERE status IN ($1, $2)
  AND provider_call_id IS NOT NULL
  AND last_attempt IS NOT NULL
  AND last_attempt < $3
ORDER BY last_attempt ASC
LIMIT 200`
	rows, err := s.db.QueryContext(ctx, q, contacts.StatusInitiated, contacts.StatusInProgress, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]contacts.Contact, 0)
	for rows.Next() {
		var c contacts.Contact
		if err := rows.Scan(
			&c.ID,
			&c.Phone,
			&c.Status,
			&c.StatusOverride,
			&c.ProviderCallID,
			&c.Attempts,
			&c.Duration,
			&c.RecordingURL,
			&c.LastAttempt,
			&c.CreatedAt,
			&c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func lockContact(ctx context.Context, tx *sql.Tx, contactID string) (contacts.Contact, error) {
	const q = `
SELECT id, phone, status, status_override, provider_call_id, attempts,
       duration, recording_url, last_attempt, created_at, updated_at
FROM contacts
WHERE id = $1
FOR UPDATE`
	var c contacts.Contact
	err := tx.QueryRowContext(ctx, q, contactID).Scan(
		&c.ID,
		&c.Phone,
		&c.Status,
		&c.StatusOverride,
		&c.ProviderCallID,
		&c.Attempts,
		&c.Duration,
		&c.RecordingURL,
		&c.LastAttempt,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return contacts.Contact{}, contacts.ErrNotFound
	}
	return c, err
}

func attemptForUpdate(ctx context.Context, tx *sql.Tx, contactID, providerCallID string) (contacts.CallAttempt, bool, error) {
	const q = `
SELECT id, contact_id, provider_call_id, attempt_no, status, duration,
       recording_url, user_id, created_at, updated_at
FROM call_attempts
WHERE contact_id = $1 AND provider_call_id = $2
FOR UPDATE`
	var a contacts.CallAttempt
	err := tx.QueryRowContext(ctx, q, contactID, providerCallID).Scan(
		&a.ID,
		&a.ContactID,
		&a.ProviderCallID,
		&a.AttemptNo,
		&a.Status,
		&a.Duration,
		&a.RecordingURL,
		&a.UserID,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return contacts.CallAttempt{}, false, nil
	}
	if err != nil {
		return contacts.CallAttempt{}, false, err
	}
	return a, true, nil
}

func insertAttempt(ctx context.Context, tx *sql.Tx, contactID string, ev Event) (contacts.CallAttempt, error) {
	const q = `
INSERT INTO call_attempts (
  id, contact_id, provider_call_id, attempt_no, status, user_id, created_at, updated_at
) VALUES (
  $1, $2, $3,
  (SELECT COALESCE(MAX(attempt_no), 0) + 1 FROM call_attempts WHERE contact_id = $2),
  $4, $5, $6, $6
)
RETURNING id, contact_id, provider_call_id, attempt_no, status, duration,
          recording_url, user_id, created_at, updated_at`
	var a contacts.CallAttempt
	err := tx.QueryRowContext(ctx, q,
		uuid.NewString(),
		contactID,
		ev.ProviderCallID,
		contacts.StatusInitiated,
		ev.UserID,
		ev.OccurredAt,
	).Scan(
		&a.ID,
		&a.ContactID,
		&a.ProviderCallID,
		&a.AttemptNo,
		&a.Status,
		&a.Duration,
		&a.RecordingURL,
		&a.UserID,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	return a, err
}

func updateAttempt(ctx context.Context, tx *sql.Tx, attemptID string, ev Event) (contacts.CallAttempt, error) {
	// Duration and recording are written only when the event carries them.
	const q = `
UPDATE call_attempts
SET status = $2,
    duration = COALESCE($3, duration),
    recording_url = COALESCE($4, recording_url),
    updated_at = $5
WHERE id = $1
RETURNING id, contact_id, provider_call_id, attempt_no, status, duration,
          recording_url, user_id, created_at, updated_at`
	var a contacts.CallAttempt
	err := tx.QueryRowContext(ctx, q, attemptID, ev.Outcome, ev.Duration, ev.RecordingURL, ev.OccurredAt).Scan(
		&a.ID,
		&a.ContactID,
		&a.ProviderCallID,
		&a.AttemptNo,
		&a.Status,
		&a.Duration,
		&a.RecordingURL,
		&a.UserID,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	return a, err
}

func updateContact(ctx context.Context, tx *sql.Tx, contactID string, ev Event, increment bool) (contacts.Contact, error) {
	incr := 0
	if increment {
		incr = 1
	}
	// Webhook-derived status always lands; status_override is never touched
	// here (operator endpoint owns it).
	const q = `
UPDATE contacts
SET status = $2,
    provider_call_id = $3,
    duration = COALESCE($4, duration),
    recording_url = COALESCE($5, recording_url),
    attempts = attempts + $6,
    last_attempt = $7,
    updated_at = $7
WHERE id = $1
RETURNING id, phone, status, status_override, provider_call_id, attempts,
          duration, recording_url, last_attempt, created_at, updated_at`
	var c contacts.Contact
	err := tx.QueryRowContext(ctx, q,
		contactID,
		ev.Outcome,
		ev.ProviderCallID,
		ev.Duration,
		ev.RecordingURL,
		incr,
		ev.OccurredAt,
	).Scan(
		&c.ID,
		&c.Phone,
		&c.Status,
		&c.StatusOverride,
		&c.ProviderCallID,
		&c.Attempts,
		&c.Duration,
		&c.RecordingURL,
		&c.LastAttempt,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return contacts.Contact{}, contacts.ErrNotFound
	}
	return c, err
}
