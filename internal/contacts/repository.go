package contacts

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// NOTE: This repository assumes the following tables exist:
// - contacts
// - call_attempts (UNIQUE (contact_id, provider_call_id))
//
// All queries are parameterized; provider-supplied values are never
// interpolated into SQL text.

var (
	ErrNotFound        = errors.New("contacts: not found")
	ErrInvalidArgument = errors.New("contacts: invalid argument")
)

const contactColumns = `
id, phone, status, status_override, provider_call_id, attempts,
duration, recording_url, last_attempt, created_at, updated_at`

func scanContact(row interface{ Scan(dest ...any) error }) (Contact, error) {
	var c Contact
	err := row.Scan(
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
	return c, err
}

func GetContact(ctx context.Context, db *sql.DB, id string) (Contact, error) {
	if id == "" {
		return Contact{}, ErrInvalidArgument
	}
	const q = `SELECT ` + contactColumns + ` FROM contacts WHERE id = $1`
	c, err := scanContact(db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Contact{}, ErrNotFound
	}
	return c, err
}

// GetContactByProviderCallID resolves the contact owning a provider call id.
// This is the primary webhook correlation path; the contact id correlation
// token is the fallback handled by the caller.
func GetContactByProviderCallID(ctx context.Context, db *sql.DB, providerCallID string) (Contact, error) {
	if providerCallID == "" {
		return Contact{}, ErrInvalidArgument
	}
	const q = `SELECT ` + contactColumns + ` FROM contacts WHERE provider_call_id = $1 LIMIT 1`
	c, err := scanContact(db.QueryRowContext(ctx, q, providerCallID))
	if errors.Is(err, sql.ErrNoRows) {
		return Contact{}, ErrNotFound
	}
	return c, err
}

func ListContacts(ctx context.Context, db *sql.DB, status CallStatus, limit, offset int) ([]Contact, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	var rows *sql.Rows
	var err error
	if status != "" {
		const q = `SELECT ` + contactColumns + ` FROM contacts WHERE status = $1 ORDER BY updated_at DESC LIMIT $2 OFFSET $3`
		rows, err = db.QueryContext(ctx, q, status, limit, offset)
	} else {
		const q = `SELECT ` + contactColumns + ` FROM contacts ORDER BY updated_at DESC LIMIT $1 OFFSET $2`
		rows, err = db.QueryContext(ctx, q, limit, offset)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Contact, 0)
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// SetStatusOverride pins (or clears, when override is nil) the manual status
// override. Only the override column changes; webhook-derived status is left
// alone.
func SetStatusOverride(ctx context.Context, db *sql.DB, id string, override *string, now time.Time) (Contact, error) {
	if id == "" {
		return Contact{}, ErrInvalidArgument
	}
	const q = `
UPDATE contacts
SET status_override = $2, updated_at = $3
WHERE id = $1
RETURNING ` + contactColumns
	c, err := scanContact(db.QueryRowContext(ctx, q, id, override, now))
	if errors.Is(err, sql.ErrNoRows) {
		return Contact{}, ErrNotFound
	}
	return c, err
}

// ListAttempts returns the call log for one contact, newest first.
func ListAttempts(ctx context.Context, db *sql.DB, contactID string) ([]CallAttempt, error) {
	if contactID == "" {
		return nil, ErrInvalidArgument
	}
	const q = `
SELECT id, contact_id, provider_call_id, attempt_no, status, duration,
       recording_url, user_id, created_at, updated_at
FROM call_attempts
WHERE contact_id = $1
ORDER BY attempt_no DESC`
	rows, err := db.QueryContext(ctx, q, contactID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]CallAttempt, 0)
	for rows.Next() {
		var a CallAttempt
		if err := rows.Scan(
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
		); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
