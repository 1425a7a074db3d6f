package reporting

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"dialtrack/internal/contacts"
)

// SQLRepo reads the call_attempts log written by the reconciliation layer.
type SQLRepo struct {
	DB *sql.DB
}

func (r SQLRepo) ListAttempts(ctx context.Context, from, to time.Time, userID string) ([]contacts.CallAttempt, error) {
	q := `SELECT id, contact_id, provider_call_id, attempt_no, status,
	             duration, recording_url, user_id, created_at, updated_at
	        FROM call_attempts
	       WHERE created_at >= $1 AND created_at < $2`
	args := []any{from, to}
	if userID != "" {
		q += ` AND user_id = $3`
		args = append(args, userID)
	}
	q += ` ORDER BY created_at`

	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	out := make([]contacts.CallAttempt, 0)
	for rows.Next() {
		var a contacts.CallAttempt
		if err := rows.Scan(
			&a.ID, &a.ContactID, &a.ProviderCallID, &a.AttemptNo, &a.Status,
			&a.Duration, &a.RecordingURL, &a.UserID, &a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
