package contacts

import "time"

// CallStatus is the canonical call-outcome taxonomy. Provider vocabulary is
// never stored; raw callback strings are mapped before persistence.
//
// NotCalled/Initiated/InProgress are the non-terminal contact states; the
// remaining values are terminal outcomes.
type CallStatus string

const (
	StatusNotCalled  CallStatus = "not_called"
	StatusInitiated  CallStatus = "initiated"
	StatusInProgress CallStatus = "in_progress"

	StatusCompleted   CallStatus = "completed"
	StatusBusy        CallStatus = "busy"
	StatusNoAnswer    CallStatus = "no_answer"
	StatusFailed      CallStatus = "failed"
	StatusSwitchedOff CallStatus = "switched_off"
	StatusCancelled   CallStatus = "cancelled"
)

// IsTerminal reports whether the status is a final call outcome.
func (s CallStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusBusy, StatusNoAnswer, StatusFailed, StatusSwitchedOff, StatusCancelled:
		return true
	default:
		return false
	}
}

// Valid reports whether s is part of the canonical taxonomy.
func (s CallStatus) Valid() bool {
	switch s {
	case StatusNotCalled, StatusInitiated, StatusInProgress:
		return true
	default:
		return s.IsTerminal()
	}
}

// Contact is a dialing target.
//
// Status mirrors the most recently applied outcome of its latest call
// attempt; Duration/RecordingURL are read-optimization mirrors kept
// consistent by the reconciliation writes.
//
// StatusOverride is an operator-set manual pin. The reconciliation layer
// never writes it; a terminal webhook still overwrites Status even when an
// override is present (the override column itself is untouched).
type Contact struct {
	ID             string     `json:"id" db:"id"`
	Phone          string     `json:"phone" db:"phone"`
	Status         CallStatus `json:"status" db:"status"`
	StatusOverride *string    `json:"status_override,omitempty" db:"status_override"`

	ProviderCallID *string `json:"provider_call_id,omitempty" db:"provider_call_id"`

	Attempts int `json:"attempts" db:"attempts"`

	// Duration is seconds of talk time; nil until resolved.
	Duration     *int    `json:"duration,omitempty" db:"duration"`
	RecordingURL *string `json:"recording_url,omitempty" db:"recording_url"`

	LastAttempt *time.Time `json:"last_attempt,omitempty" db:"last_attempt"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CallAttempt is one row per dial attempt (the call log).
//
// Invariant: at most one attempt row is current for a given
// (contact_id, provider_call_id) pair; repeated callbacks for the same call
// identifier update that row rather than appending duplicates.
type CallAttempt struct {
	ID             string  `json:"id" db:"id"`
	ContactID      string  `json:"contact_id" db:"contact_id"`
	ProviderCallID *string `json:"provider_call_id,omitempty" db:"provider_call_id"`

	// AttemptNo is monotonic per contact, assigned at creation.
	AttemptNo int `json:"attempt_no" db:"attempt_no"`

	Status CallStatus `json:"status" db:"status"`

	Duration     *int    `json:"duration,omitempty" db:"duration"`
	RecordingURL *string `json:"recording_url,omitempty" db:"recording_url"`

	// UserID is who initiated the attempt; nil for system-originated rows.
	UserID *string `json:"user_id,omitempty" db:"user_id"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
