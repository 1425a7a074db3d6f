package recon

import (
	"time"

	"dialtrack/internal/contacts"
)

// CallbackPayload is the provider status callback as received on the wire.
// Only the consumed fields are modeled; unknown fields are ignored.
type CallbackPayload struct {
	CallID  string `json:"callId"`
	Status  string `json:"status"`
	Outcome string `json:"outcome"`

	Direction string `json:"direction,omitempty"`

	// Duration sources, in descending accuracy.
	ConversationDuration *int       `json:"conversationDuration,omitempty"`
	Duration             *int       `json:"duration,omitempty"`
	StartTime            *time.Time `json:"startTime,omitempty"`
	EndTime              *time.Time `json:"endTime,omitempty"`

	RecordingURL string `json:"recordingUrl,omitempty"`

	// Auxiliary signal fields consulted by the failed-status split.
	Message string `json:"message,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Error   string `json:"error,omitempty"`

	Legs []CallLeg `json:"legs,omitempty"`

	// CorrelationToken is the opaque custom field from the original
	// call-placement request carrying the contact id; used when the call id
	// has not been stored on the contact yet.
	CorrelationToken string `json:"correlationToken,omitempty"`

	// UserID selects per-user provider credentials for follow-up lookups.
	UserID string `json:"userId,omitempty"`
}

// CallLeg is a secondary leg's status as reported by the provider.
type CallLeg struct {
	Status string `json:"status,omitempty"`
}

// Validate checks the ingest contract: a call identifier plus at least one
// of status/outcome.
func (p CallbackPayload) Validate() error {
	if p.CallID == "" {
		return ErrValidation
	}
	if p.Status == "" && p.Outcome == "" {
		return ErrValidation
	}
	return nil
}

// Event is the normalized result of one callback: constructed per delivery,
// consumed immediately by the state persister, then discarded.
type Event struct {
	ProviderCallID string
	Outcome        contacts.CallStatus

	// Duration is nil when unresolved; the persister must never coerce an
	// unresolved duration to zero.
	Duration       *int
	DurationSource DurationSource

	RecordingURL *string
	UserID       *string
	OccurredAt   time.Time
}

// Snapshot is the reconciled contact/call-attempt pair returned to the
// webhook caller.
type Snapshot struct {
	Contact contacts.Contact     `json:"contact"`
	Attempt contacts.CallAttempt `json:"attempt"`
}
