package provider

import "time"

// Credentials authenticate one call-detail lookup. Per-user rows take
// precedence; operator-wide defaults from config are the fallback.
type Credentials struct {
	AccountID string `json:"account_id"`
	APIKey    string `json:"api_key"`
	APIToken  string `json:"api_token"`
}

func (c Credentials) Complete() bool {
	return c.AccountID != "" && c.APIKey != "" && c.APIToken != ""
}

// CallDetail is the provider's call-detail record for one call.
//
// ConversationSeconds is the provider's authoritative talk time (what its
// own dashboard shows). GrossSeconds includes ring time and is only a
// last-resort duration source.
type CallDetail struct {
	CallID string `json:"call_id"`
	Status string `json:"status"`

	ConversationSeconds int `json:"conversation_duration"`
	DurationSeconds     int `json:"duration"`
	GrossSeconds        int `json:"call_duration"`

	StartedAt *time.Time `json:"start_time,omitempty"`
	EndedAt   *time.Time `json:"end_time,omitempty"`

	RecordingURL string `json:"recording_url,omitempty"`
}
