package reporting

import "time"

// Common filtering inputs.

type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// OutcomesSummaryRequest requests aggregated call-outcome metrics over the
// reconciled attempt log. UserID narrows to attempts a single user placed.
type OutcomesSummaryRequest struct {
	Range  TimeRange `json:"range"`
	UserID string    `json:"user_id,omitempty"`
}

type OutcomesSummary struct {
	UserID string `json:"user_id,omitempty"`

	TotalAttempts int `json:"total_attempts"`

	Completed   int `json:"completed"`
	Busy        int `json:"busy"`
	NoAnswer    int `json:"no_answer"`
	Failed      int `json:"failed"`
	SwitchedOff int `json:"switched_off"`
	Cancelled   int `json:"cancelled"`
	InFlight    int `json:"in_flight"`

	TotalDurationSeconds   int `json:"total_duration_seconds"`
	AverageDurationSeconds int `json:"average_duration_seconds"`

	RecordedAttempts int `json:"recorded_attempts"`

	// UnresolvedDurations counts completed attempts still awaiting a
	// duration from the retry chain.
	UnresolvedDurations int `json:"unresolved_durations"`
}

// ReachabilityRequest requests connect-rate metrics for a dialing window.
type ReachabilityRequest struct {
	Range  TimeRange `json:"range"`
	UserID string    `json:"user_id,omitempty"`
}

type Reachability struct {
	UserID string `json:"user_id,omitempty"`

	AttemptsPlaced int `json:"attempts_placed"`
	Connected      int `json:"connected"`
	Unreachable    int `json:"unreachable"` // busy + no_answer + switched_off

	ConnectionRate float64 `json:"connection_rate"`
}
