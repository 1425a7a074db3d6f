package recon

import (
	"testing"

	"dialtrack/internal/contacts"
)

func intp(n int) *int { return &n }

func TestMapOutcome_CanonicalStatuses(t *testing.T) {
	cases := []struct {
		status string
		want   contacts.CallStatus
	}{
		{"completed", contacts.StatusCompleted},
		{"Completed", contacts.StatusCompleted},
		{"ended", contacts.StatusCompleted},
		{"busy", contacts.StatusBusy},
		{"no-answer", contacts.StatusNoAnswer},
		{"no_answer", contacts.StatusNoAnswer},
		{"unanswered", contacts.StatusNoAnswer},
		{"canceled", contacts.StatusCancelled},
		{"cancelled", contacts.StatusCancelled},
		{"ringing", contacts.StatusInProgress},
		{"in-progress", contacts.StatusInProgress},
		{"initiated", contacts.StatusInitiated},
		{"queued", contacts.StatusInitiated},
		{"gibberish", contacts.StatusFailed},
	}
	for _, tc := range cases {
		got := MapOutcome(CallbackPayload{CallID: "c", Status: tc.status})
		if got != tc.want {
			t.Fatalf("status %q: got %q, want %q", tc.status, got, tc.want)
		}
	}
}

func TestMapOutcome_OutcomeFallback(t *testing.T) {
	p := CallbackPayload{CallID: "c", Outcome: "Busy"}
	if got := MapOutcome(p); got != contacts.StatusBusy {
		t.Fatalf("got %q", got)
	}

	// Neither field maps: default Failed.
	p = CallbackPayload{CallID: "c", Outcome: "weird free text"}
	if got := MapOutcome(p); got != contacts.StatusFailed {
		t.Fatalf("got %q", got)
	}
}

func TestMapOutcome_StatusBeatsOutcome(t *testing.T) {
	p := CallbackPayload{CallID: "c", Status: "busy", Outcome: "completed"}
	if got := MapOutcome(p); got != contacts.StatusBusy {
		t.Fatalf("got %q", got)
	}
}

func TestMapOutcome_Deterministic(t *testing.T) {
	p := CallbackPayload{
		CallID:               "c",
		Status:               "failed",
		Direction:            "outbound",
		ConversationDuration: intp(0),
		Legs:                 []CallLeg{{}, {Status: "failed"}},
	}
	first := MapOutcome(p)
	for i := 0; i < 50; i++ {
		if MapOutcome(p) != first {
			t.Fatalf("mapping not deterministic")
		}
	}
}

func TestClassifyFailed_VocabularyWins(t *testing.T) {
	cases := []CallbackPayload{
		{CallID: "c", Status: "failed", Message: "The phone is switched off"},
		{CallID: "c", Status: "failed", Reason: "subscriber unreachable"},
		{CallID: "c", Status: "failed", Error: "handset POWERED OFF"},
		{CallID: "c", Status: "call failed", Message: "out of coverage area"},
	}
	for i, p := range cases {
		if got := MapOutcome(p); got != contacts.StatusSwitchedOff {
			t.Fatalf("case %d: got %q, want switched_off", i, got)
		}
	}
}

func TestClassifyFailed_LegHeuristic(t *testing.T) {
	// Scenario: outbound, zero conversation time, second leg failed,
	// no explicit switched-off text.
	p := CallbackPayload{
		CallID:               "c",
		Status:               "failed",
		Direction:            "outbound",
		ConversationDuration: intp(0),
		Legs:                 []CallLeg{{}, {Status: "failed"}},
	}
	if got := MapOutcome(p); got != contacts.StatusSwitchedOff {
		t.Fatalf("got %q, want switched_off", got)
	}
}

func TestClassifyFailed_LegHeuristicNeedsAllThree(t *testing.T) {
	// Inbound direction: plain Failed.
	p := CallbackPayload{
		CallID:               "c",
		Status:               "failed",
		Direction:            "inbound",
		ConversationDuration: intp(0),
		Legs:                 []CallLeg{{}, {Status: "failed"}},
	}
	if got := MapOutcome(p); got != contacts.StatusFailed {
		t.Fatalf("inbound: got %q", got)
	}

	// Positive conversation time: the call connected, plain Failed.
	p.Direction = "outbound"
	p.ConversationDuration = intp(12)
	if got := MapOutcome(p); got != contacts.StatusFailed {
		t.Fatalf("talk time: got %q", got)
	}

	// Healthy second leg: plain Failed.
	p.ConversationDuration = intp(0)
	p.Legs = []CallLeg{{}, {Status: "completed"}}
	if got := MapOutcome(p); got != contacts.StatusFailed {
		t.Fatalf("healthy leg: got %q", got)
	}

	// Missing second leg entirely: plain Failed.
	p.Legs = []CallLeg{{Status: "failed"}}
	if got := MapOutcome(p); got != contacts.StatusFailed {
		t.Fatalf("single leg: got %q", got)
	}
}

func TestValidate_IngestContract(t *testing.T) {
	if err := (CallbackPayload{Status: "completed"}).Validate(); err != ErrValidation {
		t.Fatalf("missing callId: got %v", err)
	}
	if err := (CallbackPayload{CallID: "c"}).Validate(); err != ErrValidation {
		t.Fatalf("missing status+outcome: got %v", err)
	}
	if err := (CallbackPayload{CallID: "c", Outcome: "busy"}).Validate(); err != nil {
		t.Fatalf("outcome alone should satisfy contract: %v", err)
	}
}
