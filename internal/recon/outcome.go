package recon

import (
	"strings"

	"dialtrack/internal/contacts"
)

// MapOutcome is the single source of truth for provider vocabulary →
// canonical outcome. It is pure: the same payload always maps to the same
// status.
//
// The callback's status field is primary; the free-text outcome field is the
// fallback; anything unrecognized maps to Failed.
func MapOutcome(p CallbackPayload) contacts.CallStatus {
	raw := normalizeRaw(p.Status)
	if raw == "" {
		raw = normalizeRaw(p.Outcome)
	}

	switch raw {
	case "completed", "complete", "ended", "hangup", "success":
		return contacts.StatusCompleted
	case "busy", "user busy":
		return contacts.StatusBusy
	case "no answer", "noanswer", "unanswered", "missed":
		return contacts.StatusNoAnswer
	case "cancelled", "canceled", "cancel", "rejected":
		return contacts.StatusCancelled
	case "failed", "call failed":
		return classifyFailed(p)
	case "initiated", "queued":
		return contacts.StatusInitiated
	case "ringing", "in progress", "answered", "accepted":
		return contacts.StatusInProgress
	default:
		return contacts.StatusFailed
	}
}

// switchedOffVocabulary is matched against the callback's auxiliary text
// fields. Keep entries lowercase.
var switchedOffVocabulary = []string{
	"switched off",
	"switch off",
	"switched-off",
	"power off",
	"powered off",
	"unreachable",
	"not reachable",
	"out of coverage",
}

// classifyFailed splits a raw "failed" status into SwitchedOff vs Failed.
//
// Order matters and is user-visible:
//  1. any auxiliary text field carrying switched-off vocabulary wins;
//  2. otherwise an outbound call with zero conversation time whose secondary
//     leg itself failed is treated as a switched-off handset;
//  3. everything else stays Failed.
func classifyFailed(p CallbackPayload) contacts.CallStatus {
	for _, field := range []string{p.Message, p.Reason, p.Error} {
		text := strings.ToLower(field)
		if text == "" {
			continue
		}
		for _, vocab := range switchedOffVocabulary {
			if strings.Contains(text, vocab) {
				return contacts.StatusSwitchedOff
			}
		}
	}

	if normalizeRaw(p.Direction) == "outbound" &&
		conversationSeconds(p) == 0 &&
		secondLegFailed(p) {
		return contacts.StatusSwitchedOff
	}

	return contacts.StatusFailed
}

func conversationSeconds(p CallbackPayload) int {
	if p.ConversationDuration == nil {
		return 0
	}
	return *p.ConversationDuration
}

func secondLegFailed(p CallbackPayload) bool {
	if len(p.Legs) < 2 {
		return false
	}
	return normalizeRaw(p.Legs[1].Status) == "failed"
}

func normalizeRaw(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "_", " ")
	s = strings.ReplaceAll(s, "-", " ")
	return s
}
