package recon

import (
	"context"
	"fmt"
	"time"

	"dialtrack/internal/provider"
)

// DurationSource records which source produced a resolved duration. It is
// logged, not persisted; the gross source in particular marks a less
// accurate value (includes ring time) applied only as a last resort.
type DurationSource string

const (
	SourceNone                 DurationSource = ""
	SourceCallbackConversation DurationSource = "callback_conversation"
	SourceCallbackDuration     DurationSource = "callback_duration"
	SourceCallbackTimestamps   DurationSource = "callback_timestamps"
	SourceDetailConversation   DurationSource = "detail_conversation"
	SourceDetailDuration       DurationSource = "detail_duration"
	SourceDetailTimestamps     DurationSource = "detail_timestamps"
	SourceDetailGross          DurationSource = "detail_gross"
)

// DurationResolver determines the authoritative call duration through a
// prioritized chain of sources, stopping at the first positive value:
// callback conversation duration, callback generic duration, callback
// start/end timestamps, then the same three from the provider's call-detail
// API, and finally the API's gross call duration.
type DurationResolver struct {
	fetcher provider.DetailFetcher
	creds   provider.CredentialResolver
}

func NewDurationResolver(fetcher provider.DetailFetcher, creds provider.CredentialResolver) *DurationResolver {
	return &DurationResolver{fetcher: fetcher, creds: creds}
}

// Resolve runs the full chain. A zero result with ErrDurationUnavailable
// means "leave unset and schedule a retry"; it is never an error to the
// webhook caller. Provider API failures collapse into the same condition.
func (r *DurationResolver) Resolve(ctx context.Context, p CallbackPayload) (int, DurationSource, error) {
	if secs, src := durationFromCallback(p); secs > 0 {
		return secs, src, nil
	}
	return r.ResolveRemote(ctx, p.UserID, p.CallID)
}

// ResolveRemote performs only the provider-API step of the chain. Retries
// re-enter here; the callback-sourced fields are already known to be empty.
func (r *DurationResolver) ResolveRemote(ctx context.Context, userID, callID string) (int, DurationSource, error) {
	if r.fetcher == nil {
		return 0, SourceNone, ErrDurationUnavailable
	}

	creds, err := r.creds.Resolve(ctx, userID)
	if err != nil {
		return 0, SourceNone, fmt.Errorf("%w: credentials: %v", ErrDurationUnavailable, err)
	}

	detail, err := r.fetcher.FetchCallDetail(ctx, creds, callID)
	if err != nil {
		// Upstream failure or timeout: resolution failure, retry path owns it.
		return 0, SourceNone, fmt.Errorf("%w: %v", ErrDurationUnavailable, err)
	}

	if secs, src := durationFromDetail(detail); secs > 0 {
		return secs, src, nil
	}
	return 0, SourceNone, ErrDurationUnavailable
}

func durationFromCallback(p CallbackPayload) (int, DurationSource) {
	if p.ConversationDuration != nil && *p.ConversationDuration > 0 {
		return *p.ConversationDuration, SourceCallbackConversation
	}
	if p.Duration != nil && *p.Duration > 0 {
		return *p.Duration, SourceCallbackDuration
	}
	if secs := secondsBetween(p.StartTime, p.EndTime); secs > 0 {
		return secs, SourceCallbackTimestamps
	}
	return 0, SourceNone
}

func durationFromDetail(d provider.CallDetail) (int, DurationSource) {
	if d.ConversationSeconds > 0 {
		return d.ConversationSeconds, SourceDetailConversation
	}
	if d.DurationSeconds > 0 {
		return d.DurationSeconds, SourceDetailDuration
	}
	if secs := secondsBetween(d.StartedAt, d.EndedAt); secs > 0 {
		return secs, SourceDetailTimestamps
	}
	// Gross duration includes ring time; least accurate, used last.
	if d.GrossSeconds > 0 {
		return d.GrossSeconds, SourceDetailGross
	}
	return 0, SourceNone
}

func secondsBetween(start, end *time.Time) int {
	if start == nil || end == nil {
		return 0
	}
	secs := int(end.Sub(*start) / time.Second)
	if secs < 0 {
		return 0
	}
	return secs
}
