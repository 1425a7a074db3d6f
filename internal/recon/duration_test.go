package recon

import (
	"context"
	"errors"
	"testing"
	"time"

	"dialtrack/internal/provider"
)

type stubFetcher struct {
	detail provider.CallDetail
	err    error
	calls  int
}

func (s *stubFetcher) FetchCallDetail(ctx context.Context, creds provider.Credentials, callID string) (provider.CallDetail, error) {
	s.calls++
	return s.detail, s.err
}

func staticCreds() provider.CredentialResolver {
	return provider.StaticCredentialResolver{Creds: provider.Credentials{AccountID: "a", APIKey: "k", APIToken: "t"}}
}

func TestResolve_ConversationDurationWins(t *testing.T) {
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(300 * time.Second)

	f := &stubFetcher{}
	r := NewDurationResolver(f, staticCreds())

	// All three callback sources present and disagreeing.
	secs, src, err := r.Resolve(context.Background(), CallbackPayload{
		CallID:               "c",
		ConversationDuration: intp(125),
		Duration:             intp(140),
		StartTime:            &start,
		EndTime:              &end,
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if secs != 125 || src != SourceCallbackConversation {
		t.Fatalf("got %d from %q", secs, src)
	}
	if f.calls != 0 {
		t.Fatalf("provider API should not be consulted")
	}
}

func TestResolve_FallsThroughCallbackChain(t *testing.T) {
	r := NewDurationResolver(&stubFetcher{}, staticCreds())

	secs, src, err := r.Resolve(context.Background(), CallbackPayload{CallID: "c", Duration: intp(90)})
	if err != nil || secs != 90 || src != SourceCallbackDuration {
		t.Fatalf("got %d %q %v", secs, src, err)
	}

	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(42 * time.Second)
	secs, src, err = r.Resolve(context.Background(), CallbackPayload{CallID: "c", StartTime: &start, EndTime: &end})
	if err != nil || secs != 42 || src != SourceCallbackTimestamps {
		t.Fatalf("got %d %q %v", secs, src, err)
	}
}

func TestResolve_QueriesProviderAPI(t *testing.T) {
	f := &stubFetcher{detail: provider.CallDetail{ConversationSeconds: 63}}
	r := NewDurationResolver(f, staticCreds())

	secs, src, err := r.Resolve(context.Background(), CallbackPayload{CallID: "c"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if secs != 63 || src != SourceDetailConversation {
		t.Fatalf("got %d from %q", secs, src)
	}
	if f.calls != 1 {
		t.Fatalf("expected one lookup, got %d", f.calls)
	}
}

func TestResolve_GrossDurationIsLastResort(t *testing.T) {
	f := &stubFetcher{detail: provider.CallDetail{GrossSeconds: 140}}
	r := NewDurationResolver(f, staticCreds())

	secs, src, err := r.Resolve(context.Background(), CallbackPayload{CallID: "c"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if secs != 140 || src != SourceDetailGross {
		t.Fatalf("got %d from %q", secs, src)
	}
}

func TestResolve_AllZeroLeavesUnset(t *testing.T) {
	f := &stubFetcher{detail: provider.CallDetail{}}
	r := NewDurationResolver(f, staticCreds())

	secs, src, err := r.Resolve(context.Background(), CallbackPayload{CallID: "c"})
	if !errors.Is(err, ErrDurationUnavailable) {
		t.Fatalf("expected ErrDurationUnavailable, got %v", err)
	}
	if secs != 0 || src != SourceNone {
		t.Fatalf("got %d %q", secs, src)
	}
}

func TestResolve_ProviderFailureIsSoft(t *testing.T) {
	f := &stubFetcher{err: provider.ErrProviderAPI}
	r := NewDurationResolver(f, staticCreds())

	_, _, err := r.Resolve(context.Background(), CallbackPayload{CallID: "c"})
	if !errors.Is(err, ErrDurationUnavailable) {
		t.Fatalf("provider failure must collapse into ErrDurationUnavailable, got %v", err)
	}
}

func TestSecondsBetween_NegativeClamped(t *testing.T) {
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(-time.Minute)
	if secs := secondsBetween(&start, &end); secs != 0 {
		t.Fatalf("got %d", secs)
	}
}
