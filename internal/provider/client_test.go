package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dialtrack/internal/config"
)

func testCreds() Credentials {
	return Credentials{AccountID: "acct-1", APIKey: "key", APIToken: "token"}
}

func TestClient_FetchCallDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/accounts/acct-1/calls/call-9" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "key" || pass != "token" {
			t.Errorf("basic auth not forwarded")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"call_id":"call-9","status":"completed","conversation_duration":125,"call_duration":140}`))
	}))
	defer srv.Close()

	c := NewClient(config.ProviderConfig{APIBaseURL: srv.URL, RequestTimeout: 2 * time.Second})
	detail, err := c.FetchCallDetail(context.Background(), testCreds(), "call-9")
	if err != nil {
		t.Fatalf("FetchCallDetail: %v", err)
	}
	if detail.ConversationSeconds != 125 {
		t.Fatalf("conversation = %d", detail.ConversationSeconds)
	}
	if detail.GrossSeconds != 140 {
		t.Fatalf("gross = %d", detail.GrossSeconds)
	}
}

func TestClient_FetchCallDetail_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(config.ProviderConfig{APIBaseURL: srv.URL})
	_, err := c.FetchCallDetail(context.Background(), testCreds(), "call-9")
	if !errors.Is(err, ErrProviderAPI) {
		t.Fatalf("expected ErrProviderAPI, got %v", err)
	}
}

func TestClient_FetchCallDetail_RejectsIncompleteCreds(t *testing.T) {
	c := NewClient(config.ProviderConfig{APIBaseURL: "http://localhost:0"})
	_, err := c.FetchCallDetail(context.Background(), Credentials{}, "call-9")
	if !errors.Is(err, ErrProviderAPI) {
		t.Fatalf("expected ErrProviderAPI, got %v", err)
	}
}
