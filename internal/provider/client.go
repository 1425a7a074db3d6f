package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"dialtrack/internal/config"
)

// ErrProviderAPI marks upstream failures (HTTP errors, timeouts, bad bodies)
// during a call-detail lookup. Callers treat it as "duration unresolved",
// never as a caller-visible failure.
var ErrProviderAPI = errors.New("provider: api failure")

// DetailFetcher is the surface the reconciliation core consumes.
// Exactly one lookup per duration-resolution attempt.
type DetailFetcher interface {
	FetchCallDetail(ctx context.Context, creds Credentials, callID string) (CallDetail, error)
}

// Client talks to the provider's call-detail REST API.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(cfg config.ProviderConfig) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: cfg.APIBaseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) FetchCallDetail(ctx context.Context, creds Credentials, callID string) (CallDetail, error) {
	if callID == "" {
		return CallDetail{}, fmt.Errorf("%w: call id required", ErrProviderAPI)
	}
	if !creds.Complete() {
		return CallDetail{}, fmt.Errorf("%w: incomplete credentials", ErrProviderAPI)
	}

	u := fmt.Sprintf("%s/v1/accounts/%s/calls/%s",
		c.baseURL, url.PathEscape(creds.AccountID), url.PathEscape(callID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return CallDetail{}, fmt.Errorf("%w: %v", ErrProviderAPI, err)
	}
	req.SetBasicAuth(creds.APIKey, creds.APIToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		// Timeouts land here; the retry path owns recovery.
		return CallDetail{}, fmt.Errorf("%w: %v", ErrProviderAPI, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return CallDetail{}, fmt.Errorf("%w: status %d: %s", ErrProviderAPI, resp.StatusCode, body)
	}

	var detail CallDetail
	if err := json.NewDecoder(resp.Body).Decode(&detail); err != nil {
		return CallDetail{}, fmt.Errorf("%w: decode: %v", ErrProviderAPI, err)
	}
	if detail.CallID == "" {
		detail.CallID = callID
	}
	return detail, nil
}
