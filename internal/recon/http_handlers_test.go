package recon

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"dialtrack/internal/contacts"

	"github.com/gin-gonic/gin"
)

func newWebhookRouter(t *testing.T, store *MemoryStore) (*gin.Engine, *Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := newTestService(store, &stubFetcher{}, time.Minute)
	t.Cleanup(svc.Stop)

	r := gin.New()
	h := Handlers{Service: svc}
	r.POST("/webhook", h.Webhook)
	r.POST("/internal/stale-checks", h.ArmStaleCheck)
	return r, svc
}

func TestWebhook_ReconcilesAndReturnsSnapshot(t *testing.T) {
	store := NewMemoryStore()
	seedContact(store, "ct-1", "call-1")
	r, _ := newWebhookRouter(t, store)

	body := `{"callId":"call-1","status":"completed","conversationDuration":90}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"status":"completed"`) {
		t.Fatalf("snapshot missing outcome: %s", w.Body.String())
	}

	c, _ := store.ContactByID(req.Context(), "ct-1")
	if c.Status != contacts.StatusCompleted {
		t.Fatalf("contact status = %q", c.Status)
	}
}

func TestWebhook_MalformedPayloadIs400(t *testing.T) {
	r, _ := newWebhookRouter(t, NewMemoryStore())

	for _, body := range []string{`not-json`, `{"status":"completed"}`, `{"callId":"c"}`} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("body %q: status = %d, want 400", body, w.Code)
		}
	}
}

func TestWebhook_UnknownCallIs404(t *testing.T) {
	r, _ := newWebhookRouter(t, NewMemoryStore())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{"callId":"ghost","status":"completed"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestArmStaleCheckEndpoint(t *testing.T) {
	store := NewMemoryStore()
	seedContact(store, "ct-1", "call-1")
	r, svc := newWebhookRouter(t, store)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/internal/stale-checks",
		strings.NewReader(`{"contactId":"ct-1","providerCallId":"call-1"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", w.Code)
	}
	if !svc.monitor.Armed("call-1") {
		t.Fatalf("check not armed")
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/internal/stale-checks", strings.NewReader(`{"contactId":"ct-1"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing call id: status = %d, want 400", w.Code)
	}
}
