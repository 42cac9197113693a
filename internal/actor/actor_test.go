// internal/actor/actor_test.go
//
// Unit-tests for actor context plumbing and the Enrich middleware.
//
// Run: go test ./internal/actor -v

package actor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFromContextSentinels(t *testing.T) {
	a := FromContext(context.Background())
	if a.UserID != Console || a.IP != Console {
		t.Fatalf("bare context must yield console sentinels, got %+v", a)
	}
}

func TestEnrich(t *testing.T) {
	var got Actor
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/provider/7", nil)
	req.RemoteAddr = "203.0.113.9:61234"
	req.Header.Set("X-Waypost-User", "1041")
	req.Header.Set("User-Agent",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 Chrome/124.0 Safari/537.36")

	rr := httptest.NewRecorder()
	Enrich(next).ServeHTTP(rr, req)

	if got.UserID != "1041" {
		t.Errorf("user = %q, want 1041", got.UserID)
	}
	if got.IP != "203.0.113.9" {
		t.Errorf("ip = %q, want 203.0.113.9", got.IP)
	}
	if got.Device != "Desktop" {
		t.Errorf("device = %q, want Desktop", got.Device)
	}
}

func TestEnrichForwardedFor(t *testing.T) {
	var got Actor
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodPost, "/provider/7", nil)
	req.Header.Set("X-Forwarded-For", "198.51.100.4, 10.0.0.1")

	Enrich(next).ServeHTTP(httptest.NewRecorder(), req)

	if got.IP != "198.51.100.4" {
		t.Errorf("ip = %q, want left-most forwarded address", got.IP)
	}
	if got.UserID != Console {
		t.Errorf("anonymous request must keep the console user, got %q", got.UserID)
	}
}
