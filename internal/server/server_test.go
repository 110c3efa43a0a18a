package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthz(t *testing.T) {
	srv := New(":0", nil)

	rec := httptest.NewRecorder()
	srv.http.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("healthz status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got := rec.Body.String(); got != "ok" {
		t.Fatalf("healthz body = %q, want %q", got, "ok")
	}
}

func TestMetricsExposed(t *testing.T) {
	srv := New(":0", nil)

	rec := httptest.NewRecorder()
	srv.http.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d, want %d", rec.Code, http.StatusOK)
	}
	if rec.Body.Len() == 0 {
		t.Fatal("metrics body is empty")
	}
}

func TestWebhookRouteOnlyMountedWithHandler(t *testing.T) {
	without := New(":0", nil)
	rec := httptest.NewRecorder()
	without.http.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/telegram/webhook", nil))
	if rec.Code == http.StatusOK {
		t.Fatalf("webhook route answered %d without a handler mounted", rec.Code)
	}

	called := false
	with := New(":0", func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})
	rec = httptest.NewRecorder()
	with.http.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/telegram/webhook", nil))
	if !called {
		t.Fatal("webhook handler was not invoked")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("webhook status = %d, want %d", rec.Code, http.StatusOK)
	}
}
