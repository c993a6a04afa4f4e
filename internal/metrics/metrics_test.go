package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/toribox/toriadmin/internal/episodes"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	return string(body)
}

func TestObserveReconcile(t *testing.T) {
	m := New()
	m.ObserveReconcile(episodes.Report{
		MovieID:  "m1",
		Source:   episodes.SourcePublic,
		AdminErr: errors.New("401"),
		Episodes: 3,
		Streamed: 2,
	})

	body := scrape(t, m)
	for _, want := range []string{
		`toriadmin_episode_reconciles_total{source="public"} 1`,
		`toriadmin_episode_listing_errors_total{listing="admin"} 1`,
		`toriadmin_reconciled_episodes_total{stream="found"} 2`,
		`toriadmin_reconciled_episodes_total{stream="missing"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("Expected %q in scrape output", want)
		}
	}
}

func TestRequestMiddleware(t *testing.T) {
	m := New()
	handler := RequestMiddleware(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	for _, path := range []string{"/ok", "/missing", "/ok"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	body := scrape(t, m)
	if !strings.Contains(body, "toriadmin_requests_total 3") {
		t.Error("Expected 3 requests")
	}
	if !strings.Contains(body, "toriadmin_errors_total 1") {
		t.Error("Expected 1 error")
	}
}
