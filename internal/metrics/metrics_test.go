package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	m := New()

	m.ClipIngested()
	m.ClipIngested()
	m.TrackCreated()
	m.ProbeFailed()
	m.SetActiveSectors(3)

	if got := testutil.ToFloat64(m.clipsIngestedTotal); got != 2 {
		t.Errorf("clips ingested = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.tracksCreatedTotal); got != 1 {
		t.Errorf("tracks created = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.probeFailuresTotal); got != 1 {
		t.Errorf("probe failures = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.sectorsActive); got != 3 {
		t.Errorf("sectors active = %v, want 3", got)
	}
}

func TestRequestMiddleware(t *testing.T) {
	m := New()
	handler := RequestMiddleware(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/nope", nil))

	if got := testutil.ToFloat64(m.requestsTotal); got != 1 {
		t.Errorf("requests = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.errorsTotal); got != 1 {
		t.Errorf("errors = %v, want 1", got)
	}
}

func TestHandler_ScrapeRefreshesGauges(t *testing.T) {
	m := New()
	handler := m.Handler(func() {
		m.SetActiveSectors(7)
	})

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	if !strings.Contains(rr.Body.String(), "cutline_sectors_active 7") {
		t.Errorf("scrape output missing refreshed gauge:\n%s", rr.Body.String())
	}
}
