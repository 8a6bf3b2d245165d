package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveOp_CountsByOutcome(t *testing.T) {
	m := New()
	m.ObserveOp("create", nil)
	m.ObserveOp("create", nil)
	m.ObserveOp("create", errors.New("x"))

	if got := testutil.ToFloat64(m.LoanOps.WithLabelValues("create", "ok")); got != 2 {
		t.Fatalf("ok count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.LoanOps.WithLabelValues("create", "error")); got != 1 {
		t.Fatalf("error count = %v, want 1", got)
	}
}

func TestObservePatch(t *testing.T) {
	m := New()
	m.ObservePatch("mark_overdue", true)
	m.ObservePatch("mark_overdue", false)
	if got := testutil.ToFloat64(m.SweepPatches.WithLabelValues("mark_overdue", "true")); got != 1 {
		t.Fatalf("applied = %v", got)
	}
}

func TestNilMetrics_NoPanic(t *testing.T) {
	var m *Metrics
	m.ObserveOp("x", nil)
	m.ObservePatch("x", true)
	m.ObserveSweep("x", time.Now())
	m.ObserveNotification("x")
	m.ObserveRequest("GET", "/x", 200)
}

func TestHandler_ExposesCollectors(t *testing.T) {
	m := New()
	m.ObserveNotification("loan_disbursed")
	m.ObserveRequest(http.MethodGet, "/health", http.StatusOK)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"makono_notifications_created_total", "makono_http_requests_total", "go_goroutines"} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics output missing %q", want)
		}
	}
}
