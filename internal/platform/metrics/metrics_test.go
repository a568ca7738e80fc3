package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	r := New()

	r.Admissions.Inc()
	r.Admissions.Inc()
	r.Discharges.WithLabelValues("lama").Inc()
	r.Conflicts.WithLabelValues("admit").Inc()

	if got := testutil.ToFloat64(r.Admissions); got != 2 {
		t.Errorf("expected 2 admissions, got %v", got)
	}
	if got := testutil.ToFloat64(r.Discharges.WithLabelValues("lama")); got != 1 {
		t.Errorf("expected 1 lama discharge, got %v", got)
	}
	if got := testutil.ToFloat64(r.Conflicts.WithLabelValues("admit")); got != 1 {
		t.Errorf("expected 1 admit conflict, got %v", got)
	}
}

func TestExposition(t *testing.T) {
	r := New()
	r.BedTransfers.Inc()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := r.Handler()(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ipd_bed_transfers_total 1") {
		t.Errorf("expected exposition to report bed transfers, got:\n%s", rec.Body.String())
	}
}

func TestMiddlewareObservesLatency(t *testing.T) {
	r := New()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/ipd/beds", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/api/v1/ipd/beds")

	handler := r.Middleware()(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	count := testutil.CollectAndCount(r.RequestDuration)
	if count == 0 {
		t.Error("expected request duration to be observed")
	}
}
