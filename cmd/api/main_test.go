package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	appconfig "github.com/wolfman30/portfolio-callbooking/internal/config"
	"github.com/wolfman30/portfolio-callbooking/pkg/logging"
)

func TestSetupMetricsExposesBookingMetrics(t *testing.T) {
	handler, m := setupMetrics()
	if handler == nil || m == nil {
		t.Fatalf("expected non-nil handler and metrics")
	}

	m.ObserveSubmission("success")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "callbooking_form_submissions_total") {
		t.Fatalf("expected submission counter to be exported")
	}
	if !strings.Contains(body, "go_goroutines") {
		t.Fatalf("expected runtime collector to be exported")
	}
}

func TestNewHandlerHonoursDemoMode(t *testing.T) {
	logger := logging.New("error")
	for _, tc := range []struct {
		demo bool
		want int
	}{
		{demo: true, want: http.StatusOK},
		{demo: false, want: http.StatusNotFound},
	} {
		metricsHandler, m := setupMetrics()
		h := newHandler(&appconfig.Config{DemoMode: tc.demo}, logger, metricsHandler, m)

		req := httptest.NewRequest(http.MethodPost, "/api/appointments", strings.NewReader(`{}`))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != tc.want {
			t.Fatalf("demo=%v: expected %d, got %d", tc.demo, tc.want, rr.Code)
		}
	}
}
