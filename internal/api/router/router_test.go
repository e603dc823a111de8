package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/portfolio-callbooking/internal/demo"
	"github.com/wolfman30/portfolio-callbooking/internal/observability/metrics"
	"github.com/wolfman30/portfolio-callbooking/pkg/logging"
)

func newTestRouter(t *testing.T, demoMode bool) http.Handler {
	t.Helper()

	logger := logging.Discard()
	reg := prometheus.NewRegistry()
	m := metrics.NewBookingMetrics(reg)

	return New(&Config{
		Logger:             logger,
		Appointments:       demo.NewAppointmentsHandler(demoMode, logger, m),
		MetricsHandler:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: []string{"https://portfolio.example"},
	})
}

func TestRouterHealthEndpoint(t *testing.T) {
	router := newTestRouter(t, false)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", resp["status"])
	}
}

func TestRouterAppointmentsDemoMode(t *testing.T) {
	router := newTestRouter(t, true)

	req := httptest.NewRequest(http.MethodPost, "/api/appointments", strings.NewReader(`{"contact":{},"appointment":{}}`))
	req.Header.Set("Origin", "https://portfolio.example")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://portfolio.example" {
		t.Fatalf("expected CORS header, got %q", got)
	}
	var resp map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["demo"] != true {
		t.Fatalf("expected demo=true, got %v", resp["demo"])
	}
}

func TestRouterAppointmentsWithoutDemoMode(t *testing.T) {
	router := newTestRouter(t, false)

	req := httptest.NewRequest(http.MethodPost, "/api/appointments", strings.NewReader(`{}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, rr.Code)
	}
}

func TestRouterMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t, true)

	post := httptest.NewRequest(http.MethodPost, "/api/appointments", strings.NewReader(`{}`))
	router.ServeHTTP(httptest.NewRecorder(), post)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `callbooking_demo_appointments_total{status="ok"} 1`) {
		t.Fatalf("expected demo counter in metrics output:\n%s", rr.Body.String())
	}
}
