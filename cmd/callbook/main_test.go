package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/portfolio-callbooking/internal/booking"
	"github.com/wolfman30/portfolio-callbooking/internal/bookingform"
	"github.com/wolfman30/portfolio-callbooking/internal/observability/metrics"
	"github.com/wolfman30/portfolio-callbooking/internal/scheduling"
	"github.com/wolfman30/portfolio-callbooking/pkg/logging"
)

type fakeBackend struct {
	mu       sync.Mutex
	posted   []map[string]any
	dayQuery []string
}

func (b *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/timeslots/by-day", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.dayQuery = append(b.dayQuery, r.URL.Query().Get("date"))
		b.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[{"id":1,"datetime":"2026-02-01T11:00:00Z"}]`)
	})
	mux.HandleFunc("/api/appointments", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		b.mu.Lock()
		b.posted = append(b.posted, body)
		b.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"appointment_id":"a-1"}`)
	})
	return mux
}

func newTestApp(t *testing.T, backend *fakeBackend) *app {
	t.Helper()
	return newTestAppWithMetrics(t, backend, nil)
}

func newTestAppWithMetrics(t *testing.T, backend *fakeBackend, m *metrics.BookingMetrics) *app {
	t.Helper()
	srv := httptest.NewServer(backend.handler())
	t.Cleanup(srv.Close)

	logger := logging.Discard()
	client := booking.NewClient(srv.URL, 5*time.Second, logger)
	zones := scheduling.NewZones(scheduling.DefaultReferenceOffsetMinutes, time.FixedZone("PST", -8*3600), "America/Los_Angeles").
		WithClock(func() time.Time { return time.Date(2026, 1, 25, 18, 0, 0, 0, time.UTC) })
	return newApp(client, client, zones, 14, logger, m)
}

func counterValue(t *testing.T, reg *prometheus.Registry, name, status string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "status" && lp.GetValue() == status {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestRun_ListsWindowWithoutDate(t *testing.T) {
	a := newTestApp(t, &fakeBackend{})
	var out bytes.Buffer
	require.NoError(t, a.run(context.Background(), options{}, &out))

	assert.Contains(t, out.String(), "January 2026")
	assert.Contains(t, out.String(), "February 2026")
	assert.Contains(t, out.String(), "Sun 25 (2026-01-25)")
}

func TestRun_BooksAndBooksAnother(t *testing.T) {
	backend := &fakeBackend{}
	a := newTestApp(t, backend)
	var out bytes.Buffer

	err := a.run(context.Background(), options{
		date:      "2026-02-01",
		time:      "10:00",
		another:   "10:30",
		firstName: "Ada",
		email:     "ada@example.com",
	}, &out)
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "[x] 11:00")
	assert.Contains(t, text, "[Book Meeting for Sun, Feb 1 at 10:00]")
	assert.Contains(t, text, "[Book Meeting for Sun, Feb 1 at 10:30]")
	assert.Equal(t, 2, strings.Count(text, bookingform.MsgSuccess))

	backend.mu.Lock()
	defer backend.mu.Unlock()
	assert.Equal(t, []string{"2026-02-01"}, backend.dayQuery)
	require.Len(t, backend.posted, 2)
	appt := backend.posted[0]["appointment"].(map[string]any)
	assert.Equal(t, "2026-02-01T18:00:00Z", appt["start_time"])
	assert.Equal(t, "2026-02-01T18:30:00Z", appt["end_time"])
	contact := backend.posted[1]["contact"].(map[string]any)
	assert.Equal(t, "Ada", contact["firstName"])
	assert.Equal(t, "America/Los_Angeles", contact["timezone"])
}

func TestRun_RecordsMetricsAndPushesThem(t *testing.T) {
	reg := prometheus.NewRegistry()
	a := newTestAppWithMetrics(t, &fakeBackend{}, metrics.NewBookingMetrics(reg))
	var out bytes.Buffer

	err := a.run(context.Background(), options{
		date:      "2026-02-01",
		time:      "10:00",
		firstName: "Ada",
		phone:     "5550001111",
	}, &out)
	require.NoError(t, err)

	assert.Equal(t, 1.0, counterValue(t, reg, "callbooking_availability_fetch_total", "ok"))
	assert.Equal(t, 1.0, counterValue(t, reg, "callbooking_form_submissions_total", "success"))

	var (
		mu     sync.Mutex
		method string
		path   string
		body   []byte
	)
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		mu.Lock()
		method, path, body = r.Method, r.URL.Path, raw
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer gateway.Close()

	require.NoError(t, pushMetrics(context.Background(), gateway.URL, reg))
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/metrics/job/callbook", path)
	assert.Contains(t, string(body), "callbooking_form_submissions_total")
}

func TestPushMetrics_DisabledWithoutURL(t *testing.T) {
	assert.NoError(t, pushMetrics(context.Background(), "", prometheus.NewRegistry()))
}

func TestRun_ValidationStopsBeforeNetwork(t *testing.T) {
	backend := &fakeBackend{}
	a := newTestApp(t, backend)
	var out bytes.Buffer

	err := a.run(context.Background(), options{date: "2026-02-01", time: "10:00", email: "ada@example.com"}, &out)
	require.Error(t, err)
	assert.Contains(t, out.String(), "invalid firstName")

	backend.mu.Lock()
	defer backend.mu.Unlock()
	assert.Empty(t, backend.posted)
}

func TestParseFlags(t *testing.T) {
	o, err := parseFlags([]string{"-date", "2026-02-01", "-time", "10:00", "-first", "Ada"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "2026-02-01", o.date)
	assert.Equal(t, "10:00", o.time)
	assert.Equal(t, "Ada", o.firstName)

	_, err = parseFlags([]string{"-nope"}, io.Discard)
	assert.Error(t, err)
}
