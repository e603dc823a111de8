// Package demo serves a stand-in for the booking backend's appointment
// endpoint so the widget can run end to end without a real backend.
package demo

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/portfolio-callbooking/internal/booking"
	"github.com/wolfman30/portfolio-callbooking/internal/observability/metrics"
	"github.com/wolfman30/portfolio-callbooking/pkg/logging"
)

// AppointmentsHandler answers POST /api/appointments. With demo mode off it
// behaves as if the route does not exist.
type AppointmentsHandler struct {
	enabled bool
	logger  *logging.Logger
	metrics *metrics.BookingMetrics
	now     func() time.Time
}

func NewAppointmentsHandler(enabled bool, logger *logging.Logger, m *metrics.BookingMetrics) *AppointmentsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AppointmentsHandler{
		enabled: enabled,
		logger:  logger.Component("demo"),
		metrics: m,
		now:     time.Now,
	}
}

func (h *AppointmentsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.CreateAppointment)
	return r
}

// CreateAppointment accepts any JSON body and fabricates a confirmation.
// Nothing is stored or published.
func (h *AppointmentsHandler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	if !h.enabled {
		h.metrics.ObserveDemoAppointment("disabled")
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Not found"})
		return
	}

	if !validJSONBody(r.Body) {
		h.metrics.ObserveDemoAppointment("invalid")
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON payload."})
		return
	}

	conf := booking.NewDemoConfirmation(h.now())
	h.logger.Info("demo appointment created", "appointment_id", conf.AppointmentID, "event_id", conf.EventID)
	h.metrics.ObserveDemoAppointment("ok")
	writeJSON(w, http.StatusOK, conf)
}

// validJSONBody reports whether the body holds exactly one JSON value.
func validJSONBody(body io.Reader) bool {
	dec := json.NewDecoder(io.LimitReader(body, 1<<20))
	var payload json.RawMessage
	if err := dec.Decode(&payload); err != nil {
		return false
	}
	return dec.Decode(&payload) == io.EOF
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
