package booking

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/portfolio-callbooking/internal/scheduling"
	"github.com/wolfman30/portfolio-callbooking/pkg/logging"
)

const (
	defaultBaseURL = "http://localhost:8000"
	defaultTimeout = 15 * time.Second

	bookedIntervalsPath = "/api/timeslots/by-day"
	appointmentsPath    = "/api/appointments"
)

var clientTracer = otel.Tracer("callbooking/booking-client")

// errEmptyBody is returned when a 2xx response carries no JSON to parse.
var errEmptyBody = errors.New("empty response body")

// Client wraps the booking backend's REST endpoints.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *logging.Logger
}

// NewClient constructs a booking backend client.
func NewClient(baseURL string, timeout time.Duration, logger *logging.Logger) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger,
	}
}

// BookedIntervals returns the bookings the backend holds for date. The date
// is the visitor's local calendar day.
func (c *Client) BookedIntervals(ctx context.Context, date scheduling.CalendarDate) ([]scheduling.BookedInterval, error) {
	ctx, span := clientTracer.Start(ctx, "booking.booked_intervals",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("booking.date", date.String())),
	)
	defer span.End()

	q := url.Values{}
	q.Set("date", date.String())
	path := bookedIntervalsPath + "?" + q.Encode()

	var intervals []scheduling.BookedInterval
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &intervals); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch booked intervals")
		return nil, fmt.Errorf("get booked intervals: %w", err)
	}
	span.SetAttributes(attribute.Int("booking.interval_count", len(intervals)))

	for _, bad := range scheduling.ContractViolations(intervals) {
		c.logger.Warn("booked interval outside reference slots",
			"date", date.String(),
			"interval_id", bad.ID,
			"datetime", bad.Datetime,
		)
	}
	return intervals, nil
}

// CreateAppointment posts a booking. Any 2xx response with a parseable JSON
// body counts as success.
func (c *Client) CreateAppointment(ctx context.Context, req CreateRequest) (*Confirmation, error) {
	ctx, span := clientTracer.Start(ctx, "booking.create_appointment",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("booking.start_time", req.Appointment.StartTime.UTC().Format(time.RFC3339))),
	)
	defer span.End()

	var raw json.RawMessage
	if err := c.doJSON(ctx, http.MethodPost, appointmentsPath, req.wire(), &raw); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create appointment")
		return nil, fmt.Errorf("create appointment: %w", err)
	}
	if len(raw) == 0 {
		span.SetStatus(codes.Error, "empty body")
		return nil, fmt.Errorf("create appointment: %w", errEmptyBody)
	}

	var conf Confirmation
	// Unknown shapes (arrays, other keys) still count as success.
	_ = json.Unmarshal(raw, &conf)
	return &conf, nil
}

// wire normalizes instants to UTC so they serialize like ISO strings with a Z suffix.
func (r CreateRequest) wire() CreateRequest {
	r.Appointment.StartTime = r.Appointment.StartTime.UTC()
	r.Appointment.EndTime = r.Appointment.EndTime.UTC()
	return r
}

func (c *Client) doJSON(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	endpoint := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := string(respBody)
		if len(msg) > 300 {
			msg = msg[:300]
		}
		c.logger.Warn("booking API non-2xx response", "status", resp.StatusCode, "path", path, "body", msg)
		return fmt.Errorf("booking API returned %d: %s", resp.StatusCode, msg)
	}

	if len(bytes.TrimSpace(respBody)) == 0 || out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
