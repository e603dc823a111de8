// Package booking talks to the booking backend: it reads the intervals
// already booked on a day and submits new appointments. A demo submitter
// stands in for the backend when demo mode is on.
package booking

import (
	"context"
	"time"

	"github.com/wolfman30/portfolio-callbooking/internal/scheduling"
	"github.com/wolfman30/portfolio-callbooking/pkg/logging"
)

// ContactInfo identifies the visitor booking the call.
type ContactInfo struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	// Timezone is the visitor's IANA zone identifier.
	Timezone string `json:"timezone"`
}

// AppointmentRequest is the requested meeting. EndTime is always
// StartTime plus scheduling.SlotLength.
type AppointmentRequest struct {
	Topic     string    `json:"topic"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// CreateRequest is the body of POST /api/appointments.
type CreateRequest struct {
	Contact     ContactInfo        `json:"contact"`
	Appointment AppointmentRequest `json:"appointment"`
}

// Confirmation is the best-effort view of a successful submission response.
// The backend's body is not schema-validated, so every field may be empty.
type Confirmation struct {
	AppointmentID string `json:"appointment_id,omitempty"`
	EventID       string `json:"event_id,omitempty"`
	KafkaEnabled  bool   `json:"kafka_enabled"`
	Published     bool   `json:"published"`
	Demo          bool   `json:"demo"`
}

// IntervalSource lists the intervals already booked on a calendar day.
type IntervalSource interface {
	BookedIntervals(ctx context.Context, date scheduling.CalendarDate) ([]scheduling.BookedInterval, error)
}

// Submitter posts a booking.
type Submitter interface {
	CreateAppointment(ctx context.Context, req CreateRequest) (*Confirmation, error)
}

// SelectSubmitter returns the demo stub when demoMode is set, otherwise the
// live client.
func SelectSubmitter(demoMode bool, client *Client, logger *logging.Logger) Submitter {
	if demoMode {
		return NewDemoSubmitter(logger)
	}
	return client
}
