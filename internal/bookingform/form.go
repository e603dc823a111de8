// Package bookingform holds the contact form, validates it and submits the
// booking for a selected date and local time.
package bookingform

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"

	"github.com/wolfman30/portfolio-callbooking/internal/booking"
	"github.com/wolfman30/portfolio-callbooking/internal/observability/metrics"
	"github.com/wolfman30/portfolio-callbooking/internal/scheduling"
	"github.com/wolfman30/portfolio-callbooking/pkg/logging"
)

const (
	FieldFirstName = "firstName"
	FieldEmail     = "email"
	FieldPhone     = "phone"
	FieldContact   = "contact"
	FieldSchedule  = "schedule"
)

const (
	MsgSuccess        = "Meeting booked successfully! A confirmation email will be sent shortly."
	MsgFailure        = "Failed to book the meeting. Please try again."
	MsgInvalidEmail   = "Please enter a valid email address."
	MsgInvalidPhone   = "Please enter a valid phone number (at least 10 digits)."
	MsgFirstName      = "First name is required."
	MsgContactMissing = "Please provide an email address or phone number."
	MsgSchedule       = "Please select a date and time."
)

// ErrSubmissionFailed is returned for any transport failure or non-2xx reply.
// The backend's reason is logged, never shown.
var ErrSubmissionFailed = errors.New("bookingform: submission failed")

// ValidationError flags the field that blocked submission.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// emailChar excludes every character a browser treats as whitespace, which
// is wider than RE2's \s.
const emailChar = `[^\s\v\p{Z}\x{FEFF}@]`

var emailPattern = regexp.MustCompile(`^` + emailChar + `+@` + emailChar + `+\.` + emailChar + `+$`)

// IsValidEmail accepts anything shaped like local@domain.tld.
func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// IsValidPhone requires at least ten digits once everything else is stripped.
func IsValidPhone(phone string) bool {
	digits := 0
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits >= 10
}

// Fields are the visitor-entered values.
type Fields struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Topic     string
}

// Validate applies the form rules in the order the visitor sees them.
func (f Fields) Validate() error {
	if f.FirstName == "" {
		return &ValidationError{Field: FieldFirstName, Message: MsgFirstName}
	}
	if f.Email == "" && f.Phone == "" {
		return &ValidationError{Field: FieldContact, Message: MsgContactMissing}
	}
	if f.Email != "" && !IsValidEmail(f.Email) {
		return &ValidationError{Field: FieldEmail, Message: MsgInvalidEmail}
	}
	if f.Phone != "" && !IsValidPhone(f.Phone) {
		return &ValidationError{Field: FieldPhone, Message: MsgInvalidPhone}
	}
	return nil
}

// Ready reports whether the submit action should be enabled.
func (f Fields) Ready() bool {
	return f.FirstName != "" && (f.Email != "" || f.Phone != "")
}

// Status is the message shown under the form.
type Status struct {
	Success      bool
	Message      string
	InvalidField string
}

type Options struct {
	Logger  *logging.Logger
	Metrics *metrics.BookingMetrics
}

// Form owns the contact fields. Fields survive successful submissions and are
// only changed through the setters.
type Form struct {
	submitter booking.Submitter
	zones     *scheduling.Zones
	logger    *logging.Logger
	metrics   *metrics.BookingMetrics

	mu     sync.Mutex
	fields Fields
	status Status
}

func New(submitter booking.Submitter, zones *scheduling.Zones, opts Options) *Form {
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}
	return &Form{
		submitter: submitter,
		zones:     zones,
		logger:    opts.Logger.Component("bookingform"),
		metrics:   opts.Metrics,
	}
}

func (f *Form) SetFirstName(v string) { f.update(func(x *Fields) { x.FirstName = v }, false) }
func (f *Form) SetLastName(v string)  { f.update(func(x *Fields) { x.LastName = v }, false) }
func (f *Form) SetTopic(v string)     { f.update(func(x *Fields) { x.Topic = v }, false) }

// SetEmail and SetPhone clear any flagged field.
func (f *Form) SetEmail(v string) { f.update(func(x *Fields) { x.Email = v }, true) }
func (f *Form) SetPhone(v string) { f.update(func(x *Fields) { x.Phone = v }, true) }

func (f *Form) update(apply func(*Fields), clearFlag bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	apply(&f.fields)
	if clearFlag {
		f.status.InvalidField = ""
	}
}

func (f *Form) Fields() Fields {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fields
}

func (f *Form) Status() Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

// ClearStatus drops the current message, as when the confirmation is dismissed.
func (f *Form) ClearStatus() {
	f.mu.Lock()
	f.status = Status{}
	f.mu.Unlock()
}

// BuildRequest turns the fields and selection into the backend payload. The
// start instant is the local wall-clock time on date in the visitor's zone.
func BuildRequest(fields Fields, date scheduling.CalendarDate, local scheduling.TimeOfDay, zones *scheduling.Zones) booking.CreateRequest {
	start := date.At(local, zones.Local)
	return booking.CreateRequest{
		Contact: booking.ContactInfo{
			FirstName: fields.FirstName,
			LastName:  fields.LastName,
			Email:     fields.Email,
			Phone:     fields.Phone,
			Timezone:  zones.LocalName,
		},
		Appointment: booking.AppointmentRequest{
			Topic:     fields.Topic,
			StartTime: start,
			EndTime:   start.Add(scheduling.SlotLength),
		},
	}
}

// Submit validates and posts the booking. Validation failures return a
// *ValidationError without touching the network. Transport and HTTP failures
// return ErrSubmissionFailed. Fields are never cleared.
func (f *Form) Submit(ctx context.Context, date *scheduling.CalendarDate, local *scheduling.TimeOfDay) (*booking.Confirmation, error) {
	f.mu.Lock()
	fields := f.fields
	if date == nil || local == nil {
		verr := &ValidationError{Field: FieldSchedule, Message: MsgSchedule}
		f.status = Status{Message: verr.Message, InvalidField: verr.Field}
		f.mu.Unlock()
		f.metrics.ObserveSubmission("invalid")
		return nil, verr
	}
	if err := fields.Validate(); err != nil {
		var verr *ValidationError
		errors.As(err, &verr)
		f.status = Status{Message: verr.Message, InvalidField: verr.Field}
		f.mu.Unlock()
		f.metrics.ObserveSubmission("invalid")
		return nil, err
	}
	f.status = Status{}
	f.mu.Unlock()

	req := BuildRequest(fields, *date, *local, f.zones)
	conf, err := f.submitter.CreateAppointment(ctx, req)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.logger.Error("booking submission failed",
			"date", date.String(),
			"time", local.String(),
			"error", err,
		)
		f.status = Status{Message: MsgFailure}
		f.metrics.ObserveSubmission("failure")
		return nil, fmt.Errorf("%w: %v", ErrSubmissionFailed, err)
	}
	if conf == nil {
		conf = &booking.Confirmation{}
	}
	f.logger.Info("booking submitted",
		"date", date.String(),
		"time", local.String(),
		"appointment_id", conf.AppointmentID,
		"demo", conf.Demo,
	)
	f.status = Status{Success: true, Message: MsgSuccess}
	f.metrics.ObserveSubmission("success")
	return conf, nil
}

// SubmitLabel is the text on the submit action.
func SubmitLabel(date *scheduling.CalendarDate, local *scheduling.TimeOfDay, submitting bool) string {
	switch {
	case submitting:
		return "Booking..."
	case date != nil && local != nil:
		return fmt.Sprintf("Book Meeting for %s at %s", scheduling.FormatForDisplay(*date), local.String())
	default:
		return "Select Date & Time to Book"
	}
}
