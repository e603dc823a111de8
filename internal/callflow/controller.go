// Package callflow drives one visit's booking flow: pick a date and time,
// choose assisted or manual entry, submit, and optionally book another slot
// on the same day without re-entering contact details.
package callflow

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/wolfman30/portfolio-callbooking/internal/booking"
	"github.com/wolfman30/portfolio-callbooking/internal/bookingform"
	"github.com/wolfman30/portfolio-callbooking/internal/identity"
	"github.com/wolfman30/portfolio-callbooking/internal/picker"
	"github.com/wolfman30/portfolio-callbooking/internal/scheduling"
	"github.com/wolfman30/portfolio-callbooking/pkg/logging"
)

var (
	ErrInvalidTransition = errors.New("callflow: invalid transition")
	ErrBusy              = errors.New("callflow: submission in progress")
)

type State int

const (
	NoSelection State = iota
	DateSelected
	DateTimeSelected
	AssistedEntry
	ManualEntry
	Submitting
	Confirmed
)

func (s State) String() string {
	switch s {
	case NoSelection:
		return "no_selection"
	case DateSelected:
		return "date_selected"
	case DateTimeSelected:
		return "date_time_selected"
	case AssistedEntry:
		return "assisted_entry"
	case ManualEntry:
		return "manual_entry"
	case Submitting:
		return "submitting"
	case Confirmed:
		return "confirmed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// EntryPath is how the visitor chose to fill in contact details.
type EntryPath int

const (
	EntryUnset EntryPath = iota
	EntryAssisted
	EntryManual
)

// Options tunes a Controller.
type Options struct {
	Logger *logging.Logger
	// OnBooked runs after a successful submission, before the flow reports
	// Confirmed.
	OnBooked func(date scheduling.CalendarDate, local scheduling.TimeOfDay)
}

// Controller owns the flow state. The selector and form are owned by the
// controller once handed to New.
type Controller struct {
	selector *picker.Selector
	form     *bookingform.Form
	logger   *logging.Logger
	onBooked func(scheduling.CalendarDate, scheduling.TimeOfDay)

	// transition orders selection changes against the start of a submission.
	// It is held across selector calls; mu never is.
	transition sync.Mutex

	mu             sync.Mutex
	entry          EntryPath
	submitting     bool
	confirmed      bool
	lastBookedDate *scheduling.CalendarDate
	lastBookedTime *scheduling.TimeOfDay
}

func New(selector *picker.Selector, form *bookingform.Form, opts Options) *Controller {
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}
	return &Controller{
		selector: selector,
		form:     form,
		logger:   opts.Logger.Component("callflow"),
		onBooked: opts.OnBooked,
	}
}

// State derives the current state from the selection and entry path.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Controller) stateLocked() State {
	switch {
	case c.submitting:
		return Submitting
	case c.confirmed:
		return Confirmed
	}
	if c.selector.SelectedDate() == nil {
		return NoSelection
	}
	if c.entry == EntryManual {
		return ManualEntry
	}
	if c.selector.SelectedTime() == nil {
		return DateSelected
	}
	if c.entry == EntryAssisted {
		return AssistedEntry
	}
	return DateTimeSelected
}

// guardLocked rejects selection changes while a submission is in flight or
// the confirmation is showing.
func (c *Controller) guardLocked() error {
	if c.submitting {
		return ErrBusy
	}
	if c.confirmed {
		return fmt.Errorf("%w: confirmation showing", ErrInvalidTransition)
	}
	return nil
}

// SelectDate selects or, with nil, clears the date. The time is discarded.
func (c *Controller) SelectDate(ctx context.Context, date *scheduling.CalendarDate) error {
	c.transition.Lock()
	defer c.transition.Unlock()

	c.mu.Lock()
	err := c.guardLocked()
	c.mu.Unlock()
	if err != nil {
		return err
	}

	// The selector notifies its listener synchronously, so it is driven
	// without holding c.mu.
	if !c.selector.SelectDate(ctx, date) {
		return nil
	}
	c.mu.Lock()
	if c.entry == EntryAssisted {
		c.entry = EntryUnset
	}
	c.mu.Unlock()
	return nil
}

// SelectTime selects an available slot by its local time.
func (c *Controller) SelectTime(local scheduling.TimeOfDay) error {
	c.transition.Lock()
	defer c.transition.Unlock()

	c.mu.Lock()
	err := c.guardLocked()
	c.mu.Unlock()
	if err != nil {
		return err
	}
	_, err = c.selector.SelectTime(local)
	return err
}

// ChooseManualEntry opens the contact form.
func (c *Controller) ChooseManualEntry() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch s := c.stateLocked(); s {
	case DateTimeSelected, AssistedEntry:
		c.entry = EntryManual
		return nil
	case ManualEntry:
		return nil
	default:
		return fmt.Errorf("%w: manual entry from %s", ErrInvalidTransition, s)
	}
}

// BeginAssistedEntry records that the visitor started the sign-in shortcut.
func (c *Controller) BeginAssistedEntry() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s := c.stateLocked(); s != DateTimeSelected {
		return fmt.Errorf("%w: assisted entry from %s", ErrInvalidTransition, s)
	}
	c.entry = EntryAssisted
	return nil
}

// CompleteAssertion prefills the form from the provider's token and opens it.
// A token that cannot be decoded is logged and the visitor is returned to the
// entry choice with the form untouched; it is not an error for the caller.
func (c *Controller) CompleteAssertion(token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s := c.stateLocked(); s != AssistedEntry {
		return fmt.Errorf("%w: assertion from %s", ErrInvalidTransition, s)
	}
	if identity.Prefill(token, c.form, c.logger) {
		c.entry = EntryManual
	} else {
		c.entry = EntryUnset
	}
	return nil
}

// CancelAssistedEntry handles a provider-side failure.
func (c *Controller) CancelAssistedEntry() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entry == EntryAssisted {
		c.logger.Info("identity assertion cancelled")
		c.entry = EntryUnset
	}
}

// Back closes the form and returns to the entry choice. Fields are kept.
func (c *Controller) Back() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.submitting {
		return ErrBusy
	}
	if c.entry != EntryManual || c.confirmed {
		return fmt.Errorf("%w: back from %s", ErrInvalidTransition, c.stateLocked())
	}
	c.entry = EntryUnset
	return nil
}

// Form field setters. They are accepted in any state except Submitting.

func (c *Controller) SetFirstName(v string) error { return c.edit(func() { c.form.SetFirstName(v) }) }
func (c *Controller) SetLastName(v string) error  { return c.edit(func() { c.form.SetLastName(v) }) }
func (c *Controller) SetEmail(v string) error     { return c.edit(func() { c.form.SetEmail(v) }) }
func (c *Controller) SetPhone(v string) error     { return c.edit(func() { c.form.SetPhone(v) }) }
func (c *Controller) SetTopic(v string) error     { return c.edit(func() { c.form.SetTopic(v) }) }

func (c *Controller) edit(apply func()) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.submitting {
		return ErrBusy
	}
	apply()
	return nil
}

// Submit posts the booking. Only one submission may be in flight; a second
// call returns ErrBusy. Validation and submission failures leave the flow in
// ManualEntry with every field intact.
func (c *Controller) Submit(ctx context.Context) (*booking.Confirmation, error) {
	c.transition.Lock()
	c.mu.Lock()
	if c.submitting {
		c.mu.Unlock()
		c.transition.Unlock()
		return nil, ErrBusy
	}
	if s := c.stateLocked(); s != ManualEntry {
		c.mu.Unlock()
		c.transition.Unlock()
		return nil, fmt.Errorf("%w: submit from %s", ErrInvalidTransition, s)
	}
	date := c.selector.SelectedDate()
	local := c.selector.SelectedTime()
	c.submitting = true
	c.mu.Unlock()
	c.transition.Unlock()

	conf, err := c.form.Submit(ctx, date, local)
	if err != nil {
		c.mu.Lock()
		c.submitting = false
		c.mu.Unlock()
		return nil, err
	}

	c.selector.SetSessionBooked(local)
	if c.onBooked != nil {
		c.onBooked(*date, *local)
	}

	c.mu.Lock()
	c.lastBookedDate = date
	c.lastBookedTime = local
	c.submitting = false
	c.confirmed = true
	c.mu.Unlock()
	return conf, nil
}

// BookAnother leaves the confirmation for the form again, on the date last
// booked, with no time selected and contact details retained.
func (c *Controller) BookAnother(ctx context.Context) error {
	c.transition.Lock()
	defer c.transition.Unlock()

	c.mu.Lock()
	if !c.confirmed {
		s := c.stateLocked()
		c.mu.Unlock()
		return fmt.Errorf("%w: book another from %s", ErrInvalidTransition, s)
	}
	c.confirmed = false
	c.entry = EntryManual
	date := c.lastBookedDate
	c.mu.Unlock()

	c.form.ClearStatus()
	c.selector.SelectDate(ctx, date)
	c.selector.ClearTime()
	return nil
}

// LastBooked returns the date and local time of the most recent booking.
func (c *Controller) LastBooked() (*scheduling.CalendarDate, *scheduling.TimeOfDay) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastBookedDate, c.lastBookedTime
}
