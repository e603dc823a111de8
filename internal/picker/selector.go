// Package picker implements the date/time selector: a rolling window of
// dates and, for the chosen date, the working-day slots reconciled against
// the backend's booked intervals and the slot this session just booked.
package picker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/wolfman30/portfolio-callbooking/internal/booking"
	"github.com/wolfman30/portfolio-callbooking/internal/observability/metrics"
	"github.com/wolfman30/portfolio-callbooking/internal/scheduling"
	"github.com/wolfman30/portfolio-callbooking/pkg/logging"
)

// DefaultWindowDays is the length of the rolling date window.
const DefaultWindowDays = 14

var (
	ErrNoDateSelected  = errors.New("picker: no date selected")
	ErrUnknownSlot     = errors.New("picker: no slot at that time")
	ErrSlotUnavailable = errors.New("picker: slot is unavailable")
)

// Options tunes a Selector. The zero value is usable.
type Options struct {
	WindowDays int
	Logger     *logging.Logger
	Metrics    *metrics.BookingMetrics
	// OnChange is called, outside any lock, whenever the visible state changes.
	OnChange func()
}

// Selector owns the date/time selection state. Fetches run in the background
// and only the response for the currently selected date is applied.
type Selector struct {
	source     booking.IntervalSource
	zones      *scheduling.Zones
	windowDays int
	logger     *logging.Logger
	metrics    *metrics.BookingMetrics
	onChange   func()

	inflight sync.WaitGroup

	mu            sync.Mutex
	generation    uint64
	cancelFetch   context.CancelFunc
	date          *scheduling.CalendarDate
	selected      *scheduling.TimeOfDay
	sessionBooked *scheduling.TimeOfDay
	generated     []scheduling.Slot
	booked        []scheduling.BookedInterval
	slots         []scheduling.Slot
	loading       bool
}

// New builds a Selector reading booked intervals from source.
func New(source booking.IntervalSource, zones *scheduling.Zones, opts Options) *Selector {
	if opts.WindowDays <= 0 {
		opts.WindowDays = DefaultWindowDays
	}
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}
	return &Selector{
		source:     source,
		zones:      zones,
		windowDays: opts.WindowDays,
		logger:     opts.Logger.Component("picker"),
		metrics:    opts.Metrics,
		onChange:   opts.OnChange,
	}
}

// SelectDate changes the selected date and starts one fetch of that date's
// booked intervals. Selecting the date already selected is a no-op; a nil
// date clears the slot list without fetching. The previous time selection
// is discarded. It reports whether anything changed.
func (s *Selector) SelectDate(ctx context.Context, date *scheduling.CalendarDate) bool {
	s.mu.Lock()
	if sameDate(s.date, date) {
		s.mu.Unlock()
		return false
	}

	s.generation++
	if s.cancelFetch != nil {
		s.cancelFetch()
		s.cancelFetch = nil
	}
	s.selected = nil
	s.booked = nil

	if date == nil {
		s.date = nil
		s.generated = nil
		s.slots = nil
		s.loading = false
		s.mu.Unlock()
		s.notify()
		return true
	}

	d := *date
	s.date = &d
	s.generated = s.zones.GenerateSlots()
	// Shown until the fetch lands; only the session booking is suppressed.
	s.slots = scheduling.Reconcile(s.generated, nil, s.sessionBooked)
	s.loading = true

	fetchCtx, cancel := context.WithCancel(ctx)
	s.cancelFetch = cancel
	gen := s.generation
	s.inflight.Add(1)
	s.mu.Unlock()

	s.notify()
	go s.fetch(fetchCtx, cancel, gen, d)
	return true
}

func (s *Selector) fetch(ctx context.Context, cancel context.CancelFunc, gen uint64, date scheduling.CalendarDate) {
	defer s.inflight.Done()
	defer cancel()

	start := time.Now()
	booked, err := s.source.BookedIntervals(ctx, date)
	elapsed := time.Since(start).Seconds()

	s.mu.Lock()
	if gen != s.generation || s.date == nil || *s.date != date {
		s.mu.Unlock()
		s.metrics.ObserveAvailabilityFetch("stale", elapsed)
		s.logger.Debug("discarding stale booked intervals", "date", date.String())
		return
	}
	s.loading = false
	s.cancelFetch = nil

	if err != nil {
		s.mu.Unlock()
		s.metrics.ObserveAvailabilityFetch("error", elapsed)
		// Slots stay as generated; the backend catches any double booking.
		s.logger.Warn("availability fetch failed", "date", date.String(), "error", err)
		s.notify()
		return
	}

	s.booked = booked
	s.slots = scheduling.Reconcile(s.generated, booked, s.sessionBooked)
	s.dropUnavailableSelectionLocked()
	s.mu.Unlock()

	s.metrics.ObserveAvailabilityFetch("ok", elapsed)
	s.notify()
}

// SelectTime selects the slot shown at the given local time and returns it.
func (s *Selector) SelectTime(local scheduling.TimeOfDay) (scheduling.TimeOfDay, error) {
	s.mu.Lock()
	if s.date == nil {
		s.mu.Unlock()
		return scheduling.TimeOfDay{}, ErrNoDateSelected
	}
	slot, ok := findLocal(s.slots, local)
	if !ok {
		s.mu.Unlock()
		return scheduling.TimeOfDay{}, ErrUnknownSlot
	}
	if !slot.Available {
		s.mu.Unlock()
		return scheduling.TimeOfDay{}, ErrSlotUnavailable
	}
	t := slot.Local
	s.selected = &t
	s.mu.Unlock()

	s.notify()
	return t, nil
}

// ClearTime drops the time selection and keeps the date and slots.
func (s *Selector) ClearTime() {
	s.mu.Lock()
	changed := s.selected != nil
	s.selected = nil
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

// SetSessionBooked records the local time this session just booked, or
// clears it when t is nil. The booked-interval list already fetched is kept.
func (s *Selector) SetSessionBooked(t *scheduling.TimeOfDay) {
	s.mu.Lock()
	if t == nil {
		s.sessionBooked = nil
	} else {
		cp := *t
		s.sessionBooked = &cp
	}
	if s.date != nil {
		s.slots = scheduling.Reconcile(s.generated, s.booked, s.sessionBooked)
	}
	s.mu.Unlock()
	s.notify()
}

// SelectedDate returns a copy of the selected date, or nil.
func (s *Selector) SelectedDate() *scheduling.CalendarDate {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.date == nil {
		return nil
	}
	d := *s.date
	return &d
}

// SelectedTime returns a copy of the selected local time, or nil.
func (s *Selector) SelectedTime() *scheduling.TimeOfDay {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return nil
	}
	t := *s.selected
	return &t
}

// Slots returns a copy of the current slot list; nil when no date is selected.
func (s *Selector) Slots() []scheduling.Slot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.slots == nil {
		return nil
	}
	return append([]scheduling.Slot(nil), s.slots...)
}

// Loading reports whether the fetch for the selected date is outstanding.
func (s *Selector) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Wait blocks until every fetch started so far has finished.
func (s *Selector) Wait() {
	s.inflight.Wait()
}

func (s *Selector) dropUnavailableSelectionLocked() {
	if s.selected == nil {
		return
	}
	if slot, ok := findLocal(s.slots, *s.selected); !ok || !slot.Available {
		s.logger.Info("selected slot was taken", "time", s.selected.String())
		s.selected = nil
	}
}

func (s *Selector) notify() {
	if s.onChange != nil {
		s.onChange()
	}
}

func findLocal(slots []scheduling.Slot, local scheduling.TimeOfDay) (scheduling.Slot, bool) {
	for _, slot := range slots {
		if slot.Local == local {
			return slot, true
		}
	}
	return scheduling.Slot{}, false
}

func sameDate(a, b *scheduling.CalendarDate) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
