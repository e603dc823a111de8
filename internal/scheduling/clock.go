// Package scheduling holds the pure time arithmetic behind the call-booking
// widget: calendar dates, times of day in the provider's reference zone and
// the visitor's local zone, slot generation and availability reconciliation.
package scheduling

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const minutesPerDay = 24 * 60

// TimeOfDay is an hour:minute pair with no zone attached. Whether a value is
// a reference-zone or a local-zone time is tracked by the field holding it.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func fromMinutes(total int) TimeOfDay {
	total %= minutesPerDay
	if total < 0 {
		total += minutesPerDay
	}
	return TimeOfDay{Hour: total / 60, Minute: total % 60}
}

// Minutes returns the number of minutes since midnight.
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

// Add shifts the time of day, wrapping past midnight in either direction.
func (t TimeOfDay) Add(d time.Duration) TimeOfDay {
	return fromMinutes(t.Minutes() + int(d/time.Minute))
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// ParseTimeOfDay parses an "HH:MM" clock string.
func ParseTimeOfDay(raw string) (TimeOfDay, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(raw), ":")
	if !ok {
		return TimeOfDay{}, fmt.Errorf("scheduling: invalid time of day %q", raw)
	}
	hour, err := strconv.Atoi(hh)
	if err != nil || hour < 0 || hour > 23 {
		return TimeOfDay{}, fmt.Errorf("scheduling: invalid hour in %q", raw)
	}
	minute, err := strconv.Atoi(mm)
	if err != nil || minute < 0 || minute > 59 {
		return TimeOfDay{}, fmt.Errorf("scheduling: invalid minute in %q", raw)
	}
	return TimeOfDay{Hour: hour, Minute: minute}, nil
}

// TimeOfDayFromInstant extracts the UTC hour and minute from an ISO-8601
// instant. The booking backend encodes booked intervals so that this UTC
// time of day equals the provider's reference-zone time of day.
func TimeOfDayFromInstant(iso string) (TimeOfDay, error) {
	raw := strings.TrimSpace(iso)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		u := t.UTC()
		return TimeOfDay{Hour: u.Hour(), Minute: u.Minute()}, nil
	}
	// Naive datetime, read as UTC.
	for _, layout := range []string{"2006-01-02T15:04:05.999999999", "2006-01-02T15:04"} {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
		}
	}
	return TimeOfDay{}, fmt.Errorf("scheduling: cannot parse instant %q", iso)
}

// CalendarDate is a day on the calendar. Equality is by day, never by instant.
type CalendarDate struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) CalendarDate {
	y, m, d := t.Date()
	return CalendarDate{Year: y, Month: m, Day: d}
}

// ParseCalendarDate parses a YYYY-MM-DD string.
func ParseCalendarDate(raw string) (CalendarDate, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(raw))
	if err != nil {
		return CalendarDate{}, fmt.Errorf("scheduling: invalid date %q: %w", raw, err)
	}
	return DateOf(t), nil
}

func (d CalendarDate) IsZero() bool {
	return d == CalendarDate{}
}

// String formats the date as YYYY-MM-DD.
func (d CalendarDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// AddDays moves the date by n calendar days.
func (d CalendarDate) AddDays(n int) CalendarDate {
	return DateOf(time.Date(d.Year, d.Month, d.Day+n, 12, 0, 0, 0, time.UTC))
}

// At combines the date with a time of day in loc.
func (d CalendarDate) At(tod TimeOfDay, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year, d.Month, d.Day, tod.Hour, tod.Minute, 0, 0, loc)
}

// Weekday reports the day of the week.
func (d CalendarDate) Weekday() time.Weekday {
	return d.At(TimeOfDay{Hour: 12}, time.UTC).Weekday()
}

// FormatForDisplay renders a short label such as "Mon, Jan 27".
func FormatForDisplay(d CalendarDate) string {
	return d.At(TimeOfDay{Hour: 12}, time.UTC).Format("Mon, Jan 2")
}

// MonthLabel renders the month heading used to group dates, e.g. "February 2026".
func MonthLabel(d CalendarDate) string {
	return d.At(TimeOfDay{Hour: 12}, time.UTC).Format("January 2006")
}
