package scheduling

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultReferenceOffsetMinutes is the provider's fixed UTC offset (PST, UTC-8).
// It deliberately ignores daylight saving.
const DefaultReferenceOffsetMinutes = -8 * 60

// Zones carries the two time zones the widget works in and the clock used to
// resolve the local offset.
type Zones struct {
	// Reference is the fixed-offset zone working hours are defined in.
	Reference *time.Location
	// Local is the visitor's zone, used for display and for the booking instant.
	Local *time.Location
	// LocalName is the IANA identifier sent with the contact details.
	LocalName string

	referenceOffset int // minutes east of UTC
	now             func() time.Time
}

// NewZones builds Zones from a reference offset in minutes east of UTC and a
// resolved local location.
func NewZones(referenceOffsetMinutes int, local *time.Location, localName string) *Zones {
	if local == nil {
		local = time.UTC
		localName = "UTC"
	}
	if localName == "" {
		localName = local.String()
	}
	return &Zones{
		Reference:       time.FixedZone(offsetName(referenceOffsetMinutes), referenceOffsetMinutes*60),
		Local:           local,
		LocalName:       localName,
		referenceOffset: referenceOffsetMinutes,
		now:             time.Now,
	}
}

// WithClock returns a copy of z that reads the current time from now.
func (z *Zones) WithClock(now func() time.Time) *Zones {
	cp := *z
	if now == nil {
		now = time.Now
	}
	cp.now = now
	return &cp
}

// Now returns the current instant in the local zone.
func (z *Zones) Now() time.Time {
	return z.now().In(z.Local)
}

// Today returns the visitor's current calendar day.
func (z *Zones) Today() CalendarDate {
	return DateOf(z.Now())
}

// ToLocalTimeOfDay converts a reference-zone time of day into the visitor's
// local time of day using the local offset in effect right now, not the one
// in effect on any particular future date.
func (z *Zones) ToLocalTimeOfDay(ref TimeOfDay) TimeOfDay {
	_, localOffsetSeconds := z.Now().Zone()
	diff := localOffsetSeconds/60 - z.referenceOffset
	return fromMinutes(ref.Minutes() + diff)
}

// readLocaltimeLink resolves the system zone link. Swapped in tests.
var readLocaltimeLink = func() (string, error) { return os.Readlink("/etc/localtime") }

// ResolveLocalZone finds the visitor's zone and its IANA name. An explicit
// name wins; otherwise TZ and then the /etc/localtime link are consulted.
// When no name can be found the process zone, time.Local, is used as is.
func ResolveLocalZone(name string) (*time.Location, string, error) {
	name = strings.TrimSpace(name)
	if name != "" {
		loc, err := time.LoadLocation(name)
		if err != nil {
			return nil, "", fmt.Errorf("scheduling: load local zone: %w", err)
		}
		return loc, name, nil
	}
	if tz := strings.TrimPrefix(os.Getenv("TZ"), ":"); tz != "" {
		if loc, err := time.LoadLocation(tz); err == nil {
			return loc, tz, nil
		}
	}
	if target, err := readLocaltimeLink(); err == nil {
		target = filepath.ToSlash(target)
		if _, after, ok := strings.Cut(target, "zoneinfo/"); ok {
			if loc, err := time.LoadLocation(after); err == nil {
				return loc, after, nil
			}
		}
	}
	return time.Local, time.Local.String(), nil
}

func offsetName(minutes int) string {
	sign := '+'
	if minutes < 0 {
		sign = '-'
		minutes = -minutes
	}
	return fmt.Sprintf("UTC%c%02d:%02d", sign, minutes/60, minutes%60)
}
