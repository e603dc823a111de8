package scheduling

// BookedInterval is an existing booking reported by the backend. Only the
// reference-zone time of day of Datetime is consumed.
type BookedInterval struct {
	ID       int64  `json:"id"`
	Datetime string `json:"datetime"`
}

// Reconcile derives availability for slots. A slot is unavailable when its
// reference time matches a booked interval exactly, or when its local time
// equals sessionBooked. Adjacent slots are unaffected. The input slice is not
// modified and the result depends only on the arguments, so repeated calls
// are idempotent.
func Reconcile(slots []Slot, booked []BookedInterval, sessionBooked *TimeOfDay) []Slot {
	taken := make(map[TimeOfDay]struct{}, len(booked))
	for _, b := range booked {
		tod, err := TimeOfDayFromInstant(b.Datetime)
		if err != nil {
			continue
		}
		taken[tod] = struct{}{}
	}

	out := make([]Slot, len(slots))
	for i, s := range slots {
		_, isBooked := taken[s.Reference]
		justBooked := sessionBooked != nil && *sessionBooked == s.Local
		s.Available = !isBooked && !justBooked
		out[i] = s
	}
	return out
}

// ContractViolations returns the booked intervals that break the backend
// contract: an instant that does not parse, or whose UTC time of day is not
// the start of a reference-zone slot.
func ContractViolations(booked []BookedInterval) []BookedInterval {
	var bad []BookedInterval
	for _, b := range booked {
		tod, err := TimeOfDayFromInstant(b.Datetime)
		if err != nil || !IsReferenceSlot(tod) {
			bad = append(bad, b)
		}
	}
	return bad
}
