package scheduling

import "time"

const (
	// WorkdayStartHour and WorkdayEndHour bound the reference-zone booking
	// window [10:00, 18:00).
	WorkdayStartHour = 10
	WorkdayEndHour   = 18

	// SlotLength is the fixed appointment duration and the slot step.
	SlotLength = 30 * time.Minute

	// SlotsPerDay is the number of slots in one working day.
	SlotsPerDay = (WorkdayEndHour - WorkdayStartHour) * int(time.Hour/SlotLength)
)

// Slot is one bookable time for the selected date. Reference identifies the
// slot for booking and availability; Local is what the visitor sees.
// Available is derived by Reconcile and is never authoritative on its own.
type Slot struct {
	Local     TimeOfDay
	Reference TimeOfDay
	Available bool
}

// GenerateSlots returns the working-day slots in ascending reference-zone
// order, all marked available. The list is the same for every date.
func (z *Zones) GenerateSlots() []Slot {
	slots := make([]Slot, 0, SlotsPerDay)
	start := TimeOfDay{Hour: WorkdayStartHour}
	for i := 0; i < SlotsPerDay; i++ {
		ref := start.Add(time.Duration(i) * SlotLength)
		slots = append(slots, Slot{
			Local:     z.ToLocalTimeOfDay(ref),
			Reference: ref,
			Available: true,
		})
	}
	return slots
}

// IsReferenceSlot reports whether t is the start of a generated slot.
func IsReferenceSlot(t TimeOfDay) bool {
	if t.Hour < WorkdayStartHour || t.Hour >= WorkdayEndHour {
		return false
	}
	return t.Minutes()%int(SlotLength/time.Minute) == 0
}
