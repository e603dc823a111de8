package picker

import (
	"fmt"

	"github.com/wolfman30/portfolio-callbooking/internal/scheduling"
)

// DateOption is one selectable day in the rolling window.
type DateOption struct {
	Date     scheduling.CalendarDate
	Weekday  string
	Day      int
	Selected bool
}

// MonthGroup groups the window's dates under a month heading.
type MonthGroup struct {
	Label string
	Dates []DateOption
}

// SlotOption is one time button. Label is the local time.
type SlotOption struct {
	Label     string
	Local     scheduling.TimeOfDay
	Reference scheduling.TimeOfDay
	Available bool
	Selected  bool
}

// TimePicker is only present once a date is selected.
type TimePicker struct {
	Heading string
	Loading bool
	Slots   []SlotOption
}

// View is a render-ready snapshot of the selector.
type View struct {
	Months     []MonthGroup
	TimePicker *TimePicker
}

// DateRange returns the rolling window starting today, grouped by month.
func (s *Selector) DateRange() []MonthGroup {
	s.mu.Lock()
	selected := s.date
	s.mu.Unlock()
	return s.dateRange(selected)
}

func (s *Selector) dateRange(selected *scheduling.CalendarDate) []MonthGroup {
	today := s.zones.Today()
	var groups []MonthGroup
	for i := 0; i < s.windowDays; i++ {
		d := today.AddDays(i)
		label := scheduling.MonthLabel(d)
		if len(groups) == 0 || groups[len(groups)-1].Label != label {
			groups = append(groups, MonthGroup{Label: label})
		}
		g := &groups[len(groups)-1]
		g.Dates = append(g.Dates, DateOption{
			Date:     d,
			Weekday:  d.Weekday().String()[:3],
			Day:      d.Day,
			Selected: selected != nil && *selected == d,
		})
	}
	return groups
}

// View renders the current state.
func (s *Selector) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{Months: s.dateRange(s.date)}
	if s.date == nil {
		return v
	}

	tp := &TimePicker{
		Heading: fmt.Sprintf("Select Time (%s) - Times below are shown in your timezone", scheduling.FormatForDisplay(*s.date)),
		Loading: s.loading,
		Slots:   make([]SlotOption, 0, len(s.slots)),
	}
	for _, slot := range s.slots {
		tp.Slots = append(tp.Slots, SlotOption{
			Label:     slot.Local.String(),
			Local:     slot.Local,
			Reference: slot.Reference,
			Available: slot.Available,
			Selected:  s.selected != nil && *s.selected == slot.Local,
		})
	}
	v.TimePicker = tp
	return v
}
