package callflow

import (
	"github.com/wolfman30/portfolio-callbooking/internal/bookingform"
	"github.com/wolfman30/portfolio-callbooking/internal/picker"
)

// View is what a renderer needs for one frame of the widget.
type View struct {
	State  State
	Picker picker.View

	// ShowEntryChoice offers the sign-in shortcut or manual entry.
	ShowEntryChoice bool
	ShowForm        bool
	ShowConfirmed   bool

	Fields      bookingform.Fields
	Status      bookingform.Status
	SubmitLabel string
	CanSubmit   bool
}

func (c *Controller) View() View {
	state := c.State()
	date := c.selector.SelectedDate()
	local := c.selector.SelectedTime()
	fields := c.form.Fields()
	submitting := state == Submitting

	v := View{
		State:           state,
		Picker:          c.selector.View(),
		ShowEntryChoice: state == DateTimeSelected || state == AssistedEntry,
		ShowForm:        state == ManualEntry || state == Submitting,
		ShowConfirmed:   state == Confirmed,
		Fields:          fields,
		Status:          c.form.Status(),
		SubmitLabel:     bookingform.SubmitLabel(date, local, submitting),
	}
	v.CanSubmit = state == ManualEntry && date != nil && local != nil && fields.Ready()
	return v
}
