package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/portfolio-callbooking/pkg/logging"
)

// DemoSubmitter stands in for the booking backend in demo mode. It fabricates
// identifiers and reports success without persisting or publishing anything.
type DemoSubmitter struct {
	logger *logging.Logger
	now    func() time.Time
}

func NewDemoSubmitter(logger *logging.Logger) *DemoSubmitter {
	if logger == nil {
		logger = logging.Default()
	}
	return &DemoSubmitter{logger: logger, now: time.Now}
}

func (d *DemoSubmitter) CreateAppointment(ctx context.Context, req CreateRequest) (*Confirmation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	conf := NewDemoConfirmation(d.now())
	d.logger.Info("demo appointment accepted",
		"appointment_id", conf.AppointmentID,
		"start_time", req.Appointment.StartTime.UTC().Format(time.RFC3339),
	)
	return conf, nil
}

// NewDemoConfirmation builds the response the demo endpoint returns.
func NewDemoConfirmation(now time.Time) *Confirmation {
	return &Confirmation{
		AppointmentID: fmt.Sprintf("demo-%d", now.UnixMilli()),
		EventID:       "evt-" + uuid.NewString(),
		KafkaEnabled:  false,
		Published:     false,
		Demo:          true,
	}
}
