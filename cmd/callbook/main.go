// Command callbook runs one booking cycle of the call-booking widget from the
// terminal: it prints the date window and slots, then books the chosen slot.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/wolfman30/portfolio-callbooking/internal/booking"
	"github.com/wolfman30/portfolio-callbooking/internal/bookingform"
	"github.com/wolfman30/portfolio-callbooking/internal/callflow"
	appconfig "github.com/wolfman30/portfolio-callbooking/internal/config"
	"github.com/wolfman30/portfolio-callbooking/internal/observability/metrics"
	"github.com/wolfman30/portfolio-callbooking/internal/picker"
	"github.com/wolfman30/portfolio-callbooking/internal/scheduling"
	"github.com/wolfman30/portfolio-callbooking/pkg/logging"
)

type options struct {
	date      string
	time      string
	another   string
	token     string
	firstName string
	lastName  string
	email     string
	phone     string
	topic     string
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("callbook", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.date, "date", "", "date to book (YYYY-MM-DD, local calendar); empty lists the window")
	fs.StringVar(&o.time, "time", "", "local time of the slot (HH:MM)")
	fs.StringVar(&o.another, "another", "", "after booking, book a second slot on the same day at this local time")
	fs.StringVar(&o.token, "token", "", "identity assertion token used to prefill contact details")
	fs.StringVar(&o.firstName, "first", "", "first name")
	fs.StringVar(&o.lastName, "last", "", "last name")
	fs.StringVar(&o.email, "email", "", "email address")
	fs.StringVar(&o.phone, "phone", "", "phone number")
	fs.StringVar(&o.topic, "topic", "", "what the call is about")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	return o, nil
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		os.Exit(2)
	}

	cfg := appconfig.Load()
	logger := logging.NewWithWriter(cfg.LogLevel, os.Stderr)

	loc, name, err := scheduling.ResolveLocalZone(cfg.LocalTimezone)
	if err != nil {
		logger.Error("failed to resolve local timezone", "error", err)
		os.Exit(1)
	}
	zones := scheduling.NewZones(cfg.ReferenceOffsetMinutes, loc, name)

	client := booking.NewClient(cfg.APIBaseURL, cfg.HTTPClientTimeout, logger)
	submitter := booking.SelectSubmitter(cfg.DemoMode, client, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	app := newApp(client, submitter, zones, cfg.BookingWindowDays, logger, metrics.NewBookingMetrics(reg))
	runErr := app.run(ctx, opts, os.Stdout)

	pushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pushMetrics(pushCtx, cfg.MetricsPushgatewayURL, reg); err != nil {
		logger.Warn("failed to push metrics", "error", err)
	}

	if runErr != nil {
		fmt.Fprintln(os.Stderr, "error:", runErr)
		os.Exit(1)
	}
}

// pushMetrics hands the run's counters to a Pushgateway. The process exits
// before any scrape could see them. An empty url disables the push.
func pushMetrics(ctx context.Context, url string, g prometheus.Gatherer) error {
	if url == "" {
		return nil
	}
	return push.New(url, "callbook").Gatherer(g).PushContext(ctx)
}

type app struct {
	ctrl     *callflow.Controller
	selector *picker.Selector
}

func newApp(source booking.IntervalSource, submitter booking.Submitter, zones *scheduling.Zones, windowDays int, logger *logging.Logger, m *metrics.BookingMetrics) *app {
	sel := picker.New(source, zones, picker.Options{WindowDays: windowDays, Logger: logger, Metrics: m})
	form := bookingform.New(submitter, zones, bookingform.Options{Logger: logger, Metrics: m})
	return &app{
		ctrl:     callflow.New(sel, form, callflow.Options{Logger: logger}),
		selector: sel,
	}
}

func (a *app) run(ctx context.Context, o options, out io.Writer) error {
	if o.date == "" {
		renderWindow(out, a.ctrl.View())
		return nil
	}
	date, err := scheduling.ParseCalendarDate(o.date)
	if err != nil {
		return err
	}
	if err := a.ctrl.SelectDate(ctx, &date); err != nil {
		return err
	}
	a.selector.Wait()
	renderSlots(out, a.ctrl.View())
	if o.time == "" {
		return nil
	}

	if err := a.pickTime(o.time); err != nil {
		return err
	}
	if err := a.enterContact(o); err != nil {
		return err
	}
	if err := a.submit(ctx, out); err != nil {
		return err
	}

	if o.another == "" {
		return nil
	}
	if err := a.ctrl.BookAnother(ctx); err != nil {
		return err
	}
	a.selector.Wait()
	renderSlots(out, a.ctrl.View())
	if err := a.pickTime(o.another); err != nil {
		return err
	}
	return a.submit(ctx, out)
}

func (a *app) pickTime(raw string) error {
	t, err := scheduling.ParseTimeOfDay(raw)
	if err != nil {
		return err
	}
	return a.ctrl.SelectTime(t)
}

func (a *app) enterContact(o options) error {
	if o.token != "" {
		if err := a.ctrl.BeginAssistedEntry(); err != nil {
			return err
		}
		if err := a.ctrl.CompleteAssertion(o.token); err != nil {
			return err
		}
	}
	if a.ctrl.State() != callflow.ManualEntry {
		if err := a.ctrl.ChooseManualEntry(); err != nil {
			return err
		}
	}
	// Flags override anything the assertion prefilled.
	for _, set := range []struct {
		value string
		apply func(string) error
	}{
		{o.firstName, a.ctrl.SetFirstName},
		{o.lastName, a.ctrl.SetLastName},
		{o.email, a.ctrl.SetEmail},
		{o.phone, a.ctrl.SetPhone},
		{o.topic, a.ctrl.SetTopic},
	} {
		if set.value == "" {
			continue
		}
		if err := set.apply(set.value); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) submit(ctx context.Context, out io.Writer) error {
	fmt.Fprintf(out, "\n[%s]\n", a.ctrl.View().SubmitLabel)
	conf, err := a.ctrl.Submit(ctx)
	status := a.ctrl.View().Status
	var verr *bookingform.ValidationError
	switch {
	case errors.As(err, &verr):
		fmt.Fprintf(out, "invalid %s: %s\n", verr.Field, verr.Message)
		return err
	case err != nil:
		fmt.Fprintln(out, status.Message)
		return err
	}
	fmt.Fprintln(out, status.Message)
	if conf.AppointmentID != "" {
		fmt.Fprintf(out, "appointment: %s\n", conf.AppointmentID)
	}
	return nil
}

func renderWindow(out io.Writer, v callflow.View) {
	for _, month := range v.Picker.Months {
		fmt.Fprintln(out, month.Label)
		var days []string
		for _, d := range month.Dates {
			days = append(days, fmt.Sprintf("%s %2d (%s)", d.Weekday, d.Day, d.Date))
		}
		fmt.Fprintln(out, "  "+strings.Join(days, "\n  "))
	}
}

func renderSlots(out io.Writer, v callflow.View) {
	tp := v.Picker.TimePicker
	if tp == nil {
		return
	}
	fmt.Fprintln(out, tp.Heading)
	for _, s := range tp.Slots {
		mark := " "
		switch {
		case s.Selected:
			mark = "*"
		case !s.Available:
			mark = "x"
		}
		fmt.Fprintf(out, "  [%s] %s\n", mark, s.Label)
	}
}
