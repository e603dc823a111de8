package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/portfolio-callbooking/internal/api/router"
	appconfig "github.com/wolfman30/portfolio-callbooking/internal/config"
	"github.com/wolfman30/portfolio-callbooking/internal/demo"
	"github.com/wolfman30/portfolio-callbooking/internal/observability/metrics"
	"github.com/wolfman30/portfolio-callbooking/pkg/logging"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting call-booking API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"demo_mode", cfg.DemoMode,
	)

	metricsHandler, bookingMetrics := setupMetrics()
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      newHandler(cfg, logger, metricsHandler, bookingMetrics),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// setupMetrics builds a private registry with the booking collectors plus
// the usual process and Go runtime collectors.
func setupMetrics() (http.Handler, *metrics.BookingMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewBookingMetrics(reg)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), m
}

func newHandler(cfg *appconfig.Config, logger *logging.Logger, metricsHandler http.Handler, m *metrics.BookingMetrics) http.Handler {
	return router.New(&router.Config{
		Logger:             logger,
		Appointments:       demo.NewAppointmentsHandler(cfg.DemoMode, logger, m),
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})
}
