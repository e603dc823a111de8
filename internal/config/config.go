package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration. It is loaded once at start-up and
// passed explicitly to the components that need it.
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// Booking backend
	APIBaseURL        string
	HTTPClientTimeout time.Duration

	// DemoMode replaces the submission endpoint with an in-process stub.
	DemoMode bool

	// MetricsPushgatewayURL, when set, is where one-shot commands push their
	// booking metrics before exiting.
	MetricsPushgatewayURL string

	// Scheduling
	ReferenceOffsetMinutes int
	LocalTimezone          string
	BookingWindowDays      int

	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:                   getEnv("PORT", "8080"),
		Env:                    getEnv("ENV", "development"),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		APIBaseURL:             strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:8000"), "/"),
		HTTPClientTimeout:      getEnvAsDuration("HTTP_CLIENT_TIMEOUT", 15*time.Second),
		DemoMode:               getEnvAsBool("DEMO_MODE", false),
		MetricsPushgatewayURL:  strings.TrimRight(getEnv("METRICS_PUSHGATEWAY_URL", ""), "/"),
		ReferenceOffsetMinutes: getEnvAsInt("REFERENCE_UTC_OFFSET_MINUTES", -480),
		LocalTimezone:          getEnv("LOCAL_TIMEZONE", ""),
		BookingWindowDays:      getEnvAsInt("BOOKING_WINDOW_DAYS", 14),
		CORSAllowedOrigins:     getEnvAsList("CORS_ALLOWED_ORIGINS"),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, ""), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
