// Package config loads and validates environment variables at startup.
// Fail-fast: if a required variable is missing, the process exits with an error.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration for the lifecycle service.
type Config struct {
	Port                    string
	DatabaseURL             string
	RedisURL                string
	ReminderIntervalMinutes int // How often the reminder sweep fires
	ReminderLookaheadHours  int // How far ahead the sweep looks for interviews
}

// Load reads environment variables (a local .env first, if present) and
// returns a validated Config.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}

	port := os.Getenv("LIFECYCLE_PORT")
	if port == "" {
		port = "8083"
	}

	interval := 15
	if s := os.Getenv("REMINDER_INTERVAL_MINUTES"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			return nil, fmt.Errorf("REMINDER_INTERVAL_MINUTES must be a positive integer, got %q", s)
		}
		interval = v
	}

	lookahead := 24
	if s := os.Getenv("REMINDER_LOOKAHEAD_HOURS"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			return nil, fmt.Errorf("REMINDER_LOOKAHEAD_HOURS must be a positive integer, got %q", s)
		}
		lookahead = v
	}

	return &Config{
		Port:                    port,
		DatabaseURL:             dbURL,
		RedisURL:                redisURL,
		ReminderIntervalMinutes: interval,
		ReminderLookaheadHours:  lookahead,
	}, nil
}
