package config

import (
	"os"
	"strconv"
)

const (
	tickIntervalMsEnv  = "REMINDER_TICK_INTERVAL_MS"
	debounceWriteMsEnv = "STATE_DEBOUNCE_WRITE_MS"

	defaultTickIntervalMs  = 1000
	defaultDebounceWriteMs = 500
)

// ReminderConfig holds timing knobs for the reminder engine. Interval
// defaults per kind live in the domain schema; these are process-wide.
type ReminderConfig struct {
	TickIntervalMs  int
	DebounceWriteMs int
}

func LoadReminderConfig() *ReminderConfig {
	tickInterval := defaultTickIntervalMs
	if v := os.Getenv(tickIntervalMsEnv); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			tickInterval = parsed
		}
	}

	debounceWrite := defaultDebounceWriteMs
	if v := os.Getenv(debounceWriteMsEnv); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			debounceWrite = parsed
		}
	}

	return &ReminderConfig{
		TickIntervalMs:  tickInterval,
		DebounceWriteMs: debounceWrite,
	}
}
