package config

import (
	"os"
	"strconv"
)

const (
	awayThresholdMinutesEnv = "ACTIVITY_AWAY_THRESHOLD_MINUTES"
	pollIntervalMsEnv       = "ACTIVITY_POLL_INTERVAL_MS"

	defaultAwayThresholdMinutes = 5
	defaultPollIntervalMs       = 10000
)

type ActivityConfig struct {
	AwayThresholdMinutes float64
	PollIntervalMs       int
}

func LoadActivityConfig() *ActivityConfig {
	awayThreshold := float64(defaultAwayThresholdMinutes)
	if v := os.Getenv(awayThresholdMinutesEnv); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed > 0 {
			awayThreshold = parsed
		}
	}

	pollInterval := defaultPollIntervalMs
	if v := os.Getenv(pollIntervalMsEnv); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			pollInterval = parsed
		}
	}

	return &ActivityConfig{
		AwayThresholdMinutes: awayThreshold,
		PollIntervalMs:       pollInterval,
	}
}
