package config

import (
	"os"
	"strconv"
)

const (
	webhookURLEnv = "NOTIFY_WEBHOOK_URL"
	maxRetriesEnv = "NOTIFY_MAX_RETRIES"

	defaultNotifyMaxRetries = 3
)

type NotifierConfig struct {
	WebhookURL string

	GCloudProjectID  string
	GCloudLocationID string
	GCloudQueueID    string
	GCloudTargetURL  string

	MaxRetries int
}

func LoadNotifierConfig() NotifierConfig {
	maxRetries := defaultNotifyMaxRetries
	if v := os.Getenv(maxRetriesEnv); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			maxRetries = parsed
		}
	}

	return NotifierConfig{
		WebhookURL: os.Getenv(webhookURLEnv),

		GCloudProjectID:  os.Getenv("GCLOUD_PROJECT_ID"),
		GCloudLocationID: os.Getenv("GCLOUD_LOCATION_ID"),
		GCloudQueueID:    os.Getenv("GCLOUD_QUEUE_ID"),
		GCloudTargetURL:  os.Getenv("GCLOUD_TARGET_URL"),

		MaxRetries: maxRetries,
	}
}
