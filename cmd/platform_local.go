//go:build !gcloud

package main

import (
	"context"
	"os"

	"github.com/KasumiMercury/primind-wellness-reminder/internal/config"
	"github.com/KasumiMercury/primind-wellness-reminder/internal/observability"
	"github.com/KasumiMercury/primind-wellness-reminder/internal/observability/logging"
)

func initObservability(ctx context.Context) (*observability.Resources, error) {
	serviceName := os.Getenv("SERVICE_NAME")
	if serviceName == "" {
		serviceName = "wellness-reminder"
	}

	env := logging.EnvDev
	if e := os.Getenv("ENV"); e != "" {
		env = logging.Environment(e)
	}

	return observability.Init(ctx, observability.Config{
		ServiceInfo: logging.ServiceInfo{
			Name:    serviceName,
			Version: Version,
		},
		Environment:  env,
		LogLevel:     config.ParseLogLevel(os.Getenv("LOG_LEVEL")),
		SamplingRate: 1.0,
	})
}
