//go:build gcloud

package main

import (
	"context"
	"os"

	"github.com/KasumiMercury/primind-wellness-reminder/internal/config"
	"github.com/KasumiMercury/primind-wellness-reminder/internal/observability"
	"github.com/KasumiMercury/primind-wellness-reminder/internal/observability/logging"
)

func initObservability(ctx context.Context) (*observability.Resources, error) {
	serviceName := os.Getenv("K_SERVICE")
	if serviceName == "" {
		serviceName = "wellness-reminder"
	}

	env := logging.EnvProd
	if e := os.Getenv("ENV"); e != "" {
		env = logging.Environment(e)
	}

	projectID := os.Getenv("GOOGLE_CLOUD_PROJECT")
	if projectID == "" {
		projectID = os.Getenv("GCLOUD_PROJECT_ID")
	}

	return observability.Init(ctx, observability.Config{
		ServiceInfo: logging.ServiceInfo{
			Name:     serviceName,
			Version:  Version,
			Revision: os.Getenv("K_REVISION"),
		},
		Environment:  env,
		LogLevel:     config.ParseLogLevel(os.Getenv("LOG_LEVEL")),
		GCPProjectID: projectID,
		SamplingRate: 1.0,
	})
}
