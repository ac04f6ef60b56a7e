// internal/workers/lending/update-application-status/config.go
package updateapplicationstatus

import (
	"time"

	"msme-lender-platform/internal/common/camunda"
	"msme-lender-platform/internal/common/config"
)

type Config struct {
	Enabled       bool
	MaxJobsActive int
	Timeout       time.Duration
	// Retry governs resending the complete-job command.
	Retry *camunda.RetryConfig
}

func LoadConfig(cfg *config.Config) *Config {
	wc := config.GetWorkerConfig(cfg, TaskType)
	return &Config{
		Enabled:       wc.Enabled,
		MaxJobsActive: wc.MaxJobsActive,
		Timeout:       config.GetDuration(wc.Timeout),
		Retry: &camunda.RetryConfig{
			MaxRetries: wc.MaxRetries,
			BaseDelay:  camunda.DefaultRetryConfig.BaseDelay,
			MaxDelay:   camunda.DefaultRetryConfig.MaxDelay,
		},
	}
}
