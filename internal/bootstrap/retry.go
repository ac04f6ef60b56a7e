// internal/bootstrap/retry.go
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"msme-lender-platform/internal/common/logger"
)

// Retry bounds for connecting to backing services at startup.
type Retry struct {
	Attempts     int
	InitialDelay time.Duration
}

var DefaultRetry = Retry{Attempts: 10, InitialDelay: 2 * time.Second}

// retryWithBackoff runs operation until it succeeds, doubling the delay
// after every failure.
func retryWithBackoff(ctx context.Context, r Retry, log logger.Logger, name string, operation func() error) error {
	attempts := r.Attempts
	if attempts <= 0 {
		attempts = 1
	}
	delay := r.InitialDelay

	var err error
	for i := 0; i < attempts; i++ {
		if err = operation(); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}

		log.Warn(fmt.Sprintf("%s failed, retrying...", name), map[string]interface{}{
			"error":       err.Error(),
			"attempt":     i + 1,
			"maxRetries":  attempts,
			"nextRetryIn": delay.String(),
		})
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("%s cancelled after %d attempts: %w", name, i+1, ctx.Err())
		}
		delay *= 2
	}
	return fmt.Errorf("%s failed after %d attempts: %w", name, attempts, err)
}
