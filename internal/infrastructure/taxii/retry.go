package taxii

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"stixgate/internal/shared/logger"
)

// RetryConfig bounds the exponential backoff between attempts.
type RetryConfig struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxAttempts     int
}

// Retryer retries transient TAXII failures with exponential backoff.
// Permanent failures stop immediately. All attempt errors are collected so a
// consumption log can record the full failure history.
type Retryer struct {
	config RetryConfig
	logger logger.Interface
}

// NewRetryer creates a retryer with the given bounds.
func NewRetryer(config RetryConfig, log logger.Interface) *Retryer {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 1
	}
	return &Retryer{config: config, logger: log}
}

// Do runs op until it succeeds, fails permanently, or the attempt budget is
// exhausted. The returned error joins every attempt's failure.
func (r *Retryer) Do(ctx context.Context, name string, op func() error) error {
	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = r.config.InitialInterval
	expBackoff.MaxInterval = r.config.MaxInterval
	expBackoff.Reset()

	var attemptErrs []string
	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		err := op()
		if err == nil {
			return nil
		}
		attemptErrs = append(attemptErrs, fmt.Sprintf("attempt %d: %v", attempt, err))

		if !IsTransient(err) {
			r.logger.Warnw("permanent failure, not retrying",
				"operation", name,
				"attempt", attempt,
				"error", err,
			)
			return fmt.Errorf("%s: %s", name, strings.Join(attemptErrs, "; "))
		}
		if attempt == r.config.MaxAttempts {
			break
		}

		delay := expBackoff.NextBackOff()
		if delay == backoff.Stop {
			break
		}

		r.logger.Warnw("transient failure, retrying",
			"operation", name,
			"attempt", attempt,
			"delay", delay,
			"error", err,
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			attemptErrs = append(attemptErrs, fmt.Sprintf("canceled: %v", ctx.Err()))
			return fmt.Errorf("%s: %s", name, strings.Join(attemptErrs, "; "))
		case <-timer.C:
		}
	}

	return fmt.Errorf("%s: retries exhausted: %s", name, strings.Join(attemptErrs, "; "))
}
