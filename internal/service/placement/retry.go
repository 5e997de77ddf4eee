package placement

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// RetryConfig конфигурация повторов при конкурентных конфликтах.
type RetryConfig struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultRetryConfig возвращает конфигурацию по умолчанию.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   5,
		InitialDelay:  10 * time.Millisecond,
		MaxDelay:      200 * time.Millisecond,
		BackoffFactor: 2.0,
	}
}

func (c RetryConfig) normalized() RetryConfig {
	def := DefaultRetryConfig()
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = def.MaxAttempts
	}
	if c.InitialDelay < 0 {
		c.InitialDelay = 0
	}
	if c.MaxDelay < c.InitialDelay {
		c.MaxDelay = c.InitialDelay
	}
	if c.BackoffFactor < 1 {
		c.BackoffFactor = def.BackoffFactor
	}
	return c
}

// withRetry повторяет fn, пока retryable(err) истинно и попытки не исчерпаны.
// Ожидание между попытками прерывается отменой ctx.
func (s *Service) withRetry(ctx context.Context, operation string, retryable func(error) bool, fn func() error) error {
	delay := s.retry.InitialDelay
	var lastErr error

	for attempt := 1; attempt <= s.retry.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := fn()
		if err == nil {
			if attempt > 1 {
				s.logger.WithFields(log.Fields{
					"operation": operation,
					"attempt":   attempt,
				}).Info("operation succeeded after retry")
			}
			return nil
		}
		lastErr = err
		if !retryable(err) {
			return err
		}
		if attempt == s.retry.MaxAttempts {
			break
		}

		s.logger.WithFields(log.Fields{
			"operation": operation,
			"attempt":   attempt,
			"delay":     delay,
			"error":     err,
		}).Warn("concurrent modification, retrying")

		if delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}

		delay = time.Duration(float64(delay) * s.retry.BackoffFactor)
		if delay > s.retry.MaxDelay {
			delay = s.retry.MaxDelay
		}
	}

	s.logger.WithFields(log.Fields{
		"operation":    operation,
		"max_attempts": s.retry.MaxAttempts,
		"error":        lastErr,
	}).Error("operation failed after all retry attempts")
	return lastErr
}
