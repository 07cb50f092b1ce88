package store

import (
	"context"
	"errors"
	"time"

	"github.com/mattn/go-sqlite3"
)

// retryConfig bounds how long a write waits for another process (the CLI
// and the API server may share one database file) to release its lock.
type retryConfig struct {
	maxAttempts   int
	initialDelay  time.Duration
	maxDelay      time.Duration
	backoffFactor float64
}

func defaultRetryConfig() retryConfig {
	return retryConfig{
		maxAttempts:   4,
		initialDelay:  50 * time.Millisecond,
		maxDelay:      time.Second,
		backoffFactor: 2.0,
	}
}

// retryBusy runs fn with exponential backoff while it fails with a
// busy or locked database. Other errors are returned immediately.
func retryBusy(ctx context.Context, cfg retryConfig, fn func() error) error {
	delay := cfg.initialDelay

	var err error
	for attempt := 0; attempt < cfg.maxAttempts; attempt++ {
		if err = fn(); err == nil || !isBusy(err) {
			return err
		}

		// Don't sleep after the last attempt
		if attempt == cfg.maxAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay = time.Duration(float64(delay) * cfg.backoffFactor)
		if delay > cfg.maxDelay {
			delay = cfg.maxDelay
		}
	}
	return err
}

func isBusy(err error) bool {
	var sqlErr sqlite3.Error
	if errors.As(err, &sqlErr) {
		return sqlErr.Code == sqlite3.ErrBusy || sqlErr.Code == sqlite3.ErrLocked
	}
	return false
}
