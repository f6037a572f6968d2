// Package service holds the use cases of the API. Every mutation of a workout
// or nutrition entry runs lock → load → mutate → save under a per-aggregate
// lock; a failed save is returned, never retried.
package service

import (
	"errors"
	"fmt"

	"alcyxob/fittrack/internal/metrics"

	log "github.com/sirupsen/logrus"
)

var (
	ErrPersistence = errors.New("persistence failure")
)

// persistence wraps a storage failure so callers can match ErrPersistence
// and still reach the cause.
func persistence(op string, err error) error {
	log.Errorf("%s: %v", op, err)
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}

func recorderOrNoop(rec metrics.Recorder) metrics.Recorder {
	if rec == nil {
		return (*metrics.Manager)(nil)
	}
	return rec
}
