package moderation

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// newCircuitBreaker stops calling the classifier after threshold consecutive
// failures. After openDuration one trial call is let through; its result
// decides whether the circuit closes or reopens.
func newCircuitBreaker(threshold int, openDuration time.Duration, logger *zap.Logger) *gobreaker.CircuitBreaker {
	if threshold <= 0 {
		threshold = 3
	}
	if openDuration <= 0 {
		openDuration = 5 * time.Minute
	}

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "moderation",
		MaxRequests: 1,
		Timeout:     openDuration,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(threshold)
		},
		// a caller that went away says nothing about the classifier
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("moderation circuit state changed",
				zap.String("breaker", name),
				zap.Stringer("from", from),
				zap.Stringer("to", to))
		},
	})
}

// breakerError maps gobreaker's rejections onto ErrCircuitOpen
func breakerError(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return errors.Join(ErrCircuitOpen, err)
	}
	return err
}
