package retrieval

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	apperrors "github.com/mnemo-ai/mnemo/internal/errors"
	"github.com/mnemo-ai/mnemo/internal/logger"
)

// storeBreaker wraps calls to one backing store in a circuit breaker so a
// store that is down stops eating its stage timeout on every turn and the
// stage falls back immediately instead.
type storeBreaker struct {
	name string
	cb   *gobreaker.CircuitBreaker
}

func newStoreBreaker(name string) *storeBreaker {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warnf(context.Background(),
				"[Breaker] %s state changed from %v to %v", name, from, to)
		},
	})
	return &storeBreaker{name: name, cb: cb}
}

// Execute runs fn through the breaker. An open breaker surfaces as the store
// being unavailable, which is what it means operationally.
func (b *storeBreaker) Execute(fn func() (interface{}, error)) (interface{}, error) {
	result, err := b.cb.Execute(fn)
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return nil, apperrors.NewStoreError(b.name, "execute",
			fmt.Errorf("%w: circuit open", apperrors.ErrStoreUnavailable))
	}
	return result, err
}
