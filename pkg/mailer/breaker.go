package mailer

import (
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// newBreaker trips after at least 3 requests with a 60% failure ratio and
// probes again after 30s. Rejections are the caller's fault and do not count
// as failures.
func newBreaker(name string, logger *zap.Logger) *gobreaker.CircuitBreaker[string] {
	var st gobreaker.Settings
	st.Name = name
	st.Timeout = 30 * time.Second
	st.ReadyToTrip = func(counts gobreaker.Counts) bool {
		failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
		return counts.Requests >= 3 && failureRatio >= 0.6
	}
	st.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, ErrRejected)
	}
	st.OnStateChange = func(name string, from, to gobreaker.State) {
		logger.Warn("mail circuit breaker state changed",
			zap.String("breaker", name),
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
	}

	return gobreaker.NewCircuitBreaker[string](st)
}

// breakerErr maps the breaker's own errors onto ErrUnavailable.
func breakerErr(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrUnavailable
	}
	return err
}
