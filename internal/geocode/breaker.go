package geocode

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/AnshRaj112/astravedam-backend/internal/logging"
	"github.com/AnshRaj112/astravedam-backend/internal/metrics"
)

// BreakerGeocoder short-circuits lookups while the wrapped provider keeps
// failing. A NotFound answer is a healthy provider and is not a failure.
type BreakerGeocoder struct {
	inner Geocoder
	cb    *gobreaker.CircuitBreaker[*Location]
	name  string
}

// NewBreakerGeocoder opens after at least 5 requests with a 60% failure
// rate and probes again after 30 seconds.
func NewBreakerGeocoder(name string, inner Geocoder) *BreakerGeocoder {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[*Location](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= 0.6
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrUnavailable)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("Circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})

	return &BreakerGeocoder{inner: inner, cb: cb, name: name}
}

func (b *BreakerGeocoder) Geocode(ctx context.Context, text string) (*Location, error) {
	loc, err := b.cb.Execute(func() (*Location, error) {
		return b.inner.Geocode(ctx, text)
	})
	switch {
	case err == nil:
		metrics.RecordGeocode("success")
	case errors.Is(err, ErrNotFound):
		metrics.RecordGeocode("not_found")
	case errors.Is(err, ErrUnavailable):
		metrics.RecordGeocode("unconfigured")
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.RecordGeocode("rejected")
	default:
		metrics.RecordGeocode("failure")
	}
	return loc, err
}

// State reports the breaker state, for health output and tests.
func (b *BreakerGeocoder) State() gobreaker.State {
	return b.cb.State()
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
