package apiclient

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"taskdeck/internal/errs"
)

// RequestIDHeader carries a per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// roundTripFunc adapts a function to http.RoundTripper.
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

// rateLimited waits for the limiter before every request.
func rateLimited(next http.RoundTripper, limiter *rate.Limiter) http.RoundTripper {
	return roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if err := limiter.Wait(req.Context()); err != nil {
			return nil, err
		}
		return next.RoundTrip(req)
	})
}

func newLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

var errServerStatus = errors.New("server error status")

// breaker fails fast once the backend keeps answering with network errors or 5xx.
// 4xx responses are the caller's problem and never count as failures.
func breaker(next http.RoundTripper, cb *gobreaker.CircuitBreaker) http.RoundTripper {
	return roundTripFunc(func(req *http.Request) (*http.Response, error) {
		var resp *http.Response
		_, err := cb.Execute(func() (interface{}, error) {
			r, err := next.RoundTrip(req)
			if err != nil {
				return nil, err
			}
			resp = r
			if r.StatusCode >= http.StatusInternalServerError {
				return nil, errServerStatus
			}
			return nil, nil
		})
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", errs.ErrBackendUnavailable, err)
		}
		if resp != nil {
			return resp, nil
		}
		return nil, err
	})
}

func newBreaker(failures uint32, cooldown time.Duration, logger *zap.Logger) *gobreaker.CircuitBreaker {
	if failures == 0 {
		failures = 5
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "api",
		Timeout: cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
}

// requestID stamps each request with a fresh X-Request-ID unless one is set.
func requestID(next http.RoundTripper) http.RoundTripper {
	return roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if req.Header.Get(RequestIDHeader) != "" {
			return next.RoundTrip(req)
		}
		r := req.Clone(req.Context())
		r.Header.Set(RequestIDHeader, uuid.NewString())
		return next.RoundTrip(r)
	})
}

// logged writes one debug line per request. Headers and bodies are never logged.
func logged(next http.RoundTripper, logger *zap.Logger) http.RoundTripper {
	return roundTripFunc(func(req *http.Request) (*http.Response, error) {
		start := time.Now()
		resp, err := next.RoundTrip(req)
		fields := []zap.Field{
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.String("request_id", req.Header.Get(RequestIDHeader)),
			zap.Duration("dur", time.Since(start)),
		}
		if err != nil {
			logger.Debug("request failed", append(fields, zap.Error(err))...)
			return nil, err
		}
		logger.Debug("request", append(fields, zap.Int("status", resp.StatusCode))...)
		return resp, nil
	})
}
