// Package middleware wraps outgoing HTTP round trips the way server
// middleware wraps handlers: each Middleware decorates the next
// RoundTripper.
package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/diagnosis/pakbooking/pkg/logger"
	"github.com/google/uuid"
)

type Middleware func(next http.RoundTripper) http.RoundTripper

type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

// Chain applies mws so that the first one sees the request first.
func Chain(base http.RoundTripper, mws ...Middleware) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	for i := len(mws) - 1; i >= 0; i-- {
		base = mws[i](base)
	}
	return base
}

// RequestID adds a unique request ID to each outgoing request and puts it on
// the request context for logging.
func RequestID(next http.RoundTripper) http.RoundTripper {
	return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		ctx := context.WithValue(r.Context(), logger.RequestIDKey, requestID)
		r = r.Clone(ctx)
		r.Header.Set("X-Request-ID", requestID)

		return next.RoundTrip(r)
	})
}

// Logging logs each round trip with structured logging. Authorization
// headers are never logged.
func Logging(next http.RoundTripper) http.RoundTripper {
	return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		start := time.Now()
		resp, err := next.RoundTrip(r)
		elapsed := time.Since(start)

		if err != nil {
			logger.WarnContext(r.Context(), "HTTP request failed",
				"method", r.Method,
				"path", r.URL.Path,
				"error", err,
				"elapsed_ms", elapsed.Milliseconds(),
			)
			return nil, err
		}

		logger.DebugContext(r.Context(), "HTTP request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", resp.StatusCode,
			"authenticated", r.Header.Get("Authorization") != "",
			"elapsed_ms", elapsed.Milliseconds(),
		)
		return resp, nil
	})
}

// UserAgent sets the User-Agent header when the request has none.
func UserAgent(ua string) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			if ua != "" && r.Header.Get("User-Agent") == "" {
				r = r.Clone(r.Context())
				r.Header.Set("User-Agent", ua)
			}
			return next.RoundTrip(r)
		})
	}
}

// Recover converts a panic inside the transport stack into an error so a
// misbehaving RoundTripper cannot take down the caller.
func Recover(next http.RoundTripper) http.RoundTripper {
	return RoundTripperFunc(func(r *http.Request) (resp *http.Response, err error) {
		defer func() {
			if v := recover(); v != nil {
				logger.ErrorContext(r.Context(), "Panic recovered in transport", "panic", v)
				resp, err = nil, &PanicError{Value: v}
			}
		}()
		return next.RoundTrip(r)
	})
}

type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return "transport panic"
}
