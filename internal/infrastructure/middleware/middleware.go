// internal/infrastructure/middleware/middleware.go
package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/damon-houk/yc-central/internal/infrastructure/logger"
	"github.com/google/uuid"
)

// Keys for context values
type contextKey string

const (
	requestIDKey contextKey = "request_id"

	// RequestIDHeader carries the request ID to the provider
	RequestIDHeader = "X-Request-ID"
)

// WithRequestID returns a context carrying id. An empty id generates a new one.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = uuid.New().String()
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) string {
	requestID, ok := ctx.Value(requestIDKey).(string)
	if !ok || requestID == "" {
		return "unknown"
	}
	return requestID
}

// RoundTripperFunc adapts a function to http.RoundTripper
type RoundTripperFunc func(*http.Request) (*http.Response, error)

// RoundTrip calls f(req)
func (f RoundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// RequestIDTransport tags each outgoing request with the context's request ID,
// generating one when the context has none
func RequestIDTransport(next http.RoundTripper) http.RoundTripper {
	return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
		requestID, ok := req.Context().Value(requestIDKey).(string)
		if !ok || requestID == "" {
			requestID = uuid.New().String()
		}

		// RoundTrippers must not modify the caller's request
		clone := req.Clone(context.WithValue(req.Context(), requestIDKey, requestID))
		clone.Header.Set(RequestIDHeader, requestID)

		return next.RoundTrip(clone)
	})
}

// LoggingTransport logs every outgoing request and its result. Headers are not
// logged since they carry the credential.
func LoggingTransport(log logger.Logger) func(http.RoundTripper) http.RoundTripper {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			startTime := time.Now()
			requestID := GetRequestID(req.Context())

			log.Debug("Provider request sent", map[string]interface{}{
				"request_id": requestID,
				"method":     req.Method,
				"host":       req.URL.Host,
				"path":       req.URL.Path,
				"query":      req.URL.RawQuery,
			})

			resp, err := next.RoundTrip(req)
			duration := time.Since(startTime)

			if err != nil {
				log.Warn("Provider request failed", map[string]interface{}{
					"request_id":  requestID,
					"path":        req.URL.Path,
					"duration_ms": duration.Milliseconds(),
					"error":       err.Error(),
				})
				return nil, err
			}

			log.Debug("Provider response received", map[string]interface{}{
				"request_id":     requestID,
				"path":           req.URL.Path,
				"status":         resp.StatusCode,
				"duration_ms":    duration.Milliseconds(),
				"content_type":   resp.Header.Get("Content-Type"),
				"content_length": resp.ContentLength,
			})

			return resp, nil
		})
	}
}

// Chain wraps base (http.DefaultTransport when nil) with request ID tagging
// and logging, request ID outermost
func Chain(base http.RoundTripper, log logger.Logger) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return RequestIDTransport(LoggingTransport(log)(base))
}
