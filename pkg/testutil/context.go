package testutil

import (
	"net/http"
	"time"

	"pensio/pkg/requestcontext"
)

// WithRequestID adds a request ID to the request context.
// This simulates what the request middleware would do.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}

// WithRequestTime pins the request-scoped clock so date-dependent
// calculations are reproducible.
func WithRequestTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}
