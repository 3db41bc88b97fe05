package middleware

import (
	"net/http"

	"go.uber.org/zap"
)

// Middleware wraps an outbound round tripper
type Middleware func(http.RoundTripper) http.RoundTripper

// RoundTripperFunc adapts a function to http.RoundTripper
type RoundTripperFunc func(*http.Request) (*http.Response, error)

// RoundTrip implements http.RoundTripper
func (f RoundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

// Chain wraps base with the given middleware. The first middleware is the outermost.
func Chain(base http.RoundTripper, middlewares ...Middleware) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	for i := len(middlewares) - 1; i >= 0; i-- {
		base = middlewares[i](base)
	}
	return base
}

// DefaultMiddlewareStack returns the middleware every API request goes through
func DefaultMiddlewareStack(tokens TokenSource, logger *zap.Logger) []Middleware {
	return []Middleware{
		RequestID(),
		JSONHeaders(),
		BearerAuth(tokens),
		LoggingMiddleware(logger),
	}
}

// JSONHeaders marks requests as exchanging JSON
func JSONHeaders() Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			r = r.Clone(r.Context())
			r.Header.Set("Accept", "application/json")
			if r.Body != nil && r.Header.Get("Content-Type") == "" {
				r.Header.Set("Content-Type", "application/json")
			}
			return next.RoundTrip(r)
		})
	}
}
