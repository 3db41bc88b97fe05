package middleware

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenSource returns the bearer token for the current session, or "" when there is none
type TokenSource func() string

// BearerAuth attaches the session token to outbound requests
func BearerAuth(tokens TokenSource) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			if tokens == nil {
				return next.RoundTrip(r)
			}
			token := tokens()
			if token == "" {
				return next.RoundTrip(r)
			}
			r = r.Clone(r.Context())
			r.Header.Set("Authorization", "Bearer "+token)
			return next.RoundTrip(r)
		})
	}
}

// TokenExpiry reads the exp claim of a JWT without verifying its signature.
// The server remains the authority on validity; the console only uses this to
// avoid resuming a session whose token has already lapsed.
func TokenExpiry(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// TokenExpired reports whether token carries an exp claim that is before now
func TokenExpired(token string, now time.Time) bool {
	exp, ok := TokenExpiry(token)
	return ok && now.After(exp)
}
