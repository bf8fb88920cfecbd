package testutil

import (
	"net/http"
	"time"

	id "namemart/pkg/domain"
	"namemart/pkg/requestcontext"
)

// WithCaller attaches an authenticated caller to the request context,
// simulating what the auth middleware does for valid tokens.
func WithCaller(req *http.Request, caller id.Address) *http.Request {
	return req.WithContext(requestcontext.WithCaller(req.Context(), caller))
}

// WithTime pins the request clock, simulating the request-time middleware.
func WithTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}
