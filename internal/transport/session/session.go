// Package session provides the cookie-bearing HTTP session every registry
// lookup runs on.
//
// The registry correlates the submit and poll halves of an operation through
// its session cookie, so all calls that belong to one logical lookup must go
// through the same Session and parallel lookups must never share one.
package session

import (
	"context"
	"net/http"
	"net/url"
)

// Response is one raw round trip.
type Response struct {
	StatusCode int
	Body       []byte
	Header     http.Header
}

// OK reports whether the status code is 2xx.
func (r *Response) OK() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}

//go:generate mockgen -source=session.go -destination=mocks/mocks.go -package=mocks Session

// Session sends requests while preserving cookies across calls on the same instance.
type Session interface {
	Post(ctx context.Context, rawURL string, form url.Values) (*Response, error)
	Get(ctx context.Context, rawURL string) (*Response, error)
}

// Factory opens a fresh session for one logical lookup.
type Factory func() (Session, error)
