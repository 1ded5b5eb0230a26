package iox

import (
	"net/http"
	"time"
)

// BearerTransport is an http.RoundTripper that adds a bearer token to
// every outgoing request. Base defaults to http.DefaultTransport.
type BearerTransport struct {
	Token string
	Base  http.RoundTripper
}

// RoundTrip implements http.RoundTripper. The request is cloned before
// mutation per the RoundTripper contract.
func (t *BearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "Bearer "+t.Token)
	return base.RoundTrip(clone)
}

// NewBearerClient returns an http.Client whose requests carry the token.
func NewBearerClient(token string, timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: &BearerTransport{Token: token},
	}
}
