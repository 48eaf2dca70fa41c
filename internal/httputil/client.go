// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared across stages.
package httputil

import (
	"net/http"

	"github.com/meshintel/formscan/pkg/types"
)

// DefaultUserAgent is sent when no User-Agent is configured.
const DefaultUserAgent = "formscan/0.1"

// NewClient builds an HTTP client with the configured timeout and a
// transport that stamps the User-Agent header on every request. Analyzer
// calls are never retried; a transport failure aborts the run.
func NewClient(cfg types.HTTPConfig) *http.Client {
	ua := cfg.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	return &http.Client{
		Timeout: cfg.Timeout,
		Transport: &userAgentTransport{
			userAgent: ua,
			next:      http.DefaultTransport,
		},
	}
}

// userAgentTransport sets the User-Agent header unless the request already
// carries one.
type userAgentTransport struct {
	userAgent string
	next      http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", t.userAgent)
	}
	return t.next.RoundTrip(req)
}
