package images

import (
	"time"

	"budgetmanager/priceworker/helpers"
)

// Transport abstracts the network calls the resolution chain makes, so
// tests can count invocations and force failures per stage
type Transport interface {
	// Get fetches a catalog API response body
	Get(url string) ([]byte, error)

	// Validate probes whether a URL serves a live image
	Validate(url string) bool
}

// HTTPTransport implements Transport over the shared fetch helpers
type HTTPTransport struct {
	Timeout time.Duration
}

// Get fetches a URL body
func (t *HTTPTransport) Get(url string) ([]byte, error) {
	return helpers.Fetch(url, helpers.FetchOptions{Timeout: t.Timeout})
}

// Validate issues a HEAD probe; it never fails loudly
func (t *HTTPTransport) Validate(url string) bool {
	return helpers.ValidateImageURL(url)
}
