// internal/common/http/client.go
package http

import (
	"net/http"
	"time"
)

// Client is the shared outbound HTTP transport. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
}

// NewClient returns a client with the given overall timeout. A zero timeout
// leaves deadlines to the request context.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: newTransport(),
		},
	}
}

// newTransport keeps the idle pool small; the service runs on memory-constrained hosts.
func newTransport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 8
	t.MaxIdleConnsPerHost = 4
	t.IdleConnTimeout = 30 * time.Second
	return t
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.httpClient.Do(req)
}
