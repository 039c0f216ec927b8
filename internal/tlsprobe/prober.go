// Package tlsprobe checks whether a custom domain is already serving a
// valid certificate.
package tlsprobe

import (
	"context"
	"net/http"
	"time"
)

// Prober answers whether https://<hostname> completes a handshake and
// responds. Implementations never return an error: handshake failures,
// timeouts, and DNS failures all mean "not yet secure".
type Prober interface {
	Probe(ctx context.Context, hostname string) bool
}

// HTTPSProber issues a minimal HEAD request over TLS.
type HTTPSProber struct {
	client *http.Client
}

// New creates an HTTPSProber. A zero timeout defaults to 10 seconds.
func New(timeout time.Duration) *HTTPSProber {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &HTTPSProber{
		client: &http.Client{
			Timeout: timeout,
			// A redirect to the canonical host still proves the claimed
			// hostname presents a valid certificate; don't follow it.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Probe returns true when the handshake succeeds and the response status is
// in the 200–399 range.
func (p *HTTPSProber) Probe(ctx context.Context, hostname string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, "https://"+hostname, nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 400
}
