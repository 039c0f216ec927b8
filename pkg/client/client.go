// Package client provides a typed Go client for the Hearth custom-domain
// admin API. It is used by the domainctl CLI and is suitable for platform
// automation that manages tenant domains.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Requirement mirrors one DNS record requirement on a claim.
type Requirement struct {
	Name          string `json:"name"`
	FQDN          string `json:"fqdn"`
	ExpectedValue string `json:"expected_value"`
	Verified      bool   `json:"verified"`
}

// DomainClaim mirrors the API's claim representation.
type DomainClaim struct {
	ID           string       `json:"id"`
	TenantID     string       `json:"tenant_id"`
	Hostname     string       `json:"hostname"`
	IsSubdomain  bool         `json:"is_subdomain"`
	ApexDomain   string       `json:"apex_domain"`
	TXT          *Requirement `json:"txt"`
	CNAME        *Requirement `json:"cname,omitempty"`
	A            *Requirement `json:"a,omitempty"`
	Verified     bool         `json:"verified"`
	Secure       bool         `json:"secure"`
	DispatchedAt *time.Time   `json:"dispatched_at,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// ClaimResult is the response to a successful claim.
type ClaimResult struct {
	Claim        DomainClaim `json:"claim"`
	Instructions string      `json:"instructions"`
}

// ProbeResult is the response to a TLS probe request.
type ProbeResult struct {
	ID       string `json:"id"`
	Hostname string `json:"hostname"`
	Secure   bool   `json:"secure"`
}

// APIError is a non-2xx response from the admin API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (HTTP %d): %s", e.Status, e.Message)
}

// Client talks to the Hearth admin API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithToken attaches a tenant bearer token to every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New creates a Client for the given API base URL (e.g.
// "https://admin.hearth.network").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ClaimDomain registers a custom domain for the authenticated tenant and
// returns the DNS records to publish.
func (c *Client) ClaimDomain(ctx context.Context, hostname string) (*ClaimResult, error) {
	var out ClaimResult
	err := c.do(ctx, http.MethodPost, "/api/v1/domains",
		map[string]string{"hostname": hostname}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CurrentDomain returns the authenticated tenant's claim.
func (c *Client) CurrentDomain(ctx context.Context) (*DomainClaim, error) {
	var out DomainClaim
	if err := c.do(ctx, http.MethodGet, "/api/v1/domains", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Recheck re-resolves the claim's outstanding DNS requirements.
func (c *Client) Recheck(ctx context.Context, claimID string) (*DomainClaim, error) {
	var out DomainClaim
	if err := c.do(ctx, http.MethodPost, "/api/v1/domains/"+claimID+"/recheck", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ProbeTLS checks whether the domain is serving a valid certificate.
func (c *Client) ProbeTLS(ctx context.Context, claimID string) (*ProbeResult, error) {
	var out ProbeResult
	if err := c.do(ctx, http.MethodPost, "/api/v1/domains/"+claimID+"/probe-tls", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Redispatch re-enqueues provisioning for a verified claim whose hand-off
// was lost.
func (c *Client) Redispatch(ctx context.Context, claimID string) (*DomainClaim, error) {
	var out DomainClaim
	if err := c.do(ctx, http.MethodPost, "/api/v1/domains/"+claimID+"/redispatch", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteDomain hard-deletes the claim.
func (c *Client) DeleteDomain(ctx context.Context, claimID string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/domains/"+claimID, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if err := json.Unmarshal(data, &apiErr); err != nil || apiErr.Error == "" {
			apiErr.Error = strings.TrimSpace(string(data))
		}
		return &APIError{Status: resp.StatusCode, Message: apiErr.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
