// Package hostname provides parsing and classification for tenant-claimed
// custom domains.
//
// A claimed name is either an apex domain (exactly two labels, e.g.
// "example.com") or a subdomain of a registered domain (three or more
// labels, e.g. "blog.example.com"). The classification decides which DNS
// records the tenant must configure: apex claims need an A record, subdomain
// claims need a CNAME, and both need a TXT ownership proof.
package hostname

import (
	"fmt"
	"strings"
)

// Hostname is a parsed, normalized custom-domain name.
type Hostname struct {
	raw    string
	labels []string
}

// Parse normalizes and validates a claimed hostname.
//
// Normalization lowercases the name and strips a single trailing dot.
// Validation enforces the letter-digit-hyphen rule per label, 1–63
// characters per label, and at least two labels. Wildcards are rejected.
func Parse(raw string) (*Hostname, error) {
	name := strings.ToLower(strings.TrimSpace(raw))
	name = strings.TrimSuffix(name, ".")

	if name == "" {
		return nil, fmt.Errorf("hostname must not be empty")
	}
	if len(name) > 253 {
		return nil, fmt.Errorf("hostname %q exceeds 253 characters", raw)
	}
	if strings.Contains(name, "*") {
		return nil, fmt.Errorf("wildcard hostname %q is not allowed", raw)
	}

	labels := strings.Split(name, ".")
	if len(labels) < 2 {
		return nil, fmt.Errorf("hostname %q must contain at least two labels", raw)
	}
	for _, label := range labels {
		if err := validateLabel(label); err != nil {
			return nil, fmt.Errorf("hostname %q: %w", raw, err)
		}
	}

	return &Hostname{raw: name, labels: labels}, nil
}

// MustParse parses a hostname and panics on error. Useful in tests.
func MustParse(raw string) *Hostname {
	h, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return h
}

// String returns the normalized hostname.
func (h *Hostname) String() string { return h.raw }

// IsSubdomain reports whether the name has more than two labels, i.e. is a
// subdomain of a registered domain rather than an apex.
func (h *Hostname) IsSubdomain() bool { return len(h.labels) > 2 }

// Apex returns the last two labels, the zone context for TXT record checks.
func (h *Hostname) Apex() string {
	return strings.Join(h.labels[len(h.labels)-2:], ".")
}

// SubdomainLabels returns the labels left of the apex, joined by dots
// ("blog" for blog.example.com, "a.b" for a.b.example.com). It returns ""
// for an apex name.
func (h *Hostname) SubdomainLabels() string {
	if !h.IsSubdomain() {
		return ""
	}
	return strings.Join(h.labels[:len(h.labels)-2], ".")
}

// validateLabel checks a single DNS label against the LDH rule.
func validateLabel(label string) error {
	if label == "" {
		return fmt.Errorf("empty label")
	}
	if len(label) > 63 {
		return fmt.Errorf("label %q exceeds 63 characters", label)
	}
	if label[0] == '-' || label[len(label)-1] == '-' {
		return fmt.Errorf("label %q must not start or end with a hyphen", label)
	}
	for i := 0; i < len(label); i++ {
		c := label[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9':
		case c == '-':
		default:
			return fmt.Errorf("label %q contains invalid character %q", label, string(c))
		}
	}
	return nil
}
