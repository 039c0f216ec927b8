// Package dnscheck computes the DNS record requirements for a custom-domain
// claim and resolves them against the public DNS.
//
// A claim carries up to three requirements:
//
//   - TXT: an ownership proof token at _hearth-challenge.<apex>, always required.
//   - CNAME: the subdomain aliased to the platform's canonical target,
//     required only for subdomain claims.
//   - A: the apex pointed at the platform's inbound IPv4 address,
//     required only for apex claims.
package dnscheck

import (
	"crypto/rand"
	"fmt"
	"strings"

	"github.com/hearthhq/hearth/pkg/hostname"
)

// txtChallengeLabel is the conventional verification label placed under the
// claim's apex zone.
const txtChallengeLabel = "_hearth-challenge"

// tokenPrefix tags verification tokens so they are recognizable among other
// TXT values at the same name.
const tokenPrefix = "hearth-domain-verify="

const tokenAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const tokenLength = 16

// Requirement is one DNS record the tenant must publish.
type Requirement struct {
	// Name is the record name relative to the zone ("blog", "@",
	// "_hearth-challenge").
	Name string
	// FQDN is the fully qualified name the check resolves.
	FQDN string
	// ExpectedValue is the record value that satisfies the check.
	ExpectedValue string
}

// TXTRequirement builds the ownership-proof requirement for a claim.
// The token is generated once at claim time and never regenerated.
func TXTRequirement(h *hostname.Hostname, token string) Requirement {
	return Requirement{
		Name:          txtChallengeLabel,
		FQDN:          txtChallengeLabel + "." + h.Apex(),
		ExpectedValue: tokenPrefix + token,
	}
}

// CNAMERequirement builds the alias requirement for a subdomain claim.
// target is the platform's canonical alias hostname.
func CNAMERequirement(h *hostname.Hostname, target string) Requirement {
	return Requirement{
		Name:          h.SubdomainLabels(),
		FQDN:          h.String(),
		ExpectedValue: normalizeName(target),
	}
}

// ARequirement builds the address requirement for an apex claim.
// inboundIP is the platform's published IPv4 address.
func ARequirement(h *hostname.Hostname, inboundIP string) Requirement {
	return Requirement{
		Name:          "@",
		FQDN:          h.Apex(),
		ExpectedValue: inboundIP,
	}
}

// NewToken generates a random alphanumeric verification token. Bytes at or
// above the largest multiple of the alphabet size are redrawn, keeping the
// character distribution uniform.
func NewToken() (string, error) {
	const limit = 256 - 256%len(tokenAlphabet)

	token := make([]byte, 0, tokenLength)
	buf := make([]byte, tokenLength)
	for len(token) < tokenLength {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("generate token: %w", err)
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			token = append(token, tokenAlphabet[int(b)%len(tokenAlphabet)])
			if len(token) == tokenLength {
				break
			}
		}
	}
	return string(token), nil
}

// MatchTXT reports whether the expected value is present among the TXT
// values returned for a name. Matching is exact, not substring: a token
// embedded in an unrelated record does not verify.
func MatchTXT(records []string, expected string) bool {
	for _, rec := range records {
		if rec == expected {
			return true
		}
	}
	return false
}

// MatchCNAME reports whether the expected alias target is present among the
// resolved canonical names. Comparison ignores case and trailing dots.
func MatchCNAME(records []string, expected string) bool {
	want := normalizeName(expected)
	for _, rec := range records {
		if normalizeName(rec) == want {
			return true
		}
	}
	return false
}

// MatchA reports whether the expected IPv4 address is present among the
// resolved addresses.
func MatchA(records []string, expected string) bool {
	for _, rec := range records {
		if rec == expected {
			return true
		}
	}
	return false
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSuffix(name, "."))
}
