package model

import (
	"time"

	"github.com/google/uuid"
)

// RequirementKind names one of the DNS record checks attached to a claim.
type RequirementKind string

const (
	RequirementTXT   RequirementKind = "txt"
	RequirementCNAME RequirementKind = "cname"
	RequirementA     RequirementKind = "a"
)

// Requirement is one DNS record a tenant must publish, with its verification
// state.
type Requirement struct {
	Name          string `json:"name"`
	FQDN          string `json:"fqdn"`
	ExpectedValue string `json:"expected_value"`
	Verified      bool   `json:"verified"`
}

// Claim is one tenant's custom-domain claim. A tenant holds at most one
// claim, and a hostname is claimed by at most one tenant.
//
// CNAME is nil for apex claims; A is nil for subdomain claims; TXT is
// always present and its expected value never changes once generated.
type Claim struct {
	ID          uuid.UUID `json:"id"`
	TenantID    uuid.UUID `json:"tenant_id"`
	Hostname    string    `json:"hostname"`
	IsSubdomain bool      `json:"is_subdomain"`
	ApexDomain  string    `json:"apex_domain"`

	TXT   *Requirement `json:"txt"`
	CNAME *Requirement `json:"cname,omitempty"`
	A     *Requirement `json:"a,omitempty"`

	Verified     bool       `json:"verified"`
	Secure       bool       `json:"secure"`
	DispatchedAt *time.Time `json:"dispatched_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Requirements returns the applicable requirements keyed by kind.
func (c *Claim) Requirements() map[RequirementKind]*Requirement {
	reqs := map[RequirementKind]*Requirement{RequirementTXT: c.TXT}
	if c.CNAME != nil {
		reqs[RequirementCNAME] = c.CNAME
	}
	if c.A != nil {
		reqs[RequirementA] = c.A
	}
	return reqs
}

// AllRequirementsVerified reports whether every applicable requirement has
// been individually verified. The stored Verified flag is derived from this
// and only ever set through the repository's compare-and-set update.
func (c *Claim) AllRequirementsVerified() bool {
	for _, req := range c.Requirements() {
		if req == nil || !req.Verified {
			return false
		}
	}
	return true
}

// ProvisionKind returns the dispatcher routing kind for the claim topology.
func (c *Claim) ProvisionKind() string {
	if c.IsSubdomain {
		return "subdomain"
	}
	return "domain"
}
