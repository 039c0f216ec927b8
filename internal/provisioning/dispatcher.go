// Package provisioning hands fully verified custom domains to the routing
// and certificate-issuance workers.
//
// The hand-off is fire-and-forget: the workers consume jobs from a queue
// and report nothing back to this subsystem. Certificate issuance and edge
// routing themselves live downstream.
package provisioning

import (
	"context"

	"github.com/hearthhq/hearth/internal/domain/model"
)

// Job is the queue payload for one verified domain.
type Job struct {
	ClaimID    string `json:"claim_id"`
	TenantID   string `json:"tenant_id"`
	Hostname   string `json:"hostname"`
	ApexDomain string `json:"apex_domain"`
	// Kind is "domain" for apex claims and "subdomain" otherwise; the edge
	// workers pick the routing template from it.
	Kind string `json:"kind"`
}

// Dispatcher enqueues provisioning work for a verified claim.
type Dispatcher interface {
	Dispatch(ctx context.Context, claim *model.Claim, kind string) error
}

// NewJob builds the queue payload for a claim.
func NewJob(claim *model.Claim, kind string) Job {
	return Job{
		ClaimID:    claim.ID.String(),
		TenantID:   claim.TenantID.String(),
		Hostname:   claim.Hostname,
		ApexDomain: claim.ApexDomain,
		Kind:       kind,
	}
}
