package tenants

import (
	"time"

	"github.com/google/uuid"
)

// Tenant is one community on the platform. Every tenant is reachable on a
// platform subdomain derived from its slug; a verified custom domain, when
// present, is layered on top by the domain subsystem.
type Tenant struct {
	ID           uuid.UUID `json:"id"            db:"id"`
	Slug         string    `json:"slug"          db:"slug"`
	Name         string    `json:"name"          db:"name"`
	ContactEmail string    `json:"contact_email" db:"contact_email"`
	CreatedAt    time.Time `json:"created_at"    db:"created_at"`
}

// PlatformHostname returns the tenant's default hostname under the platform
// zone, e.g. "acme.hearth.network".
func (t *Tenant) PlatformHostname(platformZone string) string {
	return t.Slug + "." + platformZone
}
