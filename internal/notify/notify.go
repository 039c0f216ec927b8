// Package notify delivers tenant-facing notifications for the custom-domain
// subsystem.
package notify

import (
	"context"
	"fmt"
)

// Notifier informs a tenant about domain lifecycle events. Delivery is
// fire-and-forget: callers log failures and move on.
type Notifier interface {
	// DomainSecured tells the tenant that https://<hostname> is live.
	// previousHostname is the platform subdomain the community answered on
	// before, included for contrast.
	DomainSecured(ctx context.Context, to, hostname, previousHostname string) error
}

// securedSubject and securedBody build the domain-secured notice.
func securedSubject(hostname string) string {
	return fmt.Sprintf("Your custom domain %s is live", hostname)
}

func securedBody(hostname, previousHostname string) string {
	return fmt.Sprintf(
		"Good news — your community is now being served securely at https://%s.\n\n"+
			"Your previous address, https://%s, keeps working and redirects visitors "+
			"to the new domain.\n\n— The Hearth team\n",
		hostname, previousHostname)
}
