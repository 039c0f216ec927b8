package dnscheck

import (
	"context"
	"net"
	"time"
)

// Resolver performs the DNS lookups needed for requirement checks.
// Implementations must return an error (or an empty slice) when no records
// exist; they must never block beyond their configured timeout.
type Resolver interface {
	ResolveTXT(ctx context.Context, name string) ([]string, error)
	ResolveCNAME(ctx context.Context, name string) ([]string, error)
	ResolveA(ctx context.Context, name string) ([]string, error)
}

// NetResolver resolves records against the public DNS using net.Resolver.
type NetResolver struct {
	resolver *net.Resolver
	timeout  time.Duration
}

// NewNetResolver creates a NetResolver with a per-lookup timeout.
// A zero timeout defaults to 5 seconds.
func NewNetResolver(timeout time.Duration) *NetResolver {
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &NetResolver{resolver: net.DefaultResolver, timeout: timeout}
}

// ResolveTXT returns all TXT values published at name.
func (r *NetResolver) ResolveTXT(ctx context.Context, name string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.resolver.LookupTXT(ctx, name)
}

// ResolveCNAME returns the canonical name for name. The single result is
// returned as a slice for symmetry with the other lookups; the trailing dot
// is preserved and handled by MatchCNAME.
func (r *NetResolver) ResolveCNAME(ctx context.Context, name string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	cname, err := r.resolver.LookupCNAME(ctx, name)
	if err != nil {
		return nil, err
	}
	if cname == "" {
		return nil, &net.DNSError{Err: "no CNAME record", Name: name, IsNotFound: true}
	}
	return []string{cname}, nil
}

// ResolveA returns the IPv4 addresses published at name.
func (r *NetResolver) ResolveA(ctx context.Context, name string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	addrs, err := r.resolver.LookupIPAddr(ctx, name)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, addr := range addrs {
		if ip4 := addr.IP.To4(); ip4 != nil {
			out = append(out, ip4.String())
		}
	}
	if len(out) == 0 {
		return nil, &net.DNSError{Err: "no A record", Name: name, IsNotFound: true}
	}
	return out, nil
}
