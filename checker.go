package ovhdns

import (
	"context"
	"fmt"
	"net"
)

// HostResolver is the subset of *net.Resolver used by Check.
type HostResolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// Check resolves the name built from subdomain and domain through resolver,
// or net.DefaultResolver when resolver is nil, and returns the addresses.
//
// This checks the resolver path of the invoking machine,
// not the registrar's authoritative zone:
// a freshly committed record can take a while to show up here.
func Check(ctx context.Context, resolver HostResolver, subdomain, domain string) ([]string, error) {
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	fqdn := FQDN(subdomain, domain)
	addrs, err := resolver.LookupHost(ctx, fqdn)
	if err != nil {
		return nil, fmt.Errorf("resolution failed for %s: %w", fqdn, err)
	}
	return addrs, nil
}
