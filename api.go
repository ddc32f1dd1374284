package ovhdns

import (
	"context"
	"net/netip"
)

// Record is a single entry in a DNS zone as the registrar stores it.
// Identity is the registrar-assigned ID.
// An empty SubDomain names the zone apex.
type Record struct {
	ID        int64  `json:"id"`
	SubDomain string `json:"subDomain"`
	FieldType string `json:"fieldType"`
	Target    string `json:"target"`
	TTL       int    `json:"ttl"`
}

// FQDN returns the fully qualified name of the record within domain.
func (r Record) FQDN(domain string) string {
	return FQDN(r.SubDomain, domain)
}

// FQDN joins a subdomain and a domain.
// An empty subdomain names the zone apex.
func FQDN(subdomain, domain string) string {
	if subdomain == "" {
		return domain
	}
	return subdomain + "." + domain
}

// RecordFilter narrows a zone listing. Empty fields are not applied.
type RecordFilter struct {
	FieldType string
	SubDomain string
}

// Provider is the registrar-side record API for a single zone.
type Provider interface {
	Records(ctx context.Context, filter RecordFilter) ([]Record, error)
	CreateRecord(ctx context.Context, r Record) (Record, error)
	DeleteRecord(ctx context.Context, id int64) error
	Refresh(ctx context.Context) error
}

// Resolver discovers the public IP address of the host.
type Resolver interface {
	Resolve(context.Context) (netip.Addr, error)
}
