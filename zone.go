package ovhdns

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
)

// DefaultTTL is applied when a SetRequest does not specify one.
const DefaultTTL = 3600

var discard = log.New(io.Discard, "", log.LstdFlags)

// New returns a Zone bound to domain.
// A registrar provider must be registered with UsingOVH or UsingProvider.
func New(domain string, options ...ZoneOption) (*Zone, error) {
	if domain == "" {
		return nil, fmt.Errorf("ovhdns.New: domain cannot be empty")
	}
	z := &Zone{
		domain:   domain,
		resolver: WebResolver(),
		logger:   discard,
	}
	for i, opt := range options {
		if err := opt(z); err != nil {
			return nil, fmt.Errorf("ovhdns.New: option %d returned an error: %w", i, err)
		}
	}
	if z.provider == nil {
		return nil, fmt.Errorf("ovhdns.New: no registrar provider was registered - use ovhdns.UsingOVH or ovhdns.UsingProvider")
	}

	// this lets us propagate the logger to dependencies that use one if WithLogger was called before all of the dependencies were registered
	withLogger(z.logger)(z)
	return z, nil
}

type ZoneOption func(*Zone) error

// UsingOVH registers the OVH registrar API as the zone's provider.
func UsingOVH(creds Credentials) ZoneOption {
	return func(z *Zone) error {
		if !creds.Complete() {
			return ErrMissingCredentials
		}
		p, err := newOVHProvider(creds, z.domain)
		if err != nil {
			return fmt.Errorf("ovhdns.UsingOVH: error creating OVH provider: %w", err)
		}
		z.provider = p
		return nil
	}
}

// UsingProvider registers a custom registrar provider.
func UsingProvider(p Provider) ZoneOption {
	return func(z *Zone) error {
		if p == nil {
			return fmt.Errorf("provider cannot be nil")
		}
		z.provider = p
		return nil
	}
}

// UsingResolver sets the resolver used to discover the public IP for
// address records with no explicit target.
func UsingResolver(resolver Resolver) ZoneOption {
	return func(z *Zone) error {
		if resolver == nil {
			resolver = WebResolver()
		}
		z.resolver = resolver
		return nil
	}
}

// UsingWebResolver sets the public IP resolver to the given echo services,
// tried in order.
func UsingWebResolver(serviceURL ...string) ZoneOption {
	return func(z *Zone) error {
		z.resolver = WebResolver(serviceURL...)
		return nil
	}
}

func WithLogger(logger *log.Logger) ZoneOption {
	return func(z *Zone) error {
		z.logger = logger
		return nil
	}
}

func withLogger(logger *log.Logger) ZoneOption {
	return func(z *Zone) error {
		if logger == nil {
			logger = discard
		}
		type setLogger interface {
			SetLogger(*log.Logger)
		}

		switch p := z.provider.(type) {
		case *ovhProvider:
			p.logger = logger
		case setLogger:
			p.SetLogger(logger)
		}
		return nil
	}
}

func UsingHTTPClient(httpclient *http.Client) ZoneOption {
	return func(z *Zone) error {
		if httpclient == nil {
			httpclient = http.DefaultClient
		}
		type setHTTPClient interface {
			SetHTTPClient(*http.Client)
		}
		switch r := z.resolver.(type) {
		case *webResolver:
			r.httpClient = httpclient
		case setHTTPClient:
			r.SetHTTPClient(httpclient)
		}
		switch p := z.provider.(type) {
		case *ovhProvider:
			p.http = httpclient
		case setHTTPClient:
			p.SetHTTPClient(httpclient)
		}
		return nil
	}
}

// Zone manages the records of one domain through a registrar provider.
type Zone struct {
	provider Provider
	resolver Resolver
	logger   *log.Logger
	domain   string
}

// Domain returns the zone's domain name.
func (z *Zone) Domain() string {
	return z.domain
}

// Records lists the zone's records matching filter.
func (z *Zone) Records(ctx context.Context, filter RecordFilter) ([]Record, error) {
	return z.provider.Records(ctx, filter)
}

// Refresh commits staged record edits into the served zone.
func (z *Zone) Refresh(ctx context.Context) error {
	return z.provider.Refresh(ctx)
}

// SetRequest describes the desired state of one (subdomain, type) pair.
//
// An empty Target is filled in before any registrar call:
// CNAME records point at the zone apex (with a trailing dot),
// and A or AAAA records take the public IP reported by the zone's resolver.
// A resolver failure aborts the whole operation.
type SetRequest struct {
	SubDomain string
	FieldType string
	Target    string
	TTL       int
}

// SetResult reports what Set changed.
type SetResult struct {
	// Target is the target that was applied, after any defaulting.
	Target string
	// Deleted holds records that conflicted with the desired state.
	Deleted []Record
	// Created is the new record, or nil when an existing record already
	// carried the desired target.
	Created *Record
	// Refreshed reports whether the zone refresh after a mutation succeeded.
	Refreshed bool
}

// Changed reports whether Set issued any mutating registrar call.
func (r SetResult) Changed() bool {
	return len(r.Deleted) > 0 || r.Created != nil
}

// Set reconciles the (SubDomain, FieldType) pair to the requested target.
//
// If exactly one matching record already carries the target, nothing is
// mutated. Otherwise at most one matching record with the desired target is
// kept, every other matching record is deleted, a record is created when
// none was kept, and the zone is refreshed once. A refresh failure is
// logged, not returned: the mutation already happened and only propagation
// is delayed.
func (z *Zone) Set(ctx context.Context, req SetRequest) (SetResult, error) {
	var result SetResult
	if req.FieldType == "" {
		req.FieldType = "CNAME"
	}
	if req.TTL == 0 {
		req.TTL = DefaultTTL
	}

	target := req.Target
	if target == "" {
		switch req.FieldType {
		case "CNAME":
			target = z.domain + "."
		case "A", "AAAA":
			addr, err := z.resolver.Resolve(ctx)
			if err != nil {
				return result, fmt.Errorf("unable to determine public IP: %w", err)
			}
			target = addr.String()
		default:
			return result, fmt.Errorf("a target is required for %s records", req.FieldType)
		}
	}
	result.Target = target

	matches, err := z.provider.Records(ctx, RecordFilter{FieldType: req.FieldType, SubDomain: req.SubDomain})
	if err != nil {
		return result, fmt.Errorf("error listing existing records: %w", err)
	}

	if len(matches) == 1 && matches[0].Target == target {
		z.logger.Printf("record %s %s -> %s already exists", req.FieldType, FQDN(req.SubDomain, z.domain), target)
		return result, nil
	}

	kept := false
	for _, rec := range matches {
		if !kept && rec.Target == target {
			kept = true
			continue
		}
		z.logger.Printf("deleting conflicting %s record %d (%s -> %s)", rec.FieldType, rec.ID, rec.FQDN(z.domain), rec.Target)
		if err := z.provider.DeleteRecord(ctx, rec.ID); err != nil {
			return result, fmt.Errorf("error deleting conflicting record %d: %w", rec.ID, err)
		}
		result.Deleted = append(result.Deleted, rec)
	}

	if !kept {
		created, err := z.provider.CreateRecord(ctx, Record{
			SubDomain: req.SubDomain,
			FieldType: req.FieldType,
			Target:    target,
			TTL:       req.TTL,
		})
		if err != nil {
			return result, fmt.Errorf("error creating record: %w", err)
		}
		result.Created = &created
	}

	if err := z.provider.Refresh(ctx); err != nil {
		z.logger.Printf("warning: could not refresh zone %s: %s", z.domain, err)
	} else {
		result.Refreshed = true
	}
	return result, nil
}

// RecordError pairs a record with the error its deletion produced.
type RecordError struct {
	Record Record
	Err    error
}

// RemoveResult reports what Remove did, per record.
// Found == 0 means no matching record existed,
// which is distinct from records existing but failing to delete.
type RemoveResult struct {
	Found     int
	Deleted   []Record
	Failed    []RecordError
	Refreshed bool
}

// Remove deletes every record matching (subdomain, fieldType).
// Each deletion is attempted independently; the zone is refreshed only if
// at least one deletion succeeded.
func (z *Zone) Remove(ctx context.Context, subdomain, fieldType string) (RemoveResult, error) {
	var result RemoveResult
	records, err := z.provider.Records(ctx, RecordFilter{FieldType: fieldType, SubDomain: subdomain})
	if err != nil {
		return result, fmt.Errorf("error listing records: %w", err)
	}

	for _, rec := range records {
		if rec.SubDomain != subdomain {
			continue
		}
		result.Found++
		if err := z.provider.DeleteRecord(ctx, rec.ID); err != nil {
			z.logger.Printf("error deleting record %d: %s", rec.ID, err)
			result.Failed = append(result.Failed, RecordError{Record: rec, Err: err})
			continue
		}
		result.Deleted = append(result.Deleted, rec)
	}

	if len(result.Deleted) > 0 {
		if err := z.provider.Refresh(ctx); err != nil {
			z.logger.Printf("warning: could not refresh zone %s: %s", z.domain, err)
		} else {
			result.Refreshed = true
		}
	}
	return result, nil
}
