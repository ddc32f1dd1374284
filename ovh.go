package ovhdns

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
)

// DefaultEndpoint is the European OVH API endpoint.
const DefaultEndpoint = "https://eu.api.ovh.com/1.0"

// ErrMissingCredentials is returned before any network call is made when one
// of the three API keys is empty.
var ErrMissingCredentials = errors.New("missing OVH API credentials: OVH_APPLICATION_KEY, OVH_APPLICATION_SECRET and OVH_CONSUMER_KEY are required")

// APIError is a non-2xx response from the registrar.
// Responses are surfaced, never retried.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s returned %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// ovhProvider implements Provider against the OVH REST API for one zone.
//
// Every call is signed with the application secret and consumer key over a
// timestamp fetched fresh from the registrar's time endpoint, so clock skew
// on the host does not matter. A rejected signature is a fatal
// authentication error for the call; there is no retry.
type ovhProvider struct {
	creds    Credentials
	endpoint string
	zone     string
	http     *http.Client
	logger   *log.Logger
}

func newOVHProvider(creds Credentials, domain string) (*ovhProvider, error) {
	zone, err := idna.ToASCII(domain)
	if err != nil {
		return nil, fmt.Errorf("error normalizing domain %q: %w", domain, err)
	}
	return &ovhProvider{
		creds:    creds,
		endpoint: DefaultEndpoint,
		zone:     zone,
		logger:   discard,
	}, nil
}

// sign computes the request signature the registrar expects:
// "$1$" followed by the hex SHA1 of the secret, consumer key, method, full
// URL, body and server timestamp joined with "+".
func sign(secret, consumerKey, method, fullURL, body, serverTime string) string {
	sum := sha1.Sum([]byte(secret + "+" + consumerKey + "+" + method + "+" + fullURL + "+" + body + "+" + serverTime))
	return "$1$" + hex.EncodeToString(sum[:])
}

func (p *ovhProvider) httpClient() *http.Client {
	if p.http != nil {
		return p.http
	}
	return http.DefaultClient
}

// serverTime fetches the registrar's current unix time.
// The time endpoint is unauthenticated and must be hit once per signed call.
func (p *ovhProvider) serverTime(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint+"/auth/time", nil)
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	resp, err := p.httpClient().Do(req)
	if err != nil {
		return "", fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &APIError{Method: http.MethodGet, Path: "/auth/time", StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return strings.TrimSpace(string(body)), nil
}

// call issues one signed request and returns the raw response body.
// Only GET, POST, PUT and DELETE are supported.
func (p *ovhProvider) call(ctx context.Context, method, path, body string) ([]byte, error) {
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete:
	default:
		return nil, fmt.Errorf("unsupported method %q", method)
	}
	if !p.creds.Complete() {
		return nil, ErrMissingCredentials
	}

	serverTime, err := p.serverTime(ctx)
	if err != nil {
		return nil, fmt.Errorf("error fetching server time: %w", err)
	}

	fullURL := p.endpoint + path
	var reqBody io.Reader
	if body != "" {
		reqBody = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, fullURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("X-Ovh-Application", p.creds.AppKey)
	req.Header.Set("X-Ovh-Consumer", p.creds.ConsumerKey)
	req.Header.Set("X-Ovh-Timestamp", serverTime)
	req.Header.Set("X-Ovh-Signature", sign(p.creds.AppSecret, p.creds.ConsumerKey, method, fullURL, body, serverTime))
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}
	return respBody, nil
}

// Records lists the zone's records matching filter.
// The registrar returns record IDs; each record's detail is fetched with one
// additional call. Records whose detail fetch fails are skipped and logged.
func (p *ovhProvider) Records(ctx context.Context, filter RecordFilter) ([]Record, error) {
	path := "/domain/zone/" + p.zone + "/record"
	query := url.Values{}
	if filter.FieldType != "" {
		query.Set("fieldType", filter.FieldType)
	}
	if filter.SubDomain != "" {
		sub, err := idna.ToASCII(filter.SubDomain)
		if err != nil {
			return nil, fmt.Errorf("error normalizing subdomain %q: %w", filter.SubDomain, err)
		}
		query.Set("subDomain", sub)
	}
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	body, err := p.call(ctx, http.MethodGet, path, "")
	if err != nil {
		return nil, fmt.Errorf("error listing records: %w", err)
	}
	var ids []int64
	if err := json.Unmarshal(body, &ids); err != nil {
		return nil, fmt.Errorf("error parsing record IDs: %w", err)
	}

	records := make([]Record, 0, len(ids))
	for _, id := range ids {
		r, err := p.record(ctx, id)
		if err != nil {
			p.logger.Printf("skipping record %d: %s", id, err)
			continue
		}
		records = append(records, r)
	}
	return records, nil
}

func (p *ovhProvider) record(ctx context.Context, id int64) (Record, error) {
	body, err := p.call(ctx, http.MethodGet, fmt.Sprintf("/domain/zone/%s/record/%d", p.zone, id), "")
	if err != nil {
		return Record{}, err
	}
	var r Record
	if err := json.Unmarshal(body, &r); err != nil {
		return Record{}, fmt.Errorf("error parsing record %d: %w", id, err)
	}
	return r, nil
}

// CreateRecord stages a new record in the zone and returns it as stored,
// including the registrar-assigned ID. The record is not served until the
// zone is refreshed.
func (p *ovhProvider) CreateRecord(ctx context.Context, r Record) (Record, error) {
	sub, err := idna.ToASCII(r.SubDomain)
	if err != nil {
		return Record{}, fmt.Errorf("error normalizing subdomain %q: %w", r.SubDomain, err)
	}
	reqBody, err := json.Marshal(struct {
		FieldType string `json:"fieldType"`
		SubDomain string `json:"subDomain"`
		Target    string `json:"target"`
		TTL       int    `json:"ttl"`
	}{r.FieldType, sub, r.Target, r.TTL})
	if err != nil {
		return Record{}, fmt.Errorf("error encoding record: %w", err)
	}

	body, err := p.call(ctx, http.MethodPost, "/domain/zone/"+p.zone+"/record", string(reqBody))
	if err != nil {
		return Record{}, err
	}
	var created Record
	if err := json.Unmarshal(body, &created); err != nil {
		return Record{}, fmt.Errorf("error parsing created record: %w", err)
	}
	return created, nil
}

// DeleteRecord stages the removal of the record with the given ID.
func (p *ovhProvider) DeleteRecord(ctx context.Context, id int64) error {
	_, err := p.call(ctx, http.MethodDelete, fmt.Sprintf("/domain/zone/%s/record/%d", p.zone, id), "")
	return err
}

// Refresh commits staged zone edits into the live, served zone.
func (p *ovhProvider) Refresh(ctx context.Context) error {
	_, err := p.call(ctx, http.MethodPost, "/domain/zone/"+p.zone+"/refresh", "")
	return err
}
