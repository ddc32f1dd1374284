package ovhdns

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/netip"
	"strings"
	"time"
)

// DefaultWebServices are the IP echo services used when none are configured.
var DefaultWebServices = []string{
	"https://api.ipify.org",
	"https://ifconfig.me",
}

const webLookupTimeout = 5 * time.Second

// WebResolver constructs a resolver which uses external web services to look
// up a "public" IP address.
//
// Each serviceURL must speak http and return status "200 OK",
// with a valid IPv4 or IPv6 address as the first line of the response body.
// All other responses are considered an error.
//
// Services are tried in order and the first usable answer wins,
// so later URLs act as fallbacks for the first.
// With no arguments the resolver uses DefaultWebServices.
//
// The recommended approach is to run your own service over https.
func WebResolver(serviceURL ...string) Resolver {
	if len(serviceURL) == 0 {
		serviceURL = DefaultWebServices
	}
	return &webResolver{services: serviceURL}
}

type webResolver struct {
	httpClient *http.Client
	services   []string
}

// Resolve implements ovhdns.Resolver.
func (wr *webResolver) Resolve(ctx context.Context) (netip.Addr, error) {
	var errs []error
	for _, service := range wr.services {
		addr, err := wr.lookup(ctx, service)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", service, err))
			continue
		}
		return addr, nil
	}
	return netip.Addr{}, fmt.Errorf("no IP echo service returned a usable address: %w", errors.Join(errs...))
}

func (wr *webResolver) lookup(ctx context.Context, service string) (netip.Addr, error) {
	// The timeout is generous for the size of the request we're making,
	// but it ensures the fallback chain advances even if the caller
	// supplied context.TODO or context.Background.
	ctx, cancel := context.WithTimeout(ctx, webLookupTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, service, nil)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-cache")

	httpclient := wr.httpClient
	if httpclient == nil {
		httpclient = http.DefaultClient
	}

	resp, err := httpclient.Do(req)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return netip.Addr{}, fmt.Errorf("http request returned %s", resp.Status)
	}

	scanner := bufio.NewReader(resp.Body)
	ipstring, _ := scanner.ReadString('\n')
	ip, err := netip.ParseAddr(strings.TrimSpace(ipstring))
	if err != nil {
		return netip.Addr{}, fmt.Errorf("error parsing IP address from response body: %w", err)
	}
	return ip, nil
}
