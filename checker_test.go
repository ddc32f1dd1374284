package ovhdns_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jblemee/ovhdns"
)

type hostResolverFunc func(ctx context.Context, host string) ([]string, error)

func (f hostResolverFunc) LookupHost(ctx context.Context, host string) ([]string, error) {
	return f(ctx, host)
}

func TestCheck(t *testing.T) {
	var looked string
	resolver := hostResolverFunc(func(_ context.Context, host string) ([]string, error) {
		looked = host
		return []string{"203.0.113.5"}, nil
	})

	addrs, err := ovhdns.Check(context.Background(), resolver, "www", "example.com")
	if err != nil {
		t.Fatalf("Check failed: %s", err)
	}
	if looked != "www.example.com" {
		t.Errorf("resolved %q; want %q", looked, "www.example.com")
	}
	if len(addrs) != 1 || addrs[0] != "203.0.113.5" {
		t.Errorf("unexpected addresses: %+v", addrs)
	}
}

func TestCheckApex(t *testing.T) {
	resolver := hostResolverFunc(func(_ context.Context, host string) ([]string, error) {
		if host != "example.com" {
			t.Errorf("resolved %q; want the apex %q", host, "example.com")
		}
		return []string{"203.0.113.5"}, nil
	})
	if _, err := ovhdns.Check(context.Background(), resolver, "", "example.com"); err != nil {
		t.Fatalf("Check failed: %s", err)
	}
}

func TestCheckResolutionFailure(t *testing.T) {
	lookupErr := errors.New("no such host")
	resolver := hostResolverFunc(func(context.Context, string) ([]string, error) {
		return nil, lookupErr
	})

	_, err := ovhdns.Check(context.Background(), resolver, "missing", "example.com")
	if !errors.Is(err, lookupErr) {
		t.Fatalf("expected the lookup error to be wrapped; got %v", err)
	}
}
