package ovhdns_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"

	"github.com/jblemee/ovhdns"
)

func TestLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "192.0.2.1\n")
	}))
	defer srv.Close()

	wr := ovhdns.WebResolver(srv.URL)
	addr, err := wr.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve failed: %s", err)
	}
	if expected := netip.MustParseAddr("192.0.2.1"); addr != expected {
		t.Fatalf("Expected %q; got %q", expected, addr)
	}
}

func TestFallbackOnServerError(t *testing.T) {
	var primaryHits int
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		primaryHits++
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
	}))
	defer primary.Close()
	secondary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "198.51.100.7")
	}))
	defer secondary.Close()

	wr := ovhdns.WebResolver(primary.URL, secondary.URL)
	addr, err := wr.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve failed: %s", err)
	}
	if expected := netip.MustParseAddr("198.51.100.7"); addr != expected {
		t.Fatalf("Expected %q; got %q", expected, addr)
	}
	if primaryHits != 1 {
		t.Fatalf("Expected 1 hit on the primary service; got %d", primaryHits)
	}
}

func TestFallbackOnUnparseableBody(t *testing.T) {
	garbage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "<html>not an ip</html>")
	}))
	defer garbage.Close()
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "2001:db8::1")
	}))
	defer good.Close()

	wr := ovhdns.WebResolver(garbage.URL, good.URL)
	addr, err := wr.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve failed: %s", err)
	}
	if expected := netip.MustParseAddr("2001:db8::1"); addr != expected {
		t.Fatalf("Expected %q; got %q", expected, addr)
	}
}

func TestAllServicesFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	wr := ovhdns.WebResolver(srv.URL, srv.URL)
	addr, err := wr.Resolve(context.Background())
	if err == nil {
		t.Fatalf("Expected error response; got err == nil")
	}
	if addr != (netip.Addr{}) {
		t.Fatalf("Expected zero address; got %q", addr)
	}
}

func TestFromString(t *testing.T) {
	addr, err := ovhdns.FromString("203.0.113.5").Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve failed: %s", err)
	}
	if expected := netip.MustParseAddr("203.0.113.5"); addr != expected {
		t.Fatalf("Expected %q; got %q", expected, addr)
	}

	if _, err := ovhdns.FromString("not-an-ip").Resolve(context.Background()); err == nil {
		t.Fatal("Expected error for an invalid address; got err == nil")
	}
}
