package ovhdns_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jblemee/ovhdns"
)

// unsetenv clears an environment variable for the duration of the test,
// restoring any previous value afterwards.
func unsetenv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	os.Unsetenv(key)
}

func TestLoadEnvFile(t *testing.T) {
	unsetenv(t, "DOMAIN")
	unsetenv(t, "OVH_APPLICATION_KEY")
	t.Setenv("PRESET", "from-environment")

	path := filepath.Join(t.TempDir(), ".env")
	content := `# credentials for example.com

DOMAIN = example.com
OVH_APPLICATION_KEY=first
OVH_APPLICATION_KEY=second
PRESET=from-file
line without an assignment
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	if err := ovhdns.LoadEnvFile(path); err != nil {
		t.Fatalf("LoadEnvFile failed: %s", err)
	}
	if got := os.Getenv("DOMAIN"); got != "example.com" {
		t.Errorf("DOMAIN = %q; want %q", got, "example.com")
	}
	// first occurrence wins
	if got := os.Getenv("OVH_APPLICATION_KEY"); got != "first" {
		t.Errorf("OVH_APPLICATION_KEY = %q; want %q", got, "first")
	}
	// pre-set environment variables are never overridden
	if got := os.Getenv("PRESET"); got != "from-environment" {
		t.Errorf("PRESET = %q; want %q", got, "from-environment")
	}
}

func TestLoadEnvFileMissing(t *testing.T) {
	if err := ovhdns.LoadEnvFile(filepath.Join(t.TempDir(), "does-not-exist")); err != nil {
		t.Fatalf("expected a missing env file to be ignored; got %s", err)
	}
}

func TestCredentialsComplete(t *testing.T) {
	tests := []struct {
		name  string
		creds ovhdns.Credentials
		want  bool
	}{
		{"all keys", ovhdns.Credentials{AppKey: "a", AppSecret: "b", ConsumerKey: "c"}, true},
		{"domain is optional", ovhdns.Credentials{Domain: "", AppKey: "a", AppSecret: "b", ConsumerKey: "c"}, true},
		{"missing consumer key", ovhdns.Credentials{AppKey: "a", AppSecret: "b"}, false},
		{"missing secret", ovhdns.Credentials{AppKey: "a", ConsumerKey: "c"}, false},
		{"empty", ovhdns.Credentials{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.creds.Complete(); got != tt.want {
				t.Errorf("Complete() = %v; want %v", got, tt.want)
			}
		})
	}
}

func TestCredentialsFromEnv(t *testing.T) {
	t.Setenv("DOMAIN", "example.com")
	t.Setenv("OVH_APPLICATION_KEY", "app-key")
	t.Setenv("OVH_APPLICATION_SECRET", "app-secret")
	t.Setenv("OVH_CONSUMER_KEY", "consumer-key")

	creds := ovhdns.CredentialsFromEnv()
	want := ovhdns.Credentials{Domain: "example.com", AppKey: "app-key", AppSecret: "app-secret", ConsumerKey: "consumer-key"}
	if creds != want {
		t.Errorf("CredentialsFromEnv() = %+v; want %+v", creds, want)
	}
}
