package ovhdns

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// Credentials holds the registrar API keys and the default zone name.
// AppKey, AppSecret and ConsumerKey are all required for any authenticated call.
type Credentials struct {
	Domain      string
	AppKey      string
	AppSecret   string
	ConsumerKey string
}

// Complete reports whether every field required for authenticated calls is set.
func (c Credentials) Complete() bool {
	return c.AppKey != "" && c.AppSecret != "" && c.ConsumerKey != ""
}

// CredentialsFromEnv reads credentials from the process environment.
// DOMAIN is optional; the three OVH_* keys are required for authenticated calls.
func CredentialsFromEnv() Credentials {
	return Credentials{
		Domain:      os.Getenv("DOMAIN"),
		AppKey:      os.Getenv("OVH_APPLICATION_KEY"),
		AppSecret:   os.Getenv("OVH_APPLICATION_SECRET"),
		ConsumerKey: os.Getenv("OVH_CONSUMER_KEY"),
	}
}

// LoadEnvFile merges KEY=VALUE lines from path into the process environment.
// Blank lines and lines starting with "#" are skipped,
// the first occurrence of a key wins,
// and keys already present in the environment are never overridden.
// A missing file is not an error.
func LoadEnvFile(path string) error {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("error opening env file: %w", err)
	}
	defer f.Close()

	seen := map[string]bool{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		if err := os.Setenv(key, strings.TrimSpace(value)); err != nil {
			return fmt.Errorf("error setting %s: %w", key, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading env file: %w", err)
	}
	return nil
}
