// Package secrets resolves credentials at call time so rotated values
// are picked up without a restart.
package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
)

// Provider returns the secret stored under name.
type Provider interface {
	Get(ctx context.Context, name string) (string, error)
}

// EnvProvider reads secrets from environment variables, mapping a
// secret name like "riot-api-key" to RIOT_API_KEY.
type EnvProvider struct{}

func (EnvProvider) Get(_ context.Context, name string) (string, error) {
	key := strings.ToUpper(strings.NewReplacer("-", "_", "/", "_", ".", "_").Replace(name))
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return "", fmt.Errorf("secret %q: environment variable %s is empty", name, key)
	}
	return value, nil
}

// FileProvider reads secrets from files under a base directory, the
// layout used by mounted secret volumes. Files are re-read on every
// call so rotations take effect immediately.
type FileProvider struct {
	BaseDir string
}

func (p FileProvider) Get(_ context.Context, name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", fmt.Errorf("secret %q: invalid name", name)
	}
	path := p.BaseDir + "/" + name
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("secret %q: read %s: %w", name, path, err)
	}
	value := strings.TrimSpace(string(raw))
	if value == "" {
		return "", fmt.Errorf("secret %q: file %s is empty", name, path)
	}
	return value, nil
}

// Static serves fixed values, for tests and local development.
type Static map[string]string

func (s Static) Get(_ context.Context, name string) (string, error) {
	value, ok := s[name]
	if !ok || value == "" {
		return "", fmt.Errorf("secret %q not configured", name)
	}
	return value, nil
}

// Cached wraps a provider and memoizes lookups for the process
// lifetime. Use for secrets that do not rotate.
type Cached struct {
	Inner Provider

	mu     sync.Mutex
	values map[string]string
}

func NewCached(inner Provider) *Cached {
	return &Cached{Inner: inner, values: make(map[string]string)}
}

func (c *Cached) Get(ctx context.Context, name string) (string, error) {
	c.mu.Lock()
	if value, ok := c.values[name]; ok {
		c.mu.Unlock()
		return value, nil
	}
	c.mu.Unlock()

	value, err := c.Inner.Get(ctx, name)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.values[name] = value
	c.mu.Unlock()
	return value, nil
}
