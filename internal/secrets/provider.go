// Package secrets resolves named credential bundles (database logins, email
// provider API keys) from the environment, mounted JSON files or AWS Secrets
// Manager.
package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ErrNotFound is returned when a secret does not exist in the backend.
var ErrNotFound = errors.New("secret not found")

// Provider returns a secret as a flat string map.
type Provider interface {
	GetSecret(ctx context.Context, name string) (map[string]string, error)
}

// EnvProvider reads <NAME>_<KEY> environment variables, where NAME is the
// secret name upper-cased with every non-alphanumeric rune replaced by '_'.
// For "manga-alert-db", MANGA_ALERT_DB_USERNAME yields key "username".
type EnvProvider struct {
	environ func() []string
}

func NewEnvProvider() *EnvProvider {
	return &EnvProvider{environ: os.Environ}
}

func (p *EnvProvider) GetSecret(_ context.Context, name string) (map[string]string, error) {
	prefix := EnvPrefix(name) + "_"
	values := make(map[string]string)
	for _, kv := range p.environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, prefix) || value == "" {
			continue
		}
		values[strings.ToLower(strings.TrimPrefix(key, prefix))] = value
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return values, nil
}

// EnvPrefix maps a secret name to its environment variable prefix.
func EnvPrefix(name string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(name) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

// FileProvider reads <dir>/<name>.json containing a JSON object of strings,
// the layout used by mounted secret volumes.
type FileProvider struct {
	dir string
}

func NewFileProvider(dir string) *FileProvider {
	return &FileProvider{dir: dir}
}

func (p *FileProvider) GetSecret(_ context.Context, name string) (map[string]string, error) {
	if strings.ContainsAny(name, `/\`) {
		return nil, fmt.Errorf("invalid secret name %q", name)
	}
	data, err := os.ReadFile(filepath.Join(p.dir, name+".json"))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("read secret %s: %w", name, err)
	}

	var values map[string]string
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("decode secret %s: %w", name, err)
	}
	return values, nil
}

// Cached memoizes secrets per name until Invalidate is called, so a rotated
// credential is re-read only when the caller knows it went stale.
type Cached struct {
	next Provider

	mu    sync.Mutex
	cache map[string]map[string]string
}

func NewCached(next Provider) *Cached {
	return &Cached{next: next, cache: make(map[string]map[string]string)}
}

func (c *Cached) GetSecret(ctx context.Context, name string) (map[string]string, error) {
	c.mu.Lock()
	if v, ok := c.cache[name]; ok {
		c.mu.Unlock()
		return v, nil
	}
	c.mu.Unlock()

	v, err := c.next.GetSecret(ctx, name)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cache[name] = v
	c.mu.Unlock()
	return v, nil
}

func (c *Cached) Invalidate(name string) {
	c.mu.Lock()
	delete(c.cache, name)
	c.mu.Unlock()
}

// New picks a backend by name ("env", "file" or "secretsmanager").
func New(ctx context.Context, backend, dir, region string) (Provider, error) {
	switch backend {
	case "env":
		return NewEnvProvider(), nil
	case "file":
		return NewFileProvider(dir), nil
	case "secretsmanager":
		p, err := NewSecretsManagerFromRegion(ctx, region)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	return nil, fmt.Errorf("unsupported secrets backend %q", backend)
}

// Lookup fetches one key from a secret. Keys match case-insensitively with
// '-' and '_' treated as equal, so "sendgrid-api-key" finds the key an
// EnvProvider derives from SENDGRID_API_KEY_SENDGRID_API_KEY.
func Lookup(ctx context.Context, p Provider, name, key string) (string, error) {
	values, err := p.GetSecret(ctx, name)
	if err != nil {
		return "", err
	}
	if v := values[key]; v != "" {
		return v, nil
	}
	want := normalizeKey(key)
	for k, v := range values {
		if normalizeKey(k) == want && v != "" {
			return v, nil
		}
	}
	return "", fmt.Errorf("secret %s has no %q key", name, key)
}

func normalizeKey(key string) string {
	return strings.ReplaceAll(strings.ToLower(key), "-", "_")
}
