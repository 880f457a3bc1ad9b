package secrets

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestEnvProviderMapsName(t *testing.T) {
	t.Setenv("RIOT_API_KEY", "RGAPI-test")

	value, err := EnvProvider{}.Get(context.Background(), "riot-api-key")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value != "RGAPI-test" {
		t.Fatalf("got %q", value)
	}
}

func TestEnvProviderMissing(t *testing.T) {
	t.Setenv("SOME_MISSING_SECRET", "")

	if _, err := (EnvProvider{}).Get(context.Background(), "some-missing-secret"); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

func TestFileProviderRereadsOnEachCall(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "riot-api-key")
	if err := os.WriteFile(path, []byte("first\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	p := FileProvider{BaseDir: dir}
	if value, err := p.Get(context.Background(), "riot-api-key"); err != nil || value != "first" {
		t.Fatalf("got %q, %v", value, err)
	}

	if err := os.WriteFile(path, []byte("rotated"), 0o600); err != nil {
		t.Fatal(err)
	}
	if value, err := p.Get(context.Background(), "riot-api-key"); err != nil || value != "rotated" {
		t.Fatalf("after rotation: got %q, %v", value, err)
	}
}

func TestFileProviderRejectsTraversal(t *testing.T) {
	t.Parallel()

	p := FileProvider{BaseDir: t.TempDir()}
	if _, err := p.Get(context.Background(), "../etc/passwd"); err == nil {
		t.Fatal("expected error for path traversal")
	}
}

func TestCachedProvider(t *testing.T) {
	t.Parallel()

	calls := 0
	inner := providerFunc(func(ctx context.Context, name string) (string, error) {
		calls++
		return "value", nil
	})

	c := NewCached(inner)
	for i := 0; i < 3; i++ {
		if value, err := c.Get(context.Background(), "k"); err != nil || value != "value" {
			t.Fatalf("got %q, %v", value, err)
		}
	}
	if calls != 1 {
		t.Fatalf("expected 1 inner call, got %d", calls)
	}
}

type providerFunc func(ctx context.Context, name string) (string, error)

func (f providerFunc) Get(ctx context.Context, name string) (string, error) {
	return f(ctx, name)
}
