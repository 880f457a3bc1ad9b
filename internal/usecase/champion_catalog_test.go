package usecase

import (
	"context"
	"testing"

	"github.com/doyaji/rift-rewind/internal/platform/logging"
)

const championDoc = `{
  "type": "champion",
  "version": "15.21.1",
  "data": {
    "Ahri": {"key": "103", "name": "Ahri"},
    "MonkeyKing": {"key": "62", "name": "Wukong"}
  }
}`

func TestCatalogLoadsFromStore(t *testing.T) {
	t.Parallel()

	store := newStubStore()
	_ = store.Put(context.Background(), DefaultChampionDataKey, []byte(championDoc), "application/json")

	catalog := NewChampionCatalog(store, "", logging.NewNop())
	if got := catalog.Name(context.Background(), 62); got != "Wukong" {
		t.Fatalf("got %q", got)
	}
	if got := catalog.Name(context.Background(), 103); got != "Ahri" {
		t.Fatalf("got %q", got)
	}
}

func TestCatalogFallsBackToBuiltin(t *testing.T) {
	t.Parallel()

	catalog := NewChampionCatalog(newStubStore(), "", logging.NewNop())
	if got := catalog.Name(context.Background(), 157); got != "Yasuo" {
		t.Fatalf("builtin: got %q", got)
	}
	if got := catalog.Name(context.Background(), 42); got != "Champion_42" {
		t.Fatalf("placeholder: got %q", got)
	}
}

func TestCatalogDoesNotRetryFailedLoad(t *testing.T) {
	t.Parallel()

	store := newStubStore()
	catalog := NewChampionCatalog(store, "", logging.NewNop())

	// First lookup fails to load and falls back.
	if got := catalog.Name(context.Background(), 103); got != "Ahri" {
		t.Fatalf("builtin: got %q", got)
	}

	// The document appearing later must not change the loaded table.
	_ = store.Put(context.Background(), DefaultChampionDataKey, []byte(championDoc), "application/json")
	if got := catalog.Name(context.Background(), 62); got != "Champion_62" {
		t.Fatalf("expected placeholder after failed load, got %q", got)
	}
}

func TestParseChampionDocumentRejectsMalformed(t *testing.T) {
	t.Parallel()

	if _, err := parseChampionDocument([]byte(`{"data":{}}`)); err == nil {
		t.Fatal("expected error for empty data")
	}
	if _, err := parseChampionDocument([]byte(`not json`)); err == nil {
		t.Fatal("expected error for invalid json")
	}
}
