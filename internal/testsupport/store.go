package testsupport

import (
	"context"
	"testing"

	"drivermon/internal/config"
	"drivermon/internal/params"
)

// MustOpenStore opens a params.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *params.Store {
	t.Helper()

	store, err := params.Open(cfg)
	if err != nil {
		t.Fatalf("params.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustPut writes a parameter and fails the test on error.
func MustPut(t testing.TB, store *params.Store, key, value string) {
	t.Helper()

	if err := store.Put(context.Background(), key, value); err != nil {
		t.Fatalf("store.Put(%s): %v", key, err)
	}
}
