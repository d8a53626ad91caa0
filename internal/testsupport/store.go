package testsupport

import (
	"testing"

	"lyricsmith/internal/config"
	"lyricsmith/internal/runstore"
)

// MustOpenStore opens a runstore.Store in the config log directory and
// registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *runstore.Store {
	t.Helper()

	store, err := runstore.Open(cfg.Paths.LogDir)
	if err != nil {
		t.Fatalf("runstore.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
