package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/andrewjk/Watsonia.Data-sub000/internal/testutil"
)

// createTestStore creates a new file-backed store mapped to the library
// fixture.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithMapping(testutil.LibraryRegistry()))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createLibraryStore creates a store holding the seeded library fixture.
func createLibraryStore(t *testing.T) *Store {
	t.Helper()
	s := createTestStore(t)
	if err := s.Exec(context.Background(), testutil.LibrarySchema+testutil.LibrarySeed()); err != nil {
		t.Fatalf("seed library: %v", err)
	}
	return s
}
