// Package testutil provides shared test helpers for setting up vaults and databases.
package testutil

import (
	"os"
	"sync"
	"testing"
	"time"

	"github.com/starford/tempus/internal/index"
	"github.com/starford/tempus/internal/models"
	"github.com/starford/tempus/internal/storage"
	"github.com/starford/tempus/internal/timestamps"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "tempus-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestVault creates a temporary vault directory with a storage.Provider.
func TestVault(t *testing.T) (string, storage.Provider) {
	t.Helper()
	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	return vaultDir, store
}

// Clock is a manually advanced clock.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a clock stopped at start.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

// Now returns the current fake moment.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// TestClass builds the implicit-mode note class driven by clock.
func TestClass(t *testing.T, clock *Clock) *models.NoteClass {
	t.Helper()
	nc, err := models.NewNoteClass(models.TimestampsImplicit, nil, timestamps.WithClock(clock.Now))
	if err != nil {
		t.Fatal(err)
	}
	return nc
}
