package sqlite

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// newTestDB opens a migrated database in a per-test temp directory.
//
// A file (not ":memory:") is used so the WAL pragma and the migration driver
// see the same setup as production; t.TempDir removes it afterwards.
func newTestDB(t *testing.T, opts ...Option) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "test.db"), opts...)
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	return db
}

// frozenClock returns a time source that never moves.
func frozenClock() func() time.Time {
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return fixed }
}

// =========================================================================
// SCHEMA TESTS
// =========================================================================

func TestMigrate_Idempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}

	version, err := db.SchemaVersion(ctx)
	if err != nil {
		t.Fatalf("SchemaVersion() error = %v", err)
	}
	if version != 1 {
		t.Errorf("SchemaVersion() = %d, want 1", version)
	}
}

func TestMigrate_InMemory(t *testing.T) {
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("New(:memory:) error = %v", err)
	}
	defer db.Close()

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if _, err := db.Journals().List(context.Background(), listFor("u1")); err != nil {
		t.Fatalf("List() after in-memory migrate error = %v", err)
	}
}

func TestMigrate_SeedsClockFromStoredData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "seed.db")

	first, err := New(path)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := first.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	j := createTestJournal(t, first, "u1", "2024-01-01")
	first.Close()

	// Reopen with a clock far in the past: new timestamps must still land
	// after what is already stored.
	past := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	second, err := New(path, WithClock(func() time.Time { return past }))
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer second.Close()
	if err := second.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() on reopen error = %v", err)
	}

	if err := second.Journals().Update(ctx, j.ID, emptyJournalPatch()); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	got, err := second.Journals().GetUnscoped(ctx, j.ID)
	if err != nil {
		t.Fatalf("GetUnscoped() error = %v", err)
	}
	if !got.UpdatedAt.After(j.UpdatedAt) {
		t.Errorf("UpdatedAt %v did not advance past %v", got.UpdatedAt, j.UpdatedAt)
	}
}

// =========================================================================
// CLOCK TESTS
// =========================================================================

func TestClock_StrictlyIncreasingUnderFrozenTime(t *testing.T) {
	c := newClock(frozenClock())

	prev := c.Now()
	for i := 0; i < 100; i++ {
		next := c.Now()
		if !next.After(prev) {
			t.Fatalf("clock did not advance: %v then %v", prev, next)
		}
		prev = next
	}
}

func TestClock_ConcurrentCallersGetDistinctValues(t *testing.T) {
	c := newClock(frozenClock())

	const n = 50
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[time.Time]bool, n)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ts := c.Now()
			mu.Lock()
			seen[ts] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(seen) != n {
		t.Errorf("got %d distinct timestamps, want %d", len(seen), n)
	}
}

func TestFormatTime_SortsLexically(t *testing.T) {
	a := time.Date(2024, 1, 1, 0, 0, 0, 5, time.UTC)
	b := time.Date(2024, 1, 1, 0, 0, 0, 40, time.UTC)

	if !(formatTime(a) < formatTime(b)) {
		t.Errorf("formatTime(%v)=%q should sort before %q", a, formatTime(a), formatTime(b))
	}

	parsed, err := parseTime(formatTime(b))
	if err != nil {
		t.Fatalf("parseTime() error = %v", err)
	}
	if !parsed.Equal(b) {
		t.Errorf("round trip = %v, want %v", parsed, b)
	}
}
