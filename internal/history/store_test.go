package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	if err := store.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	return store
}

func TestStore_RecordAndRecent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for _, path := range []string{"/data/a.nc", "/data/b.zarr", "/data/a.nc"} {
		if err := store.Record(ctx, path); err != nil {
			t.Fatalf("Record(%s) error = %v", path, err)
		}
		time.Sleep(time.Millisecond) // distinct last_opened ordering
	}

	entries, err := store.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Recent() len = %d, want 2", len(entries))
	}

	// a.nc was touched last, so it leads.
	if entries[0].Path != "/data/a.nc" {
		t.Errorf("Recent()[0].Path = %q, want /data/a.nc", entries[0].Path)
	}
	if entries[0].OpenCount != 2 {
		t.Errorf("Recent()[0].OpenCount = %d, want 2", entries[0].OpenCount)
	}
	if entries[1].Path != "/data/b.zarr" || entries[1].OpenCount != 1 {
		t.Errorf("Recent()[1] = %+v, want b.zarr with count 1", entries[1])
	}
	if !entries[0].LastOpened.After(entries[0].FirstOpened) {
		t.Error("re-recorded entry should have LastOpened after FirstOpened")
	}
}

func TestStore_RecentLimit(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for _, path := range []string{"/a", "/b", "/c", "/d"} {
		if err := store.Record(ctx, path); err != nil {
			t.Fatalf("Record(%s) error = %v", path, err)
		}
		time.Sleep(time.Millisecond)
	}

	entries, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Recent(2) len = %d, want 2", len(entries))
	}
	if entries[0].Path != "/d" || entries[1].Path != "/c" {
		t.Errorf("Recent(2) = [%s, %s], want [/d, /c]", entries[0].Path, entries[1].Path)
	}
}

func TestStore_RecentEmpty(t *testing.T) {
	store := openTestStore(t)

	entries, err := store.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Recent() on empty store = %v, want none", entries)
	}
}

func TestStore_Remove(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Record(ctx, "/data/a.nc"); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if err := store.Remove(ctx, "/data/a.nc"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if err := store.Remove(ctx, "/data/never-seen.nc"); err != nil {
		t.Errorf("Remove(unknown) error = %v, want nil", err)
	}

	entries, err := store.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Recent() after Remove = %v, want none", entries)
	}
}

func TestStore_Clear(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for _, path := range []string{"/a", "/b"} {
		if err := store.Record(ctx, path); err != nil {
			t.Fatalf("Record(%s) error = %v", path, err)
		}
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}

	entries, err := store.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Recent() after Clear = %v, want none", entries)
	}
}

func TestOpen_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "history.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer store.Close()

	if err := store.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	if err := store.Record(context.Background(), "/data/a.nc"); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
}
