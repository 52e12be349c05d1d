package kv

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"staffeval/internal/platform/db"
	"staffeval/internal/platform/db/migrations"
)

func openSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "kv.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func stores(t *testing.T) map[string]Store {
	out := map[string]Store{"sqlite": openSQLite(t)}
	if url := os.Getenv("TEST_DATABASE_URL"); url != "" {
		ctx := context.Background()
		pool, err := db.Connect(ctx, url)
		if err != nil {
			t.Fatalf("connect: %v", err)
		}
		if err := db.Migrate(ctx, pool, migrations.Postgres, "postgres"); err != nil {
			t.Fatalf("migrate: %v", err)
		}
		if _, err := pool.Exec(ctx, "DELETE FROM kv_entries"); err != nil {
			t.Fatalf("reset: %v", err)
		}
		pg := NewPostgres(pool)
		t.Cleanup(func() { _ = pg.Close() })
		out["postgres"] = pg
	}
	return out
}

func TestStoreBatchAndScan(t *testing.T) {
	for name, store := range stores(t) {
		store := store
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if err := store.Apply(ctx, Put("qb_a", "1"), Put("qb_b", "2"), Put("other", "3")); err != nil {
				t.Fatalf("apply: %v", err)
			}
			if err := store.Apply(ctx, Put("qb_a", "10"), Delete("qb_b")); err != nil {
				t.Fatalf("apply: %v", err)
			}

			value, ok, err := store.Get(ctx, "qb_a")
			if err != nil || !ok || value != "10" {
				t.Fatalf("expected qb_a=10, got %q ok=%v err=%v", value, ok, err)
			}
			if _, ok, _ := store.Get(ctx, "qb_b"); ok {
				t.Fatalf("expected qb_b deleted")
			}

			got, err := store.Scan(ctx, "qb_")
			if err != nil {
				t.Fatalf("scan: %v", err)
			}
			if len(got) != 1 || got["qb_a"] != "10" {
				t.Fatalf("unexpected scan result %v", got)
			}
		})
	}
}

func TestScanTreatsUnderscoreLiterally(t *testing.T) {
	store := openSQLite(t)
	ctx := context.Background()
	if err := store.Apply(ctx, Put("qb_x", "1"), Put("qbzx", "2")); err != nil {
		t.Fatalf("apply: %v", err)
	}
	got, err := store.Scan(ctx, "qb_")
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if _, ok := got["qbzx"]; ok || len(got) != 1 {
		t.Fatalf("expected literal prefix match, got %v", got)
	}
}

func TestScanIsCaseSensitive(t *testing.T) {
	store := openSQLite(t)
	ctx := context.Background()
	if err := store.Apply(ctx, Put("qb_x", "1"), Put("QB_Y", "2")); err != nil {
		t.Fatalf("apply: %v", err)
	}
	got, err := store.Scan(ctx, "qb_")
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if _, ok := got["QB_Y"]; ok || len(got) != 1 {
		t.Fatalf("expected case-sensitive prefix match, got %v", got)
	}
}

func TestClosedStore(t *testing.T) {
	var store *SQLiteStore
	if err := store.Apply(context.Background(), Put("k", "v")); err != ErrClosed {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}
