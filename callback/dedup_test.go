package callback

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"
)

func TestDedupCacheSeen(t *testing.T) {
	cache := NewDedupCache(10, time.Hour)
	ctx := context.Background()

	seen, err := cache.Seen(ctx, "ws_CO_1")
	if err != nil {
		t.Fatalf("Seen() error = %v", err)
	}
	if seen {
		t.Error("first sighting reported as seen")
	}

	seen, err = cache.Seen(ctx, "ws_CO_1")
	if err != nil {
		t.Fatalf("Seen() error = %v", err)
	}
	if !seen {
		t.Error("second sighting not reported as seen")
	}

	seen, _ = cache.Seen(ctx, "ws_CO_2")
	if seen {
		t.Error("unrelated id reported as seen")
	}
}

func TestDedupCacheWindowExpiry(t *testing.T) {
	cache := NewDedupCache(10, 10*time.Millisecond)
	ctx := context.Background()

	if seen, _ := cache.Seen(ctx, "ws_CO_1"); seen {
		t.Fatal("first sighting reported as seen")
	}

	time.Sleep(25 * time.Millisecond)

	if seen, _ := cache.Seen(ctx, "ws_CO_1"); seen {
		t.Error("expired entry still reported as seen")
	}
}

func TestDedupCacheEviction(t *testing.T) {
	cache := NewDedupCache(3, time.Hour)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, _ = cache.Seen(ctx, fmt.Sprintf("id-%d", i))
	}

	stats := cache.Stats()
	if stats.Size != 3 {
		t.Errorf("Size = %d, want 3", stats.Size)
	}
	if stats.Evictions != 2 {
		t.Errorf("Evictions = %d, want 2", stats.Evictions)
	}

	// id-0 and id-1 were evicted, so they read as fresh again.
	if seen, _ := cache.Seen(ctx, "id-0"); seen {
		t.Error("evicted id still reported as seen")
	}
	if seen, _ := cache.Seen(ctx, "id-4"); !seen {
		t.Error("retained id not reported as seen")
	}
}

func TestDedupCacheCleanup(t *testing.T) {
	cache := NewDedupCache(10, 10*time.Millisecond)
	ctx := context.Background()

	_, _ = cache.Seen(ctx, "ws_CO_1")
	_, _ = cache.Seen(ctx, "ws_CO_2")

	time.Sleep(25 * time.Millisecond)
	cache.Cleanup()

	if stats := cache.Stats(); stats.Size != 0 {
		t.Errorf("Size = %d after cleanup, want 0", stats.Size)
	}
}

func TestSQLiteDedupStore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "dedup.db")

	store, err := NewSQLiteDedupStore(dbPath, time.Hour)
	if err != nil {
		t.Fatalf("NewSQLiteDedupStore() error = %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	seen, err := store.Seen(ctx, "NLJ41HAY6Q")
	if err != nil {
		t.Fatalf("Seen() error = %v", err)
	}
	if seen {
		t.Error("first sighting reported as seen")
	}

	seen, err = store.Seen(ctx, "NLJ41HAY6Q")
	if err != nil {
		t.Fatalf("Seen() error = %v", err)
	}
	if !seen {
		t.Error("second sighting not reported as seen")
	}

	if err := store.Cleanup(ctx); err != nil {
		t.Errorf("Cleanup() error = %v", err)
	}
}
