package services

import (
	"context"
	"testing"
	"time"

	"ledger/internal/core"
)

func TestCachedResolverCachesHits(t *testing.T) {
	store := newMemStore()
	seedCategory(t, store, "c-food", "Food", core.Expense)
	r := NewCachedResolver(store, time.Minute)

	for i := 0; i < 3; i++ {
		name, ok := r.CategoryName(context.Background(), "c-food")
		if !ok || name != "Food" {
			t.Fatalf("lookup %d: got %q, %v", i, name, ok)
		}
	}
	if store.nameLookups != 1 {
		t.Errorf("store lookups = %d, want 1 (cache should absorb repeats)", store.nameLookups)
	}
}

func TestCachedResolverDoesNotCacheMisses(t *testing.T) {
	store := newMemStore()
	r := NewCachedResolver(store, time.Minute)

	if _, ok := r.CategoryName(context.Background(), "c-later"); ok {
		t.Fatal("unknown category should not resolve")
	}

	// The category appears after the first miss and must resolve
	// immediately, not after a TTL.
	seedCategory(t, store, "c-later", "Travel", core.Expense)

	name, ok := r.CategoryName(context.Background(), "c-later")
	if !ok || name != "Travel" {
		t.Errorf("got %q, %v; want Travel, true", name, ok)
	}
}

func TestCachedResolverInvalidate(t *testing.T) {
	store := newMemStore()
	seedCategory(t, store, "c-food", "Food", core.Expense)
	r := NewCachedResolver(store, time.Minute)

	r.CategoryName(context.Background(), "c-food")

	if err := store.DeleteCategory(context.Background(), "c-food", owner); err != nil {
		t.Fatalf("delete: %v", err)
	}

	// Still cached until invalidated.
	if _, ok := r.CategoryName(context.Background(), "c-food"); !ok {
		t.Fatal("stale entry should still serve before invalidation")
	}

	r.Invalidate("c-food")
	if _, ok := r.CategoryName(context.Background(), "c-food"); ok {
		t.Error("invalidated entry should miss once the category is gone")
	}
}
