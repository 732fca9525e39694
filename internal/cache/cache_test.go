package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestGetSetRoundTrip(t *testing.T) {
	c := New(10, 60)
	c.Set("a", "value-a")

	got, ok := c.Get("a")
	if !ok {
		t.Fatal("expected hit for fresh entry")
	}
	if got != "value-a" {
		t.Fatalf("got %v, want value-a", got)
	}

	if _, ok := c.Get("missing"); ok {
		t.Fatal("expected miss for unknown key")
	}
}

func TestExpiredEntryMissesButStaysStale(t *testing.T) {
	c := New(10, 60)
	c.Set("a", "old")

	c.mu.Lock()
	c.entries["a"].createdAt = time.Now().Add(-2 * time.Minute)
	c.mu.Unlock()

	if _, ok := c.Get("a"); ok {
		t.Fatal("expired entry should not be a fresh hit")
	}
	got, ok := c.GetStale("a")
	if !ok || got != "old" {
		t.Fatalf("stale read = %v, %v; want old, true", got, ok)
	}
}

func TestEvictsOldestAtCapacity(t *testing.T) {
	c := New(2, 60)
	c.Set("first", 1)

	c.mu.Lock()
	c.entries["first"].createdAt = time.Now().Add(-time.Minute)
	c.mu.Unlock()

	c.Set("second", 2)
	c.Set("third", 3)

	if _, ok := c.GetStale("first"); ok {
		t.Fatal("oldest entry should have been evicted")
	}
	if size, max := c.Stats(); size != 2 || max != 2 {
		t.Fatalf("stats = %d/%d, want 2/2", size, max)
	}
}

func TestFetchCachesResult(t *testing.T) {
	c := New(10, 60)
	calls := 0
	fn := func(ctx context.Context) (any, error) {
		calls++
		return "fetched", nil
	}

	for i := 0; i < 3; i++ {
		got, err := c.Fetch(context.Background(), "k", fn)
		if err != nil {
			t.Fatalf("fetch %d: %v", i, err)
		}
		if got != "fetched" {
			t.Fatalf("fetch %d = %v", i, got)
		}
	}
	if calls != 1 {
		t.Fatalf("fetchFn ran %d times, want 1", calls)
	}
}

func TestFetchServesStaleOnError(t *testing.T) {
	c := New(10, 60)
	c.Set("k", "previous")
	c.mu.Lock()
	c.entries["k"].createdAt = time.Now().Add(-2 * time.Minute)
	c.mu.Unlock()

	got, err := c.Fetch(context.Background(), "k", func(ctx context.Context) (any, error) {
		return nil, errors.New("upstream down")
	})
	if err != nil {
		t.Fatalf("expected stale fallback, got error %v", err)
	}
	if got != "previous" {
		t.Fatalf("got %v, want previous", got)
	}
}

func TestFetchErrorWithoutStale(t *testing.T) {
	c := New(10, 60)
	_, err := c.Fetch(context.Background(), "k", func(ctx context.Context) (any, error) {
		return nil, errors.New("upstream down")
	})
	if err == nil {
		t.Fatal("expected error when no stale entry exists")
	}
}

func TestHitMissCounters(t *testing.T) {
	c := New(10, 60)
	hits, misses := 0, 0
	c.OnHit(func() { hits++ })
	c.OnMiss(func() { misses++ })

	c.Get("nope")
	c.Set("k", 1)
	c.Get("k")

	if hits != 1 || misses != 1 {
		t.Fatalf("hits=%d misses=%d, want 1/1", hits, misses)
	}
}
