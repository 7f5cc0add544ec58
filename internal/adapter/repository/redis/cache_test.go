package redis

import (
	"context"
	"testing"
	"time"
)

func TestCacheSetAndGet(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	cache := NewCache(client)
	ctx := context.Background()

	if err := cache.Set(ctx, "wallet:balance:tenant-1:main_balance", "379.5", time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	val, err := cache.Get(ctx, "wallet:balance:tenant-1:main_balance")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}

	if val != "379.5" {
		t.Fatalf("expected 379.5, got %s", val)
	}
}

func TestCacheEntryExpires(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	cache := NewCache(client)
	ctx := context.Background()

	if err := cache.Set(ctx, "balance", "100", 5*time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	mr.FastForward(6 * time.Minute)

	if _, err := cache.Get(ctx, "balance"); err == nil {
		t.Fatalf("expected error getting expired key")
	}
}

func TestCacheDelete(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	cache := NewCache(client)
	ctx := context.Background()

	if err := cache.Set(ctx, "balance", "100", time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	if err := cache.Delete(ctx, "balance"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	if _, err := cache.Get(ctx, "balance"); err == nil {
		t.Fatalf("expected error getting deleted key")
	}
}
