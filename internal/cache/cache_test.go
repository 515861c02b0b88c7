package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func exerciseCache(t *testing.T, c Cache) {
	t.Helper()
	ctx := context.Background()

	if _, err := c.Get(ctx, "ready"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("Get() on empty cache error = %v, want ErrCacheMiss", err)
	}

	if err := c.Set(ctx, "ready", []byte(`{"ready":true}`), time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, err := c.Get(ctx, "ready")
	if err != nil || string(got) != `{"ready":true}` {
		t.Fatalf("Get() = %q, %v", got, err)
	}

	calls := 0
	compute := func() ([]byte, error) {
		calls++
		return []byte("computed"), nil
	}
	for i := 0; i < 2; i++ {
		v, err := c.GetOrSet(ctx, "status", time.Minute, compute)
		if err != nil || string(v) != "computed" {
			t.Fatalf("GetOrSet() = %q, %v", v, err)
		}
	}
	if calls != 1 {
		t.Errorf("compute called %d times, want 1", calls)
	}

	boom := errors.New("boom")
	if _, err := c.GetOrSet(ctx, "broken", time.Minute, func() ([]byte, error) { return nil, boom }); !errors.Is(err, boom) {
		t.Errorf("GetOrSet() error = %v, want %v", err, boom)
	}
	if _, err := c.Get(ctx, "broken"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("failed value was cached: %v", err)
	}

	if err := c.Delete(ctx, "ready"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := c.Get(ctx, "ready"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get() after Delete() error = %v", err)
	}
}

func TestMemoryCache(t *testing.T) {
	exerciseCache(t, NewMemoryCache())
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v"), 30*time.Second); err != nil {
		t.Fatal(err)
	}
	now = now.Add(29 * time.Second)
	if _, err := c.Get(ctx, "k"); err != nil {
		t.Errorf("Get() before expiry error = %v", err)
	}
	now = now.Add(2 * time.Second)
	if _, err := c.Get(ctx, "k"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get() after expiry error = %v, want ErrCacheMiss", err)
	}
}

func TestMemoryCache_CopiesValues(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	value := []byte("abc")
	_ = c.Set(ctx, "k", value, time.Minute)
	value[0] = 'x'

	got, _ := c.Get(ctx, "k")
	if string(got) != "abc" {
		t.Errorf("Get() = %q, want abc", got)
	}
}

func TestRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	c := NewRedisCache(client, "test:")
	exerciseCache(t, c)

	_ = c.Set(context.Background(), "ttl", []byte("v"), 30*time.Second)
	if !mr.Exists("test:ttl") {
		t.Fatal("expected key to be stored with prefix")
	}
	mr.FastForward(31 * time.Second)
	if _, err := c.Get(context.Background(), "ttl"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get() after TTL error = %v, want ErrCacheMiss", err)
	}
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedisClient(RedisConfig{Addr: mr.Addr()})
	if err != nil {
		t.Fatalf("NewRedisClient() error = %v", err)
	}
	client.Close()

	mr.Close()
	if _, err := NewRedisClient(RedisConfig{Addr: mr.Addr()}); err == nil {
		t.Error("expected error when redis is unreachable")
	}
}
