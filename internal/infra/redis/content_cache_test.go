package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestContentCacheRoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewContentCache(client, time.Minute)
	ctx := context.Background()

	if _, ok := cache.Get(ctx, "quizzes_v12_1"); ok {
		t.Fatalf("expected miss on empty cache")
	}

	cache.Set(ctx, "quizzes_v12_1", []byte(`{"questions":[]}`))
	if !mr.Exists("content:cache:quizzes_v12_1") {
		t.Fatalf("expected namespaced redis key")
	}

	value, ok := cache.Get(ctx, "quizzes_v12_1")
	if !ok || string(value) != `{"questions":[]}` {
		t.Fatalf("expected cached value, got ok=%v value=%q", ok, value)
	}
}

func TestContentCacheExpires(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewContentCache(client, time.Minute)
	ctx := context.Background()

	cache.Set(ctx, "k", []byte("v"))
	mr.FastForward(2 * time.Minute)

	if _, ok := cache.Get(ctx, "k"); ok {
		t.Fatalf("expected entry to expire")
	}
}
