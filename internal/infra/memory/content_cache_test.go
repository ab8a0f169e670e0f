package memory

import (
	"context"
	"testing"
)

func TestContentCacheRoundTrip(t *testing.T) {
	cache := NewContentCache()
	ctx := context.Background()

	if _, ok := cache.Get(ctx, "missing"); ok {
		t.Fatalf("unexpected hit for missing key")
	}

	cache.Set(ctx, "k", []byte(`{"v":1}`))
	got, ok := cache.Get(ctx, "k")
	if !ok || string(got) != `{"v":1}` {
		t.Fatalf("unexpected value: %q ok=%v", got, ok)
	}
}

func TestContentCacheCopiesOnWrite(t *testing.T) {
	cache := NewContentCache()
	ctx := context.Background()

	src := []byte("original")
	cache.Set(ctx, "k", src)
	src[0] = 'X'

	got, _ := cache.Get(ctx, "k")
	if string(got) != "original" {
		t.Fatalf("cache must not alias caller's buffer: %q", got)
	}
}
