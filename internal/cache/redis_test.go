package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func newTestCache(t *testing.T) (*ImageCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewRedisClient(context.Background(), mr.Addr(), "", 0)
	if err != nil {
		t.Fatalf("NewRedisClient error: %v", err)
	}
	c := NewImageCache(client, time.Hour)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestImageCache_SetGet(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	url := "https://live.staticflickr.com/1/2_3_s.jpg"

	if _, ok := c.Get(ctx, url); ok {
		t.Fatal("expected miss on empty cache")
	}

	c.Set(ctx, url, []byte{0xff, 0xd8, 0xff})
	got, ok := c.Get(ctx, url)
	if !ok {
		t.Fatal("expected hit after Set")
	}
	if string(got) != string([]byte{0xff, 0xd8, 0xff}) {
		t.Errorf("got %v", got)
	}

	if ttl := mr.TTL(Key(url)); ttl != time.Hour {
		t.Errorf("TTL = %v; want 1h", ttl)
	}

	mr.FastForward(2 * time.Hour)
	if _, ok := c.Get(ctx, url); ok {
		t.Error("expected miss after TTL expiry")
	}
}

func TestImageCache_ErrorsAreMisses(t *testing.T) {
	c, mr := newTestCache(t)
	mr.Close()

	ctx := context.Background()
	c.Set(ctx, "https://example.com/a.jpg", []byte("x"))
	if _, ok := c.Get(ctx, "https://example.com/a.jpg"); ok {
		t.Fatal("expected miss when redis is unavailable")
	}
}

func TestKey(t *testing.T) {
	k := Key("https://example.com/a.jpg")
	if !strings.HasPrefix(k, "image:") || len(k) != len("image:")+40 {
		t.Errorf("Key = %q", k)
	}
	if Key("https://example.com/a.jpg") != k {
		t.Error("Key must be deterministic")
	}
	if Key("https://example.com/b.jpg") == k {
		t.Error("different URLs must yield different keys")
	}
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	if _, err := NewRedisClient(context.Background(), addr, "", 0); err == nil {
		t.Fatal("expected error for unreachable redis")
	}
}
