package eventcache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestMemoryMarkSeen(t *testing.T) {
	m := NewMemory(time.Minute)
	ctx := context.Background()

	first, err := m.MarkSeen(ctx, "evt-1")
	if err != nil || !first {
		t.Fatalf("first delivery: got (%v, %v), want (true, nil)", first, err)
	}
	first, _ = m.MarkSeen(ctx, "evt-1")
	if first {
		t.Error("repeat delivery should not be first")
	}
	first, _ = m.MarkSeen(ctx, "evt-2")
	if !first {
		t.Error("different id should be first")
	}
}

func TestMemoryExpiry(t *testing.T) {
	m := NewMemory(time.Minute)
	now := time.Unix(1700000000, 0)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	m.MarkSeen(ctx, "evt-1")
	now = now.Add(2 * time.Minute)

	first, _ := m.MarkSeen(ctx, "evt-1")
	if !first {
		t.Error("id should be forgotten after the TTL")
	}
	if m.Len() != 1 {
		t.Errorf("expired ids should be swept, got %d entries", m.Len())
	}
}

func TestRedisMarkSeen(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	ctx := context.Background()
	r, err := NewRedis(ctx, Options{Addr: addr, Prefix: "callcoach:test", TTL: time.Minute})
	if err != nil {
		t.Fatalf("NewRedis failed: %v", err)
	}
	defer r.Close()

	id := uuid.NewString()
	first, err := r.MarkSeen(ctx, id)
	if err != nil || !first {
		t.Fatalf("first delivery: got (%v, %v), want (true, nil)", first, err)
	}
	first, err = r.MarkSeen(ctx, id)
	if err != nil || first {
		t.Errorf("repeat delivery: got (%v, %v), want (false, nil)", first, err)
	}
}

func TestNewRedisRequiresAddr(t *testing.T) {
	if _, err := NewRedis(context.Background(), Options{}); err == nil {
		t.Error("expected error without addr")
	}
}

func TestNilRedisIsPermissive(t *testing.T) {
	var r *Redis
	first, err := r.MarkSeen(context.Background(), "x")
	if err != nil || !first {
		t.Errorf("nil cache should treat every id as first, got (%v, %v)", first, err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("nil Close returned %v", err)
	}
}
