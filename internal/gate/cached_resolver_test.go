package gate_test

import (
	"context"
	"testing"
	"time"

	"github.com/diewo77/multisarl/internal/gate"
)

func TestCachedResolver_CachesPrincipal(t *testing.T) {
	inner := gate.NewStaticResolver[uint]()
	inner.Set(1, &gate.Principal{UserID: 1, Username: "editor"})

	cached := gate.NewCachedResolver[uint](inner, 5*time.Minute)

	// First call - cache miss
	p1, err := cached.Resolve(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p1.Username != "editor" {
		t.Errorf("expected 'editor', got '%s'", p1.Username)
	}

	// Modify inner resolver (simulate a role change)
	inner.Set(1, &gate.Principal{UserID: 1, Username: "admin"})

	// Second call - should return cached value
	p2, err := cached.Resolve(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p2.Username != "editor" {
		t.Errorf("expected cached 'editor', got '%s'", p2.Username)
	}
}

func TestCachedResolver_Invalidate(t *testing.T) {
	inner := gate.NewStaticResolver[uint]()
	inner.Set(1, &gate.Principal{UserID: 1, Username: "editor"})

	cached := gate.NewCachedResolver[uint](inner, 5*time.Minute)
	_, _ = cached.Resolve(context.Background(), 1)

	inner.Set(1, &gate.Principal{UserID: 1, Username: "admin"})
	cached.Invalidate(1)

	p, err := cached.Resolve(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Username != "admin" {
		t.Errorf("expected 'admin' after invalidation, got '%s'", p.Username)
	}
}

func TestCachedResolver_InvalidateAll(t *testing.T) {
	inner := gate.NewStaticResolver[uint]()
	inner.Set(1, &gate.Principal{UserID: 1, Username: "editor"})
	inner.Set(2, &gate.Principal{UserID: 2, Username: "viewer"})

	cached := gate.NewCachedResolver[uint](inner, 5*time.Minute)
	_, _ = cached.Resolve(context.Background(), 1)
	_, _ = cached.Resolve(context.Background(), 2)

	inner.Set(1, &gate.Principal{UserID: 1, Username: "admin"})
	inner.Set(2, &gate.Principal{UserID: 2, Username: "admin"})

	cached.InvalidateAll()

	p1, _ := cached.Resolve(context.Background(), 1)
	p2, _ := cached.Resolve(context.Background(), 2)
	if p1.Username != "admin" || p2.Username != "admin" {
		t.Error("expected both principals to be 'admin' after InvalidateAll")
	}
}

func TestCachedResolver_TTLExpiry(t *testing.T) {
	inner := gate.NewStaticResolver[uint]()
	inner.Set(1, &gate.Principal{UserID: 1, Username: "editor"})

	cached := gate.NewCachedResolver[uint](inner, 10*time.Millisecond)
	_, _ = cached.Resolve(context.Background(), 1)

	inner.Set(1, &gate.Principal{UserID: 1, Username: "admin"})
	time.Sleep(20 * time.Millisecond)

	p, _ := cached.Resolve(context.Background(), 1)
	if p.Username != "admin" {
		t.Errorf("expected 'admin' after TTL expiry, got '%s'", p.Username)
	}
}

func TestCachedResolver_ZeroTTLDisablesCache(t *testing.T) {
	inner := gate.NewStaticResolver[uint]()
	inner.Set(1, &gate.Principal{UserID: 1, Username: "editor"})

	cached := gate.NewCachedResolver[uint](inner, 0)
	_, _ = cached.Resolve(context.Background(), 1)

	inner.Set(1, &gate.Principal{UserID: 1, Username: "admin"})
	p, _ := cached.Resolve(context.Background(), 1)
	if p.Username != "admin" {
		t.Errorf("expected uncached 'admin', got '%s'", p.Username)
	}
}

// blockingResolver parks inside Resolve until release is closed.
type blockingResolver struct {
	entered chan struct{}
	release chan struct{}
	p       *gate.Principal
}

func (b *blockingResolver) Resolve(context.Context, uint) (*gate.Principal, error) {
	close(b.entered)
	<-b.release
	return b.p, nil
}

func TestCachedResolver_InvalidationDuringResolve(t *testing.T) {
	inner := &blockingResolver{
		entered: make(chan struct{}),
		release: make(chan struct{}),
		p:       &gate.Principal{UserID: 1, Username: "stale"},
	}
	cached := gate.NewCachedResolver[uint](inner, time.Minute)

	done := make(chan struct{})
	go func() {
		defer close(done)
		cached.Resolve(context.Background(), 1)
	}()
	<-inner.entered
	cached.InvalidateAll()
	close(inner.release)
	<-done

	if n := cached.Len(); n != 0 {
		t.Errorf("principal loaded before invalidation was cached (%d entries)", n)
	}
}
