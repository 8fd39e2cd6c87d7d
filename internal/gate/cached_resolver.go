package gate

import (
	"context"
	"sync"
	"time"
)

// CachedResolver keeps resolved principals for ttl so role and permission
// rows are not reloaded on every request.
//
// Invalidation bumps a generation counter. A resolve that started before an
// invalidation does not store its result, so a principal loaded before a
// permission change cannot be cached after it.
type CachedResolver[U comparable] struct {
	inner PrincipalResolver[U]
	ttl   time.Duration
	now   func() time.Time

	mu      sync.RWMutex
	entries map[U]cached
	gen     uint64
}

type cached struct {
	principal *Principal
	expires   time.Time
}

// NewCachedResolver wraps inner. A ttl of zero or less disables caching.
func NewCachedResolver[U comparable](inner PrincipalResolver[U], ttl time.Duration) *CachedResolver[U] {
	return &CachedResolver[U]{
		inner:   inner,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[U]cached),
	}
}

func (r *CachedResolver[U]) Resolve(ctx context.Context, user U) (*Principal, error) {
	if r.ttl <= 0 {
		return r.inner.Resolve(ctx, user)
	}

	r.mu.RLock()
	e, ok := r.entries[user]
	gen := r.gen
	r.mu.RUnlock()
	if ok && r.now().Before(e.expires) {
		return e.principal, nil
	}

	p, err := r.inner.Resolve(ctx, user)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	if r.gen == gen {
		r.entries[user] = cached{principal: p, expires: r.now().Add(r.ttl)}
	}
	r.mu.Unlock()
	return p, nil
}

// Invalidate drops one user, after a change to their role assignments.
func (r *CachedResolver[U]) Invalidate(user U) {
	r.mu.Lock()
	delete(r.entries, user)
	r.gen++
	r.mu.Unlock()
}

// InvalidateAll drops every user, after a change to roles or permissions.
func (r *CachedResolver[U]) InvalidateAll() {
	r.mu.Lock()
	r.entries = make(map[U]cached)
	r.gen++
	r.mu.Unlock()
}

// Len reports how many principals are cached, expired ones included.
func (r *CachedResolver[U]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
