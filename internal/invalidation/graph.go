// Package invalidation maps a mutated entity kind to the client-side read
// caches that must be refreshed.
//
// The graph is statically declared: the entity set is small and known, so a
// hand-written dependency map beats automatic tracking. It is intentionally
// not generalized further.
package invalidation

import (
	"context"
	"sync"
)

// dependents lists, per mutated kind, every cached view that embeds data
// from it. Item and order views carry category name/price snapshots, so
// category mutations stale both.
var dependents = map[string][]string{
	"category": {"category", "item", "order"},
	"item":     {"item", "order"},
	"order":    {"order"},
	"user":     {"user"},
	"role":     {"user"},
}

// auditView is stale after every mutation: all mutations are auditable.
const auditView = "audit"

// StaleKinds returns the views invalidated by a mutation of kind, the audit
// view always included. Unknown kinds still stale their own view.
func StaleKinds(kind string) []string {
	deps, ok := dependents[kind]
	if !ok {
		deps = []string{kind}
	}
	out := make([]string, 0, len(deps)+1)
	out = append(out, deps...)
	return append(out, auditView)
}

// Invalidator signals staleness to whatever carries the client read caches.
// Implementations must never fail the triggering mutation; errors are logged
// and swallowed (client caches self-heal on TTL).
type Invalidator interface {
	Invalidate(ctx context.Context, kind string)
}

// Nop discards invalidations; for tests and tooling.
type Nop struct{}

func (Nop) Invalidate(ctx context.Context, kind string) {}

// Memory records invalidations; useful for tests.
type Memory struct {
	mu    sync.Mutex
	kinds []string
}

func (m *Memory) Invalidate(ctx context.Context, kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kinds = append(m.kinds, kind)
}

func (m *Memory) Kinds() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.kinds))
	copy(out, m.kinds)
	return out
}
