package pricing

import (
	"sync"
	"time"

	"github.com/cgulucan/bilanco/internal/domain"
)

// snapshotCache memoizes the last fetched price snapshot for a TTL.
// Invalidation is logical: bumping the generation counter makes any held
// entry stale without eviction machinery, so a forced refresh is
// guaranteed to bypass the memoized result.
type snapshotCache struct {
	mu         sync.RWMutex
	snap       domain.PriceSnapshot
	generation uint64
	storedGen  uint64
	expiresAt  time.Time
	hasEntry   bool
}

func newSnapshotCache() *snapshotCache {
	return &snapshotCache{}
}

func (c *snapshotCache) get() (domain.PriceSnapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.hasEntry || c.storedGen != c.generation || time.Now().After(c.expiresAt) {
		return domain.PriceSnapshot{}, false
	}
	return c.snap, true
}

func (c *snapshotCache) set(snap domain.PriceSnapshot, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.snap = snap
	c.storedGen = c.generation
	c.expiresAt = time.Now().Add(ttl)
	c.hasEntry = true
}

// invalidate bumps the generation so the held entry can no longer be served.
func (c *snapshotCache) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
}
