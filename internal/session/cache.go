package session

import (
	"sync"
	"time"

	"github.com/Kartikpatkar/sfpkg-cli/api/schemas"
)

// Cache holds the last authenticated resolution for a short TTL so that
// back-to-back commands don't rescan cookies and re-probe the org.
// Failed resolutions are never stored; the next request always rescans.
type Cache struct {
	mu       sync.Mutex
	ttl      time.Duration
	org      schemas.OrgSession
	storedAt time.Time
}

// NewCache creates a cache with the given TTL.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{ttl: ttl}
}

// Get returns the cached session if it is authenticated and still fresh.
func (c *Cache) Get(now time.Time) (schemas.OrgSession, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.org.IsAuthenticated {
		return schemas.OrgSession{}, false
	}
	if now.Sub(c.storedAt) >= c.ttl {
		return schemas.OrgSession{}, false
	}
	return c.org, true
}

// Put stores an authenticated session. Unauthenticated results are dropped.
func (c *Cache) Put(org schemas.OrgSession, now time.Time) {
	if !org.IsAuthenticated {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.org = org
	c.storedAt = now
}

// Invalidate clears the cache, e.g. when the user switches orgs.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.org = schemas.OrgSession{}
	c.storedAt = time.Time{}
}
