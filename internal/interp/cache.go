package interp

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rhinoai/cad-interpreter/internal/model"
	"github.com/rhinoai/cad-interpreter/pkg/metrics"
)

// ResponseCache stores successful interpretation results keyed by a
// content fingerprint of the input and the observable conversation state.
// Entries expire after a fixed TTL, checked lazily on read and reaped by
// Sweep.
type ResponseCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

type cacheEntry struct {
	result   *model.ProcessingResult
	storedAt time.Time
}

// NewResponseCache creates a cache with the given TTL.
func NewResponseCache(ttl time.Duration) *ResponseCache {
	return &ResponseCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns a copy of the cached result for key, or nil on a miss. An
// expired entry is removed and counts as a miss.
func (c *ResponseCache) Get(key string) *model.ProcessingResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()
		return nil
	}
	if c.now().Sub(entry.storedAt) > c.ttl {
		delete(c.entries, key)
		metrics.CacheLookupsTotal.WithLabelValues("expired").Inc()
		return nil
	}

	metrics.CacheLookupsTotal.WithLabelValues("hit").Inc()
	copied := *entry.result
	copied.Cached = true
	if entry.result.Parameters != nil {
		copied.Parameters = entry.result.Parameters.Clone()
	}
	return &copied
}

// Put stores a result. Only fully successful results are cacheable;
// warnings, partials and errors are dropped so that transient failures
// are retried on the next identical request.
func (c *ResponseCache) Put(key string, result *model.ProcessingResult) {
	if result == nil || result.Kind != model.ResultSuccess {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	stored := *result
	if result.Parameters != nil {
		stored.Parameters = result.Parameters.Clone()
	}
	c.entries[key] = cacheEntry{result: &stored, storedAt: c.now()}
}

// Sweep removes all expired entries and returns the number removed.
func (c *ResponseCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, entry := range c.entries {
		if now.Sub(entry.storedAt) > c.ttl {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Clear drops every entry.
func (c *ResponseCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

// Len reports the number of entries, expired or not.
func (c *ResponseCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Fingerprint derives the cache key from the input and the observable
// conversation state. Raw history and timestamps are excluded: two
// requests with the same text and the same effective scene state share a
// key even when issued minutes apart. The scene snapshot inside the key
// means a mutated scene naturally produces fresh keys without explicit
// invalidation.
func Fingerprint(input string, cctx *model.ConversationContext) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(strings.TrimSpace(input)))
	b.WriteByte('\n')

	if cctx != nil {
		b.WriteString(strings.Join(cctx.RecentOperations, ","))
		b.WriteByte('\n')
		b.WriteString(cctx.ActiveLayer)
		b.WriteByte('\n')
		b.WriteString(strings.Join(cctx.SelectedObjectIDs, ","))
		b.WriteByte('\n')
		b.WriteString(cctx.SceneDescription)
		b.WriteByte('\n')
		if last := cctx.LastCreatedObject; last != nil {
			fmt.Fprintf(&b, "%s|%s|%s", last.ID, last.Type, last.Position.String())
		}
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
