package ytdlp

import (
	"sync"
	"time"
)

// probeCache memoizes probe results for a short TTL so repeated /api/info
// calls for the same URL do not hammer the extractor. It is never consulted
// for dedup decisions; the ledger alone owns those.
type probeCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]probeEntry
}

type probeEntry struct {
	meta *Metadata
	at   time.Time
}

func newProbeCache(ttl time.Duration) *probeCache {
	return &probeCache{
		ttl:     ttl,
		entries: make(map[string]probeEntry),
	}
}

func (c *probeCache) get(url string) *Metadata {
	if c.ttl <= 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[url]
	if !ok {
		return nil
	}
	if time.Since(entry.at) > c.ttl {
		delete(c.entries, url)
		return nil
	}

	return entry.meta
}

func (c *probeCache) put(url string, meta *Metadata) {
	if c.ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[url] = probeEntry{meta: meta, at: time.Now()}
}
