package service

import (
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/trueeth/cw20-reflection/internal/core/ledger"
	"github.com/trueeth/cw20-reflection/internal/types"
)

// LedgerCache keeps recently closed ledgers in memory, addressable by
// sequence and by hash. Both indexes point at the same ledgers; eviction in
// one removes the entry from the other.
type LedgerCache struct {
	mu sync.Mutex

	bySeq  *lru.Cache[uint32, *ledger.Ledger]
	byHash *lru.Cache[types.Hash256, *ledger.Ledger]

	hits   uint64
	misses uint64
}

// CacheStats reports cache activity.
type CacheStats struct {
	Size   int    `json:"size"`
	Hits   uint64 `json:"hits"`
	Misses uint64 `json:"misses"`
}

// NewLedgerCache creates a cache holding up to capacity ledgers.
func NewLedgerCache(capacity int) (*LedgerCache, error) {
	c := &LedgerCache{}

	bySeq, err := lru.NewWithEvict(capacity, func(seq uint32, l *ledger.Ledger) {
		c.byHash.Remove(l.Hash())
	})
	if err != nil {
		return nil, err
	}
	byHash, err := lru.New[types.Hash256, *ledger.Ledger](capacity)
	if err != nil {
		return nil, err
	}

	c.bySeq = bySeq
	c.byHash = byHash
	return c, nil
}

// Put caches a closed ledger.
func (c *LedgerCache) Put(l *ledger.Ledger) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bySeq.Add(l.Sequence(), l)
	c.byHash.Add(l.Hash(), l)
}

// BySequence returns the cached ledger at seq.
func (c *LedgerCache) BySequence(seq uint32) (*ledger.Ledger, bool) {
	c.mu.Lock()
	l, ok := c.bySeq.Get(seq)
	c.mu.Unlock()
	c.record(ok)
	return l, ok
}

// ByHash returns the cached ledger with the given hash.
func (c *LedgerCache) ByHash(hash types.Hash256) (*ledger.Ledger, bool) {
	c.mu.Lock()
	l, ok := c.byHash.Get(hash)
	c.mu.Unlock()
	c.record(ok)
	return l, ok
}

func (c *LedgerCache) record(hit bool) {
	if hit {
		atomic.AddUint64(&c.hits, 1)
		return
	}
	atomic.AddUint64(&c.misses, 1)
}

// Stats returns current cache statistics.
func (c *LedgerCache) Stats() CacheStats {
	c.mu.Lock()
	size := c.bySeq.Len()
	c.mu.Unlock()
	return CacheStats{
		Size:   size,
		Hits:   atomic.LoadUint64(&c.hits),
		Misses: atomic.LoadUint64(&c.misses),
	}
}
