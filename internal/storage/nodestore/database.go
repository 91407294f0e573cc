package nodestore

import (
	"context"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/trueeth/cw20-reflection/internal/types"
)

// DatabaseImpl fronts a Backend with an LRU cache of decoded nodes.
type DatabaseImpl struct {
	backend Backend
	cache   *lru.Cache[types.Hash256, *Node]

	stats struct {
		reads       uint64
		writes      uint64
		readBytes   uint64
		writeBytes  uint64
		cacheHits   uint64
		cacheMisses uint64
	}
}

// Open creates and opens a database per the config. The backend is created
// through the factory registry, so any registered backend name works.
func Open(config *Config) (*DatabaseImpl, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	backend, err := CreateBackend(config)
	if err != nil {
		return nil, err
	}
	if err := backend.Open(true); err != nil {
		return nil, err
	}

	return NewDatabase(backend, config.CacheSize)
}

// NewDatabase wraps an already-open backend. cacheSize zero disables the
// cache.
func NewDatabase(backend Backend, cacheSize int) (*DatabaseImpl, error) {
	d := &DatabaseImpl{backend: backend}
	if cacheSize > 0 {
		cache, err := lru.New[types.Hash256, *Node](cacheSize)
		if err != nil {
			return nil, err
		}
		d.cache = cache
	}
	return d, nil
}

// Store persists one node and caches it.
func (d *DatabaseImpl) Store(ctx context.Context, node *Node) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if status := d.backend.Store(node); status != OK {
		return backendErr(d.backend.Name(), "store", status)
	}

	atomic.AddUint64(&d.stats.writes, 1)
	atomic.AddUint64(&d.stats.writeBytes, uint64(len(node.Data)))
	if d.cache != nil {
		d.cache.Add(node.Hash, node)
	}
	return nil
}

// StoreBatch persists several nodes in one backend write.
func (d *DatabaseImpl) StoreBatch(ctx context.Context, nodes []*Node) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if status := d.backend.StoreBatch(nodes); status != OK {
		return backendErr(d.backend.Name(), "store batch", status)
	}

	for _, node := range nodes {
		if node == nil {
			continue
		}
		atomic.AddUint64(&d.stats.writes, 1)
		atomic.AddUint64(&d.stats.writeBytes, uint64(len(node.Data)))
		if d.cache != nil {
			d.cache.Add(node.Hash, node)
		}
	}
	return nil
}

// Fetch retrieves a node by hash, consulting the cache first. A missing
// node is reported as ErrNotFound.
func (d *DatabaseImpl) Fetch(ctx context.Context, hash types.Hash256) (*Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	atomic.AddUint64(&d.stats.reads, 1)

	if d.cache != nil {
		if node, ok := d.cache.Get(hash); ok {
			atomic.AddUint64(&d.stats.cacheHits, 1)
			return node, nil
		}
		atomic.AddUint64(&d.stats.cacheMisses, 1)
	}

	node, status := d.backend.Fetch(hash)
	if status != OK {
		return nil, backendErr(d.backend.Name(), "fetch", status)
	}

	atomic.AddUint64(&d.stats.readBytes, uint64(len(node.Data)))
	if d.cache != nil {
		d.cache.Add(hash, node)
	}
	return node, nil
}

// Stats returns activity counters since startup.
func (d *DatabaseImpl) Stats() Statistics {
	return Statistics{
		BackendName: d.backend.Name(),
		Reads:       atomic.LoadUint64(&d.stats.reads),
		Writes:      atomic.LoadUint64(&d.stats.writes),
		ReadBytes:   atomic.LoadUint64(&d.stats.readBytes),
		WriteBytes:  atomic.LoadUint64(&d.stats.writeBytes),
		CacheHits:   atomic.LoadUint64(&d.stats.cacheHits),
		CacheMisses: atomic.LoadUint64(&d.stats.cacheMisses),
	}
}

// Sync flushes pending backend writes.
func (d *DatabaseImpl) Sync() error {
	if status := d.backend.Sync(); status != OK {
		return backendErr(d.backend.Name(), "sync", status)
	}
	return nil
}

// Close closes the underlying backend.
func (d *DatabaseImpl) Close() error {
	if d.cache != nil {
		d.cache.Purge()
	}
	return d.backend.Close()
}
