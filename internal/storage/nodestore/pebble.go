package nodestore

import (
	"fmt"
	"os"
	"sync/atomic"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/bloom"

	"github.com/trueeth/cw20-reflection/internal/storage/nodestore/compression"
	"github.com/trueeth/cw20-reflection/internal/types"
)

// PebbleBackend stores encoded nodes in a PebbleDB instance. It is the
// default backend for long-running nodes.
type PebbleBackend struct {
	db         *pebble.DB
	compressor compression.Compressor
	config     *Config

	open int64

	stats struct {
		reads        int64
		writes       int64
		bytesRead    int64
		bytesWritten int64
	}
}

// NewPebbleBackend creates a PebbleDB backend from the config.
func NewPebbleBackend(config *Config) (Backend, error) {
	if config == nil {
		config = DefaultConfig()
	}

	compressor, err := compression.Get(config.Compressor)
	if err != nil {
		return nil, fmt.Errorf("pebble backend: %w", err)
	}

	return &PebbleBackend{
		compressor: compressor,
		config:     config,
	}, nil
}

func (p *PebbleBackend) Name() string {
	return fmt.Sprintf("pebble(%s)", p.config.Path)
}

func (p *PebbleBackend) Open(createIfMissing bool) error {
	if !atomic.CompareAndSwapInt64(&p.open, 0, 1) {
		return fmt.Errorf("pebble backend already open")
	}

	if createIfMissing {
		if err := os.MkdirAll(p.config.Path, 0o755); err != nil {
			atomic.StoreInt64(&p.open, 0)
			return fmt.Errorf("create %s: %w", p.config.Path, err)
		}
	}

	db, err := pebble.Open(p.config.Path, p.buildOptions())
	if err != nil {
		atomic.StoreInt64(&p.open, 0)
		return fmt.Errorf("open pebble at %s: %w", p.config.Path, err)
	}
	p.db = db
	return nil
}

// buildOptions tunes Pebble for a point-lookup workload: keys are uniform
// 32-byte hashes, reads dominate, and values are already compressed by the
// node codec.
func (p *PebbleBackend) buildOptions() *pebble.Options {
	opts := &pebble.Options{
		Cache:        pebble.NewCache(128 << 20),
		MemTableSize: 64 << 20,
		Levels:       make([]pebble.LevelOptions, 1),
	}
	opts.Levels[0] = pebble.LevelOptions{
		BlockSize:      32 << 10,
		FilterPolicy:   bloom.FilterPolicy(10),
		FilterType:     pebble.TableFilter,
		Compression:    pebble.NoCompression,
		IndexBlockSize: 256 << 10,
	}
	return opts
}

func (p *PebbleBackend) Close() error {
	if !atomic.CompareAndSwapInt64(&p.open, 1, 0) {
		return nil
	}
	if err := p.db.Close(); err != nil {
		return fmt.Errorf("close pebble: %w", err)
	}
	return nil
}

func (p *PebbleBackend) IsOpen() bool {
	return atomic.LoadInt64(&p.open) != 0
}

func (p *PebbleBackend) Fetch(hash types.Hash256) (*Node, Status) {
	if !p.IsOpen() {
		return nil, BackendError
	}

	value, closer, err := p.db.Get(hash[:])
	if err != nil {
		if err == pebble.ErrNotFound {
			return nil, NotFound
		}
		return nil, BackendError
	}
	defer closer.Close()

	node, err := decodeNode(hash, value, p.compressor)
	if err != nil {
		return nil, DataCorrupt
	}

	atomic.AddInt64(&p.stats.reads, 1)
	atomic.AddInt64(&p.stats.bytesRead, int64(len(value)))
	return node, OK
}

func (p *PebbleBackend) Store(node *Node) Status {
	if node == nil || !p.IsOpen() {
		return BackendError
	}

	value, err := encodeNode(node, p.compressor, p.config.CompressionLevel)
	if err != nil {
		return BackendError
	}

	// NoSync keeps the hot path fast; the WAL covers durability and the
	// commit pipeline calls Sync after each closed ledger.
	if err := p.db.Set(node.Hash[:], value, pebble.NoSync); err != nil {
		return BackendError
	}

	atomic.AddInt64(&p.stats.writes, 1)
	atomic.AddInt64(&p.stats.bytesWritten, int64(len(value)))
	return OK
}

func (p *PebbleBackend) StoreBatch(nodes []*Node) Status {
	if !p.IsOpen() {
		return BackendError
	}
	if len(nodes) == 0 {
		return OK
	}

	batch := p.db.NewBatch()
	defer batch.Close()

	var totalBytes int64
	for _, node := range nodes {
		if node == nil {
			continue
		}
		value, err := encodeNode(node, p.compressor, p.config.CompressionLevel)
		if err != nil {
			return BackendError
		}
		if err := batch.Set(node.Hash[:], value, nil); err != nil {
			return BackendError
		}
		totalBytes += int64(len(value))
	}

	if err := batch.Commit(pebble.NoSync); err != nil {
		return BackendError
	}

	atomic.AddInt64(&p.stats.writes, int64(len(nodes)))
	atomic.AddInt64(&p.stats.bytesWritten, totalBytes)
	return OK
}

func (p *PebbleBackend) Sync() Status {
	if !p.IsOpen() {
		return BackendError
	}
	if err := p.db.Flush(); err != nil {
		return BackendError
	}
	return OK
}
