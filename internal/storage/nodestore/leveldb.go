package nodestore

import (
	"fmt"
	"sync/atomic"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"

	"github.com/trueeth/cw20-reflection/internal/storage/nodestore/compression"
	"github.com/trueeth/cw20-reflection/internal/types"
)

// LevelDBBackend stores encoded nodes in a goleveldb instance. It trades
// some throughput against Pebble for a smaller dependency footprint and is
// the usual pick for archive replicas.
type LevelDBBackend struct {
	db         *leveldb.DB
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

// NewLevelDBBackend creates a goleveldb backend from the config.
func NewLevelDBBackend(config *Config) (Backend, error) {
	if config == nil {
		config = DefaultConfig()
	}

	compressor, err := compression.Get(config.Compressor)
	if err != nil {
		return nil, fmt.Errorf("leveldb backend: %w", err)
	}

	return &LevelDBBackend{
		compressor: compressor,
		config:     config,
	}, nil
}

func (l *LevelDBBackend) Name() string {
	return fmt.Sprintf("leveldb(%s)", l.config.Path)
}

func (l *LevelDBBackend) Open(createIfMissing bool) error {
	if !atomic.CompareAndSwapInt64(&l.open, 0, 1) {
		return fmt.Errorf("leveldb backend already open")
	}

	opts := &opt.Options{
		// The node codec already compresses payloads.
		Compression:            opt.NoCompression,
		ErrorIfMissing:         !createIfMissing,
		OpenFilesCacheCapacity: 256,
	}

	db, err := leveldb.OpenFile(l.config.Path, opts)
	if err != nil {
		atomic.StoreInt64(&l.open, 0)
		return fmt.Errorf("open leveldb at %s: %w", l.config.Path, err)
	}
	l.db = db
	return nil
}

func (l *LevelDBBackend) Close() error {
	if !atomic.CompareAndSwapInt64(&l.open, 1, 0) {
		return nil
	}
	if err := l.db.Close(); err != nil {
		return fmt.Errorf("close leveldb: %w", err)
	}
	return nil
}

func (l *LevelDBBackend) IsOpen() bool {
	return atomic.LoadInt64(&l.open) != 0
}

func (l *LevelDBBackend) Fetch(hash types.Hash256) (*Node, Status) {
	if !l.IsOpen() {
		return nil, BackendError
	}

	value, err := l.db.Get(hash[:], nil)
	if err != nil {
		if err == leveldb.ErrNotFound {
			return nil, NotFound
		}
		return nil, BackendError
	}

	node, err := decodeNode(hash, value, l.compressor)
	if err != nil {
		return nil, DataCorrupt
	}

	atomic.AddInt64(&l.stats.reads, 1)
	atomic.AddInt64(&l.stats.bytesRead, int64(len(value)))
	return node, OK
}

func (l *LevelDBBackend) Store(node *Node) Status {
	if node == nil || !l.IsOpen() {
		return BackendError
	}

	value, err := encodeNode(node, l.compressor, l.config.CompressionLevel)
	if err != nil {
		return BackendError
	}

	if err := l.db.Put(node.Hash[:], value, nil); err != nil {
		return BackendError
	}

	atomic.AddInt64(&l.stats.writes, 1)
	atomic.AddInt64(&l.stats.bytesWritten, int64(len(value)))
	return OK
}

func (l *LevelDBBackend) StoreBatch(nodes []*Node) Status {
	if !l.IsOpen() {
		return BackendError
	}
	if len(nodes) == 0 {
		return OK
	}

	batch := new(leveldb.Batch)
	var totalBytes int64
	for _, node := range nodes {
		if node == nil {
			continue
		}
		value, err := encodeNode(node, l.compressor, l.config.CompressionLevel)
		if err != nil {
			return BackendError
		}
		batch.Put(node.Hash[:], value)
		totalBytes += int64(len(value))
	}

	if err := l.db.Write(batch, nil); err != nil {
		return BackendError
	}

	atomic.AddInt64(&l.stats.writes, int64(len(nodes)))
	atomic.AddInt64(&l.stats.bytesWritten, totalBytes)
	return OK
}

func (l *LevelDBBackend) Sync() Status {
	if !l.IsOpen() {
		return BackendError
	}
	// goleveldb has no explicit flush; an empty synced write forces the
	// journal to disk.
	if err := l.db.Write(new(leveldb.Batch), &opt.WriteOptions{Sync: true}); err != nil {
		return BackendError
	}
	return OK
}
