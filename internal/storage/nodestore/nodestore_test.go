package nodestore

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trueeth/cw20-reflection/internal/storage/nodestore/compression"
	"github.com/trueeth/cw20-reflection/internal/types"
)

func snapshotBlob(size int) []byte {
	// Repetitive content, like a CBOR state snapshot full of map keys.
	data := make([]byte, size)
	pattern := []byte("account.balance.reflected.")
	for i := range data {
		data[i] = pattern[i%len(pattern)]
	}
	return data
}

func TestMemoryBackendRoundTrip(t *testing.T) {
	backend := NewMemoryBackend()
	require.NoError(t, backend.Open(true))
	defer backend.Close()

	node := NewNode(NodeStateSnapshot, snapshotBlob(512), 7)
	require.Equal(t, OK, backend.Store(node))

	got, status := backend.Fetch(node.Hash)
	require.Equal(t, OK, status)
	require.Equal(t, NodeStateSnapshot, got.Type)
	require.Equal(t, uint32(7), got.LedgerSeq)
	require.True(t, bytes.Equal(node.Data, got.Data))

	// The stored node must be isolated from caller mutation.
	got.Data[0] = 'X'
	again, status := backend.Fetch(node.Hash)
	require.Equal(t, OK, status)
	require.NotEqual(t, byte('X'), again.Data[0])

	_, status = backend.Fetch(types.Hash256FromData([]byte("missing")))
	require.Equal(t, NotFound, status)
}

func TestMemoryBackendClosed(t *testing.T) {
	backend := NewMemoryBackend()
	require.NoError(t, backend.Open(true))
	require.Error(t, backend.Open(true))
	require.NoError(t, backend.Close())

	node := NewNode(NodeLedgerHeader, []byte("header"), 1)
	require.Equal(t, BackendError, backend.Store(node))
	_, status := backend.Fetch(node.Hash)
	require.Equal(t, BackendError, status)
}

func TestNodeCodecCompressedRoundTrip(t *testing.T) {
	compressor, err := compression.Get("lz4")
	require.NoError(t, err)

	node := NewNode(NodeStateSnapshot, snapshotBlob(4096), 42)
	encoded, err := encodeNode(node, compressor, 0)
	require.NoError(t, err)
	// Repetitive snapshot data must actually shrink.
	require.Less(t, len(encoded), len(node.Data))

	decoded, err := decodeNode(node.Hash, encoded, compressor)
	require.NoError(t, err)
	require.Equal(t, node.Type, decoded.Type)
	require.Equal(t, node.LedgerSeq, decoded.LedgerSeq)
	require.True(t, bytes.Equal(node.Data, decoded.Data))
}

func TestNodeCodecSmallPayloadStaysRaw(t *testing.T) {
	compressor, err := compression.Get("lz4")
	require.NoError(t, err)

	node := NewNode(NodeLedgerHeader, []byte("tiny header"), 3)
	encoded, err := encodeNode(node, compressor, 0)
	require.NoError(t, err)
	require.Equal(t, byte(0), encoded[20])

	decoded, err := decodeNode(node.Hash, encoded, compressor)
	require.NoError(t, err)
	require.True(t, bytes.Equal(node.Data, decoded.Data))
}

func TestNodeCodecTruncated(t *testing.T) {
	compressor, err := compression.Get("none")
	require.NoError(t, err)

	_, err = decodeNode(types.Hash256{}, []byte{1, 2, 3}, compressor)
	require.Error(t, err)
}

func TestBackendRegistry(t *testing.T) {
	names := AvailableBackends()
	require.Contains(t, names, "memory")
	require.Contains(t, names, "pebble")
	require.Contains(t, names, "leveldb")

	_, err := CreateBackend(&Config{Backend: "rocksdb"})
	require.ErrorIs(t, err, ErrBackendUnknown)
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg = NewConfig(WithBackend("memory"), WithCompressor("none"), WithCacheSize(0))
	require.NoError(t, cfg.Validate())

	cfg = NewConfig(WithBackend("pebble"), WithPath(""))
	require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg = NewConfig(WithCompressor("zstd"))
	require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg = NewConfig(WithBackend("bolt"))
	require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}

func TestDatabaseCaching(t *testing.T) {
	backend := NewMemoryBackend()
	require.NoError(t, backend.Open(true))

	db, err := NewDatabase(backend, 16)
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	node := NewNode(NodeTransaction, snapshotBlob(256), 9)
	require.NoError(t, db.Store(ctx, node))

	// First fetch hits the cache because Store populated it.
	got, err := db.Fetch(ctx, node.Hash)
	require.NoError(t, err)
	require.True(t, bytes.Equal(node.Data, got.Data))

	stats := db.Stats()
	require.Equal(t, uint64(1), stats.CacheHits)
	require.Equal(t, uint64(1), stats.Writes)

	_, err = db.Fetch(ctx, types.Hash256FromData([]byte("nope")))
	require.True(t, IsNotFound(err))
}

func TestDatabaseStoreBatch(t *testing.T) {
	backend := NewMemoryBackend()
	require.NoError(t, backend.Open(true))

	db, err := NewDatabase(backend, 0)
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	nodes := []*Node{
		NewNode(NodeLedgerHeader, []byte("header one"), 1),
		NewNode(NodeStateSnapshot, snapshotBlob(300), 1),
		nil,
	}
	require.NoError(t, db.StoreBatch(ctx, nodes))
	require.Equal(t, 2, backend.Len())

	for _, node := range nodes[:2] {
		got, err := db.Fetch(ctx, node.Hash)
		require.NoError(t, err)
		require.Equal(t, node.Type, got.Type)
	}
}
