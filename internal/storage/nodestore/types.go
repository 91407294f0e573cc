// Package nodestore persists closed-ledger artifacts under content-addressed
// keys. Every stored object is a Node: a typed, optionally compressed blob
// keyed by the SHA-256 hash of its contents. Backends are pluggable and
// register themselves by name.
package nodestore

import (
	"context"
	"time"

	"github.com/trueeth/cw20-reflection/internal/types"
)

// NodeType identifies what kind of ledger artifact a node holds.
type NodeType uint32

const (
	// NodeLedgerHeader is a canonical CBOR ledger header.
	NodeLedgerHeader NodeType = 1
	// NodeStateSnapshot is the full canonical CBOR state snapshot of a
	// closed ledger, sorted by entry key.
	NodeStateSnapshot NodeType = 2
	// NodeTransaction is a canonical JSON transaction with its metadata.
	NodeTransaction NodeType = 3
)

// String returns a human-readable name for the node type.
func (t NodeType) String() string {
	switch t {
	case NodeLedgerHeader:
		return "ledger_header"
	case NodeStateSnapshot:
		return "state_snapshot"
	case NodeTransaction:
		return "transaction"
	default:
		return "unknown"
	}
}

// Node is a single stored ledger artifact.
type Node struct {
	Type      NodeType
	Hash      types.Hash256
	Data      types.Blob
	LedgerSeq uint32
	CreatedAt time.Time
}

// NewNode builds a node whose hash is the SHA-256 of its data.
func NewNode(nodeType NodeType, data []byte, ledgerSeq uint32) *Node {
	blob := make(types.Blob, len(data))
	copy(blob, data)
	return &Node{
		Type:      nodeType,
		Hash:      types.Hash256FromData(data),
		Data:      blob,
		LedgerSeq: ledgerSeq,
		CreatedAt: time.Now().UTC(),
	}
}

// Status reports the outcome of a backend operation.
type Status int

const (
	OK Status = iota
	NotFound
	DataCorrupt
	BackendError
)

// String returns a human-readable status name.
func (s Status) String() string {
	switch s {
	case OK:
		return "ok"
	case NotFound:
		return "not found"
	case DataCorrupt:
		return "data corrupt"
	case BackendError:
		return "backend error"
	default:
		return "unknown"
	}
}

// Backend is a raw key-value store for encoded nodes. Implementations must
// be safe for concurrent use.
type Backend interface {
	// Name identifies the backend instance, including its path if any.
	Name() string

	// Open prepares the backend. createIfMissing creates the underlying
	// store when it does not exist yet.
	Open(createIfMissing bool) error

	// Close releases the backend's resources.
	Close() error

	// IsOpen reports whether the backend is usable.
	IsOpen() bool

	// Fetch retrieves a node by hash.
	Fetch(hash types.Hash256) (*Node, Status)

	// Store persists a single node.
	Store(node *Node) Status

	// StoreBatch persists several nodes in one write.
	StoreBatch(nodes []*Node) Status

	// Sync flushes pending writes to stable storage.
	Sync() Status
}

// Statistics summarizes database activity since startup.
type Statistics struct {
	BackendName string `json:"backend"`
	Reads       uint64 `json:"reads"`
	Writes      uint64 `json:"writes"`
	ReadBytes   uint64 `json:"read_bytes"`
	WriteBytes  uint64 `json:"write_bytes"`
	CacheHits   uint64 `json:"cache_hits"`
	CacheMisses uint64 `json:"cache_misses"`
}

// Database is the caching store the ledger service talks to.
type Database interface {
	Store(ctx context.Context, node *Node) error
	StoreBatch(ctx context.Context, nodes []*Node) error
	Fetch(ctx context.Context, hash types.Hash256) (*Node, error)
	Stats() Statistics
	Sync() error
	Close() error
}
