package nodestore

import (
	"sync"
	"sync/atomic"

	"github.com/trueeth/cw20-reflection/internal/types"
)

// MemoryBackend holds nodes in a map. It backs unit tests and throwaway
// development nodes; closing it drops everything.
type MemoryBackend struct {
	mu   sync.RWMutex
	data map[types.Hash256]*Node

	open int64
}

// NewMemoryBackend creates an in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		data: make(map[types.Hash256]*Node),
	}
}

// NewMemoryBackendFromConfig adapts NewMemoryBackend to the factory
// signature. The config is unused.
func NewMemoryBackendFromConfig(config *Config) (Backend, error) {
	return NewMemoryBackend(), nil
}

func (m *MemoryBackend) Name() string { return "memory" }

func (m *MemoryBackend) Open(createIfMissing bool) error {
	if !atomic.CompareAndSwapInt64(&m.open, 0, 1) {
		return ErrBackendClosed
	}
	return nil
}

func (m *MemoryBackend) Close() error {
	if !atomic.CompareAndSwapInt64(&m.open, 1, 0) {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[types.Hash256]*Node)
	return nil
}

func (m *MemoryBackend) IsOpen() bool {
	return atomic.LoadInt64(&m.open) != 0
}

func (m *MemoryBackend) Fetch(hash types.Hash256) (*Node, Status) {
	if !m.IsOpen() {
		return nil, BackendError
	}

	m.mu.RLock()
	node, found := m.data[hash]
	m.mu.RUnlock()

	if !found {
		return nil, NotFound
	}
	return copyNode(node), OK
}

func (m *MemoryBackend) Store(node *Node) Status {
	if node == nil || !m.IsOpen() {
		return BackendError
	}

	m.mu.Lock()
	m.data[node.Hash] = copyNode(node)
	m.mu.Unlock()
	return OK
}

func (m *MemoryBackend) StoreBatch(nodes []*Node) Status {
	if !m.IsOpen() {
		return BackendError
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, node := range nodes {
		if node == nil {
			continue
		}
		m.data[node.Hash] = copyNode(node)
	}
	return OK
}

func (m *MemoryBackend) Sync() Status {
	if !m.IsOpen() {
		return BackendError
	}
	return OK
}

// Len returns the number of stored nodes.
func (m *MemoryBackend) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

// copyNode clones a node so callers cannot mutate stored state.
func copyNode(node *Node) *Node {
	data := make(types.Blob, len(node.Data))
	copy(data, node.Data)
	return &Node{
		Type:      node.Type,
		Hash:      node.Hash,
		Data:      data,
		LedgerSeq: node.LedgerSeq,
		CreatedAt: node.CreatedAt,
	}
}
