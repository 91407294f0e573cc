// Package compression provides pluggable compression for ledger snapshots
// before they are written to the node store. Implementations register
// themselves by name; the store picks one from its config.
package compression

import (
	"fmt"
	"sync"
)

// Compressor compresses and decompresses snapshot payloads.
type Compressor interface {
	// Name returns the registered name of the algorithm.
	Name() string

	// Compress compresses data at the given level. Levels outside the
	// algorithm's range are clamped.
	Compress(data []byte, level int) ([]byte, error)

	// Decompress decompresses data. sizeHint is the exact uncompressed
	// length recorded alongside the payload.
	Decompress(data []byte, sizeHint int) ([]byte, error)
}

// Factory creates a new compressor instance.
type Factory func() Compressor

var (
	mu          sync.RWMutex
	compressors = make(map[string]Factory)
)

// Register makes a compressor available under the given name.
func Register(name string, factory Factory) {
	mu.Lock()
	defer mu.Unlock()
	compressors[name] = factory
}

// Get returns a new compressor instance for the given name.
func Get(name string) (Compressor, error) {
	mu.RLock()
	factory, ok := compressors[name]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown compressor: %s", name)
	}
	return factory(), nil
}

// Available lists the registered compressor names.
func Available() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(compressors))
	for name := range compressors {
		names = append(names, name)
	}
	return names
}

func init() {
	Register("none", func() Compressor { return &NoCompressor{} })
	Register("lz4", func() Compressor { return &LZ4Compressor{} })
}
