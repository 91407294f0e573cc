package nodestore

import (
	"fmt"
	"sort"
	"sync"
)

// BackendFactory builds a backend from a config.
type BackendFactory func(config *Config) (Backend, error)

var (
	backendMu sync.RWMutex
	backends  = make(map[string]BackendFactory)
)

// RegisterBackend makes a backend factory available under the given name.
func RegisterBackend(name string, factory BackendFactory) {
	backendMu.Lock()
	defer backendMu.Unlock()
	backends[name] = factory
}

// CreateBackend instantiates the backend named in the config.
func CreateBackend(config *Config) (Backend, error) {
	backendMu.RLock()
	factory, ok := backends[config.Backend]
	backendMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBackendUnknown, config.Backend)
	}
	return factory(config)
}

// AvailableBackends lists the registered backend names, sorted.
func AvailableBackends() []string {
	backendMu.RLock()
	defer backendMu.RUnlock()

	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func backendRegistered(name string) bool {
	backendMu.RLock()
	defer backendMu.RUnlock()
	_, ok := backends[name]
	return ok
}

func init() {
	RegisterBackend("memory", NewMemoryBackendFromConfig)
	RegisterBackend("pebble", NewPebbleBackend)
	RegisterBackend("leveldb", NewLevelDBBackend)
}
