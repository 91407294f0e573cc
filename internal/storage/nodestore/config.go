package nodestore

import (
	"fmt"

	"github.com/trueeth/cw20-reflection/internal/storage/nodestore/compression"
)

// Config controls which backend and compressor a store uses.
type Config struct {
	// Backend is the registered backend name ("pebble", "leveldb", "memory").
	Backend string `json:"backend" mapstructure:"backend"`

	// Path is the on-disk location for persistent backends.
	Path string `json:"path" mapstructure:"path"`

	// Compressor is the registered compressor name ("lz4", "none").
	Compressor string `json:"compressor" mapstructure:"compressor"`

	// CompressionLevel is passed through to the compressor.
	CompressionLevel int `json:"compression_level" mapstructure:"compression_level"`

	// CacheSize is the number of decoded nodes kept in memory. Zero
	// disables the cache.
	CacheSize int `json:"cache_size" mapstructure:"cache_size"`
}

// DefaultConfig returns the production defaults.
func DefaultConfig() *Config {
	return &Config{
		Backend:          "pebble",
		Path:             "data/nodestore",
		Compressor:       "lz4",
		CompressionLevel: 0,
		CacheSize:        4096,
	}
}

// Validate checks the config against the registered backends and compressors.
func (c *Config) Validate() error {
	if c.Backend == "" {
		return fmt.Errorf("%w: backend is required", ErrInvalidConfig)
	}
	if !backendRegistered(c.Backend) {
		return fmt.Errorf("%w: backend %q is not registered", ErrInvalidConfig, c.Backend)
	}
	if c.Backend != "memory" && c.Path == "" {
		return fmt.Errorf("%w: backend %q requires a path", ErrInvalidConfig, c.Backend)
	}
	if c.Compressor == "" {
		return fmt.Errorf("%w: compressor is required", ErrInvalidConfig)
	}
	if _, err := compression.Get(c.Compressor); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("%w: cache size must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Option mutates a config.
type Option func(*Config)

// WithBackend selects the backend by registered name.
func WithBackend(name string) Option {
	return func(c *Config) { c.Backend = name }
}

// WithPath sets the on-disk location for persistent backends.
func WithPath(path string) Option {
	return func(c *Config) { c.Path = path }
}

// WithCompressor selects the compressor by registered name.
func WithCompressor(name string) Option {
	return func(c *Config) { c.Compressor = name }
}

// WithCacheSize sets the node cache capacity.
func WithCacheSize(size int) Option {
	return func(c *Config) { c.CacheSize = size }
}

// NewConfig builds a config from the defaults plus the given options.
func NewConfig(opts ...Option) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
