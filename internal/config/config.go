// Package config loads the node configuration from defaults, an optional
// TOML file, and REFLECTD_ environment variables, in that priority order.
package config

import (
	"fmt"
	"time"

	"github.com/trueeth/cw20-reflection/internal/storage/nodestore"
	"github.com/trueeth/cw20-reflection/internal/storage/txindex"
)

// DefaultConfigFile is the config file name probed when no path is given.
const DefaultConfigFile = "reflectd.toml"

// Config is the complete node configuration.
type Config struct {
	Server  ServerConfig     `toml:"server" mapstructure:"server"`
	NodeDB  nodestore.Config `toml:"node_db" mapstructure:"node_db"`
	TxIndex txindex.Config   `toml:"tx_index" mapstructure:"tx_index"`

	// GenesisFile points to a genesis JSON document. Empty uses the
	// built-in default genesis.
	GenesisFile string `toml:"genesis_file" mapstructure:"genesis_file"`

	configPath string `toml:"-" mapstructure:"-"`
}

// ServerConfig holds the RPC listener settings.
type ServerConfig struct {
	// HTTPAddr is the JSON-RPC listen address.
	HTTPAddr string `toml:"http_addr" mapstructure:"http_addr"`

	// WSAddr is the WebSocket listen address. Empty disables the
	// WebSocket listener.
	WSAddr string `toml:"ws_addr" mapstructure:"ws_addr"`

	// RequestTimeout bounds each RPC method call.
	RequestTimeout time.Duration `toml:"request_timeout" mapstructure:"request_timeout"`

	// LedgerCacheSize is the number of closed ledgers kept in memory.
	LedgerCacheSize int `toml:"ledger_cache_size" mapstructure:"ledger_cache_size"`
}

// ConfigPath returns the file this configuration was loaded from, empty
// when only defaults and environment applied.
func (c *Config) ConfigPath() string {
	return c.configPath
}

// Validate checks the complete configuration.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr cannot be empty")
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("server.request_timeout must be positive")
	}
	if c.Server.LedgerCacheSize <= 0 {
		return fmt.Errorf("server.ledger_cache_size must be positive")
	}
	if err := c.NodeDB.Validate(); err != nil {
		return fmt.Errorf("node_db: %w", err)
	}
	if err := c.TxIndex.Validate(); err != nil {
		return fmt.Errorf("tx_index: %w", err)
	}
	return nil
}
