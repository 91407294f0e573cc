package txindex

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidDriver is returned for unsupported database drivers.
	ErrInvalidDriver = errors.New("invalid database driver")

	// ErrClosed is returned when the index is used after Close.
	ErrClosed = errors.New("transaction index closed")

	// ErrNotFound is returned when a transaction is not in the index.
	ErrNotFound = errors.New("transaction not found")
)

// Config selects the SQL driver and connection for the transaction index.
type Config struct {
	// Driver is "sqlite" or "postgres".
	Driver string `json:"driver" mapstructure:"driver"`

	// DSN is the driver-specific connection string. For sqlite this is a
	// file path or ":memory:".
	DSN string `json:"dsn" mapstructure:"dsn"`

	MaxOpenConns   int           `json:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns   int           `json:"max_idle_conns" mapstructure:"max_idle_conns"`
	DefaultTimeout time.Duration `json:"default_timeout" mapstructure:"default_timeout"`
}

// DefaultConfig returns a file-backed sqlite configuration.
func DefaultConfig() *Config {
	return &Config{
		Driver:         "sqlite",
		DSN:            "data/txindex.db",
		MaxOpenConns:   1, // sqlite allows one writer
		MaxIdleConns:   1,
		DefaultTimeout: 30 * time.Second,
	}
}

// Validate normalizes and checks the config.
func (c *Config) Validate() error {
	switch c.Driver {
	case "sqlite", "sqlite3":
		c.Driver = "sqlite"
		if c.MaxOpenConns == 0 {
			c.MaxOpenConns = 1
		}
	case "postgres", "postgresql":
		c.Driver = "postgres"
		if c.MaxOpenConns == 0 {
			c.MaxOpenConns = 25
		}
	default:
		return fmt.Errorf("%w: %s", ErrInvalidDriver, c.Driver)
	}

	if c.DSN == "" {
		return fmt.Errorf("%w: dsn is required", ErrInvalidDriver)
	}
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = 1
	}
	if c.DefaultTimeout == 0 {
		c.DefaultTimeout = 30 * time.Second
	}
	return nil
}

// driverName maps the config driver to the registered database/sql driver.
func (c *Config) driverName() string {
	if c.Driver == "postgres" {
		return "postgres" // lib/pq
	}
	return "sqlite" // modernc.org/sqlite
}
