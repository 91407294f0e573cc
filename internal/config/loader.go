package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Load builds the configuration from defaults, the config file, and
// environment variables. A missing file at the default location is not an
// error; an explicitly given path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	explicit := path != ""
	if path == "" {
		path = DefaultConfigFile
	}

	loaded, err := readConfigFile(v, path, explicit)
	if err != nil {
		return nil, err
	}

	v.SetEnvPrefix("REFLECTD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if loaded {
		config.configPath = path
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &config, nil
}

func readConfigFile(v *viper.Viper, path string, required bool) (bool, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if required {
			return false, fmt.Errorf("config file does not exist: %s", path)
		}
		return false, nil
	}

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return false, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return true, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http_addr", "127.0.0.1:5005")
	v.SetDefault("server.ws_addr", "127.0.0.1:6006")
	v.SetDefault("server.request_timeout", 30*time.Second)
	v.SetDefault("server.ledger_cache_size", 256)

	v.SetDefault("node_db.backend", "pebble")
	v.SetDefault("node_db.path", "data/nodestore")
	v.SetDefault("node_db.compressor", "lz4")
	v.SetDefault("node_db.compression_level", 0)
	v.SetDefault("node_db.cache_size", 4096)

	v.SetDefault("tx_index.driver", "sqlite")
	v.SetDefault("tx_index.dsn", "data/txindex.db")
	v.SetDefault("tx_index.max_open_conns", 1)
	v.SetDefault("tx_index.max_idle_conns", 1)
	v.SetDefault("tx_index.default_timeout", 5*time.Second)

	v.SetDefault("genesis_file", "")
}
