package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	// Relay API
	RelayBaseURL   string
	RequestTimeout time.Duration

	// Fixed bridging route
	OriginChainID      int64
	DestinationChainID int64

	// Origin chain access
	OriginRPCURL string

	// Hex-encoded private key for the connected wallet. Optional: quoting
	// works without it, swapping does not.
	PrivateKey string
}

var globalConfig *Config

// Load reads configuration from environment variables and config file
func Load() (*Config, error) {
	viper.SetConfigName(".relay-bridge")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME")
	viper.AddConfigPath(".")

	// Set default values
	viper.SetDefault("relay_base_url", "https://api.relay.link")
	viper.SetDefault("request_timeout", "30s")
	viper.SetDefault("origin_chain_id", 8453)       // Base
	viper.SetDefault("destination_chain_id", 42161) // Arbitrum One
	viper.SetDefault("origin_rpc_url", "https://mainnet.base.org")

	// Read from environment variables
	viper.SetEnvPrefix("RELAY_BRIDGE")
	viper.AutomaticEnv()

	// Read config file (optional)
	_ = viper.ReadInConfig()

	cfg := &Config{
		RelayBaseURL:       viper.GetString("relay_base_url"),
		RequestTimeout:     viper.GetDuration("request_timeout"),
		OriginChainID:      viper.GetInt64("origin_chain_id"),
		DestinationChainID: viper.GetInt64("destination_chain_id"),
		OriginRPCURL:       viper.GetString("origin_rpc_url"),
		PrivateKey:         viper.GetString("private_key"),
	}

	if cfg.RelayBaseURL == "" {
		return nil, fmt.Errorf("relay base URL is empty. Set RELAY_BRIDGE_RELAY_BASE_URL or relay_base_url in .relay-bridge.yaml")
	}
	if cfg.OriginRPCURL == "" {
		return nil, fmt.Errorf("origin RPC URL is empty. Set RELAY_BRIDGE_ORIGIN_RPC_URL or origin_rpc_url in .relay-bridge.yaml")
	}

	globalConfig = cfg
	return cfg, nil
}

// HasWallet reports whether a signing key is configured
func (c *Config) HasWallet() bool {
	return c.PrivateKey != ""
}

// Get returns the global configuration
func Get() *Config {
	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
			os.Exit(1)
		}
		return cfg
	}
	return globalConfig
}

// Set updates the global configuration
func Set(cfg *Config) {
	globalConfig = cfg
}
