package config

import (
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. BTF_NETWORK_CHAIN_ID
// or BTF_PRIVATE_KEY.
const EnvPrefix = "BTF"

// Load reads configuration from path (YAML, JSON or TOML, chosen by
// extension) and from BTF_* environment variables, then runs Validate.
// An empty path loads from the environment only.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		mapstructure.TextUnmarshallerHookFunc(),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Network = completeNetwork(cfg.Network)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override it even when
// the file does not mention it.
func setDefaults(v *viper.Viper) {
	v.SetDefault("network.chain_id", Polygon.ChainID)
	v.SetDefault("network.network_name", "")
	v.SetDefault("network.rpc_urls", []string{})
	v.SetDefault("network.explorer_url", "")
	v.SetDefault("endpoints", []string{})
	v.SetDefault("private_key", "")
	v.SetDefault("ipfs_url", "")
	v.SetDefault("lighthouse_url", "")
	v.SetDefault("debug", false)

	v.SetDefault("timeouts.dial", "5s")
	v.SetDefault("timeouts.rpc_attempt", "10s")
	v.SetDefault("timeouts.receipt_wait", "3m")
	v.SetDefault("timeouts.receipt_poll", "2s")
	v.SetDefault("timeouts.metadata", "30s")

	v.SetDefault("retries", 2)
	v.SetDefault("endpoint_cooldown", "30s")
	v.SetDefault("cache_size", 4096)

	v.SetDefault("cache_ttl.artist", "5m")
	v.SetDefault("cache_ttl.song", "5m")
	v.SetDefault("cache_ttl.balance", "30s")
	v.SetDefault("cache_ttl.pool", "60s")
	v.SetDefault("cache_ttl.counts", "2m")
	v.SetDefault("cache_ttl.royalties", "30s")
	v.SetDefault("cache_ttl.metadata", "30m")

	v.SetDefault("deadline_window", "1h")
	v.SetDefault("slippage_percent", 0.5)
	v.SetDefault("pool_fee_bps", 30)
	v.SetDefault("gas_buffer_percent", 20)
}

// completeNetwork fills the descriptive fields of a predefined network when
// only its chain id was configured.
func completeNetwork(n Network) Network {
	preset, ok := NetworkByChainID(n.ChainID)
	if !ok {
		return n
	}
	if n.Name == "" {
		n.Name = preset.Name
	}
	if n.Currency == (NativeCurrency{}) {
		n.Currency = preset.Currency
	}
	if len(n.RPCURLs) == 0 {
		n.RPCURLs = preset.RPCURLs
	}
	if n.ExplorerURL == "" {
		n.ExplorerURL = preset.ExplorerURL
	}
	return n
}
