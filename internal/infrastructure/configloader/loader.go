package configloader

import (
	"fmt"
	"os"
	"strings"

	"github.com/asaskevich/govalidator"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// ServerConfig holds server-specific configurations.
type ServerConfig struct {
	Port               string   `yaml:"port"`
	ReadTimeoutSec     int      `yaml:"readTimeoutSec"`
	WriteTimeoutSec    int      `yaml:"writeTimeoutSec"`
	IdleTimeoutSec     int      `yaml:"idleTimeoutSec"`
	CORSAllowedOrigins []string `yaml:"corsAllowedOrigins"`
	EnablePprof        bool     `yaml:"enablePprof"`
}

// LoggingConfig holds logging-specific configurations.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
	File        string `yaml:"file"`
}

// NetworkConfig selects the XRPL network and optionally overrides its endpoints.
type NetworkConfig struct {
	Identifier   string   `yaml:"identifier"` // mainnet, testnet or devnet
	JSONRPCURLs  []string `yaml:"jsonRpcUrls"`
	WebSocketURL string   `yaml:"webSocketUrl"`
}

// RpcClientConfig holds configuration for the ledger JSON-RPC client.
type RpcClientConfig struct {
	AttemptTimeoutMs    int64 `yaml:"attemptTimeoutMs"`
	RateLimit           int   `yaml:"rateLimit"`
	BurstLimit          int   `yaml:"burstLimit"`
	MaxIdleConnsPerHost int   `yaml:"maxIdleConnsPerHost"`
	AccountTxLimit      int   `yaml:"accountTxLimit"`
	MaxPages            int   `yaml:"maxPages"`
}

// WalletServiceConfig holds configuration for the wallet aggregator.
type WalletServiceConfig struct {
	MaxConcurrentRefreshes int    `yaml:"maxConcurrentRefreshes"`
	AutoRefreshIntervalSec int    `yaml:"autoRefreshIntervalSec"`
	FetchTimeoutMs         int64  `yaml:"fetchTimeoutMs"`
	SeedFile               string `yaml:"seedFile"`
}

// AssetsConfig holds configuration for asset collection and NFT metadata.
type AssetsConfig struct {
	MemeTokensFile          string `yaml:"memeTokensFile"`
	IPFSGateway             string `yaml:"ipfsGateway"`
	MetadataTimeoutMs       int64  `yaml:"metadataTimeoutMs"`
	MetadataWorkers         int    `yaml:"metadataWorkers"`
	MetadataCacheTTLMinutes int    `yaml:"metadataCacheTTLMinutes"`
	MaxMetadataBytes        int    `yaml:"maxMetadataBytes"`
}

// CoinGeckoConfig holds CoinGecko API specific configurations.
type CoinGeckoConfig struct {
	APIKey               string `yaml:"apiKey"`
	BaseURL              string `yaml:"baseURL"`
	RequestTimeoutMillis int64  `yaml:"requestTimeoutMillis"`
	CoinID               string `yaml:"coinId"`
	VsCurrency           string `yaml:"vsCurrency"`
}

// SentiCryptConfig holds SentiCrypt API specific configurations.
type SentiCryptConfig struct {
	BaseURL              string `yaml:"baseURL"`
	RequestTimeoutMillis int64  `yaml:"requestTimeoutMillis"`
	Enabled              bool   `yaml:"enabled"`
}

// MarketConfig holds configuration for the market pollers.
type MarketConfig struct {
	PollIntervalSec int              `yaml:"pollIntervalSec"`
	CacheTTLMinutes int              `yaml:"cacheTTLMinutes"`
	CoinGecko       CoinGeckoConfig  `yaml:"coinGecko"`
	SentiCrypt      SentiCryptConfig `yaml:"sentiCrypt"`
}

// NetworkMonitorConfig holds configuration for network status polling.
type NetworkMonitorConfig struct {
	PollIntervalSec int  `yaml:"pollIntervalSec"`
	StreamEnabled   bool `yaml:"streamEnabled"`
}

// StorageConfig selects the persisted state backend.
type StorageConfig struct {
	Driver string `yaml:"driver"` // badger, sqlite or memory
	Path   string `yaml:"path"`
}

// Config is the top-level configuration structure.
type Config struct {
	Server         ServerConfig         `yaml:"server"`
	Logging        LoggingConfig        `yaml:"logging"`
	Network        NetworkConfig        `yaml:"network"`
	RpcClient      RpcClientConfig      `yaml:"rpcClient"`
	WalletService  WalletServiceConfig  `yaml:"walletService"`
	Assets         AssetsConfig         `yaml:"assets"`
	Market         MarketConfig         `yaml:"market"`
	NetworkMonitor NetworkMonitorConfig `yaml:"networkMonitor"`
	Storage        StorageConfig        `yaml:"storage"`
}

// Load reads the YAML configuration file from the given path, unmarshals it
// and applies defaults.
func Load(path string) (*Config, error) {
	logrus.Infof("Loading configuration from path: %s", path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML configuration data and applies defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config data: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	logrus.Info("Configuration loaded successfully.")
	return &cfg, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var cfg Config
	ApplyDefaults(&cfg)
	return &cfg
}

// ApplyDefaults fills every zero-valued setting.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	cfg.Server.Port = strings.TrimPrefix(cfg.Server.Port, ":")
	if cfg.Server.ReadTimeoutSec <= 0 {
		cfg.Server.ReadTimeoutSec = 15
	}
	if cfg.Server.WriteTimeoutSec <= 0 {
		cfg.Server.WriteTimeoutSec = 60
	}
	if cfg.Server.IdleTimeoutSec <= 0 {
		cfg.Server.IdleTimeoutSec = 120
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	if cfg.Network.Identifier == "" {
		cfg.Network.Identifier = "mainnet"
		logrus.Infof("Network.Identifier not set, defaulting to %s", cfg.Network.Identifier)
	}

	if cfg.RpcClient.AttemptTimeoutMs <= 0 {
		cfg.RpcClient.AttemptTimeoutMs = 15000
	}
	if cfg.RpcClient.RateLimit <= 0 {
		cfg.RpcClient.RateLimit = 10
	}
	if cfg.RpcClient.BurstLimit <= 0 {
		cfg.RpcClient.BurstLimit = 20
	}
	if cfg.RpcClient.MaxIdleConnsPerHost <= 0 {
		cfg.RpcClient.MaxIdleConnsPerHost = 16
	}
	if cfg.RpcClient.AccountTxLimit <= 0 {
		cfg.RpcClient.AccountTxLimit = 20
	}
	if cfg.RpcClient.MaxPages <= 0 {
		cfg.RpcClient.MaxPages = 10
	}

	if cfg.WalletService.MaxConcurrentRefreshes <= 0 {
		cfg.WalletService.MaxConcurrentRefreshes = 8
	}
	if cfg.WalletService.AutoRefreshIntervalSec < 0 {
		cfg.WalletService.AutoRefreshIntervalSec = 0
	}
	if cfg.WalletService.FetchTimeoutMs <= 0 {
		cfg.WalletService.FetchTimeoutMs = 60000
	}

	if cfg.Assets.IPFSGateway == "" {
		cfg.Assets.IPFSGateway = "https://ipfs.io/ipfs/"
	}
	if !strings.HasSuffix(cfg.Assets.IPFSGateway, "/") {
		cfg.Assets.IPFSGateway += "/"
	}
	if cfg.Assets.MetadataTimeoutMs <= 0 {
		cfg.Assets.MetadataTimeoutMs = 10000
	}
	if cfg.Assets.MetadataWorkers <= 0 {
		cfg.Assets.MetadataWorkers = 4
	}
	if cfg.Assets.MetadataCacheTTLMinutes <= 0 {
		cfg.Assets.MetadataCacheTTLMinutes = 60
	}
	if cfg.Assets.MaxMetadataBytes <= 0 {
		cfg.Assets.MaxMetadataBytes = 2 << 20
	}

	if cfg.Market.PollIntervalSec <= 0 {
		cfg.Market.PollIntervalSec = 30
	}
	if cfg.Market.CacheTTLMinutes <= 0 {
		cfg.Market.CacheTTLMinutes = 10
	}
	if cfg.Market.CoinGecko.BaseURL == "" {
		cfg.Market.CoinGecko.BaseURL = "https://api.coingecko.com/api/v3"
		logrus.Infof("Market.CoinGecko.BaseURL not set, defaulting to %s", cfg.Market.CoinGecko.BaseURL)
	}
	if cfg.Market.CoinGecko.RequestTimeoutMillis <= 0 {
		cfg.Market.CoinGecko.RequestTimeoutMillis = 10000
	}
	if cfg.Market.CoinGecko.CoinID == "" {
		cfg.Market.CoinGecko.CoinID = "ripple"
	}
	if cfg.Market.CoinGecko.VsCurrency == "" {
		cfg.Market.CoinGecko.VsCurrency = "usd"
	}
	if cfg.Market.SentiCrypt.BaseURL == "" {
		cfg.Market.SentiCrypt.BaseURL = "https://api.senticrypt.com/v2"
	}
	if cfg.Market.SentiCrypt.RequestTimeoutMillis <= 0 {
		cfg.Market.SentiCrypt.RequestTimeoutMillis = cfg.Market.CoinGecko.RequestTimeoutMillis
	}

	if cfg.NetworkMonitor.PollIntervalSec <= 0 {
		cfg.NetworkMonitor.PollIntervalSec = 60
	}

	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "badger"
		logrus.Infof("Storage.Driver not set, defaulting to %s", cfg.Storage.Driver)
	}
	if cfg.Storage.Path == "" && cfg.Storage.Driver != "memory" {
		cfg.Storage.Path = "data/state"
	}
}

// Validate rejects settings that cannot work.
func Validate(cfg *Config) error {
	for _, u := range cfg.Network.JSONRPCURLs {
		if !govalidator.IsURL(u) {
			return fmt.Errorf("network.jsonRpcUrls: invalid URL %q", u)
		}
	}
	if cfg.Network.WebSocketURL != "" && !govalidator.IsRequestURL(cfg.Network.WebSocketURL) {
		return fmt.Errorf("network.webSocketUrl: invalid URL %q", cfg.Network.WebSocketURL)
	}
	if !govalidator.IsURL(cfg.Assets.IPFSGateway) {
		return fmt.Errorf("assets.ipfsGateway: invalid URL %q", cfg.Assets.IPFSGateway)
	}
	switch cfg.Storage.Driver {
	case "badger", "sqlite", "memory":
	default:
		return fmt.Errorf("storage.driver: unsupported driver %q", cfg.Storage.Driver)
	}
	return nil
}
