package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"nftauction/crypto"
)

// FeedConfig declares a price feed implementation and the asset it is bound
// to at startup. Asset is either "native" or a 40-character hex token
// contract address.
type FeedConfig struct {
	Asset    string `toml:"Asset"`
	Name     string `toml:"Name"`
	Kind     string `toml:"Kind"` // "manual" or "http"
	Price    string `toml:"Price,omitempty"`
	Decimals uint8  `toml:"Decimals,omitempty"`
	Endpoint string `toml:"Endpoint,omitempty"`
}

type Config struct {
	RPCAddress         string       `toml:"RPCAddress"`
	DataDir            string       `toml:"DataDir"`
	Env                string       `toml:"Env"`
	AdminAddress       string       `toml:"AdminAddress"`
	AdminKeyPath       string       `toml:"AdminKeyPath"`
	MinDurationSeconds int64        `toml:"MinDurationSeconds"`
	PriceFeeds         []FeedConfig `toml:"PriceFeed"`
}

// Load loads the configuration from the given path, creating a default file
// (with a freshly generated admin key) when none exists yet.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.RPCAddress) == "" {
		cfg.RPCAddress = ":8645"
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = defaultDataDir(path)
	}
	if cfg.MinDurationSeconds < 0 {
		cfg.MinDurationSeconds = 0
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Admin decodes the configured admin address.
func (c *Config) Admin() (crypto.Address, error) {
	return crypto.DecodeAddress(strings.TrimSpace(c.AdminAddress))
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.AdminAddress) == "" {
		return fmt.Errorf("config: AdminAddress is required")
	}
	if _, err := c.Admin(); err != nil {
		return fmt.Errorf("config: invalid AdminAddress: %w", err)
	}
	for i, feed := range c.PriceFeeds {
		if strings.TrimSpace(feed.Name) == "" {
			return fmt.Errorf("config: PriceFeed[%d] missing Name", i)
		}
		if _, err := ParseAsset(feed.Asset); err != nil {
			return fmt.Errorf("config: PriceFeed[%d]: %w", i, err)
		}
		switch strings.ToLower(strings.TrimSpace(feed.Kind)) {
		case "manual", "http":
		default:
			return fmt.Errorf("config: PriceFeed[%d] has unknown Kind %q", i, feed.Kind)
		}
	}
	return nil
}

// ParseAsset resolves an asset identifier: "native" (or empty) selects the
// native settlement asset, anything else must be a 20-byte hex address.
func ParseAsset(asset string) ([20]byte, error) {
	trimmed := strings.TrimSpace(strings.ToLower(asset))
	if trimmed == "" || trimmed == "native" {
		return [20]byte{}, nil
	}
	trimmed = strings.TrimPrefix(trimmed, "0x")
	raw, err := hex.DecodeString(trimmed)
	if err != nil {
		return [20]byte{}, fmt.Errorf("invalid asset address %q: %w", asset, err)
	}
	if len(raw) != 20 {
		return [20]byte{}, fmt.Errorf("asset address %q must be 20 bytes", asset)
	}
	var out [20]byte
	copy(out[:], raw)
	return out, nil
}

func defaultDataDir(configPath string) string {
	return filepath.Join(filepath.Dir(configPath), "auctiond-data")
}

func defaultKeyPath(configPath string) string {
	return filepath.Join(filepath.Dir(configPath), "admin.key")
}

func createDefault(path string) (*Config, error) {
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}
	keyPath := defaultKeyPath(path)
	if err := os.WriteFile(keyPath, []byte(hex.EncodeToString(key.Bytes())+"\n"), 0o600); err != nil {
		return nil, err
	}

	cfg := &Config{
		RPCAddress:   ":8645",
		DataDir:      defaultDataDir(path),
		Env:          "local",
		AdminAddress: key.PubKey().Address().String(),
		AdminKeyPath: keyPath,
		PriceFeeds: []FeedConfig{
			{Asset: "native", Name: "manual", Kind: "manual", Price: "200000000", Decimals: 8},
		},
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
