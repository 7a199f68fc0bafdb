package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/dust2080/hft-trading-system/domain"
)

// SymbolConfig names an instrument and its fixed-point scales.
type SymbolConfig struct {
	Base             string `yaml:"base"`
	Quote            string `yaml:"quote"`
	PriceDecimals    int32  `yaml:"price_decimals"`
	QuantityDecimals int32  `yaml:"quantity_decimals"`
}

func (sc SymbolConfig) Scale() domain.SymbolScale {
	scale := domain.SymbolScale{
		PriceDecimals:    sc.PriceDecimals,
		QuantityDecimals: sc.QuantityDecimals,
	}
	if scale.PriceDecimals == 0 {
		scale.PriceDecimals = domain.DefaultScale.PriceDecimals
	}
	if scale.QuantityDecimals == 0 {
		scale.QuantityDecimals = domain.DefaultScale.QuantityDecimals
	}
	return scale
}

type Config struct {
	Binance struct {
		StreamEndpoint string `yaml:"stream_endpoint"`
		APIEndpoint    string `yaml:"api_endpoint"`
		DepthLimit     int    `yaml:"depth_limit"`
	} `yaml:"binance"`
	Logging struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"logging"`
	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`
	Strategy struct {
		SpreadAlertPct     float64 `yaml:"spread_alert_pct"`
		ImbalanceThreshold float64 `yaml:"imbalance_threshold"`
		ImbalanceDepth     int     `yaml:"imbalance_depth"`
	} `yaml:"strategy"`
	Symbols []SymbolConfig `yaml:"symbols"`
}

func Default() *Config {
	cfg := &Config{}
	cfg.Binance.DepthLimit = 1000
	cfg.Logging.Level = "info"
	cfg.Metrics.Addr = ":8080"
	cfg.Strategy.SpreadAlertPct = 0.5
	cfg.Strategy.ImbalanceThreshold = 0.3
	cfg.Strategy.ImbalanceDepth = 10
	cfg.Symbols = []SymbolConfig{{Base: "btc", Quote: "usdt"}}
	return cfg
}

// Load reads the YAML config at path on top of defaults, then applies
// environment overrides. A `.env` file in the working directory is loaded
// first if present. Empty path returns defaults plus environment.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if v := os.Getenv("BINANCE_STREAM_ENDPOINT"); v != "" {
		cfg.Binance.StreamEndpoint = v
	}
	if v := os.Getenv("BINANCE_WS_API_ENDPOINT"); v != "" {
		cfg.Binance.APIEndpoint = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	if len(cfg.Symbols) == 0 {
		return nil, fmt.Errorf("config %s: at least one symbol is required", path)
	}
	return cfg, nil
}
