package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dust2080/hft-trading-system/domain"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 1000, cfg.Binance.DepthLimit)
	assert.Equal(t, "info", cfg.Logging.Level)
	require.Len(t, cfg.Symbols, 1)
	assert.Equal(t, domain.DefaultScale, cfg.Symbols[0].Scale())
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
binance:
  depth_limit: 500
logging:
  level: debug
  pretty: true
symbols:
  - base: eth
    quote: usdt
    price_decimals: 4
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 500, cfg.Binance.DepthLimit)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Pretty)

	require.Len(t, cfg.Symbols, 1)
	scale := cfg.Symbols[0].Scale()
	assert.Equal(t, int32(4), scale.PriceDecimals)
	assert.Equal(t, int32(8), scale.QuantityDecimals, "unset quantity decimals fall back to the default")
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("BINANCE_WS_API_ENDPOINT", "wss://testnet.example/ws-api")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "wss://testnet.example/ws-api", cfg.Binance.APIEndpoint)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
