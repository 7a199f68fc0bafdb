package binance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dust2080/hft-trading-system/domain"
)

func TestDecodeDepthUpdate(t *testing.T) {
	symbol, err := domain.NewMarketSymbol("btc", "usdt")
	require.NoError(t, err)

	msg := []byte(`{
		"stream": "btcusdt@depth",
		"data": {
			"e": "depthUpdate",
			"E": 1672515782136,
			"s": "BTCUSDT",
			"U": 157,
			"u": 160,
			"b": [["30000.50", "1.50000000"], ["29999.00", "0"]],
			"a": [["30001.00", "0.75000000"]]
		}
	}`)

	update, err := decodeDepthUpdate(msg, symbol, domain.DefaultScale)
	require.NoError(t, err)

	assert.Equal(t, int64(157), update.FirstUpdateID)
	assert.Equal(t, int64(160), update.FinalUpdateID)
	require.Len(t, update.Bids, 2)
	assert.Equal(t, domain.PriceLevel{Price: 3000050, Quantity: 150000000}, update.Bids[0])
	assert.Equal(t, domain.PriceLevel{Price: 2999900, Quantity: 0}, update.Bids[1], "zero quantity means level removal")
	require.Len(t, update.Asks, 1)
	assert.Equal(t, domain.PriceLevel{Price: 3000100, Quantity: 75000000}, update.Asks[0])

	require.NoError(t, update.Validate())
}

func TestDecodeDepthUpdate_MalformedLevels(t *testing.T) {
	symbol, err := domain.NewMarketSymbol("btc", "usdt")
	require.NoError(t, err)

	// Non-numeric price.
	_, err = decodeDepthUpdate([]byte(`{"data":{"U":1,"u":2,"b":[["oops","1"]],"a":[]}}`), symbol, domain.DefaultScale)
	assert.Error(t, err)

	// Level missing its quantity field.
	_, err = decodeDepthUpdate([]byte(`{"data":{"U":1,"u":2,"b":[["30000.50"]],"a":[]}}`), symbol, domain.DefaultScale)
	assert.Error(t, err)

	// Not JSON at all.
	_, err = decodeDepthUpdate([]byte(`not json`), symbol, domain.DefaultScale)
	assert.Error(t, err)
}

func TestParseSnapshot(t *testing.T) {
	snapshot, err := parseSnapshot(&wireSnapshot{
		LastUpdateID: 123,
		Bids:         [][]string{{"10000", "1"}, {"9900", "2"}},
		Asks:         [][]string{{"10100", "1.5"}},
	}, domain.DefaultScale)
	require.NoError(t, err)

	assert.Equal(t, int64(123), snapshot.LastUpdateID)
	require.Len(t, snapshot.Bids, 2)
	assert.Equal(t, domain.PriceLevel{Price: 1000000, Quantity: 100000000}, snapshot.Bids[0])
	require.Len(t, snapshot.Asks, 1)
	assert.Equal(t, domain.PriceLevel{Price: 1010000, Quantity: 150000000}, snapshot.Asks[0])

	require.NoError(t, snapshot.Validate())
}

func TestParseSnapshot_MalformedLevels(t *testing.T) {
	_, err := parseSnapshot(&wireSnapshot{
		LastUpdateID: 1,
		Bids:         [][]string{{"10000", "bad"}},
	}, domain.DefaultScale)
	assert.Error(t, err)
}
