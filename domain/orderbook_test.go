package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBook(t *testing.T) *Book {
	t.Helper()
	symbol, err := NewMarketSymbol("BTC", "USDT")
	require.NoError(t, err)
	return NewBook(symbol, DefaultScale)
}

func TestBook_SnapshotBootstrapQueries(t *testing.T) {
	book := newTestBook(t)

	// bids {(100.00, 1.0), (99.50, 2.0)}, asks {(100.50, 0.5)} with
	// 2 price decimals / 8 quantity decimals.
	book.Update(SideBid, 10000, 100000000)
	book.Update(SideBid, 9950, 200000000)
	book.Update(SideAsk, 10050, 50000000)

	bestBid, ok := book.BestBid()
	require.True(t, ok)
	assert.Equal(t, Price(10000), bestBid)

	bestAsk, ok := book.BestAsk()
	require.True(t, ok)
	assert.Equal(t, Price(10050), bestAsk)

	spread, ok := book.Spread()
	require.True(t, ok)
	assert.Equal(t, Price(50), spread, "spread should be 0.50")

	assert.Equal(t, 2, book.LevelCount(SideBid))
	assert.Equal(t, 1, book.LevelCount(SideAsk))
	assert.Equal(t, uint64(3), book.UpdateCount())
}

func TestBook_SpreadAndMidUnavailableWhenOneSideEmpty(t *testing.T) {
	book := newTestBook(t)
	book.Update(SideBid, 10000, 100)

	_, ok := book.Spread()
	assert.False(t, ok)
	_, ok = book.Mid()
	assert.False(t, ok)

	book.Update(SideAsk, 10050, 100)

	mid, ok := book.Mid()
	require.True(t, ok)
	assert.Equal(t, Price(10025), mid)
}

func TestBook_MidTruncates(t *testing.T) {
	book := newTestBook(t)
	book.Update(SideBid, 10000, 1)
	book.Update(SideAsk, 10001, 1)

	mid, ok := book.Mid()
	require.True(t, ok)
	assert.Equal(t, Price(10000), mid, "integer division truncates")
}

func TestBook_CrossedBookPassesThrough(t *testing.T) {
	book := newTestBook(t)
	book.Update(SideBid, 10100, 1)
	book.Update(SideAsk, 10000, 1)

	spread, ok := book.Spread()
	require.True(t, ok)
	assert.Equal(t, Price(-100), spread, "crossed books are not rejected by the store")
}

func TestBook_ClearAndClearSide(t *testing.T) {
	book := newTestBook(t)
	book.Update(SideBid, 10000, 1)
	book.Update(SideAsk, 10050, 1)

	book.ClearSide(SideAsk)
	assert.Equal(t, 1, book.LevelCount(SideBid))
	assert.Equal(t, 0, book.LevelCount(SideAsk))

	book.Clear()
	assert.Equal(t, 0, book.LevelCount(SideBid))
	_, ok := book.BestBid()
	assert.False(t, ok)
}
