package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Reference best price by full linear scan over the lookup map.
func scanBest(s *PriceLevelStore) (Price, bool) {
	var best Price
	found := false
	for price := range s.levels {
		if !found {
			best = price
			found = true
			continue
		}
		if s.side == SideBid && price > best {
			best = price
		}
		if s.side == SideAsk && price < best {
			best = price
		}
	}
	return best, found
}

func assertCacheMatchesScan(t *testing.T, s *PriceLevelStore) {
	t.Helper()
	wantPrice, wantOK := scanBest(s)
	gotPrice, gotOK := s.BestPrice()
	require.Equal(t, wantOK, gotOK, "best-price presence should match linear scan")
	if wantOK {
		assert.Equal(t, wantPrice, gotPrice, "best price should match linear scan")
	}
}

func TestPriceLevelStore_UpsertAndRemove(t *testing.T) {
	s := NewPriceLevelStore(SideBid)

	s.Upsert(10000, 150)
	s.Upsert(9950, 200)
	assert.Equal(t, 2, s.LevelCount())
	assert.Equal(t, Quantity(150), s.QuantityAt(10000))

	// Overwrite at an existing price.
	s.Upsert(10000, 75)
	assert.Equal(t, Quantity(75), s.QuantityAt(10000))
	assert.Equal(t, 2, s.LevelCount())

	// Zero quantity removes the level entirely.
	s.Upsert(10000, 0)
	assert.Equal(t, Quantity(0), s.QuantityAt(10000))
	assert.Equal(t, 1, s.LevelCount())
	for _, lvl := range s.TopN(10) {
		assert.NotEqual(t, Price(10000), lvl.Price, "removed price must not appear in TopN")
	}

	// Removing an absent price is a no-op.
	s.Upsert(12345, 0)
	assert.Equal(t, 1, s.LevelCount())
}

func TestPriceLevelStore_QuantityAtAbsentPrice(t *testing.T) {
	s := NewPriceLevelStore(SideAsk)
	assert.Equal(t, Quantity(0), s.QuantityAt(99999), "absent price reads as zero, not an error")
}

func TestPriceLevelStore_BestPriceOrdering(t *testing.T) {
	bids := NewPriceLevelStore(SideBid)
	asks := NewPriceLevelStore(SideAsk)

	for _, price := range []Price{10000, 9950, 10050, 9900} {
		bids.Upsert(price, 100)
		asks.Upsert(price, 100)
	}

	bestBid, ok := bids.BestPrice()
	require.True(t, ok)
	assert.Equal(t, Price(10050), bestBid, "bid best is the highest price")

	bestAsk, ok := asks.BestPrice()
	require.True(t, ok)
	assert.Equal(t, Price(9900), bestAsk, "ask best is the lowest price")

	_, ok = NewPriceLevelStore(SideBid).BestPrice()
	assert.False(t, ok, "empty store has no best price")
}

// Cache-correctness: the cached best must equal a fresh linear scan after
// every single mutation, not only at quiescence.
func TestPriceLevelStore_CacheCorrectnessAfterEveryMutation(t *testing.T) {
	for _, side := range []Side{SideBid, SideAsk} {
		s := NewPriceLevelStore(side)

		mutations := []PriceLevel{
			{10000, 10}, {10100, 5}, {9900, 7}, {10100, 0}, {10000, 3},
			{9800, 12}, {9900, 0}, {10200, 1}, {10000, 0}, {9800, 0},
			{10200, 0}, {10500, 9},
		}
		for _, m := range mutations {
			s.Upsert(m.Price, m.Quantity)
			assertCacheMatchesScan(t, s)
		}

		s.Clear()
		assertCacheMatchesScan(t, s)
	}
}

func TestPriceLevelStore_TopN(t *testing.T) {
	s := NewPriceLevelStore(SideBid)

	assert.Empty(t, s.TopN(0), "TopN(0) is empty for any store")
	assert.Empty(t, s.TopN(5), "TopN on an empty store is empty")

	s.Upsert(10000, 1)
	s.Upsert(9900, 2)
	s.Upsert(10100, 3)

	top := s.TopN(2)
	require.Len(t, top, 2)
	assert.Equal(t, []PriceLevel{{10100, 3}, {10000, 1}}, top, "best-to-worst order")

	// n beyond level count returns exactly level count, strictly ordered.
	all := s.TopN(10)
	require.Len(t, all, s.LevelCount())
	assert.Equal(t, []PriceLevel{{10100, 3}, {10000, 1}, {9900, 2}}, all)

	assert.Empty(t, s.TopN(0))

	// TopN is a snapshot copy, not a live view.
	all[0].Quantity = 777
	assert.Equal(t, Quantity(3), s.QuantityAt(10100))
}

func TestPriceLevelStore_Clear(t *testing.T) {
	s := NewPriceLevelStore(SideAsk)
	s.Upsert(100, 1)
	s.Upsert(200, 2)

	s.Clear()

	assert.Equal(t, 0, s.LevelCount())
	assert.Empty(t, s.TopN(5))
	_, ok := s.BestPrice()
	assert.False(t, ok)

	// Store is reusable after Clear.
	s.Upsert(300, 3)
	best, ok := s.BestPrice()
	require.True(t, ok)
	assert.Equal(t, Price(300), best)
}
