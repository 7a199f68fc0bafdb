package domain

// Book is the aggregated view of one market: two independent price-level
// stores plus an update counter. Prices and quantities are fixed-point per
// the book's SymbolScale.
//
// The book does not enforce best-bid <= best-ask: a crossed book coming
// from upstream is passed through as-is, detecting it is a strategy
// concern.
type Book struct {
	symbol *MarketSymbol
	scale  SymbolScale

	bids *PriceLevelStore
	asks *PriceLevelStore

	updateCount uint64
}

func NewBook(symbol *MarketSymbol, scale SymbolScale) *Book {
	return &Book{
		symbol: symbol,
		scale:  scale,
		bids:   NewPriceLevelStore(SideBid),
		asks:   NewPriceLevelStore(SideAsk),
	}
}

func (b *Book) Symbol() *MarketSymbol { return b.symbol }
func (b *Book) Scale() SymbolScale    { return b.scale }
func (b *Book) UpdateCount() uint64   { return b.updateCount }

func (b *Book) store(side Side) *PriceLevelStore {
	if side == SideBid {
		return b.bids
	}
	return b.asks
}

// Update sets the resting quantity at a price level. Zero quantity removes
// the level. This is the hot path.
func (b *Book) Update(side Side, price Price, quantity Quantity) {
	b.updateCount++
	b.store(side).Upsert(price, quantity)
}

func (b *Book) BestBid() (Price, bool) { return b.bids.BestPrice() }
func (b *Book) BestAsk() (Price, bool) { return b.asks.BestPrice() }

// Spread returns best_ask - best_bid, false when either side is empty.
func (b *Book) Spread() (Price, bool) {
	bid, okB := b.bids.BestPrice()
	ask, okA := b.asks.BestPrice()
	if !okB || !okA {
		return 0, false
	}
	return ask - bid, true
}

// Mid returns (best_bid + best_ask) / 2 with truncating integer division,
// false when either side is empty.
func (b *Book) Mid() (Price, bool) {
	bid, okB := b.bids.BestPrice()
	ask, okA := b.asks.BestPrice()
	if !okB || !okA {
		return 0, false
	}
	return (bid + ask) / 2, true
}

// QuantityAt returns the resting quantity at a price, zero if the level
// does not exist.
func (b *Book) QuantityAt(side Side, price Price) Quantity {
	return b.store(side).QuantityAt(price)
}

// TopLevels returns up to n levels in best-to-worst order for a side.
func (b *Book) TopLevels(side Side, n int) []PriceLevel {
	return b.store(side).TopN(n)
}

func (b *Book) LevelCount(side Side) int {
	return b.store(side).LevelCount()
}

// Clear drops all levels on both sides, e.g. before applying a fresh
// snapshot.
func (b *Book) Clear() {
	b.bids.Clear()
	b.asks.Clear()
}

// ClearSide drops all levels on one side only.
func (b *Book) ClearSide(side Side) {
	b.store(side).Clear()
}
