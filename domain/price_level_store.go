package domain

import (
	rbt "github.com/emirpasic/gods/v2/trees/redblacktree"
)

// PriceLevel is a (price, aggregate resting quantity) pair for one side of
// a book.
type PriceLevel struct {
	Price    Price
	Quantity Quantity
}

// Best-price cache tag. A single variant encodes "must recompute", so there
// is no ambiguous nil-plus-boolean state.
type bestCacheState uint8

const (
	bestUnknown bestCacheState = iota // cache invalid, recompute from the tree
	bestNone                          // side known empty
	bestAt                            // bestPrice holds the cached extreme
)

// PriceLevelStore holds the aggregate quantity per price for one side of
// one book. The price->quantity map gives O(1) lookups and lets pure
// quantity changes at an existing price skip the ordering structure; the
// red-black tree keyed by price gives O(log N) insert/delete of levels and
// sorted iteration. The tree comparator is side-specific so Left() is
// always the best price.
//
// The store performs no internal locking: one writer per book, and readers
// must be synchronized against the writer by the embedding application.
type PriceLevelStore struct {
	side   Side
	levels map[Price]Quantity
	prices *rbt.Tree[Price, struct{}]

	bestState bestCacheState
	bestPrice Price
}

func NewPriceLevelStore(side Side) *PriceLevelStore {
	cmp := func(a, b Price) int {
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
		return 0
	}
	if side == SideBid {
		asc := cmp
		cmp = func(a, b Price) int { return -asc(a, b) }
	}

	return &PriceLevelStore{
		side:      side,
		levels:    make(map[Price]Quantity),
		prices:    rbt.NewWith[Price, struct{}](cmp),
		bestState: bestUnknown,
	}
}

func (s *PriceLevelStore) Side() Side { return s.side }

// Upsert sets the resting quantity at a price. Quantity zero removes the
// level (no-op if absent). Any write invalidates the best-price cache,
// regardless of whether the extreme actually changed.
func (s *PriceLevelStore) Upsert(price Price, quantity Quantity) {
	s.bestState = bestUnknown

	if quantity == 0 {
		if _, ok := s.levels[price]; ok {
			delete(s.levels, price)
			s.prices.Remove(price)
		}
		return
	}

	_, existed := s.levels[price]
	s.levels[price] = quantity
	if !existed {
		s.prices.Put(price, struct{}{})
	}
}

// BestPrice returns the extreme price for this side's ordering, or false
// if the side is empty. O(1) when the cache is valid.
func (s *PriceLevelStore) BestPrice() (Price, bool) {
	if s.bestState == bestUnknown {
		if node := s.prices.Left(); node != nil {
			s.bestPrice = node.Key
			s.bestState = bestAt
		} else {
			s.bestState = bestNone
		}
	}

	if s.bestState == bestNone {
		return 0, false
	}
	return s.bestPrice, true
}

// QuantityAt returns the resting quantity at a price, zero if absent.
func (s *PriceLevelStore) QuantityAt(price Price) Quantity {
	return s.levels[price]
}

// TopN returns up to n levels in best-to-worst order. The result is a
// snapshot copy, not a live view.
func (s *PriceLevelStore) TopN(n int) []PriceLevel {
	if n <= 0 {
		return []PriceLevel{}
	}

	out := make([]PriceLevel, 0, min(n, s.prices.Size()))
	it := s.prices.Iterator()
	for it.Next() {
		if len(out) >= n {
			break
		}
		price := it.Key()
		out = append(out, PriceLevel{Price: price, Quantity: s.levels[price]})
	}
	return out
}

// LevelCount returns the number of distinct resting prices.
func (s *PriceLevelStore) LevelCount() int {
	return len(s.levels)
}

// Clear removes all levels on this side.
func (s *PriceLevelStore) Clear() {
	s.bestState = bestUnknown
	s.levels = make(map[Price]Quantity)
	s.prices.Clear()
}
