package domain

import "fmt"

// DepthUpdate is one incremental diff from the exchange stream, covering
// the sequence range [FirstUpdateID, FinalUpdateID]. Levels are already
// fixed-point: decimal-string parsing is the transport's job.
type DepthUpdate struct {
	Symbol        *MarketSymbol
	FirstUpdateID int64
	FinalUpdateID int64
	Bids          []PriceLevel
	Asks          []PriceLevel
}

func NewDepthUpdate(symbol *MarketSymbol, first, final int64, bids, asks []PriceLevel) *DepthUpdate {
	return &DepthUpdate{
		Symbol:        symbol,
		FirstUpdateID: first,
		FinalUpdateID: final,
		Bids:          bids,
		Asks:          asks,
	}
}

// Validate checks structural integrity. A failing update must be rejected
// before any level is applied.
func (u *DepthUpdate) Validate() error {
	if u.Symbol == nil {
		return fmt.Errorf("%w: missing symbol", ErrMalformedUpdate)
	}
	if u.FirstUpdateID < 0 || u.FinalUpdateID < u.FirstUpdateID {
		return fmt.Errorf("%w: inverted sequence bounds [%d, %d]",
			ErrMalformedUpdate, u.FirstUpdateID, u.FinalUpdateID)
	}
	if err := validateLevels(u.Bids); err != nil {
		return fmt.Errorf("%w: bids: %s", ErrMalformedUpdate, err)
	}
	if err := validateLevels(u.Asks); err != nil {
		return fmt.Errorf("%w: asks: %s", ErrMalformedUpdate, err)
	}
	return nil
}

// DepthSnapshot is the complete resting book at sequence LastUpdateID.
// Any price not listed is implicitly zero quantity.
type DepthSnapshot struct {
	LastUpdateID int64
	Bids         []PriceLevel
	Asks         []PriceLevel
}

func (s *DepthSnapshot) Validate() error {
	if s.LastUpdateID < 0 {
		return fmt.Errorf("%w: negative sequence %d", ErrMalformedSnapshot, s.LastUpdateID)
	}
	if err := validateLevels(s.Bids); err != nil {
		return fmt.Errorf("%w: bids: %s", ErrMalformedSnapshot, err)
	}
	if err := validateLevels(s.Asks); err != nil {
		return fmt.Errorf("%w: asks: %s", ErrMalformedSnapshot, err)
	}
	return nil
}

func validateLevels(levels []PriceLevel) error {
	for _, lvl := range levels {
		if lvl.Price < 0 {
			return fmt.Errorf("negative price %d", lvl.Price)
		}
		if lvl.Quantity < 0 {
			return fmt.Errorf("negative quantity %d at price %d", lvl.Quantity, lvl.Price)
		}
	}
	return nil
}
