package domain

import (
	"fmt"
	"strings"
)

// MarketSymbol is a base/quote currency pair. Assets are stored lowercase;
// providers render them into their own wire format via Join.
type MarketSymbol struct {
	BaseAsset  string
	QuoteAsset string
}

func NewMarketSymbol(base, quote string) (*MarketSymbol, error) {
	if base == "" || quote == "" {
		return nil, fmt.Errorf("base and quote must not be empty")
	}
	if strings.EqualFold(base, quote) {
		return nil, fmt.Errorf("base and quote must be different")
	}
	return &MarketSymbol{
		BaseAsset:  strings.ToLower(base),
		QuoteAsset: strings.ToLower(quote),
	}, nil
}

// NewMarketSymbolFromString parses a "base_quote" pair.
func NewMarketSymbolFromString(s string) (*MarketSymbol, error) {
	base, quote, ok := strings.Cut(s, "_")
	if !ok {
		return nil, fmt.Errorf("invalid symbol string %q, want base_quote", s)
	}
	return NewMarketSymbol(base, quote)
}

// Join renders the pair with a provider-specific separator, e.g.
// Join("") -> "btcusdt" for Binance stream topics.
func (ms *MarketSymbol) Join(separator string) string {
	return ms.BaseAsset + separator + ms.QuoteAsset
}

func (ms *MarketSymbol) String() string {
	return ms.Join("_")
}

func (ms *MarketSymbol) Equal(other *MarketSymbol) bool {
	return ms.BaseAsset == other.BaseAsset && ms.QuoteAsset == other.QuoteAsset
}
