package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Price and Quantity are fixed-point integers: the decimal value scaled by
// 10^decimals. E.g. "30000.50" with 2 price decimals is stored as 3000050.
// Integer representation keeps equality and ordering exact across millions
// of updates.
type Price = int64
type Quantity = int64

// SymbolScale defines the fixed-point scales for one instrument.
// Exchanges quote different instruments with different precision, so the
// scale is per-symbol configuration, never a global constant.
type SymbolScale struct {
	PriceDecimals    int32
	QuantityDecimals int32
}

// DefaultScale matches Binance spot majors: 2 price decimals, 8 quantity
// decimals (satoshi precision).
var DefaultScale = SymbolScale{PriceDecimals: 2, QuantityDecimals: 8}

// ParseFixed converts a decimal string to its fixed-point representation.
// Digits beyond the scale are truncated.
func ParseFixed(s string, decimals int32) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parse fixed-point %q: %w", s, err)
	}
	return d.Shift(decimals).Truncate(0).IntPart(), nil
}

// FormatFixed renders a fixed-point value back to a decimal string with
// exactly `decimals` fractional digits.
func FormatFixed(v int64, decimals int32) string {
	return decimal.New(v, -decimals).StringFixed(decimals)
}

func (sc SymbolScale) ParsePrice(s string) (Price, error) {
	return ParseFixed(s, sc.PriceDecimals)
}

func (sc SymbolScale) ParseQuantity(s string) (Quantity, error) {
	return ParseFixed(s, sc.QuantityDecimals)
}

func (sc SymbolScale) FormatPrice(p Price) string {
	return FormatFixed(p, sc.PriceDecimals)
}

func (sc SymbolScale) FormatQuantity(q Quantity) string {
	return FormatFixed(q, sc.QuantityDecimals)
}
