package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type SignalType uint8

const (
	SignalNone SignalType = iota
	SignalBuy
	SignalSell
	SignalWarning
)

func (t SignalType) String() string {
	switch t {
	case SignalBuy:
		return "BUY"
	case SignalSell:
		return "SELL"
	case SignalWarning:
		return "WARN"
	default:
		return "INFO"
	}
}

// Signal is one strategy observation. Strength is in [0, 1].
type Signal struct {
	ID       string
	Source   string
	Type     SignalType
	Reason   string
	Strength float64
	Time     time.Time
}

func newSignal(source string, t SignalType, reason string, strength float64) Signal {
	return Signal{
		ID:       uuid.NewString(),
		Source:   source,
		Type:     t,
		Reason:   reason,
		Strength: strength,
		Time:     time.Now(),
	}
}

// Observer inspects the book after an applied update and emits zero or
// more signals. Observers are closures owning their own smoothing state,
// decoupled from the store; the caller invokes them with the book
// appropriately synchronized.
type Observer func(book *Book) []Signal

// NewSpreadMonitor watches the bid-ask spread as a percentage of the mid
// price and alerts when it widens beyond alertThresholdPct above its
// exponential moving average. The alert clears once the spread is back
// within half the threshold.
func NewSpreadMonitor(alertThresholdPct float64) Observer {
	const (
		alpha         = 0.1 // EMA smoothing factor
		warmupSamples = 10
	)

	var (
		avg         float64
		sampleCount int
		alertActive bool
	)

	return func(book *Book) []Signal {
		spread, okS := book.Spread()
		mid, okM := book.Mid()
		if !okS || !okM || mid == 0 {
			return nil
		}

		spreadPct := float64(spread) / float64(mid) * 100.0

		if sampleCount == 0 {
			avg = spreadPct
		} else {
			avg = alpha*spreadPct + (1.0-alpha)*avg
		}
		sampleCount++

		if sampleCount < warmupSamples || avg == 0 {
			return nil
		}

		ratio := spreadPct / avg
		switch {
		case ratio > 1.0+alertThresholdPct && !alertActive:
			alertActive = true
			strength := ratio - 1.0
			if strength > 1.0 {
				strength = 1.0
			}
			return []Signal{newSignal("spread-monitor", SignalWarning,
				fmt.Sprintf("spread widened: %.4f%% (avg: %.4f%%)", spreadPct, avg), strength)}

		case ratio < 1.0+alertThresholdPct/2 && alertActive:
			alertActive = false
			return []Signal{newSignal("spread-monitor", SignalNone,
				fmt.Sprintf("spread normalized: %.4f%%", spreadPct), 0)}
		}
		return nil
	}
}

// NewImbalanceDetector sums resting quantity over the top `depth` levels
// of each side and signals when the bid/ask imbalance crosses the
// threshold. Hysteresis: the signal resets only once the imbalance falls
// below half the threshold, so a hovering value does not flap.
func NewImbalanceDetector(threshold float64, depth int) Observer {
	lastSignal := SignalNone

	return func(book *Book) []Signal {
		bids := book.TopLevels(SideBid, depth)
		asks := book.TopLevels(SideAsk, depth)
		if len(bids) == 0 || len(asks) == 0 {
			return nil
		}

		var bidQty, askQty Quantity
		for _, lvl := range bids {
			bidQty += lvl.Quantity
		}
		for _, lvl := range asks {
			askQty += lvl.Quantity
		}
		if bidQty+askQty == 0 {
			return nil
		}

		imbalance := float64(bidQty-askQty) / float64(bidQty+askQty)

		switch {
		case imbalance > threshold && lastSignal != SignalBuy:
			lastSignal = SignalBuy
			return []Signal{newSignal("imbalance", SignalBuy,
				fmt.Sprintf("bid imbalance: %.1f%% (buy pressure)", imbalance*100), imbalance)}

		case imbalance < -threshold && lastSignal != SignalSell:
			lastSignal = SignalSell
			return []Signal{newSignal("imbalance", SignalSell,
				fmt.Sprintf("ask imbalance: %.1f%% (sell pressure)", -imbalance*100), -imbalance)}

		case imbalance < threshold/2 && imbalance > -threshold/2 && lastSignal != SignalNone:
			lastSignal = SignalNone
			return []Signal{newSignal("imbalance", SignalNone, "imbalance neutralized", 0)}
		}
		return nil
	}
}
