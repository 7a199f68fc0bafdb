package domain

// Side identifies one half of a book. Bids are ordered descending by price
// (best = highest), asks ascending (best = lowest).
type Side uint8

const (
	SideBid Side = iota
	SideAsk
)

func (s Side) String() string {
	if s == SideBid {
		return "bid"
	}
	return "ask"
}
