// Package display renders a book to a terminal for humans. It is a read
// side collaborator: callers pass a synchronized view of the book.
package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/dust2080/hft-trading-system/domain"
)

const depthShown = 10

// Render writes a depth ladder (asks on top, best at the centre), the
// derived spread/mid, sync status and recent signals.
func Render(w io.Writer, book *domain.Book, status domain.SyncStatus, signals []domain.Signal) {
	scale := book.Scale()
	rule := strings.Repeat("-", 60)

	fmt.Fprintf(w, "=== %s order book ===\n%s\n", strings.ToUpper(book.Symbol().Join("/")), rule)

	asks := book.TopLevels(domain.SideAsk, depthShown)
	for i := len(asks) - 1; i >= 0; i-- {
		fmt.Fprintf(w, "  ASK  %14s  |  %14s\n",
			scale.FormatPrice(asks[i].Price), scale.FormatQuantity(asks[i].Quantity))
	}

	fmt.Fprintln(w, strings.Repeat("=", 60))

	for _, lvl := range book.TopLevels(domain.SideBid, depthShown) {
		fmt.Fprintf(w, "  BID  %14s  |  %14s\n",
			scale.FormatPrice(lvl.Price), scale.FormatQuantity(lvl.Quantity))
	}

	fmt.Fprintln(w, rule)

	if spread, ok := book.Spread(); ok {
		fmt.Fprintf(w, "Spread: %s", scale.FormatPrice(spread))
		if mid, ok := book.Mid(); ok {
			fmt.Fprintf(w, "  |  Mid: %s", scale.FormatPrice(mid))
		}
		fmt.Fprintln(w)
	} else {
		fmt.Fprintln(w, "Spread: n/a")
	}

	fmt.Fprintf(w, "Updates: %d | Levels: %dB / %dA\n",
		book.UpdateCount(),
		book.LevelCount(domain.SideBid),
		book.LevelCount(domain.SideAsk))
	fmt.Fprintf(w, "Sync: %s | seq=%d | resyncs=%d\n",
		status.State, status.LastAppliedSequence, status.ResyncCount)

	if len(signals) > 0 {
		fmt.Fprintf(w, "%s\nRECENT SIGNALS:\n", rule)
		for _, sig := range signals {
			fmt.Fprintf(w, "  [%s] %s: %s\n", sig.Type, sig.Source, sig.Reason)
		}
	}
}
