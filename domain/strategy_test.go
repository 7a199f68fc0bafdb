package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImbalanceDetector_Signals(t *testing.T) {
	observer := NewImbalanceDetector(0.3, 5)
	book := newTestBook(t)

	// Heavy bid side: imbalance well above the threshold.
	book.Update(SideBid, 10000, 900)
	book.Update(SideAsk, 10050, 100)

	signals := observer(book)
	require.Len(t, signals, 1)
	assert.Equal(t, SignalBuy, signals[0].Type)
	assert.NotEmpty(t, signals[0].ID)
	assert.Equal(t, "imbalance", signals[0].Source)
	assert.InDelta(t, 0.8, signals[0].Strength, 1e-9)

	// Still imbalanced the same way: no repeated signal.
	assert.Empty(t, observer(book))

	// Swing to the ask side.
	book.Update(SideBid, 10000, 100)
	book.Update(SideAsk, 10050, 900)
	signals = observer(book)
	require.Len(t, signals, 1)
	assert.Equal(t, SignalSell, signals[0].Type)

	// Back to balance: neutralized once.
	book.Update(SideAsk, 10050, 100)
	signals = observer(book)
	require.Len(t, signals, 1)
	assert.Equal(t, SignalNone, signals[0].Type)
	assert.Empty(t, observer(book))
}

func TestImbalanceDetector_EmptySideEmitsNothing(t *testing.T) {
	observer := NewImbalanceDetector(0.3, 5)
	book := newTestBook(t)
	book.Update(SideBid, 10000, 900)

	assert.Empty(t, observer(book))
}

func TestSpreadMonitor_AlertsOnWidening(t *testing.T) {
	observer := NewSpreadMonitor(0.5)
	book := newTestBook(t)
	book.Update(SideAsk, 10010, 100)

	// Warm up the moving average with a steady spread.
	book.Update(SideBid, 10000, 100)
	for i := 0; i < 15; i++ {
		assert.Empty(t, observer(book), "steady spread should not alert")
	}

	// Best bid pulled, spread jumps 5x: well past 50% above the average.
	book.Update(SideBid, 9960, 100)
	book.Update(SideBid, 10000, 0)
	signals := observer(book)
	require.Len(t, signals, 1)
	assert.Equal(t, SignalWarning, signals[0].Type)
	assert.Contains(t, signals[0].Reason, "spread widened")
	assert.LessOrEqual(t, signals[0].Strength, 1.0)

	// While the alert is active it does not re-fire.
	assert.Empty(t, observer(book))

	// Spread returns to normal and the EMA settles: alert clears.
	book.Update(SideBid, 10000, 100)
	var cleared bool
	for i := 0; i < 50 && !cleared; i++ {
		for _, sig := range observer(book) {
			assert.Equal(t, SignalNone, sig.Type)
			assert.Contains(t, sig.Reason, "spread normalized")
			cleared = true
		}
	}
	assert.True(t, cleared, "alert should clear once the spread normalizes")
}

func TestSpreadMonitor_NeedsBothSides(t *testing.T) {
	observer := NewSpreadMonitor(0.5)
	book := newTestBook(t)
	book.Update(SideBid, 10000, 100)

	assert.Empty(t, observer(book))
}
