package domain

import (
	"fmt"

	"github.com/gammazero/deque"
)

// maxPendingUpdates bounds the buffer of updates awaiting a snapshot, so
// a stuck fetch under a live stream cannot grow memory without limit.
const maxPendingUpdates = 4096

// SyncState is the synchronization phase of one book.
type SyncState uint8

const (
	// StateUnsynchronized: no snapshot applied yet, or a sequence gap was
	// detected and the book must be rebuilt.
	StateUnsynchronized SyncState = iota
	// StateSynchronizing: a snapshot fetch is owed; incoming updates are
	// buffered until it succeeds.
	StateSynchronizing
	// StateLive: the book reflects a consistent point-in-time view and
	// contiguous updates are applied directly.
	StateLive
)

func (s SyncState) String() string {
	switch s {
	case StateUnsynchronized:
		return "unsynchronized"
	case StateSynchronizing:
		return "synchronizing"
	default:
		return "live"
	}
}

// SnapshotFetcher is the transport collaborator that produces a full book
// snapshot on demand. The synchronizer does not retry or back off on fetch
// failure; that policy belongs to the transport.
type SnapshotFetcher interface {
	DepthSnapshot(symbol *MarketSymbol, scale SymbolScale, limit int) (*DepthSnapshot, error)
}

// SyncStatus is the externally visible synchronization state of one book.
type SyncStatus struct {
	State SyncState
	// LastAppliedSequence is meaningful only once synchronization has been
	// established; it is monotonically non-decreasing from then on.
	LastAppliedSequence int64
	// ResyncCount increments every time a sequence gap forces a rebuild.
	ResyncCount uint64
}

// FeedSynchronizer reconciles a continuous incremental update stream with
// on-demand snapshots so the book never silently diverges from the
// exchange's true state.
//
// State machine: Unsynchronized -> Synchronizing (snapshot owed) -> Live,
// with a detected gap looping back to Unsynchronized. There is no terminal
// state; resync is expected occasionally under real network conditions.
//
// Updates received before the snapshot lands are buffered and re-evaluated
// against the gap rule after it applies, so updates racing the fetch are
// never lost. The buffer is capped at maxPendingUpdates: if fetches keep
// failing, the oldest updates are shed first. They would drain as stale
// against any snapshot recent enough to matter.
//
// Not safe for concurrent use; one goroutine owns a book and its
// synchronizer.
type FeedSynchronizer struct {
	book       *Book
	fetcher    SnapshotFetcher
	depthLimit int

	state       SyncState
	lastApplied int64
	resyncCount uint64

	pending deque.Deque[*DepthUpdate]
}

func NewFeedSynchronizer(book *Book, fetcher SnapshotFetcher, depthLimit int) *FeedSynchronizer {
	return &FeedSynchronizer{
		book:       book,
		fetcher:    fetcher,
		depthLimit: depthLimit,
		state:      StateUnsynchronized,
	}
}

func (fs *FeedSynchronizer) Book() *Book { return fs.book }

func (fs *FeedSynchronizer) Status() SyncStatus {
	return SyncStatus{
		State:               fs.state,
		LastAppliedSequence: fs.lastApplied,
		ResyncCount:         fs.resyncCount,
	}
}

// ProcessUpdate consumes one incremental update. It returns true if the
// call mutated the book (update applied, or snapshot bootstrap completed).
//
// A malformed update is rejected without touching any state. A failed
// snapshot fetch leaves the machine in Synchronizing and is returned to
// the caller; delivering the next update retries the bootstrap.
func (fs *FeedSynchronizer) ProcessUpdate(update *DepthUpdate) (bool, error) {
	if err := update.Validate(); err != nil {
		return false, err
	}

	if fs.state == StateLive {
		return fs.applyLive(update), nil
	}

	// Unsynchronized or Synchronizing: buffer, then (re)attempt bootstrap.
	fs.buffer(update)
	fs.state = StateSynchronizing

	if err := fs.bootstrap(); err != nil {
		return false, err
	}
	return true, nil
}

// applyLive applies the sequence-boundary rule for a live book:
// already-seen updates are discarded, contiguous-or-covering updates are
// applied, anything beyond lastApplied+1 is a gap.
func (fs *FeedSynchronizer) applyLive(update *DepthUpdate) bool {
	next := fs.lastApplied + 1

	if update.FinalUpdateID <= fs.lastApplied {
		return false
	}

	if update.FirstUpdateID <= next && next <= update.FinalUpdateID {
		fs.apply(update)
		fs.lastApplied = update.FinalUpdateID
		return true
	}

	// Gap: the book may have missed updates. Keep the update buffered so it
	// is re-evaluated against the next snapshot; the next delivery triggers
	// the refetch.
	fs.resyncCount++
	fs.state = StateUnsynchronized
	fs.buffer(update)
	return false
}

// buffer appends an update for post-snapshot re-evaluation, shedding the
// oldest entries past the cap.
func (fs *FeedSynchronizer) buffer(update *DepthUpdate) {
	fs.pending.PushBack(update)
	for fs.pending.Len() > maxPendingUpdates {
		fs.pending.PopFront()
	}
}

// bootstrap fetches and applies a snapshot, then drains buffered updates
// against the gap rule.
func (fs *FeedSynchronizer) bootstrap() error {
	snapshot, err := fs.fetcher.DepthSnapshot(fs.book.Symbol(), fs.book.Scale(), fs.depthLimit)
	if err != nil {
		return fmt.Errorf("snapshot fetch: %w", err)
	}
	if err := snapshot.Validate(); err != nil {
		return err
	}

	fs.book.Clear()
	for _, lvl := range snapshot.Bids {
		fs.book.Update(SideBid, lvl.Price, lvl.Quantity)
	}
	for _, lvl := range snapshot.Asks {
		fs.book.Update(SideAsk, lvl.Price, lvl.Quantity)
	}
	fs.lastApplied = snapshot.LastUpdateID
	fs.state = StateLive

	fs.drainPending()
	return nil
}

// drainPending re-evaluates updates that were buffered while the snapshot
// was in flight. A gap inside the buffer means the snapshot itself is
// already stale; the machine drops back to Unsynchronized and the
// remaining buffer is retained for the next attempt.
func (fs *FeedSynchronizer) drainPending() {
	for fs.pending.Len() > 0 {
		update := fs.pending.PopFront()

		if update.FinalUpdateID <= fs.lastApplied {
			continue
		}
		if update.FirstUpdateID <= fs.lastApplied+1 {
			fs.apply(update)
			fs.lastApplied = update.FinalUpdateID
			continue
		}

		fs.pending.PushFront(update)
		fs.resyncCount++
		fs.state = StateUnsynchronized
		return
	}
}

func (fs *FeedSynchronizer) apply(update *DepthUpdate) {
	for _, lvl := range update.Bids {
		fs.book.Update(SideBid, lvl.Price, lvl.Quantity)
	}
	for _, lvl := range update.Asks {
		fs.book.Update(SideAsk, lvl.Price, lvl.Quantity)
	}
}
