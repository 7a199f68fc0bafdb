package binance

import (
	"errors"
	"sync"
	"time"

	"github.com/gammazero/deque"
	"github.com/rs/zerolog"

	"github.com/dust2080/hft-trading-system/domain"
	promclient "github.com/dust2080/hft-trading-system/infrastructure/prometheus"
)

const pickerIdleDelay = 10 * time.Millisecond

// OrderbookMaintainer owns one book end to end: it subscribes to the depth
// diff stream, buffers incoming updates, and pumps them through the feed
// synchronizer one at a time. Observers run after every applied update.
//
// The maintainer's mutex is the single synchronization point between the
// update-applying goroutine and external readers (display, strategies via
// View); the store itself does no locking.
type OrderbookMaintainer struct {
	streamAPI  *StreamAPI
	syncAPI    domain.SnapshotFetcher
	depthLimit int
	log        zerolog.Logger

	observers []domain.Observer
	onSignal  func(domain.Signal)

	mu           sync.Mutex
	synchronizer *domain.FeedSynchronizer

	queueMu sync.Mutex
	queue   deque.Deque[*domain.DepthUpdate]

	done        chan struct{}
	wg          sync.WaitGroup
	unsubscribe func()

	lastResyncCount uint64
}

type MaintainerConfig struct {
	DepthLimit int
	Observers  []domain.Observer
	// OnSignal receives strategy signals; called from the picker goroutine.
	OnSignal func(domain.Signal)
}

func NewOrderbookMaintainer(streamAPI *StreamAPI, syncAPI domain.SnapshotFetcher, cfg MaintainerConfig, log zerolog.Logger) *OrderbookMaintainer {
	if cfg.DepthLimit <= 0 {
		cfg.DepthLimit = 1000
	}
	return &OrderbookMaintainer{
		streamAPI:  streamAPI,
		syncAPI:    syncAPI,
		depthLimit: cfg.DepthLimit,
		observers:  cfg.Observers,
		onSignal:   cfg.OnSignal,
		log:        log.With().Str("component", "orderbook-maintainer").Logger(),
		done:       make(chan struct{}),
	}
}

// Start subscribes to the diff stream for a symbol and begins maintaining
// its book. The snapshot bootstrap happens when the first update arrives,
// per the synchronizer's state machine.
func (m *OrderbookMaintainer) Start(symbol *domain.MarketSymbol, scale domain.SymbolScale) error {
	book := domain.NewBook(symbol, scale)
	m.synchronizer = domain.NewFeedSynchronizer(book, m.syncAPI, m.depthLimit)

	subscription, err := m.streamAPI.DepthDiffStream(symbol, scale)
	if err != nil {
		return err
	}
	m.unsubscribe = subscription.Unsubscribe

	m.wg.Add(2)
	go m.streamReader(subscription)
	go m.msgPicker(symbol)

	m.log.Info().Str("symbol", symbol.String()).Msg("maintaining order book")
	return nil
}

// View runs f with the book and its sync status under the maintainer's
// lock. f must not retain the book past its return.
func (m *OrderbookMaintainer) View(f func(book *domain.Book, status domain.SyncStatus)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f(m.synchronizer.Book(), m.synchronizer.Status())
}

func (m *OrderbookMaintainer) Status() domain.SyncStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.synchronizer.Status()
}

func (m *OrderbookMaintainer) Stop() {
	close(m.done)
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	m.wg.Wait()
}

func (m *OrderbookMaintainer) streamReader(subscription *domain.Subscription[*domain.DepthUpdate]) {
	defer m.wg.Done()

	for {
		select {
		case <-m.done:
			return
		case update, ok := <-subscription.Stream:
			if !ok {
				return
			}
			m.queueMu.Lock()
			m.queue.PushBack(update)
			m.queueMu.Unlock()
		}
	}
}

func (m *OrderbookMaintainer) msgPicker(symbol *domain.MarketSymbol) {
	defer m.wg.Done()
	sym := symbol.String()

	for {
		select {
		case <-m.done:
			return
		default:
		}

		m.queueMu.Lock()
		if m.queue.Len() == 0 {
			m.queueMu.Unlock()
			time.Sleep(pickerIdleDelay)
			continue
		}
		update := m.queue.PopFront()
		m.queueMu.Unlock()

		m.processUpdate(sym, update)
	}
}

func (m *OrderbookMaintainer) processUpdate(sym string, update *domain.DepthUpdate) {
	m.mu.Lock()
	start := time.Now()
	applied, err := m.synchronizer.ProcessUpdate(update)
	promclient.UpdateApplyDuration.WithLabelValues(sym).Observe(time.Since(start).Seconds())
	status := m.synchronizer.Status()
	book := m.synchronizer.Book()

	var signals []domain.Signal
	if applied {
		for _, observe := range m.observers {
			signals = append(signals, observe(book)...)
		}
		promclient.BookLevels.WithLabelValues(sym, domain.SideBid.String()).Set(float64(book.LevelCount(domain.SideBid)))
		promclient.BookLevels.WithLabelValues(sym, domain.SideAsk.String()).Set(float64(book.LevelCount(domain.SideAsk)))
	}
	m.mu.Unlock()

	gapDetected := status.ResyncCount > m.lastResyncCount

	switch {
	case err != nil && errors.Is(err, domain.ErrMalformedUpdate):
		promclient.UpdatesDropped.WithLabelValues(sym, "malformed").Inc()
		m.log.Warn().Err(err).Str("symbol", sym).Msg("malformed update rejected")
	case err != nil:
		// Snapshot fetch or snapshot validation failure: the book stays in
		// Synchronizing and the next update retries.
		promclient.SnapshotFetchFailures.WithLabelValues(sym).Inc()
		m.log.Error().Err(err).Str("symbol", sym).Msg("snapshot bootstrap failed, will retry")
	case applied:
		promclient.UpdatesApplied.WithLabelValues(sym).Inc()
	case gapDetected:
		promclient.UpdatesDropped.WithLabelValues(sym, "gap").Inc()
	default:
		promclient.UpdatesDropped.WithLabelValues(sym, "stale").Inc()
	}

	if gapDetected {
		promclient.ResyncTotal.WithLabelValues(sym).Add(float64(status.ResyncCount - m.lastResyncCount))
		m.lastResyncCount = status.ResyncCount
		m.log.Warn().
			Str("symbol", sym).
			Int64("last_applied", status.LastAppliedSequence).
			Uint64("resyncs", status.ResyncCount).
			Msg("sequence gap detected, resynchronizing")
	}

	for _, sig := range signals {
		if m.onSignal != nil {
			m.onSignal(sig)
		}
	}
}
