package main

import (
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dust2080/hft-trading-system/config"
	"github.com/dust2080/hft-trading-system/display"
	"github.com/dust2080/hft-trading-system/domain"
	"github.com/dust2080/hft-trading-system/infrastructure/logging"
	promclient "github.com/dust2080/hft-trading-system/infrastructure/prometheus"
	"github.com/dust2080/hft-trading-system/provider/binance"
)

const (
	renderInterval   = 2 * time.Second
	recentSignalsMax = 5
)

// signalLog keeps the last few strategy signals for the render loop.
type signalLog struct {
	mu      sync.Mutex
	signals []domain.Signal
}

func (l *signalLog) Add(sig domain.Signal) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.signals = append(l.signals, sig)
	if len(l.signals) > recentSignalsMax {
		l.signals = l.signals[len(l.signals)-recentSignalsMax:]
	}
}

func (l *signalLog) Recent() []domain.Signal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.Signal(nil), l.signals...)
}

func main() {
	configPath := flag.String("config", "", "path to yaml config (defaults apply when omitted)")
	render := flag.Bool("render", true, "render the book to stdout periodically")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fallback := logging.New("info", false)
		fallback.Fatal().Err(err).Msg("failed to load config")
	}

	log := logging.New(cfg.Logging.Level, cfg.Logging.Pretty)

	go promclient.StartPromClientServer(cfg.Metrics.Addr, log)

	streamClient := binance.NewStreamClient(cfg.Binance.StreamEndpoint, log)
	if err := streamClient.Connect(); err != nil {
		log.Fatal().Err(err).Msg("failed to connect binance stream")
	}
	streamAPI := binance.NewStreamAPI(streamClient, log)

	syncAPI, err := binance.NewSyncAPI(cfg.Binance.APIEndpoint, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect binance ws-api")
	}

	signals := &signalLog{}
	var maintainers []*binance.OrderbookMaintainer

	for _, sc := range cfg.Symbols {
		symbol, err := domain.NewMarketSymbol(sc.Base, sc.Quote)
		if err != nil {
			log.Fatal().Err(err).Str("base", sc.Base).Str("quote", sc.Quote).Msg("invalid symbol")
		}

		maintainer := binance.NewOrderbookMaintainer(streamAPI, syncAPI, binance.MaintainerConfig{
			DepthLimit: cfg.Binance.DepthLimit,
			Observers: []domain.Observer{
				domain.NewSpreadMonitor(cfg.Strategy.SpreadAlertPct),
				domain.NewImbalanceDetector(cfg.Strategy.ImbalanceThreshold, cfg.Strategy.ImbalanceDepth),
			},
			OnSignal: func(sig domain.Signal) {
				signals.Add(sig)
				log.Info().
					Str("signal", sig.Type.String()).
					Str("source", sig.Source).
					Float64("strength", sig.Strength).
					Msg(sig.Reason)
			},
		}, log)

		if err := maintainer.Start(symbol, sc.Scale()); err != nil {
			log.Fatal().Err(err).Str("symbol", symbol.String()).Msg("failed to start maintainer")
		}
		maintainers = append(maintainers, maintainer)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(renderInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !*render {
				continue
			}
			for _, m := range maintainers {
				m.View(func(book *domain.Book, status domain.SyncStatus) {
					display.Render(os.Stdout, book, status, signals.Recent())
				})
			}

		case sig := <-stop:
			log.Info().Str("signal", sig.String()).Msg("shutting down")
			for _, m := range maintainers {
				m.Stop()
			}
			_ = syncAPI.Close()
			_ = streamClient.Close()
			return
		}
	}
}
