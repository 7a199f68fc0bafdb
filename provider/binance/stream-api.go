package binance

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dust2080/hft-trading-system/domain"
)

// depthUpdateData is the @depth diff event payload.
type depthUpdateData struct {
	Event         string     `json:"e"`
	EventTime     int64      `json:"E"`
	Symbol        string     `json:"s"`
	FirstUpdateID int64      `json:"U"`
	FinalUpdateID int64      `json:"u"`
	Bids          [][]string `json:"b"`
	Asks          [][]string `json:"a"`
}

// StreamAPI decodes Binance stream payloads into typed domain records.
// Decimal strings are converted to the symbol's fixed-point representation
// here, at the transport boundary.
type StreamAPI struct {
	streamClient *StreamClient
	log          zerolog.Logger
}

func NewStreamAPI(client *StreamClient, log zerolog.Logger) *StreamAPI {
	return &StreamAPI{
		streamClient: client,
		log:          log.With().Str("component", "binance-stream-api").Logger(),
	}
}

// DepthDiffStream subscribes to the incremental depth stream for a symbol.
// A message that fails to decode or parse is rejected per-record: it is
// logged and skipped, and the stream keeps going.
func (api *StreamAPI) DepthDiffStream(symbol *domain.MarketSymbol, scale domain.SymbolScale) (*domain.Subscription[*domain.DepthUpdate], error) {
	topic := fmt.Sprintf("%s@depth", symbol.Join(""))
	subscription, err := api.streamClient.Subscribe(topic)
	if err != nil {
		return nil, err
	}

	out := make(chan *domain.DepthUpdate, 64)
	go func() {
		defer close(out)

		for msg := range subscription.Stream {
			update, err := decodeDepthUpdate(msg, symbol, scale)
			if err != nil {
				api.log.Warn().Err(err).Str("topic", topic).Msg("malformed depth update dropped")
				continue
			}
			out <- update
		}
	}()

	return &domain.Subscription[*domain.DepthUpdate]{
		Stream:      out,
		Unsubscribe: subscription.Unsubscribe,
		Topic:       topic,
	}, nil
}

func decodeDepthUpdate(msg []byte, symbol *domain.MarketSymbol, scale domain.SymbolScale) (*domain.DepthUpdate, error) {
	var message Message[depthUpdateData]
	if err := json.Unmarshal(msg, &message); err != nil {
		return nil, fmt.Errorf("decode depth update: %w", err)
	}

	bids, err := parseDepthLevels(message.Data.Bids, scale)
	if err != nil {
		return nil, fmt.Errorf("bids: %w", err)
	}
	asks, err := parseDepthLevels(message.Data.Asks, scale)
	if err != nil {
		return nil, fmt.Errorf("asks: %w", err)
	}

	return domain.NewDepthUpdate(
		symbol,
		message.Data.FirstUpdateID,
		message.Data.FinalUpdateID,
		bids,
		asks,
	), nil
}

// parseDepthLevels converts [["price","qty"], ...] wire levels into
// fixed-point price levels.
func parseDepthLevels(levels [][]string, scale domain.SymbolScale) ([]domain.PriceLevel, error) {
	out := make([]domain.PriceLevel, 0, len(levels))
	for _, lvl := range levels {
		if len(lvl) < 2 {
			return nil, fmt.Errorf("level has %d fields, want 2", len(lvl))
		}
		price, err := scale.ParsePrice(lvl[0])
		if err != nil {
			return nil, err
		}
		quantity, err := scale.ParseQuantity(lvl[1])
		if err != nil {
			return nil, err
		}
		out = append(out, domain.PriceLevel{Price: price, Quantity: quantity})
	}
	return out, nil
}
