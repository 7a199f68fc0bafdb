package binance

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/dust2080/hft-trading-system/domain"
)

const (
	defaultAPIEndpoint = "wss://ws-api.binance.com:443/ws-api/v3"
	responseTimeout    = 10 * time.Second
)

var ErrResponseTimeout = errors.New("binance: timed out waiting for ws-api response")

// wireSnapshot is the depth response payload.
type wireSnapshot struct {
	LastUpdateID int64      `json:"lastUpdateId"`
	Bids         [][]string `json:"bids"`
	Asks         [][]string `json:"asks"`
}

type apiResponse[T any] struct {
	ID     int `json:"id"`
	Status int `json:"status"`
	Result T   `json:"result"`
}

// SyncAPI fetches full order-book snapshots over the Binance websocket
// API. Every in-flight request registers a response channel keyed by its
// request id before the write goes out; the single listener goroutine
// routes each response to its owner, so concurrent fetches from multiple
// books never consume each other's replies.
type SyncAPI struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	pendingMu sync.Mutex
	pending   map[int]chan []byte

	log zerolog.Logger
}

func NewSyncAPI(endpoint string, log zerolog.Logger) (*SyncAPI, error) {
	if endpoint == "" {
		endpoint = defaultAPIEndpoint
	}

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: 5 * time.Second,
	}
	conn, _, err := dialer.Dial(endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("binance: dial ws-api %s: %w", endpoint, err)
	}

	api := &SyncAPI{
		conn:    conn,
		pending: make(map[int]chan []byte),
		log:     log.With().Str("component", "binance-sync-api").Logger(),
	}
	go api.listener()
	return api, nil
}

// DepthSnapshot implements domain.SnapshotFetcher. The call blocks for the
// round-trip; a transport or decode failure is returned without touching
// any book state.
func (api *SyncAPI) DepthSnapshot(symbol *domain.MarketSymbol, scale domain.SymbolScale, limit int) (*domain.DepthSnapshot, error) {
	reqID, ch := api.register()
	defer api.unregister(reqID)

	api.writeMu.Lock()
	err := api.conn.WriteJSON(map[string]any{
		"id":     reqID,
		"method": "depth",
		"params": map[string]any{
			"symbol": strings.ToUpper(symbol.Join("")),
			"limit":  limit,
		},
	})
	api.writeMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("binance: send depth request: %w", err)
	}

	select {
	case msg, ok := <-ch:
		if !ok {
			return nil, fmt.Errorf("binance: ws-api connection lost")
		}

		var response apiResponse[wireSnapshot]
		if err := json.Unmarshal(msg, &response); err != nil {
			return nil, fmt.Errorf("binance: decode depth response: %w", err)
		}
		return parseSnapshot(&response.Result, scale)

	case <-time.After(responseTimeout):
		return nil, ErrResponseTimeout
	}
}

func (api *SyncAPI) Close() error {
	return api.conn.Close()
}

// register reserves a fresh request id with a buffered response channel.
func (api *SyncAPI) register() (int, chan []byte) {
	api.pendingMu.Lock()
	defer api.pendingMu.Unlock()

	reqID := randomReqID()
	for api.pending[reqID] != nil {
		reqID = randomReqID()
	}
	ch := make(chan []byte, 1)
	api.pending[reqID] = ch
	return reqID, ch
}

func (api *SyncAPI) unregister(reqID int) {
	api.pendingMu.Lock()
	defer api.pendingMu.Unlock()
	delete(api.pending, reqID)
}

func (api *SyncAPI) listener() {
	for {
		_, msg, err := api.conn.ReadMessage()
		if err != nil {
			api.log.Warn().Err(err).Msg("ws-api connection closed")
			api.failPending()
			return
		}
		api.dispatch(msg)
	}
}

// dispatch routes one wire message to the waiter that owns its id.
// Messages without an id, or whose owner already timed out, are dropped.
func (api *SyncAPI) dispatch(msg []byte) {
	var envelope struct {
		ID *int `json:"id"`
	}
	if err := json.Unmarshal(msg, &envelope); err != nil || envelope.ID == nil {
		return
	}

	api.pendingMu.Lock()
	defer api.pendingMu.Unlock()

	ch := api.pending[*envelope.ID]
	if ch == nil {
		return
	}
	select {
	case ch <- msg:
	default:
	}
}

// failPending wakes every waiter after the connection dies; a closed
// channel reads as a lost connection rather than a timeout.
func (api *SyncAPI) failPending() {
	api.pendingMu.Lock()
	defer api.pendingMu.Unlock()
	for id, ch := range api.pending {
		close(ch)
		delete(api.pending, id)
	}
}

func parseSnapshot(snapshot *wireSnapshot, scale domain.SymbolScale) (*domain.DepthSnapshot, error) {
	bids, err := parseDepthLevels(snapshot.Bids, scale)
	if err != nil {
		return nil, fmt.Errorf("binance: snapshot bids: %w", err)
	}
	asks, err := parseDepthLevels(snapshot.Asks, scale)
	if err != nil {
		return nil, fmt.Errorf("binance: snapshot asks: %w", err)
	}
	return &domain.DepthSnapshot{
		LastUpdateID: snapshot.LastUpdateID,
		Bids:         bids,
		Asks:         asks,
	}, nil
}
