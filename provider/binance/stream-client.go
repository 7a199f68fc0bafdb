package binance

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/recws-org/recws"
	"github.com/rs/zerolog"

	"github.com/dust2080/hft-trading-system/domain"
)

const (
	defaultStreamEndpoint = "wss://stream.binance.com:9443/stream"
	// Binance closes idle connections after ~10 minutes; keep-alive pings
	// have to come in under that.
	pingDelay = time.Minute * 9
)

// Message is the combined-stream envelope: every payload arrives wrapped
// with the topic it belongs to.
type Message[T any] struct {
	Stream string `json:"stream"`
	Data   T      `json:"data"`
}

type wsRequest struct {
	ReqID  int      `json:"id"`
	Method string   `json:"method"`
	Params []string `json:"params"`
}

type subscriptionEntry struct {
	ch              chan []byte
	subscriberCount int
}

// StreamClient multiplexes topic subscriptions over one reconnecting
// websocket connection to the Binance combined stream.
type StreamClient struct {
	endpoint      string
	conn          *recws.RecConn
	subscriptions map[string]*subscriptionEntry
	mu            sync.Mutex
	log           zerolog.Logger

	done   chan struct{}
	readWG sync.WaitGroup
}

func NewStreamClient(endpoint string, log zerolog.Logger) *StreamClient {
	if endpoint == "" {
		endpoint = defaultStreamEndpoint
	}
	return &StreamClient{
		endpoint:      endpoint,
		subscriptions: make(map[string]*subscriptionEntry),
		log:           log.With().Str("component", "binance-stream-client").Logger(),
		done:          make(chan struct{}),
	}
}

func (c *StreamClient) Connect() error {
	conn := &recws.RecConn{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: 5 * time.Second,
		KeepAliveTimeout: pingDelay,
		NonVerbose:       true,
	}
	conn.Dial(c.endpoint, nil)
	c.conn = conn

	c.readWG.Add(1)
	go c.read()
	return nil
}

// Subscribe registers interest in a topic. Multiple subscribers to the
// same topic share one upstream subscription; the wire message is sent
// only for the first.
func (c *StreamClient) Subscribe(topic string) (*domain.Subscription[[]byte], error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil, fmt.Errorf("binance: stream client is not connected")
	}

	entry, ok := c.subscriptions[topic]
	if ok {
		entry.subscriberCount++
	} else {
		entry = &subscriptionEntry{
			ch:              make(chan []byte, 64),
			subscriberCount: 1,
		}
		c.subscriptions[topic] = entry

		c.log.Info().Str("topic", topic).Msg("subscribing")
		err := c.conn.WriteJSON(wsRequest{
			Method: "SUBSCRIBE",
			ReqID:  randomReqID(),
			Params: []string{topic},
		})
		if err != nil {
			delete(c.subscriptions, topic)
			return nil, fmt.Errorf("binance: subscribe to %s: %w", topic, err)
		}
	}

	return &domain.Subscription[[]byte]{
		Stream:      entry.ch,
		Unsubscribe: func() { c.unsubscribe(topic) },
		Topic:       topic,
	}, nil
}

func (c *StreamClient) unsubscribe(topic string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.subscriptions[topic]
	if !ok {
		return
	}

	entry.subscriberCount--
	if entry.subscriberCount > 0 {
		return
	}

	close(entry.ch)
	delete(c.subscriptions, topic)

	c.log.Info().Str("topic", topic).Msg("unsubscribing")
	if err := c.conn.WriteJSON(wsRequest{
		Method: "UNSUBSCRIBE",
		ReqID:  randomReqID(),
		Params: []string{topic},
	}); err != nil {
		c.log.Warn().Err(err).Str("topic", topic).Msg("failed to send unsubscribe")
	}
}

// Close stops the read loop and drops the connection. Blocks until the
// reader has returned.
func (c *StreamClient) Close() error {
	close(c.done)
	c.conn.Close()
	c.readWG.Wait()
	return nil
}

func (c *StreamClient) read() {
	defer c.readWG.Done()

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
				return
			default:
			}
			// recws reconnects on its own; just wait it out.
			c.log.Warn().Err(err).Msg("read error, awaiting reconnect")
			time.Sleep(time.Second)
			continue
		}

		var envelope struct {
			Stream string `json:"stream"`
			ID     *int   `json:"id"`
		}
		if err := json.Unmarshal(msg, &envelope); err != nil {
			c.log.Warn().Err(err).Msg("unparsable stream message")
			continue
		}

		// Subscription acks carry an id and no stream name.
		if envelope.Stream == "" {
			continue
		}

		c.mu.Lock()
		entry, ok := c.subscriptions[envelope.Stream]
		c.mu.Unlock()
		if !ok {
			continue
		}

		select {
		case entry.ch <- msg:
		default:
			c.log.Warn().Str("topic", envelope.Stream).Msg("subscriber lagging, message dropped")
		}
	}
}

func randomReqID() int {
	const (
		minID = 10000
		maxID = 9999999
	)
	return minID + rand.Intn(maxID-minID)
}
