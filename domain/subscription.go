package domain

// Subscription is a live stream of decoded messages for one topic.
// Unsubscribe releases the underlying transport resources; after it
// returns, Stream is closed.
type Subscription[T any] struct {
	Stream      chan T
	Unsubscribe func()
	Topic       string
}
