package ports

import "context"

// StreamDialer opens the persistent event-stream connection.
type StreamDialer interface {
	// Dial connects to the event source. The context bounds the handshake only.
	Dial(ctx context.Context) (MessageStream, error)
}

// MessageStream yields discrete binary messages in arrival order.
// The transport guarantees message boundaries.
type MessageStream interface {
	// ReadMessage blocks until the next binary message arrives.
	// Any error is fatal to the stream.
	ReadMessage() ([]byte, error)

	// Close tears the connection down and unblocks a pending ReadMessage.
	Close() error
}
