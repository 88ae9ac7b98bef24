// Package ws connects to the relay's event stream over WebSocket.
package ws

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bft-labs/skyship/internal/ports"
	"github.com/bft-labs/skyship/pkg/log"
)

// DefaultRelayURL is the public relay's repository event stream.
const DefaultRelayURL = "wss://bsky.network/xrpc/com.atproto.sync.subscribeRepos"

const (
	defaultIdleTimeout      = 60 * time.Second
	defaultHandshakeTimeout = 15 * time.Second
	controlWriteWait        = 5 * time.Second
)

// Config configures the dialer.
type Config struct {
	// URL is the stream endpoint. It is always opened without a cursor.
	URL string

	// IdleTimeout fails a read when nothing (not even a ping) arrives in time.
	IdleTimeout time.Duration

	// HandshakeTimeout bounds the opening handshake.
	HandshakeTimeout time.Duration

	// UserAgent is sent with the handshake.
	UserAgent string
}

// Dialer implements ports.StreamDialer.
type Dialer struct {
	config Config
	dialer *websocket.Dialer
	logger log.Logger
}

// NewDialer creates a dialer.
func NewDialer(config Config, logger log.Logger) *Dialer {
	if config.URL == "" {
		config.URL = DefaultRelayURL
	}
	if config.IdleTimeout <= 0 {
		config.IdleTimeout = defaultIdleTimeout
	}
	if config.HandshakeTimeout <= 0 {
		config.HandshakeTimeout = defaultHandshakeTimeout
	}
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Dialer{
		config: config,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: config.HandshakeTimeout,
		},
		logger: logger,
	}
}

// Dial opens a new stream session.
func (d *Dialer) Dial(ctx context.Context) (ports.MessageStream, error) {
	header := http.Header{}
	if d.config.UserAgent != "" {
		header.Set("User-Agent", d.config.UserAgent)
	}

	d.logger.Info("connecting to relay", log.String("url", d.config.URL))
	conn, resp, err := d.dialer.DialContext(ctx, d.config.URL, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", d.config.URL, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", d.config.URL, err)
	}

	s := &stream{conn: conn, idle: d.config.IdleTimeout, logger: d.logger}
	conn.SetPingHandler(s.onPing)
	return s, nil
}

// stream is one WebSocket session.
type stream struct {
	conn   *websocket.Conn
	idle   time.Duration
	logger log.Logger
	once   sync.Once
}

// ReadMessage returns the next binary message. Text messages are skipped.
func (s *stream) ReadMessage() ([]byte, error) {
	for {
		if err := s.conn.SetReadDeadline(time.Now().Add(s.idle)); err != nil {
			return nil, err
		}
		mt, data, err := s.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		if mt != websocket.BinaryMessage {
			s.logger.Debug("skipping non-binary message", log.Int("type", mt))
			continue
		}
		return data, nil
	}
}

// Close sends a close frame and tears down the connection. Safe to call
// more than once and concurrently with ReadMessage.
func (s *stream) Close() error {
	var err error
	s.once.Do(func() {
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(controlWriteWait))
		err = s.conn.Close()
	})
	return err
}

func (s *stream) onPing(data string) error {
	_ = s.conn.SetReadDeadline(time.Now().Add(s.idle))
	err := s.conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(controlWriteWait))
	if err == websocket.ErrCloseSent {
		return nil
	}
	return err
}
