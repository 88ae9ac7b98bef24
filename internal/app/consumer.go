package app

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/bft-labs/skyship/internal/domain"
	"github.com/bft-labs/skyship/internal/frame"
	"github.com/bft-labs/skyship/internal/ports"
	"github.com/bft-labs/skyship/pkg/log"
)

// SessionState is the state of one stream session.
type SessionState int32

const (
	SessionConnecting SessionState = iota
	SessionStreaming
	SessionClosed
	SessionFailed
)

func (s SessionState) String() string {
	switch s {
	case SessionConnecting:
		return "connecting"
	case SessionStreaming:
		return "streaming"
	case SessionClosed:
		return "closed"
	case SessionFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// CommitHandler processes one decoded commit.
type CommitHandler interface {
	Handle(ctx context.Context, commit domain.Commit) error
}

// ConsumerConfig configures the stream consumer.
type ConsumerConfig struct {
	// MaxFrameBytes drops larger messages unread. Zero disables the limit.
	MaxFrameBytes int
}

// Consumer reads one stream session and feeds commits to a handler.
// It never reconnects; callers rerun it.
type Consumer struct {
	config   ConsumerConfig
	dialer   ports.StreamDialer
	handler  CommitHandler
	logger   log.Logger
	observer Observer

	state    atomic.Int32
	messages atomic.Int64
}

// NewConsumer creates a consumer. A nil observer discards events.
func NewConsumer(
	config ConsumerConfig,
	dialer ports.StreamDialer,
	handler CommitHandler,
	logger log.Logger,
	observer Observer,
) *Consumer {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	if observer == nil {
		observer = NopObserver{}
	}
	c := &Consumer{
		config:   config,
		dialer:   dialer,
		handler:  handler,
		logger:   logger,
		observer: observer,
	}
	c.state.Store(int32(SessionClosed))
	return c
}

// State returns the state of the current or last session.
func (c *Consumer) State() SessionState {
	return SessionState(c.state.Load())
}

// Messages returns how many messages have been read across all sessions.
func (c *Consumer) Messages() int64 {
	return c.messages.Load()
}

// Run dials the stream and processes messages until the stream fails or ctx
// is canceled. Cancellation ends the session cleanly and returns nil; dial and
// read failures return a *domain.TransportError.
//
// A commit being dispatched when ctx is canceled is allowed to finish.
func (c *Consumer) Run(ctx context.Context) error {
	c.setState(SessionConnecting)

	stream, err := c.dialer.Dial(ctx)
	if err != nil {
		if ctx.Err() != nil {
			c.setState(SessionClosed)
			return nil
		}
		c.setState(SessionFailed)
		return &domain.TransportError{Op: "dial", Err: err}
	}
	defer stream.Close()

	// Closing the stream is what unblocks a pending read on shutdown.
	stop := context.AfterFunc(ctx, func() { _ = stream.Close() })
	defer stop()

	c.setState(SessionStreaming)
	c.logger.Info("stream connected")

	dispatchCtx := context.WithoutCancel(ctx)
	for {
		msg, err := stream.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				c.setState(SessionClosed)
				c.logger.Info("stream closed")
				return nil
			}
			c.setState(SessionFailed)
			return &domain.TransportError{Op: "read", Err: err}
		}
		c.messages.Add(1)
		c.handleMessage(dispatchCtx, msg)
	}
}

func (c *Consumer) handleMessage(ctx context.Context, msg []byte) {
	if c.config.MaxFrameBytes > 0 && len(msg) > c.config.MaxFrameBytes {
		c.logger.Warn("dropping oversized message",
			log.Int("bytes", len(msg)),
			log.Int("limit", c.config.MaxFrameBytes),
		)
		c.observer.FrameDropped("oversized")
		return
	}

	f, err := frame.Decode(msg)
	if err != nil {
		var fe *domain.FrameError
		if errors.As(err, &fe) && fe.Kind == domain.FrameRemote {
			c.logger.Error("relay sent error frame",
				log.String("error", fe.RemoteKind),
				log.String("message", fe.Message),
			)
			c.observer.FrameDropped("remote_error")
			return
		}
		c.logger.Warn("dropping malformed frame", log.Err(err))
		c.observer.FrameDropped("malformed")
		return
	}
	c.observer.FrameReceived(f.Type)

	if f.Type != domain.MessageCommit {
		c.logger.Debug("ignoring message", log.String("type", f.Type.String()), log.String("tag", f.Tag))
		return
	}

	commit, err := frame.DecodeCommit(f.Body)
	if err != nil {
		c.logger.Warn("dropping undecodable commit", log.Err(err))
		c.observer.FrameDropped("malformed_commit")
		return
	}

	if err := c.handler.Handle(ctx, commit); err != nil {
		c.logger.Error("failed to handle commit", log.Err(err))
	}
}

func (c *Consumer) setState(s SessionState) {
	c.state.Store(int32(s))
	c.observer.SessionStateChanged(s)
}
