package app

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"github.com/bft-labs/skyship/internal/domain"
	"github.com/bft-labs/skyship/internal/ports"
)

type notifyCall struct {
	destination string
	post        domain.Post
}

// recordingNotifier records every Notify call and fails for destinations in failFor.
type recordingNotifier struct {
	mu      sync.Mutex
	calls   []notifyCall
	failFor map[string]error
	block   bool
}

func (n *recordingNotifier) Notify(ctx context.Context, destination string, post domain.Post) error {
	n.mu.Lock()
	n.calls = append(n.calls, notifyCall{destination: destination, post: post})
	err := n.failFor[destination]
	n.mu.Unlock()

	if n.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return err
}

func (n *recordingNotifier) Calls() []notifyCall {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notifyCall{}, n.calls...)
}

// countingObserver counts the events the tests assert on.
type countingObserver struct {
	NopObserver
	frames         atomic.Int64
	dropped        atomic.Int64
	skipped        atomic.Int64
	matched        atomic.Int64
	decoded        atomic.Int64
	delivered      atomic.Int64
	deliveryFailed atomic.Int64
	dispatchFailed atomic.Int64
	reloadOK       atomic.Int64
	reloadFailed   atomic.Int64
}

func (o *countingObserver) FrameReceived(domain.MessageType) { o.frames.Add(1) }
func (o *countingObserver) FrameDropped(string)              { o.dropped.Add(1) }
func (o *countingObserver) CommitSkipped()                   { o.skipped.Add(1) }
func (o *countingObserver) CommitMatched(int)                { o.matched.Add(1) }
func (o *countingObserver) PostDecoded()                     { o.decoded.Add(1) }
func (o *countingObserver) DeliverySucceeded()               { o.delivered.Add(1) }
func (o *countingObserver) DeliveryFailed()                  { o.deliveryFailed.Add(1) }
func (o *countingObserver) DispatchFailed(string)            { o.dispatchFailed.Add(1) }
func (o *countingObserver) ReloadSucceeded(int)              { o.reloadOK.Add(1) }
func (o *countingObserver) ReloadFailed()                    { o.reloadFailed.Add(1) }

// staticStore serves a fixed subscriber list, or err.
type staticStore struct {
	subs []domain.Subscriber
	err  error
}

func (s *staticStore) FetchAll(ctx context.Context) ([]domain.Subscriber, error) {
	return s.subs, s.err
}

var errStreamEnded = errors.New("stream ended")

// fakeStream replays messages. When they run out it either fails with
// errStreamEnded or, with hold set, blocks until closed.
type fakeStream struct {
	messages [][]byte
	hold     bool

	mu     sync.Mutex
	closed chan struct{}
	once   sync.Once
}

func newFakeStream(hold bool, messages ...[]byte) *fakeStream {
	return &fakeStream{messages: messages, hold: hold, closed: make(chan struct{})}
}

func (s *fakeStream) ReadMessage() ([]byte, error) {
	s.mu.Lock()
	if len(s.messages) > 0 {
		msg := s.messages[0]
		s.messages = s.messages[1:]
		s.mu.Unlock()
		return msg, nil
	}
	s.mu.Unlock()

	if !s.hold {
		return nil, errStreamEnded
	}
	<-s.closed
	return nil, io.ErrClosedPipe
}

func (s *fakeStream) Close() error {
	s.once.Do(func() { close(s.closed) })
	return nil
}

type fakeDialer struct {
	stream ports.MessageStream
	err    error
	dials  atomic.Int64
}

func (d *fakeDialer) Dial(ctx context.Context) (ports.MessageStream, error) {
	d.dials.Add(1)
	if d.err != nil {
		return nil, d.err
	}
	return d.stream, nil
}
