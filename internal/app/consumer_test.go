package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bft-labs/skyship/internal/domain"
	"github.com/bft-labs/skyship/internal/fixture"
	"github.com/bft-labs/skyship/internal/frame"
)

// handlerFunc adapts a function to CommitHandler.
type handlerFunc func(ctx context.Context, commit domain.Commit) error

func (f handlerFunc) Handle(ctx context.Context, commit domain.Commit) error { return f(ctx, commit) }

func mustEncode(t *testing.T, tag string, body []byte) []byte {
	t.Helper()
	msg, err := frame.Encode(tag, body)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	return msg
}

func TestConsumer_ProcessesStream(t *testing.T) {
	remote, err := frame.EncodeError("ConsumerTooSlow", "")
	if err != nil {
		t.Fatal(err)
	}
	commit := fixture.PostCommit(t, "did:example:abc", 1, "hello", "2024-01-01T00:00:00Z")

	stream := newFakeStream(false,
		mustEncode(t, "#identity", []byte{0xa0}),
		fixture.CommitFrame(t, commit),
		[]byte{0xff, 0x00},
		mustEncode(t, "#commit", []byte{0x01}),
		remote,
		fixture.CommitFrame(t, commit),
	)

	var handled []int64
	handler := handlerFunc(func(ctx context.Context, c domain.Commit) error {
		handled = append(handled, c.Seq)
		if len(handled) == 2 {
			return errors.New("dispatch failed")
		}
		return nil
	})
	obs := &countingObserver{}
	c := NewConsumer(ConsumerConfig{}, &fakeDialer{stream: stream}, handler, &mockLogger{}, obs)

	err = c.Run(context.Background())

	var te *domain.TransportError
	if !errors.As(err, &te) || te.Op != "read" {
		t.Fatalf("Run error = %v, want read *domain.TransportError", err)
	}
	if !errors.Is(err, domain.ErrTransport) || !errors.Is(err, errStreamEnded) {
		t.Errorf("Run error = %v does not wrap ErrTransport and the read error", err)
	}
	if c.State() != SessionFailed {
		t.Errorf("State = %v, want failed", c.State())
	}
	if len(handled) != 2 {
		t.Errorf("handled %d commits, want 2", len(handled))
	}
	if c.Messages() != 6 {
		t.Errorf("Messages = %d, want 6", c.Messages())
	}
	// identity + two commits decoded; the malformed header, the bad commit
	// body and the remote error were dropped.
	if obs.frames.Load() != 4 || obs.dropped.Load() != 3 {
		t.Errorf("observer: frames=%d dropped=%d", obs.frames.Load(), obs.dropped.Load())
	}
}

func TestConsumer_DialFailure(t *testing.T) {
	dialErr := errors.New("connection refused")
	c := NewConsumer(ConsumerConfig{}, &fakeDialer{err: dialErr}, handlerFunc(nil), nil, nil)

	err := c.Run(context.Background())

	var te *domain.TransportError
	if !errors.As(err, &te) || te.Op != "dial" {
		t.Fatalf("Run error = %v, want dial *domain.TransportError", err)
	}
	if !errors.Is(err, dialErr) {
		t.Errorf("Run error does not wrap dial error: %v", err)
	}
	if c.State() != SessionFailed {
		t.Errorf("State = %v, want failed", c.State())
	}
}

func TestConsumer_CancelClosesSession(t *testing.T) {
	stream := newFakeStream(true)
	c := NewConsumer(ConsumerConfig{}, &fakeDialer{stream: stream}, handlerFunc(nil), nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	deadline := time.Now().Add(time.Second)
	for c.State() != SessionStreaming {
		if time.Now().After(deadline) {
			t.Fatal("consumer never started streaming")
		}
		time.Sleep(time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run = %v, want nil on cancellation", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	if c.State() != SessionClosed {
		t.Errorf("State = %v, want closed", c.State())
	}
}

func TestConsumer_DispatchSurvivesCancellation(t *testing.T) {
	commit := fixture.PostCommit(t, "did:example:abc", 1, "hello", "2024-01-01T00:00:00Z")
	stream := newFakeStream(true, fixture.CommitFrame(t, commit))

	ctx, cancel := context.WithCancel(context.Background())
	var dispatchErr error
	handler := handlerFunc(func(hctx context.Context, c domain.Commit) error {
		cancel()
		time.Sleep(10 * time.Millisecond)
		dispatchErr = hctx.Err()
		return nil
	})
	c := NewConsumer(ConsumerConfig{}, &fakeDialer{stream: stream}, handler, nil, nil)

	if err := c.Run(ctx); err != nil {
		t.Fatalf("Run = %v, want nil", err)
	}
	if dispatchErr != nil {
		t.Errorf("dispatch context was canceled: %v", dispatchErr)
	}
}

func TestConsumer_DropsOversizedMessages(t *testing.T) {
	commit := fixture.PostCommit(t, "did:example:abc", 1, "hello", "2024-01-01T00:00:00Z")
	msg := fixture.CommitFrame(t, commit)
	stream := newFakeStream(false, msg)

	handled := 0
	handler := handlerFunc(func(ctx context.Context, c domain.Commit) error {
		handled++
		return nil
	})
	obs := &countingObserver{}
	c := NewConsumer(ConsumerConfig{MaxFrameBytes: len(msg) - 1}, &fakeDialer{stream: stream}, handler, nil, obs)

	_ = c.Run(context.Background())

	if handled != 0 {
		t.Errorf("handled %d commits, want 0", handled)
	}
	if obs.dropped.Load() != 1 {
		t.Errorf("dropped = %d, want 1", obs.dropped.Load())
	}
}

func TestSessionState_String(t *testing.T) {
	tests := []struct {
		state SessionState
		want  string
	}{
		{SessionConnecting, "connecting"},
		{SessionStreaming, "streaming"},
		{SessionClosed, "closed"},
		{SessionFailed, "failed"},
		{SessionState(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("SessionState(%d).String() = %s, want %s", tt.state, got, tt.want)
		}
	}
}
