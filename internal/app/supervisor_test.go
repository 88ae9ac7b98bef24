package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bft-labs/skyship/internal/domain"
	"github.com/bft-labs/skyship/internal/fixture"
	"github.com/bft-labs/skyship/internal/ports"
)

// scriptedDialer hands out one result per Dial and holds on the last one.
type scriptedDialer struct {
	mu      sync.Mutex
	results []func() (ports.MessageStream, error)
	dials   int
	dialed  chan int
}

func (d *scriptedDialer) Dial(ctx context.Context) (ports.MessageStream, error) {
	d.mu.Lock()
	i := d.dials
	d.dials++
	next := d.results[min(i, len(d.results)-1)]
	d.mu.Unlock()

	select {
	case d.dialed <- i + 1:
	default:
	}
	return next()
}

func TestSupervisor_ReconnectsAfterFailures(t *testing.T) {
	commit := fixture.PostCommit(t, "did:example:abc", 1, "hello", "2024-01-01T00:00:00Z")
	held := newFakeStream(true, fixture.CommitFrame(t, commit))

	dialer := &scriptedDialer{
		dialed: make(chan int, 8),
		results: []func() (ports.MessageStream, error){
			func() (ports.MessageStream, error) { return nil, errors.New("refused") },
			func() (ports.MessageStream, error) { return newFakeStream(false), nil },
			func() (ports.MessageStream, error) { return held, nil },
		},
	}

	var mu sync.Mutex
	var handled int
	handler := handlerFunc(func(ctx context.Context, c domain.Commit) error {
		mu.Lock()
		handled++
		mu.Unlock()
		return nil
	})

	c := NewConsumer(ConsumerConfig{}, dialer, handler, &mockLogger{}, nil)
	s := NewSupervisor(c, NewBackoff(time.Millisecond, 4*time.Millisecond), &mockLogger{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	deadline := time.After(5 * time.Second)
	for n := 0; n < 3; {
		select {
		case n = <-dialer.dialed:
		case <-deadline:
			t.Fatal("supervisor did not redial")
		}
	}

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return handled == 1
	})
	if got := c.State(); got != SessionStreaming {
		t.Errorf("State() = %v, want Streaming", got)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if got := c.State(); got != SessionClosed {
		t.Errorf("State() after cancel = %v, want Closed", got)
	}
}

func TestSupervisor_ResetsBackoffAfterMessages(t *testing.T) {
	stream := func() (ports.MessageStream, error) {
		return newFakeStream(false, []byte{0xff}), nil
	}
	dialer := &scriptedDialer{
		dialed:  make(chan int, 8),
		results: []func() (ports.MessageStream, error){stream},
	}
	c := NewConsumer(ConsumerConfig{}, dialer, handlerFunc(func(context.Context, domain.Commit) error { return nil }), &mockLogger{}, nil)
	b := NewBackoff(time.Millisecond, time.Hour)
	s := NewSupervisor(c, b, &mockLogger{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	deadline := time.After(5 * time.Second)
	for n := 0; n < 5; {
		select {
		case n = <-dialer.dialed:
		case <-deadline:
			t.Fatal("supervisor did not redial")
		}
	}
	cancel()
	<-done

	if got := b.Current(); got != 2*time.Millisecond {
		t.Errorf("backoff = %v, want 2ms", got)
	}
	if c.Messages() < 4 {
		t.Errorf("Messages() = %d, want at least 4", c.Messages())
	}
}

func TestSupervisor_StopsDuringBackoff(t *testing.T) {
	dialer := &scriptedDialer{
		dialed: make(chan int, 8),
		results: []func() (ports.MessageStream, error){
			func() (ports.MessageStream, error) { return nil, errors.New("refused") },
		},
	}
	c := NewConsumer(ConsumerConfig{}, dialer, nil, &mockLogger{}, nil)
	s := NewSupervisor(c, NewBackoff(time.Hour, time.Hour), &mockLogger{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	<-dialer.dialed
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return while backing off")
	}
	if got := c.State(); got != SessionFailed {
		t.Errorf("State() = %v, want Failed", got)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met")
		}
		time.Sleep(time.Millisecond)
	}
}
