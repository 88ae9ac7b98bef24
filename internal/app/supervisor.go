package app

import (
	"context"

	"github.com/bft-labs/skyship/pkg/log"
)

// Supervisor reruns a Consumer after transport failures until its context is
// canceled. The backoff is reset after any session that read a message.
type Supervisor struct {
	consumer *Consumer
	backoff  *Backoff
	logger   log.Logger
}

// NewSupervisor creates a supervisor. A nil backoff uses the default bounds.
func NewSupervisor(consumer *Consumer, backoff *Backoff, logger log.Logger) *Supervisor {
	if backoff == nil {
		backoff = NewBackoff(DefaultBackoffInitial, DefaultBackoffMax)
	}
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Supervisor{
		consumer: consumer,
		backoff:  backoff,
		logger:   logger,
	}
}

// Run blocks until ctx is canceled.
func (s *Supervisor) Run(ctx context.Context) {
	for {
		before := s.consumer.Messages()
		err := s.consumer.Run(ctx)
		if ctx.Err() != nil {
			return
		}
		if s.consumer.Messages() > before {
			s.backoff.Reset()
		}

		delay := s.backoff.Current()
		s.logger.Warn("stream session ended, reconnecting",
			log.Err(err),
			log.Duration("backoff", delay),
		)
		if !s.backoff.Wait(ctx) {
			return
		}
	}
}
