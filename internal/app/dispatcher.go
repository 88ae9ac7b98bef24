package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bft-labs/skyship/internal/car"
	"github.com/bft-labs/skyship/internal/domain"
	"github.com/bft-labs/skyship/internal/ports"
	"github.com/bft-labs/skyship/internal/record"
	"github.com/bft-labs/skyship/pkg/log"
)

// DefaultNotifyTimeout bounds a single notification when none is configured.
const DefaultNotifyTimeout = 10 * time.Second

// Subscribers resolves an author to the subscribers following it.
type Subscribers interface {
	Lookup(authorID string) []domain.Subscriber
}

// DispatcherConfig configures commit dispatch.
type DispatcherConfig struct {
	// Collection is the record collection treated as posts.
	Collection string

	// NotifyTimeout bounds each Notify call.
	NotifyTimeout time.Duration

	// ArchiveOptions are passed to car.Parse.
	ArchiveOptions []car.Option
}

// Dispatcher turns commits into notifications for the authors' subscribers.
type Dispatcher struct {
	config      DispatcherConfig
	subscribers Subscribers
	notifier    ports.Notifier
	logger      log.Logger
	observer    Observer
}

// NewDispatcher creates a dispatcher. A nil observer discards events.
func NewDispatcher(
	config DispatcherConfig,
	subscribers Subscribers,
	notifier ports.Notifier,
	logger log.Logger,
	observer Observer,
) *Dispatcher {
	if config.Collection == "" {
		config.Collection = domain.PostCollection
	}
	if config.NotifyTimeout <= 0 {
		config.NotifyTimeout = DefaultNotifyTimeout
	}
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	if observer == nil {
		observer = NopObserver{}
	}
	return &Dispatcher{
		config:      config,
		subscribers: subscribers,
		notifier:    notifier,
		logger:      logger,
		observer:    observer,
	}
}

// Handle delivers every new post in commit to the subscribers of its author.
//
// Commits from authors nobody follows return immediately without touching
// the archive. A post that cannot be extracted or decoded fails the commit
// with a *domain.DispatchError. Delivery failures are logged per subscriber
// and never fail the commit.
func (d *Dispatcher) Handle(ctx context.Context, commit domain.Commit) error {
	subs := d.subscribers.Lookup(commit.Repo)
	if len(subs) == 0 {
		d.observer.CommitSkipped()
		return nil
	}
	d.observer.CommitMatched(len(subs))

	var archive *car.Archive
	for _, op := range commit.Ops {
		if op.Action != domain.ActionCreate || op.Collection() != d.config.Collection {
			continue
		}
		if !op.CID.Defined() {
			return d.fail(commit, op, StageExtract,
				fmt.Errorf("create without cid: %w", domain.ErrBlockNotFound))
		}

		if archive == nil {
			a, err := car.Parse(commit.Blocks, d.config.ArchiveOptions...)
			if err != nil {
				return d.fail(commit, op, StageExtract, err)
			}
			archive = a
		}

		block, err := archive.Find(op.CID)
		if err != nil {
			return d.fail(commit, op, StageExtract, err)
		}

		rec, err := record.Decode(block)
		if err != nil {
			return d.fail(commit, op, StageDecode, err)
		}
		d.observer.PostDecoded()

		d.deliver(ctx, subs, domain.Post{
			Author:       commit.Repo,
			AuthorHandle: handleOf(subs),
			Path:         op.Path,
			Record:       rec,
		})
	}
	return nil
}

// deliver notifies every subscriber in order. One failure does not stop the rest.
func (d *Dispatcher) deliver(ctx context.Context, subs []domain.Subscriber, post domain.Post) {
	for _, sub := range subs {
		nctx, cancel := context.WithTimeout(ctx, d.config.NotifyTimeout)
		err := d.notifier.Notify(nctx, sub.Destination, post)
		cancel()

		if err != nil {
			derr := &domain.DeliveryError{Destination: sub.Destination, Err: err}
			d.logger.Warn("notification failed",
				log.Err(derr),
				log.String("author", post.Author),
				log.String("uri", post.URI()),
			)
			d.observer.DeliveryFailed()
			continue
		}

		d.logger.Debug("notified subscriber",
			log.String("destination", sub.Destination),
			log.String("uri", post.URI()),
		)
		d.observer.DeliverySucceeded()
	}
}

func handleOf(subs []domain.Subscriber) string {
	for _, s := range subs {
		if s.Handle != "" {
			return s.Handle
		}
	}
	return ""
}

func (d *Dispatcher) fail(commit domain.Commit, op domain.RepoOp, stage string, err error) error {
	d.observer.DispatchFailed(stage)
	if commit.TooBig && errors.Is(err, domain.ErrBlockNotFound) {
		err = fmt.Errorf("commit marked too big: %w", err)
	}
	return &domain.DispatchError{Repo: commit.Repo, Seq: commit.Seq, Path: op.Path, Err: err}
}
