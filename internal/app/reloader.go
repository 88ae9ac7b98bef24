package app

import (
	"context"
	"time"

	"github.com/bft-labs/skyship/internal/ports"
	"github.com/bft-labs/skyship/internal/registry"
	"github.com/bft-labs/skyship/pkg/log"
)

// Reload scheduling defaults.
const (
	DefaultReloadInterval = 5 * time.Minute
	DefaultReloadTimeout  = 30 * time.Second
)

// ReloaderConfig configures periodic subscriber reloads.
type ReloaderConfig struct {
	// Interval between scheduled reloads. Zero disables the ticker; triggers
	// still work.
	Interval time.Duration

	// Timeout bounds one reload.
	Timeout time.Duration
}

// Reloader refreshes the registry from the subscriber store on a schedule
// and on demand.
type Reloader struct {
	config   ReloaderConfig
	registry *registry.Registry
	store    ports.SubscriberStore
	logger   log.Logger
	observer Observer
	trigger  chan struct{}
}

// NewReloader creates a reloader. A nil observer discards events.
func NewReloader(
	config ReloaderConfig,
	reg *registry.Registry,
	store ports.SubscriberStore,
	logger log.Logger,
	observer Observer,
) *Reloader {
	if config.Timeout <= 0 {
		config.Timeout = DefaultReloadTimeout
	}
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	if observer == nil {
		observer = NopObserver{}
	}
	return &Reloader{
		config:   config,
		registry: reg,
		store:    store,
		logger:   logger,
		observer: observer,
		trigger:  make(chan struct{}, 1),
	}
}

// Trigger requests a reload. Requests made while one is pending coalesce.
func (r *Reloader) Trigger() {
	select {
	case r.trigger <- struct{}{}:
	default:
	}
}

// ReloadNow reloads synchronously. On failure the previous snapshot stays live.
func (r *Reloader) ReloadNow(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	start := time.Now()
	if err := r.registry.Reload(ctx, r.store); err != nil {
		r.logger.Error("failed to reload subscribers", log.Err(err))
		r.observer.ReloadFailed()
		return err
	}

	snap := r.registry.Current()
	authors := snap.Authors()
	r.logger.Info("listening for posts",
		log.Strings("authors", authors),
		log.Int("subscriptions", snap.Len()),
		log.Int64("generation", int64(snap.Generation)),
		log.Duration("took", time.Since(start)),
	)
	r.observer.ReloadSucceeded(len(authors))
	return nil
}

// Run reloads on every tick and trigger until ctx is canceled.
func (r *Reloader) Run(ctx context.Context) {
	var tick <-chan time.Time
	if r.config.Interval > 0 {
		ticker := time.NewTicker(r.config.Interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
		case <-r.trigger:
		}
		if ctx.Err() != nil {
			return
		}
		_ = r.ReloadNow(ctx)
	}
}
