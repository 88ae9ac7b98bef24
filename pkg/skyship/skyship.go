package skyship

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bft-labs/skyship/internal/adapters/console"
	"github.com/bft-labs/skyship/internal/adapters/fs"
	httpAdapter "github.com/bft-labs/skyship/internal/adapters/http"
	"github.com/bft-labs/skyship/internal/adapters/metrics"
	"github.com/bft-labs/skyship/internal/adapters/sqlstore"
	"github.com/bft-labs/skyship/internal/adapters/ws"
	"github.com/bft-labs/skyship/internal/app"
	"github.com/bft-labs/skyship/internal/car"
	"github.com/bft-labs/skyship/internal/domain"
	"github.com/bft-labs/skyship/internal/ports"
	"github.com/bft-labs/skyship/internal/registry"
	"github.com/bft-labs/skyship/pkg/log"
)

const adminShutdownTimeout = 5 * time.Second

// Skyship is a post notification service that can be embedded in other
// applications. Use New() to create an instance, then Start() to begin.
type Skyship struct {
	config    Config
	lifecycle *app.Lifecycle
	logger    log.Logger

	registry   *registry.Registry
	consumer   *app.Consumer
	supervisor *app.Supervisor
	reloader   *app.Reloader
	watcher    *fs.Watcher
	gatherer   *prometheus.Registry

	// closer releases a store opened by New.
	closer io.Closer

	mu    sync.Mutex
	admin *httpAdapter.AdminServer
}

// New creates a new Skyship instance with the given configuration.
// The instance is created in StateStopped; call Start() to begin.
// Returns an error if configuration is invalid or the subscriber database
// cannot be opened.
func New(cfg Config, opts ...Option) (*Skyship, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{httpClient: &http.Client{Timeout: cfg.HTTPTimeout}}
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger
	if logger == nil {
		logger = log.NewNoopLogger()
	}

	collector := metrics.NewCollector()
	gatherer := prometheus.NewRegistry()
	if err := gatherer.Register(collector); err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}
	obs := observers{collector}
	if o.observer != nil {
		obs = append(obs, o.observer)
	}

	s := &Skyship{
		config:    cfg,
		lifecycle: app.NewLifecycle(logger, &eventEmitterWrapper{handler: o.eventHandler}),
		logger:    logger,
		registry:  registry.New(logger),
		gatherer:  gatherer,
	}

	store, watchPath, err := s.subscriberStore(o)
	if err != nil {
		return nil, err
	}

	var archiveOpts []car.Option
	if cfg.SkipVerify {
		archiveOpts = append(archiveOpts, car.WithoutVerify())
	}
	dispatcher := app.NewDispatcher(app.DispatcherConfig{
		Collection:     cfg.Collection,
		NotifyTimeout:  cfg.NotifyTimeout,
		ArchiveOptions: archiveOpts,
	}, s.registry, s.notifier(o), logger, obs)

	dialer := o.dialer
	if dialer == nil {
		dialer = ws.NewDialer(ws.Config{
			URL:         cfg.RelayURL,
			IdleTimeout: cfg.IdleTimeout,
			UserAgent:   cfg.UserAgent,
		}, logger)
	}

	s.consumer = app.NewConsumer(app.ConsumerConfig{MaxFrameBytes: cfg.MaxFrameBytes}, dialer, dispatcher, logger, obs)
	s.supervisor = app.NewSupervisor(s.consumer, app.NewBackoff(cfg.BackoffInitial, cfg.BackoffMax), logger)
	s.reloader = app.NewReloader(app.ReloaderConfig{
		Interval: cfg.ReloadInterval,
		Timeout:  cfg.ReloadTimeout,
	}, s.registry, store, logger, obs)

	if watchPath != "" {
		s.watcher = fs.NewWatcher(watchPath, fs.DefaultDebounceDelay, s.reloader.Trigger, logger)
	}
	return s, nil
}

// subscriberStore picks the injected store, the database or the subscribers
// file, in that order. The returned path is non-empty when the store is a
// file that should be watched.
func (s *Skyship) subscriberStore(o options) (ports.SubscriberStore, string, error) {
	switch {
	case o.store != nil:
		return o.store, "", nil
	case s.config.Database != "":
		store, err := sqlstore.Open(s.config.Database, s.logger)
		if err != nil {
			return nil, "", fmt.Errorf("open subscriber database: %w", err)
		}
		s.closer = store
		return store, "", nil
	case s.config.SubscribersFile != "":
		resolver := httpAdapter.NewXRPCResolver(s.config.ResolverURL, o.httpClient)
		return fs.NewSubscriberFile(s.config.SubscribersFile, resolver), s.config.SubscribersFile, nil
	default:
		return nil, "", fmt.Errorf("%w: a subscribers file, database or store is required", domain.ErrInvalidConfig)
	}
}

func (s *Skyship) notifier(o options) ports.Notifier {
	if o.notifier != nil {
		return o.notifier
	}
	if s.config.Twilio.AccountSID != "" {
		return httpAdapter.NewTwilioNotifier(s.config.Twilio, o.httpClient, s.logger)
	}
	return console.NewNotifier(os.Stdout)
}

// Start loads subscribers and begins following the relay in the background.
// A failed initial load is logged; the service starts with no subscriptions
// and the next reload retries. Returns an error if already running or if the
// admin server cannot listen.
func (s *Skyship) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.lifecycle.CanStart() {
		return domain.ErrAlreadyRunning
	}
	if err := s.lifecycle.TransitionTo(app.StateStarting, "Start() called"); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.lifecycle.SetCancel(cancel)

	if s.config.AdminAddr != "" {
		admin := httpAdapter.NewAdminServer(s.config.AdminAddr, httpAdapter.AdminHooks{
			Status:   s.health,
			Reload:   s.reloader.Trigger,
			Gatherer: s.gatherer,
		}, s.logger)
		if err := admin.Start(); err != nil {
			cancel()
			_ = s.lifecycle.TransitionTo(app.StateCrashed, "admin server failed")
			return fmt.Errorf("start admin server: %w", err)
		}
		s.admin = admin
	}

	if err := s.reloader.ReloadNow(runCtx); err != nil {
		s.logger.Warn("starting with no subscriptions", log.Err(err))
	}

	s.lifecycle.Go("reloader", func() { s.reloader.Run(runCtx) })
	if s.watcher != nil {
		s.lifecycle.Go("watcher", func() {
			if err := s.watcher.Run(runCtx); err != nil {
				s.logger.Warn("subscribers file is not watched", log.Err(err))
			}
		})
	}
	s.lifecycle.Go("stream", func() { s.supervisor.Run(runCtx) })

	return s.lifecycle.TransitionTo(app.StateRunning, "pipeline started")
}

// Stop closes the stream and waits for the commit being dispatched to finish.
// Waits up to app.ShutdownTimeout before giving up.
// Returns nil on graceful shutdown, ErrShutdownTimeout if forced.
func (s *Skyship) Stop() error {
	s.mu.Lock()

	if !s.lifecycle.CanStop() {
		s.mu.Unlock()
		return domain.ErrNotRunning
	}
	if err := s.lifecycle.TransitionTo(app.StateStopping, "Stop() called"); err != nil {
		s.mu.Unlock()
		return err
	}
	s.lifecycle.Cancel()
	admin := s.admin
	s.admin = nil
	s.mu.Unlock()

	if admin != nil {
		ctx, cancel := context.WithTimeout(context.Background(), adminShutdownTimeout)
		if err := admin.Shutdown(ctx); err != nil {
			s.logger.Warn("admin server shutdown", log.Err(err))
		}
		cancel()
	}

	err := s.lifecycle.WaitWithTimeout(app.ShutdownTimeout)
	if err != nil {
		_ = s.lifecycle.TransitionTo(app.StateCrashed, "shutdown timeout")
	} else {
		_ = s.lifecycle.TransitionTo(app.StateStopped, "graceful shutdown")
	}
	return err
}

// Close releases the subscriber database, if New opened one.
// Call it after Stop.
func (s *Skyship) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// Status returns the current lifecycle state.
// Safe to call concurrently from any goroutine.
func (s *Skyship) Status() State {
	return s.lifecycle.State()
}

// Session returns the state of the current relay session.
func (s *Skyship) Session() string {
	return s.consumer.State().String()
}

// Reload requests a subscriber reload without waiting for it.
func (s *Skyship) Reload() error {
	if s.Status() != StateRunning {
		return domain.ErrNotRunning
	}
	s.reloader.Trigger()
	return nil
}

// Authors returns the followed authors in the live registry snapshot.
func (s *Skyship) Authors() []string {
	return s.registry.Authors()
}

// Gatherer exposes the service metrics.
func (s *Skyship) Gatherer() prometheus.Gatherer {
	return s.gatherer
}

// AdminAddr returns the address the admin server is bound to, or "" when it
// is not running.
func (s *Skyship) AdminAddr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.admin == nil {
		return ""
	}
	return s.admin.Addr()
}

func (s *Skyship) health() (string, bool) {
	st := s.Status()
	return st.String(), st == StateRunning
}
