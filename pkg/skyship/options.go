package skyship

import (
	"github.com/bft-labs/skyship/internal/app"
	"github.com/bft-labs/skyship/internal/ports"
	"github.com/bft-labs/skyship/pkg/log"
)

// Interfaces callers can implement to replace the shipped adapters.
type (
	// HTTPClient makes outbound HTTP requests. *http.Client satisfies it.
	HTTPClient = ports.HTTPClient

	// Notifier delivers a post to one destination.
	Notifier = ports.Notifier

	// SubscriberStore returns the complete subscriber set on each reload.
	SubscriberStore = ports.SubscriberStore

	// StreamDialer opens a relay event stream.
	StreamDialer = ports.StreamDialer

	// Observer receives pipeline events. Embed NopObserver to implement a subset.
	Observer = app.Observer

	// NopObserver ignores every event.
	NopObserver = app.NopObserver
)

// Option configures optional behavior of Skyship.
type Option func(*options)

// options holds the optional configuration for a Skyship instance.
type options struct {
	httpClient   ports.HTTPClient
	logger       log.Logger
	notifier     ports.Notifier
	store        ports.SubscriberStore
	dialer       ports.StreamDialer
	observer     app.Observer
	eventHandler EventHandler
}

// WithHTTPClient sets the client used for handle resolution and Twilio.
// If not provided, a default client with the configured timeout is used.
func WithHTTPClient(client HTTPClient) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithNotifier replaces the SMS or console notifier chosen from Config.
func WithNotifier(n Notifier) Option {
	return func(o *options) {
		o.notifier = n
	}
}

// WithSubscriberStore replaces the store chosen from Config. The
// subscribers file is not watched.
func WithSubscriberStore(s SubscriberStore) Option {
	return func(o *options) {
		o.store = s
	}
}

// WithDialer replaces the websocket relay dialer.
func WithDialer(d StreamDialer) Option {
	return func(o *options) {
		o.dialer = d
	}
}

// WithObserver receives pipeline events in addition to the built-in metrics.
// Events are called synchronously from the pipeline goroutines.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		o.observer = obs
	}
}

// WithEventHandler sets a handler for lifecycle state changes.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}
