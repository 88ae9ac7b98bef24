package skyship

import (
	"fmt"
	"time"

	httpAdapter "github.com/bft-labs/skyship/internal/adapters/http"
	"github.com/bft-labs/skyship/internal/adapters/ws"
	"github.com/bft-labs/skyship/internal/app"
	"github.com/bft-labs/skyship/internal/domain"
)

// TwilioConfig holds the Twilio account used for SMS delivery.
type TwilioConfig = httpAdapter.TwilioConfig

// Config configures a Skyship instance. Zero values are replaced by defaults
// in SetDefaults.
type Config struct {
	// RelayURL is the subscribeRepos websocket endpoint.
	RelayURL string

	// Collection is the record collection treated as posts.
	Collection string

	// SubscribersFile and Database select the subscriber source when no
	// store is injected. Database wins when both are set.
	SubscribersFile string
	Database        string

	// ResolverURL resolves handles named in the subscribers file.
	ResolverURL string

	// Twilio enables SMS delivery when AccountSID is set.
	Twilio TwilioConfig

	NotifyTimeout  time.Duration
	ReloadInterval time.Duration
	ReloadTimeout  time.Duration
	IdleTimeout    time.Duration
	HTTPTimeout    time.Duration

	// MaxFrameBytes drops larger stream messages. Zero disables the limit.
	MaxFrameBytes int

	// SkipVerify disables block hash verification.
	SkipVerify bool

	// AdminAddr, when set, serves /healthz, /metrics and /reload.
	AdminAddr string

	UserAgent string

	// BackoffInitial and BackoffMax bound reconnect delays.
	BackoffInitial time.Duration
	BackoffMax     time.Duration
}

// SetDefaults fills zero values.
func (c *Config) SetDefaults() {
	if c.RelayURL == "" {
		c.RelayURL = ws.DefaultRelayURL
	}
	if c.Collection == "" {
		c.Collection = domain.PostCollection
	}
	if c.ResolverURL == "" {
		c.ResolverURL = httpAdapter.DefaultResolverURL
	}
	if c.Twilio.BaseURL == "" {
		c.Twilio.BaseURL = httpAdapter.DefaultTwilioBaseURL
	}
	if c.NotifyTimeout == 0 {
		c.NotifyTimeout = app.DefaultNotifyTimeout
	}
	if c.ReloadInterval == 0 {
		c.ReloadInterval = app.DefaultReloadInterval
	}
	if c.ReloadTimeout == 0 {
		c.ReloadTimeout = app.DefaultReloadTimeout
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60 * time.Second
	}
	if c.HTTPTimeout == 0 {
		c.HTTPTimeout = 15 * time.Second
	}
	if c.UserAgent == "" {
		c.UserAgent = "skyship/" + Version
	}
	if c.BackoffInitial == 0 {
		c.BackoffInitial = app.DefaultBackoffInitial
	}
	if c.BackoffMax == 0 {
		c.BackoffMax = app.DefaultBackoffMax
	}
}

// Validate checks the configuration. Call SetDefaults first.
func (c *Config) Validate() error {
	if c.NotifyTimeout < 0 || c.ReloadInterval < 0 || c.ReloadTimeout < 0 ||
		c.IdleTimeout < 0 || c.HTTPTimeout < 0 {
		return fmt.Errorf("%w: durations must not be negative", domain.ErrInvalidConfig)
	}
	if c.MaxFrameBytes < 0 {
		return fmt.Errorf("%w: max frame bytes must not be negative", domain.ErrInvalidConfig)
	}
	if c.BackoffMax < c.BackoffInitial {
		return fmt.Errorf("%w: backoff max %v is below initial %v", domain.ErrInvalidConfig, c.BackoffMax, c.BackoffInitial)
	}
	if c.Twilio.AccountSID != "" && (c.Twilio.AuthToken == "" || c.Twilio.From == "") {
		return fmt.Errorf("%w: twilio account requires an auth token and a from number", domain.ErrInvalidConfig)
	}
	return nil
}
