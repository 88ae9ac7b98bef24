package cliconfig

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/bft-labs/skyship/internal/domain"
)

// Defaults for values that point at public services.
const (
	DefaultRelayURL      = "wss://bsky.network/xrpc/com.atproto.sync.subscribeRepos"
	DefaultResolverURL   = "https://bsky.social"
	DefaultTwilioBaseURL = "https://api.twilio.com"
)

// Notification sinks.
const (
	SinkSMS     = "sms"
	SinkConsole = "console"
)

// Config holds CLI configuration for skyship.
type Config struct {
	RelayURL   string
	Collection string

	// Exactly one subscriber source is used: Database if set, otherwise
	// SubscribersFile.
	SubscribersFile string
	Database        string
	ResolverURL     string

	Sink             string
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFrom       string
	TwilioBaseURL    string

	NotifyTimeout  time.Duration
	NotifyRate     float64
	ReloadInterval time.Duration
	ReloadTimeout  time.Duration
	IdleTimeout    time.Duration
	HTTPTimeout    time.Duration

	MaxFrameBytes int
	VerifyBlocks  bool

	AdminAddr string
	LogLevel  string
}

// DefaultConfig returns a Config with default values. Twilio credentials
// default from the standard TWILIO_* variables.
func DefaultConfig() Config {
	return Config{
		RelayURL:         DefaultRelayURL,
		Collection:       domain.PostCollection,
		ResolverURL:      DefaultResolverURL,
		TwilioAccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFrom:       os.Getenv("TWILIO_PHONE_NUMBER"),
		TwilioBaseURL:    DefaultTwilioBaseURL,
		NotifyTimeout:    10 * time.Second,
		NotifyRate:       1,
		ReloadInterval:   5 * time.Minute,
		ReloadTimeout:    30 * time.Second,
		IdleTimeout:      60 * time.Second,
		HTTPTimeout:      15 * time.Second,
		MaxFrameBytes:    5 << 20, // 5MB
		VerifyBlocks:     true,
		LogLevel:         "info",
	}
}

// DefaultSubscribersPath returns ~/.skyship/subscribers.toml, or "" if the
// home directory is unknown.
func DefaultSubscribersPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".skyship", "subscribers.toml")
	}
	return ""
}

// Validate checks the configuration for errors and sets derived defaults.
func (c *Config) Validate() error {
	u, err := url.Parse(c.RelayURL)
	if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") || u.Host == "" {
		return invalid("relay-url must be a ws:// or wss:// URL, got %q", c.RelayURL)
	}
	if c.Collection == "" {
		c.Collection = domain.PostCollection
	}

	if c.Database == "" && c.SubscribersFile == "" {
		c.SubscribersFile = DefaultSubscribersPath()
		if c.SubscribersFile == "" {
			return invalid("subscribers or database is required")
		}
	}

	if c.ResolverURL == "" {
		c.ResolverURL = DefaultResolverURL
	}
	c.ResolverURL = strings.TrimRight(c.ResolverURL, "/")
	if c.TwilioBaseURL == "" {
		c.TwilioBaseURL = DefaultTwilioBaseURL
	}
	c.TwilioBaseURL = strings.TrimRight(c.TwilioBaseURL, "/")

	if c.Sink == "" {
		c.Sink = SinkConsole
		if c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.TwilioFrom != "" {
			c.Sink = SinkSMS
		}
	}
	switch c.Sink {
	case SinkConsole:
	case SinkSMS:
		if c.TwilioAccountSID == "" || c.TwilioAuthToken == "" || c.TwilioFrom == "" {
			return invalid("sms sink requires twilio-account-sid, twilio-auth-token and twilio-from")
		}
	default:
		return invalid("unknown sink %q (want %s or %s)", c.Sink, SinkSMS, SinkConsole)
	}

	if c.NotifyTimeout <= 0 {
		return invalid("notify timeout must be positive")
	}
	if c.ReloadTimeout <= 0 {
		return invalid("reload timeout must be positive")
	}
	if c.IdleTimeout <= 0 {
		return invalid("idle timeout must be positive")
	}
	if c.ReloadInterval < 0 || c.NotifyRate < 0 || c.MaxFrameBytes < 0 {
		return invalid("reload interval, notify rate and max frame bytes must not be negative")
	}

	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Redacted returns a copy safe to log.
func (c Config) Redacted() Config {
	if c.TwilioAuthToken != "" {
		c.TwilioAuthToken = "*****"
	}
	return c
}

// ParseLogLevel parses a zerolog level name. Empty means info.
func ParseLogLevel(s string) (zerolog.Level, error) {
	if s == "" {
		return zerolog.InfoLevel, nil
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(s))
	if err != nil {
		return zerolog.NoLevel, invalid("log level %q: %v", s, err)
	}
	return lvl, nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidConfig, fmt.Sprintf(format, args...))
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setFloat sets a float64 value if positive and flag not changed.
func (s *configSetter) setFloat(flag string, value float64, dst *float64) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if positive.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setFloatFromString parses a string to float64 and sets the destination if positive.
func (s *configSetter) setFloatFromString(flag, value string, dst *float64) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if f <= 0 {
		return nil
	}
	*dst = f
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
