package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	RelayURL         string  `toml:"relay_url"`
	Collection       string  `toml:"collection"`
	SubscribersFile  string  `toml:"subscribers_file"`
	Database         string  `toml:"database"`
	ResolverURL      string  `toml:"resolver_url"`
	Sink             string  `toml:"sink"`
	TwilioAccountSID string  `toml:"twilio_account_sid"`
	TwilioAuthToken  string  `toml:"twilio_auth_token"`
	TwilioFrom       string  `toml:"twilio_from"`
	TwilioBaseURL    string  `toml:"twilio_base_url"`
	NotifyTimeout    string  `toml:"notify_timeout"`
	NotifyRate       float64 `toml:"notify_rate"`
	ReloadInterval   string  `toml:"reload_interval"`
	ReloadTimeout    string  `toml:"reload_timeout"`
	IdleTimeout      string  `toml:"idle_timeout"`
	HTTPTimeout      string  `toml:"http_timeout"`
	MaxFrameBytes    int     `toml:"max_frame_bytes"`
	VerifyBlocks     *bool   `toml:"verify_blocks"`
	AdminAddr        string  `toml:"admin_addr"`
	LogLevel         string  `toml:"log_level"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.skyship/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".skyship", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("relay-url", fc.RelayURL, &cfg.RelayURL)
	s.setString("collection", fc.Collection, &cfg.Collection)
	s.setString("subscribers", fc.SubscribersFile, &cfg.SubscribersFile)
	s.setString("database", fc.Database, &cfg.Database)
	s.setString("resolver-url", fc.ResolverURL, &cfg.ResolverURL)
	s.setString("sink", fc.Sink, &cfg.Sink)
	s.setString("twilio-account-sid", fc.TwilioAccountSID, &cfg.TwilioAccountSID)
	s.setString("twilio-auth-token", fc.TwilioAuthToken, &cfg.TwilioAuthToken)
	s.setString("twilio-from", fc.TwilioFrom, &cfg.TwilioFrom)
	s.setString("twilio-base-url", fc.TwilioBaseURL, &cfg.TwilioBaseURL)
	s.setString("admin-addr", fc.AdminAddr, &cfg.AdminAddr)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)

	if err := s.setDuration("notify-timeout", fc.NotifyTimeout, &cfg.NotifyTimeout); err != nil {
		return err
	}
	if err := s.setDuration("reload-interval", fc.ReloadInterval, &cfg.ReloadInterval); err != nil {
		return err
	}
	if err := s.setDuration("reload-timeout", fc.ReloadTimeout, &cfg.ReloadTimeout); err != nil {
		return err
	}
	if err := s.setDuration("idle-timeout", fc.IdleTimeout, &cfg.IdleTimeout); err != nil {
		return err
	}
	if err := s.setDuration("timeout", fc.HTTPTimeout, &cfg.HTTPTimeout); err != nil {
		return err
	}

	s.setFloat("notify-rate", fc.NotifyRate, &cfg.NotifyRate)
	s.setInt("max-frame-bytes", fc.MaxFrameBytes, &cfg.MaxFrameBytes)
	s.setBool("verify-blocks", fc.VerifyBlocks, &cfg.VerifyBlocks)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
