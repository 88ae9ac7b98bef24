package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (SKYSHIP_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("relay-url", os.Getenv("SKYSHIP_RELAY_URL"), &cfg.RelayURL)
	s.setString("collection", os.Getenv("SKYSHIP_COLLECTION"), &cfg.Collection)
	s.setString("subscribers", os.Getenv("SKYSHIP_SUBSCRIBERS_FILE"), &cfg.SubscribersFile)
	s.setString("database", os.Getenv("SKYSHIP_DATABASE"), &cfg.Database)
	s.setString("resolver-url", os.Getenv("SKYSHIP_RESOLVER_URL"), &cfg.ResolverURL)
	s.setString("sink", os.Getenv("SKYSHIP_SINK"), &cfg.Sink)
	s.setString("twilio-account-sid", os.Getenv("SKYSHIP_TWILIO_ACCOUNT_SID"), &cfg.TwilioAccountSID)
	s.setString("twilio-auth-token", os.Getenv("SKYSHIP_TWILIO_AUTH_TOKEN"), &cfg.TwilioAuthToken)
	s.setString("twilio-from", os.Getenv("SKYSHIP_TWILIO_FROM"), &cfg.TwilioFrom)
	s.setString("twilio-base-url", os.Getenv("SKYSHIP_TWILIO_BASE_URL"), &cfg.TwilioBaseURL)
	s.setString("admin-addr", os.Getenv("SKYSHIP_ADMIN_ADDR"), &cfg.AdminAddr)
	s.setString("log-level", os.Getenv("SKYSHIP_LOG_LEVEL"), &cfg.LogLevel)

	if err := s.setDuration("notify-timeout", os.Getenv("SKYSHIP_NOTIFY_TIMEOUT"), &cfg.NotifyTimeout); err != nil {
		return err
	}
	if err := s.setDuration("reload-interval", os.Getenv("SKYSHIP_RELOAD_INTERVAL"), &cfg.ReloadInterval); err != nil {
		return err
	}
	if err := s.setDuration("reload-timeout", os.Getenv("SKYSHIP_RELOAD_TIMEOUT"), &cfg.ReloadTimeout); err != nil {
		return err
	}
	if err := s.setDuration("idle-timeout", os.Getenv("SKYSHIP_IDLE_TIMEOUT"), &cfg.IdleTimeout); err != nil {
		return err
	}
	if err := s.setDuration("timeout", os.Getenv("SKYSHIP_HTTP_TIMEOUT"), &cfg.HTTPTimeout); err != nil {
		return err
	}

	if err := s.setFloatFromString("notify-rate", os.Getenv("SKYSHIP_NOTIFY_RATE"), &cfg.NotifyRate); err != nil {
		return err
	}
	if err := s.setIntFromString("max-frame-bytes", os.Getenv("SKYSHIP_MAX_FRAME_BYTES"), &cfg.MaxFrameBytes); err != nil {
		return err
	}

	s.setBoolFromString("verify-blocks", os.Getenv("SKYSHIP_VERIFY_BLOCKS"), &cfg.VerifyBlocks)

	return nil
}
