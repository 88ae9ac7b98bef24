package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/skyship/internal/cliconfig"
	logAdapter "github.com/bft-labs/skyship/pkg/log"
	"github.com/bft-labs/skyship/pkg/skyship"
)

const helpBanner = `
      _              _     _
  ___| | ___   _ ___| |__ (_)_ __
 / __| |/ / | | / __| '_ \| | '_ \
 \__ \   <| |_| \__ \ | | | | |_) |
 |___/_|\_\\__, |___/_| |_|_| .__/
           |___/            |_|
`

const helpDescription = `
Get a text message whenever someone you follow posts on Bluesky.

Highlights:
  - Follows the relay firehose and picks out new posts by followed authors.
  - Subscriptions live in a TOML file or a SQLite database and reload live.
  - Delivers by SMS through Twilio, or prints to the console.
  - Configure via file, env (SKYSHIP_*), or flags.
`

var longHelp = strings.TrimSpace(helpBanner) + "\n\n" + strings.TrimSpace(helpDescription)

var exampleUsage = strings.TrimSpace(`
  skyship --subscribers ~/.skyship/subscribers.toml --sink console
  skyship --database subs.db --twilio-from +15550000000 --admin-addr 127.0.0.1:9090
  skyship subscribe --destination +15555550123 alice.bsky.social
  skyship resolve alice.bsky.social bob.bsky.social
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	log := cliconfig.Logger()
	if err := newRootCmd(&log).Execute(); err != nil {
		log.Error().Err(err).Msg("skyship")
		os.Exit(1)
	}
}

func newRootCmd(log *zerolog.Logger) *cobra.Command {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	root := &cobra.Command{
		Use:           "skyship",
		Short:         "Get a text message whenever someone you follow posts on Bluesky",
		Long:          longHelp,
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(cmd, &cfg, cfgPath); err != nil {
				return err
			}

			// Validate and set derived defaults
			if err := cfg.Validate(); err != nil {
				return err
			}
			lvl, _ := cliconfig.ParseLogLevel(cfg.LogLevel)
			*log = log.Level(lvl)

			log.Info().Interface("config", cfg.Redacted()).Msg("configuration")

			return run(cfg, *log)
		},
	}

	// Configuration flags are persistent so subcommands share them.
	flags := root.PersistentFlags()
	flags.StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.skyship/config.toml)")
	flags.StringVar(&cfg.SubscribersFile, "subscribers", cfg.SubscribersFile, "subscribers TOML file (default: $HOME/.skyship/subscribers.toml)")
	flags.StringVar(&cfg.Database, "database", cfg.Database, "SQLite subscriber database (overrides --subscribers)")
	flags.StringVar(&cfg.ResolverURL, "resolver-url", cfg.ResolverURL, "service used to resolve handles")
	flags.DurationVar(&cfg.HTTPTimeout, "timeout", cfg.HTTPTimeout, "HTTP timeout")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")

	f := root.Flags()
	f.StringVar(&cfg.RelayURL, "relay-url", cfg.RelayURL, "relay subscribeRepos websocket URL")
	f.StringVar(&cfg.Collection, "collection", cfg.Collection, "record collection treated as posts")
	if err := f.MarkHidden("collection"); err != nil {
		log.Info().Err(err).Msg("failed to hide collection flag")
	}
	f.StringVar(&cfg.Sink, "sink", cfg.Sink, "notification sink: sms or console (default: sms when Twilio is configured)")
	f.StringVar(&cfg.TwilioAccountSID, "twilio-account-sid", cfg.TwilioAccountSID, "Twilio account SID (env TWILIO_ACCOUNT_SID)")
	f.StringVar(&cfg.TwilioAuthToken, "twilio-auth-token", cfg.TwilioAuthToken, "Twilio auth token (env TWILIO_AUTH_TOKEN)")
	f.StringVar(&cfg.TwilioFrom, "twilio-from", cfg.TwilioFrom, "Twilio sender number (env TWILIO_PHONE_NUMBER)")
	f.StringVar(&cfg.TwilioBaseURL, "twilio-base-url", cfg.TwilioBaseURL, "Twilio API base URL")
	if err := f.MarkHidden("twilio-base-url"); err != nil {
		log.Info().Err(err).Msg("failed to hide twilio-base-url flag")
	}
	f.DurationVar(&cfg.NotifyTimeout, "notify-timeout", cfg.NotifyTimeout, "timeout for one notification")
	f.Float64Var(&cfg.NotifyRate, "notify-rate", cfg.NotifyRate, "maximum SMS per second (0 = unlimited)")
	f.DurationVar(&cfg.ReloadInterval, "reload-interval", cfg.ReloadInterval, "how often to reload subscribers (0 = only on change)")
	f.DurationVar(&cfg.ReloadTimeout, "reload-timeout", cfg.ReloadTimeout, "timeout for one subscriber reload")
	f.DurationVar(&cfg.IdleTimeout, "idle-timeout", cfg.IdleTimeout, "reconnect when the relay is silent this long")
	f.IntVar(&cfg.MaxFrameBytes, "max-frame-bytes", cfg.MaxFrameBytes, "drop relay messages larger than this (0 = no limit)")
	f.BoolVar(&cfg.VerifyBlocks, "verify-blocks", cfg.VerifyBlocks, "verify archive blocks against their CIDs")
	f.StringVar(&cfg.AdminAddr, "admin-addr", cfg.AdminAddr, "serve /healthz, /metrics and /reload on this address")

	root.AddCommand(
		newResolveCmd(&cfg, &cfgPath),
		newSubscribeCmd(&cfg, &cfgPath),
		newDecodeFrameCmd(),
	)
	return root
}

// loadConfig applies the config file and SKYSHIP_* variables beneath the
// flags set on cmd.
func loadConfig(cmd *cobra.Command, cfg *cliconfig.Config, cfgPath string) error {
	cfgFile := cfgPath
	if cfgFile == "" {
		cfgFile = cliconfig.DefaultConfigPath()
	}

	// Build set of changed flags
	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	if cfgFile != "" && cliconfig.FileExists(cfgFile) {
		fc, err := cliconfig.LoadFileConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := cliconfig.ApplyFileConfig(cfg, fc, changed); err != nil {
			return err
		}
	} else if cfgPath != "" {
		return fmt.Errorf("config file %s not found", cfgPath)
	}

	// Environment overrides the file; flags override both.
	return cliconfig.ApplyEnvConfig(cfg, changed)
}

func run(cfg cliconfig.Config, log zerolog.Logger) error {
	libCfg := skyship.Config{
		RelayURL:        cfg.RelayURL,
		Collection:      cfg.Collection,
		SubscribersFile: cfg.SubscribersFile,
		Database:        cfg.Database,
		ResolverURL:     cfg.ResolverURL,
		NotifyTimeout:   cfg.NotifyTimeout,
		ReloadInterval:  cfg.ReloadInterval,
		ReloadTimeout:   cfg.ReloadTimeout,
		IdleTimeout:     cfg.IdleTimeout,
		HTTPTimeout:     cfg.HTTPTimeout,
		MaxFrameBytes:   cfg.MaxFrameBytes,
		SkipVerify:      !cfg.VerifyBlocks,
		AdminAddr:       cfg.AdminAddr,
		UserAgent:       "skyship/" + getVersion(),
	}
	if cfg.Sink == cliconfig.SinkSMS {
		libCfg.Twilio = skyship.TwilioConfig{
			BaseURL:    cfg.TwilioBaseURL,
			AccountSID: cfg.TwilioAccountSID,
			AuthToken:  cfg.TwilioAuthToken,
			From:       cfg.TwilioFrom,
			Rate:       cfg.NotifyRate,
		}
	}

	svc, err := skyship.New(libCfg, skyship.WithLogger(logAdapter.NewZerologAdapterWithLogger(log)))
	if err != nil {
		return fmt.Errorf("create skyship: %w", err)
	}
	defer svc.Close()

	// Setup signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start skyship: %w", err)
	}

	// SIGHUP reloads subscribers.
	hupCh := make(chan os.Signal, 1)
	signal.Notify(hupCh, syscall.SIGHUP)
	defer signal.Stop(hupCh)

	crashed := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if svc.Status() == skyship.StateCrashed {
					close(crashed)
					return
				}
			}
		}
	}()

wait:
	for {
		select {
		case <-hupCh:
			log.Info().Msg("received SIGHUP, reloading subscribers")
			if err := svc.Reload(); err != nil {
				log.Warn().Err(err).Msg("reload")
			}
		case <-sigCh:
			log.Info().Msg("received signal, stopping...")
			break wait
		case <-crashed:
			return errors.New("skyship crashed")
		}
	}

	if err := svc.Stop(); err != nil {
		return fmt.Errorf("stop skyship: %w", err)
	}
	return nil
}
