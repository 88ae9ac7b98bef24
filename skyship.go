// Package skyship sends subscribers a notification whenever an author they
// follow publishes a post on the AT Protocol network.
//
// Example usage:
//
//	cfg := skyship.DefaultConfig()
//	cfg.SubscribersFile = "/path/to/subscribers.toml"
//	if err := skyship.Run(ctx, cfg); err != nil {
//	    log.Fatal(err)
//	}
//
// Run is a blocking convenience wrapper. Use pkg/skyship to embed the service
// with custom adapters and lifecycle control.
package skyship

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/bft-labs/skyship/internal/cliconfig"
	logAdapter "github.com/bft-labs/skyship/pkg/log"
	service "github.com/bft-labs/skyship/pkg/skyship"
)

// Config holds the configuration for the service.
// Use DefaultConfig() to get a Config with sensible defaults.
type Config = service.Config

// DefaultConfig returns a Config with sensible default values.
// At minimum, set SubscribersFile or Database before calling Run.
func DefaultConfig() Config {
	var cfg Config
	cfg.SetDefaults()
	return cfg
}

// Run starts the service and blocks until ctx is canceled, then stops it.
// Options are passed to pkg/skyship.New; a zerolog console logger is used unless
// one is given.
func Run(ctx context.Context, cfg Config, opts ...service.Option) error {
	opts = append([]service.Option{service.WithLogger(logAdapter.NewZerologAdapterWithLogger(Logger()))}, opts...)

	svc, err := service.New(cfg, opts...)
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	<-ctx.Done()

	if err := svc.Stop(); err != nil {
		return fmt.Errorf("stop: %w", err)
	}
	if err := ctx.Err(); !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Logger returns the package-level zerolog logger used by Run.
func Logger() zerolog.Logger {
	return cliconfig.Logger()
}

// DefaultRelayURL is the default relay event stream endpoint.
const DefaultRelayURL = cliconfig.DefaultRelayURL
