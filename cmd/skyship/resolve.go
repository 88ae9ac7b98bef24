package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	httpAdapter "github.com/bft-labs/skyship/internal/adapters/http"
	"github.com/bft-labs/skyship/internal/cliconfig"
)

func newResolveCmd(cfg *cliconfig.Config, cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <handle>...",
		Short: "Print the DID each handle resolves to",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(cmd, cfg, *cfgPath); err != nil {
				return err
			}
			resolver := httpAdapter.NewXRPCResolver(cfg.ResolverURL, &http.Client{Timeout: cfg.HTTPTimeout})

			for _, handle := range args {
				did, err := resolver.Resolve(cmd.Context(), handle)
				if err != nil {
					return fmt.Errorf("resolve %s: %w", handle, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", handle, did)
			}
			return nil
		},
	}
}
