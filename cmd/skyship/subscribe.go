package main

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bft-labs/skyship/internal/adapters/fs"
	httpAdapter "github.com/bft-labs/skyship/internal/adapters/http"
	"github.com/bft-labs/skyship/internal/adapters/sqlstore"
	"github.com/bft-labs/skyship/internal/cliconfig"
	"github.com/bft-labs/skyship/internal/domain"
)

func newSubscribeCmd(cfg *cliconfig.Config, cfgPath *string) *cobra.Command {
	var destination string

	cmd := &cobra.Command{
		Use:   "subscribe --destination <number> <handle|did>...",
		Short: "Add subscriptions to the subscribers file or database",
		Long: "Add one subscription per author. Handles are resolved to DIDs now, " +
			"so later handle changes do not break the subscription.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(cmd, cfg, *cfgPath); err != nil {
				return err
			}
			if destination == "" {
				return fmt.Errorf("%w: --destination is required", domain.ErrInvalidConfig)
			}
			resolver := httpAdapter.NewXRPCResolver(cfg.ResolverURL, &http.Client{Timeout: cfg.HTTPTimeout})

			subs := make([]domain.Subscriber, 0, len(args))
			for _, author := range args {
				sub := domain.Subscriber{AuthorID: author, Destination: destination}
				if !isDID(author) {
					did, err := resolver.Resolve(cmd.Context(), author)
					if err != nil {
						return fmt.Errorf("resolve %s: %w", author, err)
					}
					sub.AuthorID, sub.Handle = did, author
				}
				subs = append(subs, sub)
			}

			out := cmd.OutOrStdout()
			if cfg.Database != "" {
				store, err := sqlstore.Open(cfg.Database, nil)
				if err != nil {
					return err
				}
				defer store.Close()
				for _, sub := range subs {
					if err := store.Add(cmd.Context(), sub); err != nil {
						return err
					}
					fmt.Fprintf(out, "subscribed %s to %s\n", sub.Destination, sub.AuthorID)
				}
				return nil
			}

			path := cfg.SubscribersFile
			if path == "" {
				path = cliconfig.DefaultSubscribersPath()
			}
			file := fs.NewSubscriberFile(path, nil)
			for _, sub := range subs {
				added, err := file.Add(fs.SubscriberEntry{DID: sub.AuthorID, Handle: sub.Handle, Destination: sub.Destination})
				if err != nil {
					return err
				}
				if !added {
					fmt.Fprintf(out, "%s already follows %s\n", sub.Destination, sub.AuthorID)
					continue
				}
				fmt.Fprintf(out, "subscribed %s to %s\n", sub.Destination, sub.AuthorID)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&destination, "destination", "", "phone number to notify (E.164)")
	return cmd
}

func isDID(s string) bool {
	return strings.HasPrefix(s, "did:")
}
