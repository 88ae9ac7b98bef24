// Package skyship provides an embeddable post notification service.
//
// Skyship follows the public repository event stream of an AT Protocol relay,
// picks out newly created posts by followed authors, and delivers each post
// to that author's subscribers by SMS or to the console.
//
// # Basic Usage
//
//	cfg := skyship.Config{
//	    SubscribersFile: "/etc/skyship/subscribers.toml",
//	}
//
//	svc, err := skyship.New(cfg, skyship.WithLogger(logger))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := svc.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	// ... run until shutdown signal ...
//
//	if err := svc.Stop(); err != nil {
//	    log.Printf("shutdown error: %v", err)
//	}
//	_ = svc.Close()
//
// # Subscribers
//
// Subscriptions come from a TOML file (Config.SubscribersFile), a SQLite
// database (Config.Database) or any [SubscriberStore] passed with
// [WithSubscriberStore]. They are loaded on Start, on every
// Config.ReloadInterval, on [Skyship.Reload], and whenever the subscribers
// file changes. A failed load keeps the previous subscriptions.
//
// # Notifications
//
// When Config.Twilio carries an account, posts are sent as SMS. Otherwise
// they are printed to stdout. [WithNotifier] replaces either.
//
// # Dependency Injection
//
// For testing, you can inject custom implementations of external dependencies:
//
//	svc, err := skyship.New(cfg,
//	    skyship.WithDialer(fakeRelay),
//	    skyship.WithSubscriberStore(store),
//	    skyship.WithNotifier(recorder),
//	)
//
// # Lifecycle States
//
// A Skyship instance can be in one of five states: [StateStopped], [StateStarting],
// [StateRunning], [StateStopping], or [StateCrashed]. Use [Skyship.Status] to
// query the current state.
package skyship
