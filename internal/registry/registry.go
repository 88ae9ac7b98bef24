// Package registry holds the live author -> subscribers mapping.
//
// Readers always see one complete snapshot. Reload builds the replacement
// off to the side and installs it with a single atomic store, so a lookup
// racing a reload observes either the old mapping or the new one, never a mix.
package registry

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bft-labs/skyship/internal/domain"
	"github.com/bft-labs/skyship/internal/ports"
	"github.com/bft-labs/skyship/pkg/log"
)

// Snapshot is an immutable author -> subscribers mapping.
type Snapshot struct {
	// Generation increases by one on every successful reload. The empty
	// startup snapshot is generation 0.
	Generation uint64

	// LoadedAt is when the snapshot was installed.
	LoadedAt time.Time

	byAuthor    map[string][]domain.Subscriber
	subscribers int
}

// Lookup returns the subscribers following authorID in store order.
// The slice is shared; callers must not modify it.
func (s *Snapshot) Lookup(authorID string) []domain.Subscriber {
	return s.byAuthor[authorID]
}

// Authors returns the followed author IDs, sorted.
func (s *Snapshot) Authors() []string {
	authors := make([]string, 0, len(s.byAuthor))
	for a := range s.byAuthor {
		authors = append(authors, a)
	}
	sort.Strings(authors)
	return authors
}

// Len returns the total number of subscriptions.
func (s *Snapshot) Len() int {
	return s.subscribers
}

// Registry publishes subscriber snapshots to the dispatcher.
type Registry struct {
	current atomic.Pointer[Snapshot]

	// reloadMu serializes snapshot installs so generations stay monotonic.
	reloadMu sync.Mutex

	logger log.Logger
}

// New creates a registry holding an empty snapshot.
func New(logger log.Logger) *Registry {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	r := &Registry{logger: logger}
	r.current.Store(&Snapshot{
		LoadedAt: time.Now(),
		byAuthor: map[string][]domain.Subscriber{},
	})
	return r
}

// Lookup returns the subscribers of authorID in the current snapshot.
// It never blocks.
func (r *Registry) Lookup(authorID string) []domain.Subscriber {
	return r.current.Load().Lookup(authorID)
}

// Current returns the live snapshot.
func (r *Registry) Current() *Snapshot {
	return r.current.Load()
}

// Authors returns the followed author IDs of the live snapshot.
func (r *Registry) Authors() []string {
	return r.current.Load().Authors()
}

// Len returns the subscription count of the live snapshot.
func (r *Registry) Len() int {
	return r.current.Load().Len()
}

// Reload fetches every subscription from store and swaps it in.
// On failure the previous snapshot stays live and a *domain.ReloadError is
// returned. The fetch runs outside the install lock; concurrent reloads
// install in the order their fetches finish.
func (r *Registry) Reload(ctx context.Context, store ports.SubscriberStore) error {
	subs, err := store.FetchAll(ctx)
	if err != nil {
		return &domain.ReloadError{Err: err}
	}

	byAuthor := make(map[string][]domain.Subscriber)
	count := 0
	for _, s := range subs {
		if s.AuthorID == "" {
			r.logger.Warn("skipping subscriber without author id",
				log.String("handle", s.Handle),
				log.String("destination", s.Destination))
			continue
		}
		byAuthor[s.AuthorID] = append(byAuthor[s.AuthorID], s)
		count++
	}

	r.reloadMu.Lock()
	defer r.reloadMu.Unlock()

	prev := r.current.Load()
	r.current.Store(&Snapshot{
		Generation:  prev.Generation + 1,
		LoadedAt:    time.Now(),
		byAuthor:    byAuthor,
		subscribers: count,
	})
	return nil
}
