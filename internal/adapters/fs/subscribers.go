package fs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/bft-labs/skyship/internal/domain"
	"github.com/bft-labs/skyship/internal/ports"
)

// SubscriberEntry is one [[subscriber]] table in the subscribers file.
// At least one of DID and Handle must be set.
type SubscriberEntry struct {
	DID         string `toml:"did,omitempty"`
	Handle      string `toml:"handle,omitempty"`
	Destination string `toml:"destination"`
}

type subscriberDoc struct {
	Subscriber []SubscriberEntry `toml:"subscriber"`
}

// SubscriberFile implements ports.SubscriberStore over a TOML file.
// Entries that only name a handle are resolved on every fetch.
type SubscriberFile struct {
	path     string
	resolver ports.HandleResolver
}

// NewSubscriberFile creates a store reading path. resolver may be nil if
// every entry carries a DID.
func NewSubscriberFile(path string, resolver ports.HandleResolver) *SubscriberFile {
	return &SubscriberFile{path: path, resolver: resolver}
}

// Path returns the file location.
func (f *SubscriberFile) Path() string {
	return f.path
}

// FetchAll reads every subscription. A missing file holds no subscriptions.
// A single unresolvable entry fails the whole fetch.
func (f *SubscriberFile) FetchAll(ctx context.Context) ([]domain.Subscriber, error) {
	entries, err := f.read()
	if err != nil {
		return nil, err
	}

	subs := make([]domain.Subscriber, 0, len(entries))
	for i, e := range entries {
		if e.Destination == "" {
			return nil, fmt.Errorf("%s: subscriber %d: missing destination", f.path, i)
		}
		did := e.DID
		if did == "" {
			if e.Handle == "" {
				return nil, fmt.Errorf("%s: subscriber %d: needs did or handle", f.path, i)
			}
			if f.resolver == nil {
				return nil, fmt.Errorf("%s: subscriber %d: no resolver for handle %s", f.path, i, e.Handle)
			}
			did, err = f.resolver.Resolve(ctx, e.Handle)
			if err != nil {
				return nil, fmt.Errorf("%s: subscriber %d: %w", f.path, i, err)
			}
		}
		subs = append(subs, domain.Subscriber{AuthorID: did, Handle: e.Handle, Destination: e.Destination})
	}
	return subs, nil
}

// Add appends entry unless an identical one exists. The file is rewritten
// atomically (write to temp file, then rename).
func (f *SubscriberFile) Add(entry SubscriberEntry) (bool, error) {
	if entry.Destination == "" || (entry.DID == "" && entry.Handle == "") {
		return false, fmt.Errorf("%w: subscriber needs a destination and a did or handle", domain.ErrInvalidConfig)
	}

	entries, err := f.read()
	if err != nil {
		return false, err
	}
	for _, e := range entries {
		if e == entry {
			return false, nil
		}
	}
	entries = append(entries, entry)

	data, err := toml.Marshal(subscriberDoc{Subscriber: entries})
	if err != nil {
		return false, fmt.Errorf("encode subscribers: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return false, err
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return false, err
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return false, err
	}
	return true, nil
}

func (f *SubscriberFile) read() ([]SubscriberEntry, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var doc subscriberDoc
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", f.path, err)
	}
	return doc.Subscriber, nil
}
