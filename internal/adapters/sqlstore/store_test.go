package sqlstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/bft-labs/skyship/internal/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "skyship.db"), nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_EmptyTable(t *testing.T) {
	s := openTestStore(t)

	subs, err := s.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}
	if len(subs) != 0 {
		t.Errorf("got %d subscribers, want 0", len(subs))
	}
}

func TestStore_AddAndFetch(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	want := []domain.Subscriber{
		{AuthorID: "did:example:abc", Handle: "abc.example.com", Destination: "+15555550123"},
		{AuthorID: "did:example:abc", Destination: "+15555550124"},
		{AuthorID: "did:example:xyz", Handle: "xyz.example.com", Destination: "+15555550125"},
	}
	for _, sub := range want {
		if err := s.Add(ctx, sub); err != nil {
			t.Fatalf("Add(%+v) failed: %v", sub, err)
		}
	}

	got, err := s.FetchAll(ctx)
	if err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d subscribers, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("subscriber %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skyship.db")
	s, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := s.Add(context.Background(), domain.Subscriber{AuthorID: "did:example:abc", Destination: "+15555550123"}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	s, err = Open(path, nil)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()
	subs, err := s.FetchAll(context.Background())
	if err != nil || len(subs) != 1 {
		t.Fatalf("FetchAll after reopen = %v, %v", subs, err)
	}
}

func TestStore_AddRejectsIncomplete(t *testing.T) {
	s := openTestStore(t)
	err := s.Add(context.Background(), domain.Subscriber{Destination: "+15555550123"})
	if !errors.Is(err, domain.ErrInvalidConfig) {
		t.Fatalf("Add = %v, want ErrInvalidConfig", err)
	}
}

func TestOpen_RequiresPath(t *testing.T) {
	if _, err := Open("", nil); err == nil {
		t.Fatal("Open with empty path succeeded")
	}
}
