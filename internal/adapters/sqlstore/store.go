// Package sqlstore reads subscriptions from a SQLite database.
package sqlstore

import (
	"context"
	"errors"
	"fmt"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/bft-labs/skyship/internal/domain"
	"github.com/bft-labs/skyship/pkg/log"
)

const schema = `CREATE TABLE IF NOT EXISTS SmsHandleSubscriptions (
	did          TEXT NOT NULL,
	handle       TEXT NOT NULL DEFAULT '',
	phone_number TEXT NOT NULL
);`

// Store implements ports.SubscriberStore over the SmsHandleSubscriptions table.
type Store struct {
	pool   *sqlitex.Pool
	path   string
	logger log.Logger
}

// Open opens (creating if needed) the database at path and ensures the
// subscriptions table exists.
func Open(path string, logger log.Logger) (*Store, error) {
	if path == "" {
		return nil, errors.New("sqlstore: path is required")
	}
	if logger == nil {
		logger = log.NewNoopLogger()
	}

	pool, err := sqlitex.NewPool(path, sqlitex.PoolOptions{
		PoolSize:    2,
		PrepareConn: prepareConnection,
	})
	if err != nil {
		return nil, fmt.Errorf("sqlstore: opening %s: %w", path, err)
	}

	s := &Store{pool: pool, path: path, logger: logger}

	// Take once so schema problems surface at startup, not on first reload.
	conn, err := pool.Take(context.Background())
	if err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("sqlstore: opening %s: %w", path, err)
	}
	pool.Put(conn)

	logger.Info("subscriber database opened", log.String("path", path))
	return s, nil
}

// FetchAll returns every subscription in insertion order.
func (s *Store) FetchAll(ctx context.Context) ([]domain.Subscriber, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: take: %w", err)
	}
	defer s.pool.Put(conn)

	var subs []domain.Subscriber
	err = sqlitex.Execute(conn,
		"SELECT did, handle, phone_number FROM SmsHandleSubscriptions ORDER BY rowid",
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				subs = append(subs, domain.Subscriber{
					AuthorID:    stmt.ColumnText(0),
					Handle:      stmt.ColumnText(1),
					Destination: stmt.ColumnText(2),
				})
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("sqlstore: query subscriptions: %w", err)
	}
	return subs, nil
}

// Add inserts a subscription.
func (s *Store) Add(ctx context.Context, sub domain.Subscriber) error {
	if sub.AuthorID == "" || sub.Destination == "" {
		return fmt.Errorf("%w: subscriber needs an author id and a destination", domain.ErrInvalidConfig)
	}

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("sqlstore: take: %w", err)
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn,
		"INSERT INTO SmsHandleSubscriptions (did, handle, phone_number) VALUES (?, ?, ?)",
		&sqlitex.ExecOptions{Args: []any{sub.AuthorID, sub.Handle, sub.Destination}})
	if err != nil {
		return fmt.Errorf("sqlstore: insert subscription: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	if err := s.pool.Close(); err != nil {
		return fmt.Errorf("sqlstore: closing %s: %w", s.path, err)
	}
	return nil
}

func prepareConnection(conn *sqlite.Conn) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if err := sqlitex.ExecuteTransient(conn, pragma, nil); err != nil {
			return fmt.Errorf("sqlstore: %s: %w", pragma, err)
		}
	}
	if err := sqlitex.ExecuteScript(conn, schema, nil); err != nil {
		return fmt.Errorf("sqlstore: schema: %w", err)
	}
	return nil
}
