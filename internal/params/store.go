package params

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"drivermon/internal/config"
	"drivermon/internal/fault"
	"drivermon/internal/logging"
)

// Store manages parameter persistence backed by SQLite.
type Store struct {
	db      *sql.DB
	path    string
	logger  *slog.Logger
	pending sync.WaitGroup
}

// Entry is one stored parameter.
type Entry struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

// Option customizes a Store at open time.
type Option func(*Store)

// WithLogger attaches a logger used for background write failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logging.NewComponentLogger(logger, "params")
	}
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
	nonBlockingWriteTimeout = 10 * time.Second
)

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

// Open initializes or connects to the parameter database under the
// configured data directory.
func Open(cfg *config.Config, opts ...Option) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.ParamsDBPath(), opts...)
}

// OpenPath opens the parameter database at an explicit path.
func OpenPath(dbPath string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fault.Wrap(fault.ErrStore, "params", "open", dbPath, err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(store)
	}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file backing the store.
func (s *Store) Path() string {
	return s.path
}

// Close waits for pending background writes and closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	s.pending.Wait()
	return s.db.Close()
}

// Get returns the value stored under key. The boolean reports presence.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	ctx = ensureContext(ctx)
	var value string
	err := retryOnBusy(ctx, func() error {
		return s.db.QueryRowContext(ctx, "SELECT value FROM params WHERE key = ?", key).Scan(&value)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fault.Wrap(fault.ErrStore, "params", "get", key, err)
	}
	return value, true, nil
}

// Put stores value under key and bumps the modification generation.
func (s *Store) Put(ctx context.Context, key, value string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fault.Wrap(fault.ErrValidation, "params", "put", "key is required", nil)
	}
	ctx = ensureContext(ctx)
	now := time.Now().UTC().Format(time.RFC3339Nano)
	err := s.mutate(ctx, func(tx *sql.Tx) (bool, error) {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO params (key, value, updated_at) VALUES (?, ?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			key, value, now)
		return err == nil, err
	})
	if err != nil {
		return fault.Wrap(fault.ErrStore, "params", "put", key, err)
	}
	return nil
}

// PutNonBlocking writes on a background goroutine. Failures are logged and
// not retried.
func (s *Store) PutNonBlocking(key, value string) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), nonBlockingWriteTimeout)
		defer cancel()
		if err := s.Put(ctx, key, value); err != nil {
			logging.WarnWithContext(s.logger, "background parameter write failed", "params_write_failed",
				logging.String("key", key),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check free space and permissions on "+s.path),
				logging.String(logging.FieldImpact, "value is kept in memory for this run only"),
			)
			return
		}
		s.logger.Debug("background parameter write complete", logging.String("key", key))
	}()
}

// Delete removes key. It reports whether a row existed.
func (s *Store) Delete(ctx context.Context, key string) (bool, error) {
	ctx = ensureContext(ctx)
	var removed bool
	err := s.mutate(ctx, func(tx *sql.Tx) (bool, error) {
		res, err := tx.ExecContext(ctx, "DELETE FROM params WHERE key = ?", key)
		if err != nil {
			return false, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return false, err
		}
		removed = n > 0
		return removed, nil
	})
	if err != nil {
		return false, fault.Wrap(fault.ErrStore, "params", "delete", key, err)
	}
	return removed, nil
}

// List returns every stored parameter ordered by key.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	ctx = ensureContext(ctx)
	var entries []Entry
	err := retryOnBusy(ctx, func() error {
		entries = entries[:0]
		rows, err := s.db.QueryContext(ctx, "SELECT key, value, updated_at FROM params ORDER BY key")
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var (
				entry   Entry
				updated string
			)
			if err := rows.Scan(&entry.Key, &entry.Value, &updated); err != nil {
				return err
			}
			if ts, err := time.Parse(time.RFC3339Nano, updated); err == nil {
				entry.UpdatedAt = ts
			}
			entries = append(entries, entry)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fault.Wrap(fault.ErrStore, "params", "list", "", err)
	}
	return entries, nil
}

// LastModified returns the store's modification generation. It changes on
// every successful write or delete and never otherwise.
func (s *Store) LastModified(ctx context.Context) (int64, error) {
	ctx = ensureContext(ctx)
	var generation int64
	err := retryOnBusy(ctx, func() error {
		return s.db.QueryRowContext(ctx, "SELECT value FROM generation WHERE id = 1").Scan(&generation)
	})
	if err != nil {
		return 0, fault.Wrap(fault.ErrStore, "params", "last modified", "", err)
	}
	return generation, nil
}

// mutate runs op in a transaction and bumps the generation when op reports a
// change.
func (s *Store) mutate(ctx context.Context, op func(*sql.Tx) (bool, error)) error {
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		changed, err := op(tx)
		if err != nil {
			return err
		}
		if changed {
			if _, err := tx.ExecContext(ctx, "UPDATE generation SET value = value + 1 WHERE id = 1"); err != nil {
				return err
			}
		}
		return tx.Commit()
	})
}
