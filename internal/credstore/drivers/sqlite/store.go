// Package sqlite is the default persistent credential store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aussiebroadwan/sdaportal/internal/credstore"
	_ "modernc.org/sqlite"
)

type Store struct {
	db  *sql.DB
	dsn string
	now func() time.Time
}

var (
	_ credstore.Store   = (*Store)(nil)
	_ credstore.Sweeper = (*Store)(nil)
)

// DSN builds a modernc.org/sqlite connection string for a database file.
func DSN(file string) string {
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", file)
}

// NewStore opens the database. Call ApplyMigrations before first use.
func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// Each connection to :memory: is its own database.
	if strings.Contains(dsn, ":memory:") {
		db.SetMaxOpenConns(1)
	}

	return &Store{db: db, dsn: dsn, now: time.Now}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Get(ctx context.Context, ns, key string) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM credentials WHERE namespace = ? AND key = ?`, ns, key,
	).Scan(&v)
	if err != nil {
		return "", mapNotFound(err)
	}
	return v, nil
}

func (s *Store) Set(ctx context.Context, ns, key, value string) error {
	return s.SetMany(ctx, ns, map[string]string{key: value})
}

const upsertCredential = `
INSERT INTO credentials (namespace, key, value, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (namespace, key) DO UPDATE
SET value = excluded.value, updated_at = excluded.updated_at`

func (s *Store) SetMany(ctx context.Context, ns string, values map[string]string) error {
	now := s.now().UnixNano()
	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, upsertCredential)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for k, v := range values {
			if _, err := stmt.ExecContext(ctx, ns, k, v, now); err != nil {
				return fmt.Errorf("sqlite: set %s: %w", k, err)
			}
		}
		return nil
	})
}

func (s *Store) Remove(ctx context.Context, ns, key string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM credentials WHERE namespace = ? AND key = ?`, ns, key)
	return err
}

func (s *Store) Clear(ctx context.Context, ns string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM credentials WHERE namespace = ?`, ns)
	return err
}

// Sweep removes every namespace whose newest write is older than idle.
func (s *Store) Sweep(ctx context.Context, idle time.Duration) (int, error) {
	cutoff := s.now().Add(-idle).UnixNano()
	removed := 0

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `
			SELECT namespace FROM credentials
			GROUP BY namespace
			HAVING MAX(updated_at) < ?`, cutoff)
		if err != nil {
			return err
		}

		var stale []string
		for rows.Next() {
			var ns string
			if err := rows.Scan(&ns); err != nil {
				_ = rows.Close()
				return err
			}
			stale = append(stale, ns)
		}
		if err := rows.Close(); err != nil {
			return err
		}
		if err := rows.Err(); err != nil {
			return err
		}

		for _, ns := range stale {
			if _, err := tx.ExecContext(ctx, `DELETE FROM credentials WHERE namespace = ?`, ns); err != nil {
				return err
			}
		}
		removed = len(stale)
		return nil
	})
	return removed, err
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback() // no-op after commit
	}()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return credstore.ErrNotFound
	}
	return err
}
