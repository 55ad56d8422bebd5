// Package sqlite persists partitions in a SQLite database via the pure-Go
// glebarez/go-sqlite driver, so offline caches survive process restarts.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/glebarez/go-sqlite"

	"github.com/unkn0wn-root/swcache/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS partitions (name TEXT PRIMARY KEY);
CREATE TABLE IF NOT EXISTS entries (
	partition TEXT NOT NULL REFERENCES partitions(name) ON DELETE CASCADE,
	key       TEXT NOT NULL,
	bytes     BLOB NOT NULL,
	PRIMARY KEY (partition, key)
);
`

type Store struct {
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

// Open opens (or creates) the database at filename.
// Use "file::memory:?cache=shared" for a shared in-memory database.
func Open(filename string) (*Store, error) {
	db, err := sql.Open("sqlite", filename)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", filename, err)
	}
	// single writer; avoids SQLITE_BUSY between background cache writes
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Open(ctx context.Context, name string) (store.Partition, error) {
	if _, err := s.db.ExecContext(ctx, "INSERT OR IGNORE INTO partitions (name) VALUES (?)", name); err != nil {
		return nil, err
	}
	return &Partition{db: s.db, name: name}, nil
}

func (s *Store) Names(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM partitions")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

func (s *Store) Delete(ctx context.Context, name string) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM partitions WHERE name = ?", name)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) Close(context.Context) error {
	return s.db.Close()
}

type Partition struct {
	db   *sql.DB
	name string
}

var _ store.Partition = (*Partition)(nil)

func (p *Partition) Name() string { return p.name }

func (p *Partition) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var b []byte
	err := p.db.QueryRowContext(ctx,
		"SELECT bytes FROM entries WHERE partition = ? AND key = ?", p.name, key).Scan(&b)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// Put fails with store.ErrClosed once the partition was deleted; the foreign
// key keeps a stale handle from writing orphan rows.
func (p *Partition) Put(ctx context.Context, key string, value []byte) error {
	res, err := p.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO entries (partition, key, bytes)
		 SELECT ?, ?, ? WHERE EXISTS (SELECT 1 FROM partitions WHERE name = ?)`,
		p.name, key, value, p.name)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrClosed
	}
	return nil
}

func (p *Partition) Delete(ctx context.Context, key string) error {
	_, err := p.db.ExecContext(ctx, "DELETE FROM entries WHERE partition = ? AND key = ?", p.name, key)
	return err
}
