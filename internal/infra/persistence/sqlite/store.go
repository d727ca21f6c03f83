// Package sqlite provides a SQLite-backed persistent store that mirrors the
// in-memory semantics while writing committed state through to a recipes table.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"pantrycore/internal/infra/persistence/memory"
	"pantrycore/pkg/domain"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.PersistentStore = (*Store)(nil)

const recipesDDL = `CREATE TABLE IF NOT EXISTS recipes (
	id INTEGER PRIMARY KEY,
	label TEXT NOT NULL,
	ingredients TEXT NOT NULL,
	instructions TEXT NOT NULL,
	calories INTEGER NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`

// Store persists committed state to a SQLite file. Transactions run against
// the embedded in-memory store; the full recipe set is written through after
// every successful commit.
type Store struct {
	*memory.Store
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// NewStore opens (creating if needed) a SQLite-backed store at path and
// hydrates the in-memory state from any existing rows.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = "pantrycore.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(recipesDDL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create recipes table: %w", err)
	}
	s := &Store{Store: memory.NewStore(), db: db, path: path}
	if err := s.load(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	rows, err := s.db.Query(`SELECT id, label, ingredients, instructions, calories, created_at, updated_at FROM recipes`)
	if err != nil {
		return fmt.Errorf("select recipes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	snapshot := memory.Snapshot{Recipes: map[int64]memory.Recipe{}}
	for rows.Next() {
		var (
			r                  memory.Recipe
			createdAt, updated string
		)
		if err := rows.Scan(&r.ID, &r.Label, &r.Ingredients, &r.Instructions, &r.Calories, &createdAt, &updated); err != nil {
			return fmt.Errorf("scan recipe: %w", err)
		}
		if r.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return fmt.Errorf("decode created_at for recipe %d: %w", r.ID, err)
		}
		if r.UpdatedAt, err = time.Parse(time.RFC3339Nano, updated); err != nil {
			return fmt.Errorf("decode updated_at for recipe %d: %w", r.ID, err)
		}
		snapshot.Recipes[r.ID] = r
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate recipes: %w", err)
	}
	s.ImportState(snapshot)
	return nil
}

func (s *Store) persist() (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.ExportState()
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.Exec(`DELETE FROM recipes`); err != nil {
		retErr = fmt.Errorf("clear recipes: %w", err)
		return retErr
	}
	for _, r := range snapshot.Recipes {
		if _, err := tx.Exec(
			`INSERT INTO recipes(id, label, ingredients, instructions, calories, created_at, updated_at) VALUES(?,?,?,?,?,?,?)`,
			r.ID, r.Label, r.Ingredients, r.Instructions, r.Calories,
			r.CreatedAt.Format(time.RFC3339Nano), r.UpdatedAt.Format(time.RFC3339Nano),
		); err != nil {
			retErr = fmt.Errorf("insert recipe %d: %w", r.ID, err)
			return retErr
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	return nil
}

// RunInTransaction applies fn atomically, then writes the committed state
// through to SQLite if successful.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx domain.Transaction) error) error {
	if err := s.Store.RunInTransaction(ctx, fn); err != nil {
		return err
	}
	return s.persist()
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }
