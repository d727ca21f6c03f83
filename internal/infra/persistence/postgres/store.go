// Package postgres provides a Postgres-backed persistent store that mirrors
// the in-memory semantics while writing committed state through to a recipes
// table created on startup.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"pantrycore/internal/infra/persistence/memory"
	"pantrycore/pkg/domain"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.PersistentStore = (*Store)(nil)

const (
	defaultDriver = "pgx"
	// Default DSN keeps parity with OpenPersistentStore defaults while allowing overrides via config.
	defaultDSN = "postgres://localhost/pantrycore?sslmode=disable"
)

const recipesDDL = `CREATE TABLE IF NOT EXISTS recipes (
	id BIGINT PRIMARY KEY,
	label TEXT NOT NULL,
	ingredients TEXT NOT NULL,
	instructions TEXT NOT NULL,
	calories INTEGER NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Store persists state to Postgres while reusing the in-memory implementation
// for transactions.
type Store struct {
	*memory.Store
	db *sql.DB
	mu sync.Mutex
}

// NewStore opens a Postgres-backed store using the provided DSN (falls back
// to defaultDSN), applies the recipes DDL, and hydrates the in-memory store
// from existing rows.
func NewStore(dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, recipesDDL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure recipes table: %w", err)
	}
	snapshot, err := loadSnapshot(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	mem := memory.NewStore()
	mem.ImportState(snapshot)
	return &Store{Store: mem, db: db}, nil
}

// RunInTransaction applies fn atomically, then writes the committed state
// through to Postgres if successful.
func (s *Store) RunInTransaction(ctx context.Context, fn func(domain.Transaction) error) error {
	if err := s.Store.RunInTransaction(ctx, fn); err != nil {
		return err
	}
	return s.persist(ctx)
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

func loadSnapshot(ctx context.Context, db *sql.DB) (memory.Snapshot, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, label, ingredients, instructions, calories, created_at, updated_at FROM recipes`)
	if err != nil {
		return memory.Snapshot{}, fmt.Errorf("select recipes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	snapshot := memory.Snapshot{Recipes: map[int64]memory.Recipe{}}
	for rows.Next() {
		var r memory.Recipe
		if err := rows.Scan(&r.ID, &r.Label, &r.Ingredients, &r.Instructions, &r.Calories, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return memory.Snapshot{}, fmt.Errorf("scan recipe: %w", err)
		}
		snapshot.Recipes[r.ID] = r
	}
	if err := rows.Err(); err != nil {
		return memory.Snapshot{}, fmt.Errorf("iterate recipes: %w", err)
	}
	return snapshot, nil
}

func (s *Store) persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.ExportState()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx, `TRUNCATE TABLE recipes`); err != nil {
		return fmt.Errorf("clear recipes: %w", err)
	}
	for _, r := range snapshot.Recipes {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO recipes(id, label, ingredients, instructions, calories, created_at, updated_at) VALUES($1,$2,$3,$4,$5,$6,$7)`,
			r.ID, r.Label, r.Ingredients, r.Instructions, r.Calories, r.CreatedAt.UTC(), r.UpdatedAt.UTC(),
		); err != nil {
			return fmt.Errorf("insert recipe %d: %w", r.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
