// Package memory provides an in-memory implementation of the core persistence
// store used for tests and ephemeral environments.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"pantrycore/pkg/domain"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interface.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Recipe aliases domain.Recipe for in-memory persistence operations.
	Recipe = domain.Recipe
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
)

type memoryState struct {
	recipes map[int64]Recipe
	nextID  int64
}

// Snapshot captures a point-in-time clone of the store state for durable wrappers.
type Snapshot struct {
	Recipes map[int64]Recipe `json:"recipes"`
	NextID  int64            `json:"next_id"`
}

func newMemoryState() memoryState {
	return memoryState{recipes: make(map[int64]Recipe), nextID: 1}
}

func (s memoryState) clone() memoryState {
	cloned := memoryState{recipes: make(map[int64]Recipe, len(s.recipes)), nextID: s.nextID}
	for id, r := range s.recipes {
		cloned.recipes[id] = r
	}
	return cloned
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	snap := Snapshot{Recipes: make(map[int64]Recipe, len(state.recipes)), NextID: state.nextID}
	for id, r := range state.recipes {
		snap.Recipes[id] = r
	}
	return snap
}

// migrateSnapshot normalizes snapshots written by older deployments: nil maps
// become empty and the ID sequence is moved past the highest stored ID.
func migrateSnapshot(snapshot Snapshot) Snapshot {
	if snapshot.Recipes == nil {
		snapshot.Recipes = map[int64]Recipe{}
	}
	for id := range snapshot.Recipes {
		if id >= snapshot.NextID {
			snapshot.NextID = id + 1
		}
	}
	if snapshot.NextID < 1 {
		snapshot.NextID = 1
	}
	return snapshot
}

func memoryStateFromSnapshot(s Snapshot) memoryState {
	state := newMemoryState()
	for id, r := range s.Recipes {
		state.recipes[id] = r
	}
	state.nextID = s.NextID
	return state
}

// Store provides an in-memory transactional store for the core domain.
type Store struct {
	mu      sync.RWMutex
	state   memoryState
	journal []Change
	nowFn   func() time.Time
}

// NewStore constructs an empty in-memory store.
func NewStore() *Store {
	return &Store{
		state: newMemoryState(),
		nowFn: func() time.Time { return time.Now().UTC() },
	}
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = memoryStateFromSnapshot(migrateSnapshot(snapshot))
}

// NowFunc returns the time provider used by the in-memory store.
func (s *Store) NowFunc() func() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nowFn
}

// SetNowFunc overrides the time provider. Intended for tests.
func (s *Store) SetNowFunc(fn func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fn != nil {
		s.nowFn = fn
	}
}

// transaction represents a mutation set applied to the store state.
type transaction struct {
	state   memoryState
	changes []Change
	now     time.Time
}

// transactionView exposes a read-only snapshot of the transactional state.
type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) TransactionView {
	return transactionView{state: state}
}

// ListRecipes returns all recipes within the snapshot ordered by ID.
func (v transactionView) ListRecipes() []Recipe {
	return listRecipes(v.state)
}

// FindRecipe retrieves a recipe by ID from the snapshot.
func (v transactionView) FindRecipe(id int64) (Recipe, bool) {
	r, ok := v.state.recipes[id]
	return r, ok
}

func listRecipes(state *memoryState) []Recipe {
	out := make([]Recipe, 0, len(state.recipes))
	for _, r := range state.recipes {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// RunInTransaction executes fn within a transactional copy of the store state.
// The copy is committed only when fn returns nil.
func (s *Store) RunInTransaction(_ context.Context, fn func(Transaction) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return err
	}

	s.state = tx.state
	s.journal = append(s.journal, tx.changes...)
	return nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	view := newTransactionView(&snapshot)
	return fn(view)
}

// Changes returns the journal of committed mutations since the store was opened.
func (s *Store) Changes() []Change {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Change, len(s.journal))
	copy(out, s.journal)
	return out
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}

// FindRecipe exposes recipe lookup within the transaction scope.
func (tx *transaction) FindRecipe(id int64) (Recipe, bool) {
	r, ok := tx.state.recipes[id]
	return r, ok
}

// CreateRecipe stores a new recipe within the transaction. A zero ID is
// replaced by the next value of the store sequence.
func (tx *transaction) CreateRecipe(r Recipe) (Recipe, error) {
	if r.ID == 0 {
		r.ID = tx.state.nextID
		tx.state.nextID++
	} else {
		if _, exists := tx.state.recipes[r.ID]; exists {
			return Recipe{}, fmt.Errorf("recipe %d already exists", r.ID)
		}
		if r.ID >= tx.state.nextID {
			tx.state.nextID = r.ID + 1
		}
	}
	r.CreatedAt = tx.now
	r.UpdatedAt = tx.now
	tx.state.recipes[r.ID] = r
	tx.recordChange(Change{Entity: domain.EntityRecipe, Action: domain.ActionCreate, After: r})
	return r, nil
}

// UpdateRecipe mutates a recipe using the provided mutator function. The ID is
// pinned across the mutation; callers cannot re-key a record.
func (tx *transaction) UpdateRecipe(id int64, mutator func(*Recipe) error) (Recipe, error) {
	current, ok := tx.state.recipes[id]
	if !ok {
		return Recipe{}, domain.NotFoundError{Entity: domain.EntityRecipe, ID: id}
	}
	before := current
	if err := mutator(&current); err != nil {
		return Recipe{}, err
	}
	current.ID = id
	current.CreatedAt = before.CreatedAt
	current.UpdatedAt = tx.now
	tx.state.recipes[id] = current
	tx.recordChange(Change{Entity: domain.EntityRecipe, Action: domain.ActionUpdate, Before: before, After: current})
	return current, nil
}

// DeleteRecipe removes a recipe from the transaction state.
func (tx *transaction) DeleteRecipe(id int64) error {
	current, ok := tx.state.recipes[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityRecipe, ID: id}
	}
	delete(tx.state.recipes, id)
	tx.recordChange(Change{Entity: domain.EntityRecipe, Action: domain.ActionDelete, Before: current})
	return nil
}

// GetRecipe retrieves a recipe by ID from committed state.
func (s *Store) GetRecipe(id int64) (Recipe, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.state.recipes[id]
	return r, ok
}

// ListRecipes returns all recipes from committed state ordered by ID.
func (s *Store) ListRecipes() []Recipe {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listRecipes(&s.state)
}
