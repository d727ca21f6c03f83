// Package domain defines the persistent entities and the repository
// contracts implemented by pantrycore storage backends.
package domain

import (
	"fmt"
	"time"
)

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityRecipe identifies a recipe record.
	EntityRecipe EntityType = "recipe"
)

// Base contains common fields for all domain records. The ID is assigned by
// the persistence layer on insert and is immutable afterwards.
type Base struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Recipe is a stored recipe. Ingredients and Instructions hold free text;
// callers impose whatever line or list structure they need.
type Recipe struct {
	Base
	Label        string `json:"label"`
	Ingredients  string `json:"ingredients"`
	Instructions string `json:"instructions"`
	Calories     int    `json:"calories"`
}

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported CRUD operations captured in the journal.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// NotFoundError is returned when a mutation targets a record that does not exist.
// Reads signal absence through a comma-ok result instead.
type NotFoundError struct {
	Entity EntityType
	ID     int64
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}
