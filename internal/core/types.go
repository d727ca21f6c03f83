package core

import "pantrycore/pkg/domain"

type (
	EntityType      = domain.EntityType
	Base            = domain.Base
	Recipe          = domain.Recipe
	Change          = domain.Change
	Action          = domain.Action
	NotFoundError   = domain.NotFoundError
	Transaction     = domain.Transaction
	TransactionView = domain.TransactionView
	PersistentStore = domain.PersistentStore
)

const (
	EntityRecipe = domain.EntityRecipe
)

const (
	ActionCreate = domain.ActionCreate
	ActionUpdate = domain.ActionUpdate
	ActionDelete = domain.ActionDelete
)
