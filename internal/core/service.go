package core

import (
	"context"
	"time"
)

// Service wraps a PersistentStore with the recipe operations exposed to
// callers. All mutations run inside a store transaction; reads go through
// the store's snapshot accessors.
type Service struct {
	store   PersistentStore
	logger  Logger
	metrics MetricsRecorder
	tracer  Tracer
}

// ServiceOption customizes a Service at construction time.
type ServiceOption func(*Service)

// WithLogger installs a logger for operation events.
func WithLogger(l Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetricsRecorder installs a metrics recorder for operation outcomes.
func WithMetricsRecorder(m MetricsRecorder) ServiceOption {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithTracer installs a tracer that spans each operation.
func WithTracer(t Tracer) ServiceOption {
	return func(s *Service) {
		s.tracer = t
	}
}

// NewService builds a Service over the supplied store.
func NewService(store PersistentStore, opts ...ServiceOption) *Service {
	svc := &Service{store: store, logger: noopLogger{}}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Store exposes the underlying persistent store.
func (s *Service) Store() PersistentStore { return s.store }

func (s *Service) instrument(ctx context.Context, operation string, fn func(context.Context) error) error {
	start := time.Now()
	spanCtx := ctx
	var span TraceSpan
	if s.tracer != nil {
		spanCtx, span = s.tracer.Start(ctx, operation)
	}
	err := fn(spanCtx)
	if span != nil {
		span.End(err)
	}
	if s.metrics != nil {
		s.metrics.Observe(ctx, operation, err == nil, time.Since(start))
	}
	if err != nil {
		s.logger.Error("operation failed", "operation", operation, "error", err)
	} else {
		s.logger.Debug("operation completed", "operation", operation, "duration", time.Since(start))
	}
	return err
}

// CreateRecipe stores a new recipe and returns it with its assigned
// identity and timestamps.
func (s *Service) CreateRecipe(ctx context.Context, recipe Recipe) (Recipe, error) {
	var created Recipe
	err := s.instrument(ctx, "create_recipe", func(ctx context.Context) error {
		return s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var err error
			created, err = tx.CreateRecipe(recipe)
			return err
		})
	})
	if err != nil {
		return Recipe{}, err
	}
	s.logger.Info("recipe created", "id", created.ID, "label", created.Label)
	return created, nil
}

// GetRecipe returns the recipe with the given id. The boolean reports
// whether it exists.
func (s *Service) GetRecipe(ctx context.Context, id int64) (Recipe, bool, error) {
	var (
		recipe Recipe
		found  bool
	)
	err := s.instrument(ctx, "get_recipe", func(context.Context) error {
		recipe, found = s.store.GetRecipe(id)
		return nil
	})
	if err != nil {
		return Recipe{}, false, err
	}
	return recipe, found, nil
}

// ListRecipes returns all recipes ordered by ascending id.
func (s *Service) ListRecipes(ctx context.Context) ([]Recipe, error) {
	var recipes []Recipe
	err := s.instrument(ctx, "list_recipes", func(context.Context) error {
		recipes = s.store.ListRecipes()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return recipes, nil
}

// UpdateRecipe applies mutate to the stored recipe with the given id and
// returns the updated record.
func (s *Service) UpdateRecipe(ctx context.Context, id int64, mutate func(*Recipe) error) (Recipe, error) {
	var updated Recipe
	err := s.instrument(ctx, "update_recipe", func(ctx context.Context) error {
		return s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var err error
			updated, err = tx.UpdateRecipe(id, mutate)
			return err
		})
	})
	if err != nil {
		return Recipe{}, err
	}
	s.logger.Info("recipe updated", "id", updated.ID)
	return updated, nil
}

// DeleteRecipe removes the recipe with the given id.
func (s *Service) DeleteRecipe(ctx context.Context, id int64) error {
	err := s.instrument(ctx, "delete_recipe", func(ctx context.Context) error {
		return s.store.RunInTransaction(ctx, func(tx Transaction) error {
			return tx.DeleteRecipe(id)
		})
	})
	if err != nil {
		return err
	}
	s.logger.Info("recipe deleted", "id", id)
	return nil
}
