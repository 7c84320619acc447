package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"wydatki/internal/core"
	"wydatki/internal/store"
)

// EventPublisher forwards store changes to other systems.
type EventPublisher interface {
	PublishExpenseCreated(ctx context.Context, e core.Expense) error
	PublishExpenseDeleted(ctx context.Context, id int64) error
	Close() error
}

// ExpenseService orchestrates expense writes across the store and the event
// publisher
type ExpenseService struct {
	storage   store.Store
	publisher EventPublisher
}

// NewExpenseService creates the service. publisher may be nil.
func NewExpenseService(storage store.Store, publisher EventPublisher) *ExpenseService {
	return &ExpenseService{
		storage:   storage,
		publisher: publisher,
	}
}

// CreateExpense saves the draft and publishes a created event. The
// timestamp is truncated to whole seconds, the granularity of cycle bounds.
func (s *ExpenseService) CreateExpense(ctx context.Context, d core.Draft) (core.Expense, error) {
	d.CreatedAt = d.CreatedAt.Truncate(time.Second)
	id, err := s.storage.Create(ctx, d)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}
	e := d.WithID(id)

	// The expense is durable at this point; publishing is best effort.
	if s.publisher != nil {
		if err := s.publisher.PublishExpenseCreated(ctx, e); err != nil {
			slog.ErrorContext(ctx, "Failed to publish created event", "id", id, "error", err)
		}
	}

	return e, nil
}

// DeleteExpense removes the expense. Deleting an unknown id succeeds with
// deleted=false.
func (s *ExpenseService) DeleteExpense(ctx context.Context, id int64) (bool, error) {
	deleted, err := s.storage.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete expense: %w", err)
	}
	if !deleted {
		slog.InfoContext(ctx, "Expense already deleted", "id", id)
		return false, nil
	}

	if s.publisher != nil {
		if err := s.publisher.PublishExpenseDeleted(ctx, id); err != nil {
			slog.ErrorContext(ctx, "Failed to publish deleted event", "id", id, "error", err)
		}
	}

	return true, nil
}

// Close closes both storage and publisher connections
func (s *ExpenseService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close expense service: %v", errs)
	}

	return nil
}
