package store

import (
	"context"
	"time"

	"wydatki/internal/core"
)

// Ports for outbound adapters.
type (
	ExpenseWriter interface {
		// Create stores the draft and returns the new identifier. Identifiers
		// strictly increase.
		Create(ctx context.Context, d core.Draft) (id int64, err error)
	}

	// ExpenseDeleter removes records. Deleting a missing id is not an error;
	// deleted reports whether a row was actually removed.
	ExpenseDeleter interface {
		Delete(ctx context.Context, id int64) (deleted bool, err error)
	}

	// ReportReader provides aggregated data for a time range, bounds included.
	ReportReader interface {
		QueryDetailed(ctx context.Context, start, end time.Time) ([]core.UserCategoryTotal, error)
		QueryTotals(ctx context.Context, start, end time.Time) ([]core.CategoryTotal, error)
	}

	// HistoryReader returns the most recent expenses, newest first.
	HistoryReader interface {
		QueryRecent(ctx context.Context, limit int) ([]core.Expense, error)
	}

	Store interface {
		ExpenseWriter
		ExpenseDeleter
		ReportReader
		HistoryReader
		Close() error
	}
)
