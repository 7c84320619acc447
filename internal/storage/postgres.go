package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"wydatki/internal/core"
	"wydatki/internal/log"
)

// PostgresRepository stores expenses in PostgreSQL. Amounts are NUMERIC and
// summed by the database.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(ctx context.Context, databaseURL string) (*PostgresRepository, error) {
	if err := RunPostgresMigrations(databaseURL); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

func (r *PostgresRepository) Close() error {
	if r.pool != nil {
		r.pool.Close()
	}
	return nil
}

// Create implements store.ExpenseWriter
func (r *PostgresRepository) Create(ctx context.Context, d core.Draft) (int64, error) {
	if err := d.Validate(); err != nil {
		return 0, err
	}
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO expenses (user_id, user_name, category, amount, description, created_at)
		 VALUES ($1, $2, $3, $4::numeric, $5, $6) RETURNING id`,
		d.Author.ID, d.Author.Name, string(d.Category), d.Amount.String(), d.Description, d.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved to PostgreSQL",
		log.FieldComponent, log.ComponentStorage,
		log.FieldExpenseID, id,
		log.FieldUserID, d.Author.ID,
		log.FieldCategory, string(d.Category),
		log.FieldAmount, d.Amount.String())

	return id, nil
}

// Delete implements store.ExpenseDeleter
func (r *PostgresRepository) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete expense %d: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

// QueryDetailed implements store.ReportReader
func (r *PostgresRepository) QueryDetailed(ctx context.Context, start, end time.Time) ([]core.UserCategoryTotal, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT user_id,
		        (array_agg(user_name ORDER BY created_at DESC, id DESC))[1],
		        category,
		        SUM(amount)::text
		 FROM expenses
		 WHERE created_at >= $1 AND created_at <= $2
		 GROUP BY user_id, category`,
		start, end)
	if err != nil {
		return nil, fmt.Errorf("query detailed: %w", err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.UserCategoryTotal, error) {
		var (
			t        core.UserCategoryTotal
			category string
			sum      string
		)
		if err := row.Scan(&t.User.ID, &t.User.Name, &category, &sum); err != nil {
			return t, err
		}
		amount, err := decimal.NewFromString(sum)
		if err != nil {
			return t, fmt.Errorf("parse sum %q: %w", sum, err)
		}
		t.Category = core.Category(category)
		t.Amount = amount
		return t, nil
	})
	if err != nil {
		return nil, fmt.Errorf("query detailed: %w", err)
	}
	core.SortUserCategoryTotals(out)
	return out, nil
}

// QueryTotals implements store.ReportReader
func (r *PostgresRepository) QueryTotals(ctx context.Context, start, end time.Time) ([]core.CategoryTotal, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT category, SUM(amount)::text
		 FROM expenses
		 WHERE created_at >= $1 AND created_at <= $2
		 GROUP BY category`,
		start, end)
	if err != nil {
		return nil, fmt.Errorf("query totals: %w", err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.CategoryTotal, error) {
		var (
			t        core.CategoryTotal
			category string
			sum      string
		)
		if err := row.Scan(&category, &sum); err != nil {
			return t, err
		}
		amount, err := decimal.NewFromString(sum)
		if err != nil {
			return t, fmt.Errorf("parse sum %q: %w", sum, err)
		}
		t.Category = core.Category(category)
		t.Amount = amount
		return t, nil
	})
	if err != nil {
		return nil, fmt.Errorf("query totals: %w", err)
	}
	core.SortCategoryTotals(out)
	return out, nil
}

// QueryRecent implements store.HistoryReader
func (r *PostgresRepository) QueryRecent(ctx context.Context, limit int) ([]core.Expense, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, user_name, category, amount::text, description, created_at
		 FROM expenses ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent: %w", err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.Expense, error) {
		var (
			e        core.Expense
			category string
			amount   string
		)
		if err := row.Scan(&e.ID, &e.Author.ID, &e.Author.Name, &category, &amount, &e.Description, &e.CreatedAt); err != nil {
			return e, err
		}
		d, err := decimal.NewFromString(amount)
		if err != nil {
			return e, fmt.Errorf("parse amount %q: %w", amount, err)
		}
		e.Category = core.Category(category)
		e.Amount = d
		return e, nil
	})
	if err != nil {
		return nil, fmt.Errorf("query recent: %w", err)
	}
	return out, nil
}
