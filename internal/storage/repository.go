package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"wydatki/internal/core"
	"wydatki/internal/log"

	_ "modernc.org/sqlite"
)

// SQLiteRepository stores expenses in a single SQLite file. Amounts are kept
// as decimal text and summed in Go so no precision is lost to REAL columns.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows a single writer; one connection avoids SQLITE_BUSY under
	// concurrent handlers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunSQLiteMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Create implements store.ExpenseWriter
func (r *SQLiteRepository) Create(ctx context.Context, d core.Draft) (int64, error) {
	if err := d.Validate(); err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (user_id, user_name, category, amount, description, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		d.Author.ID, d.Author.Name, string(d.Category), d.Amount.String(), d.Description, d.CreatedAt.Unix())
	if err != nil {
		return 0, fmt.Errorf("insert expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read expense id: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		log.FieldComponent, log.ComponentStorage,
		log.FieldExpenseID, id,
		log.FieldUserID, d.Author.ID,
		log.FieldCategory, string(d.Category),
		log.FieldAmount, d.Amount.String())

	return id, nil
}

// Delete implements store.ExpenseDeleter
func (r *SQLiteRepository) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete expense %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete expense %d: %w", id, err)
	}
	return n > 0, nil
}

// QueryDetailed implements store.ReportReader
func (r *SQLiteRepository) QueryDetailed(ctx context.Context, start, end time.Time) ([]core.UserCategoryTotal, error) {
	rows, err := r.between(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("query detailed: %w", err)
	}
	return core.SumByUserCategory(rows), nil
}

// QueryTotals implements store.ReportReader
func (r *SQLiteRepository) QueryTotals(ctx context.Context, start, end time.Time) ([]core.CategoryTotal, error) {
	rows, err := r.between(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("query totals: %w", err)
	}
	return core.SumByCategory(rows), nil
}

// QueryRecent implements store.HistoryReader
func (r *SQLiteRepository) QueryRecent(ctx context.Context, limit int) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, user_name, category, amount, description, created_at
		 FROM expenses ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent: %w", err)
	}
	out, err := scanExpenses(rows)
	if err != nil {
		return nil, fmt.Errorf("query recent: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) between(ctx context.Context, start, end time.Time) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, user_name, category, amount, description, created_at
		 FROM expenses WHERE created_at >= ? AND created_at <= ? ORDER BY id`,
		start.Unix(), end.Unix())
	if err != nil {
		return nil, err
	}
	return scanExpenses(rows)
}

func scanExpenses(rows *sql.Rows) ([]core.Expense, error) {
	defer rows.Close()
	var out []core.Expense
	for rows.Next() {
		var (
			e         core.Expense
			category  string
			amount    string
			createdAt int64
		)
		if err := rows.Scan(&e.ID, &e.Author.ID, &e.Author.Name, &category, &amount, &e.Description, &createdAt); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		d, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("parse amount of expense %d: %w", e.ID, err)
		}
		e.Category = core.Category(category)
		e.Amount = d
		e.CreatedAt = time.Unix(createdAt, 0)
		out = append(out, e)
	}
	return out, rows.Err()
}
