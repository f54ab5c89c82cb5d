package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"kakeibo/internal/core"
	ports "kakeibo/internal/sheets"
)

// SQLiteRepository implements the spreadsheet ports over a local sqlite
// file. It serves as the fast local backend and as the mirror target the
// sync worker writes to.
type SQLiteRepository struct {
	db *sql.DB
}

var _ ports.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
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

// FetchRecords returns all expense rows ordered by row number.
func (r *SQLiteRepository) FetchRecords(ctx context.Context) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT row_number, date, amount, description, genre FROM expenses ORDER BY row_number`)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	out := make([]core.Expense, 0)
	for rows.Next() {
		var e core.Expense
		if err := rows.Scan(&e.RowNumber, &e.Date, &e.Amount, &e.Description, &e.Genre); err != nil {
			return nil, fmt.Errorf("scan expense row: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expense rows: %w", err)
	}
	return out, nil
}

// UpdateRecord applies the provided fields to the target row.
func (r *SQLiteRepository) UpdateRecord(ctx context.Context, u core.RecordUpdate) error {
	if err := u.Validate(); err != nil {
		return err
	}

	sets := make([]string, 0, 2)
	args := make([]any, 0, 3)
	if u.Genre != nil {
		sets = append(sets, "genre = ?")
		args = append(args, *u.Genre)
	}
	if u.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *u.Description)
	}
	args = append(args, u.RowNumber)

	res, err := r.db.ExecContext(ctx,
		"UPDATE expenses SET "+strings.Join(sets, ", ")+" WHERE row_number = ?", args...)
	if err != nil {
		return fmt.Errorf("update expense %d: %w", u.RowNumber, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrRowNotFound
	}
	return nil
}

// UpsertRecord inserts or overwrites a full row. Used by the mirror
// worker when replaying updates for rows the mirror has not seen yet.
func (r *SQLiteRepository) UpsertRecord(ctx context.Context, e core.Expense) error {
	if e.RowNumber < 1 {
		return core.ErrInvalidRow
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (row_number, date, amount, description, genre)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(row_number) DO UPDATE SET
		   date = excluded.date,
		   amount = excluded.amount,
		   description = excluded.description,
		   genre = excluded.genre`,
		e.RowNumber, e.Date, e.Amount, e.Description, e.Genre)
	if err != nil {
		return fmt.Errorf("upsert expense %d: %w", e.RowNumber, err)
	}
	return nil
}

// AppendRecord inserts a row with the next free row number and returns it.
// Creation happens out-of-band in production; this exists for seeding.
func (r *SQLiteRepository) AppendRecord(ctx context.Context, e core.Expense) (int64, error) {
	var next int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(row_number), 1) + 1 FROM expenses`).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("next row number: %w", err)
	}
	e.RowNumber = next
	if err := r.UpsertRecord(ctx, e); err != nil {
		return 0, err
	}
	return next, nil
}

// FetchCategories returns the persisted label list in user order.
func (r *SQLiteRepository) FetchCategories(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT label FROM categories ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, fmt.Errorf("scan category row: %w", err)
		}
		out = append(out, label)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category rows: %w", err)
	}
	return out, nil
}

// ReplaceCategories swaps the whole persisted list in one transaction.
func (r *SQLiteRepository) ReplaceCategories(ctx context.Context, labels []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM categories`); err != nil {
		return fmt.Errorf("clear categories: %w", err)
	}
	for i, label := range labels {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO categories (position, label) VALUES (?, ?)`, i+1, label); err != nil {
			return fmt.Errorf("insert category %q: %w", label, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
