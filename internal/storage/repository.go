// Package storage persists expense records and feature requests in SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"kharcha/internal/core"

	_ "modernc.org/sqlite"
)

// ErrNotFound reports a lookup or mutation that matched no row, including
// rows hidden by the user filter.
var ErrNotFound = errors.New("expense not found")

// Filter narrows a ListExpenses query. Start and End compare against the
// stored ISO-8601 created_at text, which sorts chronologically.
type Filter struct {
	UserID string
	Start  string
	End    string
}

// Changes holds the updatable expense fields. Nil means "leave unchanged".
type Changes struct {
	Amount      *float64
	Category    *string
	Type        *string
	Description *string
}

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

// CreateExpense inserts a record and returns it with its assigned id. A
// missing created_at is stamped with the current UTC instant.
func (r *SQLiteRepository) CreateExpense(ctx context.Context, rec core.Record) (core.Record, error) {
	if rec.CreatedAt == "" {
		rec.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (user_id, category, amount, type, description, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.UserID, rec.Category, rec.Amount, rec.Type, rec.Description, rec.CreatedAt)
	if err != nil {
		return core.Record{}, fmt.Errorf("insert expense: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.Record{}, fmt.Errorf("last insert id: %w", err)
	}
	rec.ID = id

	slog.InfoContext(ctx, "Expense saved",
		"id", id,
		"user_id", rec.UserID,
		"category", rec.Category,
		"amount", rec.Amount,
		"type", rec.Type)

	return rec, nil
}

// ListExpenses returns records matching the filter, newest first.
func (r *SQLiteRepository) ListExpenses(ctx context.Context, f Filter) ([]core.Record, error) {
	query := `SELECT id, user_id, category, amount, type, description, created_at
	          FROM expenses WHERE 1=1`
	var args []any
	if f.UserID != "" {
		query += " AND user_id = ?"
		args = append(args, f.UserID)
	}
	if f.Start != "" {
		query += " AND created_at >= ?"
		args = append(args, f.Start)
	}
	if f.End != "" {
		query += " AND created_at <= ?"
		args = append(args, f.End)
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var records []core.Record
	for rows.Next() {
		var rec core.Record
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Category, &rec.Amount,
			&rec.Type, &rec.Description, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}

	return records, nil
}

// GetExpense loads a single record by id.
func (r *SQLiteRepository) GetExpense(ctx context.Context, id int64) (core.Record, error) {
	var rec core.Record
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, category, amount, type, description, created_at
		 FROM expenses WHERE id = ?`, id).
		Scan(&rec.ID, &rec.UserID, &rec.Category, &rec.Amount,
			&rec.Type, &rec.Description, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Record{}, ErrNotFound
	}
	if err != nil {
		return core.Record{}, fmt.Errorf("get expense: %w", err)
	}
	return rec, nil
}

// UpdateExpense applies the given changes and returns the updated record.
// When userID is non-empty the update only touches that user's rows.
func (r *SQLiteRepository) UpdateExpense(ctx context.Context, id int64, userID string, ch Changes) (core.Record, error) {
	var sets []string
	var args []any
	if ch.Amount != nil {
		sets = append(sets, "amount = ?")
		args = append(args, *ch.Amount)
	}
	if ch.Category != nil {
		sets = append(sets, "category = ?")
		args = append(args, *ch.Category)
	}
	if ch.Type != nil {
		if *ch.Type != core.TypeDebit && *ch.Type != core.TypeCredit {
			return core.Record{}, core.ErrInvalidType
		}
		sets = append(sets, "type = ?")
		args = append(args, *ch.Type)
	}
	if ch.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *ch.Description)
	}
	if len(sets) == 0 {
		return r.GetExpense(ctx, id)
	}
	// Every change marks the row pending so the backup worker re-syncs it.
	sets = append(sets, "sync_status = 'pending'")

	query := "UPDATE expenses SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	args = append(args, id)
	if userID != "" {
		query += " AND user_id = ?"
		args = append(args, userID)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return core.Record{}, fmt.Errorf("update expense: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return core.Record{}, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return core.Record{}, ErrNotFound
	}

	slog.InfoContext(ctx, "Expense updated", "id", id, "user_id", userID)
	return r.GetExpense(ctx, id)
}

// DeleteExpense removes a record. When userID is non-empty the delete only
// touches that user's rows.
func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id int64, userID string) error {
	query := "DELETE FROM expenses WHERE id = ?"
	args := []any{id}
	if userID != "" {
		query += " AND user_id = ?"
		args = append(args, userID)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	slog.InfoContext(ctx, "Expense deleted", "id", id, "user_id", userID)
	return nil
}

// CreateFeatureRequest stores a dashboard feature request.
func (r *SQLiteRepository) CreateFeatureRequest(ctx context.Context, text, username string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO feature_requests (created_at, text, username) VALUES (?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339), text, username)
	if err != nil {
		return 0, fmt.Errorf("insert feature request: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// GetPendingSyncExpenses returns records awaiting spreadsheet backup.
func (r *SQLiteRepository) GetPendingSyncExpenses(ctx context.Context, limit int) ([]core.Record, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, category, amount, type, description, created_at
		 FROM expenses WHERE sync_status = 'pending'
		 ORDER BY created_at ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending sync expenses: %w", err)
	}
	defer rows.Close()

	var records []core.Record
	for rows.Next() {
		var rec core.Record
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Category, &rec.Amount,
			&rec.Type, &rec.Description, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pending expense: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending expenses: %w", err)
	}

	return records, nil
}

// MarkSynced records a successful spreadsheet backup.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET sync_status = 'synced', synced_at = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("mark expense synced: %w", err)
	}
	slog.InfoContext(ctx, "Expense marked as synced", "id", id)
	return nil
}

// MarkSyncError flags a record whose backup keeps failing.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET sync_status = 'error' WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark expense sync error: %w", err)
	}
	slog.WarnContext(ctx, "Expense marked with sync error", "id", id)
	return nil
}
