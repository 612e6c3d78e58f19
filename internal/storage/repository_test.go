package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"kharcha/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "kharcha.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestCreateAndListExpenses(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	records := []core.Record{
		{UserID: "42", Category: "food", Amount: 100, Type: core.TypeDebit, Description: "lunch", CreatedAt: "2024-01-05T10:00:00Z"},
		{UserID: "42", Category: "lend", Amount: 50, Type: core.TypeCredit, Description: "repayment", CreatedAt: "2024-02-10T10:00:00Z"},
		{UserID: "7", Category: "cab fare", Amount: 30, Type: core.TypeDebit, Description: "airport", CreatedAt: "2024-02-01T10:00:00Z"},
	}
	for _, rec := range records {
		if _, err := repo.CreateExpense(ctx, rec); err != nil {
			t.Fatalf("CreateExpense: %v", err)
		}
	}

	all, err := repo.ListExpenses(ctx, Filter{})
	if err != nil {
		t.Fatalf("ListExpenses: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d records, want 3", len(all))
	}
	// Newest first.
	if all[0].Category != "lend" {
		t.Fatalf("first record = %+v, want the Feb 10 one", all[0])
	}

	mine, err := repo.ListExpenses(ctx, Filter{UserID: "42"})
	if err != nil {
		t.Fatalf("ListExpenses(user): %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("got %d records for user 42, want 2", len(mine))
	}

	feb, err := repo.ListExpenses(ctx, Filter{Start: "2024-02-01T00:00:00Z", End: "2024-02-28T23:59:59Z"})
	if err != nil {
		t.Fatalf("ListExpenses(range): %v", err)
	}
	if len(feb) != 2 {
		t.Fatalf("got %d records in February, want 2", len(feb))
	}
}

func TestCreateExpenseStampsCreatedAt(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.CreateExpense(ctx, core.Record{
		UserID: "42", Category: "food", Amount: 10, Type: core.TypeDebit,
	})
	if err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}

	rec, err := repo.GetExpense(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetExpense: %v", err)
	}
	if rec.CreatedAt == "" {
		t.Fatalf("created_at not stamped")
	}
	if _, err := core.ParseInstant(rec.CreatedAt); err != nil {
		t.Fatalf("stamped created_at does not parse: %v", err)
	}
}

func TestUpdateExpense(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.CreateExpense(ctx, core.Record{
		UserID: "42", Category: "food", Amount: 100, Type: core.TypeDebit, CreatedAt: "2024-01-05T10:00:00Z",
	})
	if err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}
	id := created.ID

	amount := 150.0
	category := "groceries"
	rec, err := repo.UpdateExpense(ctx, id, "42", Changes{Amount: &amount, Category: &category})
	if err != nil {
		t.Fatalf("UpdateExpense: %v", err)
	}
	if rec.Amount != 150 || rec.Category != "groceries" {
		t.Fatalf("updated record = %+v", rec)
	}
	if rec.Type != core.TypeDebit {
		t.Fatalf("untouched field changed: %+v", rec)
	}

	bad := "transfer"
	if _, err := repo.UpdateExpense(ctx, id, "42", Changes{Type: &bad}); !errors.Is(err, core.ErrInvalidType) {
		t.Fatalf("expected ErrInvalidType, got %v", err)
	}

	// Another user's filter must hide the row.
	if _, err := repo.UpdateExpense(ctx, id, "7", Changes{Amount: &amount}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign user, got %v", err)
	}
}

func TestDeleteExpense(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.CreateExpense(ctx, core.Record{
		UserID: "42", Category: "food", Amount: 100, Type: core.TypeDebit, CreatedAt: "2024-01-05T10:00:00Z",
	})
	if err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}
	id := created.ID

	if err := repo.DeleteExpense(ctx, id, "7"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign user, got %v", err)
	}
	if err := repo.DeleteExpense(ctx, id, "42"); err != nil {
		t.Fatalf("DeleteExpense: %v", err)
	}
	if _, err := repo.GetExpense(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestSyncBookkeeping(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.CreateExpense(ctx, core.Record{
		UserID: "42", Category: "food", Amount: 100, Type: core.TypeDebit, CreatedAt: "2024-01-05T10:00:00Z",
	})
	if err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}
	id := created.ID

	pending, err := repo.GetPendingSyncExpenses(ctx, 10)
	if err != nil {
		t.Fatalf("GetPendingSyncExpenses: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != id {
		t.Fatalf("pending = %+v, want the new record", pending)
	}

	if err := repo.MarkSynced(ctx, id); err != nil {
		t.Fatalf("MarkSynced: %v", err)
	}
	pending, err = repo.GetPendingSyncExpenses(ctx, 10)
	if err != nil {
		t.Fatalf("GetPendingSyncExpenses: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("pending after sync = %+v, want none", pending)
	}

	// An update re-queues the record for backup.
	amount := 120.0
	if _, err := repo.UpdateExpense(ctx, id, "", Changes{Amount: &amount}); err != nil {
		t.Fatalf("UpdateExpense: %v", err)
	}
	pending, err = repo.GetPendingSyncExpenses(ctx, 10)
	if err != nil {
		t.Fatalf("GetPendingSyncExpenses: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("pending after update = %+v, want one", pending)
	}
}

func TestCreateFeatureRequest(t *testing.T) {
	repo := newTestRepo(t)
	id, err := repo.CreateFeatureRequest(context.Background(), "dark mode please", "sam")
	if err != nil {
		t.Fatalf("CreateFeatureRequest: %v", err)
	}
	if id == 0 {
		t.Fatalf("expected non-zero id")
	}
}
