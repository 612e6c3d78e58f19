// Package worker backs up expense records to the spreadsheet mirror.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"kharcha/internal/amqp"
	"kharcha/internal/core"
	"kharcha/internal/sheets"
	"kharcha/internal/storage"
)

// RecordSource is the slice of the repository the worker needs.
type RecordSource interface {
	GetExpense(ctx context.Context, id int64) (core.Record, error)
	GetPendingSyncExpenses(ctx context.Context, limit int) ([]core.Record, error)
	MarkSynced(ctx context.Context, id int64) error
	MarkSyncError(ctx context.Context, id int64) error
}

// SyncWorker consumes backup messages and mirrors records into the sheet.
type SyncWorker struct {
	source    RecordSource
	appender  sheets.RecordAppender
	remover   sheets.RecordRemover
	batchSize int
}

func NewSyncWorker(source RecordSource, appender sheets.RecordAppender, remover sheets.RecordRemover, batchSize int) *SyncWorker {
	return &SyncWorker{
		source:    source,
		appender:  appender,
		remover:   remover,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes a single backup request. The record is
// re-fetched so a stale message never writes stale data; a record deleted
// in the meantime is simply skipped.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.RecordSyncMessage) error {
	rec, err := w.source.GetExpense(ctx, msg.ID)
	if errors.Is(err, storage.ErrNotFound) {
		slog.WarnContext(ctx, "Record gone before backup, skipping", "id", msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get expense for backup: %w", err)
	}

	if err := w.appender.AppendRecord(ctx, rec); err != nil {
		return fmt.Errorf("append backup row: %w", err)
	}

	if err := w.source.MarkSynced(ctx, rec.ID); err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}

	return nil
}

// HandleDeleteMessage removes a record's backup row.
func (w *SyncWorker) HandleDeleteMessage(ctx context.Context, msg *amqp.RecordDeleteMessage) error {
	if w.remover == nil {
		slog.WarnContext(ctx, "No remover configured, skipping backup delete", "id", msg.ID)
		return nil
	}

	if err := w.remover.RemoveRecord(ctx, msg.ID); err != nil {
		return fmt.Errorf("remove backup row: %w", err)
	}

	return nil
}

// ProcessPendingExpenses backs up records whose messages were lost. Errors
// on individual records are logged and flagged but never stop the batch.
func (w *SyncWorker) ProcessPendingExpenses(ctx context.Context) error {
	pending, err := w.source.GetPendingSyncExpenses(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending expenses: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending backups", "count", len(pending))

	for _, rec := range pending {
		if err := w.appender.AppendRecord(ctx, rec); err != nil {
			slog.ErrorContext(ctx, "Failed to back up record", "id", rec.ID, "error", err)
			if err := w.source.MarkSyncError(ctx, rec.ID); err != nil {
				slog.ErrorContext(ctx, "Failed to mark sync error", "id", rec.ID, "error", err)
			}
			continue
		}
		if err := w.source.MarkSynced(ctx, rec.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to mark synced", "id", rec.ID, "error", err)
		}
	}

	return nil
}
