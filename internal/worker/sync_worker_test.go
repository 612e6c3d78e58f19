package worker

import (
	"context"
	"errors"
	"testing"

	"kharcha/internal/amqp"
	"kharcha/internal/core"
	"kharcha/internal/storage"
)

type fakeSource struct {
	records map[int64]core.Record
	synced  []int64
	errored []int64
	pending []core.Record
}

func (f *fakeSource) GetExpense(_ context.Context, id int64) (core.Record, error) {
	rec, ok := f.records[id]
	if !ok {
		return core.Record{}, storage.ErrNotFound
	}
	return rec, nil
}

func (f *fakeSource) GetPendingSyncExpenses(_ context.Context, limit int) ([]core.Record, error) {
	if len(f.pending) > limit {
		return f.pending[:limit], nil
	}
	return f.pending, nil
}

func (f *fakeSource) MarkSynced(_ context.Context, id int64) error {
	f.synced = append(f.synced, id)
	return nil
}

func (f *fakeSource) MarkSyncError(_ context.Context, id int64) error {
	f.errored = append(f.errored, id)
	return nil
}

type fakeAppender struct {
	appended []core.Record
	failOn   int64
}

func (f *fakeAppender) AppendRecord(_ context.Context, rec core.Record) error {
	if f.failOn != 0 && rec.ID == f.failOn {
		return errors.New("sheet unavailable")
	}
	f.appended = append(f.appended, rec)
	return nil
}

type fakeRemover struct {
	removed []int64
}

func (f *fakeRemover) RemoveRecord(_ context.Context, id int64) error {
	f.removed = append(f.removed, id)
	return nil
}

func TestHandleSyncMessage(t *testing.T) {
	rec := core.Record{ID: 1, UserID: "42", Category: "food", Amount: 100, Type: core.TypeDebit, CreatedAt: "2024-01-05T10:00:00Z"}
	source := &fakeSource{records: map[int64]core.Record{1: rec}}
	appender := &fakeAppender{}
	w := NewSyncWorker(source, appender, nil, 10)

	if err := w.HandleSyncMessage(context.Background(), &amqp.RecordSyncMessage{ID: 1}); err != nil {
		t.Fatalf("HandleSyncMessage: %v", err)
	}
	if len(appender.appended) != 1 || appender.appended[0].ID != 1 {
		t.Fatalf("appended = %+v", appender.appended)
	}
	if len(source.synced) != 1 || source.synced[0] != 1 {
		t.Fatalf("synced = %v", source.synced)
	}
}

func TestHandleSyncMessageSkipsMissingRecord(t *testing.T) {
	source := &fakeSource{records: map[int64]core.Record{}}
	appender := &fakeAppender{}
	w := NewSyncWorker(source, appender, nil, 10)

	// The record was deleted before the worker got to it; not an error.
	if err := w.HandleSyncMessage(context.Background(), &amqp.RecordSyncMessage{ID: 99}); err != nil {
		t.Fatalf("HandleSyncMessage: %v", err)
	}
	if len(appender.appended) != 0 {
		t.Fatalf("nothing should have been appended")
	}
}

func TestHandleSyncMessageAppendFailure(t *testing.T) {
	rec := core.Record{ID: 1, Amount: 10, Type: core.TypeDebit, CreatedAt: "2024-01-05T10:00:00Z"}
	source := &fakeSource{records: map[int64]core.Record{1: rec}}
	w := NewSyncWorker(source, &fakeAppender{failOn: 1}, nil, 10)

	if err := w.HandleSyncMessage(context.Background(), &amqp.RecordSyncMessage{ID: 1}); err == nil {
		t.Fatalf("expected error so the message gets requeued")
	}
	if len(source.synced) != 0 {
		t.Fatalf("must not mark synced on failure")
	}
}

func TestHandleDeleteMessage(t *testing.T) {
	remover := &fakeRemover{}
	w := NewSyncWorker(&fakeSource{}, &fakeAppender{}, remover, 10)

	if err := w.HandleDeleteMessage(context.Background(), &amqp.RecordDeleteMessage{ID: 5}); err != nil {
		t.Fatalf("HandleDeleteMessage: %v", err)
	}
	if len(remover.removed) != 1 || remover.removed[0] != 5 {
		t.Fatalf("removed = %v", remover.removed)
	}

	// Without a remover the message is acknowledged and dropped.
	w = NewSyncWorker(&fakeSource{}, &fakeAppender{}, nil, 10)
	if err := w.HandleDeleteMessage(context.Background(), &amqp.RecordDeleteMessage{ID: 5}); err != nil {
		t.Fatalf("HandleDeleteMessage without remover: %v", err)
	}
}

func TestProcessPendingExpenses(t *testing.T) {
	pending := []core.Record{
		{ID: 1, Amount: 10, Type: core.TypeDebit, CreatedAt: "2024-01-05T10:00:00Z"},
		{ID: 2, Amount: 20, Type: core.TypeDebit, CreatedAt: "2024-01-06T10:00:00Z"},
		{ID: 3, Amount: 30, Type: core.TypeDebit, CreatedAt: "2024-01-07T10:00:00Z"},
	}
	source := &fakeSource{pending: pending}
	appender := &fakeAppender{failOn: 2}
	w := NewSyncWorker(source, appender, nil, 10)

	if err := w.ProcessPendingExpenses(context.Background()); err != nil {
		t.Fatalf("ProcessPendingExpenses: %v", err)
	}

	// Record 2 fails but the batch continues.
	if len(appender.appended) != 2 {
		t.Fatalf("appended = %+v, want records 1 and 3", appender.appended)
	}
	if len(source.synced) != 2 {
		t.Fatalf("synced = %v, want two entries", source.synced)
	}
	if len(source.errored) != 1 || source.errored[0] != 2 {
		t.Fatalf("errored = %v, want [2]", source.errored)
	}
}
