package sheets

import (
	"context"

	"kharcha/internal/core"
)

// Ports for the spreadsheet backup adapter.
type (
	// RecordAppender mirrors one expense record into the backup sheet.
	RecordAppender interface {
		AppendRecord(ctx context.Context, rec core.Record) error
	}

	// RecordRemover drops a previously backed-up record's row by id.
	RecordRemover interface {
		RemoveRecord(ctx context.Context, id int64) error
	}
)
