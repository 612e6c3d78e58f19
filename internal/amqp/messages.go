package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Message kinds carried on the backup queue.
const (
	KindSync   = "sync"
	KindDelete = "delete"
)

// RecordSyncMessage asks the worker to back up one expense. It carries only
// the id; the worker fetches the current row from the database so stale
// messages never overwrite fresher data.
type RecordSyncMessage struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

// RecordDeleteMessage asks the worker to drop a backed-up row. The expense
// is already gone from the database, so the message carries what the worker
// needs to find the spreadsheet row.
type RecordDeleteMessage struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

// Envelope wraps either message kind for the wire.
type Envelope struct {
	Kind   string               `json:"kind"`
	Sync   *RecordSyncMessage   `json:"sync,omitempty"`
	Delete *RecordDeleteMessage `json:"delete,omitempty"`
}

func NewSyncEnvelope(id int64) *Envelope {
	return &Envelope{
		Kind: KindSync,
		Sync: &RecordSyncMessage{ID: id, Timestamp: time.Now()},
	}
}

func NewDeleteEnvelope(id int64, userID string) *Envelope {
	return &Envelope{
		Kind:   KindDelete,
		Delete: &RecordDeleteMessage{ID: id, UserID: userID, Timestamp: time.Now()},
	}
}

func (e *Envelope) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func EnvelopeFromJSON(data []byte) (*Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	switch e.Kind {
	case KindSync:
		if e.Sync == nil {
			return nil, fmt.Errorf("sync envelope without payload")
		}
	case KindDelete:
		if e.Delete == nil {
			return nil, fmt.Errorf("delete envelope without payload")
		}
	default:
		return nil, fmt.Errorf("unknown message kind %q", e.Kind)
	}
	return &e, nil
}
