package core

import (
	"errors"
	"strings"
)

// Record types as stored. Anything else passes through aggregation under its
// literal label but is excluded from the credit/debit balance arithmetic.
const (
	TypeDebit  = "debit"
	TypeCredit = "credit"
)

// Labels substituted during grouping when a field is absent.
const (
	UncategorizedLabel = "Uncategorized"
	OtherTypeLabel     = "Other"
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidType   = errors.New("type must be debit or credit")
	ErrEmptyCategory = errors.New("empty category")
)

// Record is one logged expense or repayment. CreatedAt is the stored
// ISO-8601 instant in UTC; it stays a string until aggregation parses it.
type Record struct {
	ID          int64   `json:"id"`
	UserID      string  `json:"user_id"`
	Category    string  `json:"category"`
	Amount      float64 `json:"amount"`
	Type        string  `json:"type"`
	Description string  `json:"description"`
	CreatedAt   string  `json:"created_at"`
}

// Validate checks the fields required at ingestion time. Aggregation itself
// never validates: whatever made it into storage is summed as-is.
func (r Record) Validate() error {
	if strings.TrimSpace(r.Category) == "" {
		return ErrEmptyCategory
	}
	if r.Amount <= 0 {
		return ErrInvalidAmount
	}
	if r.Type != TypeDebit && r.Type != TypeCredit {
		return ErrInvalidType
	}
	return nil
}
