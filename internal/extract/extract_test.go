package extract

import (
	"errors"
	"strings"
	"testing"

	"kharcha/internal/core"
)

func strPtr(s string) *string   { return &s }
func numPtr(f float64) *float64 { return &f }

func TestParseResponse(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want Fields
		ok   bool
	}{
		{
			name: "plain json",
			raw:  `{"category": "food", "amount": 187.5, "type": "debit", "description": "north adda"}`,
			want: Fields{Category: strPtr("food"), Amount: numPtr(187.5), Type: strPtr("debit"), Description: strPtr("north adda")},
			ok:   true,
		},
		{
			name: "fenced json",
			raw:  "```json\n{\"category\": \"groceries\", \"amount\": 1200.0, \"type\": \"debit\", \"description\": null}\n```",
			want: Fields{Category: strPtr("groceries"), Amount: numPtr(1200), Type: strPtr("debit")},
			ok:   true,
		},
		{
			name: "nulls preserved",
			raw:  `{"category": null, "amount": 50, "type": "credit", "description": null}`,
			want: Fields{Amount: numPtr(50), Type: strPtr("credit")},
			ok:   true,
		},
		{
			name: "not json",
			raw:  "sorry, I can't help with that",
			ok:   false,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseResponse(tc.raw)
			if !tc.ok {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseResponse: %v", err)
			}
			if (got.Category == nil) != (tc.want.Category == nil) ||
				(got.Category != nil && *got.Category != *tc.want.Category) {
				t.Fatalf("Category = %v, want %v", got.Category, tc.want.Category)
			}
			if (got.Amount == nil) != (tc.want.Amount == nil) ||
				(got.Amount != nil && *got.Amount != *tc.want.Amount) {
				t.Fatalf("Amount = %v, want %v", got.Amount, tc.want.Amount)
			}
			if (got.Type == nil) != (tc.want.Type == nil) ||
				(got.Type != nil && *got.Type != *tc.want.Type) {
				t.Fatalf("Type = %v, want %v", got.Type, tc.want.Type)
			}
		})
	}
}

func TestFieldsValidate(t *testing.T) {
	good := Fields{Category: strPtr("food"), Amount: numPtr(10), Type: strPtr(core.TypeDebit)}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name    string
		f       Fields
		mention string
	}{
		{"missing category", Fields{Amount: numPtr(10), Type: strPtr("debit")}, "category"},
		{"blank category", Fields{Category: strPtr("  "), Amount: numPtr(10), Type: strPtr("debit")}, "category"},
		{"missing amount", Fields{Category: strPtr("food"), Type: strPtr("debit")}, "amount"},
		{"missing type", Fields{Category: strPtr("food"), Amount: numPtr(10)}, "type"},
		{"bad type", Fields{Category: strPtr("food"), Amount: numPtr(10), Type: strPtr("transfer")}, "type"},
		{"everything missing", Fields{}, "category, amount, type"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.f.Validate()
			if !errors.Is(err, ErrIncomplete) {
				t.Fatalf("expected ErrIncomplete, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.mention) {
				t.Fatalf("error %q does not mention %q", err, tc.mention)
			}
		})
	}
}

func TestFieldsRecord(t *testing.T) {
	f := Fields{Category: strPtr("food"), Amount: numPtr(187.5), Type: strPtr(core.TypeDebit), Description: strPtr("north adda")}
	rec := f.Record()
	if rec.Category != "food" || rec.Amount != 187.5 || rec.Type != core.TypeDebit || rec.Description != "north adda" {
		t.Fatalf("unexpected record: %+v", rec)
	}

	// Description is the only optional field.
	f.Description = nil
	if rec := f.Record(); rec.Description != "" {
		t.Fatalf("expected empty description, got %q", rec.Description)
	}
}
