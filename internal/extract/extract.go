// Package extract turns a natural-language expense sentence into structured
// record fields using a language model. Response parsing and validation are
// separate from the API call so they stay testable offline.
package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"kharcha/internal/core"
)

// ErrIncomplete reports a model response missing required fields.
var ErrIncomplete = errors.New("incomplete extraction")

// Fields is the model's answer. Pointers distinguish "absent/null" from a
// zero value, which the validation below cares about.
type Fields struct {
	Category    *string  `json:"category"`
	Amount      *float64 `json:"amount"`
	Type        *string  `json:"type"`
	Description *string  `json:"description"`
}

// ParseResponse decodes a raw model reply. Models wrap JSON in markdown
// fences often enough that stripping them unconditionally is the simplest
// reliable move.
func ParseResponse(raw string) (Fields, error) {
	cleaned := strings.NewReplacer("```json", "", "```", "").Replace(raw)
	cleaned = strings.TrimSpace(cleaned)

	var f Fields
	if err := json.Unmarshal([]byte(cleaned), &f); err != nil {
		return Fields{}, fmt.Errorf("decode extraction response: %w", err)
	}
	return f, nil
}

// Validate checks that the required fields came back usable. All problems
// are reported together so the user sees everything that failed at once.
func (f Fields) Validate() error {
	var problems []string
	if f.Category == nil || strings.TrimSpace(*f.Category) == "" {
		problems = append(problems, "category")
	}
	if f.Amount == nil {
		problems = append(problems, "amount")
	}
	if f.Type == nil || (*f.Type != core.TypeDebit && *f.Type != core.TypeCredit) {
		problems = append(problems, "type")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: could not determine %s", ErrIncomplete, strings.Join(problems, ", "))
	}
	return nil
}

// Record converts validated fields into an expense record. Call Validate
// first; Record assumes category, amount and type are present.
func (f Fields) Record() core.Record {
	rec := core.Record{
		Category: *f.Category,
		Amount:   *f.Amount,
		Type:     *f.Type,
	}
	if f.Description != nil {
		rec.Description = *f.Description
	}
	return rec
}
