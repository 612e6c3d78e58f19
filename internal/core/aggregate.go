package core

import "sort"

// Totals is the type-agnostic aggregation of one snapshot. Category, Type
// and Monthly sum every record's amount regardless of debit/credit; the
// balance split (CreditTotal/DebitTotal) is kept separately because the two
// views intentionally disagree about unknown types.
type Totals struct {
	Category map[string]float64
	Type     map[string]float64
	Monthly  map[string]float64

	// MonthLabels are the Monthly keys in chronological order, with
	// MonthValues the matching sums.
	MonthLabels []string
	MonthValues []float64

	CreditTotal  float64
	DebitTotal   float64
	TotalAmount  float64
	TotalRecords int
}

// Aggregate computes Totals over a snapshot. Any record whose created_at
// does not parse aborts the whole pass; partial totals are never returned.
func Aggregate(records []Record) (Totals, error) {
	t := Totals{
		Category:     make(map[string]float64),
		Type:         make(map[string]float64),
		Monthly:      make(map[string]float64),
		TotalRecords: len(records),
	}

	for _, r := range records {
		at, err := ParseInstant(r.CreatedAt)
		if err != nil {
			return Totals{}, err
		}

		cat := r.Category
		if cat == "" {
			cat = UncategorizedLabel
		}
		typ := r.Type
		if typ == "" {
			typ = OtherTypeLabel
		}

		t.Category[cat] += r.Amount
		t.Type[typ] += r.Amount
		t.Monthly[MonthKey(at)] += r.Amount
		t.TotalAmount += r.Amount

		switch r.Type {
		case TypeCredit:
			t.CreditTotal += r.Amount
		case TypeDebit:
			t.DebitTotal += r.Amount
		}
	}

	t.MonthLabels = sortedMonthLabels(t.Monthly)
	t.MonthValues = make([]float64, len(t.MonthLabels))
	for i, label := range t.MonthLabels {
		t.MonthValues[i] = t.Monthly[label]
	}

	return t, nil
}

// sortedMonthLabels orders month keys chronologically by parsing each label
// back. The label encodes month and year, so ties cannot occur.
func sortedMonthLabels(monthly map[string]float64) []string {
	labels := make([]string, 0, len(monthly))
	for label := range monthly {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		ti, _ := ParseMonthKey(labels[i])
		tj, _ := ParseMonthKey(labels[j])
		return ti.Before(tj)
	})
	return labels
}
