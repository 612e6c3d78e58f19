package core

import "time"

// Spending velocity classifications.
const (
	VelocityNoData         = "No data"
	VelocityInsufficient   = "Insufficient data"
	VelocityStable         = "Stable"
	VelocityIncreasing     = "Increasing"
	VelocityIncreasingFast = "Increasing rapidly"
	VelocityDecreasing     = "Decreasing"
)

// Report is the insights summary for one snapshot. TopCategoryAmount and
// DaysTracked are pointers because an empty snapshot omits them entirely
// while every other field still appears with its zero value.
type Report struct {
	NetBalance        float64            `json:"net_balance"`
	DailyAvg          float64            `json:"daily_avg"`
	WeeklyAvg         float64            `json:"weekly_avg"`
	MonthlyAvg        float64            `json:"monthly_avg"`
	TopCategory       *string            `json:"top_category"`
	TopCategoryAmount *float64           `json:"top_category_amount,omitempty"`
	TopCategoryPct    float64            `json:"top_category_pct"`
	MonthChange       float64            `json:"mom_change"`
	MonthChangePct    float64            `json:"mom_change_pct"`
	AvgTransaction    float64            `json:"avg_transaction"`
	SavingsRate       float64            `json:"savings_rate"`
	DayOfWeekPattern  map[string]float64 `json:"day_of_week_pattern"`
	SpendingVelocity  string             `json:"spending_velocity"`
	DaysTracked       *int               `json:"days_tracked,omitempty"`
}

// ComputeReport derives the insights report from a snapshot. It is a pure
// function of its inputs: "now" is injected so the daily-average window and
// therefore the whole report are reproducible in tests.
func ComputeReport(records []Record, now time.Time) (Report, error) {
	if len(records) == 0 {
		return Report{
			DayOfWeekPattern: map[string]float64{},
			SpendingVelocity: VelocityNoData,
		}, nil
	}

	totals, err := Aggregate(records)
	if err != nil {
		return Report{}, err
	}

	// One pass over the raw records for the pieces the aggregator does not
	// keep: the oldest instant and the local-weekday pattern.
	var oldest time.Time
	pattern := make(map[string]float64, 7)
	for i, r := range records {
		at, err := ParseInstant(r.CreatedAt)
		if err != nil {
			return Report{}, err
		}
		if i == 0 || at.Before(oldest) {
			oldest = at
		}
		pattern[WeekdayName(at)] += r.Amount
	}

	// Span is the civil-day distance from the oldest record to "now" (not
	// to the newest record), and never collapses below one day.
	daysDiff := int(now.Truncate(24*time.Hour).Sub(oldest.Truncate(24*time.Hour)).Hours() / 24)
	if daysDiff < 1 {
		daysDiff = 1
	}

	dailyAvg := totals.DebitTotal / float64(daysDiff)

	rep := Report{
		NetBalance:       totals.CreditTotal - totals.DebitTotal,
		DailyAvg:         dailyAvg,
		WeeklyAvg:        dailyAvg * 7,
		MonthlyAvg:       dailyAvg * 30,
		AvgTransaction:   totals.DebitTotal / float64(totals.TotalRecords),
		DayOfWeekPattern: pattern,
		SpendingVelocity: classifyVelocity(totals.MonthLabels, totals.Monthly),
		DaysTracked:      &daysDiff,
	}

	topName, topAmount := topCategory(totals.Category)
	rep.TopCategory = &topName
	rep.TopCategoryAmount = &topAmount
	if totals.DebitTotal > 0 {
		rep.TopCategoryPct = topAmount / totals.DebitTotal * 100
	}

	if n := len(totals.MonthLabels); n >= 2 {
		last := totals.Monthly[totals.MonthLabels[n-1]]
		prev := totals.Monthly[totals.MonthLabels[n-2]]
		rep.MonthChange = last - prev
		if prev > 0 {
			rep.MonthChangePct = rep.MonthChange / prev * 100
		}
	}

	if totals.CreditTotal > 0 {
		rep.SavingsRate = rep.NetBalance / totals.CreditTotal * 100
	}

	return rep, nil
}

// topCategory picks the category with the largest total. Ties go to the
// lexicographically smaller label so the result does not depend on map
// iteration order.
func topCategory(sums map[string]float64) (string, float64) {
	var name string
	var amount float64
	first := true
	for cat, sum := range sums {
		if first || sum > amount || (sum == amount && cat < name) {
			name, amount = cat, sum
			first = false
		}
	}
	return name, amount
}

// classifyVelocity compares the average of the last three months with the
// three months before that window. The older window always divides by three
// even when fewer months exist there, which dampens the older average for
// short histories.
func classifyVelocity(labels []string, monthly map[string]float64) string {
	n := len(labels)
	if n < 2 {
		return VelocityInsufficient
	}
	if n < 4 {
		return VelocityStable
	}

	var recentSum float64
	for _, m := range labels[n-3:] {
		recentSum += monthly[m]
	}
	recentAvg := recentSum / 3

	start := n - 6
	if start < 0 {
		start = 0
	}
	var olderSum float64
	for _, m := range labels[start : n-3] {
		olderSum += monthly[m]
	}
	olderAvg := olderSum / 3

	if olderAvg <= 0 {
		return VelocityStable
	}

	pct := (recentAvg - olderAvg) / olderAvg * 100
	switch {
	case pct > 10:
		return VelocityIncreasingFast
	case pct > 0:
		return VelocityIncreasing
	case pct > -10:
		return VelocityStable
	default:
		return VelocityDecreasing
	}
}
