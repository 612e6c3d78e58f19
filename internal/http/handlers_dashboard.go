package http

import (
	"net/http"
	"strings"
	"time"

	"kharcha/internal/core"
	"kharcha/internal/storage"
)

// expensePayload is a stored record plus its human-readable local timestamp.
type expensePayload struct {
	core.Record
	CreatedAtReadable string `json:"created_at_readable"`
}

// dashboardPayload is the full response of GET /api/data.
type dashboardPayload struct {
	Expenses       []expensePayload   `json:"expenses"`
	TotalAmount    float64            `json:"total_amount"`
	TotalRecords   int                `json:"total_records"`
	CategoryTotals map[string]float64 `json:"category_totals"`
	TypeTotals     map[string]float64 `json:"type_totals"`
	MonthlyLabels  []string           `json:"monthly_labels"`
	MonthlyValues  []float64          `json:"monthly_values"`
	UserID         string             `json:"user_id"`
	CreditTotal    float64            `json:"credit_total"`
	DebitTotal     float64            `json:"debit_total"`
	Insights       core.Report        `json:"insights"`
}

func (s *Server) handleDashboardData(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID := strings.TrimSpace(q.Get("user_id"))
	start := strings.TrimSpace(q.Get("start_date"))
	end := strings.TrimSpace(q.Get("end_date"))

	key := s.cacheKey(userID, start, end)
	if payload, found := s.dataCache.Get(key); found {
		s.logger.DebugContext(r.Context(), "Dashboard cache hit", "user_id", userID)
		writeJSON(w, http.StatusOK, payload)
		return
	}

	records, err := s.store.ListExpenses(r.Context(), storage.Filter{
		UserID: userID,
		Start:  start,
		End:    end,
	})
	if err != nil {
		// The dashboard stays usable without data, matching an empty account.
		s.logger.ErrorContext(r.Context(), "Failed to list expenses", "user_id", userID, "error", err)
		records = nil
	}

	payload, err := buildDashboardPayload(records, userID, s.now())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to build dashboard payload", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.dataCache.Set(key, payload)
	writeJSON(w, http.StatusOK, payload)
}

func buildDashboardPayload(records []core.Record, userID string, now time.Time) (dashboardPayload, error) {
	totals, err := core.Aggregate(records)
	if err != nil {
		return dashboardPayload{}, err
	}

	report, err := core.ComputeReport(records, now)
	if err != nil {
		return dashboardPayload{}, err
	}

	expenses := make([]expensePayload, 0, len(records))
	for _, rec := range records {
		ts, err := core.ParseInstant(rec.CreatedAt)
		if err != nil {
			return dashboardPayload{}, err
		}
		expenses = append(expenses, expensePayload{
			Record:            rec,
			CreatedAtReadable: core.FormatReadable(ts),
		})
	}

	return dashboardPayload{
		Expenses:       expenses,
		TotalAmount:    totals.TotalAmount,
		TotalRecords:   totals.TotalRecords,
		CategoryTotals: totals.Category,
		TypeTotals:     totals.Type,
		MonthlyLabels:  totals.MonthLabels,
		MonthlyValues:  totals.MonthValues,
		UserID:         userID,
		CreditTotal:    totals.CreditTotal,
		DebitTotal:     totals.DebitTotal,
		Insights:       report,
	}, nil
}
