package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"budgetlite/internal/core"
	"budgetlite/internal/ledger"
	applog "budgetlite/internal/log"
	"budgetlite/internal/services"
)

const dateLayout = "2006-01-02"

// errBadRequest marks malformed request bodies and parameters.
var errBadRequest = errors.New("bad request")

type errorResponse struct {
	Error string `json:"error"`
}

type categoryJSON struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Icon         string    `json:"icon"`
	SortOrder    int       `json:"sort_order"`
	CreatedAt    time.Time `json:"created_at"`
	ExpenseCount *int      `json:"expense_count,omitempty"`
}

type expenseJSON struct {
	ID            string     `json:"id"`
	Amount        core.Money `json:"amount"`
	AmountDisplay string     `json:"amount_display"`
	Date          string     `json:"date"`
	CategoryID    *string    `json:"category_id"`
	Comment       string     `json:"comment,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

type statJSON struct {
	Category          categoryJSON `json:"category"`
	Amount            core.Money   `json:"amount"`
	AmountDisplay     string       `json:"amount_display"`
	Percentage        float64      `json:"percentage"`
	PercentageDisplay string       `json:"percentage_display"`
}

type segmentJSON struct {
	CategoryID string  `json:"category_id"`
	StartAngle float64 `json:"start_angle"`
	EndAngle   float64 `json:"end_angle"`
	ColorIndex int     `json:"color_index"`
	Color      string  `json:"color"`
}

type statsJSON struct {
	Month              core.Month    `json:"month"`
	Label              string        `json:"label"`
	Currency           string        `json:"currency"`
	Total              core.Money    `json:"total"`
	TotalDisplay       string        `json:"total_display"`
	UncategorizedTotal core.Money    `json:"uncategorized_total"`
	ExpenseCount       int           `json:"expense_count"`
	Stats              []statJSON    `json:"stats"`
	Segments           []segmentJSON `json:"segments"`
}

type cursorJSON struct {
	Month          core.Month `json:"month"`
	Label          string     `json:"label"`
	IsCurrentMonth bool       `json:"is_current_month"`
	CanGoNext      bool       `json:"can_go_next"`
}

func toCategoryJSON(c core.Category) categoryJSON {
	return categoryJSON{
		ID:        c.ID.String(),
		Name:      c.Name,
		Icon:      c.Icon,
		SortOrder: c.SortOrder,
		CreatedAt: c.CreatedAt,
	}
}

func (s *Server) toExpenseJSON(e core.Expense) expenseJSON {
	out := expenseJSON{
		ID:            e.ID.String(),
		Amount:        e.Amount,
		AmountDisplay: s.formatter.Format(e.Amount),
		Date:          e.Date.In(s.location()).Format(dateLayout),
		Comment:       e.Comment,
		CreatedAt:     e.CreatedAt,
	}
	if e.HasCategory() {
		id := e.CategoryID.String()
		out.CategoryID = &id
	}
	return out
}

func (s *Server) toStatsJSON(r services.MonthReport) statsJSON {
	b := r.Breakdown
	out := statsJSON{
		Month:              b.Month,
		Label:              b.Month.Label(),
		Currency:           s.formatter.Currency(),
		Total:              b.Total,
		TotalDisplay:       s.formatter.Format(b.Total),
		UncategorizedTotal: b.UncategorizedTotal,
		ExpenseCount:       b.ExpenseCount,
		Stats:              make([]statJSON, 0, len(b.Stats)),
		Segments:           make([]segmentJSON, 0, len(r.Segments)),
	}
	for _, st := range b.Stats {
		out.Stats = append(out.Stats, statJSON{
			Category:          toCategoryJSON(st.Category),
			Amount:            st.Amount,
			AmountDisplay:     s.formatter.Format(st.Amount),
			Percentage:        st.Percentage,
			PercentageDisplay: s.formatter.FormatPercent(st.Percentage),
		})
	}
	for _, seg := range r.Segments {
		out.Segments = append(out.Segments, segmentJSON{
			CategoryID: seg.Category.ID.String(),
			StartAngle: seg.StartAngle,
			EndAngle:   seg.EndAngle,
			ColorIndex: seg.ColorIndex,
			Color:      seg.Color(),
		})
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// errorStatus maps domain errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrCategoryInUse):
		return http.StatusConflict
	case errors.Is(err, errBadRequest),
		errors.Is(err, core.ErrMalformedAmount),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidMonth),
		errors.Is(err, core.ErrEmptyCategoryName),
		errors.Is(err, core.ErrZeroDate),
		errors.Is(err, core.ErrCommentTooLong),
		errors.Is(err, services.ErrInvalidPosition),
		errors.Is(err, ledger.ErrInvalidOrder):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeError logs err and writes it as a JSON error. Internal errors are not
// echoed to the client.
func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := errorStatus(err)
	msg := err.Error()
	logger := applog.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		applog.NewStructuredLogger(logger).LogError(r.Context(), "Request failed", err, op, nil)
		msg = http.StatusText(status)
	} else {
		logger.DebugContext(r.Context(), "Request rejected", applog.FieldOperation, op, applog.FieldError, err, applog.FieldStatusCode, status)
	}
	writeJSON(w, status, errorResponse{Error: msg})
}
