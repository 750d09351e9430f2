package http

import (
	"net/http"

	"budgetlite/internal/core"
	applog "budgetlite/internal/log"
)

func (s *Server) handleMonthStats(w http.ResponseWriter, r *http.Request) {
	month, err := pathMonth(r)
	if err != nil {
		writeError(w, r, applog.OpStats, err)
		return
	}
	report, err := s.stats.MonthStats(r.Context(), month)
	if err != nil {
		writeError(w, r, applog.OpStats, err)
		return
	}
	writeJSON(w, http.StatusOK, s.toStatsJSON(report))
}

func (s *Server) handleMonthExpenses(w http.ResponseWriter, r *http.Request) {
	month, err := pathMonth(r)
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	expenses, err := s.stats.MonthExpenses(r.Context(), month)
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	out := make([]expenseJSON, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, s.toExpenseJSON(e))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListMonths(w http.ResponseWriter, r *http.Request) {
	months, err := s.stats.Months(r.Context())
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	if months == nil {
		months = []core.Month{}
	}
	writeJSON(w, http.StatusOK, months)
}

func (s *Server) handleCursor(w http.ResponseWriter, _ *http.Request) {
	s.cursorMu.Lock()
	state := s.cursorState()
	s.cursorMu.Unlock()
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleCursorPrev(w http.ResponseWriter, _ *http.Request) {
	s.cursorMu.Lock()
	s.cursor.PreviousMonth()
	state := s.cursorState()
	s.cursorMu.Unlock()
	writeJSON(w, http.StatusOK, state)
}

// handleCursorNext refuses to move past the current month.
func (s *Server) handleCursorNext(w http.ResponseWriter, _ *http.Request) {
	s.cursorMu.Lock()
	if !s.cursor.CanGoNext() {
		state := s.cursorState()
		s.cursorMu.Unlock()
		writeJSON(w, http.StatusConflict, struct {
			errorResponse
			cursorJSON
		}{errorResponse{Error: "already at the current month"}, state})
		return
	}
	s.cursor.NextMonth()
	state := s.cursorState()
	s.cursorMu.Unlock()
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleCursorReset(w http.ResponseWriter, _ *http.Request) {
	s.cursorMu.Lock()
	s.cursor.Reset()
	state := s.cursorState()
	s.cursorMu.Unlock()
	writeJSON(w, http.StatusOK, state)
}

// cursorState must be called with cursorMu held.
func (s *Server) cursorState() cursorJSON {
	return cursorJSON{
		Month:          s.cursor.Selected(),
		Label:          s.cursor.Label(),
		IsCurrentMonth: s.cursor.IsCurrentMonth(),
		CanGoNext:      s.cursor.CanGoNext(),
	}
}
