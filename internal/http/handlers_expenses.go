package http

import (
	"fmt"
	"net/http"

	"budgetlite/internal/core"
	applog "budgetlite/internal/log"
	"budgetlite/internal/services"
)

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	if req.Amount == nil || req.Date == nil {
		writeError(w, r, applog.OpCreate, fmt.Errorf("%w: amount and date are required", errBadRequest))
		return
	}

	var in services.ExpenseInput
	if err := s.applyExpenseRequest(&in, req); err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	e, err := s.ledger.AddExpense(r.Context(), in)
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.toExpenseJSON(e))
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	e, err := s.ledger.Expense(r.Context(), id)
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, s.toExpenseJSON(e))
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}

	current, err := s.ledger.Expense(r.Context(), id)
	if err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	in := services.ExpenseInput{
		Amount:     current.Amount,
		Date:       current.Date,
		CategoryID: current.CategoryID,
		Comment:    current.Comment,
	}
	if err := s.applyExpenseRequest(&in, req); err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}

	e, err := s.ledger.UpdateExpense(r.Context(), id, in)
	if err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, s.toExpenseJSON(e))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, applog.OpDelete, err)
		return
	}
	if err := s.ledger.DeleteExpense(r.Context(), id); err != nil {
		writeError(w, r, applog.OpDelete, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// applyExpenseRequest overlays the fields present in req onto in.
func (s *Server) applyExpenseRequest(in *services.ExpenseInput, req expenseRequest) error {
	if req.Amount != nil {
		amount, err := core.ParseAmountInput(*req.Amount)
		if err != nil {
			return err
		}
		in.Amount = amount
	}
	if req.Date != nil {
		date, err := parseDate(*req.Date, s.location())
		if err != nil {
			return err
		}
		in.Date = date
	}
	if req.CategoryID != nil {
		ref, err := parseCategoryRef(*req.CategoryID)
		if err != nil {
			return err
		}
		in.CategoryID = ref
	}
	if req.Comment != nil {
		in.Comment = sanitizeInput(*req.Comment)
	}
	return nil
}
