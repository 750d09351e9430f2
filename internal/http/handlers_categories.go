package http

import (
	"fmt"
	"net/http"

	applog "budgetlite/internal/log"
)

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.ledger.Categories(r.Context())
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	usage, err := s.ledger.CategoryUsage(r.Context())
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}

	out := make([]categoryJSON, 0, len(cats))
	for _, c := range cats {
		cj := toCategoryJSON(c)
		n := usage[c.ID]
		cj.ExpenseCount = &n
		out = append(out, cj)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	c, err := s.ledger.AddCategory(r.Context(), sanitizeInput(req.Name), sanitizeInput(req.Icon))
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCategoryJSON(c))
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	c, err := s.ledger.RenameCategory(r.Context(), id, sanitizeInput(req.Name), sanitizeInput(req.Icon))
	if err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryJSON(c))
}

func (s *Server) handleMoveCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, applog.OpMove, err)
		return
	}
	var req moveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, applog.OpMove, err)
		return
	}
	if req.To == nil {
		writeError(w, r, applog.OpMove, fmt.Errorf("%w: missing \"to\"", errBadRequest))
		return
	}
	cats, err := s.ledger.MoveCategory(r.Context(), id, *req.To)
	if err != nil {
		writeError(w, r, applog.OpMove, err)
		return
	}
	out := make([]categoryJSON, 0, len(cats))
	for _, c := range cats {
		out = append(out, toCategoryJSON(c))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleDeleteCategory answers 409 while expenses still reference the category.
func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, applog.OpDelete, err)
		return
	}
	if err := s.ledger.DeleteCategory(r.Context(), id); err != nil {
		writeError(w, r, applog.OpDelete, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
