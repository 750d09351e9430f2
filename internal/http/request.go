package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"budgetlite/internal/core"

	"github.com/google/uuid"
)

const maxBodyBytes = 64 << 10

type categoryRequest struct {
	Name string `json:"name"`
	Icon string `json:"icon"`
}

type moveRequest struct {
	To *int `json:"to"`
}

// expenseRequest is used for create (all fields) and patch (present fields
// only). An empty category_id string clears the category.
type expenseRequest struct {
	Amount     *string `json:"amount"`
	Date       *string `json:"date"`
	CategoryID *string `json:"category_id"`
	Comment    *string `json:"comment"`
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", errBadRequest)
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid %s", errBadRequest, name)
	}
	return id, nil
}

func pathMonth(r *http.Request) (core.Month, error) {
	return core.ParseMonth(r.PathValue("month"))
}

// parseDate accepts YYYY-MM-DD in loc, or a full RFC 3339 timestamp.
func parseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.ParseInLocation(dateLayout, s, loc); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", errBadRequest, s)
}

func parseCategoryRef(s string) (*uuid.UUID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid category_id", errBadRequest)
	}
	return &id, nil
}

// sanitizeInput removes control characters except tab and newlines, and trims.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}
