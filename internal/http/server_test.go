package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"budgetlite/internal/cache"
	"budgetlite/internal/core"
	"budgetlite/internal/ledger"
	"budgetlite/internal/ledger/memory"
	applog "budgetlite/internal/log"
	"budgetlite/internal/services"
)

var testNow = time.Date(2026, time.October, 19, 9, 30, 0, 0, time.UTC)

type testEnv struct {
	srv    *Server
	repo   *memory.Store
	ledger *services.LedgerService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	repo := memory.New()
	cal := core.NewCalendar(time.UTC)
	clock := core.FixedClock(testNow)

	stats := services.NewStatsService(repo, cal, cache.NewLRUCache[services.MonthReport](8, time.Hour))
	notifier := ledger.NewNotifier()
	notifier.Subscribe(stats.OnChange)
	ls := services.NewLedgerService(repo, notifier, cal, clock)

	f, err := core.NewFormatter("USD", "en-US")
	if err != nil {
		t.Fatal(err)
	}
	srv := NewServer(":0", Options{
		Stats:     stats,
		Ledger:    ls,
		Formatter: f,
		Clock:     clock,
		Logger:    applog.New(applog.Config{Output: io.Discard}),
	})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return &testEnv{srv: srv, repo: repo, ledger: ls}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	e.srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func TestHealthAndReady(t *testing.T) {
	env := newTestEnv(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		if rr := env.do(t, http.MethodGet, path, ""); rr.Code != http.StatusOK {
			t.Errorf("%s status=%d", path, rr.Code)
		}
	}

	env.srv.ready = func(context.Context) error { return errors.New("db down") }
	if rr := env.do(t, http.MethodGet, "/readyz", ""); rr.Code != http.StatusServiceUnavailable {
		t.Errorf("readyz with failing check = %d", rr.Code)
	}
}

func TestSecurityHeadersAndRequestID(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, http.MethodGet, "/healthz", "")
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" || rr.Header().Get("X-Frame-Options") != "DENY" {
		t.Errorf("missing security headers: %v", rr.Header())
	}
	if !strings.HasPrefix(rr.Header().Get("X-Request-ID"), "req_") {
		t.Errorf("request id = %q", rr.Header().Get("X-Request-ID"))
	}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rr = httptest.NewRecorder()
	env.srv.Handler.ServeHTTP(rr, req)
	if rr.Header().Get("X-Request-ID") != "abc-123" {
		t.Errorf("incoming request id not echoed: %q", rr.Header().Get("X-Request-ID"))
	}
}

func TestMonthStatsScenario(t *testing.T) {
	env := newTestEnv(t)

	food := decode[categoryJSON](t, env.do(t, http.MethodPost, "/api/categories", `{"name":"Food","icon":"🍔"}`))
	transport := decode[categoryJSON](t, env.do(t, http.MethodPost, "/api/categories", `{"name":"Transport","icon":"🚗"}`))

	for _, body := range []string{
		`{"amount":"12.50","date":"2026-10-03","category_id":"` + food.ID + `"}`,
		`{"amount":"7,5","date":"2026-10-04","category_id":"` + transport.ID + `"}`,
		`{"amount":"99.00","date":"2026-11-01","category_id":"` + food.ID + `"}`,
	} {
		if rr := env.do(t, http.MethodPost, "/api/expenses", body); rr.Code != http.StatusCreated {
			t.Fatalf("create expense status=%d body=%s", rr.Code, rr.Body)
		}
	}

	rr := env.do(t, http.MethodGet, "/api/months/2026-10/stats", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("stats status=%d body=%s", rr.Code, rr.Body)
	}
	got := decode[statsJSON](t, rr)

	if got.Total.String() != "20.00" || got.TotalDisplay != "$20.00" {
		t.Errorf("total = %s (%s)", got.Total, got.TotalDisplay)
	}
	if got.Label != "October 2026" || got.Currency != "USD" {
		t.Errorf("label=%q currency=%q", got.Label, got.Currency)
	}
	if len(got.Stats) != 2 {
		t.Fatalf("stats = %+v", got.Stats)
	}
	if got.Stats[0].Category.Name != "Food" || got.Stats[0].Percentage != 62.5 || got.Stats[0].PercentageDisplay != "62.5%" {
		t.Errorf("first stat = %+v", got.Stats[0])
	}
	if got.Stats[1].Category.Name != "Transport" || got.Stats[1].Amount.String() != "7.50" || got.Stats[1].Percentage != 37.5 {
		t.Errorf("second stat = %+v", got.Stats[1])
	}
	wantSegs := [][2]float64{{-90, 135}, {135, 270}}
	for i, seg := range got.Segments {
		if seg.StartAngle != wantSegs[i][0] || seg.EndAngle != wantSegs[i][1] || seg.ColorIndex != i {
			t.Errorf("segment %d = %+v", i, seg)
		}
	}
}

func TestMonthStatsEmptyAndInvalid(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/api/months/2025-02/stats", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"stats":[]`) || !strings.Contains(rr.Body.String(), `"segments":[]`) {
		t.Errorf("empty month should encode empty arrays: %s", rr.Body)
	}
	if got := decode[statsJSON](t, rr); got.Total.String() != "0.00" {
		t.Errorf("total = %s", got.Total)
	}

	for _, month := range []string{"2026-13", "october", "2026-1"} {
		if rr := env.do(t, http.MethodGet, "/api/months/"+month+"/stats", ""); rr.Code != http.StatusBadRequest {
			t.Errorf("month %q status=%d", month, rr.Code)
		}
	}
}

func TestDeleteCategoryInUseReturnsConflict(t *testing.T) {
	env := newTestEnv(t)
	food := decode[categoryJSON](t, env.do(t, http.MethodPost, "/api/categories", `{"name":"Food"}`))
	spare := decode[categoryJSON](t, env.do(t, http.MethodPost, "/api/categories", `{"name":"Spare"}`))
	if rr := env.do(t, http.MethodPost, "/api/expenses", `{"amount":"10","date":"2026-10-01","category_id":"`+food.ID+`"}`); rr.Code != http.StatusCreated {
		t.Fatalf("create expense status=%d", rr.Code)
	}

	rr := env.do(t, http.MethodDelete, "/api/categories/"+food.ID, "")
	if rr.Code != http.StatusConflict {
		t.Fatalf("delete in-use status=%d body=%s", rr.Code, rr.Body)
	}
	cats := decode[[]categoryJSON](t, env.do(t, http.MethodGet, "/api/categories", ""))
	if len(cats) != 2 || cats[0].ExpenseCount == nil || *cats[0].ExpenseCount != 1 {
		t.Errorf("categories after refused delete = %+v", cats)
	}
	expenses, _ := env.repo.ListExpenses(context.Background())
	if len(expenses) != 1 {
		t.Errorf("expenses = %d, want 1", len(expenses))
	}

	if rr := env.do(t, http.MethodDelete, "/api/categories/"+spare.ID, ""); rr.Code != http.StatusNoContent {
		t.Errorf("delete unused status=%d", rr.Code)
	}
	if rr := env.do(t, http.MethodDelete, "/api/categories/"+spare.ID, ""); rr.Code != http.StatusNotFound {
		t.Errorf("delete missing status=%d", rr.Code)
	}
}

func TestCategoryEndpoints(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.ledger.SeedDefaults(context.Background()); err != nil {
		t.Fatal(err)
	}
	cats := decode[[]categoryJSON](t, env.do(t, http.MethodGet, "/api/categories", ""))
	if len(cats) != 4 {
		t.Fatalf("categories = %d", len(cats))
	}

	rr := env.do(t, http.MethodPost, "/api/categories/"+cats[3].ID+"/move", `{"to":0}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("move status=%d body=%s", rr.Code, rr.Body)
	}
	moved := decode[[]categoryJSON](t, rr)
	if moved[0].Name != "Fun" || moved[0].SortOrder != 0 || moved[3].SortOrder != 3 {
		t.Errorf("after move = %+v", moved)
	}

	rr = env.do(t, http.MethodPatch, "/api/categories/"+cats[0].ID, `{"name":"Groceries"}`)
	if rr.Code != http.StatusOK || decode[categoryJSON](t, rr).Name != "Groceries" {
		t.Errorf("rename status=%d body=%s", rr.Code, rr.Body)
	}

	tests := []struct {
		name, method, path, body string
		want                     int
	}{
		{"blank name", http.MethodPost, "/api/categories", `{"name":"  "}`, http.StatusBadRequest},
		{"unknown field", http.MethodPost, "/api/categories", `{"title":"x"}`, http.StatusBadRequest},
		{"empty body", http.MethodPost, "/api/categories", ``, http.StatusBadRequest},
		{"bad id", http.MethodPatch, "/api/categories/nope", `{"name":"x"}`, http.StatusBadRequest},
		{"move out of range", http.MethodPost, "/api/categories/" + cats[0].ID + "/move", `{"to":9}`, http.StatusBadRequest},
		{"move without target", http.MethodPost, "/api/categories/" + cats[0].ID + "/move", `{}`, http.StatusBadRequest},
		{"wrong method", http.MethodPut, "/api/categories", `{}`, http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rr := env.do(t, tt.method, tt.path, tt.body); rr.Code != tt.want {
				t.Errorf("status=%d want %d body=%s", rr.Code, tt.want, rr.Body)
			}
		})
	}
}

func TestExpenseEndpoints(t *testing.T) {
	env := newTestEnv(t)
	food := decode[categoryJSON](t, env.do(t, http.MethodPost, "/api/categories", `{"name":"Food"}`))

	rr := env.do(t, http.MethodPost, "/api/expenses", `{"amount":"4.20","date":"2026-10-02","category_id":"`+food.ID+`","comment":"coffee"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", rr.Code, rr.Body)
	}
	e := decode[expenseJSON](t, rr)
	if e.Amount.String() != "4.20" || e.AmountDisplay != "$4.20" || e.Date != "2026-10-02" || e.CategoryID == nil {
		t.Errorf("created = %+v", e)
	}

	rr = env.do(t, http.MethodPatch, "/api/expenses/"+e.ID, `{"category_id":"","date":"2026-09-30"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("patch status=%d body=%s", rr.Code, rr.Body)
	}
	patched := decode[expenseJSON](t, rr)
	if patched.CategoryID != nil || patched.Date != "2026-09-30" || patched.Amount.String() != "4.20" || patched.Comment != "coffee" {
		t.Errorf("patched = %+v", patched)
	}

	list := decode[[]expenseJSON](t, env.do(t, http.MethodGet, "/api/months/2026-09/expenses", ""))
	if len(list) != 1 || list[0].ID != e.ID {
		t.Errorf("september expenses = %+v", list)
	}
	if list := decode[[]expenseJSON](t, env.do(t, http.MethodGet, "/api/months/2026-10/expenses", "")); len(list) != 0 {
		t.Errorf("october should be empty after moving the expense: %+v", list)
	}
	months := decode[[]string](t, env.do(t, http.MethodGet, "/api/months", ""))
	if len(months) != 1 || months[0] != "2026-09" {
		t.Errorf("months = %v", months)
	}

	if rr := env.do(t, http.MethodDelete, "/api/expenses/"+e.ID, ""); rr.Code != http.StatusNoContent {
		t.Errorf("delete status=%d", rr.Code)
	}
	if rr := env.do(t, http.MethodGet, "/api/expenses/"+e.ID, ""); rr.Code != http.StatusNotFound {
		t.Errorf("get deleted status=%d", rr.Code)
	}

	tests := []struct {
		name, body string
		want       int
	}{
		{"malformed amount", `{"amount":"12.5x","date":"2026-10-01"}`, http.StatusBadRequest},
		{"zero amount", `{"amount":"0","date":"2026-10-01"}`, http.StatusBadRequest},
		{"negative amount", `{"amount":"-3","date":"2026-10-01"}`, http.StatusBadRequest},
		{"bad date", `{"amount":"3","date":"01/10/2026"}`, http.StatusBadRequest},
		{"missing date", `{"amount":"3"}`, http.StatusBadRequest},
		{"unknown category", `{"amount":"3","date":"2026-10-01","category_id":"7d8d7e51-3c1b-4b0e-9d8a-8c6a7c3e2f10"}`, http.StatusNotFound},
		{"uncategorized", `{"amount":"3","date":"2026-10-01"}`, http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rr := env.do(t, http.MethodPost, "/api/expenses", tt.body); rr.Code != tt.want {
				t.Errorf("status=%d want %d body=%s", rr.Code, tt.want, rr.Body)
			}
		})
	}
}

func TestStatsReflectMutations(t *testing.T) {
	env := newTestEnv(t)
	food := decode[categoryJSON](t, env.do(t, http.MethodPost, "/api/categories", `{"name":"Food"}`))
	post := func(amount string) {
		body := `{"amount":"` + amount + `","date":"2026-10-05","category_id":"` + food.ID + `"}`
		if rr := env.do(t, http.MethodPost, "/api/expenses", body); rr.Code != http.StatusCreated {
			t.Fatalf("create status=%d", rr.Code)
		}
	}

	post("10")
	first := decode[statsJSON](t, env.do(t, http.MethodGet, "/api/months/2026-10/stats", ""))
	post("5")
	second := decode[statsJSON](t, env.do(t, http.MethodGet, "/api/months/2026-10/stats", ""))

	if first.Total.String() != "10.00" || second.Total.String() != "15.00" {
		t.Errorf("totals = %s then %s", first.Total, second.Total)
	}
}

func TestCursorEndpoints(t *testing.T) {
	env := newTestEnv(t)

	c := decode[cursorJSON](t, env.do(t, http.MethodGet, "/api/cursor", ""))
	if c.Month.String() != "2026-10" || !c.IsCurrentMonth || c.CanGoNext {
		t.Fatalf("initial cursor = %+v", c)
	}

	if rr := env.do(t, http.MethodPost, "/api/cursor/next", ""); rr.Code != http.StatusConflict {
		t.Errorf("next at current month status=%d", rr.Code)
	}

	c = decode[cursorJSON](t, env.do(t, http.MethodPost, "/api/cursor/prev", ""))
	if c.Month.String() != "2026-09" || c.IsCurrentMonth || !c.CanGoNext || c.Label != "September 2026" {
		t.Errorf("after prev = %+v", c)
	}
	env.do(t, http.MethodPost, "/api/cursor/prev", "")
	c = decode[cursorJSON](t, env.do(t, http.MethodPost, "/api/cursor/next", ""))
	if c.Month.String() != "2026-09" {
		t.Errorf("after prev,prev,next = %+v", c)
	}
	c = decode[cursorJSON](t, env.do(t, http.MethodPost, "/api/cursor/reset", ""))
	if !c.IsCurrentMonth {
		t.Errorf("after reset = %+v", c)
	}
}

func TestRateLimitAppliesToMutations(t *testing.T) {
	env := newTestEnv(t)
	env.srv.rateLimiter.limit = 2

	codes := make([]int, 0, 3)
	for range 3 {
		codes = append(codes, env.do(t, http.MethodPost, "/api/categories", `{"name":"x"}`).Code)
	}
	if codes[0] != http.StatusCreated || codes[1] != http.StatusCreated || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v", codes)
	}
	if rr := env.do(t, http.MethodGet, "/api/categories", ""); rr.Code != http.StatusOK {
		t.Errorf("reads must not be limited, got %d", rr.Code)
	}
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{ledger.ErrNotFound, http.StatusNotFound},
		{ledger.ErrCategoryInUse, http.StatusConflict},
		{core.ErrMalformedAmount, http.StatusBadRequest},
		{core.ErrInvalidMonth, http.StatusBadRequest},
		{services.ErrInvalidPosition, http.StatusBadRequest},
		{ledger.ErrInvalidOrder, http.StatusBadRequest},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := errorStatus(tt.err); got != tt.want {
			t.Errorf("errorStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestInternalErrorsAreNotEchoed(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	writeError(rr, req, "test", errors.New("secret path /var/db"))
	if rr.Code != http.StatusInternalServerError || bytes.Contains(rr.Body.Bytes(), []byte("secret")) {
		t.Errorf("status=%d body=%s", rr.Code, rr.Body)
	}
}

func TestInternalErrorsLogOperation(t *testing.T) {
	var buf bytes.Buffer
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx := context.WithValue(req.Context(), applog.LoggerContextKey, applog.New(applog.Config{Output: &buf}))
	writeError(rr, req.WithContext(ctx), "list_expenses", errors.New("disk on fire"))

	out := buf.String()
	for _, want := range []string{"level=ERROR", "operation=list_expenses", `error="disk on fire"`} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in %q", want, out)
		}
	}
}
