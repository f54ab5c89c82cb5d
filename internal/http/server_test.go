package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"kakeibo/internal/category"
	"kakeibo/internal/core"
	"kakeibo/internal/currency"
	"kakeibo/internal/loading"
	"kakeibo/internal/rate"
	"kakeibo/internal/services"
	"kakeibo/internal/sheets/memory"
	"kakeibo/internal/state"
	"kakeibo/internal/worker"
)

func newTestServer(t *testing.T) (*Server, *memory.Store) {
	t.Helper()

	store := memory.New([]core.Expense{
		{RowNumber: 2, Date: "2024/03/05", Amount: 12.5, Description: "coffee", Genre: ""},
		{RowNumber: 3, Date: "2024/03/06", Amount: 40, Description: "groceries", Genre: "食費"},
		{RowNumber: 4, Date: "2024/04/01", Amount: 7, Description: "bus", Genre: "交通費"},
	}, nil)

	pw := worker.NewPersistWorker(store, worker.DefaultPersistConfig())
	if err := pw.Start(context.Background()); err != nil {
		t.Fatalf("start persist worker: %v", err)
	}
	t.Cleanup(func() { pw.Stop(context.Background()) })

	records, err := store.FetchRecords(context.Background())
	if err != nil {
		t.Fatalf("fetch records: %v", err)
	}
	reg := category.New([]string{"食費", "交通費"}, services.NewQueuePersister(pw, nil), category.RenamePermissive)
	st := state.NewStore(records, reg, currency.Base, currency.DefaultRate)

	s := NewServer(":0", Deps{
		State:      st,
		Records:    services.NewRecordService(st, pw, nil),
		Categories: services.NewCategoryService(st),
		Rates:      rate.NewHolder(),
		Loading:    loading.NewSelector(1),
	})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		s.Shutdown(ctx)
	})
	return s, store
}

func doRequest(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Handler.ServeHTTP(w, r)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

func TestHealthEndpoints(t *testing.T) {
	s, _ := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		if w := doRequest(t, s, http.MethodGet, path, ""); w.Code != http.StatusOK {
			t.Errorf("%s status = %d", path, w.Code)
		}
	}
}

func TestListExpenses(t *testing.T) {
	s, _ := newTestServer(t)
	w := doRequest(t, s, http.MethodGet, "/api/expenses", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body struct {
		Records []core.Expense `json:"records"`
	}
	decodeBody(t, w, &body)
	if len(body.Records) != 3 {
		t.Errorf("records = %+v", body.Records)
	}
}

func TestUpdateExpense(t *testing.T) {
	s, store := newTestServer(t)

	w := doRequest(t, s, http.MethodPost, "/api/expenses", `{"rowNumber":2,"genre":"食費"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		recs, _ := store.FetchRecords(context.Background())
		if recs[0].Genre == "食費" {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Error("durable write never landed")
}

func TestUpdateExpenseErrors(t *testing.T) {
	s, _ := newTestServer(t)

	if w := doRequest(t, s, http.MethodPost, "/api/expenses", `{"rowNumber":99,"genre":"x"}`); w.Code != http.StatusNotFound {
		t.Errorf("unknown row status = %d", w.Code)
	}
	if w := doRequest(t, s, http.MethodPost, "/api/expenses", `{"rowNumber":2}`); w.Code != http.StatusBadRequest {
		t.Errorf("empty update status = %d", w.Code)
	}
	if w := doRequest(t, s, http.MethodPost, "/api/expenses", `not json`); w.Code != http.StatusBadRequest {
		t.Errorf("bad body status = %d", w.Code)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	s, _ := newTestServer(t)

	w := doRequest(t, s, http.MethodGet, "/api/settings", "")
	var body struct {
		Genres []string `json:"genres"`
	}
	decodeBody(t, w, &body)
	if len(body.Genres) != 2 || body.Genres[0] != "食費" {
		t.Fatalf("genres = %v", body.Genres)
	}

	w = doRequest(t, s, http.MethodPost, "/api/settings", `{"genres":["固定費","その他","その他",""]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("replace status = %d", w.Code)
	}
	decodeBody(t, w, &body)
	if len(body.Genres) != 2 || body.Genres[0] != "固定費" {
		t.Errorf("sanitized genres = %v", body.Genres)
	}
}

func TestPatchSettingsOps(t *testing.T) {
	s, _ := newTestServer(t)

	w := doRequest(t, s, http.MethodPatch, "/api/settings", `{"op":"add","label":"娯楽"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("add status = %d", w.Code)
	}

	w = doRequest(t, s, http.MethodPatch, "/api/settings", `{"op":"move","index":2,"direction":"up"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("move status = %d", w.Code)
	}
	var body struct {
		Genres []string `json:"genres"`
	}
	decodeBody(t, w, &body)
	if body.Genres[1] != "娯楽" {
		t.Errorf("genres after move = %v", body.Genres)
	}

	if w := doRequest(t, s, http.MethodPatch, "/api/settings", `{"op":"rename","index":50,"label":"x"}`); w.Code != http.StatusBadRequest {
		t.Errorf("out-of-range rename status = %d", w.Code)
	}
	if w := doRequest(t, s, http.MethodPatch, "/api/settings", `{"op":"frobnicate"}`); w.Code != http.StatusBadRequest {
		t.Errorf("unknown op status = %d", w.Code)
	}
}

func TestDashboard(t *testing.T) {
	s, _ := newTestServer(t)

	w := doRequest(t, s, http.MethodGet, "/api/dashboard?currency=jpy&month=2024/03", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var views state.Views
	decodeBody(t, w, &views)
	if views.Currency != "JPY" {
		t.Errorf("currency = %q", views.Currency)
	}
	// Month filter applies to the history view only, never to the
	// uncategorized list.
	if len(views.Uncategorized) != 1 {
		t.Errorf("uncategorized = %+v", views.Uncategorized)
	}
	for _, e := range views.History {
		if !strings.HasPrefix(e.Date, "2024/03") {
			t.Errorf("history leaked other months: %+v", e)
		}
	}

	// Second identical request is served from cache and matches.
	w2 := doRequest(t, s, http.MethodGet, "/api/dashboard?currency=jpy&month=2024/03", "")
	if w2.Body.String() != w.Body.String() {
		t.Error("cached dashboard response differs")
	}

	// A mutation invalidates the cached view.
	doRequest(t, s, http.MethodPost, "/api/expenses", `{"rowNumber":2,"genre":"食費"}`)
	w3 := doRequest(t, s, http.MethodGet, "/api/dashboard?currency=jpy&month=2024/03", "")
	var after state.Views
	decodeBody(t, w3, &after)
	if len(after.Uncategorized) != 0 {
		t.Errorf("uncategorized after categorize = %+v", after.Uncategorized)
	}
}

func TestRateEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	w := doRequest(t, s, http.MethodGet, "/api/rate", "")
	var body struct {
		Rate        float64 `json:"rate"`
		DefaultRate float64 `json:"defaultRate"`
	}
	decodeBody(t, w, &body)
	if body.Rate != currency.DefaultRate || body.DefaultRate != currency.DefaultRate {
		t.Errorf("body = %+v", body)
	}
}

func TestLoadingEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	w := doRequest(t, s, http.MethodGet, "/api/loading", "")
	var body struct {
		Variant  string   `json:"variant"`
		Variants []string `json:"variants"`
	}
	decodeBody(t, w, &body)
	if !loading.Known(body.Variant) {
		t.Errorf("variant = %q", body.Variant)
	}
	if len(body.Variants) != len(loading.Variants) {
		t.Errorf("variants = %v", body.Variants)
	}
}

func TestSecurityHeadersApplied(t *testing.T) {
	s, _ := newTestServer(t)
	w := doRequest(t, s, http.MethodGet, "/api/expenses", "")
	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if w.Header().Get("Content-Security-Policy") == "" {
		t.Error("missing CSP header")
	}
}
