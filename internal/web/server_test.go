package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/datagrid/internal/config"
	"github.com/JonMunkholm/datagrid/internal/core"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			RequestTimeout: 5 * time.Second,
		},
		Import: config.ImportConfig{
			MaxFileSize: 1024,
			MaxWaitTime: 50 * time.Millisecond,
			Timeout:     5 * time.Second,
		},
	}
}

type testServer struct {
	*Server
	store   *core.Store
	limiter *core.ImportLimiter
}

func newTestServer(t *testing.T, mutate ...func(*config.Config)) *testServer {
	t.Helper()
	cfg := testConfig()
	for _, m := range mutate {
		m(cfg)
	}
	store := core.NewStore(core.WithRows(core.SampleRows()))
	limiter := core.NewImportLimiter(1, cfg.Import.MaxWaitTime)
	return &testServer{Server: NewServer(store, limiter, cfg), store: store, limiter: limiter}
}

func (ts *testServer) do(t *testing.T, method, path, contentType string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	ts.Router().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response: %v (%s)", err, rec.Body.String())
	}
	return v
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decode[map[string]any](t, rec)
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers missing")
	}
}

func TestStateAndView(t *testing.T) {
	ts := newTestServer(t)

	snap := decode[core.Snapshot](t, ts.do(t, http.MethodGet, "/api/state", "", nil))
	if len(snap.Rows) != 5 || len(snap.Columns) != 6 {
		t.Errorf("state has %d rows, %d columns", len(snap.Rows), len(snap.Columns))
	}

	view := decode[core.View](t, ts.do(t, http.MethodGet, "/api/view", "", nil))
	if view.Total != 5 || len(view.Rows) != 5 || view.PageCount != 1 {
		t.Errorf("view = total %d, rows %d, pages %d", view.Total, len(view.Rows), view.PageCount)
	}
	if len(view.Columns) != 4 {
		t.Errorf("view has %d columns, want the 4 visible ones", len(view.Columns))
	}
}

func TestListActions(t *testing.T) {
	ts := newTestServer(t)
	body := decode[map[string][]string](t, ts.do(t, http.MethodGet, "/api/actions", "", nil))
	found := false
	for _, name := range body["actions"] {
		if name == "set-search-query" {
			found = true
		}
	}
	if !found {
		t.Errorf("actions = %v, missing set-search-query", body["actions"])
	}
}

func TestDispatch(t *testing.T) {
	tests := []struct {
		name        string
		action      string
		payload     string
		wantStatus  int
		wantChanged bool
		wantCode    string
	}{
		{"search", "set-search-query", `{"query":"jane"}`, http.StatusOK, true, ""},
		{"no payload", "toggle-theme", ``, http.StatusOK, true, ""},
		{"unchanged", "set-page", `{"page":0}`, http.StatusOK, false, ""},
		{"unknown action", "drop-table", `{}`, http.StatusBadRequest, false, "GRID001"},
		{"unknown field", "set-page", `{"pg":2}`, http.StatusBadRequest, false, "GRID002"},
		{"malformed json", "delete-row", `{"id":`, http.StatusBadRequest, false, "GRID002"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			rec := ts.do(t, http.MethodPost, "/api/actions/"+tt.action, "application/json", strings.NewReader(tt.payload))
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantCode != "" {
				if got := decode[ErrorResponse](t, rec); got.Code != tt.wantCode {
					t.Errorf("code = %q, want %q", got.Code, tt.wantCode)
				}
				return
			}
			if res := decode[core.Result](t, rec); res.Changed != tt.wantChanged {
				t.Errorf("changed = %v, want %v", res.Changed, tt.wantChanged)
			}
		})
	}
}

func TestDispatch_SearchNarrowsView(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodPost, "/api/actions/set-search-query", "application/json", strings.NewReader(`{"query":"jane"}`))

	view := decode[core.View](t, ts.do(t, http.MethodGet, "/api/view", "", nil))
	if view.Total != 1 || view.Rows[0].ID != "2" {
		t.Errorf("view after search = %+v", view)
	}
}

func TestDispatch_DraftValidationErrors(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodPost, "/api/actions/start-editing", "application/json", strings.NewReader(`{"id":"1"}`))

	rec := ts.do(t, http.MethodPost, "/api/actions/update-editing-draft", "application/json",
		strings.NewReader(`{"id":"1","data":{"email":"not-an-email"}}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	res := decode[core.Result](t, rec)
	if res.Changed || len(res.Errors) != 1 || res.Errors[0].Field != "email" {
		t.Errorf("result = %+v, want one email error and no change", res)
	}
}

func TestImport(t *testing.T) {
	valid := "Name,Email,Age\r\nZed,zed@example.com,40\r\nYves,yves@example.com,\r\n"
	withRowError := "Name,Email\r\n,nobody@example.com\r\nZed,zed@example.com\r\n"

	tests := []struct {
		name        string
		path        string
		body        string
		wantSuccess bool
		wantApplied bool
		wantRows    int
	}{
		{"clean file replaces data", "/api/import", valid, true, true, 2},
		{"row errors keep data", "/api/import", withRowError, false, false, 5},
		{"partial applies accepted rows", "/api/import?partial=true", withRowError, false, true, 1},
		{"unparseable file", "/api/import?partial=true", "Name,Email\n\"open", false, false, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			rec := ts.do(t, http.MethodPost, tt.path, "text/csv", strings.NewReader(tt.body))
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200 (%s)", rec.Code, rec.Body.String())
			}
			res := decode[importResponse](t, rec)
			if res.Success != tt.wantSuccess || res.Applied != tt.wantApplied {
				t.Errorf("success = %v applied = %v, want %v %v", res.Success, res.Applied, tt.wantSuccess, tt.wantApplied)
			}
			if got := len(ts.store.Snapshot().Rows); got != tt.wantRows {
				t.Errorf("store has %d rows, want %d", got, tt.wantRows)
			}
			if tt.wantApplied && res.Version != ts.store.Version() {
				t.Errorf("response version = %d, store version = %d", res.Version, ts.store.Version())
			}
		})
	}
}

func TestImport_Multipart(t *testing.T) {
	ts := newTestServer(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	mw.WriteField("note", "ignored")
	fw, err := mw.CreateFormFile("file", "people.csv")
	if err != nil {
		t.Fatal(err)
	}
	io.WriteString(fw, "email,name\r\nzed@example.com,Zed\r\n")
	mw.Close()

	rec := ts.do(t, http.MethodPost, "/api/import", mw.FormDataContentType(), &body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
	}
	rows := ts.store.Snapshot().Rows
	if len(rows) != 1 || rows[0].Get("name").String() != "Zed" {
		t.Errorf("rows = %+v", rows)
	}
}

func TestImport_Errors(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name        string
		contentType string
		body        string
		wantStatus  int
		wantCode    string
	}{
		{"empty body", "text/csv", "", http.StatusBadRequest, "FILE003"},
		{"too large", "text/csv", strings.Repeat("x", 2048), http.StatusRequestEntityTooLarge, "FILE001"},
		{"multipart without file", "multipart/form-data; boundary=xyz", "--xyz--\r\n", http.StatusBadRequest, "FILE003"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodPost, "/api/import", tt.contentType, strings.NewReader(tt.body))
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if got := decode[ErrorResponse](t, rec); got.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", got.Code, tt.wantCode)
			}
		})
	}

	if got := len(ts.store.Snapshot().Rows); got != 5 {
		t.Errorf("failed uploads changed the store: %d rows", got)
	}
}

func TestImport_Busy(t *testing.T) {
	ts := newTestServer(t)
	if !ts.limiter.TryAcquire() {
		t.Fatal("TryAcquire() = false on an idle limiter")
	}
	defer ts.limiter.Release()

	status := decode[core.ImportLimiterStatus](t, ts.do(t, http.MethodGet, "/api/import/status", "", nil))
	if status.Active != 1 || status.Available != 0 {
		t.Errorf("status = %+v", status)
	}

	rec := ts.do(t, http.MethodPost, "/api/import", "text/csv", strings.NewReader("Name,Email\r\n"))
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	if got := decode[ErrorResponse](t, rec); got.Code != "IMP001" {
		t.Errorf("code = %q, want IMP001", got.Code)
	}
}

// gateReader blocks the first read until open is closed.
type gateReader struct{ open <-chan struct{} }

func (g gateReader) Read([]byte) (int, error) {
	<-g.open
	return 0, io.EOF
}

func TestImport_TimeoutHoldsSlotUntilParseEnds(t *testing.T) {
	ts := newTestServer(t, func(c *config.Config) { c.Import.Timeout = 20 * time.Millisecond })

	open := make(chan struct{})
	ts.importer = func(ctx context.Context, r io.Reader, columns []core.Column) *core.ImportTask {
		return core.Import(ctx, io.MultiReader(gateReader{open: open}, r), columns)
	}

	rec := ts.do(t, http.MethodPost, "/api/import", "text/csv", strings.NewReader("Name,Email\r\nZed,zed@example.com\r\n"))
	if rec.Code != http.StatusGatewayTimeout {
		t.Fatalf("status = %d, want 504 (%s)", rec.Code, rec.Body.String())
	}

	if got := ts.limiter.ActiveCount(); got != 1 {
		t.Errorf("active imports after timeout = %d, want 1", got)
	}
	rec = ts.do(t, http.MethodPost, "/api/import", "text/csv", strings.NewReader("Name,Email\r\n"))
	if rec.Code != http.StatusConflict {
		t.Errorf("second import status = %d, want 409", rec.Code)
	}

	close(open)
	deadline := time.Now().Add(2 * time.Second)
	for ts.limiter.ActiveCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("import slot not released after the parse ended")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if got := len(ts.store.Snapshot().Rows); got != 5 {
		t.Errorf("timed out import changed the store: %d rows", got)
	}
}

func TestExport(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodPost, "/api/actions/set-search-query", "application/json", strings.NewReader(`{"query":"developer"}`))
	ts.do(t, http.MethodPost, "/api/actions/set-sort-spec", "application/json", strings.NewReader(`{"field":"age","direction":"desc"}`))

	tests := []struct {
		scope     string
		wantLines []string
	}{
		{"", []string{"Name,Email,Age,Role", "John Doe,john@example.com,30,Developer"}},
		{"view", []string{"Name,Email,Age,Role", "Alice Brown,alice@example.com,32,Developer", "John Doe,john@example.com,30,Developer"}},
	}

	for _, tt := range tests {
		t.Run("scope="+tt.scope, func(t *testing.T) {
			rec := ts.do(t, http.MethodGet, "/api/export?scope="+tt.scope, "", nil)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
				t.Errorf("Content-Type = %q", ct)
			}
			if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "table_export_") {
				t.Errorf("Content-Disposition = %q", cd)
			}
			lines := strings.Split(strings.TrimSuffix(rec.Body.String(), "\r\n"), "\r\n")
			for i, want := range tt.wantLines {
				if i >= len(lines) || lines[i] != want {
					t.Fatalf("lines = %q, want prefix %q", lines, tt.wantLines)
				}
			}
			if tt.scope == "view" && len(lines) != 3 {
				t.Errorf("view export has %d lines, want 3", len(lines))
			}
			if tt.scope == "" && len(lines) != 6 {
				t.Errorf("full export has %d lines, want 6", len(lines))
			}
		})
	}

	if rec := ts.do(t, http.MethodGet, "/api/export?scope=page", "", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown scope status = %d, want 400", rec.Code)
	}
}

func TestTemplate(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/api/template", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	want := "Name,Email,Age,Role,Department,Location\r\n"
	if rec.Body.String() != want {
		t.Errorf("template = %q, want %q", rec.Body.String(), want)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "table_template.csv") {
		t.Errorf("Content-Disposition = %q", cd)
	}
}

func TestAPIKeyRequiredForMutations(t *testing.T) {
	ts := newTestServer(t, func(c *config.Config) { c.Server.APIKeys = []string{"secret"} })

	if rec := ts.do(t, http.MethodGet, "/api/view", "", nil); rec.Code != http.StatusOK {
		t.Errorf("GET without key = %d, want 200", rec.Code)
	}
	if rec := ts.do(t, http.MethodPost, "/api/actions/toggle-theme", "", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("POST without key = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/actions/toggle-theme", nil)
	req.Header.Set("X-API-Key", "secret")
	rec := httptest.NewRecorder()
	ts.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("POST with key = %d, want 200", rec.Code)
	}
}

func TestRateLimit(t *testing.T) {
	ts := newTestServer(t, func(c *config.Config) { c.Server.RateLimit = 2 })

	for i := 0; i < 2; i++ {
		if rec := ts.do(t, http.MethodGet, "/healthz", "", nil); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i, rec.Code)
		}
	}
	rec := ts.do(t, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("third request status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After")
	}
}

func TestRateLimiter_WindowReset(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := newRateLimiter(1, time.Minute)
	rl.now = func() time.Time { return now }
	rl.lastCleanup = now

	if !rl.allow("a") {
		t.Fatal("first request denied")
	}
	if rl.allow("a") {
		t.Fatal("second request in window allowed")
	}
	if !rl.allow("b") {
		t.Fatal("other client denied")
	}

	now = now.Add(90 * time.Second)
	if !rl.allow("a") {
		t.Error("request after window denied")
	}

	now = now.Add(5 * time.Minute)
	rl.allow("c")
	if _, ok := rl.visitors["b"]; ok {
		t.Error("stale visitor not swept")
	}
}
