package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sadopc/punchclock/internal/clock"
	"github.com/sadopc/punchclock/internal/report"
	"github.com/sadopc/punchclock/internal/store"
	"github.com/sadopc/punchclock/internal/tracker"
)

const secret = "test-secret"

var day = time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)

func at(h, m int) time.Time {
	return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Kind    string          `json:"kind"`
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
	clock  *clock.Manual
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	clk := clock.NewManual(at(9, 0))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := NewRouter(
		tracker.NewService(s, clk, logger),
		report.NewService(s, clk, logger),
		Options{JWTSecret: secret, Logger: logger, Health: s, Clock: clk},
	)
	return &testServer{t: t, router: router, clock: clk}
}

func (ts *testServer) token(userID int64) string {
	ts.t.Helper()
	tok, err := IssueToken(secret, userID, time.Hour)
	if err != nil {
		ts.t.Fatalf("issue token: %v", err)
	}
	return tok
}

func (ts *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	ts.t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			ts.t.Fatal(err)
		}
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, wantStatus int) envelope {
	t.Helper()
	if w.Code != wantStatus {
		t.Fatalf("status = %d, want %d (body %s)", w.Code, wantStatus, w.Body.String())
	}
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode body: %v (%s)", err, w.Body.String())
	}
	return env
}

// ============================================================
// Auth & middleware
// ============================================================

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(http.MethodGet, "/api/health", "", nil)
	env := decode(t, w, http.StatusOK)
	if !env.Success {
		t.Fatal("expected success")
	}
	if w.Header().Get(HeaderRequestID) == "" {
		t.Fatal("missing request id header")
	}
}

func TestAuthRequired(t *testing.T) {
	ts := newTestServer(t)

	env := decode(t, ts.do(http.MethodGet, "/api/session", "", nil), http.StatusUnauthorized)
	if env.Success || env.Error != "missing authorization" {
		t.Fatalf("unexpected body %+v", env)
	}
	decode(t, ts.do(http.MethodGet, "/api/session", "garbage", nil), http.StatusUnauthorized)

	other, _ := IssueToken("another-secret", 1, time.Hour)
	decode(t, ts.do(http.MethodGet, "/api/session", other, nil), http.StatusUnauthorized)

	expired, _ := IssueToken(secret, 1, -time.Minute)
	decode(t, ts.do(http.MethodGet, "/api/session", expired, nil), http.StatusUnauthorized)
}

func TestParseToken(t *testing.T) {
	tok, err := IssueToken(secret, 42, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	id, err := ParseToken(secret, tok)
	if err != nil {
		t.Fatal(err)
	}
	if id != 42 {
		t.Fatalf("user id = %d, want 42", id)
	}
	if _, err := IssueToken("", 1, time.Hour); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

func TestRequestIDPropagated(t *testing.T) {
	ts := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set(HeaderRequestID, "0b7e5f7a-6f3e-4b8a-9f77-0f1b1c2d3e4f")
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	if got := w.Header().Get(HeaderRequestID); got != "0b7e5f7a-6f3e-4b8a-9f77-0f1b1c2d3e4f" {
		t.Fatalf("request id = %q", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(http.MethodOptions, "/api/session", "", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("missing CORS header")
	}
}

// ============================================================
// Session
// ============================================================

func TestSessionFlow(t *testing.T) {
	ts := newTestServer(t)
	tok := ts.token(1)

	decode(t, ts.do(http.MethodPost, "/api/session/start", tok, nil), http.StatusCreated)
	env := decode(t, ts.do(http.MethodPost, "/api/session/start", tok, nil), http.StatusConflict)
	if env.Kind != "conflict" {
		t.Fatalf("kind = %q", env.Kind)
	}

	ts.clock.Set(at(12, 0))
	decode(t, ts.do(http.MethodPost, "/api/session/break/start", tok, nil), http.StatusCreated)
	ts.clock.Set(at(12, 30))

	env = decode(t, ts.do(http.MethodGet, "/api/session", tok, nil), http.StatusOK)
	var state struct {
		Status string `json:"status"`
		Live   struct {
			WorkingMs int64  `json:"workingMs"`
			Working   string `json:"working"`
		} `json:"live"`
	}
	if err := json.Unmarshal(env.Data, &state); err != nil {
		t.Fatal(err)
	}
	if state.Status != "break" || state.Live.Working != "3h 00m" {
		t.Fatalf("unexpected state %+v", state)
	}

	env = decode(t, ts.do(http.MethodPost, "/api/session/end", tok, nil), http.StatusOK)
	var entry store.TimeEntry
	if err := json.Unmarshal(env.Data, &entry); err != nil {
		t.Fatal(err)
	}
	if entry.Status != store.StatusCompleted || len(entry.Breaks) != 1 || entry.Breaks[0].EndTime == nil {
		t.Fatalf("unexpected ended entry %+v", entry)
	}

	decode(t, ts.do(http.MethodPost, "/api/session/end", tok, nil), http.StatusConflict)
}

// ============================================================
// Entries & settings
// ============================================================

func TestEntriesCRUD(t *testing.T) {
	ts := newTestServer(t)
	tok := ts.token(1)

	bad := map[string]any{"startTime": at(17, 0), "endTime": at(9, 0)}
	env := decode(t, ts.do(http.MethodPost, "/api/entries", tok, bad), http.StatusBadRequest)
	if env.Kind != "validation" {
		t.Fatalf("kind = %q", env.Kind)
	}

	body := map[string]any{
		"startTime": at(9, 0),
		"endTime":   at(17, 0),
		"breaks":    []map[string]any{{"startTime": at(12, 0), "endTime": at(13, 0)}},
	}
	env = decode(t, ts.do(http.MethodPost, "/api/entries", tok, body), http.StatusCreated)
	var entry store.TimeEntry
	json.Unmarshal(env.Data, &entry)
	if entry.ID == 0 || len(entry.Breaks) != 1 {
		t.Fatalf("unexpected entry %+v", entry)
	}

	path := "/api/entries/" + itoa(entry.ID)
	decode(t, ts.do(http.MethodGet, path, tok, nil), http.StatusOK)
	decode(t, ts.do(http.MethodGet, path, ts.token(2), nil), http.StatusNotFound)
	decode(t, ts.do(http.MethodPut, path, ts.token(2), body), http.StatusNotFound)
	decode(t, ts.do(http.MethodDelete, path, ts.token(2), nil), http.StatusNotFound)

	env = decode(t, ts.do(http.MethodPost, path+"/breaks", tok, map[string]any{
		"startTime": at(15, 0), "endTime": at(15, 15),
	}), http.StatusCreated)
	json.Unmarshal(env.Data, &entry)
	if len(entry.Breaks) != 2 {
		t.Fatalf("expected 2 breaks, got %d", len(entry.Breaks))
	}

	decode(t, ts.do(http.MethodDelete, "/api/breaks/"+itoa(entry.Breaks[1].ID), tok, nil), http.StatusOK)

	env = decode(t, ts.do(http.MethodGet, "/api/entries?limit=5", tok, nil), http.StatusOK)
	var list []store.TimeEntry
	json.Unmarshal(env.Data, &list)
	if len(list) != 1 || len(list[0].Breaks) != 1 {
		t.Fatalf("unexpected list %+v", list)
	}

	decode(t, ts.do(http.MethodDelete, path, tok, nil), http.StatusOK)
	decode(t, ts.do(http.MethodGet, "/api/entries?limit=abc", tok, nil), http.StatusBadRequest)
	decode(t, ts.do(http.MethodDelete, "/api/entries/zero", tok, nil), http.StatusBadRequest)
}

func TestSettingsEndpoints(t *testing.T) {
	ts := newTestServer(t)
	tok := ts.token(1)

	env := decode(t, ts.do(http.MethodGet, "/api/settings", tok, nil), http.StatusOK)
	var us store.UserSettings
	json.Unmarshal(env.Data, &us)
	if us.WorkingHours != 8 || us.Theme != store.ThemeSystem {
		t.Fatalf("unexpected defaults %+v", us)
	}

	decode(t, ts.do(http.MethodPatch, "/api/settings", tok, map[string]any{"theme": "neon"}), http.StatusBadRequest)

	env = decode(t, ts.do(http.MethodPatch, "/api/settings", tok, map[string]any{"workingHours": 6}), http.StatusOK)
	json.Unmarshal(env.Data, &us)
	if us.WorkingHours != 6 || us.Theme != store.ThemeSystem {
		t.Fatalf("unexpected patched settings %+v", us)
	}
}

// ============================================================
// Reports & shares
// ============================================================

func seedDay(ts *testServer, tok string) {
	ts.t.Helper()
	body := map[string]any{
		"startTime": at(9, 0),
		"endTime":   at(17, 0),
		"breaks":    []map[string]any{{"startTime": at(12, 0), "endTime": at(13, 0)}},
	}
	decode(ts.t, ts.do(http.MethodPost, "/api/entries", tok, body), http.StatusCreated)
}

func TestReportEndpoints(t *testing.T) {
	ts := newTestServer(t)
	tok := ts.token(1)
	seedDay(ts, tok)

	env := decode(t, ts.do(http.MethodGet, "/api/reports?type=weekly&date=2024-03-13", tok, nil), http.StatusOK)
	var rep struct {
		Label   string `json:"label"`
		Summary struct {
			TotalNetWork string `json:"totalNetWork"`
			DaysWorked   int    `json:"daysWorked"`
		} `json:"summary"`
	}
	json.Unmarshal(env.Data, &rep)
	if rep.Label != "2024-W11" || rep.Summary.TotalNetWork != "7h 00m" || rep.Summary.DaysWorked != 1 {
		t.Fatalf("unexpected report %+v", rep)
	}

	// Without dates: today in the user's timezone.
	env = decode(t, ts.do(http.MethodGet, "/api/reports", tok, nil), http.StatusOK)
	json.Unmarshal(env.Data, &rep)
	if rep.Label != "2024-03-11" {
		t.Fatalf("label = %q", rep.Label)
	}

	decode(t, ts.do(http.MethodGet, "/api/reports?type=yearly", tok, nil), http.StatusBadRequest)
	decode(t, ts.do(http.MethodGet, "/api/reports?start=2024-03-12&end=2024-03-11", tok, nil), http.StatusBadRequest)

	w := ts.do(http.MethodGet, "/api/reports/export?format=csv&start=2024-03-11&end=2024-03-11", tok, nil)
	if w.Code != http.StatusOK || !strings.HasPrefix(w.Header().Get("Content-Type"), "text/csv") {
		t.Fatalf("csv export: status %d, type %q", w.Code, w.Header().Get("Content-Type"))
	}
	if !strings.Contains(w.Body.String(), "7h 00m") {
		t.Fatalf("csv body missing net work: %s", w.Body.String())
	}
	decode(t, ts.do(http.MethodGet, "/api/reports/export?format=xml", tok, nil), http.StatusBadRequest)
}

func TestShareEndpoints(t *testing.T) {
	ts := newTestServer(t)
	tok := ts.token(1)
	seedDay(ts, tok)

	env := decode(t, ts.do(http.MethodPost, "/api/shares", tok, map[string]any{
		"reportType": "daily", "startDate": "2024-03-11", "endDate": "2024-03-11",
	}), http.StatusCreated)
	var share store.SharedReport
	json.Unmarshal(env.Data, &share)
	if share.ShareToken == "" || share.ExpiresAt == nil {
		t.Fatalf("expected default expiry from settings, got %+v", share)
	}
	if !share.ExpiresAt.Equal(at(9, 0).AddDate(0, 0, 7)) {
		t.Fatalf("expires = %v", share.ExpiresAt)
	}

	// Public resolution needs no token.
	env = decode(t, ts.do(http.MethodGet, "/api/shared/"+share.ShareToken, "", nil), http.StatusOK)
	if !strings.Contains(string(env.Data), `"totalNetWork":"7h 00m"`) {
		t.Fatalf("unexpected shared report %s", env.Data)
	}

	env = decode(t, ts.do(http.MethodGet, "/api/shares", tok, nil), http.StatusOK)
	var list []store.SharedReport
	json.Unmarshal(env.Data, &list)
	if len(list) != 1 {
		t.Fatalf("expected 1 share, got %d", len(list))
	}

	ts.clock.Advance(8 * 24 * time.Hour)
	env = decode(t, ts.do(http.MethodGet, "/api/shared/"+share.ShareToken, "", nil), http.StatusGone)
	if env.Kind != "expired" {
		t.Fatalf("kind = %q", env.Kind)
	}

	decode(t, ts.do(http.MethodDelete, "/api/shares/"+share.ShareToken, ts.token(2), nil), http.StatusNotFound)
	decode(t, ts.do(http.MethodDelete, "/api/shares/"+share.ShareToken, tok, nil), http.StatusOK)
	decode(t, ts.do(http.MethodGet, "/api/shared/"+share.ShareToken, "", nil), http.StatusNotFound)
}

func TestShareWithoutExpiry(t *testing.T) {
	ts := newTestServer(t)
	tok := ts.token(1)

	env := decode(t, ts.do(http.MethodPost, "/api/shares", tok, map[string]any{
		"reportType": "monthly", "startDate": "2024-03-01", "endDate": "2024-03-31", "expiresInDays": 0,
	}), http.StatusCreated)
	var share store.SharedReport
	json.Unmarshal(env.Data, &share)
	if share.ExpiresAt != nil {
		t.Fatalf("expected no expiry, got %v", share.ExpiresAt)
	}

	decode(t, ts.do(http.MethodPost, "/api/shares", tok, map[string]any{
		"reportType": "daily", "startDate": "11/03/2024", "endDate": "2024-03-11",
	}), http.StatusBadRequest)
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
