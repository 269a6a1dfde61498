package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sadopc/punchclock/internal/httpapi"
)

type harness struct {
	t      *testing.T
	db     string
	config string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("PUNCHCLOCK_JWT_SECRET", "")
	t.Setenv("PUNCHCLOCK_DEFAULT_TIMEZONE", "")
	return &harness{
		t:      t,
		db:     filepath.Join(dir, "punchclock.db"),
		config: filepath.Join(dir, "config.toml"),
	}
}

// resetFlags restores every flag to its default. Cobra keeps flag state
// between Execute calls on the same command tree.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			sv.Replace(nil)
		} else {
			f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--db", h.db, "--config", h.config, "--log-level", "error"}, args...))
	err := rootCmd.Execute()
	teardown()
	return out.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	if err != nil {
		h.t.Fatalf("%v: %v\n%s", args, err, out)
	}
	return out
}

// ============================================================
// Session commands
// ============================================================

func TestSessionCommands(t *testing.T) {
	h := newHarness(t)

	if out := h.mustRun("status"); !strings.Contains(out, "idle") {
		t.Fatalf("expected idle, got %q", out)
	}
	if out := h.mustRun("start"); !strings.Contains(out, "Started work session #1") {
		t.Fatalf("unexpected start output %q", out)
	}

	_, err := h.run("start")
	if err == nil || errorText(err) != "a work session is already active" {
		t.Fatalf("expected conflict, got %v", err)
	}

	h.mustRun("break")
	if out := h.mustRun("status"); !strings.Contains(out, "Status:   break") || !strings.Contains(out, "On break:") {
		t.Fatalf("expected break status, got %q", out)
	}
	if _, err := h.run("break"); err == nil {
		t.Fatal("second break should fail")
	}

	h.mustRun("resume")
	out := h.mustRun("status", "--json")
	var sess struct {
		Status string `json:"status"`
		Breaks []any  `json:"breaks"`
	}
	if err := json.Unmarshal([]byte(out), &sess); err != nil {
		t.Fatalf("status json: %v\n%s", err, out)
	}
	if sess.Status != "working" || len(sess.Breaks) != 1 {
		t.Fatalf("unexpected session %+v", sess)
	}

	if out := h.mustRun("end"); !strings.Contains(out, "Ended work session #1") {
		t.Fatalf("unexpected end output %q", out)
	}
	if _, err := h.run("end"); err == nil || errorText(err) != "no active work session" {
		t.Fatalf("expected no active session, got %v", err)
	}
}

// ============================================================
// Entries
// ============================================================

func TestEntriesCommands(t *testing.T) {
	h := newHarness(t)

	if out := h.mustRun("entries", "ls"); !strings.Contains(out, "No entries yet.") {
		t.Fatalf("unexpected empty list %q", out)
	}

	out := h.mustRun("entries", "add", "--start", "2024-03-11 09:00", "--end", "17:00", "--break", "12:00..12:30")
	if !strings.Contains(out, "#1") || !strings.Contains(out, "7h 30m net") {
		t.Fatalf("unexpected add output %q", out)
	}

	_, err := h.run("entries", "add", "--start", "2024-03-11 18:00", "--end", "19:00", "--break", "17:00..17:10")
	if err == nil || !strings.Contains(errorText(err), "break") {
		t.Fatalf("expected break validation error, got %v", err)
	}

	out = h.mustRun("entries", "edit", "1", "--end", "18:00")
	if !strings.Contains(out, "8h 30m net") || !strings.Contains(out, "1 breaks") {
		t.Fatalf("unexpected edit output %q", out)
	}

	out = h.mustRun("entries", "edit", "1", "--replace-breaks", "--break", "13:00..13:15")
	if !strings.Contains(out, "8h 45m net") || !strings.Contains(out, "1 breaks") {
		t.Fatalf("unexpected replace output %q", out)
	}

	if out := h.mustRun("entries", "ls"); !strings.Contains(out, "2024-03-11  09:00 – 18:00") {
		t.Fatalf("unexpected list %q", out)
	}

	if _, err := h.run("entries", "rm", "1", "--user", "2"); err == nil {
		t.Fatal("another user must not delete the entry")
	}
	h.mustRun("entries", "rm", "1")
	if _, err := h.run("entries", "rm", "abc"); err == nil {
		t.Fatal("expected invalid id error")
	}
}

// ============================================================
// Settings
// ============================================================

func TestSettingsCommands(t *testing.T) {
	h := newHarness(t)

	if out := h.mustRun("settings"); !strings.Contains(out, "Timezone:             UTC") {
		t.Fatalf("unexpected settings %q", out)
	}
	out := h.mustRun("settings", "set", "--working-hours", "6", "--timezone", "Europe/Berlin")
	if !strings.Contains(out, "Working hours:        6") || !strings.Contains(out, "Europe/Berlin") {
		t.Fatalf("unexpected update %q", out)
	}
	if _, err := h.run("settings", "set", "--timezone", "Nowhere/City"); err == nil {
		t.Fatal("expected timezone error")
	}
	if _, err := h.run("settings", "set"); err == nil {
		t.Fatal("expected error for empty update")
	}
	// Untouched flags keep their stored values.
	if out := h.mustRun("settings", "show"); !strings.Contains(out, "Working hours:        6") {
		t.Fatalf("working hours reset: %q", out)
	}
}

// ============================================================
// Reports and shares
// ============================================================

func TestReportCommand(t *testing.T) {
	h := newHarness(t)
	h.mustRun("entries", "add", "--start", "2024-03-11 09:00", "--end", "17:00", "--break", "12:00..12:30")

	out := h.mustRun("report", "--date", "2024-03-11")
	if !strings.Contains(out, "Net work") || !strings.Contains(out, "Days worked:     1") ||
		!strings.Contains(out, "7h 30m") {
		t.Fatalf("unexpected table report %q", out)
	}

	out = h.mustRun("report", "--type", "weekly", "--date", "2024-03-13", "--format", "json")
	if !strings.Contains(out, `"label": "2024-W11"`) || !strings.Contains(out, `"totalNetWork": "7h 30m"`) {
		t.Fatalf("unexpected json report %s", out)
	}

	out = h.mustRun("report", "--start", "2024-03-11", "--end", "2024-03-11", "--format", "csv")
	if !strings.HasPrefix(out, "ID,Date,") {
		t.Fatalf("unexpected csv report %q", out)
	}

	path := filepath.Join(t.TempDir(), "march.csv")
	if out := h.mustRun("report", "--type", "monthly", "--date", "2024-03-01", "--format", "csv", "--out", path); !strings.Contains(out, "Wrote 1 entries") {
		t.Fatalf("unexpected export output %q", out)
	}

	if _, err := h.run("report", "--type", "yearly"); err == nil {
		t.Fatal("expected type validation error")
	}
	if _, err := h.run("report", "--start", "2024-03-11"); err == nil {
		t.Fatal("expected error when --end is missing")
	}
}

func TestShareCommands(t *testing.T) {
	h := newHarness(t)
	h.mustRun("entries", "add", "--start", "2024-03-11 09:00", "--end", "17:00")

	out := h.mustRun("share", "issue", "--date", "2024-03-11", "--days", "0")
	token := strings.TrimSpace(strings.SplitN(out, "\n", 2)[0])
	if len(token) != 32 || !strings.Contains(out, "never expires") {
		t.Fatalf("unexpected issue output %q", out)
	}

	if out := h.mustRun("share", "issue", "--date", "2024-03-11"); !strings.Contains(out, "expires ") {
		t.Fatalf("settings default should set an expiry: %q", out)
	}

	if out := h.mustRun("share", "resolve", token); !strings.Contains(out, "8h 00m") {
		t.Fatalf("unexpected resolve output %q", out)
	}
	if out := h.mustRun("share", "ls"); !strings.Contains(out, token) {
		t.Fatalf("share list missing token: %q", out)
	}

	if _, err := h.run("share", "revoke", token, "--user", "2"); err == nil {
		t.Fatal("another user must not revoke the share")
	}
	h.mustRun("share", "revoke", token)
	if _, err := h.run("share", "resolve", token); err == nil || !strings.Contains(errorText(err), "not found") {
		t.Fatalf("expected not found after revoke, got %v", err)
	}

	h.mustRun("settings", "set", "--allow-sharing=false")
	if _, err := h.run("share", "issue", "--date", "2024-03-11"); err == nil {
		t.Fatal("expected sharing disabled error")
	}
}

// ============================================================
// Misc commands
// ============================================================

func TestMigrateCommand(t *testing.T) {
	h := newHarness(t)
	out := h.mustRun("migrate")
	if !strings.Contains(out, "Schema version") || !strings.Contains(out, "dirty: false") {
		t.Fatalf("unexpected migrate output %q", out)
	}
}

func TestTokenCommand(t *testing.T) {
	h := newHarness(t)
	if _, err := h.run("token"); err == nil {
		t.Fatal("expected missing secret error")
	}

	t.Setenv("PUNCHCLOCK_JWT_SECRET", "test-secret")
	out := h.mustRun("token", "--user", "7", "--ttl", "1h")
	id, err := httpapi.ParseToken("test-secret", strings.TrimSpace(out))
	if err != nil {
		t.Fatalf("parse minted token: %v", err)
	}
	if id != 7 {
		t.Fatalf("token user = %d, want 7", id)
	}
}

func TestInvalidLogLevel(t *testing.T) {
	h := newHarness(t)
	if _, err := h.run("status", "--log-level", "loud"); err == nil {
		t.Fatal("expected log level error")
	}
}

// ============================================================
// Parsing helpers
// ============================================================

func TestParseWhen(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata not available")
	}
	base := time.Date(2024, 3, 11, 20, 0, 0, 0, ny)

	tests := []struct {
		raw  string
		want time.Time
	}{
		{"09:30", time.Date(2024, 3, 11, 9, 30, 0, 0, ny)},
		{"2024-03-12 08:00", time.Date(2024, 3, 12, 8, 0, 0, 0, ny)},
		{"2024-03-12T08:00", time.Date(2024, 3, 12, 8, 0, 0, 0, ny)},
		{"2024-03-12T08:00:00Z", time.Date(2024, 3, 12, 8, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := parseWhen(tt.raw, base, ny)
		if err != nil {
			t.Fatalf("parseWhen(%q): %v", tt.raw, err)
		}
		if !got.Equal(tt.want) {
			t.Errorf("parseWhen(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
	if _, err := parseWhen("noon", base, ny); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestParseBreak(t *testing.T) {
	base := time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC)

	b, err := parseBreak("12:00..12:30", base, time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	if !b.New || b.EndTime == nil || b.EndTime.Sub(*b.StartTime) != 30*time.Minute {
		t.Fatalf("unexpected break %+v", b)
	}

	open, err := parseBreak("15:00..", base, time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	if open.EndTime != nil {
		t.Fatal("expected open break")
	}

	if _, err := parseBreak("12:00-12:30", base, time.UTC); err == nil {
		t.Fatal("expected separator error")
	}
}
