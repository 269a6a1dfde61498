package tui

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/punchclock/internal/clock"
	"github.com/sadopc/punchclock/internal/store"
	"github.com/sadopc/punchclock/internal/tracker"
)

var start = time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC)

func newTestTracker(t *testing.T) (*tracker.Service, *clock.Manual) {
	t.Helper()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	clk := clock.NewManual(start)
	return tracker.NewService(s, clk, slog.New(slog.NewTextHandler(io.Discard, nil))), clk
}

// poll runs the fetch command and feeds its message back into the model.
func poll(t *testing.T, app App) App {
	t.Helper()
	msg := app.fetch()()
	model, _ := app.Update(msg)
	return model.(App)
}

type failingSource struct{}

func (failingSource) ActiveState(context.Context, int64) (*tracker.Session, error) {
	return nil, errors.New("database is locked")
}

// ============================================================
// Polling
// ============================================================

func TestAppIdle(t *testing.T) {
	svc, clk := newTestTracker(t)
	app := poll(t, NewApp(context.Background(), svc, clk, 1))

	if app.session == nil || app.session.Status != tracker.StateIdle {
		t.Fatalf("expected idle session, got %+v", app.session)
	}
	if out := app.View(); !strings.Contains(out, "IDLE") {
		t.Fatalf("view missing idle badge:\n%s", out)
	}
}

func TestAppWorkingAndBreak(t *testing.T) {
	svc, clk := newTestTracker(t)
	ctx := context.Background()
	if _, err := svc.Start(ctx, 1); err != nil {
		t.Fatal(err)
	}
	clk.Advance(90 * time.Minute)

	app := poll(t, NewApp(ctx, svc, clk, 1))
	app.width = 100
	out := app.View()
	if !strings.Contains(out, "WORKING") || !strings.Contains(out, "01:30:00") {
		t.Fatalf("unexpected working view:\n%s", out)
	}

	if _, err := svc.StartBreak(ctx, 1); err != nil {
		t.Fatal(err)
	}
	clk.Advance(10 * time.Minute)
	app = poll(t, app)
	out = app.View()
	if !strings.Contains(out, "ON BREAK") || !strings.Contains(out, "Breaks") {
		t.Fatalf("unexpected break view:\n%s", out)
	}
	if app.session.Live.Working != 90*time.Minute {
		t.Fatalf("working = %v, want 1h30m", app.session.Live.Working)
	}
}

func TestAppTickAdvancesLocally(t *testing.T) {
	svc, clk := newTestTracker(t)
	ctx := context.Background()
	svc.Start(ctx, 1)

	app := poll(t, NewApp(ctx, svc, clk, 1))
	clk.Advance(5 * time.Second)

	model, cmd := app.Update(tickMsg(clk.Now()))
	app = model.(App)
	if cmd == nil {
		t.Fatal("tick should schedule the next poll")
	}
	if app.session.Live.Elapsed != 5*time.Second {
		t.Fatalf("elapsed = %v, want 5s", app.session.Live.Elapsed)
	}
}

func TestAppPollError(t *testing.T) {
	app := poll(t, NewApp(context.Background(), failingSource{}, clock.NewManual(start), 1))
	if app.err == nil {
		t.Fatal("expected error to be kept")
	}
	if out := app.View(); !strings.Contains(out, "database is locked") {
		t.Fatalf("view missing error:\n%s", out)
	}
}

func TestAppLoadingState(t *testing.T) {
	app := NewApp(context.Background(), failingSource{}, nil, 1)
	if out := app.View(); !strings.Contains(out, "Loading") {
		t.Fatalf("expected loading text, got %q", out)
	}
}

// ============================================================
// Keys
// ============================================================

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestAppKeys(t *testing.T) {
	svc, clk := newTestTracker(t)
	app := NewApp(context.Background(), svc, clk, 1)

	model, _ := app.Update(keyMsg("?"))
	app = model.(App)
	if !app.showHelp || !app.help.ShowAll {
		t.Fatal("? should toggle full help")
	}

	model, _ = app.Update(keyMsg("b"))
	app = model.(App)
	if app.showBreaks {
		t.Fatal("b should hide breaks")
	}

	_, cmd := app.Update(keyMsg("r"))
	if cmd == nil {
		t.Fatal("r should trigger a refresh")
	}
	if _, ok := cmd().(sessionMsg); !ok {
		t.Fatal("refresh should produce a session message")
	}

	_, cmd = app.Update(keyMsg("q"))
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("q should produce tea.QuitMsg")
	}
}

func TestAppWindowSize(t *testing.T) {
	app := NewApp(context.Background(), failingSource{}, nil, 1)
	model, _ := app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	app = model.(App)
	if app.width != 120 || app.height != 40 || app.help.Width != 120 {
		t.Fatalf("size not applied: %dx%d", app.width, app.height)
	}
}

func TestKeyMapFullHelp(t *testing.T) {
	groups := keys.FullHelp()
	if len(groups) == 0 {
		t.Fatal("full help should have groups")
	}
	for i, g := range groups {
		if len(g) == 0 {
			t.Fatalf("full help group %d is empty", i)
		}
	}
	if len(keys.ShortHelp()) == 0 {
		t.Fatal("short help should have bindings")
	}
}

// ============================================================
// Rendering helpers
// ============================================================

func TestRenderBreaks(t *testing.T) {
	end := start.Add(time.Hour + 15*time.Minute)
	breaks := []store.Break{
		{StartTime: start.Add(time.Hour), EndTime: &end},
		{StartTime: start.Add(2 * time.Hour)},
	}
	out := renderBreaks(breaks, start.Add(2*time.Hour+5*time.Minute))
	if !strings.Contains(out, "0h 15m") || !strings.Contains(out, "0h 05m") {
		t.Fatalf("unexpected breaks rendering:\n%s", out)
	}
	if !strings.Contains(renderBreaks(nil, start), "No breaks") {
		t.Fatal("expected empty breaks text")
	}
}

func TestStatusLabel(t *testing.T) {
	for _, st := range []tracker.State{tracker.StateIdle, tracker.StateWorking, tracker.StateBreak} {
		label, style := statusLabel(st)
		if label == "" || style.Render(label) == "" {
			t.Fatalf("empty label for %s", st)
		}
	}
}
