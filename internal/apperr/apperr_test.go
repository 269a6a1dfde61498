package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("outer: %w", Conflicting("already running"))
	if KindOf(err) != Conflict {
		t.Fatalf("KindOf = %v, want conflict", KindOf(err))
	}
	if !Is(err, Conflict) || Is(err, NotFound) {
		t.Fatal("Is mismatch")
	}
}

func TestMessageHidesCause(t *testing.T) {
	cause := errors.New("database is locked")
	err := Storage("failed to save entry", cause)
	if Message(err) != "failed to save entry" {
		t.Fatalf("Message = %q", Message(err))
	}
	if !errors.Is(err, cause) {
		t.Fatal("cause should be reachable through Unwrap")
	}
	if Message(cause) != "internal error" {
		t.Fatalf("unclassified message = %q", Message(cause))
	}
	if KindOf(cause) != Persistence {
		t.Fatalf("unclassified kind = %v", KindOf(cause))
	}
}

func TestWrap(t *testing.T) {
	ok := Wrap(42, nil)
	if !ok.Success || ok.Data != 42 || ok.Error != "" {
		t.Fatalf("ok result = %+v", ok)
	}

	bad := Wrap(0, Missing("time entry"))
	if bad.Success {
		t.Fatal("expected failure")
	}
	if bad.Error != "time entry not found or access denied" || bad.Kind != "not_found" {
		t.Fatalf("bad result = %+v", bad)
	}
}

func TestKindString(t *testing.T) {
	for k, want := range map[Kind]string{
		Validation:  "validation",
		NotFound:    "not_found",
		Conflict:    "conflict",
		Expired:     "expired",
		Persistence: "persistence",
		Kind(99):    "unknown",
	} {
		if k.String() != want {
			t.Errorf("Kind(%d).String() = %q, want %q", k, k.String(), want)
		}
	}
}
