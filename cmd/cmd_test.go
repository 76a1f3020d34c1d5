package cmd

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/example/slot-scheduler/internal/domain/user"
)

func TestVersionCmd(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	if err := root.Execute(); err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out.String(), "slotsched dev") {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestKeysCmd(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"keys"})
	if err := root.Execute(); err != nil {
		t.Fatalf("keys: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", out.String())
	}
	for _, l := range lines {
		_, v, ok := strings.Cut(l, "=")
		if !ok {
			t.Fatalf("malformed line %q", l)
		}
		b, err := base64.StdEncoding.DecodeString(v)
		if err != nil || len(b) != 32 {
			t.Fatalf("key %q decodes to %d bytes (%v)", v, len(b), err)
		}
	}
}

func TestCallerFlags(t *testing.T) {
	t.Parallel()

	c, err := callerFlags{id: "p1", role: "provider"}.caller()
	if err != nil || c != (user.Caller{ID: "p1", Role: user.RoleProvider}) {
		t.Fatalf("caller = %+v, %v", c, err)
	}
	if _, err := (callerFlags{id: "p1", role: "guest"}).caller(); err == nil {
		t.Fatalf("expected unknown role to fail")
	}
}

func TestSplitCSV(t *testing.T) {
	t.Parallel()

	got := splitCSV(" 10:00, ,09:00,")
	if len(got) != 2 || got[0] != "10:00" || got[1] != "09:00" {
		t.Fatalf("splitCSV = %q", got)
	}
	if splitCSV("") != nil {
		t.Fatalf("expected nil for empty input")
	}
}

func TestParseBound(t *testing.T) {
	t.Parallel()

	if b, err := parseBound("from", ""); b != nil || err != nil {
		t.Fatalf("empty bound = %v, %v", b, err)
	}
	b, err := parseBound("from", "2025-12-01T09:00:00Z")
	if err != nil || b.Hour() != 9 {
		t.Fatalf("bound = %v, %v", b, err)
	}
	if _, err := parseBound("to", "tomorrow"); err == nil {
		t.Fatalf("expected error for malformed bound")
	}
}
