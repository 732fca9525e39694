package state

import (
	"os"
	"path/filepath"
	"testing"
)

func TestThemeRoundTrip(t *testing.T) {
	s := NewStore("")
	if got := s.Theme("dark"); got != "dark" {
		t.Fatalf("unset theme = %q, want fallback dark", got)
	}
	s.SetTheme("light")
	if got := s.Theme("dark"); got != "light" {
		t.Fatalf("theme = %q, want light", got)
	}
}

func TestCollapsedFlag(t *testing.T) {
	s := NewStore("")
	if !s.Collapsed("g1", true) {
		t.Fatal("unset group should use fallback")
	}
	s.SetCollapsed("g1", true)
	if !s.Collapsed("g1", false) {
		t.Fatal("collapsed flag should persist")
	}
	s.SetCollapsed("g1", false)
	if s.Collapsed("g1", true) {
		t.Fatal("expanded flag should override fallback")
	}
}

func TestPersistenceAcrossRestarts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	s := NewStore(path)
	s.SetTheme("light")
	s.SetCollapsed("services", true)

	reopened := NewStore(path)
	if got := reopened.Theme("dark"); got != "light" {
		t.Fatalf("theme after restart = %q, want light", got)
	}
	if !reopened.Collapsed("services", false) {
		t.Fatal("collapsed flag should survive restart")
	}
}

func TestCorruptStateFileIgnored(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewStore(path)
	if got := s.Theme("dark"); got != "dark" {
		t.Fatalf("store with corrupt file should start empty, theme = %q", got)
	}
	// Writes still work afterwards.
	s.SetTheme("light")
	if got := s.Theme("dark"); got != "light" {
		t.Fatalf("theme = %q, want light", got)
	}
}
