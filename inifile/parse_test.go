package inifile

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	t.Run("empty file", func(t *testing.T) {
		f, err := Parse(strings.NewReader(""))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(f.Sections) != 0 {
			t.Errorf("expected empty sections, got %d", len(f.Sections))
		}
	})

	t.Run("single section with one key", func(t *testing.T) {
		ini := "[database]\nurl = postgres://localhost/db\n"
		f, err := Parse(strings.NewReader(ini))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := f.Get("database", "url"); got != "postgres://localhost/db" {
			t.Errorf("got %q, want %q", got, "postgres://localhost/db")
		}
	})

	t.Run("multiple sections", func(t *testing.T) {
		ini := "[database]\nurl = x\n[database.reporting]\nurl = y\n"
		f, err := Parse(strings.NewReader(ini))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := f.Get("database", "url"); got != "x" {
			t.Errorf("database.url: got %q, want %q", got, "x")
		}
		if got := f.Get("database.reporting", "url"); got != "y" {
			t.Errorf("database.reporting.url: got %q, want %q", got, "y")
		}
	})

	t.Run("ignores comment lines", func(t *testing.T) {
		ini := "# comment\n; another\n[section]\nkey = value\n"
		f, err := Parse(strings.NewReader(ini))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := f.Get("section", "key"); got != "value" {
			t.Errorf("got %q, want %q", got, "value")
		}
	})

	t.Run("strips inline comments", func(t *testing.T) {
		ini := "[s]\ndialect = mysql # the shared box\n"
		f, err := Parse(strings.NewReader(ini))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := f.Get("s", "dialect"); got != "mysql" {
			t.Errorf("got %q, want %q", got, "mysql")
		}
	})

	t.Run("quoted values keep comment markers", func(t *testing.T) {
		ini := "[s]\nurl = \"sqlite:a.db?x=1 #2\"\n"
		f, err := Parse(strings.NewReader(ini))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := f.Get("s", "url"); got != "sqlite:a.db?x=1 #2" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("handles values with equals signs", func(t *testing.T) {
		ini := "[s]\nurl = postgres://h/db?sslmode=disable\n"
		f, err := Parse(strings.NewReader(ini))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := f.Get("s", "url"); got != "postgres://h/db?sslmode=disable" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("keys before any section", func(t *testing.T) {
		f, err := Parse(strings.NewReader("a = 1\n[s]\nb = 2\n"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := f.Get("", "a"); got != "1" {
			t.Errorf("got %q, want %q", got, "1")
		}
	})

	t.Run("rejects lines without equals", func(t *testing.T) {
		_, err := Parse(strings.NewReader("[s]\nok = 1\nbroken\n"))
		var syn *SyntaxError
		if !errors.As(err, &syn) {
			t.Fatalf("expected SyntaxError, got %v", err)
		}
		if syn.Line != 3 {
			t.Errorf("expected line 3, got %d", syn.Line)
		}
	})

	t.Run("returns empty string for missing key or section", func(t *testing.T) {
		f, _ := Parse(strings.NewReader("[s]\nk = v\n"))
		if got := f.Get("s", "missing"); got != "" {
			t.Errorf("got %q", got)
		}
		if got := f.Get("nope", "k"); got != "" {
			t.Errorf("got %q", got)
		}
	})
}

func TestSectionLookup(t *testing.T) {
	f, err := Parse(strings.NewReader("[S]\nKey = A\nkey = B\nempty =\nother = C\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := f.Section("s")
	if s == nil {
		t.Fatal("expected section s")
	}
	if got := s.Get("KEY"); got != "B" {
		t.Errorf("last value wins: got %q", got)
	}
	if v, ok := s.Lookup("empty"); !ok || v != "" {
		t.Errorf("expected present empty value, got %q %v", v, ok)
	}
	if _, ok := s.Lookup("absent"); ok {
		t.Error("absent key reported present")
	}
	if got := s.Keys(); !reflect.DeepEqual(got, []string{"key", "empty", "other"}) {
		t.Errorf("keys: got %v", got)
	}
}

func TestSectionsWithPrefix(t *testing.T) {
	ini := "[database]\nurl = a\n[database.reporting]\nurl = b\n[database.audit]\nurl = c\n[other]\n"
	f, err := Parse(strings.NewReader(ini))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := f.SectionsWithPrefix("database.")
	if len(got) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(got))
	}
	if got[0].Name != "database.reporting" || got[1].Name != "database.audit" {
		t.Errorf("unexpected order: %s, %s", got[0].Name, got[1].Name)
	}
	if none := f.SectionsWithPrefix("cache."); len(none) != 0 {
		t.Errorf("expected no matches, got %d", len(none))
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sequel.ini")
	if err := os.WriteFile(path, []byte("[database]\ndialect = sqlite\n"), 0644); err != nil {
		t.Fatal(err)
	}
	f, err := ParseFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := f.Get("database", "dialect"); got != "sqlite" {
		t.Errorf("got %q", got)
	}

	if _, err := ParseFile(filepath.Join(t.TempDir(), "missing.ini")); !os.IsNotExist(err) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}
