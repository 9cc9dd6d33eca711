package localstore

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSetGetSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, ok := s.Get("theme"); ok {
		t.Fatal("fresh store should be empty")
	}

	if err := s.Set("theme", "light"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if v, _ := s.Get("theme"); v != "light" {
		t.Fatalf("expected light, got %q", v)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if v, ok := reopened.Get("theme"); !ok || v != "light" {
		t.Fatalf("value lost across reopen: %q %v", v, ok)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected 0600 permissions, got %v", info.Mode().Perm())
	}
}

func TestDeleteRemovesAllKeysAtOnce(t *testing.T) {
	s, _ := Open(filepath.Join(t.TempDir(), "state.json"))
	_ = s.Set("a", "1")
	_ = s.Set("b", "2")
	_ = s.Set("c", "3")

	if err := s.Delete("a", "b"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, ok := s.Get("a"); ok {
		t.Fatal("a should be gone")
	}
	if _, ok := s.Get("b"); ok {
		t.Fatal("b should be gone")
	}
	if v, _ := s.Get("c"); v != "3" {
		t.Fatalf("c should survive, got %q", v)
	}

	reopened, _ := Open(s.Path())
	if _, ok := reopened.Get("a"); ok {
		t.Fatal("delete not persisted")
	}
}

func TestOpenRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path); err == nil {
		t.Fatal("expected decode error")
	}
}
