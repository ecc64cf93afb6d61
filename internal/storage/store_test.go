package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileStore(t *testing.T) {
	dir := t.TempDir()

	t.Run("round trip", func(t *testing.T) {
		fs := NewFileStore(dir, "state.json")
		fs.Set("session_id", "abc-123")

		if v, ok := fs.Get("session_id"); !ok || v != "abc-123" {
			t.Errorf("Get returned %q, %v; want %q, true", v, ok, "abc-123")
		}

		// A fresh store over the same file sees the persisted value
		fs2 := NewFileStore(dir, "state.json")
		if v, ok := fs2.Get("session_id"); !ok || v != "abc-123" {
			t.Errorf("reloaded Get returned %q, %v; want %q, true", v, ok, "abc-123")
		}
	})

	t.Run("missing key", func(t *testing.T) {
		fs := NewFileStore(dir, "empty.json")
		if _, ok := fs.Get("nope"); ok {
			t.Error("expected missing key to report absence")
		}
	})

	t.Run("corrupt file falls back to empty", func(t *testing.T) {
		path := filepath.Join(dir, "corrupt.json")
		if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
			t.Fatalf("failed to write corrupt file: %v", err)
		}

		fs := NewFileStore(dir, "corrupt.json")
		if _, ok := fs.Get("anything"); ok {
			t.Error("corrupt store should behave as empty")
		}

		// Writes still work after recovering from corruption
		fs.Set("k", "v")
		if v, ok := fs.Get("k"); !ok || v != "v" {
			t.Errorf("Set after corruption: got %q, %v", v, ok)
		}
	})

	t.Run("unwritable directory swallows write failures", func(t *testing.T) {
		fs := NewFileStore("/proc/no-such-place", "state.json")
		fs.Set("k", "v") // must not panic
		if v, ok := fs.Get("k"); !ok || v != "v" {
			t.Errorf("in-memory value should survive failed persist: got %q, %v", v, ok)
		}
	})

	t.Run("delete", func(t *testing.T) {
		fs := NewFileStore(dir, "del.json")
		fs.Set("k", "v")
		fs.Delete("k")
		if _, ok := fs.Get("k"); ok {
			t.Error("expected key to be gone after Delete")
		}
	})
}

func TestJSONHelpers(t *testing.T) {
	type info struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}

	t.Run("round trip", func(t *testing.T) {
		ms := NewMemoryStore()
		SetJSON(ms, "visitor", info{Name: "Ana", Email: "a@x.com"})

		var got info
		if !GetJSON(ms, "visitor", &got) {
			t.Fatal("GetJSON reported absence for stored key")
		}
		if got.Name != "Ana" || got.Email != "a@x.com" {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("malformed JSON reports absence", func(t *testing.T) {
		ms := NewMemoryStore()
		ms.Set("visitor", "{broken")

		var got info
		if GetJSON(ms, "visitor", &got) {
			t.Error("GetJSON should report false for malformed JSON")
		}
	})

	t.Run("absent key", func(t *testing.T) {
		ms := NewMemoryStore()
		var got info
		if GetJSON(ms, "visitor", &got) {
			t.Error("GetJSON should report false for absent key")
		}
	})
}
