package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteJSONCreatesParentsAndReplaces(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a", "b", "doc.json")
	if err := WriteJSON(p, map[string]int{"n": 1}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if err := WriteJSON(p, map[string]int{"n": 2}); err != nil {
		t.Fatalf("WriteJSON again: %v", err)
	}
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(b) != "{\n  \"n\": 2\n}\n" {
		t.Fatalf("unexpected content %q", b)
	}
	if FileExists(p + ".tmp") {
		t.Fatalf("temp file left behind")
	}
	if !FileExists(p) || FileExists(dir) {
		t.Fatalf("FileExists should accept files only")
	}
}
