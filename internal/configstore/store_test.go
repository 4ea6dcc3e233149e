package configstore

import (
	"path/filepath"
	"testing"
)

func TestStore_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	st := &Store{APIURL: " http://localhost:8090 ", WorkspaceID: "w1", Format: "edn"}
	if err := SaveAtomic(path, st); err != nil {
		t.Fatalf("SaveAtomic: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.APIURL != "http://localhost:8090" {
		t.Fatalf("expected trimmed api url, got %q", loaded.APIURL)
	}
	if loaded.WorkspaceID != "w1" || loaded.Format != "edn" {
		t.Fatalf("unexpected store: %+v", loaded)
	}
}

func TestStore_Load_MissingPath(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for missing path")
	}
	if err := SaveAtomic("", &Store{}); err == nil {
		t.Fatal("expected error for missing path")
	}
	if err := SaveAtomic(filepath.Join(t.TempDir(), "c.json"), nil); err == nil {
		t.Fatal("expected error for nil store")
	}
}
