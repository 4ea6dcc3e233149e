package authstore

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestStore_SetGetRecord_TrimsAndValidates(t *testing.T) {
	s := &Store{}
	s.SetRecord("  http://localhost:8090/ ", Record{AccessToken: "  at  ", RefreshToken: " rt "})

	rec, ok := s.GetRecord("http://localhost:8090")
	if !ok {
		t.Fatalf("expected record present")
	}
	if rec.AccessToken != "at" || rec.RefreshToken != "rt" {
		t.Fatalf("expected trimmed tokens, got %+v", rec)
	}
	if rec.UpdatedAt.IsZero() {
		t.Fatalf("expected UpdatedAt stamped")
	}

	// A record without an access token is treated as absent.
	s.Records["http://x"] = Record{AccessToken: "   ", RefreshToken: "rt"}
	if _, ok := s.GetRecord("http://x"); ok {
		t.Fatalf("expected missing record")
	}

	// Blank inputs are ignored.
	s.SetRecord("", Record{AccessToken: "at2"})
	s.SetRecord("http://y", Record{AccessToken: ""})
	if _, ok := s.GetRecord("http://y"); ok {
		t.Fatalf("expected not set")
	}
}

func TestStore_SaveAtomicAndLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "auth.json")

	s := &Store{}
	s.SetRecord("http://localhost:8090", Record{AccessToken: "at", RefreshToken: "rt"})
	if err := SaveAtomic(path, s); err != nil {
		t.Fatalf("SaveAtomic: %v", err)
	}

	if runtime.GOOS != "windows" {
		st, err := os.Stat(path)
		if err != nil {
			t.Fatalf("stat: %v", err)
		}
		if st.Mode().Perm() != 0o600 {
			t.Fatalf("expected 0600 perms, got %o", st.Mode().Perm())
		}
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.HasSuffix(string(b), "\n") {
		t.Fatalf("expected trailing newline")
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	rec, ok := loaded.GetRecord("http://localhost:8090/")
	if !ok || rec.AccessToken != "at" || rec.RefreshToken != "rt" {
		t.Fatalf("expected stored pair, got %+v (ok=%v)", rec, ok)
	}
}

func TestStore_Load_EmptyRecordsMap(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "auth.json")
	if err := os.WriteFile(path, []byte(`{}`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	st, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if st.Records == nil {
		t.Fatalf("expected records map initialized")
	}
}

func TestStore_Delete(t *testing.T) {
	s := &Store{}
	s.SetRecord("http://a", Record{AccessToken: "at"})
	s.Delete("http://a/")
	if _, ok := s.GetRecord("http://a"); ok {
		t.Fatalf("expected record removed")
	}
	// Delete on nil store must not panic.
	var nilStore *Store
	nilStore.Delete("http://a")
}
