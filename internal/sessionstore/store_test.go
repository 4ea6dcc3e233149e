package sessionstore

import (
	"path/filepath"
	"testing"

	"github.com/maxdp/maxdp-cli/internal/api"
)

func TestStore_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.json")

	s := &Store{}
	s.Set("http://localhost:8090/", Snapshot{
		User:            &api.User{ID: "u1", Username: "alice", Email: "alice@example.com"},
		IsAuthenticated: true,
	})
	if err := SaveAtomic(path, s); err != nil {
		t.Fatalf("SaveAtomic: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	snap, ok := loaded.Get("http://localhost:8090")
	if !ok {
		t.Fatalf("expected snapshot present")
	}
	if !snap.IsAuthenticated || snap.User == nil || snap.User.Username != "alice" {
		t.Fatalf("snapshot not restored verbatim: %+v", snap)
	}
}

func TestStore_DeleteAndBlankKeys(t *testing.T) {
	s := &Store{}
	s.Set("", Snapshot{IsAuthenticated: true})
	if len(s.Sessions) != 0 {
		t.Fatalf("blank key should be ignored")
	}
	s.Set("http://a", Snapshot{IsAuthenticated: true})
	s.Delete("http://a/")
	if _, ok := s.Get("http://a"); ok {
		t.Fatalf("expected snapshot removed")
	}
	var nilStore *Store
	nilStore.Delete("http://a")
	if _, ok := nilStore.Get("http://a"); ok {
		t.Fatalf("nil store should report absent")
	}
}
