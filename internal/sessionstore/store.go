// Package sessionstore persists the {user, isAuthenticated} snapshot the auth
// store restores verbatim on startup. Kept in its own file so a wiped token
// store never clobbers the snapshot, and vice versa.
package sessionstore

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/maxdp/maxdp-cli/internal/api"
)

type Snapshot struct {
	User            *api.User `json:"user"`
	IsAuthenticated bool      `json:"isAuthenticated"`
}

type Store struct {
	Sessions map[string]Snapshot `json:"sessions"`
}

func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		h, herr := os.UserHomeDir()
		if herr != nil {
			return "", errors.New("cannot determine config dir")
		}
		dir = filepath.Join(h, ".config")
	}
	return filepath.Join(dir, "maxdp", "session.json"), nil
}

func Load(path string) (*Store, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Store
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	if s.Sessions == nil {
		s.Sessions = map[string]Snapshot{}
	}
	return &s, nil
}

func SaveAtomic(path string, s *Store) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if s.Sessions == nil {
		s.Sessions = map[string]Snapshot{}
	}
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func normalizeKey(baseURL string) string {
	return strings.TrimRight(strings.TrimSpace(baseURL), "/")
}

func (s *Store) Get(baseURL string) (Snapshot, bool) {
	if s == nil || s.Sessions == nil {
		return Snapshot{}, false
	}
	key := normalizeKey(baseURL)
	if key == "" {
		return Snapshot{}, false
	}
	snap, ok := s.Sessions[key]
	return snap, ok
}

func (s *Store) Set(baseURL string, snap Snapshot) {
	if s.Sessions == nil {
		s.Sessions = map[string]Snapshot{}
	}
	key := normalizeKey(baseURL)
	if key == "" {
		return
	}
	s.Sessions[key] = snap
}

func (s *Store) Delete(baseURL string) {
	if s == nil || s.Sessions == nil {
		return
	}
	key := normalizeKey(baseURL)
	if key == "" {
		return
	}
	delete(s.Sessions, key)
}
