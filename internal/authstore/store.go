// Package authstore persists the access/refresh token pair across runs,
// keyed by API base URL. The session snapshot lives elsewhere (sessionstore);
// tokens are restored independently of it.
package authstore

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type Record struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt,omitempty"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type Store struct {
	Records map[string]Record `json:"records"`
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
	return filepath.Join(dir, "maxdp", "auth.json"), nil
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
	if s.Records == nil {
		s.Records = map[string]Record{}
	}
	return &s, nil
}

func SaveAtomic(path string, s *Store) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if s.Records == nil {
		s.Records = map[string]Record{}
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

// GetRecord returns the stored pair for baseURL. A record with a blank access
// token is treated as absent.
func (s *Store) GetRecord(baseURL string) (Record, bool) {
	if s == nil || s.Records == nil {
		return Record{}, false
	}
	key := normalizeKey(baseURL)
	if key == "" {
		return Record{}, false
	}
	rec, ok := s.Records[key]
	if !ok || strings.TrimSpace(rec.AccessToken) == "" {
		return Record{}, false
	}
	rec.AccessToken = strings.TrimSpace(rec.AccessToken)
	rec.RefreshToken = strings.TrimSpace(rec.RefreshToken)
	return rec, true
}

func (s *Store) SetRecord(baseURL string, rec Record) {
	if s.Records == nil {
		s.Records = map[string]Record{}
	}
	key := normalizeKey(baseURL)
	rec.AccessToken = strings.TrimSpace(rec.AccessToken)
	rec.RefreshToken = strings.TrimSpace(rec.RefreshToken)
	if key == "" || rec.AccessToken == "" {
		return
	}
	rec.UpdatedAt = time.Now().UTC()
	s.Records[key] = rec
}

func (s *Store) Delete(baseURL string) {
	if s == nil || s.Records == nil {
		return
	}
	key := normalizeKey(baseURL)
	if key == "" {
		return
	}
	delete(s.Records, key)
}
