package store

import (
	"context"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/maxdp/maxdp-cli/internal/api"
	"github.com/maxdp/maxdp-cli/internal/authstore"
	"github.com/maxdp/maxdp-cli/internal/sessionstore"
)

// AuthAPI is the slice of the API client the auth store drives.
type AuthAPI interface {
	Login(ctx context.Context, creds api.Credentials) (api.TokenPair, error)
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (api.User, error)
	SetToken(token string)
}

// AuthSnapshot is the session state delivered to subscribers.
type AuthSnapshot struct {
	Authenticated bool
	User          *api.User
	AccessToken   string
	RefreshToken  string
	Loading       bool
	Err           string
}

type AuthConfig struct {
	// BaseURL keys the persisted token/session records.
	BaseURL string
	// AuthPath/SessionPath override the default file locations (tests).
	AuthPath    string
	SessionPath string
	Logger      *log.Logger
}

type AuthStore struct {
	client AuthAPI
	cfg    AuthConfig
	logger *log.Logger

	mu    sync.Mutex
	state AuthSnapshot
	bus   pubsub[AuthSnapshot]
}

func NewAuth(client AuthAPI, cfg AuthConfig) *AuthStore {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if strings.TrimSpace(cfg.AuthPath) == "" {
		if p, err := authstore.DefaultPath(); err == nil {
			cfg.AuthPath = p
		}
	}
	if strings.TrimSpace(cfg.SessionPath) == "" {
		if p, err := sessionstore.DefaultPath(); err == nil {
			cfg.SessionPath = p
		}
	}
	return &AuthStore{client: client, cfg: cfg, logger: ensureLogger(cfg.Logger)}
}

func (s *AuthStore) Subscribe(fn func(AuthSnapshot)) (cancel func()) {
	return s.bus.subscribe(fn)
}

func (s *AuthStore) Snapshot() AuthSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *AuthStore) update(mutate func(*AuthSnapshot)) {
	s.mu.Lock()
	mutate(&s.state)
	snap := s.state
	s.mu.Unlock()
	s.bus.publish(snap)
}

// errText reduces any failure to the string shown in the UI. Server-reported
// messages pass through verbatim; transport errors keep their own text.
func errText(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.TrimSpace(err.Error())
	if msg == "" {
		return "request failed"
	}
	return msg
}

// Login exchanges credentials for a token pair, persists it, and loads the
// user profile. It reports success; every failure lands in the error field
// and never escapes.
func (s *AuthStore) Login(ctx context.Context, creds api.Credentials) bool {
	s.update(func(st *AuthSnapshot) { st.Loading = true; st.Err = "" })

	pair, err := s.client.Login(ctx, creds)
	if err != nil {
		s.update(func(st *AuthSnapshot) { st.Loading = false; st.Err = errText(err) })
		return false
	}

	s.persistTokens(pair)
	s.client.SetToken(pair.AccessToken)
	s.update(func(st *AuthSnapshot) {
		st.Authenticated = true
		st.AccessToken = pair.AccessToken
		st.RefreshToken = pair.RefreshToken
	})

	user, err := s.client.CurrentUser(ctx)
	if err != nil {
		// Login itself succeeded; a slow profile endpoint must not undo it.
		s.logger.Printf("auth: profile fetch after login failed: %v", err)
	} else {
		s.setUser(user)
	}

	s.update(func(st *AuthSnapshot) { st.Loading = false })
	return true
}

// Logout tears the session down unconditionally. The remote call is
// best-effort: a failure is logged and cleanup proceeds anyway.
func (s *AuthStore) Logout(ctx context.Context) {
	s.update(func(st *AuthSnapshot) { st.Loading = true })

	if err := s.client.Logout(ctx); err != nil {
		s.logger.Printf("auth: remote logout failed: %v", err)
	}

	s.clearPersisted()
	s.client.SetToken("")
	s.update(func(st *AuthSnapshot) { *st = AuthSnapshot{} })
}

// SetTokens installs a pair that arrived outside the login flow (refresh).
func (s *AuthStore) SetTokens(pair api.TokenPair) {
	s.persistTokens(pair)
	s.client.SetToken(pair.AccessToken)
	s.update(func(st *AuthSnapshot) {
		st.AccessToken = pair.AccessToken
		st.RefreshToken = pair.RefreshToken
	})
}

// Initialize restores the session after a restart: tokens come from the token
// store, the user snapshot from the session store, and the profile is then
// refreshed against the server. This is the sole recovery path.
func (s *AuthStore) Initialize(ctx context.Context) {
	rec, found := s.loadTokens()
	if !found || rec.AccessToken == "" || rec.RefreshToken == "" {
		s.update(func(st *AuthSnapshot) { st.Authenticated = false })
		return
	}

	s.client.SetToken(rec.AccessToken)
	snap, _ := s.loadSession()
	s.update(func(st *AuthSnapshot) {
		st.Authenticated = true
		st.AccessToken = rec.AccessToken
		st.RefreshToken = rec.RefreshToken
		st.User = snap.User
	})

	s.RefreshUser(ctx)
}

// RefreshUser re-fetches the profile. Any failure forces a full logout: an
// expired session is never left half-authenticated.
func (s *AuthStore) RefreshUser(ctx context.Context) {
	s.update(func(st *AuthSnapshot) { st.Loading = true; st.Err = "" })

	user, err := s.client.CurrentUser(ctx)
	if err != nil {
		s.logger.Printf("auth: profile refresh failed, logging out: %v", err)
		s.Logout(ctx)
		return
	}

	s.setUser(user)
	s.update(func(st *AuthSnapshot) { st.Loading = false })
}

func (s *AuthStore) ClearError() {
	s.update(func(st *AuthSnapshot) { st.Err = "" })
}

func (s *AuthStore) setUser(user api.User) {
	u := user
	s.update(func(st *AuthSnapshot) { st.User = &u })
	s.persistSession(sessionstore.Snapshot{User: &u, IsAuthenticated: true})
}

func (s *AuthStore) persistTokens(pair api.TokenPair) {
	st, _ := authstore.Load(s.cfg.AuthPath)
	if st == nil {
		st = &authstore.Store{}
	}
	st.SetRecord(s.cfg.BaseURL, authstore.Record{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
	if err := authstore.SaveAtomic(s.cfg.AuthPath, st); err != nil {
		s.logger.Printf("auth: persist tokens: %v", err)
	}
}

func (s *AuthStore) loadTokens() (authstore.Record, bool) {
	st, err := authstore.Load(s.cfg.AuthPath)
	if err != nil || st == nil {
		return authstore.Record{}, false
	}
	return st.GetRecord(s.cfg.BaseURL)
}

func (s *AuthStore) persistSession(snap sessionstore.Snapshot) {
	st, _ := sessionstore.Load(s.cfg.SessionPath)
	if st == nil {
		st = &sessionstore.Store{}
	}
	st.Set(s.cfg.BaseURL, snap)
	if err := sessionstore.SaveAtomic(s.cfg.SessionPath, st); err != nil {
		s.logger.Printf("auth: persist session: %v", err)
	}
}

func (s *AuthStore) loadSession() (sessionstore.Snapshot, bool) {
	st, err := sessionstore.Load(s.cfg.SessionPath)
	if err != nil || st == nil {
		return sessionstore.Snapshot{}, false
	}
	return st.Get(s.cfg.BaseURL)
}

func (s *AuthStore) clearPersisted() {
	if st, err := authstore.Load(s.cfg.AuthPath); err == nil && st != nil {
		st.Delete(s.cfg.BaseURL)
		if err := authstore.SaveAtomic(s.cfg.AuthPath, st); err != nil {
			s.logger.Printf("auth: clear tokens: %v", err)
		}
	} else if err != nil && !os.IsNotExist(err) {
		s.logger.Printf("auth: clear tokens: %v", err)
	}
	if st, err := sessionstore.Load(s.cfg.SessionPath); err == nil && st != nil {
		st.Delete(s.cfg.BaseURL)
		if err := sessionstore.SaveAtomic(s.cfg.SessionPath, st); err != nil {
			s.logger.Printf("auth: clear session: %v", err)
		}
	}
}
