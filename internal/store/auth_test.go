package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/maxdp/maxdp-cli/internal/api"
	"github.com/maxdp/maxdp-cli/internal/authstore"
	"github.com/maxdp/maxdp-cli/internal/sessionstore"
)

type stubAuthAPI struct {
	loginFn  func(ctx context.Context, creds api.Credentials) (api.TokenPair, error)
	logoutFn func(ctx context.Context) error
	userFn   func(ctx context.Context) (api.User, error)
	token    string
}

func (s *stubAuthAPI) Login(ctx context.Context, creds api.Credentials) (api.TokenPair, error) {
	if s.loginFn == nil {
		return api.TokenPair{}, errors.New("not stubbed")
	}
	return s.loginFn(ctx, creds)
}

func (s *stubAuthAPI) Logout(ctx context.Context) error {
	if s.logoutFn == nil {
		return nil
	}
	return s.logoutFn(ctx)
}

func (s *stubAuthAPI) CurrentUser(ctx context.Context) (api.User, error) {
	if s.userFn == nil {
		return api.User{}, errors.New("not stubbed")
	}
	return s.userFn(ctx)
}

func (s *stubAuthAPI) SetToken(token string) { s.token = token }

func testAuthConfig(t *testing.T) AuthConfig {
	t.Helper()
	dir := t.TempDir()
	return AuthConfig{
		BaseURL:     "http://localhost:8090",
		AuthPath:    filepath.Join(dir, "auth.json"),
		SessionPath: filepath.Join(dir, "session.json"),
	}
}

func TestLogin_SuccessPersistsAndLoadsProfile(t *testing.T) {
	stub := &stubAuthAPI{
		loginFn: func(_ context.Context, creds api.Credentials) (api.TokenPair, error) {
			if creds.Username != "dev" {
				t.Fatalf("unexpected username %q", creds.Username)
			}
			return api.TokenPair{AccessToken: "acc-1", RefreshToken: "ref-1"}, nil
		},
		userFn: func(context.Context) (api.User, error) {
			return api.User{ID: "u1", Username: "dev", Email: "dev@example.com"}, nil
		},
	}
	cfg := testAuthConfig(t)
	s := NewAuth(stub, cfg)

	if ok := s.Login(context.Background(), api.Credentials{Username: "dev", Password: "pw"}); !ok {
		t.Fatal("expected login to succeed")
	}

	snap := s.Snapshot()
	if !snap.Authenticated || snap.AccessToken != "acc-1" || snap.RefreshToken != "ref-1" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if snap.User == nil || snap.User.Username != "dev" {
		t.Fatalf("expected profile loaded, got %+v", snap.User)
	}
	if snap.Loading || snap.Err != "" {
		t.Fatalf("expected clean flags, got %+v", snap)
	}
	if stub.token != "acc-1" {
		t.Fatalf("client token not installed, got %q", stub.token)
	}

	// Tokens landed in the store keyed by base URL.
	st, err := authstore.Load(cfg.AuthPath)
	if err != nil {
		t.Fatal(err)
	}
	rec, found := st.GetRecord(cfg.BaseURL)
	if !found || rec.AccessToken != "acc-1" || rec.RefreshToken != "ref-1" {
		t.Fatalf("persisted record wrong: %+v found=%v", rec, found)
	}
}

func TestLogin_FailureSetsErrorVerbatim(t *testing.T) {
	stub := &stubAuthAPI{
		loginFn: func(context.Context, api.Credentials) (api.TokenPair, error) {
			return api.TokenPair{}, &api.Error{Status: 401, Message: "invalid username or password"}
		},
	}
	s := NewAuth(stub, testAuthConfig(t))

	if ok := s.Login(context.Background(), api.Credentials{Username: "dev", Password: "nope"}); ok {
		t.Fatal("expected login to fail")
	}
	snap := s.Snapshot()
	if snap.Authenticated {
		t.Fatal("must not be authenticated after a failed login")
	}
	if snap.Err != "invalid username or password" {
		t.Fatalf("expected server message verbatim, got %q", snap.Err)
	}
	if snap.Loading {
		t.Fatal("loading should be cleared")
	}
}

func TestLogin_ProfileFailureDoesNotUndoLogin(t *testing.T) {
	stub := &stubAuthAPI{
		loginFn: func(context.Context, api.Credentials) (api.TokenPair, error) {
			return api.TokenPair{AccessToken: "acc", RefreshToken: "ref"}, nil
		},
		userFn: func(context.Context) (api.User, error) {
			return api.User{}, errors.New("timeout")
		},
	}
	s := NewAuth(stub, testAuthConfig(t))

	if ok := s.Login(context.Background(), api.Credentials{Username: "dev", Password: "pw"}); !ok {
		t.Fatal("login should still report success")
	}
	snap := s.Snapshot()
	if !snap.Authenticated || snap.User != nil {
		t.Fatalf("expected authenticated with no profile, got %+v", snap)
	}
	if snap.Err != "" {
		t.Fatalf("profile failure must not surface as an error, got %q", snap.Err)
	}
}

func TestLogout_AlwaysClearsEvenWhenRemoteFails(t *testing.T) {
	stub := &stubAuthAPI{
		loginFn: func(context.Context, api.Credentials) (api.TokenPair, error) {
			return api.TokenPair{AccessToken: "acc", RefreshToken: "ref"}, nil
		},
		userFn: func(context.Context) (api.User, error) {
			return api.User{ID: "u1", Username: "dev"}, nil
		},
		logoutFn: func(context.Context) error {
			return errors.New("server unreachable")
		},
	}
	cfg := testAuthConfig(t)
	s := NewAuth(stub, cfg)
	s.Login(context.Background(), api.Credentials{Username: "dev", Password: "pw"})

	s.Logout(context.Background())

	snap := s.Snapshot()
	if snap.Authenticated || snap.User != nil || snap.AccessToken != "" || snap.RefreshToken != "" {
		t.Fatalf("expected zeroed state, got %+v", snap)
	}
	if stub.token != "" {
		t.Fatalf("client token should be cleared, got %q", stub.token)
	}
	if st, err := authstore.Load(cfg.AuthPath); err == nil {
		if _, found := st.GetRecord(cfg.BaseURL); found {
			t.Fatal("persisted tokens should be removed")
		}
	}
	if st, err := sessionstore.Load(cfg.SessionPath); err == nil {
		if _, found := st.Get(cfg.BaseURL); found {
			t.Fatal("persisted session should be removed")
		}
	}
}

func TestInitialize_RestoresSessionAndRefreshesProfile(t *testing.T) {
	cfg := testAuthConfig(t)

	tokens := &authstore.Store{}
	tokens.SetRecord(cfg.BaseURL, authstore.Record{AccessToken: "acc", RefreshToken: "ref"})
	if err := authstore.SaveAtomic(cfg.AuthPath, tokens); err != nil {
		t.Fatal(err)
	}
	sess := &sessionstore.Store{}
	sess.Set(cfg.BaseURL, sessionstore.Snapshot{
		User:            &api.User{ID: "u1", Username: "stale-name"},
		IsAuthenticated: true,
	})
	if err := sessionstore.SaveAtomic(cfg.SessionPath, sess); err != nil {
		t.Fatal(err)
	}

	stub := &stubAuthAPI{
		userFn: func(context.Context) (api.User, error) {
			return api.User{ID: "u1", Username: "fresh-name"}, nil
		},
	}
	s := NewAuth(stub, cfg)
	s.Initialize(context.Background())

	snap := s.Snapshot()
	if !snap.Authenticated || snap.AccessToken != "acc" || snap.RefreshToken != "ref" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if snap.User == nil || snap.User.Username != "fresh-name" {
		t.Fatalf("profile should be refreshed from the server, got %+v", snap.User)
	}
	if stub.token != "acc" {
		t.Fatalf("client token not installed, got %q", stub.token)
	}
}

func TestInitialize_NoTokensStaysUnauthenticated(t *testing.T) {
	stub := &stubAuthAPI{}
	s := NewAuth(stub, testAuthConfig(t))
	s.Initialize(context.Background())

	snap := s.Snapshot()
	if snap.Authenticated || snap.User != nil {
		t.Fatalf("expected unauthenticated, got %+v", snap)
	}
	if stub.token != "" {
		t.Fatalf("no token should be installed, got %q", stub.token)
	}
}

func TestInitialize_ProfileFailureForcesFullLogout(t *testing.T) {
	cfg := testAuthConfig(t)
	tokens := &authstore.Store{}
	tokens.SetRecord(cfg.BaseURL, authstore.Record{AccessToken: "expired", RefreshToken: "ref"})
	if err := authstore.SaveAtomic(cfg.AuthPath, tokens); err != nil {
		t.Fatal(err)
	}

	stub := &stubAuthAPI{
		userFn: func(context.Context) (api.User, error) {
			return api.User{}, &api.Error{Status: 401, Message: "token expired"}
		},
	}
	s := NewAuth(stub, cfg)
	s.Initialize(context.Background())

	snap := s.Snapshot()
	if snap.Authenticated || snap.AccessToken != "" || snap.User != nil {
		t.Fatalf("expected full logout, got %+v", snap)
	}
	st, err := authstore.Load(cfg.AuthPath)
	if err != nil {
		t.Fatal(err)
	}
	if _, found := st.GetRecord(cfg.BaseURL); found {
		t.Fatal("expired tokens should be purged from disk")
	}
}

func TestSetTokens_InstallsAndPersists(t *testing.T) {
	stub := &stubAuthAPI{}
	cfg := testAuthConfig(t)
	s := NewAuth(stub, cfg)

	s.SetTokens(api.TokenPair{AccessToken: "acc-2", RefreshToken: "ref-2"})

	snap := s.Snapshot()
	if snap.AccessToken != "acc-2" || snap.RefreshToken != "ref-2" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if stub.token != "acc-2" {
		t.Fatalf("client token not installed, got %q", stub.token)
	}
	st, err := authstore.Load(cfg.AuthPath)
	if err != nil {
		t.Fatal(err)
	}
	if rec, found := st.GetRecord(cfg.BaseURL); !found || rec.AccessToken != "acc-2" {
		t.Fatalf("persisted record wrong: %+v found=%v", rec, found)
	}
}

func TestAuthSubscribe_NotifiesOnTransitions(t *testing.T) {
	stub := &stubAuthAPI{
		loginFn: func(context.Context, api.Credentials) (api.TokenPair, error) {
			return api.TokenPair{AccessToken: "a", RefreshToken: "r"}, nil
		},
		userFn: func(context.Context) (api.User, error) {
			return api.User{ID: "u1", Username: "dev"}, nil
		},
	}
	s := NewAuth(stub, testAuthConfig(t))

	var got []AuthSnapshot
	cancel := s.Subscribe(func(snap AuthSnapshot) { got = append(got, snap) })
	defer cancel()

	s.Login(context.Background(), api.Credentials{Username: "dev", Password: "pw"})
	if len(got) == 0 {
		t.Fatal("expected snapshots")
	}
	first, last := got[0], got[len(got)-1]
	if !first.Loading {
		t.Fatalf("first snapshot should be loading, got %+v", first)
	}
	if last.Loading || !last.Authenticated {
		t.Fatalf("final snapshot wrong: %+v", last)
	}
}

func TestClearError(t *testing.T) {
	s := NewAuth(&stubAuthAPI{}, testAuthConfig(t))
	s.update(func(st *AuthSnapshot) { st.Err = "boom" })
	s.ClearError()
	if snap := s.Snapshot(); snap.Err != "" {
		t.Fatalf("expected cleared error, got %q", snap.Err)
	}
}
