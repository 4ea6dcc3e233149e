package cli

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/maxdp/maxdp-cli/internal/api"
	"github.com/maxdp/maxdp-cli/internal/authinfo"
	"github.com/maxdp/maxdp-cli/internal/authstore"
	"github.com/maxdp/maxdp-cli/internal/configstore"
)

// refreshLeeway is how close to expiry a stored access token may get before
// commands proactively refresh it.
const refreshLeeway = 2 * time.Minute

func ensureAPIURL(app *App) {
	if strings.TrimSpace(app.APIURL) != "" {
		app.APIURL = strings.TrimRight(strings.TrimSpace(app.APIURL), "/")
		return
	}
	if p, err := configstore.DefaultPath(); err == nil && strings.TrimSpace(p) != "" {
		if st, err := configstore.Load(p); err == nil && st != nil && strings.TrimSpace(st.APIURL) != "" {
			app.APIURL = strings.TrimRight(strings.TrimSpace(st.APIURL), "/")
			return
		}
	}
	app.APIURL = configstore.DefaultProdAPIURL
}

// resolveWorkspaceID fills the workspace id from config when the flag and env
// were not set.
func resolveWorkspaceID(app *App) string {
	if ws := strings.TrimSpace(app.WorkspaceID); ws != "" {
		return ws
	}
	if p, err := configstore.DefaultPath(); err == nil && strings.TrimSpace(p) != "" {
		if st, err := configstore.Load(p); err == nil && st != nil {
			if ws := strings.TrimSpace(st.WorkspaceID); ws != "" {
				app.WorkspaceID = ws
				return ws
			}
		}
	}
	return ""
}

func requireAPI(app *App) error {
	ensureAPIURL(app)
	if !app.TokenExplicit {
		loadTokenFromAuthStore(app)
	}
	if strings.TrimSpace(app.Token) == "" {
		return errors.New("not logged in (run `maxdp auth login` or set MAXDP_TOKEN)")
	}
	return nil
}

func apiClient(app *App) *api.Client {
	c := api.New(app.APIURL)
	c.SetToken(app.Token)
	return c
}

func authStorePath() string {
	if p := strings.TrimSpace(os.Getenv("MAXDP_AUTH_STORE")); p != "" {
		return p
	}
	p, _ := authstore.DefaultPath()
	return strings.TrimSpace(p)
}

// loadTokenFromAuthStore pulls the stored token pair for the active API base
// URL and refreshes it when the access token is missing an expiry or is about
// to expire. A failed refresh leaves the stored record in place; the server
// will reject the stale token with its own message.
func loadTokenFromAuthStore(app *App) {
	if strings.TrimSpace(app.APIURL) == "" {
		return
	}
	storePath := authStorePath()
	if storePath == "" {
		return
	}
	st, err := authstore.Load(storePath)
	if err != nil || st == nil {
		return
	}
	rec, ok := st.GetRecord(app.APIURL)
	if !ok {
		return
	}

	updated := false
	if rec.ExpiresAt.IsZero() {
		if exp, ok := authinfo.ExpiryFromToken(rec.AccessToken); ok {
			rec.ExpiresAt = exp
			updated = true
		}
	}
	needsRefresh := !rec.ExpiresAt.IsZero() && time.Until(rec.ExpiresAt) < refreshLeeway
	if needsRefresh && strings.TrimSpace(rec.RefreshToken) != "" {
		if next, err := refreshTokens(app.APIURL, rec.RefreshToken); err == nil {
			rec = next
			updated = true
		}
	}
	if updated {
		st.SetRecord(app.APIURL, rec)
		_ = authstore.SaveAtomic(storePath, st)
	}
	app.Token = rec.AccessToken
}

func refreshTokens(apiBaseURL, refreshToken string) (authstore.Record, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	pair, err := api.New(apiBaseURL).Refresh(ctx, refreshToken)
	if err != nil {
		return authstore.Record{}, err
	}
	rec := authstore.Record{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}
	if exp, ok := authinfo.ExpiryFromToken(pair.AccessToken); ok {
		rec.ExpiresAt = exp
	}
	return rec, nil
}

func configuredFormat() string {
	p, err := configstore.DefaultPath()
	if err != nil || strings.TrimSpace(p) == "" {
		return ""
	}
	st, err := configstore.Load(p)
	if err != nil || st == nil {
		return ""
	}
	return strings.TrimSpace(st.Format)
}

func dashboardClient(app *App) (*api.Client, error) {
	ensureAPIURL(app)
	if strings.TrimSpace(app.APIURL) == "" {
		return nil, errors.New("missing API base URL")
	}
	return api.New(app.APIURL), nil
}
