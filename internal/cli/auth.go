package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/maxdp/maxdp-cli/internal/api"
	"github.com/maxdp/maxdp-cli/internal/authinfo"
	"github.com/maxdp/maxdp-cli/internal/authstore"
	"github.com/maxdp/maxdp-cli/internal/sessionstore"

	"github.com/spf13/cobra"
)

func newAuthCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{Use: "auth", Short: "Authenticate"}
	cmd.AddCommand(newAuthLoginCmd(app))
	cmd.AddCommand(newAuthLogoutCmd(app))
	cmd.AddCommand(newAuthWhoamiCmd(app))
	return cmd
}

func newAuthLoginCmd(app *App) *cobra.Command {
	var username string
	var password string
	var passwordStdin bool
	var printMode string
	var storePath string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Exchange credentials for a token pair and store it",
		RunE: func(cmd *cobra.Command, args []string) error {
			ensureAPIURL(app)
			username = strings.TrimSpace(username)
			if username == "" {
				return writeErr(cmd, errors.New("missing --username"))
			}
			if passwordStdin {
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return writeErr(cmd, err)
				}
				password = strings.TrimSpace(string(b))
			}
			if strings.TrimSpace(password) == "" {
				return writeErr(cmd, errors.New("missing --password (or use --password-stdin)"))
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 25*time.Second)
			defer cancel()

			client := api.New(app.APIURL)
			pair, err := client.Login(ctx, api.Credentials{Username: username, Password: password})

			// Clear password as soon as we can.
			password = ""

			if err != nil {
				if api.IsAPIError(err) {
					return writeFailure(cmd, app, "auth_login_failed", err, "Check username/password.", nil)
				}
				return writeErr(cmd, err)
			}

			if strings.TrimSpace(storePath) == "" {
				storePath = authStorePath()
			}
			if storePath != "" {
				st, _ := authstore.Load(storePath)
				if st == nil {
					st = &authstore.Store{}
				}
				rec := authstore.Record{
					AccessToken:  pair.AccessToken,
					RefreshToken: pair.RefreshToken,
				}
				if exp, ok := authinfo.ExpiryFromToken(pair.AccessToken); ok {
					rec.ExpiresAt = exp
				}
				st.SetRecord(app.APIURL, rec)
				if err := authstore.SaveAtomic(storePath, st); err != nil {
					return writeErr(cmd, err)
				}
			}

			if printMode == "token" {
				fmt.Fprintln(cmd.OutOrStdout(), pair.AccessToken)
				return nil
			}

			meta := map[string]any{
				"stored":    storePath != "",
				"storePath": storePath,
			}
			if strings.TrimSpace(pair.RefreshToken) != "" {
				meta["hint"] = "Tokens are stored locally; future commands refresh automatically."
			}
			return writeData(cmd, app, meta, map[string]any{"token": pair.AccessToken})
		},
	}

	cmd.Flags().StringVar(&username, "username", envOr("MAXDP_USERNAME", ""), "Username")
	cmd.Flags().StringVar(&password, "password", envOr("MAXDP_PASSWORD", ""), "Password (prefer --password-stdin to avoid shell history)")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read password from stdin")
	cmd.Flags().StringVar(&printMode, "print", "json", "Output mode: json|token")
	cmd.Flags().StringVar(&storePath, "store", envOr("MAXDP_AUTH_STORE", ""), "Path to auth store (default: user config dir)")

	return cmd
}

func newAuthLogoutCmd(app *App) *cobra.Command {
	var storePath string
	var all bool

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Invalidate the session and remove stored tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			ensureAPIURL(app)
			if strings.TrimSpace(storePath) == "" {
				storePath = authStorePath()
			}
			if storePath == "" {
				return writeErr(cmd, errors.New("cannot determine auth store path"))
			}

			// Best-effort remote logout; local cleanup happens regardless.
			if !app.TokenExplicit {
				loadTokenFromAuthStore(app)
			}
			if strings.TrimSpace(app.Token) != "" {
				ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
				defer cancel()
				if err := apiClient(app).Logout(ctx); err != nil {
					fmt.Fprintln(cmd.ErrOrStderr(), "remote logout failed:", err)
				}
			}

			st, err := authstore.Load(storePath)
			if err != nil {
				if os.IsNotExist(err) {
					return writeData(cmd, app, map[string]any{"stored": false, "storePath": storePath}, nil)
				}
				return writeErr(cmd, err)
			}
			if all {
				st.Records = map[string]authstore.Record{}
			} else {
				st.Delete(app.APIURL)
			}
			if err := authstore.SaveAtomic(storePath, st); err != nil {
				return writeErr(cmd, err)
			}

			if p, err := sessionstore.DefaultPath(); err == nil {
				if ss, err := sessionstore.Load(p); err == nil && ss != nil {
					ss.Delete(app.APIURL)
					_ = sessionstore.SaveAtomic(p, ss)
				}
			}

			return writeData(cmd, app, map[string]any{"stored": false, "storePath": storePath}, nil)
		},
	}

	cmd.Flags().StringVar(&storePath, "store", envOr("MAXDP_AUTH_STORE", ""), "Path to auth store (default: user config dir)")
	cmd.Flags().BoolVar(&all, "all", false, "Remove tokens for every API base URL")
	return cmd
}

func newAuthWhoamiCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show identity for the current token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireAPI(app); err != nil {
				return writeErr(cmd, err)
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 20*time.Second)
			defer cancel()

			user, err := apiClient(app).CurrentUser(ctx)
			if err != nil {
				if api.IsAPIError(err) {
					return writeFailure(cmd, app, "auth_whoami_failed", err, "The stored token may be expired; run `maxdp auth login`.", nil)
				}
				return writeErr(cmd, err)
			}
			data := map[string]any{"user": user}
			if email := authinfo.EmailFromToken(app.Token); email != "" {
				data["tokenEmail"] = email
			}
			return writeData(cmd, app, nil, data)
		},
	}
}
