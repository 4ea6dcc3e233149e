package cli

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/maxdp/maxdp-cli/internal/mockapi"
	"github.com/maxdp/maxdp-cli/internal/state"

	"github.com/spf13/cobra"
)

func newDevCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dev",
		Short: "Local development helpers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newDevServeCmd(app))
	cmd.AddCommand(newDevSeedCmd(app))
	return cmd
}

func devStatePath(flagPath string) (string, error) {
	if p := strings.TrimSpace(flagPath); p != "" {
		return p, nil
	}
	return state.DefaultPath()
}

func newDevServeCmd(app *App) *cobra.Command {
	var addr string
	var statePath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a local API server backed by a JSON state file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := devStatePath(statePath)
			if err != nil {
				return writeErr(cmd, err)
			}
			st, err := state.Load(path)
			if err != nil {
				st = state.SeedDefault()
				if err := state.SaveAtomic(path, st); err != nil {
					return writeErr(cmd, err)
				}
			}

			l, err := net.Listen("tcp", addr)
			if err != nil {
				return writeErr(cmd, err)
			}
			srv := mockapi.New(st, path)
			fmt.Fprintf(cmd.ErrOrStderr(), "dev server listening on http://%s (state: %s)\n", l.Addr(), path)
			fmt.Fprintf(cmd.ErrOrStderr(), "login with a seeded user, e.g. `maxdp --api http://%s auth login --username dev --password maxdp`\n", l.Addr())

			httpSrv := &http.Server{Handler: srv.Handler()}
			go func() {
				<-cmd.Context().Done()
				_ = httpSrv.Close()
			}()
			if err := httpSrv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", envOr("MAXDP_DEV_ADDR", "127.0.0.1:8090"), "Listen address")
	cmd.Flags().StringVar(&statePath, "state", envOr("MAXDP_DEV_STATE", ""), "Path to state JSON (default: user config dir)")
	return cmd
}

func newDevSeedCmd(app *App) *cobra.Command {
	var statePath string
	var force bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Write the default seeded state file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := devStatePath(statePath)
			if err != nil {
				return writeErr(cmd, err)
			}
			if !force {
				if _, err := state.Load(path); err == nil {
					return writeFailure(cmd, app, "dev_seed_exists", errors.New("state file already exists"), "Pass --force to overwrite.", map[string]any{"path": path})
				}
			}
			st := state.SeedDefault()
			if err := state.SaveAtomic(path, st); err != nil {
				return writeErr(cmd, err)
			}
			return writeData(cmd, app, map[string]any{"path": path}, map[string]any{
				"users":      len(st.Users),
				"workspaces": len(st.Workspaces),
				"flows":      len(st.Flows),
			})
		},
	}

	cmd.Flags().StringVar(&statePath, "state", envOr("MAXDP_DEV_STATE", ""), "Path to state JSON (default: user config dir)")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing state file")
	return cmd
}
