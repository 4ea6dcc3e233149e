package cli

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/maxdp/maxdp-cli/internal/api"
	"github.com/maxdp/maxdp-cli/internal/configstore"

	"github.com/spf13/cobra"
)

func newWorkspacesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{Use: "workspaces", Short: "Manage workspaces"}
	cmd.AddCommand(newWorkspacesListCmd(app))
	cmd.AddCommand(newWorkspacesCreateCmd(app))
	cmd.AddCommand(newWorkspacesUseCmd(app))
	return cmd
}

func newWorkspacesListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List workspaces for the current user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireAPI(app); err != nil {
				return writeErr(cmd, err)
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 20*time.Second)
			defer cancel()

			items, err := apiClient(app).Workspaces(ctx)
			if err != nil {
				if api.IsAPIError(err) {
					return writeFailure(cmd, app, "workspaces_list_failed", err, "", nil)
				}
				return writeErr(cmd, err)
			}
			return writeData(cmd, app, map[string]any{"count": len(items)}, map[string]any{"items": items})
		},
	}
}

func newWorkspacesCreateCmd(app *App) *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			if name == "" {
				return writeErr(cmd, errors.New("missing workspace name"))
			}
			if err := requireAPI(app); err != nil {
				return writeErr(cmd, err)
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 20*time.Second)
			defer cancel()

			ws, err := apiClient(app).CreateWorkspace(ctx, api.CreateWorkspaceInput{
				Name:        name,
				Description: strings.TrimSpace(description),
			})
			if err != nil {
				if api.IsAPIError(err) {
					return writeFailure(cmd, app, "workspaces_create_failed", err, "", nil)
				}
				return writeErr(cmd, err)
			}
			return writeData(cmd, app, nil, map[string]any{"workspace": ws})
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "Workspace description")
	return cmd
}

func newWorkspacesUseCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "use <workspace-id>",
		Short: "Set the default workspace for future commands",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			if id == "" {
				return writeErr(cmd, errors.New("missing workspace id"))
			}
			path, err := configstore.DefaultPath()
			if err != nil {
				return writeErr(cmd, err)
			}
			st, err := configstore.Load(path)
			if err != nil {
				st = &configstore.Store{}
			}
			st.WorkspaceID = id
			if err := configstore.SaveAtomic(path, st); err != nil {
				return writeErr(cmd, err)
			}
			return writeData(cmd, app, map[string]any{"path": path}, map[string]any{"workspaceId": id})
		},
	}
}
