package cli

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"strings"
	"time"

	"github.com/maxdp/maxdp-cli/internal/api"

	"github.com/spf13/cobra"
)

func newFlowsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{Use: "flows", Short: "Manage flows"}
	cmd.AddCommand(newFlowsListCmd(app))
	cmd.AddCommand(newFlowsCreateCmd(app))
	cmd.AddCommand(newFlowsShowCmd(app))
	cmd.AddCommand(newFlowsDefinitionCmd(app))
	cmd.AddCommand(newFlowsVersionsCmd(app))
	cmd.AddCommand(newFlowsDraftCmd(app))
	return cmd
}

func requireWorkspace(app *App) (string, error) {
	if ws := resolveWorkspaceID(app); ws != "" {
		return ws, nil
	}
	return "", errors.New("missing --workspace (or run `maxdp workspaces use <id>`)")
}

// readDefinition loads a flow definition payload from a file, or stdin when
// path is "-". The payload must be valid JSON; it is otherwise opaque.
func readDefinition(cmd *cobra.Command, path string) (json.RawMessage, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("missing --file (use - for stdin)")
	}
	var b []byte
	var err error
	if path == "-" {
		b, err = io.ReadAll(cmd.InOrStdin())
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	if !json.Valid(b) {
		return nil, errors.New("definition is not valid JSON")
	}
	return json.RawMessage(b), nil
}

func flowStatusMeta(f api.Flow) map[string]any {
	return map[string]any{"status": f.Status()}
}

func newFlowsListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List flows in the current workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireAPI(app); err != nil {
				return writeErr(cmd, err)
			}
			ws, err := requireWorkspace(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 20*time.Second)
			defer cancel()

			items, err := apiClient(app).Flows(ctx, ws)
			if err != nil {
				if api.IsAPIError(err) {
					return writeFailure(cmd, app, "flows_list_failed", err, "", nil)
				}
				return writeErr(cmd, err)
			}
			out := make([]map[string]any, 0, len(items))
			for _, f := range items {
				out = append(out, map[string]any{"flow": f, "status": f.Status()})
			}
			return writeData(cmd, app, map[string]any{"count": len(items)}, map[string]any{"items": out})
		},
	}
}

func newFlowsCreateCmd(app *App) *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a flow in the current workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			if name == "" {
				return writeErr(cmd, errors.New("missing flow name"))
			}
			if err := requireAPI(app); err != nil {
				return writeErr(cmd, err)
			}
			ws, err := requireWorkspace(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 20*time.Second)
			defer cancel()

			flow, err := apiClient(app).CreateFlow(ctx, api.CreateFlowInput{
				Name:        name,
				WorkspaceID: ws,
				Description: strings.TrimSpace(description),
			})
			if err != nil {
				if api.IsAPIError(err) {
					return writeFailure(cmd, app, "flows_create_failed", err, "", nil)
				}
				return writeErr(cmd, err)
			}
			return writeData(cmd, app, flowStatusMeta(flow), map[string]any{"flow": flow})
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "Flow description")
	return cmd
}

func newFlowsShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <flow-id>",
		Short: "Show one flow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireAPI(app); err != nil {
				return writeErr(cmd, err)
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 20*time.Second)
			defer cancel()

			flow, err := apiClient(app).Flow(ctx, strings.TrimSpace(args[0]))
			if err != nil {
				if api.IsAPIError(err) {
					return writeFailure(cmd, app, "flows_show_failed", err, "", nil)
				}
				return writeErr(cmd, err)
			}
			return writeData(cmd, app, flowStatusMeta(flow), map[string]any{"flow": flow})
		},
	}
}

func newFlowsDefinitionCmd(app *App) *cobra.Command {
	var version int

	cmd := &cobra.Command{
		Use:   "definition <flow-id>",
		Short: "Show a committed flow definition (latest by default)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireAPI(app); err != nil {
				return writeErr(cmd, err)
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 20*time.Second)
			defer cancel()

			def, err := apiClient(app).FlowDefinition(ctx, strings.TrimSpace(args[0]), version)
			if err != nil {
				if api.IsAPIError(err) {
					return writeFailure(cmd, app, "flows_definition_failed", err, "", nil)
				}
				return writeErr(cmd, err)
			}
			return writeData(cmd, app, map[string]any{"version": def.Version}, map[string]any{"definition": def})
		},
	}

	cmd.Flags().IntVar(&version, "version", 0, "Definition version (0 = latest)")
	return cmd
}

func newFlowsVersionsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{Use: "versions", Short: "Manage committed flow versions"}
	cmd.AddCommand(newFlowsVersionsSaveCmd(app))
	return cmd
}

func newFlowsVersionsSaveCmd(app *App) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "save <flow-id>",
		Short: "Commit a definition as a new flow version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireAPI(app); err != nil {
				return writeErr(cmd, err)
			}
			def, err := readDefinition(cmd, file)
			if err != nil {
				return writeErr(cmd, err)
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 20*time.Second)
			defer cancel()

			id := strings.TrimSpace(args[0])
			if err := apiClient(app).SaveFlowVersion(ctx, id, def); err != nil {
				if api.IsAPIError(err) {
					return writeFailure(cmd, app, "flows_version_save_failed", err, "", nil)
				}
				return writeErr(cmd, err)
			}
			return writeData(cmd, app, nil, map[string]any{"flowId": id, "saved": true})
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Definition JSON file (use - for stdin)")
	return cmd
}

func newFlowsDraftCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{Use: "draft", Short: "Manage the uncommitted draft"}
	cmd.AddCommand(newFlowsDraftSaveCmd(app))
	cmd.AddCommand(newFlowsDraftShowCmd(app))
	return cmd
}

func newFlowsDraftSaveCmd(app *App) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "save <flow-id>",
		Short: "Save the draft definition without committing a version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireAPI(app); err != nil {
				return writeErr(cmd, err)
			}
			def, err := readDefinition(cmd, file)
			if err != nil {
				return writeErr(cmd, err)
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 20*time.Second)
			defer cancel()

			id := strings.TrimSpace(args[0])
			if err := apiClient(app).SaveDraft(ctx, id, def); err != nil {
				if api.IsAPIError(err) {
					return writeFailure(cmd, app, "flows_draft_save_failed", err, "", nil)
				}
				return writeErr(cmd, err)
			}
			return writeData(cmd, app, nil, map[string]any{"flowId": id, "draftSaved": true})
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Definition JSON file (use - for stdin)")
	return cmd
}

func newFlowsDraftShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <flow-id>",
		Short: "Show the uncommitted draft definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireAPI(app); err != nil {
				return writeErr(cmd, err)
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 20*time.Second)
			defer cancel()

			def, err := apiClient(app).Draft(ctx, strings.TrimSpace(args[0]))
			if err != nil {
				if api.IsAPIError(err) {
					return writeFailure(cmd, app, "flows_draft_show_failed", err, "No draft saved for this flow yet.", nil)
				}
				return writeErr(cmd, err)
			}
			return writeData(cmd, app, nil, map[string]any{"draft": def})
		},
	}
}
