package cli

import (
	"fmt"
	"os"

	"github.com/maxdp/maxdp-cli/internal/format"
	"github.com/maxdp/maxdp-cli/internal/tui"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

type App struct {
	APIURL        string
	Token         string
	TokenExplicit bool
	WorkspaceID   string
	Format        string
	PrettyJSON    bool
	DevMode       bool
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "maxdp",
		Short:        "MaxDP flow-design client",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand on a terminal => interactive dashboard.
			if len(args) == 0 && isatty.IsTerminal(os.Stdout.Fd()) {
				return runDashboard(app)
			}
			return cmd.Help()
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			app.TokenExplicit = cmd.Flags().Changed("token") || os.Getenv("MAXDP_TOKEN") != ""
			if !cmd.Flags().Changed("format") && os.Getenv("MAXDP_FORMAT") == "" {
				if f := configuredFormat(); f != "" {
					app.Format = f
				}
			}
		},
	}

	cmd.PersistentFlags().StringVar(&app.APIURL, "api", envOr("MAXDP_API_URL", ""), "API base URL (e.g. https://api.maxdp.io)")
	cmd.PersistentFlags().StringVar(&app.Token, "token", envOr("MAXDP_TOKEN", ""), "API token (or set MAXDP_TOKEN)")
	cmd.PersistentFlags().StringVar(&app.WorkspaceID, "workspace", envOr("MAXDP_WORKSPACE", ""), "Workspace id")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("MAXDP_FORMAT", "json"), "Output format (json|edn)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().BoolVar(&app.DevMode, "dev", envOr("MAXDP_DEV", "") == "1", "Enable dev-only commands")

	cmd.AddCommand(newAuthCmd(app))
	cmd.AddCommand(newWorkspacesCmd(app))
	cmd.AddCommand(newFlowsCmd(app))
	cmd.AddCommand(newDevCmd(app))
	cmd.AddCommand(newWebCmd(app))
	cmd.AddCommand(newVersionCmd(app))

	configureFlagVisibility(cmd, app)

	return cmd
}

func runDashboard(app *App) error {
	client, err := dashboardClient(app)
	if err != nil {
		return err
	}
	return tui.Run(tui.Config{
		Client:  client,
		BaseURL: app.APIURL,
	})
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
