package cli

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/maxdp/maxdp-cli/internal/browseropen"

	"github.com/spf13/cobra"
)

func newWebCmd(app *App) *cobra.Command {
	var printOnly bool

	cmd := &cobra.Command{
		Use:   "web [flow-id]",
		Short: "Open the dashboard (or one flow) in the browser",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ensureAPIURL(app)
			u := webURL(app, args)
			if printOnly {
				fmt.Fprintln(cmd.OutOrStdout(), u)
				return nil
			}
			if err := browseropen.Open(u); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "could not open browser; open manually:")
				fmt.Fprintln(cmd.ErrOrStderr(), u)
			}
			return writeData(cmd, app, nil, map[string]any{"url": u})
		},
	}

	cmd.Flags().BoolVar(&printOnly, "print", false, "Print the URL instead of opening a browser")
	return cmd
}

func webURL(app *App, args []string) string {
	base := strings.TrimRight(app.APIURL, "/")
	ws := resolveWorkspaceID(app)
	if ws == "" {
		return base + "/dashboard"
	}
	u := base + "/dashboard/" + url.PathEscape(ws)
	if len(args) == 1 && strings.TrimSpace(args[0]) != "" {
		u += "/flows/" + url.PathEscape(strings.TrimSpace(args[0]))
	}
	return u
}
