package cli

import (
	"time"

	"github.com/maxdp/maxdp-cli/internal/buildinfo"
	"github.com/maxdp/maxdp-cli/internal/updatecheck"

	"github.com/spf13/cobra"
)

func newVersionCmd(app *App) *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		RunE: func(cmd *cobra.Command, args []string) error {
			data := map[string]any{
				"version":    buildinfo.DisplayVersion(),
				"rawVersion": buildinfo.Version,
				"commit":     buildinfo.Commit,
				"date":       buildinfo.Date,
			}
			if check {
				notice, err := updatecheck.CheckNow(cmd.Context(), buildinfo.DisplayVersion(), 24*time.Hour)
				if err != nil {
					data["updateCheckError"] = err.Error()
				} else if notice != nil {
					data["update"] = notice
				} else {
					data["update"] = map[string]any{"available": false}
				}
			}
			return writeData(cmd, app, nil, data)
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "Check for a newer release")
	return cmd
}
