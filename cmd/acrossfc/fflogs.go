package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"acrossfc/bootstrap"
)

var updateFFLogsCmd = &cobra.Command{
	Use:   "update-fflogs",
	Short: "Refresh the FC roster and member clears from FFLogs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd.Context(), func(app *bootstrap.App) error {
			res, err := app.SyncOnce(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "members: %d, encounters: %d, clears seen: %d, new clears: %d, api calls: %d\n",
				res.Members, res.Encounters, res.ClearsSeen, res.ClearsAdded, app.FFLogs.APICallCount())
			return nil
		})
	},
}
