package main

import (
	"fmt"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"acrossfc/bootstrap"
	"acrossfc/core"
	"acrossfc/report"
)

var (
	publish   bool
	encounter string
)

var clearRatesCmd = &cobra.Command{
	Use:   "clear-rates",
	Short: "Report the FC clear rate of each tracked encounter",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd.Context(), func(app *bootstrap.App) error {
			return runReport(cmd, app, publish, func(names []string, a *bootstrap.App) (report.Report, error) {
				roster, clears, err := loadClears(cmd, a)
				if err != nil {
					return report.Report{}, err
				}
				return report.ClearRates(roster, clears, names, time.Now()), nil
			})
		})
	},
}

var clearedJobsCmd = &cobra.Command{
	Use:   "cleared-jobs",
	Short: "Report the jobs each member cleared tracked encounters on",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd.Context(), func(app *bootstrap.App) error {
			return runReport(cmd, app, false, func(names []string, a *bootstrap.App) (report.Report, error) {
				if encounter != "" {
					if !slices.Contains(names, encounter) {
						return report.Report{}, fmt.Errorf("encounter %s is not tracked in tier %s", encounter, a.Catalog.Tier)
					}
					names = []string{encounter}
				}
				roster, clears, err := loadClears(cmd, a)
				if err != nil {
					return report.Report{}, err
				}
				return report.ClearedJobsByMember(roster, clears, names), nil
			})
		})
	},
}

func init() {
	clearRatesCmd.Flags().BoolVarP(&publish, "publish", "p", false, "Post the report to the Discord webhook")
	clearedJobsCmd.Flags().StringVarP(&encounter, "encounter", "e", "", "Only report this encounter, e.g. P9S")
}

// runReport prints the report built from the tracked encounters. Only clear
// rates are published; the per member job tables overflow a Discord message.
func runReport(cmd *cobra.Command, app *bootstrap.App, publish bool, build func([]string, *bootstrap.App) (report.Report, error)) error {
	r, err := build(app.Catalog.ActiveTrackedEncounterNames(), app)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), r.Markdown())
	if publish {
		if err := app.Webhook.PublishReport(cmd.Context(), r); err != nil {
			return fmt.Errorf("failed to publish report: %w", err)
		}
	}
	return nil
}

func loadClears(cmd *cobra.Command, app *bootstrap.App) ([]core.Member, []core.Clear, error) {
	roster, err := app.Store.Roster(cmd.Context())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load roster: %w", err)
	}
	clears, err := app.Store.Clears(cmd.Context())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load clears: %w", err)
	}
	return roster, clears, nil
}
