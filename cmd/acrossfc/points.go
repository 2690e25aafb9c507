package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"acrossfc/bootstrap"
	"acrossfc/engine"
)

var (
	isFCPF   bool
	fcPFID   string
	isStatic bool
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <fflogs-url>",
	Short: "Evaluate a fight without awarding points",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(app *bootstrap.App) error {
			ev, err := app.Service.Evaluate(cmd.Context(), submission(args[0]))
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), ev)
		})
	},
}

var submitCmd = &cobra.Command{
	Use:   "submit <fflogs-url>",
	Short: "Evaluate a fight and award its points",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(app *bootstrap.App) error {
			res, err := app.Service.Submit(cmd.Context(), submission(args[0]))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, pe := range res.Awarded {
				fmt.Fprintf(out, "awarded member %d %d points: %s\n", pe.MemberID, pe.Points, pe.Description)
			}
			for _, pe := range res.Skipped {
				fmt.Fprintf(out, "skipped member %d %s: already awarded\n", pe.MemberID, pe.Category)
			}
			if len(res.Awarded) == 0 {
				fmt.Fprintln(out, "no points awarded")
			}
			return nil
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{evaluateCmd, submitCmd} {
		c.Flags().BoolVar(&isFCPF, "fc-pf", false, "Fight was an FC party finder listing")
		c.Flags().StringVar(&fcPFID, "fc-pf-id", "", "FC party finder listing id")
		c.Flags().BoolVar(&isStatic, "static", false, "Fight was a static party")
	}
}

func submission(url string) engine.Submission {
	return engine.Submission{FFLogsURL: url, IsFCPF: isFCPF, FCPFID: fcPFID, IsStatic: isStatic}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
