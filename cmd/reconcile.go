package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newReconcileCmd() *cobra.Command {
	var fix bool

	c := &cobra.Command{
		Use:   "reconcile",
		Short: "Report slots whose booked flag disagrees with their reservations",
		Long: `Lists slots that are booked without a confirmed reservation, or free with one.
With --fix, booked slots whose reservations are all cancelled are released.
Safe to run repeatedly.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer a.Close()

			report, err := a.engine.Reconcile(cmd.Context(), fix)
			if err != nil {
				return err
			}
			if len(report.Inconsistencies) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no inconsistencies")
				return nil
			}
			return printJSON(cmd, report)
		},
	}
	c.Flags().BoolVar(&fix, "fix", false, "release slots owed a release")
	return c
}
