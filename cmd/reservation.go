package cmd

import (
	"github.com/spf13/cobra"
)

func newReservationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "reservation",
		Aliases: []string{"reservations"},
		Short:   "List, cancel and inspect reservations",
	}
	cmd.AddCommand(newReservationListCmd())
	cmd.AddCommand(newReservationCancelCmd())
	cmd.AddCommand(newReservationShowCmd())
	return cmd
}

func newReservationListCmd() *cobra.Command {
	var who callerFlags

	c := &cobra.Command{
		Use:   "list",
		Short: "List the caller's reservations, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := who.caller()
			if err != nil {
				return err
			}
			a, err := openApp(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer a.Close()

			list, err := a.engine.ListMine(cmd.Context(), caller)
			if err != nil {
				return err
			}
			return printJSON(cmd, list)
		},
	}
	who.bind(c)
	return c
}

func newReservationCancelCmd() *cobra.Command {
	var who callerFlags

	c := &cobra.Command{
		Use:   "cancel <reservation-id>",
		Short: "Cancel a reservation and free its slot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := who.caller()
			if err != nil {
				return err
			}
			a, err := openApp(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer a.Close()

			v, err := a.engine.Cancel(cmd.Context(), caller, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, v)
		},
	}
	who.bind(c)
	return c
}

func newReservationShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <reservation-id>",
		Short: "Print who may join a reservation and its status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer a.Close()

			access, err := a.engine.Lookup(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, access)
		},
	}
}
