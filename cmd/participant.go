package cmd

import (
	"fmt"

	"github.com/example/slot-scheduler/internal/domain/user"
	"github.com/spf13/cobra"
)

func newParticipantCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "participant",
		Short: "Manage participants known to the engine",
	}
	cmd.AddCommand(newParticipantAddCmd())
	cmd.AddCommand(newParticipantShowCmd())
	return cmd
}

func newParticipantAddCmd() *cobra.Command {
	var (
		id, role, name string
		inactive       bool
	)

	c := &cobra.Command{
		Use:   "add",
		Short: "Register or update a participant",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := user.ParseRole(role)
			if err != nil {
				return err
			}
			a, err := openApp(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer a.Close()

			u, err := a.engine.RegisterParticipant(cmd.Context(), user.User{ID: id, Role: r, DisplayName: name, Active: !inactive})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "registered %s %q (active=%v)\n", u.Role, u.ID, u.Active)
			return nil
		},
	}

	c.Flags().StringVar(&id, "id", "", "participant id issued by the identity service")
	c.Flags().StringVar(&role, "role", "", "PROVIDER, CLIENT or ADMIN")
	c.Flags().StringVar(&name, "name", "", "display name")
	c.Flags().BoolVar(&inactive, "inactive", false, "register as inactive (providers cannot be booked)")
	_ = c.MarkFlagRequired("id")
	_ = c.MarkFlagRequired("role")
	return c
}

func newParticipantShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a participant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer a.Close()

			u, err := a.store.Participant(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, u)
		},
	}
}
