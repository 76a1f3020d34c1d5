package cmd

import (
	"fmt"

	"github.com/example/slot-scheduler/internal/auth"
	"github.com/example/slot-scheduler/internal/config"
	"github.com/spf13/cobra"
)

// newTokenCmd stands in for the identity service during development and
// operations: it signs a caller with the configured cookie keys.
func newTokenCmd() *cobra.Command {
	var who callerFlags

	c := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for a caller",
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := who.caller()
			if err != nil {
				return err
			}
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			if err := cfg.RequireSessionKeys(); err != nil {
				return err
			}
			token, err := auth.NewSessions(cfg.CookieHashKey, cfg.CookieBlockKey).Issue(caller)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	who.bind(c)
	return c
}
