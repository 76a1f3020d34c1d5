package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/slot-scheduler/internal/auth"
	"github.com/example/slot-scheduler/internal/web"
	"github.com/spf13/cobra"
)

func newServerCmd() *cobra.Command {
	var migrateUp bool

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			a, err := openApp(ctx, migrateUp)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.cfg.RequireSessionKeys(); err != nil {
				return err
			}
			sessions := auth.NewSessions(a.cfg.CookieHashKey, a.cfg.CookieBlockKey)
			ws := web.New(a.engine, sessions, a.log.Named("http"), web.Limits{RPS: a.cfg.RateLimitRPS, Burst: a.cfg.RateLimitBurst})
			return web.Start(ctx, a.cfg.ListenAddr, ws.Routes(), a.log)
		},
	}

	cmd.Flags().BoolVar(&migrateUp, "migrate", true, "run database migrations on startup")

	cmd.Flags().Lookup("migrate").NoOptDefVal = "true"
	return cmd
}
