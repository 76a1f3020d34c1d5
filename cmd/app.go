package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/example/slot-scheduler/internal/application/usecases"
	"github.com/example/slot-scheduler/internal/config"
	"github.com/example/slot-scheduler/internal/directory"
	"github.com/example/slot-scheduler/internal/domain/reservation"
	"github.com/example/slot-scheduler/internal/domain/user"
	"github.com/example/slot-scheduler/internal/infrastructure/events"
	"github.com/example/slot-scheduler/internal/infrastructure/storage"
	"github.com/example/slot-scheduler/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app is what every command needs: config, logger, store and the engine.
type app struct {
	cfg    config.Config
	log    *zap.Logger
	store  reservation.Store
	events events.Publisher
	engine *usecases.Engine
}

func openApp(ctx context.Context, migrateUp bool) (*app, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	store, err := storage.Open(ctx, cfg, migrateUp, log.Named("storage"))
	if err != nil {
		_ = log.Sync()
		return nil, err
	}
	pub, err := events.Open(cfg.EventsAMQPURL, cfg.EventsExchange, log.Named("events"))
	if err != nil {
		_ = store.Close()
		_ = log.Sync()
		return nil, err
	}

	dir := directory.New(store, cfg.DirectoryCacheSize, cfg.DirectoryCacheTTL)
	engine := usecases.NewEngine(store,
		reservation.Decomposer{Unit: cfg.SlotDuration(), Location: cfg.Location()},
		usecases.WithLogger(log.Named("engine")),
		usecases.WithEvents(pub),
		usecases.WithParticipants(dir),
	)
	return &app{cfg: cfg, log: log, store: store, events: pub, engine: engine}, nil
}

func (a *app) Close() {
	if err := a.events.Close(); err != nil {
		a.log.Warn("close events", zap.Error(err))
	}
	if err := a.store.Close(); err != nil {
		a.log.Warn("close store", zap.Error(err))
	}
	_ = a.log.Sync()
}

// callerFlags identify who a command acts as.
type callerFlags struct {
	id   string
	role string
}

func (f *callerFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.id, "as", "", "caller participant id")
	cmd.Flags().StringVar(&f.role, "role", "", "caller role (PROVIDER, CLIENT, ADMIN)")
	_ = cmd.MarkFlagRequired("as")
	_ = cmd.MarkFlagRequired("role")
}

func (f callerFlags) caller() (user.Caller, error) {
	role, err := user.ParseRole(f.role)
	if err != nil {
		return user.Caller{}, err
	}
	return user.Caller{ID: f.id, Role: role}, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return err
}
