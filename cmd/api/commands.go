package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yigit/studygraph/internal/bootstrap"
	"github.com/yigit/studygraph/internal/config"
	"github.com/yigit/studygraph/internal/db"
	"github.com/yigit/studygraph/internal/server"
)

var configPath string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "studygraph",
		Short: "StudyGraph matches students who share courses and plans where to study together",
		// serve is the default action
		RunE:          runServe,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", bootstrap.DefaultConfigPath, "path to the YAML config file")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Runs the HTTP API and the match stream",
			RunE:  runServe,
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Applies pending PostgreSQL migrations and exits",
			RunE:  runMigrate,
		},
		&cobra.Command{
			Use:   "seed",
			Short: "Creates the demo profiles if they do not exist yet",
			RunE:  runSeed,
		},
	)
	return root
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config or setup logger: %w", err)
	}

	srv, err := server.NewServer(cfg, lgr)
	if err != nil {
		return err
	}
	if err := srv.Run(contextOf(cmd)); err != nil {
		return err
	}
	lgr.Info().Msg("Application finished gracefully.")
	return nil
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger(configPath)
	if err != nil {
		return err
	}
	if cfg.Storage.Driver != config.DriverPostgres {
		lgr.Info().Str("storage", cfg.Storage.Driver).Msg("Nothing to migrate for this storage driver")
		return nil
	}

	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	return bootstrap.RunMigrations(contextOf(cmd), database, lgr)
}

func runSeed(cmd *cobra.Command, _ []string) error {
	cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger(configPath)
	if err != nil {
		return err
	}
	if cfg.Storage.Driver == config.DriverMemory {
		return fmt.Errorf("seeding the memory driver has no lasting effect; set storage.seed_demo instead")
	}

	ctx := contextOf(cmd)
	storage, err := bootstrap.SetupStorage(ctx, cfg, lgr)
	if err != nil {
		return err
	}
	defer storage.Close(ctx)

	return bootstrap.SeedDemoData(ctx, storage.Repos, lgr)
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
