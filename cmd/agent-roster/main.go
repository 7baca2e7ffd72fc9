package main

import (
	"os"

	"property_portal_backend/internal/leads/directory"
	"property_portal_backend/internal/leads/repository"
	"property_portal_backend/platform/config"
	"property_portal_backend/platform/db"
	"property_portal_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var (
	cfg  *config.Config
	log  *logger.Logger
	pool *pgxpool.Pool
)

var rootCmd = &cobra.Command{
	Use:   "agent-roster",
	Short: "Manage the agents eligible to receive leads",
	Long:  "Imports the sales roster from YAML into the agent directory and lists who is currently receiving leads.",
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		cfg = c
		log = logger.New(cfg.Env)

		p, err := db.NewPool(cmd.Context(), cfg)
		if err != nil {
			return eris.Wrap(err, "connect to database")
		}
		pool = p
		return nil
	},
	PersistentPostRun: func(*cobra.Command, []string) {
		if pool != nil {
			pool.Close()
		}
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(importCmd, listCmd)
}

func directoryService() *directory.Service {
	return directory.New(repository.New(pool), log)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
