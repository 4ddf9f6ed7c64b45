package main

import (
	"errors"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/poofware/leasing-service/internal/config"
	"github.com/poofware/leasing-service/internal/schema"
	"github.com/poofware/leasing-service/internal/utils"
)

type options struct {
	driver  string
	dsn     string
	verbose bool
}

func main() {
	_ = godotenv.Load()
	utils.InitLogger(config.AppName + "-migrate")

	if err := newRootCmd().Execute(); err != nil {
		utils.Logger.WithError(err).Fatal("migration failed")
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Manage the leasing-service database schema",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.driver, "driver", "postgres", "database driver (postgres|sqlite)")
	root.PersistentFlags().StringVar(&opts.dsn, "dsn", os.Getenv("DB_URL"), "connection string, defaults to $DB_URL")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log every SQL statement")

	root.AddCommand(upCmd(opts), dropCmd(opts))
	return root
}

func upCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Create or update all tables, indexes and constraints",
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.dsn == "" {
				return errors.New("no DSN given; set --dsn or DB_URL")
			}
			db, err := schema.Open(opts.driver, opts.dsn, opts.verbose)
			if err != nil {
				return err
			}
			if err := schema.Migrate(db); err != nil {
				return err
			}
			utils.Logger.Infof("Schema migrated (%d tables)", len(schema.Tables()))
			return nil
		},
	}
}

func dropCmd(opts *options) *cobra.Command {
	var confirm bool
	cmd := &cobra.Command{
		Use:   "drop",
		Short: "Drop every leasing-service table",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				return errors.New("refusing to drop tables without --yes")
			}
			if opts.dsn == "" {
				return errors.New("no DSN given; set --dsn or DB_URL")
			}
			db, err := schema.Open(opts.driver, opts.dsn, opts.verbose)
			if err != nil {
				return err
			}
			if err := schema.Drop(db); err != nil {
				return err
			}
			utils.Logger.Warn("All leasing-service tables dropped")
			return nil
		},
	}
	cmd.Flags().BoolVar(&confirm, "yes", false, "confirm dropping all tables")
	return cmd
}
