package main

import (
	"fmt"

	"github.com/propertystewards/steward/internal/config"
	"github.com/propertystewards/steward/internal/db"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// connectAdmin opens a server-level connection for CREATE DATABASE. Tests
// swap it out.
var connectAdmin = func(cfg config.DatabaseConfig) (*gorm.DB, error) {
	return db.ConnectAdmin(cfg)
}

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database management commands",
	}

	cmd.AddCommand(newDBMigrateCmd())
	return cmd
}

func newDBMigrateCmd() *cobra.Command {
	var (
		configPath string
		create     bool
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the Steward schema",
		Long:  "Optionally creates the database, then migrates all tables.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return runDBMigrate(cmd, cfg, create)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().BoolVar(&create, "create", true, "create the database if it does not exist")
	return cmd
}

func runDBMigrate(cmd *cobra.Command, cfg *config.Config, create bool) error {
	out := cmd.OutOrStdout()
	dbc := cfg.Database

	if create {
		adminDB, err := connectAdmin(dbc)
		if err != nil {
			return fmt.Errorf("connect to MySQL at %s:%d: %w", dbc.Host, dbc.Port, err)
		}
		defer db.Close(adminDB)
		if err := db.CreateDatabase(adminDB, dbc.Name); err != nil {
			return err
		}
		fmt.Fprintf(out, "Database %s ready\n", dbc.Name)
	}

	gormDB, err := openDB(dbc)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", dbc.Name, err)
	}
	defer db.Close(gormDB)

	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}
	fmt.Fprintf(out, "Migrated %d tables\n", len(db.AllModels()))
	return nil
}
