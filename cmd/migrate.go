/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"github.com/myflix-app/apiserver/config"
	"github.com/myflix-app/apiserver/internal/db"
	"github.com/spf13/cobra"
)

var migrationsRoot string

// migrateCmd represents the migrate command.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long: `Run the migrations for DB_DRIVER. Postgres migrations create one table
per collection; MongoDB migrations create the unique indexes.`,
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all up migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return db.Migrate(config.LoadConfig(), migrationsRoot, db.Up)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Revert all migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return db.Migrate(config.LoadConfig(), migrationsRoot, db.Down)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd)
	migrateCmd.PersistentFlags().StringVar(&migrationsRoot, "root", ".", "repository root containing internal/db/migrations")
}
