package main

import (
	"fmt"

	"github.com/bjo163/tienda/internal/app"
	"github.com/spf13/cobra"
)

var (
	migrateDrop  bool
	migrateTrace bool
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Long: `Create or update the database schema with AutoMigrate.

With --drop every table is dropped first. All data is lost.`,
	RunE: runMigrate,
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateDrop, "drop", false, "drop all tables before migrating")
	migrateCmd.Flags().BoolVar(&migrateTrace, "trace", false, "log the migration SQL")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	application := app.NewApplication(cfg)
	application.Init(cfg)
	defer application.Release()

	if migrateDrop {
		application.InitDb()
		fmt.Println("database recreated")
		return nil
	}
	if err := application.MigrateDB(migrateTrace); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	fmt.Println("database migrated")
	return nil
}
