package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/at-ishikawa/doselog/internal/database"
	"github.com/at-ishikawa/doselog/schemas"
)

func newMigrateCommand() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Migration commands",
	}

	migrateCmd.AddCommand(newMigrateUpCommand())

	return migrateCmd
}

func newMigrateUpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDatabase()
			if err != nil {
				return err
			}
			defer func() {
				_ = db.Close()
			}()

			if err := database.Migrate(cmd.Context(), db, schemas.Migrations); err != nil {
				return fmt.Errorf("database.Migrate > %w", err)
			}
			fmt.Println("Migrations applied")
			return nil
		},
	}
}
