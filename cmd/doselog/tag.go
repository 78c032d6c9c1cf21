package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/at-ishikawa/doselog/internal/tag"
)

func newTagCommand() *cobra.Command {
	tagCmd := &cobra.Command{
		Use:   "tag",
		Short: "Manage supplement tags",
	}

	tagCmd.AddCommand(
		newTagAddCommand(),
		newTagListCommand(),
		newTagRemoveCommand(),
	)

	return tagCmd
}

func newTagAddCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add [name]",
		Short: "Create a tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDatabase()
			if err != nil {
				return err
			}
			defer func() {
				_ = db.Close()
			}()

			repository := tag.NewDBTagRepository(db)
			created, err := repository.Create(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("repository.Create > %w", err)
			}
			fmt.Printf("Created tag %d: %s\n", created.ID, created.Name)
			return nil
		},
	}
}

func newTagListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all tags",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDatabase()
			if err != nil {
				return err
			}
			defer func() {
				_ = db.Close()
			}()

			repository := tag.NewDBTagRepository(db)
			tags, err := repository.FindAll(cmd.Context())
			if err != nil {
				return fmt.Errorf("repository.FindAll > %w", err)
			}
			for _, t := range tags {
				fmt.Printf("%d\t%s\n", t.ID, t.Name)
			}
			return nil
		},
	}
}

func newTagRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rm [id]",
		Short: "Delete a tag and detach it from all supplements",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}

			db, err := openDatabase()
			if err != nil {
				return err
			}
			defer func() {
				_ = db.Close()
			}()

			repository := tag.NewDBTagRepository(db)
			if err := repository.Delete(cmd.Context(), id); err != nil {
				return fmt.Errorf("repository.Delete > %w", err)
			}
			fmt.Printf("Deleted tag %d\n", id)
			return nil
		},
	}
}
