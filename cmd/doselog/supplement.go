package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/at-ishikawa/doselog/internal/supplement"
)

func newSupplementCommand() *cobra.Command {
	supplementCmd := &cobra.Command{
		Use:   "supplement",
		Short: "Manage trackable supplements",
	}

	supplementCmd.AddCommand(
		newSupplementAddCommand(),
		newSupplementListCommand(),
		newSupplementToggleCommand(),
		newSupplementSetTagsCommand(),
		newSupplementRemoveCommand(),
		newSupplementHistoryCommand(),
	)

	return supplementCmd
}

func newSupplementAddCommand() *cobra.Command {
	var (
		name        string
		description string
	)
	command := &cobra.Command{
		Use:   "add",
		Short: "Create a supplement",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDatabase()
			if err != nil {
				return err
			}
			defer func() {
				_ = db.Close()
			}()

			params := supplement.CreateParams{Name: name}
			if description != "" {
				params.Description = &description
			}
			repository := supplement.NewDBSupplementRepository(db)
			created, err := repository.Create(cmd.Context(), params)
			if err != nil {
				return fmt.Errorf("repository.Create > %w", err)
			}
			fmt.Printf("Created supplement %d: %s\n", created.ID, created.Name)
			return nil
		},
	}
	command.Flags().StringVar(&name, "name", "", "Supplement name")
	command.Flags().StringVar(&description, "description", "", "Optional description")
	_ = command.MarkFlagRequired("name")
	return command
}

func newSupplementListCommand() *cobra.Command {
	var includeHidden bool
	command := &cobra.Command{
		Use:   "list",
		Short: "List supplements with their cached rating statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDatabase()
			if err != nil {
				return err
			}
			defer func() {
				_ = db.Close()
			}()

			repository := supplement.NewDBSupplementRepository(db)
			supplements, err := repository.FindAll(cmd.Context(), !includeHidden)
			if err != nil {
				return fmt.Errorf("repository.FindAll > %w", err)
			}
			for _, s := range supplements {
				line := fmt.Sprintf("%d\t%s\tavg=%s\tdiff=%s", s.ID, s.Name, formatAverage(s.AverageRating), formatDifference(s.RatingDifference))
				if s.Hidden {
					line += "\t(hidden)"
				}
				if len(s.Tags) > 0 {
					names := make([]string, 0, len(s.Tags))
					for _, t := range s.Tags {
						names = append(names, t.Name)
					}
					line += "\t[" + strings.Join(names, ", ") + "]"
				}
				fmt.Println(line)
			}
			return nil
		},
	}
	command.Flags().BoolVar(&includeHidden, "all", false, "Include hidden supplements")
	return command
}

func newSupplementToggleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle [id]",
		Short: "Toggle a supplement's hidden flag",
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

			repository := supplement.NewDBSupplementRepository(db)
			toggled, err := repository.ToggleHidden(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("repository.ToggleHidden > %w", err)
			}
			state := "visible"
			if toggled.Hidden {
				state = "hidden"
			}
			fmt.Printf("%s is now %s\n", toggled.Name, state)
			return nil
		},
	}
}

func newSupplementSetTagsCommand() *cobra.Command {
	tagIDs := IDListFlag{}
	command := &cobra.Command{
		Use:   "set-tags [id]",
		Short: "Replace a supplement's tag set",
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

			repository := supplement.NewDBSupplementRepository(db)
			updated, err := repository.SetTags(cmd.Context(), id, tagIDs)
			if err != nil {
				return fmt.Errorf("repository.SetTags > %w", err)
			}
			fmt.Printf("%s now has %d tags\n", updated.Name, len(updated.Tags))
			return nil
		},
	}
	command.Flags().Var(&tagIDs, "tag-ids", "Comma separated tag ids, empty clears all tags")
	return command
}

func newSupplementRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rm [id]",
		Short: "Delete a supplement and its associations",
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

			repository := supplement.NewDBSupplementRepository(db)
			if err := repository.Delete(cmd.Context(), id); err != nil {
				return fmt.Errorf("repository.Delete > %w", err)
			}
			fmt.Printf("Deleted supplement %d\n", id)
			return nil
		},
	}
}

func newSupplementHistoryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "history [id]",
		Short: "Show the day-by-day ratings of days a supplement was taken",
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

			repository := supplement.NewDBSupplementRepository(db)
			points, err := repository.RatingHistory(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("repository.RatingHistory > %w", err)
			}
			for _, point := range points {
				fmt.Printf("%s\t%s\n", formatDay(point.Date), ratingSprint(point.Rating))
			}
			return nil
		},
	}
}

func formatAverage(average *int) string {
	if average == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *average)
}

func formatDifference(difference *float64) string {
	if difference == nil {
		return "-"
	}
	return fmt.Sprintf("%+.1f", *difference)
}
