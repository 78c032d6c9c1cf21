package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/at-ishikawa/doselog/internal/entry"
)

func newEntryCommand() *cobra.Command {
	entryCmd := &cobra.Command{
		Use:   "entry",
		Short: "Manage daily journal entries",
	}

	entryCmd.AddCommand(
		newEntryAddCommand(),
		newEntryListCommand(),
		newEntryShowCommand(),
		newEntryRemoveCommand(),
	)

	return entryCmd
}

func newEntryAddCommand() *cobra.Command {
	var (
		date   string
		rating int
		notes  string
	)
	supplementIDs := IDListFlag{}
	command := &cobra.Command{
		Use:   "add",
		Short: "Record a day's rating, notes and supplements",
		Long:  "Record a day's rating, notes and supplements. Adding to a day that already has an entry overwrites it.",
		RunE: func(cmd *cobra.Command, args []string) error {
			dateMillis, err := parseDate(date, time.Now())
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

			repository := entry.NewDBEntryRepository(db)
			saved, err := repository.Upsert(cmd.Context(), entry.UpsertParams{
				DateMillis:    dateMillis,
				Rating:        rating,
				Notes:         notes,
				SupplementIDs: supplementIDs,
			})
			if err != nil {
				return fmt.Errorf("repository.Upsert > %w", err)
			}
			fmt.Printf("Saved entry %d for %s\n", saved.ID, formatDay(saved.Date))
			return nil
		},
	}
	command.Flags().StringVar(&date, "date", "", "Day to record, YYYY-MM-DD (default today)")
	command.Flags().IntVar(&rating, "rating", 0, "Day rating from 1 to 10")
	command.Flags().StringVar(&notes, "notes", "", "Free-form notes for the day")
	command.Flags().Var(&supplementIDs, "supplement-ids", "Comma separated supplement ids taken that day")
	_ = command.MarkFlagRequired("rating")
	return command
}

func newEntryListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all entries, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDatabase()
			if err != nil {
				return err
			}
			defer func() {
				_ = db.Close()
			}()

			repository := entry.NewDBEntryRepository(db)
			entries, err := repository.FindAll(cmd.Context())
			if err != nil {
				return fmt.Errorf("repository.FindAll > %w", err)
			}
			for _, e := range entries {
				fmt.Printf("%d\t%s\t%s\t%s\n", e.ID, formatDay(e.Date), ratingSprint(e.Rating), summarizeSupplements(e))
			}
			return nil
		},
	}
}

func newEntryShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show [id]",
		Short: "Show one entry with its supplements",
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

			repository := entry.NewDBEntryRepository(db)
			found, err := repository.FindByID(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("repository.FindByID > %w", err)
			}
			if found == nil {
				return fmt.Errorf("no entry with id %d", id)
			}

			fmt.Printf("Date:   %s\n", formatDay(found.Date))
			fmt.Printf("Rating: %s\n", ratingSprint(found.Rating))
			if found.Notes != nil && *found.Notes != "" {
				fmt.Printf("Notes:  %s\n", *found.Notes)
			}
			for _, s := range found.Supplements {
				fmt.Printf("  - %s\n", s.Name)
			}
			return nil
		},
	}
}

func newEntryRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rm [id]",
		Short: "Delete an entry and its supplement associations",
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

			repository := entry.NewDBEntryRepository(db)
			if err := repository.Delete(cmd.Context(), id); err != nil {
				return fmt.Errorf("repository.Delete > %w", err)
			}
			fmt.Printf("Deleted entry %d\n", id)
			return nil
		},
	}
}

// ratingSprint renders a 1-10 rating with a color indicating how good the
// day was.
func ratingSprint(rating int) string {
	switch {
	case rating >= 8:
		return color.New(color.FgGreen).Sprintf("%d/10", rating)
	case rating <= 3:
		return color.New(color.FgRed).Sprintf("%d/10", rating)
	default:
		return color.New(color.FgYellow).Sprintf("%d/10", rating)
	}
}

func summarizeSupplements(e entry.Entry) string {
	if len(e.Supplements) == 0 {
		return ""
	}
	names := make([]string, 0, len(e.Supplements))
	for _, s := range e.Supplements {
		names = append(names, s.Name)
	}
	return strings.Join(names, ", ")
}
