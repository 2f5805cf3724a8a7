package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/jaswdr/faker"
	"github.com/spf13/cobra"

	"notepad/pkg/services"
)

var (
	seedCount int

	seedCategories = []string{"Work", "Home", "Ideas", "Shopping", ""}
	seedPriorities = []string{"low", "medium", "high"}

	seedCmd = &cobra.Command{
		Use:   "seed",
		Short: "Generate demo notes and to-dos",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := openCLI(cfg)
			defer a.Close()

			f := faker.New()
			for i := 0; i < seedCount; i++ {
				note, err := a.notes.Create(demoNote(f, time.Now()))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Generated note with ID: %s\n", note.ID)
			}
			return nil
		},
	}
)

func init() {
	seedCmd.Flags().IntVarP(&seedCount, "count", "n", 10, "number of notes to generate")
}

// demoNote builds a random note. About a third are to-dos, some with a
// reminder in the coming week.
func demoNote(f faker.Faker, now time.Time) services.NoteInput {
	input := services.NoteInput{
		Title:    strings.TrimSuffix(f.Lorem().Sentence(f.IntBetween(2, 5)), "."),
		Content:  f.Lorem().Paragraph(f.IntBetween(1, 4)),
		Category: f.RandomStringElement(seedCategories),
	}

	if f.IntBetween(0, 2) == 0 {
		input.IsTodo = true
		input.Priority = f.RandomStringElement(seedPriorities)
		if f.Bool() {
			at := f.Time().TimeBetween(now.Add(time.Hour), now.Add(7*24*time.Hour))
			input.ReminderAt = &at
		}
	}
	return input
}
