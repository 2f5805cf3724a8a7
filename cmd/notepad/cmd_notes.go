package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"notepad/pkg/attachments"
	"notepad/pkg/models"
	"notepad/pkg/query"
	"notepad/pkg/services"
)

var (
	listQuery    string
	listCategory string
	listTodo     bool
	listSort     string

	addInput    services.NoteInput
	addReminder string
	addMedia    = map[attachments.Kind]*string{
		attachments.Image: &addInput.ImagePath,
		attachments.Audio: &addInput.AudioPath,
		attachments.Video: &addInput.VideoPath,
	}

	listCmd = &cobra.Command{
		Use:   "list",
		Short: "List notes with optional search, category, to-do and sort filters",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := openCLI(cfg)
			defer a.Close()

			spec := query.Spec{Query: listQuery, TodoOnly: listTodo, Sort: query.ParseSortMode(listSort)}
			if cmd.Flags().Changed("category") {
				spec = spec.InCategory(listCategory)
			}
			printNotes(cmd.OutOrStdout(), a.notes.List(spec))
			return nil
		},
	}

	addCmd = &cobra.Command{
		Use:   "add [content]",
		Short: "Create a note",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addInput.Content = ""
			addInput.ReminderAt = nil
			if len(args) == 1 {
				addInput.Content = args[0]
			}
			if addReminder != "" {
				at, err := time.ParseInLocation("2006-01-02 15:04", addReminder, time.Local)
				if err != nil {
					return fmt.Errorf("reminder must look like 2006-01-02 15:04: %w", err)
				}
				addInput.ReminderAt = &at
			}

			a := openCLI(cfg)
			defer a.Close()

			// Attachments are copied into the data dir before the note refers to them
			for kind, path := range addMedia {
				if *path == "" {
					continue
				}
				imported, err := a.media.Import(kind, *path)
				if err != nil {
					return err
				}
				*path = imported
			}

			note, err := a.notes.Create(addInput)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created note %s (%s)\n", note.ID, note.Title)
			return nil
		},
	}

	deleteCmd = &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a note after taking a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := openCLI(cfg)
			defer a.Close()

			if err := a.notes.Delete(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted note %s\n", args[0])
			return nil
		},
	}
)

func init() {
	listCmd.Flags().StringVarP(&listQuery, "query", "q", "", "search title and content")
	listCmd.Flags().StringVarP(&listCategory, "category", "c", "", "only this category")
	listCmd.Flags().BoolVar(&listTodo, "todo", false, "only to-dos")
	listCmd.Flags().StringVarP(&listSort, "sort", "s", "time", "time, title, category or priority")

	addCmd.Flags().StringVarP(&addInput.Title, "title", "t", "", "note title")
	addCmd.Flags().StringVarP(&addInput.Category, "category", "c", "", "note category")
	addCmd.Flags().StringVar(&addInput.Color, "color", "", "note color")
	addCmd.Flags().BoolVar(&addInput.IsTodo, "todo", false, "make the note a to-do")
	addCmd.Flags().StringVarP(&addInput.Priority, "priority", "p", "", "low, medium or high (to-dos only)")
	addCmd.Flags().StringVarP(&addReminder, "remind", "r", "", "reminder time, e.g. \"2025-01-31 09:00\" (to-dos only)")
	addCmd.Flags().StringVar(&addInput.ImagePath, "image", "", "attach an image file")
	addCmd.Flags().StringVar(&addInput.AudioPath, "audio", "", "attach a voice recording")
	addCmd.Flags().StringVar(&addInput.VideoPath, "video", "", "attach a video")
}

func printNotes(out io.Writer, notes []*models.Note) {
	if len(notes) == 0 {
		fmt.Fprintln(out, "No notes")
		return
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tCATEGORY\tTODO\tMODIFIED")
	for _, n := range notes {
		todo := ""
		if n.IsTodo {
			todo = "[ ] " + n.Priority.String()
			if n.IsCompleted {
				todo = "[x] " + n.Priority.String()
			}
		}
		title := n.Title
		if n.IsLocked {
			title = "(locked) " + title
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			n.ID, strings.ReplaceAll(title, "\t", " "), n.Category, todo,
			n.LastModified().Local().Format("2006-01-02 15:04"))
	}
	w.Flush()
}
