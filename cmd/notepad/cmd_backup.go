package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	backupCmd = &cobra.Command{
		Use:   "backup",
		Short: "Write a snapshot of the note list",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := openCLI(cfg)
			defer a.Close()

			name, err := a.notes.Backup()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Backup written: %s\n", name)
			return nil
		},
	}

	backupsCmd = &cobra.Command{
		Use:   "backups",
		Short: "List snapshots, oldest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := openCLI(cfg)
			defer a.Close()

			names, err := a.notes.Backups()
			if err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No backups")
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}

	restoreCmd = &cobra.Command{
		Use:   "restore [name]",
		Short: "Replace the note list with a snapshot (the newest when no name is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := openCLI(cfg)
			defer a.Close()

			var name string
			if len(args) == 1 {
				name = args[0]
			} else {
				names, err := a.notes.Backups()
				if err != nil {
					return err
				}
				if len(names) == 0 {
					return fmt.Errorf("no backups in %s", cfg.BackupDir)
				}
				name = names[len(names)-1]
			}

			count, err := a.notes.Restore(name)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored %d notes from %s\n", count, name)
			return nil
		},
	}

	exportCmd = &cobra.Command{
		Use:   "export",
		Short: "Write the notes as a plain-text document",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := openCLI(cfg)
			defer a.Close()

			path, err := a.notes.Export()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", path)
			return nil
		},
	}
)
