package main

import (
	"fmt"
	"os"

	"github.com/labstack/gommon/log"
	"github.com/spf13/cobra"

	"notepad/pkg/config"
)

var (
	configPath string
	cfg        *config.Config

	rootCmd = &cobra.Command{
		Use:           "notepad",
		Short:         "Notes, to-dos and reminders with backups and an HTTP API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(configPath)
			if err != nil {
				return err
			}
			cfg = loaded
			log.SetLevel(cfg.GommonLevel())
			log.SetHeader("${time_rfc3339} ${level}")
			return nil
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/notepad/config.json)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(listCmd, addCmd, deleteCmd, seedCmd)
	rootCmd.AddCommand(backupCmd, backupsCmd, restoreCmd, exportCmd)
	rootCmd.AddCommand(registerCmd, loginCmd, logoutCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
