package main

import (
	"github.com/spf13/cobra"

	"vellum/internal/config"
)

func newRootCmd(cfg *config.Config) *cobra.Command {
	var jsonOutput bool
	var logLevel string

	cmd := &cobra.Command{
		Use:   "vellum",
		Short: "Vellum is a local-first note-taking tool with encrypted backups",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			warning, err := configureLoggerForCLI(logLevel, cfg.LogLevel)
			if err != nil {
				return err
			}
			if warning != "" {
				cmd.PrintErrln(warning)
			}
			return nil
		},
	}

	cmd.Version = version
	cmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output JSON")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	cmd.AddCommand(
		newNoteCmd(cfg, &jsonOutput),
		newCollectionCmd(cfg, &jsonOutput),
		newAttachCmd(cfg, &jsonOutput),
		newBackupCmd(cfg, &jsonOutput),
		newImportCmd(cfg, &jsonOutput),
		newConfigCmd(cfg),
	)

	return cmd
}
