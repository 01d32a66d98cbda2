package main

import (
	"github.com/spf13/cobra"

	"vellum/internal/config"
)

func newConfigCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Inspect configuration"}
	cmd.AddCommand(
		newConfigGetCmd(cfg),
		newConfigListCmd(cfg),
		newConfigPathCmd(),
	)
	return cmd
}

func newConfigGetCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print a configuration value",
		Args:  requireExactlyArgs(1, "configuration key is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := cfg.Get(args[0])
			if err != nil {
				return err
			}
			return writePlain("%s\n", value)
		},
	}
}

func newConfigListCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print all configuration values",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, key := range config.AllowedKeys() {
				value, err := cfg.Get(key)
				if err != nil {
					return err
				}
				if err := writePlain("%s = %s\n", key, value); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the global configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.GlobalPath()
			if err != nil {
				return err
			}
			return writePlain("%s\n", path)
		},
	}
}
