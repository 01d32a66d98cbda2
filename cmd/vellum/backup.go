package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"vellum/internal/config"
)

const backupPasswordEnv = "VELLUM_BACKUP_PASSWORD"

func newBackupCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{Use: "backup", Short: "Create, restore, and manage encrypted backups"}
	cmd.AddCommand(
		newBackupCreateCmd(cfg, jsonOutput),
		newBackupListCmd(cfg, jsonOutput),
		newBackupRestoreCmd(cfg),
		newBackupDeleteCmd(cfg),
	)
	return cmd
}

// resolvePassword prefers the flag, then the environment. Backups are
// worthless without the password so an empty one is rejected up front.
func resolvePassword(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if env := os.Getenv(backupPasswordEnv); env != "" {
		return env, nil
	}
	return "", fmt.Errorf("no password given: use --password or set %s", backupPasswordEnv)
}

func newBackupCreateCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an encrypted backup of the database and blobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := resolvePassword(password)
			if err != nil {
				return err
			}
			sweepStaleRestoreState(cfg)

			return withStore(cfg, func(deps *appDeps) error {
				svc, err := newBackupService(cfg, deps)
				if err != nil {
					return err
				}
				record, err := svc.Create(cmd.Context(), pw)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(record)
				}
				return writePlain("%s  %s  %d bytes\n", record.ID, record.Path, record.SizeBytes)
			})
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "backup password")
	return cmd
}

func newBackupListCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List backup records, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			sweepStaleRestoreState(cfg)

			return withStore(cfg, func(deps *appDeps) error {
				svc, err := newBackupService(cfg, deps)
				if err != nil {
					return err
				}
				backups, err := svc.List(cmd.Context())
				if err != nil {
					return err
				}
				return writeBackupList(backups, *jsonOutput)
			})
		},
	}
}

func newBackupRestoreCmd(cfg *config.Config) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "restore <archive>",
		Short: "Restore the database and blobs from a backup archive",
		Long: `Restore the database and blobs from a backup archive.

The archive is decrypted and fully verified before any live state is
touched. On success the previous database and blobs are set aside and
reclaimed after the configured grace period.`,
		Args: requireExactlyArgs(1, "backup archive path is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := resolvePassword(password)
			if err != nil {
				return err
			}

			// Restore never opens the live database: the file it is
			// about to replace must not be held open.
			svc, err := newRestoreService(cfg)
			if err != nil {
				return err
			}
			if err := svc.Restore(cmd.Context(), args[0], pw); err != nil {
				return err
			}
			return writePlain("restored from %s\n", args[0])
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "backup password")
	return cmd
}

func newBackupDeleteCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a backup file and its record",
		Args:  requireExactlyArgs(1, "backup id is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			sweepStaleRestoreState(cfg)

			return withStore(cfg, func(deps *appDeps) error {
				svc, err := newBackupService(cfg, deps)
				if err != nil {
					return err
				}
				if err := svc.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				return writePlain("deleted %s\n", args[0])
			})
		},
	}
}
