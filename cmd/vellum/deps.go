package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"vellum/internal/backup"
	"vellum/internal/blobstore"
	"vellum/internal/config"
	"vellum/internal/envelope"
	"vellum/internal/store"
)

// appDeps bundles the opened collaborators for one command invocation.
type appDeps struct {
	Store *store.Store
	Blobs *blobstore.LocalStore
}

// withStore opens the database and blob store for commands that operate on
// live data, and closes them when the command returns.
func withStore(cfg *config.Config, fn func(deps *appDeps) error) error {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return err
	}
	st, err := store.Open(cfg.DatabasePath())
	if err != nil {
		return err
	}
	defer st.Close()

	blobs, err := blobstore.NewLocalStore(cfg.BlobsDir())
	if err != nil {
		return err
	}

	return fn(&appDeps{Store: st, Blobs: blobs})
}

func backupServiceConfig(cfg *config.Config) backup.Config {
	return backup.Config{
		DBPath:           cfg.DatabasePath(),
		BlobsDir:         cfg.BlobsDir(),
		BackupsDir:       cfg.BackupsDir(),
		Notifier:         slogNotifier{},
		Version:          version,
		RetentionDefault: cfg.Backup.RetentionCount,
		CleanupGrace:     time.Duration(cfg.Backup.CleanupGraceSeconds) * time.Second,
		Cipher: envelope.Params{
			Time:      uint32(cfg.Backup.ArgonTime),
			MemoryKiB: uint32(cfg.Backup.ArgonMemoryKiB),
			Threads:   uint8(cfg.Backup.ArgonThreads),
		},
	}
}

// newBackupService builds the backup engine bound to the live store.
func newBackupService(cfg *config.Config, deps *appDeps) (*backup.Service, error) {
	svcCfg := backupServiceConfig(cfg)
	svcCfg.Store = deps.Store
	svcCfg.Blobs = deps.Blobs
	return backup.NewService(svcCfg)
}

// newRestoreService builds the backup engine without a live store handle;
// restore replaces the database file and must not run against an open
// connection.
func newRestoreService(cfg *config.Config) (*backup.Service, error) {
	return backup.NewService(backupServiceConfig(cfg))
}

// slogNotifier reports restore completion through the default logger. A GUI
// embedding would inject its own Notifier to trigger a reconnect.
type slogNotifier struct{}

func (slogNotifier) RestoreCompleted() {
	slog.Info("restore completed; reopen the database to see restored data")
}

// sweepStaleRestoreState reclaims aside-swapped pre-restore artifacts left
// by earlier runs. Failures are not fatal to the invoking command.
func sweepStaleRestoreState(cfg *config.Config) {
	svc, err := newRestoreService(cfg)
	if err != nil {
		return
	}
	if err := svc.CleanupStale(context.Background()); err != nil {
		slog.Warn("stale restore cleanup failed", "error", err)
	}
}
