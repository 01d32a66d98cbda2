// Package backup implements the encrypted backup and restore engine: it
// packages the live database and blob store into a checksummed snapshot,
// seals it under a user password, and restores snapshots with full
// verification before any live state is touched.
package backup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"vellum/internal/blobstore"
	"vellum/internal/envelope"
	"vellum/internal/models"
	"vellum/internal/store"
)

const (
	// retentionSettingKey is the settings-table key the UI writes; the
	// config default applies when unset.
	retentionSettingKey = "backup_retention_count"

	backupFilePrefix = "backup_"
	backupFileExt    = ".vbk"

	timestampLayout = "20060102_150405"
)

// Notifier is told when a restore has completed so collaborators can
// reconnect to the replaced database. Injected, never ambient.
type Notifier interface {
	RestoreCompleted()
}

// NopNotifier is a Notifier that does nothing.
type NopNotifier struct{}

// RestoreCompleted implements Notifier.
func (NopNotifier) RestoreCompleted() {}

// Config wires a backup Service. Store and Blobs are required for Create,
// List, and Delete; Restore operates on paths alone and must run without a
// live store handle on DBPath.
type Config struct {
	Store      store.BackupStore
	Blobs      blobstore.Store
	DBPath     string
	BlobsDir   string
	BackupsDir string

	Notifier Notifier

	// Version is stamped into snapshot manifests.
	Version string

	// RetentionDefault applies when the settings table has no retention
	// count. Zero means 10.
	RetentionDefault int

	// CleanupGrace is how long aside-swapped pre-restore state is kept
	// before being reclaimed. Zero reclaims synchronously.
	CleanupGrace time.Duration

	Cipher envelope.Params
}

// Service orchestrates backup creation, retention, and restore. A single
// mutex makes backup and restore mutually exclusive for the full duration
// of either operation.
type Service struct {
	mu sync.Mutex

	store      store.BackupStore
	blobs      blobstore.Store
	dbPath     string
	blobsDir   string
	backupsDir string
	notifier   Notifier

	version      string
	retention    int
	cleanupGrace time.Duration
	cipher       envelope.Params
}

// NewService constructs a backup Service.
func NewService(cfg Config) (*Service, error) {
	if cfg.DBPath == "" || cfg.BlobsDir == "" || cfg.BackupsDir == "" {
		return nil, fmt.Errorf("db path, blobs dir, and backups dir are required")
	}
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = NopNotifier{}
	}
	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	retention := cfg.RetentionDefault
	if retention <= 0 {
		retention = 10
	}
	return &Service{
		store:        cfg.Store,
		blobs:        cfg.Blobs,
		dbPath:       cfg.DBPath,
		blobsDir:     cfg.BlobsDir,
		backupsDir:   cfg.BackupsDir,
		notifier:     notifier,
		version:      version,
		retention:    retention,
		cleanupGrace: cfg.CleanupGrace,
		cipher:       cfg.Cipher,
	}, nil
}

// Create packages, encrypts, and persists one backup, records it, and
// applies the retention policy. Cancellation is honored up to the atomic
// rename; afterwards the backup exists and cancellation is a no-op.
func (s *Service) Create(ctx context.Context, password string) (*models.Backup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store == nil || s.blobs == nil {
		return nil, fmt.Errorf("backup service is missing its store or blob store")
	}
	if password == "" {
		return nil, fmt.Errorf("backup password is required")
	}

	retention, err := s.resolveRetention(ctx)
	if err != nil {
		return nil, err
	}

	// Flush the WAL so the file snapshot contains every committed write.
	if err := s.store.Checkpoint(); err != nil {
		return nil, fmt.Errorf("checkpoint database: %w", err)
	}

	snap, err := s.buildSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sealed, err := envelope.Seal(snap.Archive, password, s.cipher)
	if err != nil {
		return nil, fmt.Errorf("encrypt backup: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := s.writeBackupFile(ctx, sealed)
	if err != nil {
		return nil, err
	}

	id, err := store.GenerateBackupID(s.store.BackupExists)
	if err != nil {
		_ = os.Remove(path)
		return nil, err
	}
	record := &models.Backup{
		ID:           id,
		Timestamp:    time.Now().UTC(),
		Path:         path,
		SizeBytes:    int64(len(sealed)),
		ManifestHash: snap.ManifestHash,
	}
	if err := s.store.RecordBackup(ctx, record); err != nil {
		// An unrecorded file would be invisible to listing and retention.
		_ = os.Remove(path)
		return nil, fmt.Errorf("record backup: %w", err)
	}

	slog.Info("backup created", "path", path, "size", record.SizeBytes, "files", len(snap.Manifest.Files))

	// Retention only deletes files, never records; a sweep failure is
	// logged and does not fail the backup.
	if err := s.applyRetention(ctx, retention); err != nil {
		slog.Warn("retention sweep failed", "error", err)
	}

	return record, nil
}

// List returns all backup records, newest first.
func (s *Service) List(ctx context.Context) ([]models.Backup, error) {
	if s.store == nil {
		return nil, fmt.Errorf("backup service is missing its store")
	}
	return s.store.ListBackups(ctx)
}

// Delete removes a backup file and its record.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store == nil {
		return fmt.Errorf("backup service is missing its store")
	}
	record, err := s.store.GetBackup(ctx, id)
	if err != nil {
		return err
	}
	if err := os.Remove(record.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete backup file: %w", err)
	}
	return s.store.DeleteBackup(ctx, id)
}

func (s *Service) resolveRetention(ctx context.Context) (int, error) {
	raw, ok, err := s.store.GetSetting(ctx, retentionSettingKey)
	if err != nil {
		return 0, err
	}
	if !ok {
		return s.retention, nil
	}
	count, err := strconv.Atoi(raw)
	if err != nil || count <= 0 {
		return 0, fmt.Errorf("invalid %s setting %q", retentionSettingKey, raw)
	}
	return count, nil
}

// writeBackupFile persists sealed bytes to a timestamp-named file via a
// temp file and an atomic rename. No failure leaves a partial file visible
// under the final name.
func (s *Service) writeBackupFile(ctx context.Context, sealed []byte) (string, error) {
	if err := os.MkdirAll(s.backupsDir, 0o755); err != nil {
		return "", err
	}

	path, err := s.uniqueBackupPath(ctx, time.Now().UTC())
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(s.backupsDir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return "", err
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	if _, err := tmp.Write(sealed); err != nil {
		cleanup()
		return "", err
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		cleanup()
		return "", err
	}
	return path, nil
}

// uniqueBackupPath derives a timestamped filename, suffixing a counter when
// two backups land within the same second. A name must be free on disk AND
// unclaimed by any backup record: retention prunes files but keeps records,
// and reusing a pruned record's path would let the next sweep delete the
// new file through the old record.
func (s *Service) uniqueBackupPath(ctx context.Context, now time.Time) (string, error) {
	recorded, err := s.store.ListBackups(ctx)
	if err != nil {
		return "", err
	}
	claimed := make(map[string]struct{}, len(recorded))
	for _, b := range recorded {
		claimed[b.Path] = struct{}{}
	}

	base := backupFilePrefix + now.Format(timestampLayout)
	for i := 0; i < 1000; i++ {
		name := base
		if i > 0 {
			name = fmt.Sprintf("%s_%d", base, i)
		}
		path := filepath.Join(s.backupsDir, name+backupFileExt)
		if _, ok := claimed[path]; ok {
			continue
		}
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return path, nil
		} else if err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("unable to allocate backup filename for %s", base)
}

func (s *Service) applyRetention(ctx context.Context, retention int) error {
	backups, err := s.store.ListBackups(ctx)
	if err != nil {
		return err
	}
	if len(backups) <= retention {
		return nil
	}

	// Paths still claimed by a retained record must survive even if an
	// older record aliases them.
	keep := make(map[string]struct{}, retention)
	for _, b := range backups[:retention] {
		keep[b.Path] = struct{}{}
	}

	// ListBackups is newest-first; everything past the retention count
	// loses its file. The record stays for history.
	for _, old := range backups[retention:] {
		if _, ok := keep[old.Path]; ok {
			continue
		}
		if err := os.Remove(old.Path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			slog.Warn("failed to prune backup file", "path", old.Path, "error", err)
			continue
		}
		slog.Info("pruned backup file", "path", old.Path)
	}
	return nil
}
