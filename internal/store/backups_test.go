package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"vellum/internal/models"
)

func TestBackupRecords(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		id, err := GenerateBackupID(s.BackupExists)
		if err != nil {
			t.Fatalf("generate backup id: %v", err)
		}
		backup := &models.Backup{
			ID:           id,
			Timestamp:    base.Add(time.Duration(i) * time.Hour),
			Path:         "/backups/backup_" + id + ".vbk",
			SizeBytes:    int64(100 + i),
			ManifestHash: "abc123",
		}
		if err := s.RecordBackup(ctx, backup); err != nil {
			t.Fatalf("record backup: %v", err)
		}
	}

	backups, err := s.ListBackups(ctx)
	if err != nil {
		t.Fatalf("list backups: %v", err)
	}
	if len(backups) != 3 {
		t.Fatalf("expected 3 records, got %d", len(backups))
	}
	for i := 1; i < len(backups); i++ {
		if backups[i].Timestamp.After(backups[i-1].Timestamp) {
			t.Fatalf("expected newest-first ordering")
		}
	}

	got, err := s.GetBackup(ctx, backups[0].ID)
	if err != nil {
		t.Fatalf("get backup: %v", err)
	}
	if got.ManifestHash != "abc123" {
		t.Fatalf("unexpected manifest hash %q", got.ManifestHash)
	}

	if err := s.DeleteBackup(ctx, got.ID); err != nil {
		t.Fatalf("delete backup: %v", err)
	}
	if err := s.DeleteBackup(ctx, got.ID); !errors.Is(err, ErrBackupNotFound) {
		t.Fatalf("expected ErrBackupNotFound, got %v", err)
	}
}
