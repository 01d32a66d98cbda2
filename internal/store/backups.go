package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"vellum/internal/models"
)

// ErrBackupNotFound is returned when no backup record exists for the id.
var ErrBackupNotFound = errors.New("backup record not found")

const backupColumns = "id, timestamp, path, size_bytes, manifest_hash"

// BackupExists checks whether a backup record exists by id.
func (s *Store) BackupExists(id string) (bool, error) {
	var exists int
	err := s.db.QueryRow("SELECT 1 FROM backups WHERE id = ? LIMIT 1", id).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// RecordBackup inserts one backup record.
func (s *Store) RecordBackup(ctx context.Context, backup *models.Backup) error {
	if backup == nil {
		return fmt.Errorf("backup is required")
	}
	if backup.Timestamp.IsZero() {
		backup.Timestamp = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO backups (id, timestamp, path, size_bytes, manifest_hash) VALUES (?, ?, ?, ?, ?)`,
		backup.ID, formatTime(backup.Timestamp), backup.Path, backup.SizeBytes, backup.ManifestHash)
	return err
}

// GetBackup returns one backup record by id.
func (s *Store) GetBackup(ctx context.Context, id string) (*models.Backup, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+backupColumns+` FROM backups WHERE id = ?`, id)
	backup, err := scanBackup(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrBackupNotFound, id)
		}
		return nil, err
	}
	return backup, nil
}

// ListBackups returns all backup records, newest first. Records whose file
// was pruned by retention are still listed.
func (s *Store) ListBackups(ctx context.Context) ([]models.Backup, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+backupColumns+` FROM backups ORDER BY timestamp DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	backups := []models.Backup{}
	for rows.Next() {
		backup, err := scanBackup(rows)
		if err != nil {
			return nil, err
		}
		backups = append(backups, *backup)
	}
	return backups, rows.Err()
}

// DeleteBackup removes a backup record.
func (s *Store) DeleteBackup(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM backups WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrBackupNotFound, id)
	}
	return nil
}

func scanBackup(row rowScanner) (*models.Backup, error) {
	var (
		backup    models.Backup
		timestamp string
	)
	if err := row.Scan(&backup.ID, &timestamp, &backup.Path, &backup.SizeBytes, &backup.ManifestHash); err != nil {
		return nil, err
	}

	var err error
	if backup.Timestamp, err = parseTime(timestamp); err != nil {
		return nil, err
	}
	return &backup, nil
}
