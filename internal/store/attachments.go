package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"vellum/internal/models"
)

// ErrAttachmentNotFound is returned when no attachment exists for the id.
var ErrAttachmentNotFound = errors.New("attachment not found")

const attachmentColumns = "id, note_id, blob_hash, filename, mime_type, size_bytes, created_at"

// AttachmentExists checks whether an attachment exists by id.
func (s *Store) AttachmentExists(id string) (bool, error) {
	var exists int
	err := s.db.QueryRow("SELECT 1 FROM attachments WHERE id = ? LIMIT 1", id).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CreateAttachment inserts one attachment row.
func (s *Store) CreateAttachment(ctx context.Context, attachment *models.Attachment) error {
	if err := attachment.Validate(); err != nil {
		return err
	}

	if attachment.CreatedAt.IsZero() {
		attachment.CreatedAt = time.Now().UTC()
	}
	if attachment.MimeType == "" {
		attachment.MimeType = "application/octet-stream"
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO attachments (id, note_id, blob_hash, filename, mime_type, size_bytes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		attachment.ID, attachment.NoteID, attachment.BlobHash, attachment.Filename,
		attachment.MimeType, attachment.SizeBytes, formatTime(attachment.CreatedAt))
	return err
}

// GetAttachment returns one attachment by id.
func (s *Store) GetAttachment(ctx context.Context, id string) (*models.Attachment, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+attachmentColumns+` FROM attachments WHERE id = ?`, id)
	attachment, err := scanAttachment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrAttachmentNotFound, id)
		}
		return nil, err
	}
	return attachment, nil
}

// ListAttachmentsByNote lists attachments for a note, newest first.
func (s *Store) ListAttachmentsByNote(ctx context.Context, noteID string) ([]models.Attachment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+attachmentColumns+` FROM attachments WHERE note_id = ? ORDER BY created_at DESC`, noteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	attachments := []models.Attachment{}
	for rows.Next() {
		attachment, err := scanAttachment(rows)
		if err != nil {
			return nil, err
		}
		attachments = append(attachments, *attachment)
	}
	return attachments, rows.Err()
}

// DeleteAttachment removes an attachment row. The referenced blob is left
// in place: other attachments or retained backups may still reference it.
func (s *Store) DeleteAttachment(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM attachments WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrAttachmentNotFound, id)
	}
	return nil
}

func scanAttachment(row rowScanner) (*models.Attachment, error) {
	var (
		attachment models.Attachment
		createdAt  string
	)
	if err := row.Scan(&attachment.ID, &attachment.NoteID, &attachment.BlobHash,
		&attachment.Filename, &attachment.MimeType, &attachment.SizeBytes, &createdAt); err != nil {
		return nil, err
	}

	var err error
	if attachment.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &attachment, nil
}
