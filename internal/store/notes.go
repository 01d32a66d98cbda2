package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"vellum/internal/models"
)

// ErrNoteNotFound is returned when no note exists for the requested id.
var ErrNoteNotFound = errors.New("note not found")

const noteColumns = "id, title, content_json, title_modified, collection_id, created_at, updated_at, deleted_at"

// NoteUpdate describes a partial note update; nil fields are left unchanged.
type NoteUpdate struct {
	Title         *string
	ContentJSON   *string
	TitleModified *bool
	CollectionID  *string
}

// NoteExists checks whether a live note exists by id.
func (s *Store) NoteExists(id string) (bool, error) {
	var exists int
	err := s.db.QueryRow("SELECT 1 FROM notes WHERE id = ? LIMIT 1", id).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CreateNote inserts one note row.
func (s *Store) CreateNote(ctx context.Context, note *models.Note) error {
	if err := note.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC()
	if note.CreatedAt.IsZero() {
		note.CreatedAt = now
	}
	if note.UpdatedAt.IsZero() {
		note.UpdatedAt = note.CreatedAt
	}
	if strings.TrimSpace(note.ContentJSON) == "" {
		note.ContentJSON = "{}"
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notes (id, title, content_json, title_modified, collection_id, created_at, updated_at, deleted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, NULL)`,
		note.ID, note.Title, note.ContentJSON, boolToInt(note.TitleModified),
		nullIfEmpty(note.CollectionID), formatTime(note.CreatedAt), formatTime(note.UpdatedAt))
	return err
}

// GetNote returns one note by id, including soft-deleted notes.
func (s *Store) GetNote(ctx context.Context, id string) (*models.Note, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+noteColumns+` FROM notes WHERE id = ?`, id)
	note, err := scanNote(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNoteNotFound, id)
		}
		return nil, err
	}
	return note, nil
}

// ListNotes returns live notes ordered by updated_at descending, optionally
// filtered by collection.
func (s *Store) ListNotes(ctx context.Context, collectionID string) ([]models.Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes WHERE deleted_at IS NULL`
	args := []any{}
	if strings.TrimSpace(collectionID) != "" {
		query += ` AND collection_id = ?`
		args = append(args, collectionID)
	}
	query += ` ORDER BY updated_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := []models.Note{}
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, *note)
	}
	return notes, rows.Err()
}

// UpdateNote applies a partial update and bumps updated_at.
func (s *Store) UpdateNote(ctx context.Context, id string, update NoteUpdate) error {
	sets := []string{"updated_at = ?"}
	args := []any{formatTime(time.Now().UTC())}

	if update.Title != nil {
		if strings.TrimSpace(*update.Title) == "" {
			return fmt.Errorf("note title is required")
		}
		sets = append(sets, "title = ?")
		args = append(args, *update.Title)
	}
	if update.ContentJSON != nil {
		sets = append(sets, "content_json = ?")
		args = append(args, *update.ContentJSON)
	}
	if update.TitleModified != nil {
		sets = append(sets, "title_modified = ?")
		args = append(args, boolToInt(*update.TitleModified))
	}
	if update.CollectionID != nil {
		sets = append(sets, "collection_id = ?")
		args = append(args, nullIfEmpty(*update.CollectionID))
	}

	args = append(args, id)
	res, err := s.db.ExecContext(ctx,
		`UPDATE notes SET `+strings.Join(sets, ", ")+` WHERE id = ? AND deleted_at IS NULL`, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNoteNotFound, id)
	}
	return nil
}

// DeleteNote soft-deletes a note by stamping deleted_at. Attachments keep
// their rows; blobs are never reclaimed here.
func (s *Store) DeleteNote(ctx context.Context, id string) error {
	now := formatTime(time.Now().UTC())
	res, err := s.db.ExecContext(ctx,
		`UPDATE notes SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`, now, now, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNoteNotFound, id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner) (*models.Note, error) {
	var (
		note          models.Note
		titleModified int
		collectionID  sql.NullString
		createdAt     string
		updatedAt     string
		deletedAt     sql.NullString
	)
	if err := row.Scan(&note.ID, &note.Title, &note.ContentJSON, &titleModified,
		&collectionID, &createdAt, &updatedAt, &deletedAt); err != nil {
		return nil, err
	}

	note.TitleModified = titleModified != 0
	note.CollectionID = collectionID.String

	var err error
	if note.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if note.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if note.DeletedAt, err = parseNullTime(deletedAt); err != nil {
		return nil, err
	}
	return &note, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullIfEmpty(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}
