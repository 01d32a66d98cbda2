package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"vellum/internal/models"
)

// ErrCollectionNotFound is returned when no collection exists for the id.
var ErrCollectionNotFound = errors.New("collection not found")

const collectionColumns = "id, name, description, color, icon, sort_order, created_at, updated_at"

// CollectionExists checks whether a collection exists by id.
func (s *Store) CollectionExists(id string) (bool, error) {
	var exists int
	err := s.db.QueryRow("SELECT 1 FROM collections WHERE id = ? LIMIT 1", id).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CreateCollection inserts one collection row.
func (s *Store) CreateCollection(ctx context.Context, collection *models.Collection) error {
	if err := collection.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC()
	if collection.CreatedAt.IsZero() {
		collection.CreatedAt = now
	}
	if collection.UpdatedAt.IsZero() {
		collection.UpdatedAt = collection.CreatedAt
	}
	if collection.Color == "" {
		collection.Color = "#808080"
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO collections (id, name, description, color, icon, sort_order, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		collection.ID, collection.Name, nullIfEmpty(collection.Description), collection.Color,
		nullIfEmpty(collection.Icon), collection.SortOrder,
		formatTime(collection.CreatedAt), formatTime(collection.UpdatedAt))
	return err
}

// GetCollection returns one collection by id.
func (s *Store) GetCollection(ctx context.Context, id string) (*models.Collection, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+collectionColumns+` FROM collections WHERE id = ?`, id)
	collection, err := scanCollection(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, id)
		}
		return nil, err
	}
	return collection, nil
}

// ListCollections returns all collections ordered by sort_order, then name.
func (s *Store) ListCollections(ctx context.Context) ([]models.Collection, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+collectionColumns+` FROM collections ORDER BY sort_order ASC, name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	collections := []models.Collection{}
	for rows.Next() {
		collection, err := scanCollection(rows)
		if err != nil {
			return nil, err
		}
		collections = append(collections, *collection)
	}
	return collections, rows.Err()
}

// DeleteCollection removes a collection. Notes in the collection are
// detached (collection_id set NULL by the schema), not deleted.
func (s *Store) DeleteCollection(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM collections WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrCollectionNotFound, id)
	}
	return nil
}

func scanCollection(row rowScanner) (*models.Collection, error) {
	var (
		collection  models.Collection
		description sql.NullString
		icon        sql.NullString
		createdAt   string
		updatedAt   string
	)
	if err := row.Scan(&collection.ID, &collection.Name, &description, &collection.Color,
		&icon, &collection.SortOrder, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	collection.Description = description.String
	collection.Icon = icon.String

	var err error
	if collection.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if collection.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &collection, nil
}
