package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"vellum/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "db.sqlite"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func mustCreateNote(t *testing.T, s *Store, title string) *models.Note {
	t.Helper()
	id, err := GenerateNoteID(s.NoteExists)
	if err != nil {
		t.Fatalf("generate note id: %v", err)
	}
	note := &models.Note{ID: id, Title: title, ContentJSON: `{"ops":[]}`}
	if err := s.CreateNote(context.Background(), note); err != nil {
		t.Fatalf("create note: %v", err)
	}
	return note
}

func TestNoteCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	note := mustCreateNote(t, s, "Groceries")

	got, err := s.GetNote(ctx, note.ID)
	if err != nil {
		t.Fatalf("get note: %v", err)
	}
	if got.Title != "Groceries" {
		t.Fatalf("expected title Groceries, got %q", got.Title)
	}
	if got.DeletedAt != nil {
		t.Fatalf("new note should not be deleted")
	}

	newTitle := "Groceries (updated)"
	if err := s.UpdateNote(ctx, note.ID, NoteUpdate{Title: &newTitle}); err != nil {
		t.Fatalf("update note: %v", err)
	}
	got, err = s.GetNote(ctx, note.ID)
	if err != nil {
		t.Fatalf("get note: %v", err)
	}
	if got.Title != newTitle {
		t.Fatalf("expected updated title, got %q", got.Title)
	}

	if err := s.DeleteNote(ctx, note.ID); err != nil {
		t.Fatalf("delete note: %v", err)
	}
	notes, err := s.ListNotes(ctx, "")
	if err != nil {
		t.Fatalf("list notes: %v", err)
	}
	if len(notes) != 0 {
		t.Fatalf("soft-deleted note should not be listed, got %d notes", len(notes))
	}

	// The row survives soft deletion.
	got, err = s.GetNote(ctx, note.ID)
	if err != nil {
		t.Fatalf("get deleted note: %v", err)
	}
	if got.DeletedAt == nil {
		t.Fatalf("expected deleted_at to be set")
	}
}

func TestGetNoteMissing(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetNote(context.Background(), "nt-missing")
	if !errors.Is(err, ErrNoteNotFound) {
		t.Fatalf("expected ErrNoteNotFound, got %v", err)
	}
}

func TestCollectionsAndNoteFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := GenerateCollectionID(s.CollectionExists)
	if err != nil {
		t.Fatalf("generate collection id: %v", err)
	}
	collection := &models.Collection{ID: id, Name: "Recipes", SortOrder: 1}
	if err := s.CreateCollection(ctx, collection); err != nil {
		t.Fatalf("create collection: %v", err)
	}

	note := mustCreateNote(t, s, "Pancakes")
	if err := s.UpdateNote(ctx, note.ID, NoteUpdate{CollectionID: &collection.ID}); err != nil {
		t.Fatalf("assign collection: %v", err)
	}
	mustCreateNote(t, s, "Unfiled")

	filtered, err := s.ListNotes(ctx, collection.ID)
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if len(filtered) != 1 || filtered[0].ID != note.ID {
		t.Fatalf("expected only %s in collection, got %v", note.ID, filtered)
	}

	// Deleting the collection detaches notes instead of deleting them.
	if err := s.DeleteCollection(ctx, collection.ID); err != nil {
		t.Fatalf("delete collection: %v", err)
	}
	got, err := s.GetNote(ctx, note.ID)
	if err != nil {
		t.Fatalf("get note after collection delete: %v", err)
	}
	if got.CollectionID != "" {
		t.Fatalf("expected note detached, got collection %q", got.CollectionID)
	}
}

func TestAttachmentCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	note := mustCreateNote(t, s, "With attachment")

	id, err := GenerateAttachmentID(s.AttachmentExists)
	if err != nil {
		t.Fatalf("generate attachment id: %v", err)
	}
	attachment := &models.Attachment{
		ID:        id,
		NoteID:    note.ID,
		BlobHash:  "deadbeef",
		Filename:  "photo.png",
		MimeType:  "image/png",
		SizeBytes: 3,
	}
	if err := s.CreateAttachment(ctx, attachment); err != nil {
		t.Fatalf("create attachment: %v", err)
	}

	list, err := s.ListAttachmentsByNote(ctx, note.ID)
	if err != nil {
		t.Fatalf("list attachments: %v", err)
	}
	if len(list) != 1 || list[0].Filename != "photo.png" {
		t.Fatalf("unexpected attachments: %v", list)
	}

	if err := s.DeleteAttachment(ctx, id); err != nil {
		t.Fatalf("delete attachment: %v", err)
	}
	if err := s.DeleteAttachment(ctx, id); !errors.Is(err, ErrAttachmentNotFound) {
		t.Fatalf("expected ErrAttachmentNotFound, got %v", err)
	}
}

func TestSettings(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, ok, err := s.GetSetting(ctx, "backup_retention_count")
	if err != nil {
		t.Fatalf("get unset: %v", err)
	}
	if ok {
		t.Fatalf("expected unset setting")
	}

	if err := s.SetSetting(ctx, "backup_retention_count", "3"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.SetSetting(ctx, "backup_retention_count", "5"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	value, ok, err := s.GetSetting(ctx, "backup_retention_count")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok || value != "5" {
		t.Fatalf("expected 5, got %q (ok=%v)", value, ok)
	}
}
