package store

import (
	"context"

	"vellum/internal/models"
)

// NoteStore abstracts note and collection storage.
type NoteStore interface {
	NoteExists(id string) (bool, error)
	CreateNote(ctx context.Context, note *models.Note) error
	GetNote(ctx context.Context, id string) (*models.Note, error)
	ListNotes(ctx context.Context, collectionID string) ([]models.Note, error)
	UpdateNote(ctx context.Context, id string, update NoteUpdate) error
	DeleteNote(ctx context.Context, id string) error

	CollectionExists(id string) (bool, error)
	CreateCollection(ctx context.Context, collection *models.Collection) error
	GetCollection(ctx context.Context, id string) (*models.Collection, error)
	ListCollections(ctx context.Context) ([]models.Collection, error)
	DeleteCollection(ctx context.Context, id string) error
}

// AttachmentStore abstracts attachment record storage.
type AttachmentStore interface {
	AttachmentExists(id string) (bool, error)
	CreateAttachment(ctx context.Context, attachment *models.Attachment) error
	GetAttachment(ctx context.Context, id string) (*models.Attachment, error)
	ListAttachmentsByNote(ctx context.Context, noteID string) ([]models.Attachment, error)
	DeleteAttachment(ctx context.Context, id string) error
}

// BackupStore is the relational collaborator consumed by the backup engine:
// backup record bookkeeping, the settings table, and the raw database file
// path used for snapshotting.
type BackupStore interface {
	BackupExists(id string) (bool, error)
	RecordBackup(ctx context.Context, backup *models.Backup) error
	GetBackup(ctx context.Context, id string) (*models.Backup, error)
	ListBackups(ctx context.Context) ([]models.Backup, error)
	DeleteBackup(ctx context.Context, id string) error
	GetSetting(ctx context.Context, key string) (string, bool, error)
	SetSetting(ctx context.Context, key, value string) error
	Path() string
	Checkpoint() error
}

var _ NoteStore = (*Store)(nil)
var _ AttachmentStore = (*Store)(nil)
var _ BackupStore = (*Store)(nil)
