package models

import (
	"fmt"
	"strings"
	"time"
)

// Attachment links a note to a stored blob. BlobHash is the content address
// of the bytes in the blob store; deleting an attachment never deletes the
// blob (other attachments or retained backups may still reference it).
type Attachment struct {
	ID        string    `json:"id"`
	NoteID    string    `json:"note_id"`
	BlobHash  string    `json:"blob_hash"`
	Filename  string    `json:"filename"`
	MimeType  string    `json:"mime_type"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate checks required attachment fields.
func (a *Attachment) Validate() error {
	if a == nil {
		return fmt.Errorf("attachment is required")
	}
	if strings.TrimSpace(a.NoteID) == "" {
		return fmt.Errorf("attachment note id is required")
	}
	if strings.TrimSpace(a.BlobHash) == "" {
		return fmt.Errorf("attachment blob hash is required")
	}
	if strings.TrimSpace(a.Filename) == "" {
		return fmt.Errorf("attachment filename is required")
	}
	return nil
}
