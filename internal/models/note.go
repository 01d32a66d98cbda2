package models

import (
	"fmt"
	"strings"
	"time"
)

const maxNoteTitleLength = 512

// Note is one user note. ContentJSON carries the rich-text document as an
// opaque JSON payload; the store never interprets it.
type Note struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	ContentJSON   string     `json:"content_json"`
	TitleModified bool       `json:"title_modified"`
	CollectionID  string     `json:"collection_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	DeletedAt     *time.Time `json:"deleted_at,omitempty"`
}

// Validate checks required note fields.
func (n *Note) Validate() error {
	if n == nil {
		return fmt.Errorf("note is required")
	}
	if strings.TrimSpace(n.Title) == "" {
		return fmt.Errorf("note title is required")
	}
	if len(n.Title) > maxNoteTitleLength {
		return fmt.Errorf("note title too long (max %d characters)", maxNoteTitleLength)
	}
	return nil
}
