package models

import (
	"fmt"
	"strings"
	"time"
)

// Collection groups notes into a named folder with display metadata.
type Collection struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Color       string    `json:"color"`
	Icon        string    `json:"icon,omitempty"`
	SortOrder   int       `json:"sort_order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Validate checks required collection fields.
func (c *Collection) Validate() error {
	if c == nil {
		return fmt.Errorf("collection is required")
	}
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("collection name is required")
	}
	return nil
}
