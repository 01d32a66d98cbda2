package models

import "time"

// Backup is the persisted record of one created backup archive. The record
// outlives the file: retention prunes files but keeps rows for history, so
// Path may point at a file that no longer exists.
type Backup struct {
	ID           string    `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	Path         string    `json:"path"`
	SizeBytes    int64     `json:"size_bytes"`
	ManifestHash string    `json:"manifest_hash"`
}
