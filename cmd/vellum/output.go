package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"vellum/internal/models"
)

func writeJSON(payload any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func writePlain(format string, args ...any) error {
	_, err := fmt.Fprintf(os.Stdout, format, args...)
	return err
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func writeNote(note *models.Note, jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(note)
	}
	lines := []string{
		fmt.Sprintf("id: %s", note.ID),
		fmt.Sprintf("title: %s", note.Title),
		fmt.Sprintf("created_at: %s", formatTimestamp(note.CreatedAt)),
		fmt.Sprintf("updated_at: %s", formatTimestamp(note.UpdatedAt)),
	}
	if note.CollectionID != "" {
		lines = append(lines, fmt.Sprintf("collection_id: %s", note.CollectionID))
	}
	if note.DeletedAt != nil {
		lines = append(lines, fmt.Sprintf("deleted_at: %s", formatTimestamp(*note.DeletedAt)))
	}
	lines = append(lines, fmt.Sprintf("content: %s", note.ContentJSON))
	for _, line := range lines {
		if err := writePlain("%s\n", line); err != nil {
			return err
		}
	}
	return nil
}

func writeNoteList(notes []models.Note, jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(notes)
	}
	for _, note := range notes {
		if err := writePlain("%s  %s  %s\n", note.ID, formatTimestamp(note.UpdatedAt), note.Title); err != nil {
			return err
		}
	}
	return nil
}

func writeCollectionList(collections []models.Collection, jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(collections)
	}
	for _, collection := range collections {
		if err := writePlain("%s  %s\n", collection.ID, collection.Name); err != nil {
			return err
		}
	}
	return nil
}

func writeAttachment(attachment *models.Attachment, jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(attachment)
	}
	return writePlain("%s  %s  %s  %d bytes\n",
		attachment.ID, attachment.Filename, attachment.BlobHash[:12], attachment.SizeBytes)
}

func writeAttachmentList(attachments []models.Attachment, jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(attachments)
	}
	for _, attachment := range attachments {
		if err := writeAttachment(&attachment, false); err != nil {
			return err
		}
	}
	return nil
}

func writeBackupList(backups []models.Backup, jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(backups)
	}
	for _, b := range backups {
		status := "present"
		if _, err := os.Stat(b.Path); err != nil {
			status = "pruned"
		}
		if err := writePlain("%s  %s  %10d bytes  %s  %s\n",
			b.ID, formatTimestamp(b.Timestamp), b.SizeBytes, status, b.Path); err != nil {
			return err
		}
	}
	return nil
}
