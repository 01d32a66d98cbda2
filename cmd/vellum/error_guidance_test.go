package main

import (
	"fmt"
	"io/fs"
	"testing"

	"vellum/internal/backup"
	"vellum/internal/envelope"
)

func TestFormatCLIError_AuthenticationGuidance(t *testing.T) {
	err := fmt.Errorf("open backup: %w", envelope.ErrAuthentication)
	lines := formatCLIError(err)
	if !containsLine(lines, "hint: check the backup password; the archive may also have been modified.") {
		t.Fatalf("expected password guidance, got %v", lines)
	}
}

func TestFormatCLIError_MalformedGuidance(t *testing.T) {
	lines := formatCLIError(envelope.ErrMalformed)
	if !containsLine(lines, "hint: the file does not look like a vellum backup archive.") {
		t.Fatalf("expected format guidance, got %v", lines)
	}
}

func TestFormatCLIError_ChecksumGuidance(t *testing.T) {
	err := fmt.Errorf("verify blobs/ab: %w", backup.ErrChecksumMismatch)
	lines := formatCLIError(err)
	if !containsLine(lines, "hint: the archive is damaged; restore from a different backup.") {
		t.Fatalf("expected damage guidance, got %v", lines)
	}
}

func TestFormatCLIError_MissingFileGuidance(t *testing.T) {
	err := fmt.Errorf("read archive: %w", fs.ErrNotExist)
	lines := formatCLIError(err)
	if !containsLine(lines, "hint: check the path; backups live under the data directory's backups folder.") {
		t.Fatalf("expected path guidance, got %v", lines)
	}
}

func TestFormatCLIError_Deduplicates(t *testing.T) {
	lines := uniqueLines([]string{"a", "", "a", "b"})
	if len(lines) != 2 || lines[0] != "a" || lines[1] != "b" {
		t.Fatalf("unexpected lines %v", lines)
	}
}

func containsLine(lines []string, expected string) bool {
	for _, line := range lines {
		if line == expected {
			return true
		}
	}
	return false
}
