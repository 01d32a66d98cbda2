package main

import (
	"context"
	"errors"
	"os"

	"vellum/internal/backup"
	"vellum/internal/envelope"
	"vellum/internal/store"
)

func formatCLIError(err error) []string {
	if err == nil {
		return nil
	}

	lines := []string{err.Error()}

	if errors.Is(err, envelope.ErrAuthentication) {
		lines = append(lines,
			"hint: check the backup password; the archive may also have been modified.",
		)
		return uniqueLines(lines)
	}

	if errors.Is(err, envelope.ErrMalformed) || errors.Is(err, backup.ErrArchiveFormat) {
		lines = append(lines,
			"hint: the file does not look like a vellum backup archive.",
			"hint: list known backups with: vellum backup list",
		)
		return uniqueLines(lines)
	}

	if errors.Is(err, backup.ErrChecksumMismatch) {
		lines = append(lines, "hint: the archive is damaged; restore from a different backup.")
		return uniqueLines(lines)
	}

	if errors.Is(err, store.ErrBackupNotFound) {
		lines = append(lines, "hint: list known backups with: vellum backup list")
		return uniqueLines(lines)
	}

	if errors.Is(err, os.ErrNotExist) {
		lines = append(lines, "hint: check the path; backups live under the data directory's backups folder.")
		return uniqueLines(lines)
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		lines = append(lines, "hint: the operation was interrupted; live data was left untouched.")
		return uniqueLines(lines)
	}

	return uniqueLines(lines)
}

func uniqueLines(lines []string) []string {
	seen := make(map[string]struct{}, len(lines))
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line == "" {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	return out
}
