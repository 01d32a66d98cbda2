package backup

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"vellum/internal/envelope"
)

// ErrChecksumMismatch is returned when an archived file's bytes do not
// match the manifest's recorded checksum. The restore is aborted before any
// live state is touched.
var ErrChecksumMismatch = errors.New("archive checksum mismatch")

const asideSuffix = ".pre-restore-"

// Restore decrypts archivePath, verifies every archived file against the
// manifest, and only then atomically swaps the live database file and blob
// directory for the restored ones. A failure at any point before the swap
// leaves live state untouched. The previous state is moved aside and
// reclaimed after the cleanup grace window.
//
// The live database must not be open in this process while Restore runs.
func (s *Service) Restore(ctx context.Context, archivePath, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, err := s.resolveArchivePath(archivePath)
	if err != nil {
		return err
	}

	sealed, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read backup file: %w", err)
	}
	plaintext, err := envelope.Open(sealed, password, s.cipher)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	zr, err := zip.NewReader(bytes.NewReader(plaintext), int64(len(plaintext)))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrArchiveFormat, err)
	}
	manifest, err := parseManifest(zr)
	if err != nil {
		return err
	}

	if err := verifyManifest(ctx, zr, manifest); err != nil {
		return err
	}

	staging, err := s.extractToStaging(zr, manifest)
	if err != nil {
		return err
	}
	defer func() { _ = os.RemoveAll(staging) }()

	// Point of no return: from here on the swap must run to completion,
	// so cancellation is no longer consulted.
	aside, err := s.swapLiveState(staging)
	if err != nil {
		return err
	}

	s.scheduleAsideCleanup(aside)
	s.notifier.RestoreCompleted()
	slog.Info("restore completed", "archive", path, "files", len(manifest.Files))
	return nil
}

// resolveArchivePath rejects archives outside the backups directory.
func (s *Service) resolveArchivePath(archivePath string) (string, error) {
	abs, err := filepath.Abs(archivePath)
	if err != nil {
		return "", err
	}
	backupsDir, err := filepath.Abs(s.backupsDir)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(backupsDir, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("backup path must be inside %s", backupsDir)
	}
	return abs, nil
}

// verifyManifest recomputes every manifest entry's checksum against the
// archived bytes. All entries are checked before anything is trusted.
func verifyManifest(ctx context.Context, zr *zip.Reader, manifest *Manifest) error {
	if len(manifest.Files) == 0 {
		return fmt.Errorf("%w: manifest lists no files", ErrArchiveFormat)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for _, entry := range manifest.Files {
		entry := entry
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := readArchiveFile(zr, entry.Path)
			if err != nil {
				return err
			}
			if int64(len(data)) != entry.Size {
				return fmt.Errorf("%w: %s: size %d, manifest says %d",
					ErrChecksumMismatch, entry.Path, len(data), entry.Size)
			}
			if sum := checksum(data); sum != entry.Checksum {
				return fmt.Errorf("%w: %s", ErrChecksumMismatch, entry.Path)
			}
			return nil
		})
	}
	return g.Wait()
}

// extractToStaging writes verified archive contents into a staging
// directory inside the data dir, so the final renames stay on one
// filesystem. A blobs directory is created even when the snapshot holds no
// blobs.
func (s *Service) extractToStaging(zr *zip.Reader, manifest *Manifest) (string, error) {
	dataDir := filepath.Dir(s.dbPath)
	staging, err := os.MkdirTemp(dataDir, "restore-")
	if err != nil {
		return "", err
	}
	fail := func(err error) (string, error) {
		_ = os.RemoveAll(staging)
		return "", err
	}

	if err := os.MkdirAll(filepath.Join(staging, blobsArchiveDir), 0o755); err != nil {
		return fail(err)
	}

	sawDB := false
	for _, entry := range manifest.Files {
		if entry.Path != dbArchivePath && !strings.HasPrefix(entry.Path, blobsArchiveDir+"/") {
			return fail(fmt.Errorf("%w: unexpected archive path %s", ErrArchiveFormat, entry.Path))
		}
		if !filepath.IsLocal(filepath.FromSlash(entry.Path)) {
			return fail(fmt.Errorf("%w: non-local archive path %s", ErrArchiveFormat, entry.Path))
		}
		if entry.Path == dbArchivePath {
			sawDB = true
		}

		data, err := readArchiveFile(zr, entry.Path)
		if err != nil {
			return fail(err)
		}
		dst := filepath.Join(staging, filepath.FromSlash(entry.Path))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return fail(err)
		}
		if err := os.WriteFile(dst, data, 0o644); err != nil {
			return fail(err)
		}
	}

	if !sawDB {
		return fail(fmt.Errorf("%w: snapshot has no %s", ErrArchiveFormat, dbArchivePath))
	}
	return staging, nil
}

// swapLiveState renames current live state aside and the staged state into
// place. The two renames are the irreducible non-atomic window.
func (s *Service) swapLiveState(staging string) ([]string, error) {
	stamp := time.Now().UTC().Format(timestampLayout)
	aside := []string{}

	// Stale WAL/SHM sidecars from the old database must not be replayed
	// into the restored file.
	for _, sidecar := range []string{s.dbPath + "-wal", s.dbPath + "-shm"} {
		if err := os.Remove(sidecar); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("remove sidecar %s: %w", sidecar, err)
		}
	}

	asideDB := s.dbPath + asideSuffix + stamp
	if err := os.Rename(s.dbPath, asideDB); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("move database aside: %w", err)
		}
	} else {
		aside = append(aside, asideDB)
	}
	if err := os.Rename(filepath.Join(staging, dbArchivePath), s.dbPath); err != nil {
		return nil, fmt.Errorf("install restored database: %w", err)
	}

	asideBlobs := s.blobsDir + asideSuffix + stamp
	if err := os.Rename(s.blobsDir, asideBlobs); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("move blob directory aside: %w", err)
		}
	} else {
		aside = append(aside, asideBlobs)
	}
	if err := os.Rename(filepath.Join(staging, blobsArchiveDir), s.blobsDir); err != nil {
		return nil, fmt.Errorf("install restored blob directory: %w", err)
	}

	return aside, nil
}

// scheduleAsideCleanup reclaims aside-swapped previous state after the
// grace window. The delay gives an operational window to recover the old
// state if the restore turns out to be wrong. Cleanup failures are logged
// only; the live system is already correct.
func (s *Service) scheduleAsideCleanup(aside []string) {
	if len(aside) == 0 {
		return
	}
	if s.cleanupGrace <= 0 {
		removeAside(aside)
		return
	}
	time.AfterFunc(s.cleanupGrace, func() { removeAside(aside) })
}

func removeAside(aside []string) {
	for _, path := range aside {
		if err := os.RemoveAll(path); err != nil {
			slog.Warn("failed to clean up pre-restore state", "path", path, "error", err)
		}
	}
}

// CleanupStale removes aside-swapped pre-restore artifacts older than the
// grace window. The restore process usually exits before its in-process
// timer fires, so callers run this on startup to finish the job.
func (s *Service) CleanupStale(ctx context.Context) error {
	dataDir := filepath.Dir(s.dbPath)
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	cutoff := time.Now().Add(-s.cleanupGrace)
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !strings.Contains(entry.Name(), asideSuffix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(dataDir, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			slog.Warn("failed to clean up pre-restore state", "path", path, "error", err)
			continue
		}
		slog.Debug("reclaimed pre-restore state", "path", path)
	}
	return nil
}
