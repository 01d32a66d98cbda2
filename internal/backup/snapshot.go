package backup

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"time"
)

// ErrArchiveFormat is returned for a structurally invalid snapshot archive
// or manifest.
var ErrArchiveFormat = errors.New("invalid archive format")

const (
	manifestFileName = "manifest.json"
	dbArchivePath    = "db.sqlite"
	blobsArchiveDir  = "blobs"
)

// Manifest is the checksummed inventory written into every snapshot. The
// manifest file itself is not listed in Files.
type Manifest struct {
	Version   string      `json:"version"`
	Timestamp string      `json:"timestamp"`
	Files     []FileEntry `json:"files"`
}

// FileEntry describes one archived file. Checksum is the SHA-256 of the
// exact bytes written into the archive.
type FileEntry struct {
	Path     string `json:"path"`
	Size     int64  `json:"size"`
	Checksum string `json:"checksum"`
}

// snapshot is the packaged result handed to the encryption stage.
type snapshot struct {
	Archive      []byte
	Manifest     Manifest
	ManifestHash string
}

// buildSnapshot packages the live database file and every blob into a ZIP
// archive with a trailing manifest. Blobs are added in sorted-id order so
// two snapshots of identical state produce equal manifests.
func (s *Service) buildSnapshot(ctx context.Context) (*snapshot, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	manifest := Manifest{
		Version:   s.version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Files:     []FileEntry{},
	}

	dbData, err := os.ReadFile(s.dbPath)
	if err != nil {
		return nil, fmt.Errorf("read database file: %w", err)
	}
	if err := addArchiveFile(zw, &manifest, dbArchivePath, dbData); err != nil {
		return nil, err
	}

	ids, err := s.blobs.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("enumerate blobs: %w", err)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := s.blobs.Read(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("read blob %s: %w", id, err)
		}
		path := fmt.Sprintf("%s/%s/%s/%s", blobsArchiveDir, id[0:2], id[2:4], id)
		if err := addArchiveFile(zw, &manifest, path, data); err != nil {
			return nil, err
		}
	}

	manifestJSON, err := json.MarshalIndent(&manifest, "", "  ")
	if err != nil {
		return nil, err
	}
	w, err := zw.Create(manifestFileName)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(manifestJSON); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}

	return &snapshot{
		Archive:      buf.Bytes(),
		Manifest:     manifest,
		ManifestHash: checksum(manifestJSON),
	}, nil
}

func addArchiveFile(zw *zip.Writer, manifest *Manifest, path string, data []byte) error {
	w, err := zw.Create(path)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	manifest.Files = append(manifest.Files, FileEntry{
		Path:     path,
		Size:     int64(len(data)),
		Checksum: checksum(data),
	})
	return nil
}

// parseManifest locates and decodes manifest.json inside a snapshot archive.
func parseManifest(zr *zip.Reader) (*Manifest, error) {
	file, err := zr.Open(manifestFileName)
	if err != nil {
		return nil, fmt.Errorf("%w: missing %s", ErrArchiveFormat, manifestFileName)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrArchiveFormat, manifestFileName, err)
	}
	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrArchiveFormat, manifestFileName, err)
	}
	return &manifest, nil
}

func readArchiveFile(zr *zip.Reader, path string) ([]byte, error) {
	file, err := zr.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: missing file %s", ErrArchiveFormat, path)
	}
	defer file.Close()
	return io.ReadAll(file)
}

func checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
