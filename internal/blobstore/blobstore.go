// Package blobstore implements a local content-addressed blob store.
//
// Blob bytes are keyed by their SHA-256 digest and laid out in a two-level
// fan-out tree: a blob with id "abcd1234..." lives at root/ab/cd/abcd1234...
// so no single directory accumulates more than 256 entries per level.
package blobstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned when no blob exists for the requested id.
var ErrNotFound = errors.New("blob not found")

const idHexLength = sha256.Size * 2

// Store is the blob enumeration contract consumed by the backup engine.
type Store interface {
	Write(ctx context.Context, data []byte) (string, error)
	Read(ctx context.Context, id string) ([]byte, error)
	Exists(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
	ListAll(ctx context.Context) ([]string, error)
}

// LocalStore stores blobs in a content-addressed tree on the local filesystem.
type LocalStore struct {
	root string
}

var _ Store = (*LocalStore)(nil)

// NewLocalStore creates a blob store rooted at root, creating it if needed.
func NewLocalStore(root string) (*LocalStore, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("blob store root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, err
	}
	return &LocalStore{root: abs}, nil
}

// Root returns the blob store root directory.
func (s *LocalStore) Root() string {
	return s.root
}

// Write stores data under its SHA-256 digest and returns the digest.
// Writing bytes that are already stored is a no-op returning the same id.
// New blobs land via a temp file and an atomic rename so a partially
// written blob is never visible under its final name.
func (s *LocalStore) Write(ctx context.Context, data []byte) (string, error) {
	if s == nil {
		return "", fmt.Errorf("blob store is not configured")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	sum := sha256.Sum256(data)
	id := hex.EncodeToString(sum[:])
	dst := s.Path(id)

	if _, err := os.Stat(dst); err == nil {
		return id, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), id+".tmp-*")
	if err != nil {
		return "", err
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return "", err
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", err
	}

	if err := os.Rename(tmpPath, dst); err != nil {
		// A concurrent writer may have landed the identical content first.
		if _, statErr := os.Stat(dst); statErr == nil {
			_ = os.Remove(tmpPath)
			return id, nil
		}
		cleanup()
		return "", err
	}

	return id, nil
}

// Read returns the blob bytes for id or ErrNotFound.
func (s *LocalStore) Read(ctx context.Context, id string) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("blob store is not configured")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateID(id); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, err
	}
	return data, nil
}

// Exists reports whether a blob with id is stored.
func (s *LocalStore) Exists(ctx context.Context, id string) (bool, error) {
	if s == nil {
		return false, fmt.Errorf("blob store is not configured")
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err := validateID(id); err != nil {
		return false, nil
	}
	if _, err := os.Stat(s.Path(id)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Delete removes a blob. Deleting an absent blob is a no-op.
func (s *LocalStore) Delete(ctx context.Context, id string) error {
	if s == nil {
		return fmt.Errorf("blob store is not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateID(id); err != nil {
		return err
	}
	if err := os.Remove(s.Path(id)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// ListAll walks the fan-out tree and returns every stored blob id. Only
// filenames shaped like a digest are reported, so leftover temp files or
// stray entries are never mistaken for blobs.
func (s *LocalStore) ListAll(ctx context.Context) ([]string, error) {
	if s == nil {
		return nil, fmt.Errorf("blob store is not configured")
	}
	ids := []string{}
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			return nil
		}
		if name := d.Name(); isBlobID(name) {
			ids = append(ids, name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Path returns the fan-out path for a blob id.
func (s *LocalStore) Path(id string) string {
	return filepath.Join(s.root, id[0:2], id[2:4], id)
}

func validateID(id string) error {
	if !isBlobID(id) {
		return fmt.Errorf("invalid blob id %q", id)
	}
	return nil
}

func isBlobID(id string) bool {
	if len(id) != idHexLength {
		return false
	}
	for _, c := range id {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
