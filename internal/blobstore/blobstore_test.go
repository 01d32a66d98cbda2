package blobstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *LocalStore {
	t.Helper()
	store, err := NewLocalStore(filepath.Join(t.TempDir(), "blobs"))
	if err != nil {
		t.Fatalf("new local store: %v", err)
	}
	return store
}

func TestWriteRead(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	data := []byte("hello, world")
	id, err := store.Write(ctx, data)
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	sum := sha256.Sum256(data)
	if want := hex.EncodeToString(sum[:]); id != want {
		t.Fatalf("expected id %s, got %s", want, id)
	}

	got, err := store.Read(ctx, id)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != string(data) {
		t.Fatalf("expected %q, got %q", data, got)
	}
}

func TestWriteDeduplicates(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.Write(ctx, []byte("same content"))
	if err != nil {
		t.Fatalf("write first: %v", err)
	}
	second, err := store.Write(ctx, []byte("same content"))
	if err != nil {
		t.Fatalf("write second: %v", err)
	}
	if first != second {
		t.Fatalf("expected identical ids, got %s and %s", first, second)
	}

	ids, err := store.ListAll(ctx)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(ids) != 1 {
		t.Fatalf("expected exactly one blob, got %d", len(ids))
	}
}

func TestReadMissing(t *testing.T) {
	store := newTestStore(t)

	missing := hex.EncodeToString(make([]byte, sha256.Size))
	_, err := store.Read(context.Background(), missing)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestExists(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.Write(ctx, []byte("probe me"))
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	ok, err := store.Exists(ctx, id)
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if !ok {
		t.Fatalf("expected blob to exist")
	}

	ok, err = store.Exists(ctx, hex.EncodeToString(make([]byte, sha256.Size)))
	if err != nil {
		t.Fatalf("exists missing: %v", err)
	}
	if ok {
		t.Fatalf("expected missing blob to not exist")
	}
}

func TestDeleteIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.Write(ctx, []byte("delete me"))
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := store.Delete(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Delete(ctx, id); err != nil {
		t.Fatalf("delete absent should be a no-op: %v", err)
	}
	ok, err := store.Exists(ctx, id)
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if ok {
		t.Fatalf("expected blob gone after delete")
	}
}

func TestFanOutLayout(t *testing.T) {
	store := newTestStore(t)

	id, err := store.Write(context.Background(), []byte("layout"))
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	path := store.Path(id)
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("stat blob path: %v", err)
	}

	parent := filepath.Base(filepath.Dir(path))
	grandparent := filepath.Base(filepath.Dir(filepath.Dir(path)))
	if parent != id[2:4] {
		t.Fatalf("expected parent dir %s, got %s", id[2:4], parent)
	}
	if grandparent != id[0:2] {
		t.Fatalf("expected grandparent dir %s, got %s", id[0:2], grandparent)
	}
}

func TestListAllSkipsStrayFiles(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.Write(ctx, []byte("real blob"))
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	// Stray files with the wrong name shape must not be reported.
	stray := filepath.Join(store.Root(), id[0:2], id[2:4], id+".tmp-1234")
	if err := os.WriteFile(stray, []byte("leftover"), 0o644); err != nil {
		t.Fatalf("write stray: %v", err)
	}
	upper := filepath.Join(store.Root(), "README")
	if err := os.WriteFile(upper, []byte("not a blob"), 0o644); err != nil {
		t.Fatalf("write readme: %v", err)
	}

	ids, err := store.ListAll(ctx)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(ids) != 1 || ids[0] != id {
		t.Fatalf("expected only %s, got %v", id, ids)
	}
}

func TestInvalidIDRejected(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Read(ctx, "../../etc/passwd"); err == nil {
		t.Fatalf("expected invalid id to be rejected")
	}
	ok, err := store.Exists(ctx, "ABCD")
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if ok {
		t.Fatalf("malformed id must not exist")
	}
}
