package backup

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"
)

func TestSnapshotManifestDeterminism(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	note := env.createNote(t, "Deterministic", `{}`)
	env.attachBlob(t, note.ID, "b.bin", []byte("blob two"))
	env.attachBlob(t, note.ID, "a.bin", []byte("blob one"))
	if err := env.store.Checkpoint(); err != nil {
		t.Fatalf("checkpoint: %v", err)
	}

	first, err := env.svc.buildSnapshot(ctx)
	if err != nil {
		t.Fatalf("build first snapshot: %v", err)
	}
	second, err := env.svc.buildSnapshot(ctx)
	if err != nil {
		t.Fatalf("build second snapshot: %v", err)
	}

	// Same database bytes and blob set must yield equal file listings,
	// regardless of archive-level metadata.
	if len(first.Manifest.Files) != len(second.Manifest.Files) {
		t.Fatalf("file counts differ: %d vs %d", len(first.Manifest.Files), len(second.Manifest.Files))
	}
	for i := range first.Manifest.Files {
		if first.Manifest.Files[i] != second.Manifest.Files[i] {
			t.Fatalf("entry %d differs: %+v vs %+v", i, first.Manifest.Files[i], second.Manifest.Files[i])
		}
	}
}

func TestSnapshotManifestExcludesItself(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.createNote(t, "Solo", `{}`)
	if err := env.store.Checkpoint(); err != nil {
		t.Fatalf("checkpoint: %v", err)
	}

	snap, err := env.svc.buildSnapshot(ctx)
	if err != nil {
		t.Fatalf("build snapshot: %v", err)
	}

	for _, entry := range snap.Manifest.Files {
		if entry.Path == manifestFileName {
			t.Fatalf("manifest lists itself")
		}
	}

	// The archive still carries the manifest as its last logical unit.
	zr, err := zip.NewReader(bytes.NewReader(snap.Archive), int64(len(snap.Archive)))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	manifest, err := parseManifest(zr)
	if err != nil {
		t.Fatalf("parse manifest: %v", err)
	}
	if manifest.Version != "test" {
		t.Fatalf("unexpected manifest version %q", manifest.Version)
	}
}

func TestSnapshotChecksumsMatchArchivedBytes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	note := env.createNote(t, "Checked", `{}`)
	env.attachBlob(t, note.ID, "data.bin", []byte("payload"))
	if err := env.store.Checkpoint(); err != nil {
		t.Fatalf("checkpoint: %v", err)
	}

	snap, err := env.svc.buildSnapshot(ctx)
	if err != nil {
		t.Fatalf("build snapshot: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(snap.Archive), int64(len(snap.Archive)))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}

	if err := verifyManifest(ctx, zr, &snap.Manifest); err != nil {
		t.Fatalf("fresh snapshot failed verification: %v", err)
	}
}
