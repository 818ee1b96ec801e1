package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalStoreSave(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir, "uploads/")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	p, err := store.Save(context.Background(), ".PNG", strings.NewReader("image-bytes"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !strings.HasPrefix(p, "/uploads/") || !strings.HasSuffix(p, ".png") {
		t.Fatalf("unexpected public path %q", p)
	}

	data, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(p, "/uploads/")))
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	if string(data) != "image-bytes" {
		t.Fatalf("expected stored content got %q", data)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("expected 1 file in upload dir got %d", len(entries))
	}
}

func TestLocalStoreSaveCanceled(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "/uploads")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.Save(ctx, ".jpg", strings.NewReader("x")); err == nil {
		t.Fatalf("expected error for canceled context")
	}
}
