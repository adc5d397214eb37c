package local

import (
	"context"
	"io"
	"strings"
	"testing"
)

func TestSaveAndOpen(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()

	key, size, mimeType, err := store.Save(ctx, "google:123", "bescheid.pdf", strings.NewReader("%PDF-1.4\nbody"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if size != int64(len("%PDF-1.4\nbody")) {
		t.Fatalf("unexpected size %d", size)
	}
	if mimeType != "application/pdf" {
		t.Fatalf("unexpected mime type %q", mimeType)
	}
	if !strings.HasSuffix(key, "_bescheid.pdf") {
		t.Fatalf("unexpected key %q", key)
	}

	rc, err := store.Open(ctx, key)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	if string(body) != "%PDF-1.4\nbody" {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestRejectsTraversal(t *testing.T) {
	store := New(t.TempDir())
	if _, err := store.Open(context.Background(), "../etc/passwd"); err == nil {
		t.Fatalf("expected traversal to be rejected")
	}
	if _, err := store.SaveWithKey(context.Background(), "/abs/key", "text/plain", strings.NewReader("x")); err == nil {
		t.Fatalf("expected absolute key to be rejected")
	}
	if _, _, _, err := store.Save(context.Background(), "u", "../x.pdf", strings.NewReader("x")); err == nil {
		t.Fatalf("expected traversal file name to be rejected")
	}
}
