package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"talent/internal/platform/config"
)

func TestLocalPut(t *testing.T) {
	dir := t.TempDir()
	store := NewLocal(filepath.Join(dir, "certs"))

	path, err := store.Put(context.Background(), "ABC123.pdf", []byte("%PDF-1.3"), "application/pdf")
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "%PDF-1.3" {
		t.Fatalf("unexpected contents %q", data)
	}
}

func TestLocalRejectsNestedKeys(t *testing.T) {
	store := NewLocal(t.TempDir())
	if _, err := store.Put(context.Background(), "../escape.pdf", nil, ""); err == nil {
		t.Fatal("expected error for a key with a path")
	}
}

func TestNewFallsBackToLocal(t *testing.T) {
	store, err := New(context.Background(), config.Config{CertificateDir: t.TempDir()})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, ok := store.(*Local); !ok {
		t.Fatalf("expected local store, got %T", store)
	}
}

func TestObjectURL(t *testing.T) {
	got := objectURL("https://files.example.test", "certificates", "ABC 1.pdf")
	if got != "https://files.example.test/certificates/ABC%201.pdf" {
		t.Fatalf("unexpected url %s", got)
	}
}
