package fileutil

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.gif")
	dst := filepath.Join(dir, "dst.gif")

	content := []byte("GIF89a fake")
	if err := os.WriteFile(src, content, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := CopyFile(src, dst); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(content) {
		t.Fatalf("content mismatch: got %q, want %q", got, content)
	}
}

func TestCopyFileMissingSource(t *testing.T) {
	dir := t.TempDir()
	if err := CopyFile(filepath.Join(dir, "nope"), filepath.Join(dir, "dst")); err == nil {
		t.Fatal("expected error for missing source")
	}
}

func TestWriteLimited(t *testing.T) {
	dir := t.TempDir()

	dst := filepath.Join(dir, "exact.bin")
	n, err := WriteLimited(dst, strings.NewReader("12345"), 5)
	if err != nil || n != 5 {
		t.Fatalf("exact limit: n=%d err=%v", n, err)
	}

	over := filepath.Join(dir, "over.bin")
	if _, err := WriteLimited(over, strings.NewReader("123456"), 5); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
	if _, err := os.Stat(over); !os.IsNotExist(err) {
		t.Fatalf("expected oversized file to be removed, stat err=%v", err)
	}

	unlimited := filepath.Join(dir, "unlimited.bin")
	if n, err := WriteLimited(unlimited, strings.NewReader(strings.Repeat("x", 64)), 0); err != nil || n != 64 {
		t.Fatalf("unlimited: n=%d err=%v", n, err)
	}
}
