package proc

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestProcfs_Footprint(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "300")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	status := "Name:\topencode\nState:\tS (sleeping)\nTgid:\t300\nPid:\t300\nPPid:\t1\nVmRSS:\t  204800 kB\nVmSwap:\t    2048 kB\n"
	if err := os.WriteFile(filepath.Join(dir, "status"), []byte(status), 0o644); err != nil {
		t.Fatal(err)
	}

	fs, err := NewProcfs(root)
	if err != nil {
		t.Fatalf("NewProcfs() error: %v", err)
	}

	s, err := fs.Footprint(context.Background(), 300)
	if err != nil {
		t.Fatalf("Footprint() error: %v", err)
	}
	if s.Swap != "2097152" {
		t.Errorf("Swap: got %q, want %q", s.Swap, "2097152")
	}
}

func TestProcfs_MissingProcess(t *testing.T) {
	fs, err := NewProcfs(t.TempDir())
	if err != nil {
		t.Fatalf("NewProcfs() error: %v", err)
	}
	if _, err := fs.Footprint(context.Background(), 4242); err == nil {
		t.Error("expected error for missing pid")
	}
}
