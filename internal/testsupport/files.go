package testsupport

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// WriteTrack creates a fake downloaded track named the way the acquisition
// template names them ("%03d-<title>.mp3") and returns its path. size bytes
// of filler are written; size <= 0 writes a single byte.
func WriteTrack(t testing.TB, dir string, sequence int, title string, size int) string {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%03d-%s.mp3", sequence, title))
	if err := os.WriteFile(path, bytes.Repeat([]byte{0x42}, size), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
