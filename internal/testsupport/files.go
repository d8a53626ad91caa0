package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// WriteFile creates path (and its parents) holding size bytes of filler. It
// stands in for audio and stem files whose content is never decoded.
// A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int) {
	t.Helper()
	if size <= 0 {
		size = 1
	}
	writeBytes(t, path, bytes.Repeat([]byte{0x42}, size))
}

// WriteRunFiles lays out a run directory under outputDir the way the pipeline
// names it (<output_dir>/<run-id>/) and writes each name -> content entry.
// It returns the run directory.
func WriteRunFiles(t testing.TB, outputDir, runID string, files map[string]string) string {
	t.Helper()
	dir := filepath.Join(outputDir, runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir run dir %s: %v", dir, err)
	}
	for name, content := range files {
		writeBytes(t, filepath.Join(dir, name), []byte(content))
	}
	return dir
}

func writeBytes(t testing.TB, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
