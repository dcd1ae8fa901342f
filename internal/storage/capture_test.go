package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCapturePaths(t *testing.T) {
	s := NewCaptureStore("/runs/latest")

	if got := s.ArtifactPath("S1", "pairwise.json"); got != filepath.Join("/runs/latest", "S1.pairwise.json") {
		t.Errorf("artifact path = %q", got)
	}
	if got := s.StdoutPath("S1"); got != filepath.Join("/runs/latest", "S1.stdout") {
		t.Errorf("stdout path = %q", got)
	}
	if got := s.StderrPath("S1"); got != filepath.Join("/runs/latest", "S1.stderr") {
		t.Errorf("stderr path = %q", got)
	}
	if got := s.DatasetPath("/data", "S1", "ssm"); got != filepath.Join("/data", "S1.ssm") {
		t.Errorf("dataset path = %q", got)
	}
}

// Capture filenames must stay distinct per sample even after stripping
// unsafe characters.
func TestCaptureSanitize(t *testing.T) {
	if got := sanitize("sample_01-a"); got != "sample_01-a" {
		t.Errorf("sanitize changed a safe id: %q", got)
	}
	if got := sanitize("s a/m!p"); got != "samp" {
		t.Errorf("sanitize = %q, want samp", got)
	}
	if got := sanitize("!!!"); got != "sample" {
		t.Errorf("sanitize of unusable id = %q, want fallback", got)
	}
}

func TestInitCreatesRunDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "runs", "latest")
	s := NewCaptureStore(dir)
	if err := s.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Fatalf("run directory not created: %v", err)
	}
}
