package storage

import (
	"os"
	"path/filepath"
)

// CaptureStore manages the flat run directory: per-sample artifacts named
// <id>.<kind> and per-sample stdout/stderr capture files. Capture files are
// the only place worker output goes, one file per stream per sample, so a
// fan-out of dozens of workers never interleaves output.
type CaptureStore struct {
	Dir string
}

// NewCaptureStore creates a store rooted at dir.
func NewCaptureStore(dir string) *CaptureStore {
	return &CaptureStore{Dir: dir}
}

// Init ensures the run directory exists.
func (s *CaptureStore) Init() error {
	return os.MkdirAll(s.Dir, 0775)
}

// ArtifactPath returns the path of a per-sample artifact, e.g.
// ArtifactPath("S1", "pairwise.json") -> <dir>/S1.pairwise.json. The id is
// used as-is so artifact names stay in step with dataset filenames.
func (s *CaptureStore) ArtifactPath(sample, kind string) string {
	return filepath.Join(s.Dir, sample+"."+kind)
}

// DatasetPath resolves a per-sample input artifact inside a dataset
// directory, using the same <id>.<kind> convention as the run directory.
func (s *CaptureStore) DatasetPath(dir, sample, kind string) string {
	return filepath.Join(dir, sample+"."+kind)
}

// StdoutPath returns the sample's stdout capture file.
func (s *CaptureStore) StdoutPath(sample string) string {
	return filepath.Join(s.Dir, sanitize(sample)+".stdout")
}

// StderrPath returns the sample's stderr capture file.
func (s *CaptureStore) StderrPath(sample string) string {
	return filepath.Join(s.Dir, sanitize(sample)+".stderr")
}

// sanitize strips characters that are not safe in filenames from sample ids.
func sanitize(name string) string {
	clean := ""
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '-' || r == '_' {
			clean += string(r)
		}
	}
	if clean == "" {
		return "sample"
	}
	return clean
}
