package publish

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func runFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := []string{
		"S1.results.html", "S1.summ.json.gz", "S1.muts.json.gz",
		"S1.pairwise.json", // intermediate, not published
		"S1.stdout", "S1.stderr",
	}
	for _, name := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("content of "+name), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestViewerCopiesPublishedArtifacts(t *testing.T) {
	runDir := runFixture(t)
	dataDir := t.TempDir()

	v := &Viewer{DataDir: dataDir}
	if err := v.Publish(context.Background(), runDir); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	for _, name := range []string{"S1.results.html", "S1.summ.json.gz", "S1.muts.json.gz"} {
		data, err := os.ReadFile(filepath.Join(dataDir, name))
		if err != nil {
			t.Errorf("published artifact missing: %s", name)
			continue
		}
		if string(data) != "content of "+name {
			t.Errorf("artifact %s corrupted: %q", name, data)
		}
	}
	for _, name := range []string{"S1.pairwise.json", "S1.stdout", "S1.stderr"} {
		if _, err := os.Stat(filepath.Join(dataDir, name)); err == nil {
			t.Errorf("%s must not be published", name)
		}
	}
}

func TestViewerInvokesIndexer(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs /bin/sh")
	}
	runDir := runFixture(t)
	dataDir := t.TempDir()
	marker := filepath.Join(t.TempDir(), "marker")

	indexer := filepath.Join(t.TempDir(), "reindex.sh")
	if err := os.WriteFile(indexer, []byte("#!/bin/sh\nprintf %s \"$1\" > "+marker+"\n"), 0755); err != nil {
		t.Fatal(err)
	}

	v := &Viewer{DataDir: dataDir, Indexer: indexer}
	if err := v.Publish(context.Background(), runDir); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	got, err := os.ReadFile(marker)
	if err != nil {
		t.Fatalf("indexer was not invoked: %v", err)
	}
	if string(got) != dataDir {
		t.Errorf("indexer arg = %q, want data dir %q", got, dataDir)
	}
}

func TestViewerIndexerFailure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs /bin/sh")
	}
	runDir := runFixture(t)

	indexer := filepath.Join(t.TempDir(), "reindex.sh")
	if err := os.WriteFile(indexer, []byte("#!/bin/sh\necho broken 1>&2\nexit 1\n"), 0755); err != nil {
		t.Fatal(err)
	}

	v := &Viewer{DataDir: t.TempDir(), Indexer: indexer}
	err := v.Publish(context.Background(), runDir)
	if err == nil {
		t.Fatal("expected indexer failure to propagate")
	}
	if !strings.Contains(err.Error(), "broken") {
		t.Errorf("error should carry the indexer output, got %v", err)
	}
}

func TestViewerRequiresDataDir(t *testing.T) {
	v := &Viewer{}
	if err := v.Publish(context.Background(), t.TempDir()); err == nil {
		t.Error("expected error without a data directory")
	}
}

func TestNopPublisher(t *testing.T) {
	if err := (Nop{}).Publish(context.Background(), "anywhere"); err != nil {
		t.Errorf("nop publisher should never fail: %v", err)
	}
}
