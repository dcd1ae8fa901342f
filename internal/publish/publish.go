// Package publish pushes a finished run to an external viewer application.
// The viewer is reached only through the Publisher interface so it can be
// swapped or stubbed; the pipeline itself never depends on the concrete
// viewer.
package publish

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Publisher is the single capability the pipeline's publish stage invokes.
type Publisher interface {
	Publish(ctx context.Context, runDir string) error
}

// PublishedSuffixes are the artifact kinds the viewer consumes.
var PublishedSuffixes = []string{".results.html", ".summ.json.gz", ".muts.json.gz"}

// Viewer copies final artifacts into the viewer application's data directory
// and invokes its indexing entry point.
type Viewer struct {
	DataDir string
	Indexer string // path of the viewer's index rebuild program; empty = copy only
}

// Publish copies the run's published artifacts and rebuilds the viewer
// index. The indexer is run with the data directory as its only argument.
func (v *Viewer) Publish(ctx context.Context, runDir string) error {
	if v.DataDir == "" {
		return fmt.Errorf("publish: viewer data directory not configured")
	}
	if err := os.MkdirAll(v.DataDir, 0775); err != nil {
		return err
	}

	entries, err := os.ReadDir(runDir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || !published(entry.Name()) {
			continue
		}
		src := filepath.Join(runDir, entry.Name())
		dst := filepath.Join(v.DataDir, entry.Name())
		if err := copyFile(src, dst); err != nil {
			return fmt.Errorf("publish %s: %w", entry.Name(), err)
		}
	}

	if v.Indexer == "" {
		return nil
	}
	cmd := exec.CommandContext(ctx, v.Indexer, v.DataDir)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("viewer indexer: %w: %s", err, out)
	}
	return nil
}

// Nop is a Publisher that does nothing, used when no viewer is configured.
type Nop struct{}

func (Nop) Publish(context.Context, string) error { return nil }

func published(name string) bool {
	for _, suffix := range PublishedSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
