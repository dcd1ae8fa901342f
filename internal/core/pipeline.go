package core

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Pipeline is the full configuration for one pipeline run. It is built once
// by the parser and passed read-only to every component; nothing reads the
// environment or other ambient state.
type Pipeline struct {
	Dataset     string   `yaml:"dataset"`     // directory holding <id>.ssm / <id>.params.json / <id>.xlsx
	RunDir      string   `yaml:"rundir"`      // flat output directory for the run
	Concurrency int      `yaml:"concurrency"` // max workers per batch; 0 = NumCPU
	Timeout     Duration `yaml:"timeout"`     // per-job timeout; 0 = no timeout

	Workers   Workers         `yaml:"workers"`
	Rename    RenameConfig    `yaml:"rename"`
	Plot      PlotConfig      `yaml:"plot"`
	TreeIndex TreeIndexConfig `yaml:"treeindex"`
	Viewer    ViewerConfig    `yaml:"viewer"`
	Journal   JournalConfig   `yaml:"journal"`

	// Stages toggles individual stages. Absent stages default to enabled;
	// the chain order is fixed regardless.
	Stages map[string]bool `yaml:"stages"`
}

// Workers holds the paths of the external worker programs, one per worker
// stage. Each worker is an opaque program taking positional file-path
// arguments and reporting success through its exit status.
type Workers struct {
	Rename    string `yaml:"rename"`
	Pairwise  string `yaml:"pairwise"`
	Plot      string `yaml:"plot"`
	TreeIndex string `yaml:"treeindex"`
}

// RenameConfig points at the two lookup lists the rename worker needs
// alongside each sample's params file.
type RenameConfig struct {
	HiddenList  string `yaml:"hidden"`  // id -> hidden-name mapping
	RenamedList string `yaml:"renamed"` // id -> renamed-name mapping
}

// PlotConfig selects the report variant the plot worker emits.
type PlotConfig struct {
	OutputType string `yaml:"output_type"` // e.g. "clustered"
}

// TreeIndexConfig carries the library path the tree-index worker must be
// able to resolve at invocation time.
type TreeIndexConfig struct {
	LibPath string `yaml:"libpath"`
}

// ViewerConfig describes the external viewer application the publish stage
// pushes finished artifacts into. An empty DataDir disables publishing.
type ViewerConfig struct {
	DataDir string `yaml:"datadir"`
	Indexer string `yaml:"indexer"` // viewer's own index rebuild entry point
}

// JournalConfig locates the provenance journal and its signing keys.
type JournalConfig struct {
	Path   string `yaml:"path"`
	KeyDir string `yaml:"keydir"`
}

// StageEnabled reports whether a stage is toggled on. Stages not mentioned
// in the config are enabled.
func (p *Pipeline) StageEnabled(name string) bool {
	enabled, ok := p.Stages[name]
	if !ok {
		return true
	}
	return enabled
}

// Duration is a time.Duration that unmarshals from YAML strings like "90s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}
