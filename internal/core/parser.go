package core

import (
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

// ParsePipeline parses YAML content into a Pipeline and applies defaults.
func ParsePipeline(data []byte) (*Pipeline, error) {
	var pipeline Pipeline
	if err := yaml.Unmarshal(data, &pipeline); err != nil {
		return nil, err
	}
	if err := pipeline.validate(); err != nil {
		return nil, err
	}
	return &pipeline, nil
}

// LoadPipeline reads a pipeline config file and returns a Pipeline.
func LoadPipeline(path string) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParsePipeline(data)
}

func (p *Pipeline) validate() error {
	if p.Dataset == "" {
		return fmt.Errorf("config: dataset directory is required")
	}
	if p.RunDir == "" {
		return fmt.Errorf("config: rundir is required")
	}
	if p.Concurrency < 0 {
		return fmt.Errorf("config: concurrency must not be negative")
	}
	if p.Concurrency == 0 {
		p.Concurrency = runtime.NumCPU()
	}
	if p.Plot.OutputType == "" {
		p.Plot.OutputType = "clustered"
	}
	for name := range p.Stages {
		if stageIndex(name) < 0 {
			return fmt.Errorf("config: unknown stage %q", name)
		}
	}
	return nil
}
