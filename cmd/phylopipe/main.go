package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"phylopipe/internal/core"
	"phylopipe/internal/publish"
)

func main() {
	configPath := flag.String("config", "pipeline.yaml", "pipeline config file")
	concurrency := flag.Int("concurrency", 0, "max concurrent workers, overrides config")
	from := flag.String("from", "", "start the chain at this stage, skipping earlier ones")
	only := flag.String("only", "", "run exactly this stage")
	quiet := flag.Bool("quiet", false, "disable the progress bar")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := core.LoadPipeline(*configPath)
	if err != nil {
		logger.Error("cannot load pipeline config", "path", *configPath, "err", err)
		os.Exit(1)
	}
	if *concurrency > 0 {
		cfg.Concurrency = *concurrency
	}

	sched := core.NewScheduler(cfg)
	sched.From = *from
	sched.Only = *only

	var pub publish.Publisher = publish.Nop{}
	if cfg.Viewer.DataDir != "" {
		pub = &publish.Viewer{DataDir: cfg.Viewer.DataDir, Indexer: cfg.Viewer.Indexer}
	}

	runner := core.NewRunner(cfg, sched, pub, logger, !*quiet)
	if err := runner.Run(context.Background()); err != nil {
		logger.Error("pipeline failed", "run", runner.RunID(), "err", err)
		os.Exit(1)
	}
	fmt.Printf("✔ pipeline run %s finished (results in %s)\n", runner.RunID(), cfg.RunDir)
}
