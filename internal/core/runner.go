package core

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/rs/xid"

	"phylopipe/internal/index"
	"phylopipe/internal/journal"
	"phylopipe/internal/publish"
	"phylopipe/internal/storage"
)

// StageState is one stage's position in the run's state machine.
type StageState int

const (
	StagePending StageState = iota
	StageRunning
	StageCompleted
	StageFailed
)

func (s StageState) String() string {
	switch s {
	case StageRunning:
		return "running"
	case StageCompleted:
		return "completed"
	case StageFailed:
		return "failed"
	}
	return "pending"
}

// Runner ties together Scheduler + Builder + Dispatcher + capture storage +
// journal, and drives the stage chain in order. A stage runs only after its
// predecessor completed; any stage failure halts the run. There is no
// cross-stage overlap: the runner blocks while each batch drains.
type Runner struct {
	cfg        *Pipeline
	sched      *Scheduler
	builder    *Builder
	dispatcher *Dispatcher
	store      *storage.CaptureStore
	journal    *journal.Journal
	priv       ed25519.PrivateKey
	pub        ed25519.PublicKey
	publisher  publish.Publisher
	log        *slog.Logger

	runID  string
	states map[string]StageState
}

// NewRunner assembles a runner for one pipeline run. The journal is opened
// fail-open: a run proceeds without provenance records if the journal cannot
// be opened, with a warning.
func NewRunner(cfg *Pipeline, sched *Scheduler, pub publish.Publisher, logger *slog.Logger, progress bool) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	store := storage.NewCaptureStore(cfg.RunDir)
	dispatcher := NewDispatcher(cfg.Concurrency, time.Duration(cfg.Timeout), logger)
	dispatcher.Progress = progress

	r := &Runner{
		cfg:        cfg,
		sched:      sched,
		builder:    NewBuilder(cfg, store),
		dispatcher: dispatcher,
		store:      store,
		publisher:  pub,
		log:        logger,
		runID:      xid.New().String(),
		states:     make(map[string]StageState),
	}
	for _, name := range Chain {
		r.states[name] = StagePending
	}

	if cfg.Journal.Path != "" {
		jr, err := journal.Open(cfg.Journal.Path)
		if err != nil {
			logger.Warn("cannot open journal, continuing without provenance", "err", err)
			return r
		}
		keyDir := cfg.Journal.KeyDir
		if keyDir == "" {
			keyDir = filepath.Join(filepath.Dir(cfg.Journal.Path), "keys")
		}
		pubKey, privKey, err := journal.EnsureKeyPair(keyDir)
		if err != nil {
			logger.Warn("cannot load journal keys, continuing without provenance", "err", err)
			return r
		}
		r.journal = jr
		r.pub = pubKey
		r.priv = privKey
	}
	return r
}

// RunID returns this run's unique identifier.
func (r *Runner) RunID() string { return r.runID }

// States returns the current stage-state map.
func (r *Runner) States() map[string]StageState { return r.states }

// Run executes the planned stages in chain order and returns the first
// failure, if any. Samples are re-discovered at the start of every stage, so
// each stage only sees what currently exists on disk.
func (r *Runner) Run(ctx context.Context) error {
	plan, err := r.sched.Plan()
	if err != nil {
		return err
	}
	if err := r.store.Init(); err != nil {
		return err
	}
	r.log.Info("starting pipeline run",
		"run", r.runID,
		"stages", plan,
		"concurrency", r.cfg.Concurrency)

	for _, name := range plan {
		r.states[name] = StageRunning
		if err := r.runStage(ctx, name); err != nil {
			r.states[name] = StageFailed
			return fmt.Errorf("stage %s: %w", name, err)
		}
		r.states[name] = StageCompleted
	}
	return nil
}

func (r *Runner) runStage(ctx context.Context, name string) error {
	// Index and publish are built-in stages, not worker fan-outs.
	switch name {
	case StageIndex:
		return index.Write(r.cfg.RunDir)
	case StagePublish:
		return r.publisher.Publish(ctx, r.cfg.RunDir)
	}

	var batch Batch
	var err error
	switch name {
	case StageRename:
		batch, err = r.builder.Rename()
	case StagePairwise:
		batch, err = r.builder.Pairwise()
	case StagePlot:
		batch, err = r.builder.Plot()
	case StageTreeIndex:
		batch, err = r.builder.TreeIndex()
	default:
		return fmt.Errorf("unknown stage %q", name)
	}
	if err != nil {
		return err
	}

	if batch.Skipped > 0 {
		r.log.Warn("samples skipped, upstream artifacts missing",
			"stage", name, "skipped", batch.Skipped)
	}
	if batch.UpToDate > 0 {
		r.log.Info("samples already up to date", "stage", name, "count", batch.UpToDate)
	}
	if len(batch.Jobs) == 0 {
		r.log.Info("no work", "stage", name)
		return nil
	}

	r.log.Info("dispatching batch", "stage", name, "jobs", len(batch.Jobs))
	result := r.dispatcher.Dispatch(ctx, batch)
	r.record(name, result)

	if result.Failed != nil {
		failed := result.Failed
		if failed.Output != "" {
			r.log.Warn("failed job output", "sample", failed.Job.Sample, "output", failed.Output)
		}
		return fmt.Errorf("sample %s: worker %s exited with status %d: %w",
			failed.Job.Sample, failed.Job.Program, failed.ExitCode, failed.Err)
	}
	r.log.Info("stage completed", "stage", name, "launched", result.Launched)
	return nil
}

// record appends one journal entry per job outcome, tying the entry to the
// sample's stderr capture via its hash. Journal trouble never fails the run.
func (r *Runner) record(stage string, result BatchResult) {
	if r.journal == nil {
		return
	}
	for _, res := range result.Results {
		capture := res.Job.Stderr
		var captureHash string
		if capture != "" {
			if h, err := journal.HashFile(capture); err == nil {
				captureHash = h
			}
		}
		entry, err := journal.NewEntry(r.journal.NextIndex(), r.runID, stage,
			res.Job.Sample, res.Job.Program, res.ExitCode, capture, captureHash,
			r.journal.LastHash())
		if err != nil {
			r.log.Warn("cannot create journal entry", "err", err)
			continue
		}
		if err := r.journal.Append(entry, r.priv, r.pub); err != nil {
			r.log.Warn("cannot append journal entry", "err", err)
		}
	}
}
