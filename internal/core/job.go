package core

import "time"

// Job is one worker invocation inside a stage batch. Jobs within a batch are
// mutually independent: every path in Args is fully resolved, and capture
// targets are never shared between samples.
type Job struct {
	Sample  string   // sample id the job belongs to
	Program string   // worker executable path
	Args    []string // literal positional argument vector
	Env     []string // extra KEY=VALUE entries appended to the inherited environment

	// Stdout/Stderr are per-sample capture file paths. When empty the
	// stream is buffered in memory instead, for stages that run without
	// capture.
	Stdout string
	Stderr string
}

// Result is the outcome of one dispatched job.
type Result struct {
	Job      Job
	ExitCode int
	Err      error
	Output   string // combined output, only for jobs without capture targets
	Duration time.Duration
}

// Batch is the set of jobs built for one stage run, plus what the builder
// had to leave out.
type Batch struct {
	Stage    string
	Jobs     []Job
	Skipped  int // samples excluded because an upstream artifact is missing
	UpToDate int // samples excluded because their outputs are already current
}

// BatchResult aggregates per-job results after a dispatch. Failed points at
// the first failing job when the batch was halted, nil otherwise. Launched
// counts jobs that actually ran; jobs suppressed by halt-on-failure are not
// included.
type BatchResult struct {
	Results  []Result
	Failed   *Result
	Launched int
}
