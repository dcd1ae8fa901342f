package core

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"time"
)

// Executor runs single jobs as child worker processes.
type Executor struct{}

// NewExecutor creates a new executor.
func NewExecutor() *Executor {
	return &Executor{}
}

// Run executes one job and returns its result. When the job carries capture
// targets the child's streams are written straight to those files; otherwise
// combined output is buffered in memory and returned in the result. A zero
// timeout means the job may run indefinitely.
func (e *Executor) Run(ctx context.Context, job Job, timeout time.Duration) Result {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	started := time.Now()
	cmd := exec.CommandContext(ctx, job.Program, job.Args...)
	if len(job.Env) > 0 {
		cmd.Env = append(os.Environ(), job.Env...)
	}

	var buf bytes.Buffer
	var closers []*os.File
	if job.Stdout != "" {
		f, err := os.Create(job.Stdout)
		if err != nil {
			return Result{Job: job, ExitCode: -1, Err: err}
		}
		closers = append(closers, f)
		cmd.Stdout = f
	} else {
		cmd.Stdout = &buf
	}
	if job.Stderr != "" {
		f, err := os.Create(job.Stderr)
		if err != nil {
			for _, c := range closers {
				c.Close()
			}
			return Result{Job: job, ExitCode: -1, Err: err}
		}
		closers = append(closers, f)
		cmd.Stderr = f
	} else {
		cmd.Stderr = &buf
	}

	err := cmd.Run()
	for _, c := range closers {
		c.Close()
	}

	res := Result{
		Job:      job,
		Err:      err,
		Output:   buf.String(),
		Duration: time.Since(started),
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
	} else if err != nil {
		res.ExitCode = -1
	}
	return res
}
