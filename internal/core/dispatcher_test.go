package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeRunner executes jobs in memory, tracking the peak number of jobs
// running at once and the order jobs were actually launched in.
type fakeRunner struct {
	running int32
	maxSeen int32

	delay   map[string]time.Duration // per-sample run time
	failFor map[string]bool

	mu       sync.Mutex
	launched []string
}

func (f *fakeRunner) Run(ctx context.Context, job Job, timeout time.Duration) Result {
	cur := atomic.AddInt32(&f.running, 1)
	for {
		max := atomic.LoadInt32(&f.maxSeen)
		if cur <= max || atomic.CompareAndSwapInt32(&f.maxSeen, max, cur) {
			break
		}
	}
	f.mu.Lock()
	f.launched = append(f.launched, job.Sample)
	f.mu.Unlock()

	if d := f.delay[job.Sample]; d > 0 {
		time.Sleep(d)
	}
	atomic.AddInt32(&f.running, -1)

	if f.failFor[job.Sample] {
		return Result{Job: job, ExitCode: 1, Err: errors.New("worker exited with status 1")}
	}
	return Result{Job: job}
}

func makeBatch(n int) Batch {
	batch := Batch{Stage: "test"}
	for i := 0; i < n; i++ {
		batch.Jobs = append(batch.Jobs, Job{Sample: fmt.Sprintf("s%02d", i)})
	}
	return batch
}

// At no instant may more than Limit jobs run simultaneously.
func TestDispatchConcurrencyCeiling(t *testing.T) {
	fake := &fakeRunner{delay: map[string]time.Duration{}}
	batch := makeBatch(20)
	for _, job := range batch.Jobs {
		fake.delay[job.Sample] = 5 * time.Millisecond
	}

	d := &Dispatcher{Runner: fake, Limit: 3}
	res := d.Dispatch(context.Background(), batch)

	if res.Failed != nil {
		t.Fatalf("unexpected failure: %v", res.Failed.Err)
	}
	if res.Launched != 20 {
		t.Errorf("launched = %d, want 20", res.Launched)
	}
	if fake.maxSeen > 3 {
		t.Errorf("peak concurrency = %d, want <= 3", fake.maxSeen)
	}
}

// After the first failure is detected, no further job may be launched.
func TestDispatchHaltOnFirstFailure(t *testing.T) {
	fake := &fakeRunner{failFor: map[string]bool{"s00": true}}
	batch := makeBatch(10)

	d := &Dispatcher{Runner: fake, Limit: 1}
	res := d.Dispatch(context.Background(), batch)

	if res.Failed == nil {
		t.Fatal("expected a failed batch")
	}
	if res.Failed.Job.Sample != "s00" {
		t.Errorf("failed sample = %s, want s00", res.Failed.Job.Sample)
	}
	if res.Launched != 1 {
		t.Errorf("launched = %d, want 1 (halt must suppress queued jobs)", res.Launched)
	}
}

// Jobs already in flight when a failure is detected run to completion.
func TestDispatchAwaitsInFlight(t *testing.T) {
	fake := &fakeRunner{
		delay:   map[string]time.Duration{"s00": 80 * time.Millisecond, "s01": time.Millisecond},
		failFor: map[string]bool{"s01": true},
	}
	batch := makeBatch(12)

	d := &Dispatcher{Runner: fake, Limit: 2}
	res := d.Dispatch(context.Background(), batch)

	if res.Failed == nil || res.Failed.Job.Sample != "s01" {
		t.Fatalf("expected s01 to fail, got %+v", res.Failed)
	}
	var sawSlow bool
	for _, r := range res.Results {
		if r.Job.Sample == "s00" {
			sawSlow = r.Err == nil
		}
	}
	if !sawSlow {
		t.Error("in-flight job s00 should have been awaited and completed")
	}
	if res.Launched >= 12 {
		t.Errorf("launched = %d, want fewer than the full batch", res.Launched)
	}
}

func TestDispatchEmptyBatch(t *testing.T) {
	d := &Dispatcher{Runner: &fakeRunner{}, Limit: 4}
	res := d.Dispatch(context.Background(), Batch{Stage: "test"})
	if res.Launched != 0 || res.Failed != nil || len(res.Results) != 0 {
		t.Errorf("empty batch should be a no-op, got %+v", res)
	}
}
